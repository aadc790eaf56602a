package models

import "time"

// UserSnapshot is a point-in-time copy of the acting user, captured when an
// action is queued. It is NOT a live reference: replaying the action later
// must use the identity as it was at submission time, even if the profile
// changed in the meantime.
type UserSnapshot struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Location is a latitude/longitude pair in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Celebration is a user-authored post tied to the current special day.
type Celebration struct {
	ID           int64        `json:"id"`
	UserID       string       `json:"user_id"`
	Author       UserSnapshot `json:"author"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	ImageURL     string       `json:"image_url"`
	Location     Location     `json:"location"`
	LikeCount    int          `json:"like_count"`
	CommentCount int          `json:"comment_count"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Comment is a confirmed, server-assigned comment on a celebration.
type Comment struct {
	ID            string       `json:"id"`
	CelebrationID int64        `json:"celebration_id"`
	User          UserSnapshot `json:"user"`
	Text          string       `json:"text"`
	CreatedAt     time.Time    `json:"created_at"`
}

// CelebrationDraft is the user-entered content of a not-yet-created
// celebration. While queued offline the image travels as a data URL because
// no network-accessible storage reference exists yet.
type CelebrationDraft struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ImageDataURL string `json:"image_data_url"`
}

// SpecialDay is the themed calendar entry driving the app's daily content.
type SpecialDay struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Name        string `json:"name"`
	Description string `json:"description"`
}

package models

import (
	"errors"
	"fmt"
)

// ActionKind discriminates the offline action union. The set is closed:
// the replay loop switches exhaustively on it, so adding a kind is a
// compile-visible change, not a runtime guess.
type ActionKind string

const (
	ActionComment     ActionKind = "comment"
	ActionCelebration ActionKind = "celebration"
)

// CommentAction is the payload of a comment queued while offline.
type CommentAction struct {
	CelebrationID int64        `json:"celebration_id"`
	Text          string       `json:"text"`
	CreatedAt     string       `json:"created_at"`
	User          UserSnapshot `json:"user_snapshot"`
}

// CelebrationAction is the payload of a celebration post queued while
// offline. The image is carried inline as a data URL until replay uploads
// it and obtains a durable storage path.
type CelebrationAction struct {
	Draft     CelebrationDraft `json:"celebration_data"`
	UserID    string           `json:"user_id"`
	Location  Location         `json:"location"`
	CreatedAt string           `json:"created_at"`
}

// OfflineAction is one entry of the offline queue: a durable descriptor of
// a user intent deferred because the client lacked connectivity. Exactly
// one payload field matching Kind is set.
type OfflineAction struct {
	ID          string             `json:"id"`
	Kind        ActionKind         `json:"type"`
	Comment     *CommentAction     `json:"comment,omitempty"`
	Celebration *CelebrationAction `json:"celebration,omitempty"`
}

var ErrMalformedAction = errors.New("malformed offline action")

// Validate checks the kind/payload pairing and the per-kind required fields.
func (a OfflineAction) Validate() error {
	switch a.Kind {
	case ActionComment:
		if a.Comment == nil || a.Celebration != nil {
			return fmt.Errorf("%w: comment action without comment payload", ErrMalformedAction)
		}
		if a.Comment.Text == "" {
			return fmt.Errorf("%w: empty comment text", ErrMalformedAction)
		}
		if a.Comment.User.ID == "" {
			return fmt.Errorf("%w: comment action missing user snapshot", ErrMalformedAction)
		}
	case ActionCelebration:
		if a.Celebration == nil || a.Comment != nil {
			return fmt.Errorf("%w: celebration action without celebration payload", ErrMalformedAction)
		}
		if a.Celebration.UserID == "" {
			return fmt.Errorf("%w: celebration action missing user id", ErrMalformedAction)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedAction, a.Kind)
	}
	return nil
}

// ActorID returns the identity the action was captured under. Replay must
// only happen while this user is the authenticated session user.
func (a OfflineAction) ActorID() string {
	switch a.Kind {
	case ActionComment:
		if a.Comment != nil {
			return a.Comment.User.ID
		}
	case ActionCelebration:
		if a.Celebration != nil {
			return a.Celebration.UserID
		}
	}
	return ""
}

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commentAction() OfflineAction {
	return OfflineAction{
		ID:   "1700000000000-abc123",
		Kind: ActionComment,
		Comment: &CommentAction{
			CelebrationID: 42,
			Text:          "Happy to be here!",
			CreatedAt:     "2026-08-29T10:00:00Z",
			User:          UserSnapshot{ID: "u1", Name: "Ada", Email: "ada@example.com"},
		},
	}
}

func celebrationAction() OfflineAction {
	return OfflineAction{
		ID:   "1700000000001-def456",
		Kind: ActionCelebration,
		Celebration: &CelebrationAction{
			Draft: CelebrationDraft{
				Title:        "Block picnic",
				Description:  "Bring a dish",
				ImageDataURL: "data:image/png;base64,AAAA",
			},
			UserID:    "u1",
			Location:  Location{Latitude: 52.52, Longitude: 13.405},
			CreatedAt: "2026-08-29T10:00:00Z",
		},
	}
}

func TestValidateAcceptsWellFormedActions(t *testing.T) {
	assert.NoError(t, commentAction().Validate())
	assert.NoError(t, celebrationAction().Validate())
}

func TestValidateRejectsKindPayloadMismatch(t *testing.T) {
	a := commentAction()
	a.Kind = ActionCelebration
	assert.ErrorIs(t, a.Validate(), ErrMalformedAction)

	b := celebrationAction()
	b.Comment = commentAction().Comment
	assert.ErrorIs(t, b.Validate(), ErrMalformedAction)
}

func TestValidateRejectsEmptyCommentText(t *testing.T) {
	a := commentAction()
	a.Comment.Text = ""
	assert.ErrorIs(t, a.Validate(), ErrMalformedAction)
}

func TestValidateRejectsUnknownKind(t *testing.T) {
	a := commentAction()
	a.Kind = "rsvp"
	assert.ErrorIs(t, a.Validate(), ErrMalformedAction)
}

func TestActorID(t *testing.T) {
	assert.Equal(t, "u1", commentAction().ActorID())
	assert.Equal(t, "u1", celebrationAction().ActorID())
	assert.Empty(t, OfflineAction{Kind: ActionComment}.ActorID())
}

func TestActionJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(commentAction())
	require.NoError(t, err)

	var decoded OfflineAction
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, commentAction(), decoded)
	assert.Nil(t, decoded.Celebration)
}

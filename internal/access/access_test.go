package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vidtube/backend/internal/models"
)

func TestAuthorize(t *testing.T) {
	video := models.Video{ID: "v1", OwnerID: "u1"}

	assert.NoError(t, Authorize("u1", video))
	assert.ErrorIs(t, Authorize("u2", video), ErrForbidden)
	assert.ErrorIs(t, Authorize("", models.Tweet{OwnerID: ""}), ErrForbidden)
	assert.ErrorIs(t, Authorize("u1", nil), ErrForbidden)
}

func TestAuthorizeCoversEveryOwnedEntity(t *testing.T) {
	owned := []Owned{
		models.Video{OwnerID: "u1"},
		models.Comment{OwnerID: "u1"},
		models.Tweet{OwnerID: "u1"},
		models.Playlist{OwnerID: "u1"},
	}
	for _, r := range owned {
		assert.NoError(t, Authorize("u1", r))
		assert.ErrorIs(t, Authorize("intruder", r), ErrForbidden)
	}
}

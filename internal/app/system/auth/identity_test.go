package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/commonroom/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIdentity(t *testing.T) {
	u := models.User{ID: primitive.NewObjectID(), Email: "ada@example.com", Username: "ada"}

	su := Identity(u, nil)
	assert.Equal(t, "ada", su.Name)
	assert.Empty(t, su.Bio)

	su = Identity(u, &models.Profile{Name: "Ada Lovelace", Bio: "analyst"})
	assert.Equal(t, "Ada Lovelace", su.Name)
	assert.Equal(t, "analyst", su.Bio)
	assert.Equal(t, u.ID.Hex(), su.ID)

	id, err := su.ObjectID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestObjectID_Malformed(t *testing.T) {
	su := &SessionUser{ID: "nope"}
	_, err := su.ObjectID()
	assert.Error(t, err)
}

func TestCurrentUserID(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	_, _, ok := CurrentUserID(r)
	assert.False(t, ok)

	_, _, ok = CurrentUserID(WithTestUser(r, &SessionUser{ID: "bad"}))
	assert.False(t, ok)

	want := primitive.NewObjectID()
	u, id, ok := CurrentUserID(WithTestUser(r, &SessionUser{ID: want.Hex(), Username: "ada"}))
	require.True(t, ok)
	assert.Equal(t, want, id)
	assert.Equal(t, "ada", u.Username)
}

package auth

import (
	"net/http"

	"github.com/dalemusser/commonroom/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity builds the session identity for u. Name and Bio come from the
// profile when one exists; Name falls back to the username.
func Identity(u models.User, p *models.Profile) SessionUser {
	su := SessionUser{
		ID:       u.ID.Hex(),
		Email:    u.Email,
		Name:     u.Username,
		Username: u.Username,
	}
	if p != nil {
		if p.Name != "" {
			su.Name = p.Name
		}
		su.Bio = p.Bio
	}
	return su
}

// ObjectID parses the user id carried in the token.
func (u *SessionUser) ObjectID() (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(u.ID)
}

// CurrentUserID returns the current user and its parsed id. ok is false
// when nobody is signed in or the subject is not an ObjectID.
func CurrentUserID(r *http.Request) (*SessionUser, primitive.ObjectID, bool) {
	u, ok := CurrentUser(r)
	if !ok {
		return nil, primitive.NilObjectID, false
	}
	id, err := u.ObjectID()
	if err != nil {
		return nil, primitive.NilObjectID, false
	}
	return u, id, true
}

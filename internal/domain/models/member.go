// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// MemberRoles is the canonical role list, used by the members validator.
var MemberRoles = []string{RoleOwner, RoleAdmin, RoleMember}

// Member joins a User to a Community. (community_id, user_id) is unique.
type Member struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CommunityID primitive.ObjectID `bson:"community_id" json:"community_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Username    string             `bson:"username" json:"username"`
	Role        string             `bson:"role" json:"role"` // owner | admin | member
	JoinedAt    time.Time          `bson:"joined_at" json:"joined_at"`
}

// IsValidMemberRole reports whether role is one of the known member roles.
func IsValidMemberRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// internal/domain/models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity types recorded by the API.
const (
	ActivitySignedUp          = "signed_up"
	ActivityCommunityCreated  = "community_created"
	ActivityCommunityJoined   = "community_joined"
	ActivityCommunityLeft     = "community_left"
	ActivityDiscussionCreated = "discussion_created"
	ActivityReplyCreated      = "reply_created"
	ActivityProfileUpdated    = "profile_updated"
)

// Activity is an append-only event about a user. Payload is free-form.
type Activity struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Type      string             `bson:"type" json:"type"`
	Payload   map[string]any     `bson:"payload,omitempty" json:"payload,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// internal/domain/models/community.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Community groups discussions under a topic list. Slug is unique and
// always stored lowercase.
type Community struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Topics      []string           `bson:"topics" json:"topics"`
	OwnerID     primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	MemberCount int64              `bson:"member_count" json:"member_count"` // denormalized

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

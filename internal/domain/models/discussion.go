// internal/domain/models/discussion.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Discussion belongs to one Community and one author. Slug is unique
// within the community, not globally.
type Discussion struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CommunityID    primitive.ObjectID `bson:"community_id" json:"community_id"`
	CommunitySlug  string             `bson:"community_slug" json:"community_slug"`
	AuthorID       primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorUsername string             `bson:"author_username" json:"author_username"`
	Title          string             `bson:"title" json:"title"`
	Slug           string             `bson:"slug" json:"slug"`
	Body           string             `bson:"body" json:"body"`
	ReplyCount     int64              `bson:"reply_count" json:"reply_count"` // denormalized

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Reply is a single response posted under a Discussion.
type Reply struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DiscussionID   primitive.ObjectID `bson:"discussion_id" json:"discussion_id"`
	AuthorID       primitive.ObjectID `bson:"author_id" json:"author_id"`
	AuthorUsername string             `bson:"author_username" json:"author_username"`
	Body           string             `bson:"body" json:"body"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

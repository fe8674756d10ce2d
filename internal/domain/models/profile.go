// internal/domain/models/profile.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile is the public face of a User, keyed one-to-one by username.
type Profile struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Username string             `bson:"username" json:"username"` // lowercased; matches users.username_ci
	Name     string             `bson:"name" json:"name"`
	Bio      string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Location string             `bson:"location,omitempty" json:"location,omitempty"`
	Website  string             `bson:"website,omitempty" json:"website,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// internal/app/store/activity/activitystore.go
package activitystore

import (
	"context"
	"time"

	"github.com/dalemusser/commonroom/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages the append-only activity log.
type Store struct {
	c *mongo.Collection
}

// New creates a new activity Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity")}
}

// Record appends an event for userID.
func (s *Store) Record(ctx context.Context, userID primitive.ObjectID, eventType string, payload map[string]any) error {
	_, err := s.c.InsertOne(ctx, models.Activity{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	})
	return err
}

// Recent returns userID's most recent events, newest first.
func (s *Store) Recent(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Activity{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

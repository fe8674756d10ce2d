// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/commonroom/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateMember is returned when the user already belongs to the community.
	ErrDuplicateMember = errors.New("user is already a member of this community")

	errBadRole = errors.New(`role must be "owner", "admin" or "member"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// Add creates a membership row.
func (s *Store) Add(ctx context.Context, m models.Member) (models.Member, error) {
	if m.Role == "" {
		m.Role = models.RoleMember
	}
	if !models.IsValidMemberRole(m.Role) {
		return models.Member{}, errBadRole
	}
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.JoinedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateMember
		}
		return models.Member{}, err
	}
	return m, nil
}

// Get returns the membership of userID in communityID.
// Returns mongo.ErrNoDocuments when the user is not a member.
func (s *Store) Get(ctx context.Context, communityID, userID primitive.ObjectID) (*models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"community_id": communityID, "user_id": userID}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// IsMember reports whether userID belongs to communityID.
func (s *Store) IsMember(ctx context.Context, communityID, userID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx,
		bson.M{"community_id": communityID, "user_id": userID},
		options.FindOne().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

// Remove deletes the membership. Returns the number of documents deleted (0 or 1).
func (s *Store) Remove(ctx context.Context, communityID, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"community_id": communityID, "user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByCommunity returns members in join order.
func (s *Store) ListByCommunity(ctx context.Context, communityID primitive.ObjectID, limit int64) ([]models.Member, error) {
	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"community_id": communityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Member{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

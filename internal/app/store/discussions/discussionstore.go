// internal/app/store/discussions/discussionstore.go
package discussionstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/commonroom/internal/app/system/slug"
	"github.com/dalemusser/commonroom/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateSlug is returned when the community already has a discussion with this slug.
	ErrDuplicateSlug = errors.New("a discussion with this slug already exists in this community")

	errTitleRequired = errors.New("title is required")
	errBodyRequired  = errors.New("body is required")
	errBadSlug       = errors.New("slug may contain only lowercase letters, digits and single dashes")
)

// IsValidationErr reports whether err is a caller-input problem.
func IsValidationErr(err error) bool {
	return errors.Is(err, ErrDuplicateSlug) ||
		errors.Is(err, errTitleRequired) ||
		errors.Is(err, errBodyRequired) ||
		errors.Is(err, errBadSlug)
}

// Store covers discussions and their replies.
type Store struct {
	c       *mongo.Collection
	replies *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:       db.Collection("discussions"),
		replies: db.Collection("discussion_replies"),
	}
}

// Create inserts d. ReplyCount starts at zero.
func (s *Store) Create(ctx context.Context, d models.Discussion) (models.Discussion, error) {
	d.Title = strings.TrimSpace(d.Title)
	if d.Title == "" {
		return models.Discussion{}, errTitleRequired
	}
	if strings.TrimSpace(d.Body) == "" {
		return models.Discussion{}, errBodyRequired
	}
	d.Slug = slug.Normalize(d.Slug)
	if !slug.Valid(d.Slug) {
		return models.Discussion{}, errBadSlug
	}
	if d.ID.IsZero() {
		d.ID = primitive.NewObjectID()
	}
	d.ReplyCount = 0
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, d); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Discussion{}, ErrDuplicateSlug
		}
		return models.Discussion{}, err
	}
	return d, nil
}

// GetByID loads a discussion by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Discussion, error) {
	var d models.Discussion
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetBySlug finds a discussion by slug within a community. The slug is
// trimmed and lowercased. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetBySlug(ctx context.Context, communityID primitive.ObjectID, raw string) (*models.Discussion, error) {
	var d models.Discussion
	filter := bson.M{"community_id": communityID, "slug": slug.Normalize(raw)}
	if err := s.c.FindOne(ctx, filter).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByCommunity returns a community's discussions, newest first.
func (s *Store) ListByCommunity(ctx context.Context, communityID primitive.ObjectID, limit int64) ([]models.Discussion, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"body": 0})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, bson.M{"community_id": communityID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Discussion{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IncReplyCount adds delta to reply_count.
func (s *Store) IncReplyCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"reply_count": delta},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

/* --------------------------------- replies -------------------------------- */

// CreateReply inserts r. It does not touch reply_count.
func (s *Store) CreateReply(ctx context.Context, r models.Reply) (models.Reply, error) {
	if strings.TrimSpace(r.Body) == "" {
		return models.Reply{}, errBodyRequired
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt = time.Now().UTC()
	if _, err := s.replies.InsertOne(ctx, r); err != nil {
		return models.Reply{}, err
	}
	return r, nil
}

// ListReplies returns a discussion's replies, oldest first.
func (s *Store) ListReplies(ctx context.Context, discussionID primitive.ObjectID, limit int64) ([]models.Reply, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.replies.Find(ctx, bson.M{"discussion_id": discussionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Reply{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// internal/app/store/communities/communitystore.go
package communitystore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/commonroom/internal/app/system/normalize"
	"github.com/dalemusser/commonroom/internal/app/system/slug"
	"github.com/dalemusser/commonroom/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateSlug is returned when the slug is already used by another community.
	ErrDuplicateSlug = errors.New("a community with this slug already exists")

	errNameRequired = errors.New("name is required")
	errBadSlug      = errors.New("slug may contain only lowercase letters, digits and single dashes")
)

// IsValidationErr reports whether err is a caller-input problem.
func IsValidationErr(err error) bool {
	return errors.Is(err, ErrDuplicateSlug) || errors.Is(err, errNameRequired) || errors.Is(err, errBadSlug)
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("communities")}
}

// Create inserts c after normalizing name, slug and topics.
func (s *Store) Create(ctx context.Context, c models.Community) (models.Community, error) {
	c.Name = normalize.Name(c.Name)
	if c.Name == "" {
		return models.Community{}, errNameRequired
	}
	c.Slug = slug.Normalize(c.Slug)
	if !slug.Valid(c.Slug) {
		return models.Community{}, errBadSlug
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.NameCI = text.Fold(c.Name)
	c.Description = strings.TrimSpace(c.Description)
	c.Topics = normalize.Topics(c.Topics)
	if c.Topics == nil {
		c.Topics = []string{}
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Community{}, ErrDuplicateSlug
		}
		return models.Community{}, err
	}
	return c, nil
}

// GetBySlug finds a community by slug after trimming and lowercasing.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetBySlug(ctx context.Context, raw string) (*models.Community, error) {
	var c models.Community
	if err := s.c.FindOne(ctx, bson.M{"slug": slug.Normalize(raw)}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListFilter narrows List. Zero value lists everything up to Limit.
type ListFilter struct {
	Topic string
	Limit int64
}

// List returns communities ordered by name.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Community, error) {
	filter := bson.M{}
	if t := normalize.Topic(f.Topic); t != "" {
		filter["topics"] = t
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Community{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IncMemberCount adds delta to member_count.
func (s *Store) IncMemberCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"member_count": delta},
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

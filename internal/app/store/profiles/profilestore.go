// internal/app/store/profiles/profilestore.go
package profilestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/commonroom/internal/app/system/normalize"
	"github.com/dalemusser/commonroom/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateUsername is returned when a profile already exists for the username.
var ErrDuplicateUsername = errors.New("a profile with this username already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("profiles")}
}

// Create inserts p. Username is stored lowercased.
func (s *Store) Create(ctx context.Context, p models.Profile) (models.Profile, error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	p.Username = normalize.Username(p.Username)
	p.Name = normalize.Name(p.Name)
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Profile{}, ErrDuplicateUsername
		}
		return models.Profile{}, err
	}
	return p, nil
}

// GetByUsername finds a profile by username (trimmed, case-insensitive).
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"username": normalize.Username(username)}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserID finds the profile owned by userID.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Profile, error) {
	var p models.Profile
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update holds the editable profile fields. Nil fields are left unchanged.
type Update struct {
	Name     *string
	Bio      *string
	Avatar   *string
	Location *string
	Website  *string
}

// Empty reports whether no field is set.
func (u Update) Empty() bool {
	return u.Name == nil && u.Bio == nil && u.Avatar == nil && u.Location == nil && u.Website == nil
}

// Update applies upd to the profile owned by userID and returns the result.
func (s *Store) Update(ctx context.Context, userID primitive.ObjectID, upd Update) (*models.Profile, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = normalize.Name(*upd.Name)
	}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}
	if upd.Location != nil {
		set["location"] = *upd.Location
	}
	if upd.Website != nil {
		set["website"] = *upd.Website
	}

	var p models.Profile
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

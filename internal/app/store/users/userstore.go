package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/commonroom/internal/app/system/normalize"
	"github.com/dalemusser/commonroom/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateUsername is returned when the username is taken (case-insensitively).
	ErrDuplicateUsername = errors.New("this username is already taken")

	errEmailRequired    = errors.New("email is required")
	errUsernameRequired = errors.New("username is required")
	errPasswordRequired = errors.New("password hash is required")
)

// IsValidationErr reports whether err is a caller-input problem rather than
// a storage failure.
func IsValidationErr(err error) bool {
	return errors.Is(err, errEmailRequired) ||
		errors.Is(err, errUsernameRequired) ||
		errors.Is(err, errPasswordRequired) ||
		errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrDuplicateUsername)
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.Username = strings.TrimSpace(u.Username)
	u.UsernameCI = text.Fold(u.Username)

	switch {
	case u.Email == "":
		return models.User{}, errEmailRequired
	case u.Username == "":
		return models.User{}, errUsernameRequired
	case u.PasswordHash == "":
		return models.User{}, errPasswordRequired
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, dupErr(err)
		}
		return models.User{}, err
	}
	return u, nil
}

// dupErr maps a duplicate-key error to the field that collided.
func dupErr(err error) error {
	if strings.Contains(err.Error(), "username") {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername looks up a user by case-insensitive username.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"username_ci": text.Fold(strings.TrimSpace(username))}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// SetAvatar replaces the avatar URL.
func (s *Store) SetAvatar(ctx context.Context, id primitive.ObjectID, avatar string) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"avatar":     strings.TrimSpace(avatar),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

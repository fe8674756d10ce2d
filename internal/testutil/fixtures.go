package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/commonroom/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "correct horse battery staple"

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it again on the same request adds to the existing params.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user and matching profile. The password is TestPassword.
func (f *Fixtures) CreateUser(ctx context.Context, username, email string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()
	u := models.User{
		ID:           primitive.NewObjectID(),
		Email:        strings.ToLower(email),
		Username:     username,
		UsernameCI:   text.Fold(username),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	p := models.Profile{
		ID:        primitive.NewObjectID(),
		UserID:    u.ID,
		Username:  strings.ToLower(username),
		Name:      username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return u
}

// CreateCommunity inserts a community owned by owner, plus the owner's
// member row.
func (f *Fixtures) CreateCommunity(ctx context.Context, name, slug string, owner models.User, topics ...string) models.Community {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Community{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Slug:        slug,
		Description: "A community about " + name,
		Topics:      append([]string{}, topics...),
		OwnerID:     owner.ID,
		MemberCount: 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("communities").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test community: %v", err)
	}
	f.insertMember(ctx, c.ID, owner, models.RoleOwner)
	return c
}

// AddMember joins user to community and bumps member_count.
func (f *Fixtures) AddMember(ctx context.Context, c models.Community, user models.User) models.Member {
	f.t.Helper()
	m := f.insertMember(ctx, c.ID, user, models.RoleMember)
	if _, err := f.db.Collection("communities").UpdateByID(ctx, c.ID, bson.M{"$inc": bson.M{"member_count": 1}}); err != nil {
		f.t.Fatalf("failed to bump member_count: %v", err)
	}
	return m
}

func (f *Fixtures) insertMember(ctx context.Context, communityID primitive.ObjectID, user models.User, role string) models.Member {
	f.t.Helper()
	m := models.Member{
		ID:          primitive.NewObjectID(),
		CommunityID: communityID,
		UserID:      user.ID,
		Username:    user.Username,
		Role:        role,
		JoinedAt:    time.Now().UTC(),
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test member: %v", err)
	}
	return m
}

// CreateDiscussion inserts a discussion in c authored by author.
func (f *Fixtures) CreateDiscussion(ctx context.Context, c models.Community, author models.User, title, slug string) models.Discussion {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Discussion{
		ID:             primitive.NewObjectID(),
		CommunityID:    c.ID,
		CommunitySlug:  c.Slug,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Title:          title,
		Slug:           slug,
		Body:           "<p>" + title + "</p>",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("discussions").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test discussion: %v", err)
	}
	return d
}

// CreateReply inserts a reply on d and bumps reply_count.
func (f *Fixtures) CreateReply(ctx context.Context, d models.Discussion, author models.User, body string) models.Reply {
	f.t.Helper()

	r := models.Reply{
		ID:             primitive.NewObjectID(),
		DiscussionID:   d.ID,
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Body:           body,
		CreatedAt:      time.Now().UTC(),
	}
	if _, err := f.db.Collection("discussion_replies").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test reply: %v", err)
	}
	if _, err := f.db.Collection("discussions").UpdateByID(ctx, d.ID, bson.M{"$inc": bson.M{"reply_count": 1}}); err != nil {
		f.t.Fatalf("failed to bump reply_count: %v", err)
	}
	return r
}

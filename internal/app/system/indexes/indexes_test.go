package indexes_test

import (
	"testing"
	"time"

	"github.com/dalemusser/commonroom/internal/app/system/indexes"
	"github.com/dalemusser/commonroom/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", coll, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var ix bson.M
		if err := cur.Decode(&ix); err != nil {
			continue
		}
		if name, ok := ix["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	want := map[string][]string{
		"users":              {"uniq_users_email", "uniq_users_username_ci"},
		"profiles":           {"uniq_profiles_username", "idx_profiles_user"},
		"communities":        {"uniq_communities_slug", "idx_communities_topics_nameci", "idx_communities_nameci"},
		"discussions":        {"uniq_discussions_community_slug", "idx_discussions_community_created"},
		"discussion_replies": {"idx_replies_discussion_created"},
		"members":            {"uniq_members_community_user", "idx_members_user", "idx_members_community_joined"},
		"activity":           {"idx_activity_user_created"},
	}
	for coll, names := range want {
		got := indexNames(t, db, coll)
		for _, n := range names {
			if !got[n] {
				t.Errorf("%s: expected index %q, have %v", coll, n, got)
			}
		}
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("communities").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "slug", Value: 1}},
		Options: options.Index().SetName("legacy_slug").SetUnique(true),
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	got := indexNames(t, db, "communities")
	if got["legacy_slug"] {
		t.Error("expected legacy_slug to be replaced")
	}
	if !got["uniq_communities_slug"] {
		t.Error("expected uniq_communities_slug")
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	communityID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	members := db.Collection("members")
	doc := bson.M{"community_id": communityID, "user_id": userID, "role": "member", "joined_at": time.Now()}

	if _, err := members.InsertOne(ctx, doc); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err := members.InsertOne(ctx, bson.M{"community_id": communityID, "user_id": userID, "role": "member", "joined_at": time.Now()})
	if !mongo.IsDuplicateKeyError(err) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/commonroom/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("users", usersSchema())
	ensure("profiles", profilesSchema())
	ensure("communities", communitiesSchema())
	ensure("discussions", discussionsSchema())
	ensure("discussion_replies", repliesSchema())
	ensure("members", membersSchema())

	// Payload is free-form; only the collection is ensured.
	ensure("activity", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Debug("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func commandMatches(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandMatches(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandMatches(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandMatches(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

const slugPattern = "^[a-z0-9]+(-[a-z0-9]+)*$"

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"email", "username", "username_ci", "password_hash"},
			"properties": bson.M{
				"email":         nonBlank,
				"username":      nonBlank,
				"username_ci":   nonBlank,
				"password_hash": nonBlank,
				"avatar":        bson.M{"bsonType": "string"},
				"created_at":    bson.M{"bsonType": "date"},
				"updated_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func profilesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "username"},
			"properties": bson.M{
				"user_id":  bson.M{"bsonType": "objectId"},
				"username": nonBlank,
				"name":     bson.M{"bsonType": "string"},
				"bio":      bson.M{"bsonType": "string"},
				"location": bson.M{"bsonType": "string"},
				"website":  bson.M{"bsonType": "string"},
			},
		},
	}
}

func communitiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "slug", "owner_id", "member_count"},
			"properties": bson.M{
				"name":         nonBlank,
				"name_ci":      nonBlank,
				"slug":         bson.M{"bsonType": "string", "pattern": slugPattern},
				"description":  bson.M{"bsonType": "string"},
				"topics":       bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
				"owner_id":     bson.M{"bsonType": "objectId"},
				"member_count": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			},
		},
	}
}

func discussionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"community_id", "author_id", "title", "slug", "reply_count"},
			"properties": bson.M{
				"community_id":    bson.M{"bsonType": "objectId"},
				"community_slug":  bson.M{"bsonType": "string"},
				"author_id":       bson.M{"bsonType": "objectId"},
				"author_username": bson.M{"bsonType": "string"},
				"title":           nonBlank,
				"slug":            bson.M{"bsonType": "string", "pattern": slugPattern},
				"body":            bson.M{"bsonType": "string"},
				"reply_count":     bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			},
		},
	}
}

func repliesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"discussion_id", "author_id", "body", "created_at"},
			"properties": bson.M{
				"discussion_id":   bson.M{"bsonType": "objectId"},
				"author_id":       bson.M{"bsonType": "objectId"},
				"author_username": bson.M{"bsonType": "string"},
				"body":            nonBlank,
				"created_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}

func membersSchema() bson.M {
	roles := bson.A{}
	for _, r := range models.MemberRoles {
		roles = append(roles, r)
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"community_id", "user_id", "role", "joined_at"},
			"properties": bson.M{
				"community_id": bson.M{"bsonType": "objectId"},
				"user_id":      bson.M{"bsonType": "objectId"},
				"username":     bson.M{"bsonType": "string"},
				"role":         bson.M{"enum": roles},
				"joined_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// collectionIndexes is the desired index set for one collection.
type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

func desired() []collectionIndexes {
	return []collectionIndexes{
		{"users", []mongo.IndexModel{
			uniq("uniq_users_email", bson.D{{Key: "email", Value: 1}}),
			uniq("uniq_users_username_ci", bson.D{{Key: "username_ci", Value: 1}}),
		}},
		{"profiles", []mongo.IndexModel{
			uniq("uniq_profiles_username", bson.D{{Key: "username", Value: 1}}),
			idx("idx_profiles_user", bson.D{{Key: "user_id", Value: 1}}),
		}},
		{"communities", []mongo.IndexModel{
			uniq("uniq_communities_slug", bson.D{{Key: "slug", Value: 1}}),
			idx("idx_communities_topics_nameci", bson.D{{Key: "topics", Value: 1}, {Key: "name_ci", Value: 1}}),
			idx("idx_communities_nameci", bson.D{{Key: "name_ci", Value: 1}}),
		}},
		{"discussions", []mongo.IndexModel{
			uniq("uniq_discussions_community_slug", bson.D{{Key: "community_id", Value: 1}, {Key: "slug", Value: 1}}),
			idx("idx_discussions_community_created", bson.D{{Key: "community_id", Value: 1}, {Key: "created_at", Value: -1}}),
		}},
		{"discussion_replies", []mongo.IndexModel{
			idx("idx_replies_discussion_created", bson.D{{Key: "discussion_id", Value: 1}, {Key: "created_at", Value: 1}}),
		}},
		{"members", []mongo.IndexModel{
			uniq("uniq_members_community_user", bson.D{{Key: "community_id", Value: 1}, {Key: "user_id", Value: 1}}),
			idx("idx_members_user", bson.D{{Key: "user_id", Value: 1}}),
			idx("idx_members_community_joined", bson.D{{Key: "community_id", Value: 1}, {Key: "joined_at", Value: 1}}),
		}},
		{"activity", []mongo.IndexModel{
			idx("idx_activity_user_created", bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}),
		}},
	}
}

func uniq(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name).SetUnique(true)}
}

func idx(name string, keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetName(name)}
}

/*
EnsureAll is called at startup. Reconciling each collection is idempotent.
Errors are aggregated so every problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, ci := range desired() {
		if err := ensureIndexSet(ctx, db.Collection(ci.collection), ci.models); err != nil {
			problems = append(problems, ci.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Mongo/DocDB sometimes returns IndexOptionsConflict when an index with the
// same keys already exists under a different name (or options differ).
func isOptionsConflictErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "IndexOptionsConflict")
}

func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// Collection may not exist yet; treat as no indexes.
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var ix existingIndex
		if err := cur.Decode(&ix); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		existing[keySig(ix.Key)] = ix
	}
	return existing
}

type wanted struct {
	model  mongo.IndexModel
	name   string
	unique *bool
	sig    string
}

func describe(m mongo.IndexModel) wanted {
	w := wanted{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			w.name = *m.Options.Name
		}
		w.unique = m.Options.Unique
	}
	return w
}

func (w wanted) isUnique() bool { return w.unique != nil && *w.unique }

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string
	for _, m := range models {
		if err := ensureOne(ctx, coll, describe(m)); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureOne(ctx context.Context, coll *mongo.Collection, w wanted) error {
	start := time.Now()
	log := zap.L().With(
		zap.String("collection", coll.Name()),
		zap.String("name", w.name),
		zap.String("keys", w.sig),
		zap.Bool("unique", w.isUnique()))

	log.Debug("ensuring index")

	if ex, ok := listExisting(ctx, coll)[w.sig]; ok {
		if sameBoolPtr(w.unique, ex.Unique) && (w.name == "" || ex.Name == w.name) {
			log.Info("reusing existing index", zap.Duration("took", time.Since(start)))
			return nil
		}
		// Same keys, different name or uniqueness: drop & recreate.
		if err := recreate(ctx, coll, ex.Name, w); err != nil {
			log.Warn("index recreate failed", zap.String("from", ex.Name), zap.Error(err))
			return err
		}
		log.Info("index dropped and recreated",
			zap.String("from", ex.Name),
			zap.Duration("took", time.Since(start)))
		return nil
	}

	created, err := coll.Indexes().CreateOne(ctx, w.model)
	if err == nil {
		log.Info("index ensured",
			zap.String("created_name", created),
			zap.Duration("took", time.Since(start)))
		return nil
	}

	if isOptionsConflictErr(err) {
		// Raced with another writer or a vendor quirk; look again.
		if ex, ok := listExisting(ctx, coll)[w.sig]; ok {
			if sameBoolPtr(w.unique, ex.Unique) {
				log.Info("reusing existing index (post-conflict)", zap.String("existing", ex.Name))
				return nil
			}
			if rerr := recreate(ctx, coll, ex.Name, w); rerr != nil {
				log.Warn("index recreate failed (post-conflict)", zap.Error(rerr))
				return rerr
			}
			log.Info("index dropped and recreated (post-conflict)", zap.Duration("took", time.Since(start)))
			return nil
		}
	}

	log.Warn("index ensure failed", zap.Duration("took", time.Since(start)), zap.Error(err))
	return createErr(coll, w, err)
}

func recreate(ctx context.Context, coll *mongo.Collection, existingName string, w wanted) error {
	if _, err := coll.Indexes().DropOne(ctx, existingName); err != nil {
		return fmt.Errorf("%s(%s): drop %s failed: %w", coll.Name(), w.name, existingName, err)
	}
	if _, err := coll.Indexes().CreateOne(ctx, w.model); err != nil {
		return createErr(coll, w, err)
	}
	return nil
}

func createErr(coll *mongo.Collection, w wanted, err error) error {
	if isDuplicateKeyErr(err) && w.isUnique() {
		field := strings.SplitN(w.sig, ":", 2)[0]
		return fmt.Errorf("%s(%s): cannot create unique index (duplicates present); find them with "+
			`db.%s.aggregate([{ $group: { _id: "$%s", n: { $sum: 1 } } }, { $match: { n: { $gt: 1 } } }])`,
			coll.Name(), w.name, coll.Name(), field)
	}
	return fmt.Errorf("%s(%s): %w", coll.Name(), w.name, err)
}

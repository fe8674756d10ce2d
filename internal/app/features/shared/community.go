// internal/app/features/shared/community.go
package shared

import (
	"context"

	communitystore "github.com/dalemusser/commonroom/internal/app/store/communities"
	"github.com/dalemusser/commonroom/internal/app/system/cache"
	"github.com/dalemusser/commonroom/internal/app/system/slug"
	"github.com/dalemusser/commonroom/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

const kindCommunity = "community"

// CommunityKey is the cache key for the community with raw slug.
func CommunityKey(c *cache.Cache, raw string) string {
	return c.Key(kindCommunity, slug.Normalize(raw))
}

// CommunityBySlug looks a community up by slug, reading through c.
// Returns mongo.ErrNoDocuments when it does not exist; misses are not cached.
func CommunityBySlug(ctx context.Context, db *mongo.Database, c *cache.Cache, raw string) (models.Community, error) {
	return cache.Fetch(ctx, c, CommunityKey(c, raw), func(ctx context.Context) (models.Community, error) {
		com, err := communitystore.New(db).GetBySlug(ctx, raw)
		if err != nil {
			return models.Community{}, err
		}
		return *com, nil
	})
}

// InvalidateCommunity drops the cached copy after a write that changes it.
func InvalidateCommunity(ctx context.Context, c *cache.Cache, raw string) {
	c.Delete(ctx, CommunityKey(c, raw))
}

package snapshot

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/logger"
)

// CachedProvider keeps snapshots for a short TTL so that a portfolio run and
// the per-entity assessments it triggers read the source once.
type CachedProvider struct {
	next   service.SnapshotProvider
	cache  *cache.Cache
	logger logger.Logger
}

// NewCachedProvider wraps next with a go-cache of the given TTL.
func NewCachedProvider(next service.SnapshotProvider, ttl, cleanupInterval time.Duration, log logger.Logger) *CachedProvider {
	return &CachedProvider{
		next:   next,
		cache:  cache.New(ttl, cleanupInterval),
		logger: log.WithComponent("snapshot_cache"),
	}
}

func cacheKey(entityType models.EntityType, entityID string) string {
	return string(entityType) + ":" + entityID
}

func (c *CachedProvider) GetEntitySnapshot(ctx context.Context, entityType models.EntityType, entityID string) (*models.EntitySnapshot, error) {
	key := cacheKey(entityType, entityID)
	if v, found := c.cache.Get(key); found {
		c.logger.Debug(ctx, "Snapshot cache hit", logger.String("key", key))
		return v.(*models.EntitySnapshot), nil
	}

	snap, err := c.next.GetEntitySnapshot(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, snap)
	return snap, nil
}

// ListEntities is never cached; portfolio membership must be current.
func (c *CachedProvider) ListEntities(ctx context.Context, entityType models.EntityType) ([]models.EntityRef, error) {
	return c.next.ListEntities(ctx, entityType)
}

// Invalidate drops the cached snapshot of one entity.
func (c *CachedProvider) Invalidate(entityType models.EntityType, entityID string) {
	c.cache.Delete(cacheKey(entityType, entityID))
}

package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/pkg/errors"
)

// StaticProvider serves snapshots held in memory, optionally loaded from a
// JSON file.
type StaticProvider struct {
	mu        sync.RWMutex
	snapshots map[string]*models.EntitySnapshot
}

// NewStaticProvider creates a provider holding snapshots.
func NewStaticProvider(snapshots ...*models.EntitySnapshot) *StaticProvider {
	p := &StaticProvider{snapshots: make(map[string]*models.EntitySnapshot, len(snapshots))}
	for _, s := range snapshots {
		p.Put(s)
	}
	return p
}

// LoadStaticProvider reads a JSON array of snapshots from path.
func LoadStaticProvider(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	var snapshots []*models.EntitySnapshot
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("decode snapshot file %s: %w", path, err)
	}
	for i, s := range snapshots {
		if !s.EntityType.Valid() || s.EntityID == "" {
			return nil, fmt.Errorf("snapshot %d in %s has no valid entity type or id", i, path)
		}
	}
	return NewStaticProvider(snapshots...), nil
}

// Put adds or replaces a snapshot.
func (p *StaticProvider) Put(s *models.EntitySnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots[cacheKey(s.EntityType, s.EntityID)] = s
}

// Remove deletes a snapshot.
func (p *StaticProvider) Remove(entityType models.EntityType, entityID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.snapshots, cacheKey(entityType, entityID))
}

func (p *StaticProvider) GetEntitySnapshot(ctx context.Context, entityType models.EntityType, entityID string) (*models.EntitySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	s, ok := p.snapshots[cacheKey(entityType, entityID)]
	p.mu.RUnlock()
	if !ok {
		return nil, errors.ErrNotFound(string(entityType), entityID)
	}

	cp := *s
	if cp.CapturedAt.IsZero() {
		cp.CapturedAt = time.Now().UTC()
	}
	return &cp, nil
}

func (p *StaticProvider) ListEntities(ctx context.Context, entityType models.EntityType) ([]models.EntityRef, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var refs []models.EntityRef
	for _, s := range p.snapshots {
		if s.EntityType == entityType {
			refs = append(refs, models.EntityRef{EntityType: s.EntityType, EntityID: s.EntityID, Name: s.Name})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].EntityID < refs[j].EntityID })
	return refs, nil
}

package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/guidebook/core/internal/domain/entities"
	"github.com/guidebook/core/internal/ports"
)

// MemoryGuideRepository keeps guides in process memory
type MemoryGuideRepository struct {
	mu     sync.RWMutex
	order  []string
	guides map[string]*entities.Guide
}

// NewMemoryGuideRepository creates a new in-memory guide repository
func NewMemoryGuideRepository() ports.GuideRepository {
	return &MemoryGuideRepository{
		guides: make(map[string]*entities.Guide),
	}
}

func (r *MemoryGuideRepository) List(ctx context.Context) ([]*entities.Guide, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*entities.Guide, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.guides[id].Clone())
	}
	return out, nil
}

func (r *MemoryGuideRepository) Get(ctx context.Context, id string) (*entities.Guide, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.guides[id]
	if !ok {
		return nil, entities.ErrGuideNotFound
	}
	return g.Clone(), nil
}

func (r *MemoryGuideRepository) Create(ctx context.Context, guide *entities.Guide) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.guides[guide.ID]; ok {
		return fmt.Errorf("create guide %s: %w", guide.ID, entities.ErrGuideExists)
	}
	r.guides[guide.ID] = guide.Clone()
	r.order = append(r.order, guide.ID)
	return nil
}

func (r *MemoryGuideRepository) Update(ctx context.Context, guide *entities.Guide) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.guides[guide.ID]; !ok {
		return entities.ErrGuideNotFound
	}
	r.guides[guide.ID] = guide.Clone()
	return nil
}

func (r *MemoryGuideRepository) Ping(ctx context.Context) error {
	return nil
}

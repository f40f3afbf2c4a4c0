package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/guidebook/core/internal/domain/entities"
	"github.com/guidebook/core/internal/infrastructure/logger"
	"github.com/guidebook/core/internal/ports"
)

const (
	guideIDPrefix = "g_"

	// maxIDAttempts bounds the search for a free generated id
	maxIDAttempts = 1000
)

// GuideService handles guide-related operations
type GuideService struct {
	guideRepo ports.GuideRepository
	logger    *logger.Logger
	now       func() time.Time

	// writeMu serializes read-modify-write cycles issued by this process
	writeMu sync.Mutex
}

var _ ports.GuideService = (*GuideService)(nil)

// NewGuideService creates a new guide service
func NewGuideService(guideRepo ports.GuideRepository, logger *logger.Logger) *GuideService {
	return &GuideService{
		guideRepo: guideRepo,
		logger:    logger.WithComponent("guide_service"),
		now:       time.Now,
	}
}

// ListGuides returns the summary of every guide in store order
func (s *GuideService) ListGuides(ctx context.Context) ([]entities.GuideSummary, error) {
	guides, err := s.guideRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list guides: %w", err)
	}

	summaries := make([]entities.GuideSummary, 0, len(guides))
	for _, g := range guides {
		summaries = append(summaries, g.Summary())
	}
	return summaries, nil
}

// GetGuide retrieves a guide by ID
func (s *GuideService) GetGuide(ctx context.Context, id string) (*entities.Guide, error) {
	guide, err := s.guideRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get guide %s: %w", id, err)
	}
	return guide, nil
}

// CreateGuide creates a new guide. Without a caller-supplied id the guide
// gets g_<unix millis>, bumped until it no longer collides.
func (s *GuideService) CreateGuide(ctx context.Context, req ports.CreateGuideRequest) (*entities.Guide, error) {
	guide := &entities.Guide{
		ID:       strings.TrimSpace(req.ID),
		Title:    req.Title,
		Hero:     req.Hero,
		Sections: req.Sections,
	}
	if err := guide.Normalize(); err != nil {
		return nil, err
	}

	if guide.ID != "" {
		if err := s.guideRepo.Create(ctx, guide); err != nil {
			return nil, fmt.Errorf("failed to create guide: %w", err)
		}
	} else {
		ms := s.now().UnixMilli()
		for attempt := 0; ; attempt++ {
			if attempt == maxIDAttempts {
				return nil, fmt.Errorf("failed to allocate guide id: %w", entities.ErrGuideExists)
			}
			guide.ID = fmt.Sprintf("%s%d", guideIDPrefix, ms+int64(attempt))
			err := s.guideRepo.Create(ctx, guide)
			if err == nil {
				break
			}
			if !errors.Is(err, entities.ErrGuideExists) {
				return nil, fmt.Errorf("failed to create guide: %w", err)
			}
		}
	}

	s.logger.Infow("Guide created", "guide_id", guide.ID, "title", guide.Title, "sections", len(guide.Sections))
	return guide, nil
}

// UpdateGuide merges the patch over the stored guide
func (s *GuideService) UpdateGuide(ctx context.Context, id string, patch entities.GuidePatch) (*entities.Guide, error) {
	guide, err := s.Mutate(ctx, id, func(g *entities.Guide) error {
		g.Apply(patch)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Guide updated", "guide_id", id, "sections", len(guide.Sections))
	return guide, nil
}

// MoveSection moves a section right before another one, or to the end when
// beforeID is empty
func (s *GuideService) MoveSection(ctx context.Context, guideID, sectionID, beforeID string) (*entities.Guide, error) {
	guide, err := s.Mutate(ctx, guideID, func(g *entities.Guide) error {
		return g.MoveSection(sectionID, beforeID)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Section moved", "guide_id", guideID, "section_id", sectionID, "before_id", beforeID)
	return guide, nil
}

// Mutate loads a guide, applies fn and stores the result as a whole
// document. Identifiers are normalized before the write.
func (s *GuideService) Mutate(ctx context.Context, id string, fn func(*entities.Guide) error) (*entities.Guide, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	guide, err := s.guideRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get guide %s: %w", id, err)
	}

	if err := fn(guide); err != nil {
		return nil, err
	}
	guide.ID = id
	if err := guide.Normalize(); err != nil {
		return nil, err
	}

	if err := s.guideRepo.Update(ctx, guide); err != nil {
		return nil, fmt.Errorf("failed to update guide: %w", err)
	}
	return guide, nil
}

package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/guidebook/core/internal/domain/entities"
	"github.com/guidebook/core/internal/infrastructure/logger"
	"github.com/guidebook/core/internal/ports"
)

// FileGuideRepository keeps the whole guide collection in one JSON array on
// disk. Every operation reads the file; every mutation rewrites it.
type FileGuideRepository struct {
	path   string
	mu     sync.Mutex
	logger *logger.Logger
}

// NewFileGuideRepository creates a new file-backed guide repository
func NewFileGuideRepository(path string, log *logger.Logger) (ports.GuideRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileGuideRepository{
		path:   path,
		logger: log.WithComponent("file_store"),
	}, nil
}

func (r *FileGuideRepository) List(ctx context.Context) ([]*entities.Guide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.read(), nil
}

func (r *FileGuideRepository) Get(ctx context.Context, id string) (*entities.Guide, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range r.read() {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, entities.ErrGuideNotFound
}

func (r *FileGuideRepository) Create(ctx context.Context, guide *entities.Guide) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	guides := r.read()
	for _, g := range guides {
		if g.ID == guide.ID {
			return fmt.Errorf("create guide %s: %w", guide.ID, entities.ErrGuideExists)
		}
	}

	guides = append(guides, guide.Clone())
	if err := r.write(guides); err != nil {
		return fmt.Errorf("create guide: %w", err)
	}
	return nil
}

func (r *FileGuideRepository) Update(ctx context.Context, guide *entities.Guide) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	guides := r.read()
	idx := -1
	for i, g := range guides {
		if g.ID == guide.ID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return entities.ErrGuideNotFound
	}

	guides[idx] = guide.Clone()
	if err := r.write(guides); err != nil {
		return fmt.Errorf("update guide: %w", err)
	}
	return nil
}

// Ping checks that the data file is either absent or readable
func (r *FileGuideRepository) Ping(ctx context.Context) error {
	_, err := os.Stat(r.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat data file: %w", err)
	}
	return nil
}

// read loads the collection. A missing or unparsable file reads as empty.
func (r *FileGuideRepository) read() []*entities.Guide {
	start := time.Now()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.logger.Warnw("Reading guides failed, treating store as empty", "path", r.path, "error", err)
		}
		return []*entities.Guide{}
	}

	var guides []*entities.Guide
	if err := json.Unmarshal(data, &guides); err != nil {
		r.logger.Warnw("Guides file is corrupt, treating store as empty", "path", r.path, "error", err)
		return []*entities.Guide{}
	}

	r.logger.LogStoreOperation("read", "", float64(time.Since(start).Microseconds())/1000, nil)
	return guides
}

// write replaces the file through a temp file and rename
func (r *FileGuideRepository) write(guides []*entities.Guide) error {
	start := time.Now()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(guides); err != nil {
		return fmt.Errorf("encode guides: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}

	r.logger.LogStoreOperation("write", "", float64(time.Since(start).Microseconds())/1000, nil)
	return nil
}

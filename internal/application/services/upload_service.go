package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/guidebook/core/internal/domain/entities"
	"github.com/guidebook/core/internal/infrastructure/config"
	"github.com/guidebook/core/internal/infrastructure/logger"
	"github.com/guidebook/core/internal/ports"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]`)

// UploadService stores uploaded images and links them into guides
type UploadService struct {
	guides  *GuideService
	storage ports.UploadStorage
	cfg     config.UploadsConfig
	logger  *logger.Logger
	now     func() time.Time
}

var _ ports.UploadService = (*UploadService)(nil)

// NewUploadService creates a new upload service
func NewUploadService(guides *GuideService, storage ports.UploadStorage, cfg config.UploadsConfig, logger *logger.Logger) *UploadService {
	if cfg.URLPrefix == "" {
		cfg.URLPrefix = "/uploads"
	}
	return &UploadService{
		guides:  guides,
		storage: storage,
		cfg:     cfg,
		logger:  logger.WithComponent("upload_service"),
		now:     time.Now,
	}
}

// UploadToGuide stores the file and appends an image item to the requested
// section of the guide, or to its first section when sectionID is empty or
// unknown.
func (s *UploadService) UploadToGuide(ctx context.Context, guideID, sectionID string, file ports.FileUpload) (*ports.GuideUploadResponse, error) {
	guide, err := s.guides.GetGuide(ctx, guideID)
	if err != nil {
		return nil, err
	}
	if len(guide.Sections) == 0 {
		return nil, fmt.Errorf("upload to guide %s: %w", guideID, entities.ErrNoSections)
	}

	name, url, err := s.store(ctx, file)
	if err != nil {
		return nil, err
	}

	var target string
	_, err = s.guides.Mutate(ctx, guideID, func(g *entities.Guide) error {
		section, err := g.TargetSection(sectionID)
		if err != nil {
			return err
		}
		section.Items = append(section.Items, entities.Item{
			ID:      entities.NewItemID(),
			Title:   file.Filename,
			Content: url,
			Type:    entities.ItemTypeImage,
		})
		target = section.ID
		return nil
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, name); delErr != nil {
			s.logger.Warnw("Removing orphaned upload failed", "name", name, "error", delErr)
		}
		return nil, err
	}

	s.logger.Infow("Image appended to guide", "guide_id", guideID, "section_id", target, "url", url)
	return &ports.GuideUploadResponse{URL: url, SectionID: target}, nil
}

// UploadImage stores the file without touching any guide
func (s *UploadService) UploadImage(ctx context.Context, file ports.FileUpload) (*ports.UploadResponse, error) {
	_, url, err := s.store(ctx, file)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Image uploaded", "url", url)
	return &ports.UploadResponse{URL: url}, nil
}

// store validates the upload and saves it under a generated name
func (s *UploadService) store(ctx context.Context, file ports.FileUpload) (string, string, error) {
	if file.Reader == nil {
		return "", "", entities.ErrMissingFile
	}
	if file.Size > s.cfg.MaxBytes {
		return "", "", fmt.Errorf("%s is %d bytes: %w", file.Filename, file.Size, entities.ErrFileTooLarge)
	}

	data, err := io.ReadAll(io.LimitReader(file.Reader, s.cfg.MaxBytes+1))
	if err != nil {
		return "", "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return "", "", fmt.Errorf("%s exceeds %d bytes: %w", file.Filename, s.cfg.MaxBytes, entities.ErrFileTooLarge)
	}
	if len(data) == 0 {
		return "", "", entities.ErrMissingFile
	}

	mtype := mimetype.Detect(data)
	if !s.allowed(mtype) {
		return "", "", fmt.Errorf("%s: %w", mtype.String(), entities.ErrUnsupportedMedia)
	}

	name := s.generateName(file.Filename)
	if err := s.storage.Save(ctx, name, bytes.NewReader(data), int64(len(data)), mtype.String()); err != nil {
		return "", "", fmt.Errorf("failed to store upload: %w", err)
	}

	return name, path.Join(s.cfg.URLPrefix, name), nil
}

func (s *UploadService) allowed(mtype *mimetype.MIME) bool {
	if len(s.cfg.AllowedTypes) == 0 {
		return true
	}
	for _, t := range s.cfg.AllowedTypes {
		if mtype.Is(t) {
			return true
		}
	}
	return false
}

// generateName builds <unix millis>-<random>_<sanitized original name>
func (s *UploadService) generateName(original string) string {
	return fmt.Sprintf("%d-%d_%s", s.now().UnixMilli(), rand.IntN(1e9), SanitizeFilename(original))
}

// SanitizeFilename replaces everything outside [A-Za-z0-9._-] with '_'
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

package ports

import (
	"context"
	"io"

	"github.com/guidebook/core/internal/domain/entities"
)

// GuideService interface for guide management operations
type GuideService interface {
	ListGuides(ctx context.Context) ([]entities.GuideSummary, error)
	GetGuide(ctx context.Context, id string) (*entities.Guide, error)
	CreateGuide(ctx context.Context, req CreateGuideRequest) (*entities.Guide, error)
	UpdateGuide(ctx context.Context, id string, patch entities.GuidePatch) (*entities.Guide, error)
	MoveSection(ctx context.Context, guideID, sectionID, beforeID string) (*entities.Guide, error)
}

// UploadService interface for image upload operations
type UploadService interface {
	UploadToGuide(ctx context.Context, guideID, sectionID string, file FileUpload) (*GuideUploadResponse, error)
	UploadImage(ctx context.Context, file FileUpload) (*UploadResponse, error)
}

// Request/Response Types

// CreateGuideRequest is the body of a guide creation. ID is optional.
type CreateGuideRequest struct {
	ID       string             `json:"id" validate:"omitempty,max=200,excludesall=/?#"`
	Title    string             `json:"title"`
	Hero     string             `json:"hero"`
	Sections []entities.Section `json:"sections"`
}

// MoveSectionRequest positions a section before another one
type MoveSectionRequest struct {
	BeforeID string `json:"beforeId"`
}

// FileUpload describes one uploaded file
type FileUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// GuideUploadResponse is returned when an upload was appended to a section
type GuideUploadResponse struct {
	URL       string `json:"url"`
	SectionID string `json:"sectionId"`
}

// UploadResponse is returned for a standalone image upload
type UploadResponse struct {
	URL string `json:"url"`
}

// ErrorResponse is the JSON shape of every error
type ErrorResponse struct {
	Error string `json:"error"`
}

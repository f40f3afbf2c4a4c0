package ports

import (
	"context"
	"io"

	"github.com/guidebook/core/internal/domain/entities"
)

// GuideRepository defines the interface for guide document storage.
// Implementations store whole documents; there are no partial updates at
// the storage layer.
type GuideRepository interface {
	List(ctx context.Context) ([]*entities.Guide, error)
	Get(ctx context.Context, id string) (*entities.Guide, error)
	Create(ctx context.Context, guide *entities.Guide) error
	Update(ctx context.Context, guide *entities.Guide) error
	Ping(ctx context.Context) error
}

// UploadStorage defines the interface for uploaded binary files
type UploadStorage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/guidebook/core/internal/domain/entities"
	"github.com/guidebook/core/internal/ports"
)

// PostgresGuideRepository stores each guide as a jsonb document
type PostgresGuideRepository struct {
	db *sqlx.DB
}

type guideRow struct {
	ID       string `db:"id"`
	Document []byte `db:"document"`
}

// NewPostgresGuideRepository creates a new postgres guide repository
func NewPostgresGuideRepository(db *sqlx.DB) ports.GuideRepository {
	return &PostgresGuideRepository{db: db}
}

func (r *PostgresGuideRepository) List(ctx context.Context) ([]*entities.Guide, error) {
	query := `
		SELECT id, document
		FROM guides
		ORDER BY position`

	var rows []guideRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}

	guides := make([]*entities.Guide, 0, len(rows))
	for _, row := range rows {
		g, err := decodeGuide(row)
		if err != nil {
			return nil, err
		}
		guides = append(guides, g)
	}
	return guides, nil
}

func (r *PostgresGuideRepository) Get(ctx context.Context, id string) (*entities.Guide, error) {
	query := `
		SELECT id, document
		FROM guides
		WHERE id = $1`

	var row guideRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrGuideNotFound
		}
		return nil, fmt.Errorf("get guide: %w", err)
	}
	return decodeGuide(row)
}

func (r *PostgresGuideRepository) Create(ctx context.Context, guide *entities.Guide) error {
	query := `
		INSERT INTO guides (id, document)
		VALUES ($1, $2)
		ON CONFLICT (id) DO NOTHING`

	data, err := json.Marshal(guide)
	if err != nil {
		return fmt.Errorf("encode guide: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, guide.ID, data)
	if err != nil {
		return fmt.Errorf("create guide: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create guide: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("create guide %s: %w", guide.ID, entities.ErrGuideExists)
	}
	return nil
}

func (r *PostgresGuideRepository) Update(ctx context.Context, guide *entities.Guide) error {
	query := `
		UPDATE guides
		SET document = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`

	data, err := json.Marshal(guide)
	if err != nil {
		return fmt.Errorf("encode guide: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, guide.ID, data)
	if err != nil {
		return fmt.Errorf("update guide: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update guide: %w", err)
	}
	if n == 0 {
		return entities.ErrGuideNotFound
	}
	return nil
}

func (r *PostgresGuideRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func decodeGuide(row guideRow) (*entities.Guide, error) {
	var g entities.Guide
	if err := json.Unmarshal(row.Document, &g); err != nil {
		return nil, fmt.Errorf("decode guide %s: %w", row.ID, err)
	}
	g.ID = row.ID
	return &g, nil
}

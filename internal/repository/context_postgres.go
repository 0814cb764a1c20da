package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ContextRepository defines the interface for project context persistence
type ContextRepository interface {
	Save(ctx context.Context, pc *entity.ProjectContext) (*entity.ProjectContext, error)
	Get(ctx context.Context, userID, projectID string) (*entity.ProjectContext, error)
}

var _ ContextRepository = &ContextPostgres{}

// ContextPostgres implements ContextRepository using PostgreSQL
type ContextPostgres struct {
	db *pgxpool.Pool
}

func NewContextPostgres(db *pgxpool.Pool) *ContextPostgres {
	return &ContextPostgres{db: db}
}

func (r *ContextPostgres) Save(ctx context.Context, pc *entity.ProjectContext) (*entity.ProjectContext, error) {
	data, err := json.Marshal(pc)
	if err != nil {
		return nil, fmt.Errorf("marshal project context: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO project_contexts (user_id, project_id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (user_id, project_id) DO UPDATE
		SET doc = EXCLUDED.doc, updated_at = now()
		RETURNING doc, created_at, updated_at`,
		pc.UserID, pc.ProjectID, data,
	)

	saved, err := scanContextRow(row, pc.UserID, pc.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("save project context: %w", err)
	}

	return saved, nil
}

func (r *ContextPostgres) Get(ctx context.Context, userID, projectID string) (*entity.ProjectContext, error) {
	row := r.db.QueryRow(ctx, `
		SELECT doc, created_at, updated_at
		FROM project_contexts
		WHERE user_id = $1 AND project_id = $2`,
		userID, projectID,
	)

	pc, err := scanContextRow(row, userID, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrProjectContextNotFound
		}
		return nil, fmt.Errorf("get project context: %w", err)
	}

	return pc, nil
}

func scanContextRow(row pgx.Row, userID, projectID string) (*entity.ProjectContext, error) {
	var (
		data      []byte
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	pc := &entity.ProjectContext{}
	if err := json.Unmarshal(data, pc); err != nil {
		return nil, fmt.Errorf("unmarshal project context: %w", err)
	}

	pc.UserID = userID
	pc.ProjectID = projectID
	pc.CreatedAt = createdAt
	pc.UpdatedAt = updatedAt

	return pc, nil
}

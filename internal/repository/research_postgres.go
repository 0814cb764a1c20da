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

// ResearchRepository defines the interface for research document persistence
type ResearchRepository interface {
	Save(ctx context.Context, doc *entity.ResearchDoc) (*entity.ResearchDoc, error)
	Get(ctx context.Context, userID, projectID string) (*entity.ResearchDoc, error)
	Update(ctx context.Context, doc *entity.ResearchDoc) (*entity.ResearchDoc, error)
}

var _ ResearchRepository = &ResearchPostgres{}

// ResearchPostgres implements ResearchRepository using PostgreSQL
type ResearchPostgres struct {
	db *pgxpool.Pool
}

func NewResearchPostgres(db *pgxpool.Pool) *ResearchPostgres {
	return &ResearchPostgres{db: db}
}

// Save upserts the document wholesale. An existing row keeps its version
// counter moving forward so concurrent readers never see it reset.
func (r *ResearchPostgres) Save(ctx context.Context, doc *entity.ResearchDoc) (*entity.ResearchDoc, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal research doc: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO research_docs (user_id, project_id, doc, version, created_at, updated_at)
		VALUES ($1, $2, $3, 1, now(), now())
		ON CONFLICT (user_id, project_id) DO UPDATE
		SET doc = EXCLUDED.doc,
		    version = research_docs.version + 1,
		    updated_at = now()
		RETURNING doc, version, created_at, updated_at`,
		doc.UserID, doc.ProjectID, data,
	)

	return scanResearchRow(row, doc.UserID, doc.ProjectID)
}

func (r *ResearchPostgres) Get(ctx context.Context, userID, projectID string) (*entity.ResearchDoc, error) {
	row := r.db.QueryRow(ctx, `
		SELECT doc, version, created_at, updated_at
		FROM research_docs
		WHERE user_id = $1 AND project_id = $2`,
		userID, projectID,
	)

	doc, err := scanResearchRow(row, userID, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrResearchDocNotFound
		}
		return nil, fmt.Errorf("get research doc: %w", err)
	}

	return doc, nil
}

// Update persists doc only if the stored version still matches doc.Version.
// A lost race returns entity.ErrVersionConflict so the caller can re-read
// and reapply its change.
func (r *ResearchPostgres) Update(ctx context.Context, doc *entity.ResearchDoc) (*entity.ResearchDoc, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal research doc: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		UPDATE research_docs
		SET doc = $3, version = version + 1, updated_at = now()
		WHERE user_id = $1 AND project_id = $2 AND version = $4
		RETURNING doc, version, created_at, updated_at`,
		doc.UserID, doc.ProjectID, data, doc.Version,
	)

	updated, err := scanResearchRow(row, doc.UserID, doc.ProjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if eerr := r.db.QueryRow(ctx, `
				SELECT EXISTS (
					SELECT 1 FROM research_docs WHERE user_id = $1 AND project_id = $2
				)`, doc.UserID, doc.ProjectID,
			).Scan(&exists); eerr != nil {
				return nil, fmt.Errorf("check research doc existence: %w", eerr)
			}

			if exists {
				return nil, entity.ErrVersionConflict
			}
			return nil, entity.ErrResearchDocNotFound
		}
		return nil, fmt.Errorf("update research doc: %w", err)
	}

	return updated, nil
}

func scanResearchRow(row pgx.Row, userID, projectID string) (*entity.ResearchDoc, error) {
	var (
		data      []byte
		version   int64
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&data, &version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	doc := &entity.ResearchDoc{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("unmarshal research doc: %w", err)
	}

	doc.UserID = userID
	doc.ProjectID = projectID
	doc.Version = version
	doc.CreatedAt = createdAt
	doc.UpdatedAt = updatedAt

	return doc, nil
}

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

// CoreBusinessRepository persists core business identity documents
type CoreBusinessRepository interface {
	Save(ctx context.Context, doc *entity.CoreBusinessDoc) (*entity.CoreBusinessDoc, error)
	Get(ctx context.Context, userID, projectID string) (*entity.CoreBusinessDoc, error)
}

// RiskRepository persists risk documents
type RiskRepository interface {
	Save(ctx context.Context, doc *entity.RiskDoc) (*entity.RiskDoc, error)
	Get(ctx context.Context, userID, projectID string) (*entity.RiskDoc, error)
}

// RoadmapRepository persists roadmap documents
type RoadmapRepository interface {
	Save(ctx context.Context, doc *entity.RoadmapDoc) (*entity.RoadmapDoc, error)
	Get(ctx context.Context, userID, projectID string) (*entity.RoadmapDoc, error)
}

// TaskRepository persists task documents
type TaskRepository interface {
	Save(ctx context.Context, doc *entity.TaskDoc) (*entity.TaskDoc, error)
	Get(ctx context.Context, userID, projectID string) (*entity.TaskDoc, error)
}

// docStore is the shared JSONB upsert/read machinery behind the four
// per-agent repositories. Each agent document lives wholesale in a doc
// column keyed by (user_id, project_id).
type docStore struct {
	db    *pgxpool.Pool
	table string
}

func (s *docStore) save(ctx context.Context, userID, projectID string, doc any) (time.Time, time.Time, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("marshal %s doc: %w", s.table, err)
	}

	var createdAt, updatedAt time.Time
	err = s.db.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO %s (user_id, project_id, doc, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (user_id, project_id) DO UPDATE
		SET doc = EXCLUDED.doc, updated_at = now()
		RETURNING created_at, updated_at`, s.table),
		userID, projectID, data,
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("save %s doc: %w", s.table, err)
	}

	return createdAt, updatedAt, nil
}

func (s *docStore) get(ctx context.Context, userID, projectID string, doc any) (time.Time, time.Time, error) {
	var (
		data      []byte
		createdAt time.Time
		updatedAt time.Time
	)
	err := s.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT doc, created_at, updated_at
		FROM %s
		WHERE user_id = $1 AND project_id = $2`, s.table),
		userID, projectID,
	).Scan(&data, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, time.Time{}, entity.ErrAgentDocNotFound
		}
		return time.Time{}, time.Time{}, fmt.Errorf("get %s doc: %w", s.table, err)
	}

	if err := json.Unmarshal(data, doc); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("unmarshal %s doc: %w", s.table, err)
	}

	return createdAt, updatedAt, nil
}

var _ CoreBusinessRepository = &CoreBusinessPostgres{}

type CoreBusinessPostgres struct {
	store docStore
}

func NewCoreBusinessPostgres(db *pgxpool.Pool) *CoreBusinessPostgres {
	return &CoreBusinessPostgres{store: docStore{db: db, table: "core_business_docs"}}
}

func (r *CoreBusinessPostgres) Save(ctx context.Context, doc *entity.CoreBusinessDoc) (*entity.CoreBusinessDoc, error) {
	createdAt, updatedAt, err := r.store.save(ctx, doc.UserID, doc.ProjectID, doc)
	if err != nil {
		return nil, err
	}

	saved := *doc
	saved.CreatedAt = createdAt
	saved.UpdatedAt = updatedAt

	return &saved, nil
}

func (r *CoreBusinessPostgres) Get(ctx context.Context, userID, projectID string) (*entity.CoreBusinessDoc, error) {
	doc := &entity.CoreBusinessDoc{}
	createdAt, updatedAt, err := r.store.get(ctx, userID, projectID, doc)
	if err != nil {
		return nil, err
	}

	doc.UserID = userID
	doc.ProjectID = projectID
	doc.CreatedAt = createdAt
	doc.UpdatedAt = updatedAt

	return doc, nil
}

var _ RiskRepository = &RiskPostgres{}

type RiskPostgres struct {
	store docStore
}

func NewRiskPostgres(db *pgxpool.Pool) *RiskPostgres {
	return &RiskPostgres{store: docStore{db: db, table: "risk_docs"}}
}

func (r *RiskPostgres) Save(ctx context.Context, doc *entity.RiskDoc) (*entity.RiskDoc, error) {
	createdAt, updatedAt, err := r.store.save(ctx, doc.UserID, doc.ProjectID, doc)
	if err != nil {
		return nil, err
	}

	saved := *doc
	saved.CreatedAt = createdAt
	saved.UpdatedAt = updatedAt

	return &saved, nil
}

func (r *RiskPostgres) Get(ctx context.Context, userID, projectID string) (*entity.RiskDoc, error) {
	doc := &entity.RiskDoc{}
	createdAt, updatedAt, err := r.store.get(ctx, userID, projectID, doc)
	if err != nil {
		return nil, err
	}

	doc.UserID = userID
	doc.ProjectID = projectID
	doc.CreatedAt = createdAt
	doc.UpdatedAt = updatedAt

	return doc, nil
}

var _ RoadmapRepository = &RoadmapPostgres{}

type RoadmapPostgres struct {
	store docStore
}

func NewRoadmapPostgres(db *pgxpool.Pool) *RoadmapPostgres {
	return &RoadmapPostgres{store: docStore{db: db, table: "roadmap_docs"}}
}

func (r *RoadmapPostgres) Save(ctx context.Context, doc *entity.RoadmapDoc) (*entity.RoadmapDoc, error) {
	createdAt, updatedAt, err := r.store.save(ctx, doc.UserID, doc.ProjectID, doc)
	if err != nil {
		return nil, err
	}

	saved := *doc
	saved.CreatedAt = createdAt
	saved.UpdatedAt = updatedAt

	return &saved, nil
}

func (r *RoadmapPostgres) Get(ctx context.Context, userID, projectID string) (*entity.RoadmapDoc, error) {
	doc := &entity.RoadmapDoc{}
	createdAt, updatedAt, err := r.store.get(ctx, userID, projectID, doc)
	if err != nil {
		return nil, err
	}

	doc.UserID = userID
	doc.ProjectID = projectID
	doc.CreatedAt = createdAt
	doc.UpdatedAt = updatedAt

	return doc, nil
}

var _ TaskRepository = &TaskPostgres{}

type TaskPostgres struct {
	store docStore
}

func NewTaskPostgres(db *pgxpool.Pool) *TaskPostgres {
	return &TaskPostgres{store: docStore{db: db, table: "task_docs"}}
}

func (r *TaskPostgres) Save(ctx context.Context, doc *entity.TaskDoc) (*entity.TaskDoc, error) {
	createdAt, updatedAt, err := r.store.save(ctx, doc.UserID, doc.ProjectID, doc)
	if err != nil {
		return nil, err
	}

	saved := *doc
	saved.CreatedAt = createdAt
	saved.UpdatedAt = updatedAt

	return &saved, nil
}

func (r *TaskPostgres) Get(ctx context.Context, userID, projectID string) (*entity.TaskDoc, error) {
	doc := &entity.TaskDoc{}
	createdAt, updatedAt, err := r.store.get(ctx, userID, projectID, doc)
	if err != nil {
		return nil, err
	}

	doc.UserID = userID
	doc.ProjectID = projectID
	doc.CreatedAt = createdAt
	doc.UpdatedAt = updatedAt

	return doc, nil
}

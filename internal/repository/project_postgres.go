package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/avara-hq/avara-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProjectRepository defines the interface for the denormalized project card
type ProjectRepository interface {
	Upsert(ctx context.Context, project *entity.Project) (*entity.Project, error)
	Get(ctx context.Context, userID, projectID string) (*entity.Project, error)
	List(ctx context.Context, userID string) ([]*entity.Project, error)
}

var _ ProjectRepository = &ProjectPostgres{}

// ProjectPostgres implements ProjectRepository using PostgreSQL
type ProjectPostgres struct {
	db *pgxpool.Pool
}

func NewProjectPostgres(db *pgxpool.Pool) *ProjectPostgres {
	return &ProjectPostgres{db: db}
}

func (r *ProjectPostgres) Upsert(ctx context.Context, project *entity.Project) (*entity.Project, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO projects (user_id, project_id, name, industry, region, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (user_id, project_id) DO UPDATE
		SET name = EXCLUDED.name,
		    industry = EXCLUDED.industry,
		    region = EXCLUDED.region,
		    status = EXCLUDED.status,
		    updated_at = now()
		RETURNING name, industry, region, status, created_at, updated_at`,
		project.UserID, project.ProjectID, project.Name, project.Industry, project.Region, string(project.Status),
	)

	saved, err := scanProjectRow(row, project.UserID, project.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("upsert project: %w", err)
	}

	return saved, nil
}

func (r *ProjectPostgres) Get(ctx context.Context, userID, projectID string) (*entity.Project, error) {
	row := r.db.QueryRow(ctx, `
		SELECT name, industry, region, status, created_at, updated_at
		FROM projects
		WHERE user_id = $1 AND project_id = $2`,
		userID, projectID,
	)

	project, err := scanProjectRow(row, userID, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return project, nil
}

func (r *ProjectPostgres) List(ctx context.Context, userID string) ([]*entity.Project, error) {
	rows, err := r.db.Query(ctx, `
		SELECT project_id, name, industry, region, status, created_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*entity.Project, 0)
	for rows.Next() {
		project := &entity.Project{UserID: userID}
		var status string
		if err := rows.Scan(
			&project.ProjectID, &project.Name, &project.Industry, &project.Region,
			&status, &project.CreatedAt, &project.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		project.Status = entity.ProjectState(status)
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}

	return projects, nil
}

func scanProjectRow(row pgx.Row, userID, projectID string) (*entity.Project, error) {
	project := &entity.Project{UserID: userID, ProjectID: projectID}
	var status string
	if err := row.Scan(
		&project.Name, &project.Industry, &project.Region,
		&status, &project.CreatedAt, &project.UpdatedAt,
	); err != nil {
		return nil, err
	}
	project.Status = entity.ProjectState(status)

	return project, nil
}

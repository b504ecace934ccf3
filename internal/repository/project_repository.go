package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ProjectRepository resolves project records and their ordered support
// staff list. The first staff entry is the project manager.
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListActive(ctx context.Context) ([]domain.Project, error)
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository instantiates repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	const query = `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM projects WHERE id=$1`
	var project domain.Project
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.IsActive,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, err
	}
	staff, err := r.staffForProject(ctx, project.ID)
	if err != nil {
		return nil, err
	}
	project.SupportStaffIDs = staff
	return &project, nil
}

func (r *projectRepository) ListActive(ctx context.Context) ([]domain.Project, error) {
	const query = `
        SELECT id, name, description, is_active, created_at, updated_at
        FROM projects WHERE is_active ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Project
	for rows.Next() {
		var project domain.Project
		if err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Description,
			&project.IsActive,
			&project.CreatedAt,
			&project.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		staff, err := r.staffForProject(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].SupportStaffIDs = staff
	}
	return result, nil
}

func (r *projectRepository) staffForProject(ctx context.Context, projectID string) ([]string, error) {
	const query = `
        SELECT user_id FROM project_staff WHERE project_id=$1 ORDER BY position ASC`
	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var staff []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		staff = append(staff, userID)
	}
	return staff, rows.Err()
}

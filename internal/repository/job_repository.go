package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/pkg/apperror"
)

type JobRepository struct {
	db *sqlx.DB
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create создаёт вакансию в статусе draft.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO jobs (organizer_id, title, description, status, compensation, start_at, end_at, application_deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query,
		job.OrganizerID, job.Title, job.Description, job.Status,
		job.Compensation, job.StartAt, job.EndAt, job.ApplicationDeadline,
	).Scan(&job.ID, &job.CreatedAt, &job.UpdatedAt)
}

// GetByID возвращает вакансию по ID.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	var job models.Job
	err := r.db.GetContext(ctx, &job, `SELECT * FROM jobs WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrJobNotFound
		}
		return nil, fmt.Errorf("job repository: get by id %w", err)
	}
	return &job, nil
}

// Update обновляет редактируемые поля вакансии (только draft/open).
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE jobs
		SET title = $2, description = $3, compensation = $4,
		    start_at = $5, end_at = $6, application_deadline = $7, updated_at = NOW()
		WHERE id = $1
	`, job.ID, job.Title, job.Description, job.Compensation, job.StartAt, job.EndAt, job.ApplicationDeadline)
	if err != nil {
		return fmt.Errorf("job repository: update %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.ErrJobNotFound
	}
	return nil
}

// UpdateStatus переводит вакансию из ожидаемого статуса в новый.
// Guard по текущему статусу сериализует конкурентные переходы: из двух
// одновременных вызовов строку обновит только один.
func (r *JobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return fmt.Errorf("job repository: update status %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Либо вакансии нет, либо статус уже изменился конкурентным вызовом.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return apperror.InvalidStateTransition(from, to)
	}
	return nil
}

// SetEscrowID привязывает эскроу к вакансии.
func (r *JobRepository) SetEscrowID(ctx context.Context, jobID, escrowID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET escrow_id = $2, updated_at = NOW() WHERE id = $1
	`, jobID, escrowID)
	if err != nil {
		return fmt.Errorf("job repository: set escrow id %w", err)
	}
	return nil
}

// ListByOrganizer возвращает вакансии организатора.
func (r *JobRepository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs WHERE organizer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, organizerID, limit, offset)
	return jobs, err
}

// ListByStatus возвращает вакансии в заданном статусе (для batch-расчётов).
func (r *JobRepository) ListByStatus(ctx context.Context, status string) ([]models.Job, error) {
	var jobs []models.Job
	err := r.db.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs WHERE status = $1 ORDER BY created_at ASC
	`, status)
	return jobs, err
}

// Delete удаляет черновик вакансии.
func (r *JobRepository) Delete(ctx context.Context, id, organizerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM jobs WHERE id = $1 AND organizer_id = $2 AND status = $3
	`, id, organizerID, models.JobStatusDraft)
	if err != nil {
		return fmt.Errorf("job repository: delete %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.ErrJobNotFound
	}
	return nil
}

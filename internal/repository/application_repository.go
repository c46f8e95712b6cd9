package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/pkg/apperror"
)

type ApplicationRepository struct {
	db *sqlx.DB
}

func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create создаёт заявку. Частичный уникальный индекс по (job_id, nurse_id)
// для невыведенных заявок не допускает дубликатов.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (job_id, nurse_id, proposed_quote, status, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		app.JobID, app.NurseID, app.ProposedQuote, app.Status, app.Message,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperror.New(apperror.ErrCodeConflict, "вы уже подали заявку на эту вакансию")
		}
		return fmt.Errorf("application repository: create %w", err)
	}
	return nil
}

// GetByID возвращает заявку по ID.
func (r *ApplicationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := r.db.GetContext(ctx, &app, `SELECT * FROM applications WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("application repository: get by id %w", err)
	}
	return &app, nil
}

// ListByJob возвращает заявки по вакансии.
func (r *ApplicationRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.SelectContext(ctx, &apps, `
		SELECT * FROM applications WHERE job_id = $1 ORDER BY created_at ASC
	`, jobID)
	return apps, err
}

// GetAcceptedByJob возвращает принятую заявку вакансии.
// После контрактации такая заявка ровно одна.
func (r *ApplicationRepository) GetAcceptedByJob(ctx context.Context, jobID uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := r.db.GetContext(ctx, &app, `
		SELECT * FROM applications WHERE job_id = $1 AND status = $2
	`, jobID, models.ApplicationStatusAccepted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("application repository: get accepted %w", err)
	}
	return &app, nil
}

// CountAcceptedByJob возвращает количество принятых заявок по вакансии.
func (r *ApplicationRepository) CountAcceptedByJob(ctx context.Context, jobID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM applications WHERE job_id = $1 AND status = $2
	`, jobID, models.ApplicationStatusAccepted)
	if err != nil {
		return 0, fmt.Errorf("application repository: count accepted %w", err)
	}
	return count, nil
}

// UpdateStatus обновляет статус заявки.
func (r *ApplicationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Application, error) {
	var app models.Application
	err := r.db.GetContext(ctx, &app, `
		UPDATE applications SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("application repository: update status %w", err)
	}
	return &app, nil
}

// AcceptExclusive принимает заявку, только если у вакансии ещё нет принятой.
// Подзапрос отсекает повторное принятие в рамках видимого снимка; гонку
// двух разных заявок под READ COMMITTED закрывает частичный уникальный
// индекс idx_applications_job_accepted - проигравший коммит ловит 23505.
func (r *ApplicationRepository) AcceptExclusive(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	err := r.db.GetContext(ctx, &app, `
		UPDATE applications SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
		  AND NOT EXISTS (
			SELECT 1 FROM applications a2
			WHERE a2.job_id = applications.job_id AND a2.status = $2
		  )
		RETURNING *
	`, id, models.ApplicationStatusAccepted, models.ApplicationStatusPending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.New(apperror.ErrCodeConflict, "заявка недоступна для принятия")
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperror.New(apperror.ErrCodeConflict, "заявка недоступна для принятия")
		}
		return nil, fmt.Errorf("application repository: accept %w", err)
	}
	return &app, nil
}

// ListByNurse возвращает заявки медсестры.
func (r *ApplicationRepository) ListByNurse(ctx context.Context, nurseID uuid.UUID, limit, offset int) ([]models.Application, error) {
	var apps []models.Application
	err := r.db.SelectContext(ctx, &apps, `
		SELECT * FROM applications WHERE nurse_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, nurseID, limit, offset)
	return apps, err
}

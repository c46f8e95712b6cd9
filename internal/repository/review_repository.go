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

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create создаёт отзыв. Уникальность по (job_id, author_id, target_id).
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO reviews (job_id, author_id, target_id, rating, tags, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		review.JobID, review.AuthorID, review.TargetID, review.Rating, review.Tags, review.Comment,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return apperror.New(apperror.ErrCodeConflict, "отзыв по этой паре уже существует")
		}
		return fmt.Errorf("review repository: create %w", err)
	}
	return nil
}

// Update обновляет отзыв (допустимо до закрытия вакансии).
func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE reviews SET rating = $2, tags = $3, comment = $4, updated_at = NOW()
		WHERE id = $1
	`, review.ID, review.Rating, review.Tags, review.Comment)
	if err != nil {
		return fmt.Errorf("review repository: update %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.ErrReviewNotFound
	}
	return nil
}

// GetByID возвращает отзыв по ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.GetContext(ctx, &review, `SELECT * FROM reviews WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrReviewNotFound
		}
		return nil, fmt.Errorf("review repository: get by id %w", err)
	}
	return &review, nil
}

// GetByPair возвращает отзыв автора об адресате в рамках вакансии, nil если нет.
func (r *ReviewRepository) GetByPair(ctx context.Context, jobID, authorID, targetID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.GetContext(ctx, &review, `
		SELECT * FROM reviews WHERE job_id = $1 AND author_id = $2 AND target_id = $3
	`, jobID, authorID, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("review repository: get by pair %w", err)
	}
	return &review, nil
}

// ListByJob возвращает отзывы по вакансии.
func (r *ReviewRepository) ListByJob(ctx context.Context, jobID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT * FROM reviews WHERE job_id = $1 ORDER BY created_at ASC
	`, jobID)
	return reviews, err
}

// CountByJob возвращает количество отзывов по вакансии.
func (r *ReviewRepository) CountByJob(ctx context.Context, jobID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM reviews WHERE job_id = $1`, jobID)
	if err != nil {
		return 0, fmt.Errorf("review repository: count by job %w", err)
	}
	return count, nil
}

// ListByTarget возвращает отзывы о пользователе.
func (r *ReviewRepository) ListByTarget(ctx context.Context, targetID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT * FROM reviews WHERE target_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, targetID, limit, offset)
	return reviews, err
}

// GetAverageRating возвращает средний рейтинг и количество отзывов о пользователе.
func (r *ReviewRepository) GetAverageRating(ctx context.Context, targetID uuid.UUID) (float64, int, error) {
	var result struct {
		Avg   sql.NullFloat64 `db:"avg"`
		Count int             `db:"count"`
	}
	err := r.db.GetContext(ctx, &result, `
		SELECT AVG(rating) AS avg, COUNT(*) AS count FROM reviews WHERE target_id = $1
	`, targetID)
	if err != nil {
		return 0, 0, fmt.Errorf("review repository: average rating %w", err)
	}
	return result.Avg.Float64, result.Count, nil
}

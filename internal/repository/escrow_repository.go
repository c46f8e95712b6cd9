package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/pkg/apperror"
)

type EscrowRepository struct {
	db *sqlx.DB
}

func NewEscrowRepository(db *sqlx.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

// Create создаёт эскроу в статусе awaiting. Уникальный индекс по job_id
// гарантирует ровно одну запись на вакансию.
func (r *EscrowRepository) Create(ctx context.Context, jobID uuid.UUID, grossAmount, platformFee int64) (*models.EscrowTransaction, error) {
	var escrow models.EscrowTransaction
	err := r.db.GetContext(ctx, &escrow, `
		INSERT INTO escrow_transactions (job_id, gross_amount, platform_fee, status)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, jobID, grossAmount, platformFee, models.EscrowStatusAwaiting)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, apperror.ErrDuplicateEscrow
		}
		return nil, fmt.Errorf("escrow repository: create %w", err)
	}
	return &escrow, nil
}

// GetByID возвращает эскроу по ID.
func (r *EscrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error) {
	var escrow models.EscrowTransaction
	err := r.db.GetContext(ctx, &escrow, `SELECT * FROM escrow_transactions WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrEscrowNotFound
		}
		return nil, fmt.Errorf("escrow repository: get by id %w", err)
	}
	return &escrow, nil
}

// GetByJobID возвращает эскроу по вакансии.
func (r *EscrowRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.EscrowTransaction, error) {
	var escrow models.EscrowTransaction
	err := r.db.GetContext(ctx, &escrow, `SELECT * FROM escrow_transactions WHERE job_id = $1`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrEscrowNotFound
		}
		return nil, fmt.Errorf("escrow repository: get by job %w", err)
	}
	return &escrow, nil
}

// MarkHolding переводит эскроу awaiting -> holding после захвата средств.
func (r *EscrowRepository) MarkHolding(ctx context.Context, id uuid.UUID) (*models.EscrowTransaction, error) {
	var escrow models.EscrowTransaction
	err := r.db.GetContext(ctx, &escrow, `
		UPDATE escrow_transactions SET status = $2
		WHERE id = $1 AND status = $3
		RETURNING *
	`, id, models.EscrowStatusHolding, models.EscrowStatusAwaiting)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, apperror.ErrInvalidEscrowStatus
		}
		return nil, fmt.Errorf("escrow repository: mark holding %w", err)
	}
	return &escrow, nil
}

// Release переводит эскроу holding -> released. Строка блокируется FOR UPDATE,
// поэтому из двух конкурентных вызовов holding увидит только один, второй
// завершится ErrInvalidEscrowStatus.
func (r *EscrowRepository) Release(ctx context.Context, id uuid.UUID, releaseAmount int64) (*models.EscrowTransaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	escrow, err := lockEscrowForTerminal(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	// Несовпадение суммы - фатальная рассинхронизация учёта, не повторяемая ошибка.
	if releaseAmount != escrow.GrossAmount {
		return nil, apperror.ErrReleaseAmountMismatch
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE escrow_transactions SET status = $2, released_at = $3 WHERE id = $1
	`, id, models.EscrowStatusReleased, now)
	if err != nil {
		return nil, fmt.Errorf("escrow repository: release %w", err)
	}
	escrow.Status = models.EscrowStatusReleased
	escrow.ReleasedAt = &now

	return escrow, tx.Commit()
}

// Refund переводит эскроу holding -> refunded. Взаимоисключим с Release.
func (r *EscrowRepository) Refund(ctx context.Context, id uuid.UUID, refundAmount int64) (*models.EscrowTransaction, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	escrow, err := lockEscrowForTerminal(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if refundAmount != escrow.GrossAmount {
		return nil, apperror.ErrReleaseAmountMismatch
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE escrow_transactions SET status = $2, refunded_at = $3 WHERE id = $1
	`, id, models.EscrowStatusRefunded, now)
	if err != nil {
		return nil, fmt.Errorf("escrow repository: refund %w", err)
	}
	escrow.Status = models.EscrowStatusRefunded
	escrow.RefundedAt = &now

	return escrow, tx.Commit()
}

// lockEscrowForTerminal блокирует строку эскроу и проверяет статус holding.
func lockEscrowForTerminal(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.EscrowTransaction, error) {
	var escrow models.EscrowTransaction
	err := tx.GetContext(ctx, &escrow, `
		SELECT * FROM escrow_transactions WHERE id = $1 FOR UPDATE
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrEscrowNotFound
		}
		return nil, fmt.Errorf("escrow repository: lock %w", err)
	}
	if escrow.Status != models.EscrowStatusHolding {
		return nil, apperror.ErrInvalidEscrowStatus
	}
	return &escrow, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/pkg/apperror"
)

type PayoutRepository struct {
	db *sqlx.DB
}

func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// GetByID возвращает выплату по ID.
func (r *PayoutRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.GetContext(ctx, &payout, `SELECT * FROM payouts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("payout repository: get by id %w", err)
	}
	return &payout, nil
}

// CreateScheduled создаёт отложенную выплату в статусе pending.
// Эскроу остаётся в holding до batch-расчёта.
func (r *PayoutRepository) CreateScheduled(ctx context.Context, payout *models.Payout) error {
	query := `
		INSERT INTO payouts (job_id, escrow_id, nurse_id, amount, fee, net_amount, method, status, scheduled_for)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	return r.db.QueryRowxContext(ctx, query,
		payout.JobID, payout.EscrowID, payout.NurseID,
		payout.Amount, payout.Fee, payout.NetAmount,
		payout.Method, payout.Status, payout.ScheduledFor,
	).Scan(&payout.ID, &payout.CreatedAt)
}

// ExecuteInstant атомарно выполняет мгновенную выплату: освобождение эскроу,
// создание завершённой выплаты и перевод вакансии в paid фиксируются одной
// транзакцией - либо всё, либо ничего.
func (r *PayoutRepository) ExecuteInstant(ctx context.Context, payout *models.Payout) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := releaseEscrowInTx(ctx, tx, payout.EscrowID); err != nil {
		return err
	}

	now := time.Now()
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO payouts (job_id, escrow_id, nurse_id, amount, fee, net_amount, method, status, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`, payout.JobID, payout.EscrowID, payout.NurseID,
		payout.Amount, payout.Fee, payout.NetAmount,
		payout.Method, models.PayoutStatusCompleted, now,
	).Scan(&payout.ID, &payout.CreatedAt)
	if err != nil {
		return fmt.Errorf("payout repository: create instant %w", err)
	}
	payout.Status = models.PayoutStatusCompleted
	payout.ExecutedAt = &now

	if err := markJobPaidInTx(ctx, tx, payout.JobID); err != nil {
		return err
	}

	return tx.Commit()
}

// SettleScheduled атомарно завершает одну плановую выплату: pending -> completed,
// эскроу holding -> released, вакансия ready_to_pay -> paid.
func (r *PayoutRepository) SettleScheduled(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var payout models.Payout
	err = tx.GetContext(ctx, &payout, `
		SELECT * FROM payouts WHERE id = $1 FOR UPDATE
	`, payoutID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("payout repository: lock %w", err)
	}

	// Уже обработанные записи (completed/failed) пропускаются, а не повторяются.
	if payout.Status != models.PayoutStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "выплата уже обработана")
	}

	if err := releaseEscrowInTx(ctx, tx, payout.EscrowID); err != nil {
		return nil, err
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE payouts SET status = $2, executed_at = $3 WHERE id = $1
	`, payoutID, models.PayoutStatusCompleted, now)
	if err != nil {
		return nil, fmt.Errorf("payout repository: settle %w", err)
	}
	payout.Status = models.PayoutStatusCompleted
	payout.ExecutedAt = &now

	if err := markJobPaidInTx(ctx, tx, payout.JobID); err != nil {
		return nil, err
	}

	return &payout, tx.Commit()
}

// MarkFailed помечает выплату как неуспешную с причиной.
func (r *PayoutRepository) MarkFailed(ctx context.Context, payoutID uuid.UUID, reason string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE payouts SET status = $2, failure_reason = $3
		WHERE id = $1 AND status = $4
	`, payoutID, models.PayoutStatusFailed, reason, models.PayoutStatusPending)
	if err != nil {
		return fmt.Errorf("payout repository: mark failed %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.ErrPayoutNotFound
	}
	return nil
}

// ListDueScheduled возвращает плановые выплаты со scheduled_for <= дате среза.
// Completed и failed записи не выбираются, что делает повторный прогон
// batch-обработки идемпотентным.
func (r *PayoutRepository) ListDueScheduled(ctx context.Context, cutoff time.Time) ([]models.Payout, error) {
	var payouts []models.Payout
	err := r.db.SelectContext(ctx, &payouts, `
		SELECT * FROM payouts
		WHERE status = $1 AND method = $2 AND scheduled_for <= $3
		ORDER BY scheduled_for ASC, created_at ASC
	`, models.PayoutStatusPending, models.PayoutMethodScheduled, cutoff)
	return payouts, err
}

// ListByNurse возвращает выплаты медсестры.
func (r *PayoutRepository) ListByNurse(ctx context.Context, nurseID uuid.UUID, limit, offset int) ([]models.Payout, error) {
	var payouts []models.Payout
	err := r.db.SelectContext(ctx, &payouts, `
		SELECT * FROM payouts WHERE nurse_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, nurseID, limit, offset)
	return payouts, err
}

// GetByJobID возвращает выплату по вакансии.
func (r *PayoutRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.GetContext(ctx, &payout, `SELECT * FROM payouts WHERE job_id = $1`, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrPayoutNotFound
		}
		return nil, fmt.Errorf("payout repository: get by job %w", err)
	}
	return &payout, nil
}

// releaseEscrowInTx освобождает эскроу внутри внешней транзакции.
// FOR UPDATE сериализует конкурентные попытки: holding увидит ровно один вызов.
func releaseEscrowInTx(ctx context.Context, tx *sqlx.Tx, escrowID uuid.UUID) error {
	var status string
	err := tx.GetContext(ctx, &status, `
		SELECT status FROM escrow_transactions WHERE id = $1 FOR UPDATE
	`, escrowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.ErrEscrowNotFound
		}
		return fmt.Errorf("payout repository: lock escrow %w", err)
	}
	if status != models.EscrowStatusHolding {
		return apperror.ErrInvalidEscrowStatus
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE escrow_transactions SET status = $2, released_at = NOW() WHERE id = $1
	`, escrowID, models.EscrowStatusReleased)
	if err != nil {
		return fmt.Errorf("payout repository: release escrow %w", err)
	}
	return nil
}

// markJobPaidInTx переводит вакансию ready_to_pay -> paid внутри транзакции.
func markJobPaidInTx(ctx context.Context, tx *sqlx.Tx, jobID uuid.UUID) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE jobs SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, jobID, models.JobStatusPaid, models.JobStatusReadyToPay)
	if err != nil {
		return fmt.Errorf("payout repository: mark job paid %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.InvalidStateTransition(models.JobStatusReadyToPay, models.JobStatusPaid)
	}
	return nil
}

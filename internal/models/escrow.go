package models

import (
	"time"

	"github.com/google/uuid"
)

// EscrowTransaction представляет средства, удерживаемые платформой по вакансии.
// Ровно одна запись на вакансию; переходы статусов односторонние:
// awaiting -> holding -> (released | refunded).
type EscrowTransaction struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	JobID       uuid.UUID  `db:"job_id" json:"job_id"`
	GrossAmount int64      `db:"gross_amount" json:"gross_amount"`
	PlatformFee int64      `db:"platform_fee" json:"platform_fee"`
	Status      string     `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ReleasedAt  *time.Time `db:"released_at" json:"released_at,omitempty"`
	RefundedAt  *time.Time `db:"refunded_at" json:"refunded_at,omitempty"`
}

// Payout представляет запись о расчёте с конкретной медсестрой.
// amount = gross - platformFee, fee = комиссия способа выплаты,
// net_amount = amount - fee (всегда >= 0).
type Payout struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	JobID         uuid.UUID  `db:"job_id" json:"job_id"`
	EscrowID      uuid.UUID  `db:"escrow_id" json:"escrow_id"`
	NurseID       uuid.UUID  `db:"nurse_id" json:"nurse_id"`
	Amount        int64      `db:"amount" json:"amount"`
	Fee           int64      `db:"fee" json:"fee"`
	NetAmount     int64      `db:"net_amount" json:"net_amount"`
	Method        string     `db:"method" json:"method"`
	Status        string     `db:"status" json:"status"`
	ScheduledFor  *time.Time `db:"scheduled_for" json:"scheduled_for,omitempty"`
	ExecutedAt    *time.Time `db:"executed_at" json:"executed_at,omitempty"`
	FailureReason *string    `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

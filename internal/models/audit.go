package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Действия аудита финансового цикла
const (
	AuditActionEscrowCreated  = "escrow.created"
	AuditActionEscrowHolding  = "escrow.holding"
	AuditActionEscrowReleased = "escrow.released"
	AuditActionEscrowRefunded = "escrow.refunded"
	AuditActionPayoutCreated  = "payout.created"
	AuditActionPayoutComplete = "payout.completed"
	AuditActionPayoutFailed   = "payout.failed"
	AuditActionJobTransition  = "job.status_changed"
	AuditActionBatchSettled   = "payout.batch_settled"
)

// AuditEvent - запись журнала аудита. Журнал только дописывается;
// провал записи никогда не откатывает бизнес-операцию.
type AuditEvent struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	ActorID   *uuid.UUID      `db:"actor_id" json:"actor_id,omitempty"`
	Action    string          `db:"action" json:"action"`
	TargetID  uuid.UUID       `db:"target_id" json:"target_id"`
	Metadata  json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

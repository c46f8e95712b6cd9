package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/wista110/sports-nurse-web-sub001/internal/models"
)

// AuditRepository пишет события финансового аудита. Журнал только дописывается.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append добавляет событие аудита.
func (r *AuditRepository) Append(ctx context.Context, actorID *uuid.UUID, action string, targetID uuid.UUID, metadata interface{}) error {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("audit repository: marshal metadata %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (actor_id, action, target_id, metadata)
		VALUES ($1, $2, $3, $4)
	`, actorID, action, targetID, raw)
	if err != nil {
		return fmt.Errorf("audit repository: append %w", err)
	}
	return nil
}

// ListByTarget возвращает события по целевой сущности (для сверки).
func (r *AuditRepository) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM audit_logs WHERE target_id = $1 ORDER BY created_at ASC
	`, targetID)
	return events, err
}

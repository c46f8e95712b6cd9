package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/lib/pq"
)

// Review - одна направленная оценка автор -> адресат в рамках вакансии.
// Уникальна по (job_id, author_id, target_id).
type Review struct {
	ID        uuid.UUID      `db:"id" json:"id"`
	JobID     uuid.UUID      `db:"job_id" json:"job_id"`
	AuthorID  uuid.UUID      `db:"author_id" json:"author_id"`
	TargetID  uuid.UUID      `db:"target_id" json:"target_id"`
	Rating    int            `db:"rating" json:"rating"`
	Tags      pq.StringArray `db:"tags" json:"tags"`
	Comment   *string        `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Job описывает одно мероприятие, на которое требуется медперсонал.
type Job struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	OrganizerID         uuid.UUID  `db:"organizer_id" json:"organizer_id"`
	Title               string     `db:"title" json:"title"`
	Description         string     `db:"description" json:"description"`
	Status              string     `db:"status" json:"status"`
	Compensation        int64      `db:"compensation" json:"compensation"`
	StartAt             time.Time  `db:"start_at" json:"start_at"`
	EndAt               time.Time  `db:"end_at" json:"end_at"`
	ApplicationDeadline time.Time  `db:"application_deadline" json:"application_deadline"`
	EscrowID            *uuid.UUID `db:"escrow_id" json:"escrow_id,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Application представляет заявку медсестры на вакансию.
type Application struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	JobID         uuid.UUID  `db:"job_id" json:"job_id"`
	NurseID       uuid.UUID  `db:"nurse_id" json:"nurse_id"`
	ProposedQuote *int64     `db:"proposed_quote" json:"proposed_quote,omitempty"`
	Status        string     `db:"status" json:"status"`
	Message       *string    `db:"message" json:"message,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// ContractAmount возвращает сумму контракта: предложенная цена заявки
// имеет приоритет над базовой компенсацией вакансии.
func (j *Job) ContractAmount(app *Application) int64 {
	if app != nil && app.ProposedQuote != nil && *app.ProposedQuote > 0 {
		return *app.ProposedQuote
	}
	return j.Compensation
}

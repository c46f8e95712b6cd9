package dto

import "time"

// CreateJobRequest запрос на создание вакансии.
type CreateJobRequest struct {
	Title               string    `json:"title" binding:"required"`
	Description         string    `json:"description"`
	Compensation        int64     `json:"compensation" binding:"required,gt=0"`
	StartAt             time.Time `json:"start_at" binding:"required"`
	EndAt               time.Time `json:"end_at" binding:"required"`
	ApplicationDeadline time.Time `json:"application_deadline" binding:"required"`
}

// UpdateJobRequest запрос на редактирование вакансии.
type UpdateJobRequest struct {
	Title               string    `json:"title" binding:"required"`
	Description         string    `json:"description"`
	Compensation        int64     `json:"compensation" binding:"required,gt=0"`
	StartAt             time.Time `json:"start_at" binding:"required"`
	EndAt               time.Time `json:"end_at" binding:"required"`
	ApplicationDeadline time.Time `json:"application_deadline" binding:"required"`
}

// SubmitApplicationRequest запрос на подачу заявки.
type SubmitApplicationRequest struct {
	ProposedQuote *int64  `json:"proposed_quote,omitempty"`
	Message       *string `json:"message,omitempty"`
}

// CancelJobRequest запрос на отмену вакансии.
type CancelJobRequest struct {
	Reason string `json:"reason"`
}

// CreateEscrowRequest запрос на создание эскроу.
type CreateEscrowRequest struct {
	JobID string `json:"job_id" binding:"required,uuid"`
	// Сумма необязательна: без неё берётся сумма контракта; переданное
	// значение обязано с ней совпасть.
	Amount int64 `json:"amount" binding:"omitempty,gt=0"`
}

// ReleaseEscrowRequest запрос на освобождение средств.
type ReleaseEscrowRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason"`
}

// RefundEscrowRequest запрос на возврат средств.
type RefundEscrowRequest struct {
	Amount int64  `json:"amount" binding:"required,gt=0"`
	Reason string `json:"reason"`
}

// CreatePayoutRequest запрос на создание выплаты.
type CreatePayoutRequest struct {
	JobID  string `json:"job_id" binding:"required,uuid"`
	Method string `json:"method" binding:"required,oneof=instant scheduled"`
}

// SubmitReviewRequest запрос на отзыв.
type SubmitReviewRequest struct {
	Rating  int      `json:"rating" binding:"required,min=1,max=5"`
	Tags    []string `json:"tags"`
	Comment *string  `json:"comment,omitempty"`
}

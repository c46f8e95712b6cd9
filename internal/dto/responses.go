package dto

import (
	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/service"
)

// ErrorResponse стандартный ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse стандартный успешный ответ.
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// JobResponse вакансия вместе с заявками.
type JobResponse struct {
	*models.Job
	Applications []models.Application `json:"applications,omitempty"`
}

// EscrowResponse эскроу вместе с выплатой, если она уже создана.
type EscrowResponse struct {
	*models.EscrowTransaction
	Payout *models.Payout `json:"payout,omitempty"`
}

// FeePreviewResponse разбивка комиссий без побочных эффектов.
type FeePreviewResponse struct {
	BaseAmount     int64   `json:"base_amount"`
	PlatformFee    int64   `json:"platform_fee"`
	PaymentFee     int64   `json:"payment_fee"`
	NetAmount      int64   `json:"net_amount"`
	Method         string  `json:"method"`
	PlatformRate   float64 `json:"platform_rate"`
	PaymentRate    float64 `json:"payment_rate"`
}

// CronResponse итог прогона планировщика. Всегда отдаётся со статусом 200:
// сбой прогона сигнализируется флагом success.
type CronResponse struct {
	Success bool                 `json:"success"`
	Result  *service.BatchResult `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
}

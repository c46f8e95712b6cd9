package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wista110/sports-nurse-web-sub001/internal/dto"
	"github.com/wista110/sports-nurse-web-sub001/internal/logger"
	"github.com/wista110/sports-nurse-web-sub001/internal/service"
)

type CronHandler struct {
	payouts *service.PayoutService
}

func NewCronHandler(payouts *service.PayoutService) *CronHandler {
	return &CronHandler{payouts: payouts}
}

// ProcessScheduledPayments POST /cron/process-scheduled-payments
// Месячный расчёт по всем вакансиям в ready_to_pay. Планировщик всегда
// получает 200: итог прогона передаётся флагом success, чтобы внешний
// cron не ретраил batch целиком.
func (h *CronHandler) ProcessScheduledPayments(c *gin.Context) {
	result, err := h.payouts.SettleReadyJobs(c.Request.Context())
	if err != nil {
		logger.WithComponent("cron").Errorf("прогон плановых выплат не выполнен: %v", err)
		c.JSON(http.StatusOK, dto.CronResponse{Success: false, Error: "прогон не выполнен"})
		return
	}

	c.JSON(http.StatusOK, dto.CronResponse{Success: true, Result: result})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wista110/sports-nurse-web-sub001/internal/dto"
	"github.com/wista110/sports-nurse-web-sub001/internal/http/handlers/common"
	"github.com/wista110/sports-nurse-web-sub001/internal/models"
	"github.com/wista110/sports-nurse-web-sub001/internal/service"
)

type EscrowHandler struct {
	escrow *service.EscrowService
}

func NewEscrowHandler(escrow *service.EscrowService) *EscrowHandler {
	return &EscrowHandler{escrow: escrow}
}

// Create POST /escrow
func (h *EscrowHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		common.RespondBadRequest(c, "неверный job_id")
		return
	}

	escrow, err := h.escrow.CreateEscrow(c.Request.Context(), userID, jobID, req.Amount)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, escrow)
}

// Process POST /escrow/:id/process
func (h *EscrowHandler) Process(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	escrowID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.escrow.ProcessCapture(c.Request.Context(), userID, escrowID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, escrow)
}

// Release POST /escrow/:id/release
func (h *EscrowHandler) Release(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	escrowID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ReleaseEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.escrow.Release(c.Request.Context(), &userID, escrowID, req.Amount, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, escrow)
}

// Refund POST /escrow/:id/refund
func (h *EscrowHandler) Refund(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	escrowID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.RefundEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.escrow.Refund(c.Request.Context(), &userID, escrowID, req.Amount, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, escrow)
}

// GetByJob GET /jobs/:id/escrow
func (h *EscrowHandler) GetByJob(c *gin.Context) {
	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	escrow, err := h.escrow.GetByJob(c.Request.Context(), jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, escrow)
}

// PreviewFees GET /escrow?amount=10000&paymentMethod=instant
// Доступен и как GET /fees/preview с тем же параметром.
func (h *EscrowHandler) PreviewFees(c *gin.Context) {
	amount := int64(common.ParseIntQuery(c, "amount", 0))
	method := c.DefaultQuery("paymentMethod", models.PayoutMethodScheduled)

	calc, err := h.escrow.PreviewFees(amount, method)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FeePreviewResponse{
		BaseAmount:   calc.BaseAmount,
		PlatformFee:  calc.PlatformFee,
		PaymentFee:   calc.PaymentFee,
		NetAmount:    calc.NetAmount,
		Method:       calc.Breakdown.Method,
		PlatformRate: calc.Breakdown.PlatformFeeRate,
		PaymentRate:  calc.Breakdown.PaymentFeeRate,
	})
}

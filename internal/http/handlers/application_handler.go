package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wista110/sports-nurse-web-sub001/internal/dto"
	"github.com/wista110/sports-nurse-web-sub001/internal/http/handlers/common"
	"github.com/wista110/sports-nurse-web-sub001/internal/service"
)

type ApplicationHandler struct {
	jobs *service.JobService
}

func NewApplicationHandler(jobs *service.JobService) *ApplicationHandler {
	return &ApplicationHandler{jobs: jobs}
}

// Submit POST /jobs/:id/applications
func (h *ApplicationHandler) Submit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	app, err := h.jobs.SubmitApplication(c.Request.Context(), userID, jobID, req.ProposedQuote, req.Message)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, app)
}

// List GET /jobs/:id/applications
func (h *ApplicationHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	apps, err := h.jobs.ListApplications(c.Request.Context(), userID, jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, apps)
}

// Accept POST /applications/:id/accept
func (h *ApplicationHandler) Accept(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	appID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	app, err := h.jobs.AcceptApplication(c.Request.Context(), userID, appID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}

// Reject POST /applications/:id/reject
func (h *ApplicationHandler) Reject(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	appID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	app, err := h.jobs.RejectApplication(c.Request.Context(), userID, appID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}

// Withdraw POST /applications/:id/withdraw
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	appID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	app, err := h.jobs.WithdrawApplication(c.Request.Context(), userID, appID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, app)
}

// ListMine GET /applications/mine
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	apps, err := h.jobs.ListMyApplications(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, apps)
}

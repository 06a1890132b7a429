package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skillbridge/skillbridge-backend/internal/common"
	"github.com/skillbridge/skillbridge-backend/internal/domain"
	"github.com/skillbridge/skillbridge-backend/internal/middleware"
	"github.com/skillbridge/skillbridge-backend/internal/service"
	"github.com/skillbridge/skillbridge-backend/pkg/ginutil"
)

// ApplicationHandler handles application lifecycle requests
type ApplicationHandler struct {
	service service.ApplicationService
}

// NewApplicationHandler creates a new ApplicationHandler
func NewApplicationHandler(service service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// Apply handles POST /api/v1/applications (volunteer only)
func (h *ApplicationHandler) Apply(c *gin.Context) {
	var req domain.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	app, err := h.service.Apply(middleware.GetUserID(c), middleware.GetUserRole(c), &req)
	if errors.Is(err, common.ErrForbidden) {
		common.ErrorResponse(c, 403, "Only volunteer accounts can apply", err)
		return
	}
	if errors.Is(err, common.ErrNotFound) {
		common.ErrorResponse(c, 404, "Opportunity not found", err)
		return
	}
	if errors.Is(err, common.ErrOpportunityClosed) {
		common.ErrorResponse(c, 409, "Opportunity is not open for applications", err)
		return
	}
	if errors.Is(err, common.ErrDuplicateApplication) {
		common.ErrorResponse(c, 409, "You have already applied to this opportunity", err)
		return
	}
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to submit application", err)
		return
	}

	c.JSON(http.StatusCreated, common.APIResponse{Data: app})
}

// ListMine handles GET /api/v1/applications (volunteer's own applications)
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	items, err := h.service.ListForVolunteer(middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to list applications", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: items})
}

// ListForOpportunity handles GET /api/v1/opportunities/:id/applications (owning NGO only)
func (h *ApplicationHandler) ListForOpportunity(c *gin.Context) {
	opportunityID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid opportunity ID", err)
		return
	}

	items, err := h.service.ListForOpportunity(opportunityID, middleware.GetUserID(c))
	if errors.Is(err, common.ErrNotFound) {
		common.ErrorResponse(c, 404, "Opportunity not found", err)
		return
	}
	if errors.Is(err, common.ErrForbidden) {
		common.ErrorResponse(c, 403, "Only the posting NGO can review applications", err)
		return
	}
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to list applications", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: items})
}

// SetStatus handles PATCH /api/v1/applications/:id/status (owning NGO only)
func (h *ApplicationHandler) SetStatus(c *gin.Context) {
	applicationID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid application ID", err)
		return
	}

	var req domain.SetApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	app, err := h.service.SetStatus(applicationID, middleware.GetUserID(c), req.Status)
	if errors.Is(err, common.ErrInvalidStatus) {
		common.ErrorResponse(c, 400, "Invalid application status", err)
		return
	}
	if errors.Is(err, common.ErrNotFound) {
		common.ErrorResponse(c, 404, "Application not found", err)
		return
	}
	if errors.Is(err, common.ErrForbidden) {
		common.ErrorResponse(c, 403, "Only the posting NGO can review this application", err)
		return
	}
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to update application", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: app})
}

// Withdraw handles DELETE /api/v1/applications/:id (applying volunteer, pending only)
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	applicationID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid application ID", err)
		return
	}

	err = h.service.Withdraw(applicationID, middleware.GetUserID(c))
	if errors.Is(err, common.ErrNotFound) {
		common.ErrorResponse(c, 404, "Application not found", err)
		return
	}
	if errors.Is(err, common.ErrForbidden) {
		common.ErrorResponse(c, 403, "Only a pending application can be withdrawn by its applicant", err)
		return
	}
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to withdraw application", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{
		Data: gin.H{"message": "Application withdrawn"},
	})
}

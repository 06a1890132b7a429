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

// OpportunityHandler handles volunteer opportunity requests
type OpportunityHandler struct {
	service service.OpportunityService
}

// NewOpportunityHandler creates a new OpportunityHandler
func NewOpportunityHandler(service service.OpportunityService) *OpportunityHandler {
	return &OpportunityHandler{service: service}
}

// List handles GET /api/v1/opportunities
// Public listing with status/location/skill filters and pagination
func (h *OpportunityHandler) List(c *gin.Context) {
	filter := domain.OpportunityFilter{
		Status:   c.Query("status"),
		Location: c.Query("location"),
		Skill:    c.Query("skill"),
		Page:     ginutil.QueryInt(c, "page", 1),
		PerPage:  ginutil.QueryInt(c, "per_page", 20),
	}

	items, total, err := h.service.List(filter)
	if errors.Is(err, common.ErrInvalidStatus) {
		common.ErrorResponse(c, 400, "Invalid status filter", err)
		return
	}
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to list opportunities", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{
		Data: items,
		Meta: common.NewMeta(filter.Page, filter.PerPage, total),
	})
}

// Get handles GET /api/v1/opportunities/:id
func (h *OpportunityHandler) Get(c *gin.Context) {
	id, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid opportunity ID", err)
		return
	}

	// viewerID is zero for anonymous callers; owner-only counts stay hidden
	op, err := h.service.Get(id, middleware.GetUserID(c))
	if errors.Is(err, common.ErrOpportunityNotFound) || errors.Is(err, common.ErrNotFound) {
		common.ErrorResponse(c, 404, "Opportunity not found", err)
		return
	}
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to load opportunity", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: op})
}

// Create handles POST /api/v1/opportunities (NGO only)
func (h *OpportunityHandler) Create(c *gin.Context) {
	var req domain.CreateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	op, err := h.service.Create(middleware.GetUserID(c), middleware.GetUserRole(c), &req)
	if errors.Is(err, common.ErrForbidden) {
		common.ErrorResponse(c, 403, "Only NGO accounts can post opportunities", err)
		return
	}
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to create opportunity", err)
		return
	}

	c.JSON(http.StatusCreated, common.APIResponse{Data: op})
}

// Update handles PUT /api/v1/opportunities/:id (owning NGO only)
func (h *OpportunityHandler) Update(c *gin.Context) {
	id, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid opportunity ID", err)
		return
	}

	var req domain.UpdateOpportunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, 400, "Invalid request body", err)
		return
	}

	op, err := h.service.Update(id, middleware.GetUserID(c), &req)
	if errors.Is(err, common.ErrOpportunityNotFound) || errors.Is(err, common.ErrNotFound) {
		common.ErrorResponse(c, 404, "Opportunity not found", err)
		return
	}
	if errors.Is(err, common.ErrForbidden) {
		common.ErrorResponse(c, 403, "Only the posting NGO can update this opportunity", err)
		return
	}
	if errors.Is(err, common.ErrInvalidStatus) {
		common.ErrorResponse(c, 400, "Invalid opportunity status", err)
		return
	}
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to update opportunity", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: op})
}

// Delete handles DELETE /api/v1/opportunities/:id (owning NGO only)
func (h *OpportunityHandler) Delete(c *gin.Context) {
	id, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.ErrorResponse(c, 400, "Invalid opportunity ID", err)
		return
	}

	err = h.service.Delete(id, middleware.GetUserID(c))
	if errors.Is(err, common.ErrOpportunityNotFound) || errors.Is(err, common.ErrNotFound) {
		common.ErrorResponse(c, 404, "Opportunity not found", err)
		return
	}
	if errors.Is(err, common.ErrForbidden) {
		common.ErrorResponse(c, 403, "Only the posting NGO can delete this opportunity", err)
		return
	}
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to delete opportunity", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{
		Data: gin.H{"message": "Opportunity deleted"},
	})
}

// ListMine handles GET /api/v1/opportunities/mine (NGO only)
// Returns the caller's postings with applicant counts
func (h *OpportunityHandler) ListMine(c *gin.Context) {
	items, err := h.service.ListByNGO(middleware.GetUserID(c))
	if err != nil {
		common.ErrorResponse(c, 500, "Failed to list opportunities", err)
		return
	}

	c.JSON(http.StatusOK, common.APIResponse{Data: items})
}

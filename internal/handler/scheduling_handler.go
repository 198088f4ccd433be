package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/studyhall/tutoring-api/internal/dto"
	"github.com/studyhall/tutoring-api/internal/models"
	"github.com/studyhall/tutoring-api/internal/service"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
	"github.com/studyhall/tutoring-api/pkg/response"
)

// SchedulingHandler exposes the smart-slots, alternatives and draft
// endpoints.
type SchedulingHandler struct {
	scheduling *service.SchedulingService
	swaps      *service.SwapService
	drafts     *service.DraftService
	validator  *validator.Validate
}

// NewSchedulingHandler constructs a scheduling handler.
func NewSchedulingHandler(scheduling *service.SchedulingService, swaps *service.SwapService, drafts *service.DraftService, validate *validator.Validate) *SchedulingHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &SchedulingHandler{scheduling: scheduling, swaps: swaps, drafts: drafts, validator: validate}
}

// SmartSlots godoc
// @Summary Compute a recommended schedule for a set of subject selections
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.SmartSlotsRequest true "Selections and date range"
// @Success 200 {object} response.Envelope
// @Router /scheduling/slots/smart [post]
func (h *SchedulingHandler) SmartSlots(c *gin.Context) {
	var req dto.SmartSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid smart slots request"))
		return
	}

	result, err := h.scheduling.SmartSlots(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Alternatives godoc
// @Summary List replacement slots for a swap
// @Tags Scheduling
// @Produce json
// @Param teacherId query string true "Teacher ID"
// @Param subjectId query string true "Subject ID"
// @Param teachingType query string true "Teaching type"
// @Param academicTermId query string false "Academic term ID"
// @Param startDate query string true "Start date (YYYY-MM-DD)"
// @Param endDate query string true "End date (YYYY-MM-DD)"
// @Param excludeSlotIds query string false "Comma-separated availability ids to exclude"
// @Param sessionToken query string false "Reservation session token"
// @Success 200 {object} response.Envelope
// @Router /scheduling/slots/alternatives [get]
func (h *SchedulingHandler) Alternatives(c *gin.Context) {
	var query dto.AlternativesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid alternatives query"))
		return
	}

	result, err := h.swaps.FindAlternatives(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SaveDraft godoc
// @Summary Save the caller's in-progress booking draft
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body models.DemandDraft true "Draft payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /scheduling/drafts [put]
func (h *SchedulingHandler) SaveDraft(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var draft models.DemandDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	draft.UserID = claims.UserID

	if err := h.drafts.Save(c.Request.Context(), draft); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"saved": true}, nil)
}

// LoadDraft godoc
// @Summary Load the caller's saved booking draft
// @Tags Scheduling
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /scheduling/drafts [get]
func (h *SchedulingHandler) LoadDraft(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	draft, err := h.drafts.Load(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if draft == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no saved draft"))
		return
	}
	response.JSON(c, http.StatusOK, draft, nil)
}

// DiscardDraft godoc
// @Summary Discard the caller's saved booking draft
// @Tags Scheduling
// @Produce json
// @Success 204
// @Security BearerAuth
// @Router /scheduling/drafts [delete]
func (h *SchedulingHandler) DiscardDraft(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.drafts.Discard(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

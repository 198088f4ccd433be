package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/studyhall/tutoring-api/internal/dto"
	"github.com/studyhall/tutoring-api/internal/service"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
	"github.com/studyhall/tutoring-api/pkg/response"
)

// AvailabilityHandler handles recurring availability endpoints.
type AvailabilityHandler struct {
	service   *service.AvailabilityService
	validator *validator.Validate
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc *service.AvailabilityService, validate *validator.Validate) *AvailabilityHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AvailabilityHandler{service: svc, validator: validate}
}

// List godoc
// @Summary List active availability slots
// @Tags Availability
// @Produce json
// @Param teacherId query string false "Filter by teacher"
// @Param subjectId query string false "Filter by subject"
// @Param dayOfWeek query int false "Filter by weekday (0=Sunday)"
// @Success 200 {object} response.Envelope
// @Router /availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	var query dto.ListAvailabilityQuery
	query.TeacherID = c.Query("teacherId")
	query.SubjectID = c.Query("subjectId")
	if raw := c.Query("dayOfWeek"); raw != "" {
		day, err := strconv.Atoi(raw)
		if err != nil || day < 0 || day > 6 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dayOfWeek must be between 0 and 6"))
			return
		}
		query.DayOfWeek = &day
	}

	slots, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Get godoc
// @Summary Get an availability slot by id
// @Tags Availability
// @Produce json
// @Param id path string true "Availability ID"
// @Success 200 {object} response.Envelope
// @Router /availability/{id} [get]
func (h *AvailabilityHandler) Get(c *gin.Context) {
	slot, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Create godoc
// @Summary Register a recurring weekly availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body dto.CreateAvailabilityRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /availability [post]
func (h *AvailabilityHandler) Create(c *gin.Context) {
	var req dto.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}

	slot, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// Update godoc
// @Summary Update an availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Availability ID"
// @Param payload body dto.UpdateAvailabilityRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /availability/{id} [put]
func (h *AvailabilityHandler) Update(c *gin.Context) {
	var req dto.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid availability payload"))
		return
	}

	slot, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Delete godoc
// @Summary Delete an availability slot
// @Tags Availability
// @Produce json
// @Param id path string true "Availability ID"
// @Success 204
// @Security BearerAuth
// @Router /availability/{id} [delete]
func (h *AvailabilityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

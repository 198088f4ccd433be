package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/studyhall/tutoring-api/internal/dto"
	"github.com/studyhall/tutoring-api/internal/models"
	"github.com/studyhall/tutoring-api/internal/service"
	appErrors "github.com/studyhall/tutoring-api/pkg/errors"
	"github.com/studyhall/tutoring-api/pkg/response"
)

// ReservationHandler exposes the slot hold lifecycle.
type ReservationHandler struct {
	reservations *service.ReservationService
	pricing      service.PriceCalculator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewReservationHandler constructs a reservation handler.
func NewReservationHandler(reservations *service.ReservationService, pricing service.PriceCalculator, validate *validator.Validate, logger *zap.Logger) *ReservationHandler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReservationHandler{reservations: reservations, pricing: pricing, validator: validate, logger: logger}
}

// Reserve godoc
// @Summary Hold a set of slots for checkout
// @Tags Reservations
// @Accept json
// @Produce json
// @Param payload body dto.ReserveRequest true "Slots to hold"
// @Success 200 {object} response.Envelope
// @Router /reservations [post]
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req dto.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reservation request"))
		return
	}

	result, err := h.reservations.Reserve(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	// A conflicted reservation is still HTTP 200: the outcome is data
	// the booking flow renders, not a failure of the request itself.
	response.JSON(c, http.StatusOK, result, nil)
}

// Extend godoc
// @Summary Extend a reservation's expiry
// @Tags Reservations
// @Accept json
// @Produce json
// @Param token path string true "Session token"
// @Param payload body dto.ExtendRequest true "Minutes to add"
// @Success 200 {object} response.Envelope
// @Router /reservations/{token}/extend [post]
func (h *ReservationHandler) Extend(c *gin.Context) {
	var req dto.ExtendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid extension request"))
		return
	}

	result, err := h.reservations.Extend(c.Request.Context(), c.Param("token"), req.AdditionalMinutes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Cancel godoc
// @Summary Cancel a reservation and release its holds
// @Tags Reservations
// @Produce json
// @Param token path string true "Session token"
// @Success 200 {object} response.Envelope
// @Router /reservations/{token} [delete]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	result, err := h.reservations.Cancel(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Check godoc
// @Summary Probe whether a tutor's slot is free at a given time
// @Tags Reservations
// @Produce json
// @Param teacherId query string true "Teacher ID"
// @Param dateTime query string true "Slot start (RFC 3339)"
// @Success 200 {object} response.Envelope
// @Router /reservations/check [get]
func (h *ReservationHandler) Check(c *gin.Context) {
	teacherID := c.Query("teacherId")
	if teacherID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "teacherId is required"))
		return
	}
	at, err := time.Parse(time.RFC3339, c.Query("dateTime"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "dateTime must be RFC 3339"))
		return
	}

	result, err := h.reservations.CheckAvailability(c.Request.Context(), teacherID, at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Consume godoc
// @Summary Finalize a reservation into confirmed bookings
// @Tags Reservations
// @Accept json
// @Produce json
// @Param token path string true "Session token"
// @Param payload body dto.ConsumeRequest true "Order reference"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /reservations/{token}/consume [post]
func (h *ReservationHandler) Consume(c *gin.Context) {
	var req dto.ConsumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid consume request"))
		return
	}

	result, err := h.reservations.Consume(c.Request.Context(), c.Param("token"), req.OrderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	meta := h.quoteMeta(c, result)
	response.JSON(c, http.StatusOK, result, nil, meta)
}

// quoteMeta fetches a best-effort price quote for the consumed
// bookings. Pricing failures never block finalization.
func (h *ReservationHandler) quoteMeta(c *gin.Context, result *dto.ConsumeResponse) map[string]interface{} {
	if h.pricing == nil || !result.Success {
		return nil
	}
	quote, err := h.pricing.QuoteSessions(c.Request.Context(), demandFromBookings(result.Bookings))
	if err != nil {
		h.logger.Warn("price quote unavailable for consumed reservation", zap.Error(err))
		return nil
	}
	return map[string]interface{}{"quote": quote}
}

// demandFromBookings aggregates confirmed bookings into per-subject
// session counts for quoting.
func demandFromBookings(bookings []models.Booking) []models.DemandItem {
	bySubject := make(map[string]*models.DemandItem)
	order := make([]string, 0, len(bookings))
	for _, booking := range bookings {
		item, ok := bySubject[booking.SubjectID]
		if !ok {
			item = &models.DemandItem{
				StudentID:    booking.StudentID,
				SubjectID:    booking.SubjectID,
				TeachingType: models.SessionOneToOne,
			}
			bySubject[booking.SubjectID] = item
			order = append(order, booking.SubjectID)
		}
		item.RequestedSessions++
		item.Hours++
	}
	items := make([]models.DemandItem, 0, len(order))
	for _, subjectID := range order {
		items = append(items, *bySubject[subjectID])
	}
	return items
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/citopen/hours-api/internal/dto"
	"github.com/citopen/hours-api/internal/service"
	appErrors "github.com/citopen/hours-api/pkg/errors"
	"github.com/citopen/hours-api/pkg/response"
)

// PeriodHandler exposes date period endpoints nested under resources.
type PeriodHandler struct {
	periods *service.PeriodService
}

// NewPeriodHandler constructs PeriodHandler.
func NewPeriodHandler(periods *service.PeriodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

// List godoc
// @Summary List date periods of a resource
// @Tags DatePeriods
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /resources/{id}/date-periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	periods, err := h.periods.ListByResource(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, periods)
}

// Get godoc
// @Summary Get date period detail
// @Tags DatePeriods
// @Produce json
// @Param id path string true "Resource ID"
// @Param periodId path string true "Date period ID"
// @Success 200 {object} response.Envelope
// @Router /resources/{id}/date-periods/{periodId} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.periods.Get(c.Request.Context(), c.Param("id"), c.Param("periodId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, period)
}

// Create godoc
// @Summary Create date period with nested groups
// @Tags DatePeriods
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Param payload body dto.CreateDatePeriodRequest true "Date period payload"
// @Success 201 {object} response.Envelope
// @Router /resources/{id}/date-periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	var req dto.CreateDatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.periods.Create(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Update godoc
// @Summary Replace date period and its nested groups
// @Tags DatePeriods
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Param periodId path string true "Date period ID"
// @Param payload body dto.UpdateDatePeriodRequest true "Date period payload"
// @Success 200 {object} response.Envelope
// @Router /resources/{id}/date-periods/{periodId} [put]
func (h *PeriodHandler) Update(c *gin.Context) {
	var req dto.UpdateDatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.periods.Update(c.Request.Context(), c.Param("id"), c.Param("periodId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, period)
}

// Delete godoc
// @Summary Delete date period
// @Tags DatePeriods
// @Param id path string true "Resource ID"
// @Param periodId path string true "Date period ID"
// @Success 204
// @Router /resources/{id}/date-periods/{periodId} [delete]
func (h *PeriodHandler) Delete(c *gin.Context) {
	if err := h.periods.Delete(c.Request.Context(), c.Param("id"), c.Param("periodId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

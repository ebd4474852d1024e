package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/citopen/hours-api/internal/dto"
	"github.com/citopen/hours-api/internal/service"
	appErrors "github.com/citopen/hours-api/pkg/errors"
	"github.com/citopen/hours-api/pkg/response"
)

// OpeningHoursHandler exposes resolved opening hours endpoints.
type OpeningHoursHandler struct {
	openingHours *service.OpeningHoursService
}

// NewOpeningHoursHandler constructs OpeningHoursHandler.
func NewOpeningHoursHandler(openingHours *service.OpeningHoursService) *OpeningHoursHandler {
	return &OpeningHoursHandler{openingHours: openingHours}
}

// Resolve godoc
// @Summary Resolve opening hours for a date range
// @Tags OpeningHours
// @Produce json
// @Param id path string true "Resource ID"
// @Param start_date query string true "Range start (YYYY-MM-DD)"
// @Param end_date query string false "Range end (YYYY-MM-DD), defaults to start"
// @Success 200 {object} response.Envelope
// @Router /resources/{id}/opening-hours [get]
func (h *OpeningHoursHandler) Resolve(c *gin.Context) {
	req, err := rangeRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if req.StartDate == req.EndDate {
		date, parseErr := time.Parse("2006-01-02", req.StartDate)
		if parseErr != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD"))
			return
		}
		elements, resolveErr := h.openingHours.Resolve(c.Request.Context(), c.Param("id"), date)
		if resolveErr != nil {
			response.Error(c, resolveErr)
			return
		}
		response.OK(c, []dto.DailyOpeningHours{{Date: req.StartDate, Elements: elements}})
		return
	}

	days, err := h.openingHours.ResolveRange(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, days)
}

// Export godoc
// @Summary Export resolved opening hours
// @Tags OpeningHours
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Resource ID"
// @Param start_date query string true "Range start (YYYY-MM-DD)"
// @Param end_date query string false "Range end (YYYY-MM-DD), defaults to start"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /resources/{id}/opening-hours/export [get]
func (h *OpeningHoursHandler) Export(c *gin.Context) {
	req, err := rangeRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format := c.DefaultQuery("format", "csv")

	payload, contentType, err := h.openingHours.Export(c.Request.Context(), c.Param("id"), req, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if format == "pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("opening-hours-%s-%s.%s", req.StartDate, req.EndDate, ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

func rangeRequest(c *gin.Context) (dto.OpeningHoursRangeRequest, error) {
	req := dto.OpeningHoursRangeRequest{
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
	if req.StartDate == "" {
		return req, appErrors.Clone(appErrors.ErrValidation, "start_date is required")
	}
	if req.EndDate == "" {
		req.EndDate = req.StartDate
	}
	return req, nil
}

package dto

import "github.com/citopen/hours-api/internal/models"

// DailyOpeningHours is the resolved schedule of one calendar date.
type DailyOpeningHours struct {
	Date     string               `json:"date"`
	Elements []models.TimeElement `json:"elements"`
}

// OpeningHoursRangeRequest selects the dates to resolve.
type OpeningHoursRangeRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

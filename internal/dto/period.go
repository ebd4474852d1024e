package dto

// TimeSpanPayload is a span inside a nested period payload. Times are
// "HH:MM" or "HH:MM:SS" strings; both may be omitted for full-day spans.
// Weekdays are ISO numbers, Monday = 1; an empty list means every weekday.
type TimeSpanPayload struct {
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	FullDay       bool    `json:"full_day"`
	ResourceState string  `json:"resource_state" validate:"required"`
	Weekdays      []int   `json:"weekdays" validate:"dive,min=1,max=7"`
}

// RulePayload is a recurrence rule inside a nested period payload.
type RulePayload struct {
	Context string `json:"context" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Start   int    `json:"start" validate:"required"`
}

// TimeSpanGroupPayload groups spans and rules inside a period payload.
type TimeSpanGroupPayload struct {
	TimeSpans []TimeSpanPayload `json:"time_spans" validate:"dive"`
	Rules     []RulePayload     `json:"rules" validate:"dive"`
}

// CreateDatePeriodRequest describes the nested create payload for a period.
// Dates are "YYYY-MM-DD"; a missing end date makes the period open-ended.
type CreateDatePeriodRequest struct {
	Name           string                 `json:"name" validate:"required"`
	Description    string                 `json:"description"`
	StartDate      string                 `json:"start_date" validate:"required"`
	EndDate        *string                `json:"end_date"`
	ResourceState  string                 `json:"resource_state"`
	Override       bool                   `json:"override"`
	TimeSpanGroups []TimeSpanGroupPayload `json:"time_span_groups" validate:"dive"`
}

// UpdateDatePeriodRequest replaces a period and its nested groups wholesale.
type UpdateDatePeriodRequest struct {
	Name           string                 `json:"name" validate:"required"`
	Description    string                 `json:"description"`
	StartDate      string                 `json:"start_date" validate:"required"`
	EndDate        *string                `json:"end_date"`
	ResourceState  string                 `json:"resource_state"`
	Override       bool                   `json:"override"`
	TimeSpanGroups []TimeSpanGroupPayload `json:"time_span_groups" validate:"dive"`
}

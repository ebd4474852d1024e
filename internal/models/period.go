package models

import "time"

// Resource is an entity with opening hours. Identity is an opaque external
// key; the engine only cares about the periods attached to it.
type Resource struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Timezone  string    `db:"timezone" json:"timezone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ResourceFilter describes query params for listing resources.
type ResourceFilter struct {
	Name     string
	Page     int
	PageSize int
}

// DatePeriod is a date range attached to a resource. EndDate may be nil for
// an open-ended period. An overriding period fully supersedes non-overriding
// periods for the dates it covers.
type DatePeriod struct {
	ID             string          `db:"id" json:"id"`
	ResourceID     string          `db:"resource_id" json:"resource_id"`
	Name           string          `db:"name" json:"name"`
	Description    string          `db:"description" json:"description"`
	StartDate      time.Time       `db:"start_date" json:"start_date"`
	EndDate        *time.Time      `db:"end_date" json:"end_date,omitempty"`
	ResourceState  State           `db:"resource_state" json:"resource_state"`
	Override       bool            `db:"override" json:"override"`
	TimeSpanGroups []TimeSpanGroup `json:"time_span_groups"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// TimeSpanGroup groups spans and the rules that gate them. All spans in the
// group apply when any rule matches, or unconditionally with no rules.
type TimeSpanGroup struct {
	ID        string     `db:"id" json:"id"`
	PeriodID  string     `db:"period_id" json:"period_id"`
	TimeSpans []TimeSpan `json:"time_spans"`
	Rules     []Rule     `json:"rules"`
}

// TimeSpan is a time-of-day interval with a state, scoped to weekdays. A nil
// start or end with FullDay set means the span covers the entire day.
// EndTimeOnNextDay marks intervals crossing midnight (end <= start).
type TimeSpan struct {
	ID               string     `db:"id" json:"id"`
	GroupID          string     `db:"group_id" json:"group_id"`
	StartTime        *TimeOfDay `db:"start_time" json:"start_time"`
	EndTime          *TimeOfDay `db:"end_time" json:"end_time"`
	FullDay          bool       `db:"full_day" json:"full_day"`
	EndTimeOnNextDay bool       `db:"end_time_on_next_day" json:"end_time_on_next_day"`
	ResourceState    State      `db:"resource_state" json:"resource_state"`
	Weekdays         Weekdays   `json:"weekdays"`
}

// Contains reports whether the period's date range covers the given date.
// Comparison is by calendar date; an open-ended period has no upper bound.
func (p DatePeriod) Contains(date time.Time) bool {
	day := DateOnly(date)
	if day.Before(DateOnly(p.StartDate)) {
		return false
	}
	if p.EndDate != nil && day.After(DateOnly(*p.EndDate)) {
		return false
	}
	return true
}

// Validate checks the period and everything it owns for data-validity
// problems. Errors reflect upstream data and are surfaced, never repaired.
func (p DatePeriod) Validate() error {
	if p.EndDate != nil && DateOnly(*p.EndDate).Before(DateOnly(p.StartDate)) {
		return ErrInvalidPeriodRange
	}
	for _, group := range p.TimeSpanGroups {
		for _, rule := range group.Rules {
			if err := rule.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// DateOnly truncates a timestamp to midnight UTC so that period containment
// and recurrence arithmetic compare calendar dates regardless of clock time.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

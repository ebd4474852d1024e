package models

import "errors"

// Data-validity errors surfaced by the resolution engine. They reflect
// malformed upstream records and are never repaired silently.
var (
	ErrInvalidPeriodRange = errors.New("date period end date is before its start date")
	ErrInvalidRuleOrdinal = errors.New("rule ordinal is zero or the context/subject combination is undefined")
	ErrAmbiguousOverlap   = errors.New("overlapping time elements with differing states")
)

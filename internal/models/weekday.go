package models

import "time"

// Weekday is an ISO 8601 weekday number, Monday = 1 through Sunday = 7.
type Weekday int

const (
	Monday    Weekday = 1
	Tuesday   Weekday = 2
	Wednesday Weekday = 3
	Thursday  Weekday = 4
	Friday    Weekday = 5
	Saturday  Weekday = 6
	Sunday    Weekday = 7
)

// WeekdayOf converts a calendar date to its ISO weekday.
func WeekdayOf(t time.Time) Weekday {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return Weekday(wd)
}

// Valid reports whether the weekday is within 1..7.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	names := [...]string{"mon", "tue", "wed", "thu", "fri", "sat", "sun"}
	if !w.Valid() {
		return "invalid"
	}
	return names[w-1]
}

// BusinessDays returns Monday through Friday.
func BusinessDays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday}
}

// WeekendDays returns Saturday and Sunday.
func WeekendDays() []Weekday {
	return []Weekday{Saturday, Sunday}
}

// Weekdays is a set of applicable weekdays. An empty set means every weekday.
type Weekdays []Weekday

// Contains reports whether the set applies to the given weekday. The empty
// set applies to all weekdays.
func (ws Weekdays) Contains(w Weekday) bool {
	if len(ws) == 0 {
		return true
	}
	for _, candidate := range ws {
		if candidate == w {
			return true
		}
	}
	return false
}

// Valid reports whether every member is a known weekday.
func (ws Weekdays) Valid() bool {
	for _, w := range ws {
		if !w.Valid() {
			return false
		}
	}
	return true
}

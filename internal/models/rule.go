package models

import "time"

// RuleContext is the recurrence frame ordinals are counted in.
type RuleContext string

const (
	RuleContextPeriod RuleContext = "period"
	RuleContextYear   RuleContext = "year"
	RuleContextMonth  RuleContext = "month"
)

// RuleSubject is the unit being counted within the frame.
type RuleSubject string

const (
	RuleSubjectDay   RuleSubject = "day"
	RuleSubjectWeek  RuleSubject = "week"
	RuleSubjectMonth RuleSubject = "month"
	RuleSubjectMon   RuleSubject = "mon"
	RuleSubjectTue   RuleSubject = "tue"
	RuleSubjectWed   RuleSubject = "wed"
	RuleSubjectThu   RuleSubject = "thu"
	RuleSubjectFri   RuleSubject = "fri"
	RuleSubjectSat   RuleSubject = "sat"
	RuleSubjectSun   RuleSubject = "sun"
)

var subjectWeekdays = map[RuleSubject]Weekday{
	RuleSubjectMon: Monday,
	RuleSubjectTue: Tuesday,
	RuleSubjectWed: Wednesday,
	RuleSubjectThu: Thursday,
	RuleSubjectFri: Friday,
	RuleSubjectSat: Saturday,
	RuleSubjectSun: Sunday,
}

// Weekday returns the weekday a specific-weekday subject refers to.
func (s RuleSubject) Weekday() (Weekday, bool) {
	wd, ok := subjectWeekdays[s]
	return wd, ok
}

// Rule is a recurrence filter gating a time-span group. Start is a signed
// ordinal selecting which occurrence of Subject inside Context applies;
// negative ordinals count from the end of the frame. Zero is invalid.
type Rule struct {
	ID      string      `db:"id" json:"id"`
	GroupID string      `db:"group_id" json:"group_id"`
	Context RuleContext `db:"context" json:"context"`
	Subject RuleSubject `db:"subject" json:"subject"`
	Start   int         `db:"start" json:"start"`
}

// Validate rejects ordinal zero and context/subject combinations with no
// defined meaning.
func (r Rule) Validate() error {
	if r.Start == 0 {
		return ErrInvalidRuleOrdinal
	}
	switch r.Context {
	case RuleContextPeriod, RuleContextYear, RuleContextMonth:
	default:
		return ErrInvalidRuleOrdinal
	}
	switch r.Subject {
	case RuleSubjectDay, RuleSubjectWeek:
	case RuleSubjectMonth:
		// Counting months inside a single month has no meaning.
		if r.Context == RuleContextMonth {
			return ErrInvalidRuleOrdinal
		}
	default:
		if _, ok := r.Subject.Weekday(); !ok {
			return ErrInvalidRuleOrdinal
		}
	}
	return nil
}

// Matches decides whether the rule fires on the candidate date within the
// owning period. Dates outside the period never match, and neither does a
// malformed rule.
func (r Rule) Matches(period DatePeriod, date time.Time) bool {
	if !period.Contains(date) {
		return false
	}
	if r.Validate() != nil {
		return false
	}

	day := DateOnly(date)
	frameStart, frameEnd := r.frame(period, day)

	switch {
	case r.Subject == RuleSubjectWeek:
		return r.matchesWeek(frameStart, frameEnd, day)
	case r.Subject == RuleSubjectDay:
		return r.matchesNth(frameStart, frameEnd, day, 1)
	case r.Subject == RuleSubjectMonth:
		return r.matchesMonth(frameStart, frameEnd, day)
	default:
		return r.matchesWeekday(frameStart, frameEnd, day)
	}
}

// frame returns the start and optional end of the counting frame. Only a
// period frame can be open-ended.
func (r Rule) frame(period DatePeriod, day time.Time) (time.Time, *time.Time) {
	switch r.Context {
	case RuleContextYear:
		start := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(day.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
		return start, &end
	case RuleContextMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		return start, &end
	default:
		start := DateOnly(period.StartDate)
		if period.EndDate == nil {
			return start, nil
		}
		end := DateOnly(*period.EndDate)
		return start, &end
	}
}

// matchesWeek treats a positive ordinal N as "every Nth week" of the frame:
// the week index (counted from the week containing the frame start, weeks
// beginning Monday) must be divisible by N. With N=1 every week matches; in
// short frames a larger N effectively selects a single week. Negative
// ordinals count week buckets back from the frame end.
func (r Rule) matchesWeek(frameStart time.Time, frameEnd *time.Time, day time.Time) bool {
	if r.Start > 0 {
		index := weeksBetween(startOfWeek(frameStart), startOfWeek(day)) + 1
		return index > 0 && index%r.Start == 0
	}
	if frameEnd == nil {
		return false
	}
	back := weeksBetween(startOfWeek(day), startOfWeek(*frameEnd)) + 1
	return back > 0 && back%(-r.Start) == 0
}

// matchesNth matches the exact Nth occurrence of a unit of the given length
// in days. Negative ordinals require a bounded frame.
func (r Rule) matchesNth(frameStart time.Time, frameEnd *time.Time, day time.Time, unitDays int) bool {
	if r.Start > 0 {
		index := daysBetween(frameStart, day)/unitDays + 1
		return index == r.Start
	}
	if frameEnd == nil {
		return false
	}
	back := daysBetween(day, *frameEnd)/unitDays + 1
	return back == -r.Start
}

func (r Rule) matchesMonth(frameStart time.Time, frameEnd *time.Time, day time.Time) bool {
	if r.Start > 0 {
		index := monthsBetween(frameStart, day) + 1
		return index == r.Start
	}
	if frameEnd == nil {
		return false
	}
	back := monthsBetween(day, *frameEnd) + 1
	return back == -r.Start
}

// matchesWeekday matches the Nth occurrence of a specific weekday inside the
// frame, -1 being the last occurrence.
func (r Rule) matchesWeekday(frameStart time.Time, frameEnd *time.Time, day time.Time) bool {
	want, _ := r.Subject.Weekday()
	if WeekdayOf(day) != want {
		return false
	}
	if r.Start > 0 {
		offset := (int(want) - int(WeekdayOf(frameStart)) + 7) % 7
		first := frameStart.AddDate(0, 0, offset)
		if day.Before(first) {
			return false
		}
		return daysBetween(first, day)/7+1 == r.Start
	}
	if frameEnd == nil {
		return false
	}
	offset := (int(WeekdayOf(*frameEnd)) - int(want) + 7) % 7
	last := frameEnd.AddDate(0, 0, -offset)
	if day.After(last) {
		return false
	}
	return daysBetween(day, last)/7+1 == -r.Start
}

// startOfWeek returns the Monday of the week containing the date.
func startOfWeek(day time.Time) time.Time {
	return day.AddDate(0, 0, -(int(WeekdayOf(day)) - 1))
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func weeksBetween(a, b time.Time) int {
	return daysBetween(a, b) / 7
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

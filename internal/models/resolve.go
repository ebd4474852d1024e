package models

import (
	"sort"
	"time"
)

// ResolveDate computes the authoritative opening hours of a single date from
// a resource's full set of date periods. It is a pure function over the
// snapshot it is given: the input is never mutated and concurrent calls need
// no coordination. An empty result means the resource has no declared
// schedule for the date; the caller decides the default.
func ResolveDate(periods []DatePeriod, date time.Time) ([]TimeElement, error) {
	return ResolveDateWithPolicy(periods, date, RetainBoth)
}

// ResolveDateWithPolicy is ResolveDate with an explicit policy for
// overlapping same-precedence elements with differing states.
func ResolveDateWithPolicy(periods []DatePeriod, date time.Time, policy OverlapPolicy) ([]TimeElement, error) {
	for _, period := range periods {
		if err := period.Validate(); err != nil {
			return nil, err
		}
	}

	applicable := selectApplicable(periods, date)
	if len(applicable) == 0 {
		return []TimeElement{}, nil
	}

	day := DateOnly(date)
	weekday := WeekdayOf(day)

	var elements []TimeElement
	for _, period := range applicable {
		elements = append(elements, materialize(period, day, weekday)...)
	}

	return CombineWithPolicy(elements, policy)
}

// selectApplicable picks the periods covering the date. An overriding period
// entirely supersedes non-overriding periods for that date, mirroring the
// element-level precedence rule. Remaining periods are ordered override
// first, then start date descending, so the most recently started period
// contributes ahead of older ones.
func selectApplicable(periods []DatePeriod, date time.Time) []DatePeriod {
	var applicable []DatePeriod
	anyOverride := false
	for _, period := range periods {
		if !period.Contains(date) {
			continue
		}
		applicable = append(applicable, period)
		if period.Override {
			anyOverride = true
		}
	}

	if anyOverride {
		kept := applicable[:0]
		for _, period := range applicable {
			if period.Override {
				kept = append(kept, period)
			}
		}
		applicable = kept
	}

	sort.SliceStable(applicable, func(i, j int) bool {
		if applicable[i].Override != applicable[j].Override {
			return applicable[i].Override
		}
		return applicable[i].StartDate.After(applicable[j].StartDate)
	})
	return applicable
}

// materialize expands a period's groups into candidate elements for the
// date. A group contributes its spans when it has no rules or at least one
// rule matches. A period with no groups and a concrete state contributes a
// full-day element carrying the period's default state.
func materialize(period DatePeriod, day time.Time, weekday Weekday) []TimeElement {
	if len(period.TimeSpanGroups) == 0 {
		if period.ResourceState == StateUndefined || period.ResourceState == "" {
			return nil
		}
		return []TimeElement{{
			ResourceState: period.ResourceState,
			Override:      period.Override,
			FullDay:       true,
		}}
	}

	var elements []TimeElement
	for _, group := range period.TimeSpanGroups {
		if !groupApplies(group, period, day) {
			continue
		}
		for _, span := range group.TimeSpans {
			if !span.Weekdays.Contains(weekday) {
				continue
			}
			elements = append(elements, TimeElement{
				StartTime:        span.StartTime,
				EndTime:          span.EndTime,
				ResourceState:    span.ResourceState,
				Override:         period.Override,
				FullDay:          span.FullDay,
				EndTimeOnNextDay: span.EndTimeOnNextDay,
			})
		}
	}
	return elements
}

func groupApplies(group TimeSpanGroup, period DatePeriod, day time.Time) bool {
	if len(group.Rules) == 0 {
		return true
	}
	for _, rule := range group.Rules {
		if rule.Matches(period, day) {
			return true
		}
	}
	return false
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func yearPeriod2020() DatePeriod {
	end := date(2020, time.December, 31)
	return DatePeriod{
		ID:        "period-1",
		StartDate: date(2020, time.January, 1),
		EndDate:   &end,
	}
}

func TestRuleEveryWeekOfPeriod(t *testing.T) {
	period := yearPeriod2020()
	rule := Rule{Context: RuleContextPeriod, Subject: RuleSubjectWeek, Start: 1}

	assert.True(t, rule.Matches(period, date(2020, time.January, 1)))
	assert.True(t, rule.Matches(period, date(2020, time.June, 15)))
	assert.True(t, rule.Matches(period, date(2020, time.December, 31)))
}

func TestRuleEverySecondWeekOfPeriod(t *testing.T) {
	period := yearPeriod2020()
	rule := Rule{Context: RuleContextPeriod, Subject: RuleSubjectWeek, Start: 2}

	// The period starts mid-week; week 1 runs through Sunday 2020-01-05.
	assert.False(t, rule.Matches(period, date(2020, time.January, 1)))
	assert.True(t, rule.Matches(period, date(2020, time.January, 8)))
	assert.False(t, rule.Matches(period, date(2020, time.January, 15)))
	assert.True(t, rule.Matches(period, date(2020, time.January, 20)))
}

func TestRuleWeeksCountedFromPeriodEnd(t *testing.T) {
	period := yearPeriod2020()
	rule := Rule{Context: RuleContextPeriod, Subject: RuleSubjectWeek, Start: -2}

	// The final week bucket contains 2020-12-28..31; the one before it
	// starts on 2020-12-21.
	assert.True(t, rule.Matches(period, date(2020, time.December, 23)))
	assert.False(t, rule.Matches(period, date(2020, time.December, 29)))
}

func TestRuleFirstDayOfPeriod(t *testing.T) {
	period := yearPeriod2020()
	rule := Rule{Context: RuleContextPeriod, Subject: RuleSubjectDay, Start: 1}

	assert.True(t, rule.Matches(period, date(2020, time.January, 1)))
	assert.False(t, rule.Matches(period, date(2020, time.January, 2)))
}

func TestRuleFirstDayOfMonth(t *testing.T) {
	period := yearPeriod2020()
	rule := Rule{Context: RuleContextMonth, Subject: RuleSubjectDay, Start: 1}

	assert.True(t, rule.Matches(period, date(2020, time.February, 1)))
	assert.True(t, rule.Matches(period, date(2020, time.September, 1)))
	assert.False(t, rule.Matches(period, date(2020, time.February, 2)))
}

func TestRuleLastDayOfYear(t *testing.T) {
	period := yearPeriod2020()
	rule := Rule{Context: RuleContextYear, Subject: RuleSubjectDay, Start: -1}

	assert.True(t, rule.Matches(period, date(2020, time.December, 31)))
	assert.False(t, rule.Matches(period, date(2020, time.December, 30)))
}

func TestRuleLastMondayOfMonth(t *testing.T) {
	period := yearPeriod2020()
	rule := Rule{Context: RuleContextMonth, Subject: RuleSubjectMon, Start: -1}

	assert.True(t, rule.Matches(period, date(2020, time.January, 27)))
	assert.False(t, rule.Matches(period, date(2020, time.January, 20)))
	assert.False(t, rule.Matches(period, date(2020, time.January, 28)))
}

func TestRuleSecondFridayOfPeriod(t *testing.T) {
	period := yearPeriod2020()
	rule := Rule{Context: RuleContextPeriod, Subject: RuleSubjectFri, Start: 2}

	assert.False(t, rule.Matches(period, date(2020, time.January, 3)))
	assert.True(t, rule.Matches(period, date(2020, time.January, 10)))
	assert.False(t, rule.Matches(period, date(2020, time.January, 17)))
}

func TestRuleNthMonthOfYear(t *testing.T) {
	period := yearPeriod2020()
	second := Rule{Context: RuleContextYear, Subject: RuleSubjectMonth, Start: 2}
	last := Rule{Context: RuleContextYear, Subject: RuleSubjectMonth, Start: -1}

	assert.True(t, second.Matches(period, date(2020, time.February, 15)))
	assert.False(t, second.Matches(period, date(2020, time.March, 1)))
	assert.True(t, last.Matches(period, date(2020, time.December, 10)))
	assert.False(t, last.Matches(period, date(2020, time.November, 30)))
}

func TestRuleNeverMatchesOutsidePeriod(t *testing.T) {
	period := yearPeriod2020()
	rule := Rule{Context: RuleContextPeriod, Subject: RuleSubjectWeek, Start: 1}

	assert.False(t, rule.Matches(period, date(2021, time.January, 1)))
	assert.False(t, rule.Matches(period, date(2019, time.December, 31)))
}

func TestRuleOpenEndedPeriod(t *testing.T) {
	period := DatePeriod{ID: "period-open", StartDate: date(2020, time.January, 1)}
	forward := Rule{Context: RuleContextPeriod, Subject: RuleSubjectDay, Start: 1}
	backward := Rule{Context: RuleContextPeriod, Subject: RuleSubjectDay, Start: -1}

	assert.True(t, forward.Matches(period, date(2020, time.January, 1)))
	// Negative ordinals cannot be counted without a period end.
	assert.False(t, backward.Matches(period, date(2022, time.March, 5)))
}

func TestRuleZeroOrdinalNeverMatches(t *testing.T) {
	period := yearPeriod2020()
	rule := Rule{Context: RuleContextPeriod, Subject: RuleSubjectWeek, Start: 0}

	require.ErrorIs(t, rule.Validate(), ErrInvalidRuleOrdinal)
	assert.False(t, rule.Matches(period, date(2020, time.June, 1)))
}

func TestRuleValidateRejectsUndefinedCombinations(t *testing.T) {
	cases := map[string]Rule{
		"month inside month": {Context: RuleContextMonth, Subject: RuleSubjectMonth, Start: 1},
		"unknown context":    {Context: RuleContext("fortnight"), Subject: RuleSubjectDay, Start: 1},
		"unknown subject":    {Context: RuleContextPeriod, Subject: RuleSubject("hour"), Start: 1},
	}

	for name, rule := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, rule.Validate(), ErrInvalidRuleOrdinal)
			assert.False(t, rule.Matches(yearPeriod2020(), date(2020, time.June, 1)))
		})
	}
}

func TestRuleValidateAcceptsKnownCombinations(t *testing.T) {
	cases := []Rule{
		{Context: RuleContextPeriod, Subject: RuleSubjectWeek, Start: 1},
		{Context: RuleContextYear, Subject: RuleSubjectMonth, Start: -1},
		{Context: RuleContextMonth, Subject: RuleSubjectSun, Start: 2},
		{Context: RuleContextPeriod, Subject: RuleSubjectDay, Start: -10},
	}

	for _, rule := range cases {
		assert.NoError(t, rule.Validate(), "rule %+v", rule)
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citopen/hours-api/internal/dto"
	"github.com/citopen/hours-api/internal/models"
	appErrors "github.com/citopen/hours-api/pkg/errors"
)

func strPtr(s string) *string {
	return &s
}

func newPeriodFixture(periods ...models.DatePeriod) (*PeriodService, *periodStoreStub, *cacheStub) {
	store := &periodStoreStub{periods: map[string][]models.DatePeriod{"res-1": periods}}
	resources := &resourceReaderStub{resources: map[string]*models.Resource{
		"res-1": {ID: "res-1", Name: "Main library", Timezone: "UTC"},
	}}
	cache := &cacheStub{}
	svc := NewPeriodService(store, resources, cache, nil, nil, nil)
	return svc, store, cache
}

func TestCreatePeriodWithNestedGroups(t *testing.T) {
	svc, store, cache := newPeriodFixture()

	created, err := svc.Create(context.Background(), "res-1", dto.CreateDatePeriodRequest{
		Name:      "Winter schedule",
		StartDate: "2020-11-01",
		EndDate:   strPtr("2021-02-28"),
		TimeSpanGroups: []dto.TimeSpanGroupPayload{
			{
				TimeSpans: []dto.TimeSpanPayload{
					{
						StartTime:     strPtr("10:00"),
						EndTime:       strPtr("18:00"),
						ResourceState: "open",
						Weekdays:      []int{1, 2, 3, 4, 5},
					},
				},
				Rules: []dto.RulePayload{
					{Context: "month", Subject: "day", Start: 1},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, created, store.created[0])

	assert.Equal(t, "res-1", created.ResourceID)
	assert.Equal(t, models.StateUndefined, created.ResourceState)
	assert.Equal(t, time.Date(2020, time.November, 1, 0, 0, 0, 0, time.UTC), created.StartDate)
	require.NotNil(t, created.EndDate)
	assert.Equal(t, time.Date(2021, time.February, 28, 0, 0, 0, 0, time.UTC), *created.EndDate)

	require.Len(t, created.TimeSpanGroups, 1)
	group := created.TimeSpanGroups[0]
	require.Len(t, group.TimeSpans, 1)
	span := group.TimeSpans[0]
	assert.Equal(t, models.NewTimeOfDay(10, 0), *span.StartTime)
	assert.Equal(t, models.NewTimeOfDay(18, 0), *span.EndTime)
	assert.False(t, span.EndTimeOnNextDay)
	assert.Equal(t, models.Weekdays(models.BusinessDays()), span.Weekdays)
	require.Len(t, group.Rules, 1)
	assert.Equal(t, models.RuleContextMonth, group.Rules[0].Context)

	require.Len(t, cache.deletedPatterns, 1)
	assert.Equal(t, "opening_hours:res-1:*", cache.deletedPatterns[0])
}

func TestCreatePeriodDerivesNextDayEnd(t *testing.T) {
	svc, store, _ := newPeriodFixture()

	_, err := svc.Create(context.Background(), "res-1", dto.CreateDatePeriodRequest{
		Name:      "Night shift",
		StartDate: "2020-01-01",
		TimeSpanGroups: []dto.TimeSpanGroupPayload{
			{
				TimeSpans: []dto.TimeSpanPayload{
					{StartTime: strPtr("22:00"), EndTime: strPtr("02:00"), ResourceState: "open"},
				},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	span := store.created[0].TimeSpanGroups[0].TimeSpans[0]
	assert.True(t, span.EndTimeOnNextDay)
}

func TestCreatePeriodRejectsUnknownState(t *testing.T) {
	svc, store, _ := newPeriodFixture()

	_, err := svc.Create(context.Background(), "res-1", dto.CreateDatePeriodRequest{
		Name:      "Broken",
		StartDate: "2020-01-01",
		TimeSpanGroups: []dto.TimeSpanGroupPayload{
			{
				TimeSpans: []dto.TimeSpanPayload{
					{StartTime: strPtr("10:00"), EndTime: strPtr("12:00"), ResourceState: "ajar"},
				},
			},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.created)
}

func TestCreatePeriodRejectsInvertedRange(t *testing.T) {
	svc, _, _ := newPeriodFixture()

	_, err := svc.Create(context.Background(), "res-1", dto.CreateDatePeriodRequest{
		Name:      "Backwards",
		StartDate: "2020-06-01",
		EndDate:   strPtr("2020-01-01"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidPeriodRange.Code, appErrors.FromError(err).Code)
}

func TestCreatePeriodRejectsMonthInMonthRule(t *testing.T) {
	svc, _, _ := newPeriodFixture()

	_, err := svc.Create(context.Background(), "res-1", dto.CreateDatePeriodRequest{
		Name:      "Bad rule",
		StartDate: "2020-01-01",
		TimeSpanGroups: []dto.TimeSpanGroupPayload{
			{
				TimeSpans: []dto.TimeSpanPayload{
					{StartTime: strPtr("10:00"), EndTime: strPtr("12:00"), ResourceState: "open"},
				},
				Rules: []dto.RulePayload{
					{Context: "month", Subject: "month", Start: 1},
				},
			},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRuleOrdinal.Code, appErrors.FromError(err).Code)
}

func TestCreatePeriodRejectsEmptySpan(t *testing.T) {
	svc, _, _ := newPeriodFixture()

	_, err := svc.Create(context.Background(), "res-1", dto.CreateDatePeriodRequest{
		Name:      "No times",
		StartDate: "2020-01-01",
		TimeSpanGroups: []dto.TimeSpanGroupPayload{
			{
				TimeSpans: []dto.TimeSpanPayload{
					{ResourceState: "open"},
				},
			},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetPeriodScopedToResource(t *testing.T) {
	svc, _, _ := newPeriodFixture(businessHoursPeriod("res-1"))

	period, err := svc.Get(context.Background(), "res-1", "period-1")
	require.NoError(t, err)
	assert.Equal(t, "period-1", period.ID)

	_, err = svc.Get(context.Background(), "other-resource", "period-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdatePeriodKeepsID(t *testing.T) {
	svc, store, cache := newPeriodFixture(businessHoursPeriod("res-1"))

	updated, err := svc.Update(context.Background(), "res-1", "period-1", dto.UpdateDatePeriodRequest{
		Name:          "Closed for renovation",
		StartDate:     "2020-07-01",
		EndDate:       strPtr("2020-07-31"),
		ResourceState: "closed",
		Override:      true,
	})
	require.NoError(t, err)
	require.Len(t, store.updated, 1)
	assert.Equal(t, "period-1", updated.ID)
	assert.Equal(t, models.StateClosed, updated.ResourceState)
	assert.True(t, updated.Override)
	assert.Contains(t, cache.deletedPatterns, "opening_hours:res-1:*")
}

func TestDeletePeriodInvalidatesCache(t *testing.T) {
	svc, store, cache := newPeriodFixture(businessHoursPeriod("res-1"))

	require.NoError(t, svc.Delete(context.Background(), "res-1", "period-1"))
	assert.Equal(t, []string{"period-1"}, store.deleted)
	assert.Equal(t, []string{"opening_hours:res-1:*"}, cache.deletedPatterns)
}

func TestDeletePeriodUnknownResource(t *testing.T) {
	svc, store, _ := newPeriodFixture(businessHoursPeriod("res-1"))

	err := svc.Delete(context.Background(), "missing", "period-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.deleted)
}

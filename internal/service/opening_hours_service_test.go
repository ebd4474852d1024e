package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citopen/hours-api/internal/dto"
	"github.com/citopen/hours-api/internal/models"
	appErrors "github.com/citopen/hours-api/pkg/errors"
)

type periodStoreStub struct {
	periods   map[string][]models.DatePeriod
	listCalls int
	listErr   error
	created   []*models.DatePeriod
	updated   []*models.DatePeriod
	deleted   []string
}

func (s *periodStoreStub) ListByResource(_ context.Context, resourceID string) ([]models.DatePeriod, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.periods[resourceID], nil
}

func (s *periodStoreStub) GetByID(_ context.Context, id string) (*models.DatePeriod, error) {
	for _, periods := range s.periods {
		for i := range periods {
			if periods[i].ID == id {
				period := periods[i]
				return &period, nil
			}
		}
	}
	return nil, sql.ErrNoRows
}

func (s *periodStoreStub) Create(_ context.Context, period *models.DatePeriod) error {
	s.created = append(s.created, period)
	return nil
}

func (s *periodStoreStub) Update(_ context.Context, period *models.DatePeriod) error {
	s.updated = append(s.updated, period)
	return nil
}

func (s *periodStoreStub) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type resourceReaderStub struct {
	resources map[string]*models.Resource
}

func (s *resourceReaderStub) GetByID(_ context.Context, id string) (*models.Resource, error) {
	resource, ok := s.resources[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return resource, nil
}

type cacheStub struct {
	store           map[string][]byte
	deletedPatterns []string
}

func (s *cacheStub) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *cacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *cacheStub) DeleteByPattern(_ context.Context, pattern string) error {
	s.deletedPatterns = append(s.deletedPatterns, pattern)
	return nil
}

func businessHoursPeriod(resourceID string) models.DatePeriod {
	start := models.TimeOfDay(8 * 3600)
	end := models.TimeOfDay(16 * 3600)
	return models.DatePeriod{
		ID:         "period-1",
		ResourceID: resourceID,
		Name:       "Regular hours",
		StartDate:  time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    timePtr(time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC)),
		TimeSpanGroups: []models.TimeSpanGroup{
			{
				TimeSpans: []models.TimeSpan{
					{
						StartTime:     &start,
						EndTime:       &end,
						ResourceState: models.StateOpen,
						Weekdays:      models.Weekdays(models.BusinessDays()),
					},
				},
			},
		},
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func newOpeningHoursFixture(periods ...models.DatePeriod) (*OpeningHoursService, *periodStoreStub, *cacheStub) {
	store := &periodStoreStub{periods: map[string][]models.DatePeriod{"res-1": periods}}
	resources := &resourceReaderStub{resources: map[string]*models.Resource{
		"res-1": {ID: "res-1", Name: "Main library", Timezone: "UTC"},
	}}
	cache := &cacheStub{}
	svc := NewOpeningHoursService(store, resources, cache, nil, nil, nil, OpeningHoursOptions{
		CacheEnabled: true,
		CacheTTL:     time.Minute,
		MaxRangeDays: 31,
	})
	return svc, store, cache
}

func TestResolveBusinessDay(t *testing.T) {
	svc, _, _ := newOpeningHoursFixture(businessHoursPeriod("res-1"))

	elements, err := svc.Resolve(context.Background(), "res-1", time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, models.StateOpen, elements[0].ResourceState)
	assert.Equal(t, models.TimeOfDay(8*3600), *elements[0].StartTime)
	assert.Equal(t, models.TimeOfDay(16*3600), *elements[0].EndTime)
}

func TestResolveUnknownResource(t *testing.T) {
	svc, _, _ := newOpeningHoursFixture()

	_, err := svc.Resolve(context.Background(), "missing", time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestResolveServesCachedResult(t *testing.T) {
	svc, store, _ := newOpeningHoursFixture(businessHoursPeriod("res-1"))
	date := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)

	first, err := svc.Resolve(context.Background(), "res-1", date)
	require.NoError(t, err)
	require.Equal(t, 1, store.listCalls)

	second, err := svc.Resolve(context.Background(), "res-1", date)
	require.NoError(t, err)
	assert.Equal(t, 1, store.listCalls, "second call must be served from cache")
	assert.Equal(t, first, second)
}

func TestResolveRange(t *testing.T) {
	svc, store, _ := newOpeningHoursFixture(businessHoursPeriod("res-1"))

	// 2020-06-01 is a Monday.
	days, err := svc.ResolveRange(context.Background(), "res-1", dto.OpeningHoursRangeRequest{
		StartDate: "2020-06-01",
		EndDate:   "2020-06-07",
	})
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.Equal(t, 1, store.listCalls, "snapshot must be loaded once for the range")

	assert.Equal(t, "2020-06-01", days[0].Date)
	assert.Len(t, days[0].Elements, 1)
	assert.Len(t, days[4].Elements, 1)
	assert.Empty(t, days[5].Elements, "Saturday has no declared hours")
	assert.Empty(t, days[6].Elements, "Sunday has no declared hours")
}

func TestResolveRangeRejectsInvertedRange(t *testing.T) {
	svc, _, _ := newOpeningHoursFixture(businessHoursPeriod("res-1"))

	_, err := svc.ResolveRange(context.Background(), "res-1", dto.OpeningHoursRangeRequest{
		StartDate: "2020-06-07",
		EndDate:   "2020-06-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveRangeRejectsOversizedRange(t *testing.T) {
	svc, _, _ := newOpeningHoursFixture(businessHoursPeriod("res-1"))

	_, err := svc.ResolveRange(context.Background(), "res-1", dto.OpeningHoursRangeRequest{
		StartDate: "2020-01-01",
		EndDate:   "2020-06-01",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestResolveSurfacesInvalidPeriodRange(t *testing.T) {
	broken := businessHoursPeriod("res-1")
	broken.EndDate = timePtr(time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC))
	svc, _, _ := newOpeningHoursFixture(broken)

	_, err := svc.Resolve(context.Background(), "res-1", time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidPeriodRange.Code, appErrors.FromError(err).Code)
}

func TestExportCSV(t *testing.T) {
	svc, _, _ := newOpeningHoursFixture(businessHoursPeriod("res-1"))

	payload, contentType, err := svc.Export(context.Background(), "res-1", dto.OpeningHoursRangeRequest{
		StartDate: "2020-06-01",
		EndDate:   "2020-06-05",
	}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "date,weekday,state")
	assert.Contains(t, string(payload), "2020-06-01,mon,open,08:00:00,16:00:00,no,no")
}

func TestExportPDF(t *testing.T) {
	svc, _, _ := newOpeningHoursFixture(businessHoursPeriod("res-1"))

	payload, contentType, err := svc.Export(context.Background(), "res-1", dto.OpeningHoursRangeRequest{
		StartDate: "2020-06-01",
		EndDate:   "2020-06-05",
	}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, len(payload) > 0)
}

func TestExportUnknownFormat(t *testing.T) {
	svc, _, _ := newOpeningHoursFixture(businessHoursPeriod("res-1"))

	_, _, err := svc.Export(context.Background(), "res-1", dto.OpeningHoursRangeRequest{
		StartDate: "2020-06-01",
		EndDate:   "2020-06-05",
	}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestOverlapPolicyFromString(t *testing.T) {
	assert.Equal(t, models.RetainBoth, OverlapPolicyFromString("retain_both"))
	assert.Equal(t, models.MergeLastWins, OverlapPolicyFromString("merge_last_wins"))
	assert.Equal(t, models.ErrorOnOverlap, OverlapPolicyFromString("error"))
	assert.Equal(t, models.RetainBoth, OverlapPolicyFromString("anything-else"))
}

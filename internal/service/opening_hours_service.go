package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/citopen/hours-api/internal/dto"
	"github.com/citopen/hours-api/internal/models"
	appErrors "github.com/citopen/hours-api/pkg/errors"
	"github.com/citopen/hours-api/pkg/export"
)

const dateLayout = "2006-01-02"

type periodReader interface {
	ListByResource(ctx context.Context, resourceID string) ([]models.DatePeriod, error)
}

type resourceReader interface {
	GetByID(ctx context.Context, id string) (*models.Resource, error)
}

type resolutionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// OpeningHoursOptions tunes resolution behaviour.
type OpeningHoursOptions struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	MaxRangeDays int
	Policy       models.OverlapPolicy
}

// OverlapPolicyFromString maps a configuration value to an engine policy.
// Unknown values fall back to the reference retain-both behaviour.
func OverlapPolicyFromString(raw string) models.OverlapPolicy {
	switch raw {
	case "merge_last_wins":
		return models.MergeLastWins
	case "error":
		return models.ErrorOnOverlap
	default:
		return models.RetainBoth
	}
}

// OpeningHoursService resolves the opening hours of resources. Resolution
// itself is a pure computation over the loaded snapshot; this service adds
// the snapshot read, caching and instrumentation around it.
type OpeningHoursService struct {
	periods   periodReader
	resources resourceReader
	cache     resolutionCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	opts      OpeningHoursOptions

	csv *export.CSVExporter
	pdf *export.PDFExporter
}

// NewOpeningHoursService constructs the service.
func NewOpeningHoursService(periods periodReader, resources resourceReader, cache resolutionCache, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, opts OpeningHoursOptions) *OpeningHoursService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = 366
	}
	return &OpeningHoursService{
		periods:   periods,
		resources: resources,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		opts:      opts,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
}

// Resolve returns the authoritative time elements of one date. Cached
// results are served when present; an empty slice is a valid result meaning
// the resource has no declared schedule for the date.
func (s *OpeningHoursService) Resolve(ctx context.Context, resourceID string, date time.Time) ([]models.TimeElement, error) {
	if err := s.ensureResource(ctx, resourceID); err != nil {
		return nil, err
	}

	key := cacheKey(resourceID, date)
	if s.opts.CacheEnabled && s.cache != nil {
		var cached []models.TimeElement
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.observeCache(true)
			return cached, nil
		}
		s.observeCache(false)
	}

	periods, err := s.periods.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load date periods")
	}

	started := time.Now()
	elements, err := models.ResolveDateWithPolicy(periods, date, s.opts.Policy)
	if err != nil {
		return nil, mapEngineError(err)
	}
	if s.metrics != nil {
		s.metrics.ObserveResolution(time.Since(started), 1)
	}

	if s.opts.CacheEnabled && s.cache != nil {
		if err := s.cache.Set(ctx, key, elements, s.opts.CacheTTL); err != nil {
			s.logger.Warn("failed to cache resolved opening hours", zap.String("key", key), zap.Error(err))
		}
	}

	return elements, nil
}

// ResolveRange resolves every date of an inclusive range. The snapshot is
// loaded once and reused across dates.
func (s *OpeningHoursService) ResolveRange(ctx context.Context, resourceID string, req dto.OpeningHoursRangeRequest) ([]dto.DailyOpeningHours, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date range")
	}
	start, end, err := s.parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.ensureResource(ctx, resourceID); err != nil {
		return nil, err
	}

	periods, err := s.periods.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load date periods")
	}

	started := time.Now()
	var days []dto.DailyOpeningHours
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		elements, err := models.ResolveDateWithPolicy(periods, date, s.opts.Policy)
		if err != nil {
			return nil, mapEngineError(err)
		}
		days = append(days, dto.DailyOpeningHours{
			Date:     date.Format(dateLayout),
			Elements: elements,
		})
	}
	if s.metrics != nil {
		s.metrics.ObserveResolution(time.Since(started), len(days))
	}

	return days, nil
}

// Export renders a resolved range as a downloadable report.
func (s *OpeningHoursService) Export(ctx context.Context, resourceID string, req dto.OpeningHoursRangeRequest, format string) ([]byte, string, error) {
	resource, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}

	days, err := s.ResolveRange(ctx, resourceID, req)
	if err != nil {
		return nil, "", err
	}

	report := export.ScheduleReport{
		ResourceName: resource.Name,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	for _, day := range days {
		date, _ := time.Parse(dateLayout, day.Date)
		for _, e := range day.Elements {
			row := export.ScheduleRow{
				Date:     day.Date,
				Weekday:  models.WeekdayOf(date).String(),
				State:    e.ResourceState.String(),
				FullDay:  e.FullDay,
				Override: e.Override,
			}
			if e.StartTime != nil {
				row.StartTime = e.StartTime.String()
			}
			if e.EndTime != nil {
				row.EndTime = e.EndTime.String()
			}
			report.Rows = append(report.Rows, row)
		}
	}

	switch format {
	case "pdf":
		payload, err := s.pdf.Render(report)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return payload, "application/pdf", nil
	case "", "csv":
		payload, err := s.csv.Render(report)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return payload, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *OpeningHoursService) ensureResource(ctx context.Context, resourceID string) error {
	if _, err := s.resources.GetByID(ctx, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	return nil
}

func (s *OpeningHoursService) parseRange(rawStart, rawEnd string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, rawStart)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, rawEnd)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be on or after start_date")
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > s.opts.MaxRangeDays {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("date range exceeds %d days", s.opts.MaxRangeDays))
	}
	return start, end, nil
}

func (s *OpeningHoursService) observeCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHit()
	} else {
		s.metrics.CacheMiss()
	}
}

func cacheKey(resourceID string, date time.Time) string {
	return fmt.Sprintf("opening_hours:%s:%s", resourceID, date.Format(dateLayout))
}

// mapEngineError converts engine sentinels into HTTP-aware errors.
func mapEngineError(err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidPeriodRange):
		return appErrors.Wrap(err, appErrors.ErrInvalidPeriodRange.Code, appErrors.ErrInvalidPeriodRange.Status, appErrors.ErrInvalidPeriodRange.Message)
	case errors.Is(err, models.ErrInvalidRuleOrdinal):
		return appErrors.Wrap(err, appErrors.ErrInvalidRuleOrdinal.Code, appErrors.ErrInvalidRuleOrdinal.Status, appErrors.ErrInvalidRuleOrdinal.Message)
	case errors.Is(err, models.ErrAmbiguousOverlap):
		return appErrors.Wrap(err, appErrors.ErrAmbiguousOverlap.Code, appErrors.ErrAmbiguousOverlap.Status, appErrors.ErrAmbiguousOverlap.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "resolution failed")
	}
}

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
)

type periodStore interface {
	ListByResource(ctx context.Context, resourceID string) ([]models.DatePeriod, error)
	GetByID(ctx context.Context, id string) (*models.DatePeriod, error)
	Create(ctx context.Context, period *models.DatePeriod) error
	Update(ctx context.Context, period *models.DatePeriod) error
	Delete(ctx context.Context, id string) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// PeriodService manages date periods and their nested groups, spans and
// rules. Writes invalidate every cached resolution of the owning resource.
type PeriodService struct {
	store     periodStore
	resources resourceReader
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeriodService constructs the service.
func NewPeriodService(store periodStore, resources resourceReader, cache cacheInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{
		store:     store,
		resources: resources,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// ListByResource returns the periods of a resource with nested children.
func (s *PeriodService) ListByResource(ctx context.Context, resourceID string) ([]models.DatePeriod, error) {
	if err := s.ensureResource(ctx, resourceID); err != nil {
		return nil, err
	}
	periods, err := s.store.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list date periods")
	}
	if periods == nil {
		periods = []models.DatePeriod{}
	}
	return periods, nil
}

// Get fetches one period of a resource.
func (s *PeriodService) Get(ctx context.Context, resourceID, periodID string) (*models.DatePeriod, error) {
	period, err := s.store.GetByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "date period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load date period")
	}
	if period.ResourceID != resourceID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "date period not found")
	}
	return period, nil
}

// Create stores a period with its nested groups.
func (s *PeriodService) Create(ctx context.Context, resourceID string, req dto.CreateDatePeriodRequest) (*models.DatePeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date period payload")
	}
	if err := s.ensureResource(ctx, resourceID); err != nil {
		return nil, err
	}

	period, err := buildPeriod(resourceID, req.Name, req.Description, req.StartDate, req.EndDate, req.ResourceState, req.Override, req.TimeSpanGroups)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create date period")
	}

	s.invalidate(ctx, resourceID)
	s.logger.Info("date period created",
		zap.String("resource_id", resourceID),
		zap.String("period_id", period.ID),
		zap.Bool("override", period.Override))
	return period, nil
}

// Update replaces a period and its nested groups wholesale.
func (s *PeriodService) Update(ctx context.Context, resourceID, periodID string, req dto.UpdateDatePeriodRequest) (*models.DatePeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date period payload")
	}
	if _, err := s.Get(ctx, resourceID, periodID); err != nil {
		return nil, err
	}

	period, err := buildPeriod(resourceID, req.Name, req.Description, req.StartDate, req.EndDate, req.ResourceState, req.Override, req.TimeSpanGroups)
	if err != nil {
		return nil, err
	}
	period.ID = periodID
	if err := s.store.Update(ctx, period); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "date period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update date period")
	}

	s.invalidate(ctx, resourceID)
	return period, nil
}

// Delete removes a period.
func (s *PeriodService) Delete(ctx context.Context, resourceID, periodID string) error {
	if _, err := s.Get(ctx, resourceID, periodID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, periodID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "date period not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete date period")
	}

	s.invalidate(ctx, resourceID)
	s.logger.Info("date period deleted", zap.String("resource_id", resourceID), zap.String("period_id", periodID))
	return nil
}

func (s *PeriodService) ensureResource(ctx context.Context, resourceID string) error {
	if _, err := s.resources.GetByID(ctx, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "resource not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resource")
	}
	return nil
}

// invalidate drops every cached resolution of the resource. Failures are
// logged and swallowed; stale entries expire via TTL anyway.
func (s *PeriodService) invalidate(ctx context.Context, resourceID string) {
	if s.cache == nil {
		return
	}
	pattern := fmt.Sprintf("opening_hours:%s:*", resourceID)
	if err := s.cache.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("failed to invalidate opening hours cache", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.CacheInvalidated()
	}
}

func buildPeriod(resourceID, name, description, rawStart string, rawEnd *string, rawState string, override bool, groups []dto.TimeSpanGroupPayload) (*models.DatePeriod, error) {
	startDate, err := time.Parse(dateLayout, rawStart)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}

	period := &models.DatePeriod{
		ResourceID:    resourceID,
		Name:          name,
		Description:   description,
		StartDate:     startDate,
		ResourceState: models.StateUndefined,
		Override:      override,
	}
	if rawEnd != nil && *rawEnd != "" {
		endDate, err := time.Parse(dateLayout, *rawEnd)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
		}
		period.EndDate = &endDate
	}
	if rawState != "" {
		state := models.State(rawState)
		if !state.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown resource_state %q", rawState))
		}
		period.ResourceState = state
	}

	for i, groupPayload := range groups {
		group, err := buildGroup(i, groupPayload)
		if err != nil {
			return nil, err
		}
		period.TimeSpanGroups = append(period.TimeSpanGroups, group)
	}

	if err := period.Validate(); err != nil {
		return nil, mapEngineError(err)
	}
	return period, nil
}

func buildGroup(index int, payload dto.TimeSpanGroupPayload) (models.TimeSpanGroup, error) {
	var group models.TimeSpanGroup
	for j, spanPayload := range payload.TimeSpans {
		span, err := buildTimeSpan(index, j, spanPayload)
		if err != nil {
			return group, err
		}
		group.TimeSpans = append(group.TimeSpans, span)
	}
	for _, rulePayload := range payload.Rules {
		group.Rules = append(group.Rules, models.Rule{
			Context: models.RuleContext(rulePayload.Context),
			Subject: models.RuleSubject(rulePayload.Subject),
			Start:   rulePayload.Start,
		})
	}
	return group, nil
}

func buildTimeSpan(groupIndex, spanIndex int, payload dto.TimeSpanPayload) (models.TimeSpan, error) {
	span := models.TimeSpan{
		FullDay:       payload.FullDay,
		ResourceState: models.State(payload.ResourceState),
	}
	if !span.ResourceState.Valid() {
		return span, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("time_span_groups[%d].time_spans[%d]: unknown resource_state %q", groupIndex, spanIndex, payload.ResourceState))
	}

	if payload.StartTime != nil {
		start, err := models.ParseTimeOfDay(*payload.StartTime)
		if err != nil {
			return span, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("time_span_groups[%d].time_spans[%d]: start_time must be HH:MM or HH:MM:SS", groupIndex, spanIndex))
		}
		span.StartTime = &start
	}
	if payload.EndTime != nil {
		end, err := models.ParseTimeOfDay(*payload.EndTime)
		if err != nil {
			return span, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("time_span_groups[%d].time_spans[%d]: end_time must be HH:MM or HH:MM:SS", groupIndex, spanIndex))
		}
		span.EndTime = &end
	}
	if !span.FullDay && span.StartTime == nil && span.EndTime == nil {
		return span, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("time_span_groups[%d].time_spans[%d]: requires start_time, end_time or full_day", groupIndex, spanIndex))
	}
	// An end at or before the start means the span crosses midnight.
	if span.StartTime != nil && span.EndTime != nil && *span.EndTime <= *span.StartTime {
		span.EndTimeOnNextDay = true
	}

	for _, weekday := range payload.Weekdays {
		span.Weekdays = append(span.Weekdays, models.Weekday(weekday))
	}
	if !span.Weekdays.Valid() {
		return span, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("time_span_groups[%d].time_spans[%d]: weekdays must be 1..7", groupIndex, spanIndex))
	}
	return span, nil
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/citopen/hours-api/internal/models"
)

// PeriodRepository persists date periods with their nested time-span groups,
// time spans and rules. Reads return fully materialized records so that the
// resolution engine never needs lazy fetches.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs a period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

type periodRow struct {
	ID            string     `db:"id"`
	ResourceID    string     `db:"resource_id"`
	Name          string     `db:"name"`
	Description   string     `db:"description"`
	StartDate     time.Time  `db:"start_date"`
	EndDate       *time.Time `db:"end_date"`
	ResourceState string     `db:"resource_state"`
	Override      bool       `db:"override"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

type groupRow struct {
	ID       string `db:"id"`
	PeriodID string `db:"period_id"`
}

type timeSpanRow struct {
	ID               string         `db:"id"`
	GroupID          string         `db:"group_id"`
	StartTime        sql.NullString `db:"start_time"`
	EndTime          sql.NullString `db:"end_time"`
	FullDay          bool           `db:"full_day"`
	EndTimeOnNextDay bool           `db:"end_time_on_next_day"`
	ResourceState    string         `db:"resource_state"`
	Weekdays         pq.Int64Array  `db:"weekdays"`
}

type ruleRow struct {
	ID      string `db:"id"`
	GroupID string `db:"group_id"`
	Context string `db:"context"`
	Subject string `db:"subject"`
	Start   int    `db:"start"`
}

// ListByResource returns every date period of a resource, nested children
// included, ordered by start date.
func (r *PeriodRepository) ListByResource(ctx context.Context, resourceID string) ([]models.DatePeriod, error) {
	const query = `SELECT id, resource_id, name, description, start_date, end_date, resource_state, override, created_at, updated_at
FROM date_periods WHERE resource_id = $1 ORDER BY start_date ASC`
	var rows []periodRow
	if err := r.db.SelectContext(ctx, &rows, query, resourceID); err != nil {
		return nil, fmt.Errorf("list date periods: %w", err)
	}
	return r.attachChildren(ctx, rows)
}

// GetByID fetches one date period with its nested children.
func (r *PeriodRepository) GetByID(ctx context.Context, id string) (*models.DatePeriod, error) {
	const query = `SELECT id, resource_id, name, description, start_date, end_date, resource_state, override, created_at, updated_at
FROM date_periods WHERE id = $1`
	var row periodRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	periods, err := r.attachChildren(ctx, []periodRow{row})
	if err != nil {
		return nil, err
	}
	return &periods[0], nil
}

func (r *PeriodRepository) attachChildren(ctx context.Context, rows []periodRow) ([]models.DatePeriod, error) {
	periods := make([]models.DatePeriod, len(rows))
	periodIndex := make(map[string]int, len(rows))
	periodIDs := make([]string, len(rows))
	for i, row := range rows {
		periods[i] = models.DatePeriod{
			ID:             row.ID,
			ResourceID:     row.ResourceID,
			Name:           row.Name,
			Description:    row.Description,
			StartDate:      row.StartDate,
			EndDate:        row.EndDate,
			ResourceState:  models.State(row.ResourceState),
			Override:       row.Override,
			TimeSpanGroups: []models.TimeSpanGroup{},
			CreatedAt:      row.CreatedAt,
			UpdatedAt:      row.UpdatedAt,
		}
		periodIndex[row.ID] = i
		periodIDs[i] = row.ID
	}
	if len(periods) == 0 {
		return periods, nil
	}

	groupQuery, args, err := sqlx.In(`SELECT id, period_id FROM time_span_groups WHERE period_id IN (?) ORDER BY id`, periodIDs)
	if err != nil {
		return nil, fmt.Errorf("build group query: %w", err)
	}
	var groups []groupRow
	if err := r.db.SelectContext(ctx, &groups, r.db.Rebind(groupQuery), args...); err != nil {
		return nil, fmt.Errorf("list time span groups: %w", err)
	}
	if len(groups) == 0 {
		return periods, nil
	}

	groupIDs := make([]string, len(groups))
	groupLocation := make(map[string][2]int, len(groups))
	for i, group := range groups {
		pi := periodIndex[group.PeriodID]
		periods[pi].TimeSpanGroups = append(periods[pi].TimeSpanGroups, models.TimeSpanGroup{
			ID:        group.ID,
			PeriodID:  group.PeriodID,
			TimeSpans: []models.TimeSpan{},
			Rules:     []models.Rule{},
		})
		groupLocation[group.ID] = [2]int{pi, len(periods[pi].TimeSpanGroups) - 1}
		groupIDs[i] = group.ID
	}

	spanQuery, args, err := sqlx.In(`SELECT id, group_id, start_time, end_time, full_day, end_time_on_next_day, resource_state, weekdays
FROM time_spans WHERE group_id IN (?) ORDER BY id`, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("build span query: %w", err)
	}
	var spans []timeSpanRow
	if err := r.db.SelectContext(ctx, &spans, r.db.Rebind(spanQuery), args...); err != nil {
		return nil, fmt.Errorf("list time spans: %w", err)
	}
	for _, span := range spans {
		loc := groupLocation[span.GroupID]
		converted, err := span.toModel()
		if err != nil {
			return nil, err
		}
		group := &periods[loc[0]].TimeSpanGroups[loc[1]]
		group.TimeSpans = append(group.TimeSpans, converted)
	}

	ruleQuery, args, err := sqlx.In(`SELECT id, group_id, context, subject, start FROM rules WHERE group_id IN (?) ORDER BY id`, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("build rule query: %w", err)
	}
	var rules []ruleRow
	if err := r.db.SelectContext(ctx, &rules, r.db.Rebind(ruleQuery), args...); err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	for _, rule := range rules {
		loc := groupLocation[rule.GroupID]
		group := &periods[loc[0]].TimeSpanGroups[loc[1]]
		group.Rules = append(group.Rules, models.Rule{
			ID:      rule.ID,
			GroupID: rule.GroupID,
			Context: models.RuleContext(rule.Context),
			Subject: models.RuleSubject(rule.Subject),
			Start:   rule.Start,
		})
	}

	return periods, nil
}

func (row timeSpanRow) toModel() (models.TimeSpan, error) {
	span := models.TimeSpan{
		ID:               row.ID,
		GroupID:          row.GroupID,
		FullDay:          row.FullDay,
		EndTimeOnNextDay: row.EndTimeOnNextDay,
		ResourceState:    models.State(row.ResourceState),
	}
	if row.StartTime.Valid {
		parsed, err := models.ParseTimeOfDay(row.StartTime.String)
		if err != nil {
			return span, fmt.Errorf("span %s start time: %w", row.ID, err)
		}
		span.StartTime = &parsed
	}
	if row.EndTime.Valid {
		parsed, err := models.ParseTimeOfDay(row.EndTime.String)
		if err != nil {
			return span, fmt.Errorf("span %s end time: %w", row.ID, err)
		}
		span.EndTime = &parsed
	}
	for _, wd := range row.Weekdays {
		span.Weekdays = append(span.Weekdays, models.Weekday(wd))
	}
	return span, nil
}

// Create inserts a date period with its nested groups, spans and rules in a
// single transaction.
func (r *PeriodRepository) Create(ctx context.Context, period *models.DatePeriod) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create period: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now

	const insertPeriod = `INSERT INTO date_periods (id, resource_id, name, description, start_date, end_date, resource_state, override, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := tx.ExecContext(ctx, insertPeriod,
		period.ID, period.ResourceID, period.Name, period.Description,
		period.StartDate, period.EndDate, string(period.ResourceState), period.Override,
		period.CreatedAt, period.UpdatedAt); err != nil {
		return fmt.Errorf("insert date period: %w", err)
	}

	if err := insertChildren(ctx, tx, period); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create period: %w", err)
	}
	return nil
}

// Update replaces a period's own fields and its nested children wholesale.
func (r *PeriodRepository) Update(ctx context.Context, period *models.DatePeriod) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update period: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	period.UpdatedAt = time.Now().UTC()

	const updatePeriod = `UPDATE date_periods SET name = $2, description = $3, start_date = $4, end_date = $5, resource_state = $6, override = $7, updated_at = $8
WHERE id = $1`
	result, err := tx.ExecContext(ctx, updatePeriod,
		period.ID, period.Name, period.Description, period.StartDate, period.EndDate,
		string(period.ResourceState), period.Override, period.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update date period: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}

	// Spans and rules cascade with their groups.
	if _, err := tx.ExecContext(ctx, `DELETE FROM time_span_groups WHERE period_id = $1`, period.ID); err != nil {
		return fmt.Errorf("clear time span groups: %w", err)
	}
	if err := insertChildren(ctx, tx, period); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update period: %w", err)
	}
	return nil
}

// Delete removes a period; groups, spans and rules cascade.
func (r *PeriodRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM date_periods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete date period: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func insertChildren(ctx context.Context, tx *sqlx.Tx, period *models.DatePeriod) error {
	const insertGroup = `INSERT INTO time_span_groups (id, period_id) VALUES ($1, $2)`
	const insertSpan = `INSERT INTO time_spans (id, group_id, start_time, end_time, full_day, end_time_on_next_day, resource_state, weekdays)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	const insertRule = `INSERT INTO rules (id, group_id, context, subject, start) VALUES ($1, $2, $3, $4, $5)`

	for gi := range period.TimeSpanGroups {
		group := &period.TimeSpanGroups[gi]
		if group.ID == "" {
			group.ID = uuid.NewString()
		}
		group.PeriodID = period.ID
		if _, err := tx.ExecContext(ctx, insertGroup, group.ID, group.PeriodID); err != nil {
			return fmt.Errorf("insert time span group: %w", err)
		}

		for si := range group.TimeSpans {
			span := &group.TimeSpans[si]
			if span.ID == "" {
				span.ID = uuid.NewString()
			}
			span.GroupID = group.ID

			weekdays := make(pq.Int64Array, len(span.Weekdays))
			for i, wd := range span.Weekdays {
				weekdays[i] = int64(wd)
			}
			var start, end interface{}
			if span.StartTime != nil {
				start = span.StartTime.String()
			}
			if span.EndTime != nil {
				end = span.EndTime.String()
			}
			if _, err := tx.ExecContext(ctx, insertSpan,
				span.ID, span.GroupID, start, end, span.FullDay, span.EndTimeOnNextDay,
				string(span.ResourceState), weekdays); err != nil {
				return fmt.Errorf("insert time span: %w", err)
			}
		}

		for ri := range group.Rules {
			rule := &group.Rules[ri]
			if rule.ID == "" {
				rule.ID = uuid.NewString()
			}
			rule.GroupID = group.ID
			if _, err := tx.ExecContext(ctx, insertRule,
				rule.ID, rule.GroupID, string(rule.Context), string(rule.Subject), rule.Start); err != nil {
				return fmt.Errorf("insert rule: %w", err)
			}
		}
	}
	return nil
}

package export

// ScheduleRow is one resolved interval line in an opening hours report.
type ScheduleRow struct {
	Date      string
	Weekday   string
	State     string
	StartTime string
	EndTime   string
	FullDay   bool
	Override  bool
}

// ScheduleReport is a resolved date range prepared for rendering.
type ScheduleReport struct {
	ResourceName string
	StartDate    string
	EndDate      string
	Rows         []ScheduleRow
}

var reportColumns = []string{"date", "weekday", "state", "start_time", "end_time", "full_day", "override"}

func (r ScheduleRow) cells() []string {
	return []string{
		r.Date,
		r.Weekday,
		r.State,
		r.StartTime,
		r.EndTime,
		boolCell(r.FullDay),
		boolCell(r.Override),
	}
}

func boolCell(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

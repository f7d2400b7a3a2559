package period

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/balkashynov/punchclock/internal/accounting"
	"github.com/balkashynov/punchclock/internal/models"
)

// DayKey is the layout of daily aggregation keys
const DayKey = "2006-01-02"

// WeeksPerMonth is the number of week buckets in a monthly summary
const WeeksPerMonth = 5

// DayStats totals the sessions started on one day
type DayStats struct {
	WorkingTime float64 `json:"working_time"`
	BreakTime   float64 `json:"break_time"`
	Records     int     `json:"records"`
}

// Stats totals a set of sessions
type Stats struct {
	TotalWorkingTime float64             `json:"total_working_time"`
	TotalBreakTime   float64             `json:"total_break_time"`
	RecordCount      int                 `json:"record_count"`
	Daily            map[string]DayStats `json:"daily"`
}

// Days returns the daily keys in chronological order
func (s Stats) Days() []string {
	days := make([]string, 0, len(s.Daily))
	for d := range s.Daily {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

// Aggregate totals sessions by the day their start falls on, in the start's
// own timezone. Open sessions count as records with zero working time.
func Aggregate(sessions []models.Session) Stats {
	st := Stats{Daily: make(map[string]DayStats)}
	for _, s := range sessions {
		working := accounting.WorkingTime(s)
		breaks := accounting.TotalBreakTime(s)

		st.TotalWorkingTime += working
		st.TotalBreakTime += breaks
		st.RecordCount++

		key := s.Start.Format(DayKey)
		day := st.Daily[key]
		day.WorkingTime = accounting.Round2(day.WorkingTime + working)
		day.BreakTime = accounting.Round2(day.BreakTime + breaks)
		day.Records++
		st.Daily[key] = day
	}
	st.TotalWorkingTime = accounting.Round2(st.TotalWorkingTime)
	st.TotalBreakTime = accounting.Round2(st.TotalBreakTime)
	return st
}

// GetStats reads the period and aggregates it
func (e *Engine) GetStats(ctx context.Context, req Request) (Stats, error) {
	sessions, err := e.GetByPeriod(ctx, req)
	if err != nil {
		return Stats{}, err
	}
	return Aggregate(sessions), nil
}

// DailyRecord is one day of a monthly summary
type DailyRecord struct {
	Date        string  `json:"date"`
	Week        int     `json:"week"`
	WorkingTime float64 `json:"working_time"`
	BreakTime   float64 `json:"break_time"`
	Records     int     `json:"records"`
}

// Summary is a month of sessions grouped by day and week
type Summary struct {
	Year             int                    `json:"year"`
	Month            time.Month             `json:"month"`
	Daily            []DailyRecord          `json:"daily"`
	WeeklyTotals     [WeeksPerMonth]float64 `json:"weekly_totals"`
	TotalWorkingTime float64                `json:"total_working_time"`
	TotalBreakTime   float64                `json:"total_break_time"`
}

// Week returns the working total of week w (1..5)
func (s Summary) Week(w int) float64 {
	if w < 1 || w > WeeksPerMonth {
		return 0
	}
	return s.WeeklyTotals[w-1]
}

// WeekOf returns the week bucket of a day of month: days 1-7 are week 1,
// 29-31 are week 5
func WeekOf(day int) int {
	return (day-1)/7 + 1
}

// MonthBounds returns the first and last instant of the month in loc
func MonthBounds(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return from, to
}

// MonthlySummary aggregates the subject's sessions for a calendar month in the
// engine clock's timezone
func (e *Engine) MonthlySummary(ctx context.Context, subject, tenant string, year int, month time.Month) (Summary, error) {
	if month < time.January || month > time.December {
		return Summary{}, fmt.Errorf("invalid month: %d", month)
	}

	loc := e.clock.Now().Location()
	from, to := MonthBounds(year, month, loc)

	sessions, err := e.GetByPeriod(ctx, Request{
		SubjectID: subject,
		TenantID:  tenant,
		From:      from,
		To:        to,
	})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(year, month, loc, sessions), nil
}

// Summarize groups sessions of one month by day and week in loc
func Summarize(year int, month time.Month, loc *time.Location, sessions []models.Session) Summary {
	sum := Summary{Year: year, Month: month}

	byDay := make(map[int]*DailyRecord)
	for _, s := range sessions {
		start := s.Start.In(loc)
		working := accounting.WorkingTime(s)
		breaks := accounting.TotalBreakTime(s)

		rec, ok := byDay[start.Day()]
		if !ok {
			rec = &DailyRecord{Date: start.Format(DayKey), Week: WeekOf(start.Day())}
			byDay[start.Day()] = rec
		}
		rec.WorkingTime = accounting.Round2(rec.WorkingTime + working)
		rec.BreakTime = accounting.Round2(rec.BreakTime + breaks)
		rec.Records++

		sum.WeeklyTotals[rec.Week-1] = accounting.Round2(sum.WeeklyTotals[rec.Week-1] + working)
		sum.TotalWorkingTime += working
		sum.TotalBreakTime += breaks
	}

	for _, rec := range byDay {
		sum.Daily = append(sum.Daily, *rec)
	}
	sort.Slice(sum.Daily, func(i, j int) bool { return sum.Daily[i].Date < sum.Daily[j].Date })

	sum.TotalWorkingTime = accounting.Round2(sum.TotalWorkingTime)
	sum.TotalBreakTime = accounting.Round2(sum.TotalBreakTime)
	return sum
}

// Package accounting computes break and working durations of sessions.
// All durations are minutes rounded to two decimals.
package accounting

import (
	"fmt"
	"math"
	"time"

	"github.com/balkashynov/punchclock/internal/models"
)

// Round2 rounds minutes to two decimal places
func Round2(minutes float64) float64 {
	return math.Round(minutes*100) / 100
}

// Elapsed returns the unrounded minutes between from and to
func Elapsed(from, to time.Time) float64 {
	return to.Sub(from).Minutes()
}

// BreakDuration returns the length of a closed break, 0 for an open one.
// A break that ends before it starts yields a negative value; Audit reports it.
func BreakDuration(b models.BreakInterval) float64 {
	if b.Open() {
		return 0
	}
	return Round2(Elapsed(b.Start, *b.End))
}

// TotalBreakTime sums the durations of all breaks in the session
func TotalBreakTime(s models.Session) float64 {
	var total float64
	for _, b := range s.Breaks {
		total += BreakDuration(b)
	}
	return total
}

// WorkingTime returns wall time minus breaks for a closed session, 0 while open
func WorkingTime(s models.Session) float64 {
	if s.End == nil {
		return 0
	}
	return Round2(Elapsed(s.Start, *s.End) - TotalBreakTime(s))
}

// IssueKind classifies a data-integrity problem
type IssueKind string

const (
	IssueNegativeBreak   IssueKind = "negative_break"
	IssueOpenInnerBreak  IssueKind = "open_inner_break"
	IssueNegativeWorking IssueKind = "negative_working_time"
	IssueEndBeforeStart  IssueKind = "end_before_start"
)

// Issue is a data-integrity problem found in a stored session
type Issue struct {
	Kind       IssueKind
	BreakIndex int // -1 when the issue is not about a single break
	Minutes    float64
}

func (i Issue) String() string {
	if i.BreakIndex >= 0 {
		return fmt.Sprintf("%s (break %d, %.2f min)", i.Kind, i.BreakIndex, i.Minutes)
	}
	return fmt.Sprintf("%s (%.2f min)", i.Kind, i.Minutes)
}

// Audit lists data-integrity problems without changing any computed value
func Audit(s models.Session) []Issue {
	var issues []Issue
	for i, b := range s.Breaks {
		if b.Open() {
			if i != len(s.Breaks)-1 {
				issues = append(issues, Issue{Kind: IssueOpenInnerBreak, BreakIndex: i})
			}
			continue
		}
		if d := BreakDuration(b); d < 0 {
			issues = append(issues, Issue{Kind: IssueNegativeBreak, BreakIndex: i, Minutes: d})
		}
	}
	if s.End != nil {
		if elapsed := Elapsed(s.Start, *s.End); elapsed < 0 {
			issues = append(issues, Issue{Kind: IssueEndBeforeStart, BreakIndex: -1, Minutes: Round2(elapsed)})
		}
		if w := WorkingTime(s); w < 0 {
			issues = append(issues, Issue{Kind: IssueNegativeWorking, BreakIndex: -1, Minutes: w})
		}
	}
	return issues
}

// FormatMinutes renders minutes as "8h 31m", or "45m" under an hour
func FormatMinutes(minutes float64) string {
	total := int(math.Round(minutes))
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	h, m := total/60, total%60
	if h == 0 {
		return fmt.Sprintf("%s%dm", sign, m)
	}
	return fmt.Sprintf("%s%dh %dm", sign, h, m)
}

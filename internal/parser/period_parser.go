package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Period is an inclusive date range resolved against a reference time
type Period struct {
	From  time.Time
	To    time.Time
	Label string
}

var (
	dateRegex     = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	rangeRegex    = regexp.MustCompile(`^(\d{1,2}/\d{1,2}/\d{4})\s*(?:-|\.\.)\s*(\d{1,2}/\d{1,2}/\d{4})$`)
	relativeRegex = regexp.MustCompile(`^(\d+)\s*(day|days|week|weeks)$`)
	monthRegex    = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	slashMonth    = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
)

// ParsePeriod parses a period expression in now's timezone
// Supported formats:
// - today, yesterday
// - this-week, last-week (weeks start on Monday)
// - this-month, last-month
// - dd/mm/yyyy (a single day)
// - dd/mm/yyyy-dd/mm/yyyy (e.g., "01/03/2026-15/03/2026")
// - X days, X weeks (the last X days or weeks, today included)
func ParsePeriod(input string, now time.Time) (Period, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		input = "today"
	}

	today := startOfDay(now)

	switch input {
	case "today":
		return dayPeriod(today, "today"), nil
	case "yesterday":
		return dayPeriod(today.AddDate(0, 0, -1), "yesterday"), nil
	case "week", "this-week", "this_week":
		start := startOfWeek(today)
		return span(start, start.AddDate(0, 0, 7), "this week"), nil
	case "last-week", "last_week":
		start := startOfWeek(today).AddDate(0, 0, -7)
		return span(start, start.AddDate(0, 0, 7), "last week"), nil
	case "month", "this-month", "this_month":
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return span(start, start.AddDate(0, 1, 0), start.Format("January 2006")), nil
	case "last-month", "last_month":
		start := time.Date(today.Year(), today.Month()-1, 1, 0, 0, 0, 0, today.Location())
		return span(start, start.AddDate(0, 1, 0), start.Format("January 2006")), nil
	}

	// Try dd/mm/yyyy-dd/mm/yyyy
	if matches := rangeRegex.FindStringSubmatch(input); len(matches) == 3 {
		from, err := parseDate(matches[1], now.Location())
		if err != nil {
			return Period{}, err
		}
		to, err := parseDate(matches[2], now.Location())
		if err != nil {
			return Period{}, err
		}
		if to.Before(from) {
			return Period{}, fmt.Errorf("range ends before it starts")
		}
		return span(from, to.AddDate(0, 0, 1), matches[1]+" - "+matches[2]), nil
	}

	// Try dd/mm/yyyy
	if dateRegex.MatchString(input) {
		day, err := parseDate(input, now.Location())
		if err != nil {
			return Period{}, err
		}
		return dayPeriod(day, input), nil
	}

	// Try relative formats
	if matches := relativeRegex.FindStringSubmatch(input); len(matches) == 3 {
		amount, _ := strconv.Atoi(matches[1])
		days := amount
		if strings.HasPrefix(matches[2], "week") {
			days = amount * 7
		}
		if days < 1 || days > 366 {
			return Period{}, fmt.Errorf("period must be between 1 and 366 days")
		}
		start := today.AddDate(0, 0, 1-days)
		return span(start, today.AddDate(0, 0, 1), "last "+matches[1]+" "+matches[2]), nil
	}

	return Period{}, fmt.Errorf("invalid period. Use: today, yesterday, this-week, last-week, this-month, last-month, dd/mm/yyyy, dd/mm/yyyy-dd/mm/yyyy, or X days")
}

// ParseMonth parses "yyyy-mm" or "mm/yyyy"; empty means the month of now
func ParseMonth(input string, now time.Time) (int, time.Month, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return now.Year(), now.Month(), nil
	}

	var yearStr, monthStr string
	if matches := monthRegex.FindStringSubmatch(input); len(matches) == 3 {
		yearStr, monthStr = matches[1], matches[2]
	} else if matches := slashMonth.FindStringSubmatch(input); len(matches) == 3 {
		monthStr, yearStr = matches[1], matches[2]
	} else {
		return 0, 0, fmt.Errorf("invalid month format. Use: yyyy-mm or mm/yyyy")
	}

	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month must be between 1 and 12")
	}
	return year, time.Month(month), nil
}

// parseDate parses dd/mm/yyyy as midnight in loc
func parseDate(input string, loc *time.Location) (time.Time, error) {
	matches := dateRegex.FindStringSubmatch(input)
	if len(matches) != 4 {
		return time.Time{}, fmt.Errorf("invalid date format")
	}

	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])

	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)

	// Check if date is valid (handles leap years, etc.)
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return time.Time{}, fmt.Errorf("invalid date %s", input)
	}
	return date, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func startOfWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7 // Monday is 0
	return day.AddDate(0, 0, -offset)
}

func dayPeriod(day time.Time, label string) Period {
	return span(day, day.AddDate(0, 0, 1), label)
}

// span turns a half-open [from, until) range into an inclusive Period
func span(from, until time.Time, label string) Period {
	return Period{From: from, To: until.Add(-time.Nanosecond), Label: label}
}

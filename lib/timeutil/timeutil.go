// Package timeutil handles the date formats and date-range rules used by
// forex history extraction.
//
// Yahoo Finance's history pages treat the "start" date as the most recent
// bound of the range and the "end" date as the oldest one, so every range
// check in this package enforces start >= end. That inversion is load-bearing
// and mirrored everywhere dates are validated.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// MinEndDate is the oldest date Yahoo Finance serves forex history for.
var MinEndDate = time.Date(2005, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	DisplayFormat     = "Jan 2, 2006"
	LongDisplayFormat = "January 2, 2006"
)

// supported site/input date layouts, tried in order.
var dateLayouts = []string{
	"Jan 2, 2006",   // Sep 30, 2024
	"January 2, 2006", // September 30, 2024
	"2006-01-02",    // 2024-09-30
	"01/02/2006",    // 09/30/2024
	"02/01/2006",    // 30/09/2024
}

// ParseDateString parses a date cell or user-supplied date in any of the
// supported layouts. A false return means "not a date", which callers treat
// as skip-this-row, never as a fatal condition.
func ParseDateString(s string) (time.Time, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// RangeError reports a date or date-range constraint violation.
type RangeError struct {
	Message string
}

func (e *RangeError) Error() string {
	return e.Message
}

// ValidateDateRange checks a start/end pair against the extraction bounds.
// A zero maxStart defaults to today, a zero minEnd defaults to MinEndDate.
// start must be the more recent date.
func ValidateDateRange(start, end time.Time, maxStart, minEnd time.Time) error {
	if maxStart.IsZero() {
		maxStart = Today()
	}
	if minEnd.IsZero() {
		minEnd = MinEndDate
	}

	if start.After(maxStart) {
		return &RangeError{Message: fmt.Sprintf(
			"start date cannot be later than %s", FormatDisplay(maxStart, false),
		)}
	}
	if end.Before(minEnd) {
		return &RangeError{Message: fmt.Sprintf(
			"end date cannot be earlier than %s", FormatDisplay(minEnd, false),
		)}
	}
	if start.Before(end) {
		return &RangeError{Message: "start date cannot be earlier than the end date"}
	}
	return nil
}

// ValidateDate checks a single date against optional bounds. Zero-value
// bounds are skipped. name is used in the error message.
func ValidateDate(date time.Time, max, min time.Time, name string) error {
	if !max.IsZero() && date.After(max) {
		return &RangeError{Message: fmt.Sprintf(
			"%s cannot be later than %s", name, FormatDisplay(max, false),
		)}
	}
	if !min.IsZero() && date.Before(min) {
		return &RangeError{Message: fmt.Sprintf(
			"%s cannot be earlier than %s", name, FormatDisplay(min, false),
		)}
	}
	return nil
}

// DateToUnix converts a date to whole seconds since epoch, the unit Yahoo
// Finance expects for period1/period2 URL parameters.
func DateToUnix(t time.Time) int64 {
	return t.Unix()
}

// FormatDisplay renders a date for user-facing output, either "Sep 30, 2024"
// or "September 30, 2024".
func FormatDisplay(t time.Time, long bool) string {
	if long {
		return t.Format(LongDisplayFormat)
	}
	return t.Format(DisplayFormat)
}

// Today returns the current date truncated to midnight UTC.
func Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

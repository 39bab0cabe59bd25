package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateString(t *testing.T) {
	expected := time.Date(2024, time.September, 30, 0, 0, 0, 0, time.UTC)

	inputs := []string{
		"Sep 30, 2024",
		"September 30, 2024",
		"2024-09-30",
		"09/30/2024",
		"30/09/2024",
		"  Sep 30, 2024  ",
	}
	for _, input := range inputs {
		parsed, ok := ParseDateString(input)
		require.True(t, ok, "input %q", input)
		require.Equal(t, expected, parsed, "input %q", input)
	}
}

func TestParseDateStringInvalid(t *testing.T) {
	for _, input := range []string{"not a date", "", "   ", "13/32/2024x"} {
		_, ok := ParseDateString(input)
		require.False(t, ok, "input %q", input)
	}
}

func TestValidateDateRange(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ValidateDateRange(start, end, time.Time{}, time.Time{}))

	// start must be the recent bound, end the older one.
	err := ValidateDateRange(end, start, time.Time{}, time.Time{})
	require.Error(t, err)
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	require.Contains(t, rangeErr.Message, "earlier than the end date")
}

func TestValidateDateRangeBounds(t *testing.T) {
	maxStart := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	err := ValidateDateRange(
		time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		maxStart, time.Time{},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "start date cannot be later than")

	err = ValidateDateRange(
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2004, 12, 31, 0, 0, 0, 0, time.UTC),
		maxStart, time.Time{},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "end date cannot be earlier than")
}

func TestValidateDate(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ValidateDate(date, time.Time{}, time.Time{}, "date"))
	require.NoError(t, ValidateDate(date, date, date, "date"))

	err := ValidateDate(date, date.AddDate(0, 0, -1), time.Time{}, "start date")
	require.Error(t, err)
	require.Contains(t, err.Error(), "start date cannot be later than")

	err = ValidateDate(date, time.Time{}, date.AddDate(0, 0, 1), "end date")
	require.Error(t, err)
	require.Contains(t, err.Error(), "end date cannot be earlier than")
}

func TestDateToUnix(t *testing.T) {
	date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, int64(1704067200), DateToUnix(date))
}

func TestFormatDisplay(t *testing.T) {
	date := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)
	require.Equal(t, "Sep 30, 2024", FormatDisplay(date, false))
	require.Equal(t, "September 30, 2024", FormatDisplay(date, true))
}

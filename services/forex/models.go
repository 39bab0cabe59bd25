package forex

import (
	"fmt"
	"strings"
	"time"

	"fxhistory-backend/lib/exporter"
	"fxhistory-backend/lib/timeutil"

	"github.com/shopspring/decimal"
)

// reservedFilenameChars are rejected in output filenames.
const reservedFilenameChars = `<>:"/\|?*`

// FieldError is one violated constraint on an extraction request.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError aggregates every violated constraint instead of stopping
// at the first one, so a caller can report them all at once.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "invalid extraction request: " + strings.Join(parts, "; ")
}

// Request is one validated extraction job. Construct through NewRequest and
// treat as read-only afterwards; derived variants are copies, never in-place
// mutations.
//
// StartDate is the chronologically recent bound of the range and EndDate the
// older one. The reversed naming follows the site's period parameters and is
// intentional.
type Request struct {
	CurrencyPair string
	StartDate    time.Time
	EndDate      time.Time
	OutputFile   string
	AppendToFile bool
	Format       exporter.Format
}

// RequestParams feeds NewRequest. Zero values pick the documented defaults:
// append on, CSV format, bounds of today / Jan 1 2005.
type RequestParams struct {
	CurrencyPair string
	StartDate    time.Time
	EndDate      time.Time
	OutputFile   string
	// NoAppend turns off the default append-to-file behavior.
	NoAppend bool
	// Format is one of "", "csv", "json", "both".
	Format string
	// MaxStartDate/MinEndDate override the validation bounds, mostly for
	// tests.
	MaxStartDate time.Time
	MinEndDate   time.Time
}

// NewRequest validates and normalizes params into an immutable Request.
// Every violated constraint is collected into the returned
// *ValidationError, per-field checks and the cross-field range check alike.
func NewRequest(params RequestParams) (Request, error) {
	var fields []FieldError

	pair := strings.ToUpper(strings.TrimSpace(params.CurrencyPair))
	if pair == "" {
		fields = append(fields, FieldError{
			Field:   "currency_pair",
			Message: "cannot be empty",
		})
	} else if !isAlphabetic(pair) {
		fields = append(fields, FieldError{
			Field:   "currency_pair",
			Message: "must contain only letters",
		})
	}

	maxStart := params.MaxStartDate
	if maxStart.IsZero() {
		maxStart = timeutil.Today()
	}
	minEnd := params.MinEndDate
	if minEnd.IsZero() {
		minEnd = timeutil.MinEndDate
	}

	if err := timeutil.ValidateDate(params.StartDate, maxStart, time.Time{}, "start date"); err != nil {
		fields = append(fields, FieldError{Field: "start_date", Message: err.Error()})
	}
	if err := timeutil.ValidateDate(params.EndDate, time.Time{}, minEnd, "end date"); err != nil {
		fields = append(fields, FieldError{Field: "end_date", Message: err.Error()})
	}
	// cross-field ordering check, reported separately from the per-field
	// bound checks. start must be the recent date.
	if params.StartDate.Before(params.EndDate) {
		fields = append(fields, FieldError{
			Field:   "date_range",
			Message: "start date cannot be earlier than the end date",
		})
	}

	outputFile := strings.TrimSpace(params.OutputFile)
	if bad := strings.IndexAny(outputFile, reservedFilenameChars); bad >= 0 {
		fields = append(fields, FieldError{
			Field:   "output_file",
			Message: fmt.Sprintf("cannot contain %q", outputFile[bad]),
		})
	}

	format, err := exporter.ParseFormat(params.Format)
	if err != nil {
		fields = append(fields, FieldError{Field: "output_format", Message: err.Error()})
	}

	if len(fields) > 0 {
		return Request{}, &ValidationError{Fields: fields}
	}

	return Request{
		CurrencyPair: pair,
		StartDate:    params.StartDate,
		EndDate:      params.EndDate,
		OutputFile:   outputFile,
		AppendToFile: !params.NoAppend,
		Format:       format,
	}, nil
}

func isAlphabetic(s string) bool {
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// DefaultFilename renders the conventional output filename for the pair.
func (r Request) DefaultFilename(ext string) string {
	if ext == "" {
		ext = string(exporter.FormatCSV)
		if r.Format == exporter.FormatJSON {
			ext = string(exporter.FormatJSON)
		}
	}
	return fmt.Sprintf("%s_historical_data.%s", r.CurrencyPair, ext)
}

// PriceDataPoint is one typed close-price observation. ClosePrice is always
// strictly positive; rows that do not satisfy that never become points.
type PriceDataPoint struct {
	Date       time.Time
	ClosePrice decimal.Decimal
	// DateString preserves the site's verbatim date text for output
	// fidelity.
	DateString string
}

// NewPriceDataPoint parses the close-price text (thousands separators
// stripped) and rejects non-positive or unparsable values. Callers drop the
// row on error and keep going; a bad row is never fatal to an extraction.
func NewPriceDataPoint(date time.Time, dateString, closeText string) (PriceDataPoint, error) {
	dateString = strings.TrimSpace(dateString)
	if dateString == "" {
		return PriceDataPoint{}, fmt.Errorf("date string cannot be empty")
	}

	cleaned := strings.ReplaceAll(strings.TrimSpace(closeText), ",", "")
	if cleaned == "" {
		return PriceDataPoint{}, fmt.Errorf("close price cannot be empty")
	}
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return PriceDataPoint{}, fmt.Errorf("invalid close price format: %q", closeText)
	}
	if !price.IsPositive() {
		return PriceDataPoint{}, fmt.Errorf("close price must be positive, got %s", price)
	}

	return PriceDataPoint{
		Date:       date,
		ClosePrice: price,
		DateString: dateString,
	}, nil
}

// Metadata carries provenance for one extraction.
type Metadata struct {
	ExtractedAt  time.Time
	CurrencyPair string
	// RangeStart/RangeEnd are the actual most recent and oldest dates
	// observed in the data, which can be narrower than the requested range.
	RangeStart time.Time
	RangeEnd   time.Time
	// Headers is the table header text found on the page.
	Headers []string
	URL     string
	// TotalPoints always equals the owning result's data point count.
	TotalPoints int
}

// Result is the outcome of one extraction. ErrorMessage is set exactly when
// Success is false.
type Result struct {
	// DataPoints is sorted ascending by date, oldest first, regardless of
	// the site's presentation order.
	DataPoints   []PriceDataPoint
	Metadata     Metadata
	Success      bool
	ErrorMessage string
	// Exports holds the per-format file outcomes when an export ran.
	Exports []exporter.FileResult
}

// Summary renders a one-line human-readable account of the result.
func (r Result) Summary() string {
	if !r.Success {
		return fmt.Sprintf("extraction failed: %s", r.ErrorMessage)
	}
	return fmt.Sprintf(
		"extracted %d data points for %s from %s to %s",
		len(r.DataPoints),
		r.Metadata.CurrencyPair,
		timeutil.FormatDisplay(r.Metadata.RangeEnd, false),
		timeutil.FormatDisplay(r.Metadata.RangeStart, false),
	)
}

// Package exporter persists extracted price rows as CSV and/or JSON files
// with append/merge semantics. Export never returns an error: every outcome,
// failed or not, is reported as a FileResult.
package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fxhistory-backend/lib/telemetry"

	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("fxhistory.lib.exporter")

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatBoth Format = "both"
)

// ParseFormat normalizes a user-supplied format string. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "both":
		return FormatBoth, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Row is one exportable data point: the verbatim site date text and the
// close price rendered back to text.
type Row struct {
	Date  string
	Close string
}

// Request describes one export run.
type Request struct {
	// Filename is optional; when empty the exporter derives
	// <PAIR>_historical_data.<ext>. Any directory part is discarded, files
	// always land in the exporter's output directory.
	Filename     string
	CurrencyPair string
	Append       bool
	Format       Format
	ExtractedAt  time.Time
}

// FileResult is the outcome of one per-format export attempt.
type FileResult struct {
	Path         string
	Format       Format
	RowsWritten  int
	Success      bool
	ErrorMessage string
	SizeBytes    int64
}

func (r FileResult) Summary() string {
	if !r.Success {
		return fmt.Sprintf("file save failed: %s", r.ErrorMessage)
	}
	return fmt.Sprintf(
		"%s data saved to %s (%d bytes) - %d rows",
		strings.ToUpper(string(r.Format)), r.Path, r.SizeBytes, r.RowsWritten,
	)
}

// ExportError wraps an I/O failure during one export attempt.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %s", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

const defaultFilenameTemplate = "%s_historical_data"

type Options struct {
	// OutputDir is where every exported file lands. Required.
	OutputDir string
	// FilenameTemplate must contain one %s for the currency pair.
	FilenameTemplate string
}

type Exporter struct {
	outputDir        string
	filenameTemplate string
}

func New(opts Options) *Exporter {
	template := opts.FilenameTemplate
	if template == "" {
		template = defaultFilenameTemplate
	}
	return &Exporter{
		outputDir:        opts.OutputDir,
		filenameTemplate: template,
	}
}

// concurrent exports to the same path would interleave; serialize per path.
var pathLocks sync.Map

func lockPath(path string) func() {
	lock, _ := pathLocks.LoadOrStore(path, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Export writes rows in the requested format(s). For FormatBoth the CSV and
// JSON exports run independently; one failing does not block the other.
func (e *Exporter) Export(ctx context.Context, req Request, rows []Row) []FileResult {
	ctx, span := tracer.Start(ctx, "exporter:Export")
	defer span.End()

	var results []FileResult
	switch req.Format {
	case FormatCSV:
		results = append(results, e.exportCSV(ctx, req, rows))
	case FormatJSON:
		results = append(results, e.exportJSON(ctx, req, rows))
	case FormatBoth:
		results = append(results, e.exportCSV(ctx, req, rows))
		results = append(results, e.exportJSON(ctx, deriveJSONRequest(req), rows))
	default:
		results = append(results, FileResult{
			Format:       req.Format,
			ErrorMessage: fmt.Sprintf("unknown output format %q", req.Format),
		})
	}

	for _, res := range results {
		if !res.Success {
			span.SetStatus(codes.Error, res.ErrorMessage)
			slog.WarnContext(ctx, "export failed", "path", res.Path, "err", res.ErrorMessage)
			continue
		}
		slog.InfoContext(ctx, "export complete",
			"path", res.Path,
			"format", res.Format,
			"rows", res.RowsWritten,
			"bytes", res.SizeBytes,
		)
	}
	return results
}

// deriveJSONRequest copies the request with a JSON-suffixed filename so a
// "both" export writes a sibling file next to the CSV. The copy keeps the
// original request immutable.
func deriveJSONRequest(req Request) Request {
	derived := req
	derived.Format = FormatJSON
	if derived.Filename != "" {
		if strings.HasSuffix(derived.Filename, ".csv") {
			derived.Filename = strings.TrimSuffix(derived.Filename, ".csv") + ".json"
		} else if !strings.HasSuffix(derived.Filename, ".json") {
			derived.Filename += ".json"
		}
	}
	return derived
}

func (e *Exporter) resolvePath(req Request, ext string) string {
	name := req.Filename
	if name == "" {
		name = fmt.Sprintf(e.filenameTemplate, req.CurrencyPair)
	}
	if !strings.HasSuffix(name, "."+ext) {
		name += "." + ext
	}
	return filepath.Join(e.outputDir, filepath.Base(name))
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func (e *Exporter) exportCSV(ctx context.Context, req Request, rows []Row) FileResult {
	_, span := tracer.Start(ctx, "exporter:exportCSV")
	defer span.End()

	path := e.resolvePath(req, "csv")
	result := FileResult{Path: path, Format: FormatCSV}

	fail := func(err error) FileResult {
		exportErr := &ExportError{Path: path, Err: err}
		span.RecordError(exportErr)
		span.SetStatus(codes.Error, "csv export failed")
		result.ErrorMessage = exportErr.Error()
		return result
	}

	unlock := lockPath(path)
	defer unlock()

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fail(err)
	}

	_, statErr := os.Stat(path)
	appendingToExisting := statErr == nil && req.Append

	flags := os.O_CREATE | os.O_WRONLY
	if req.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fail(err)
	}

	writer := csv.NewWriter(file)
	if !appendingToExisting {
		// header only for fresh files; appending never repeats it.
		if err := writer.Write([]string{"Date", "Close"}); err != nil {
			file.Close()
			return fail(err)
		}
	}
	for _, row := range rows {
		if err := writer.Write([]string{row.Date, row.Close}); err != nil {
			file.Close()
			return fail(err)
		}
		result.RowsWritten++
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		file.Close()
		return fail(err)
	}
	if err := file.Close(); err != nil {
		return fail(err)
	}

	result.Success = true
	result.SizeBytes = fileSize(path)
	return result
}

// jsonDocument is the on-disk JSON shape.
type jsonDocument struct {
	CurrencyPair   string      `json:"currency_pair"`
	ExtractionDate string      `json:"extraction_date"`
	DataCount      int         `json:"data_count"`
	HistoricalData []jsonEntry `json:"historical_data"`
}

type jsonEntry struct {
	Date  string `json:"date"`
	Close string `json:"close"`
}

func (e *Exporter) exportJSON(ctx context.Context, req Request, rows []Row) FileResult {
	ctx, span := tracer.Start(ctx, "exporter:exportJSON")
	defer span.End()

	path := e.resolvePath(req, "json")
	result := FileResult{Path: path, Format: FormatJSON}

	fail := func(err error) FileResult {
		exportErr := &ExportError{Path: path, Err: err}
		span.RecordError(exportErr)
		span.SetStatus(codes.Error, "json export failed")
		result.ErrorMessage = exportErr.Error()
		return result
	}

	unlock := lockPath(path)
	defer unlock()

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return fail(err)
	}

	doc := jsonDocument{
		CurrencyPair:   req.CurrencyPair,
		ExtractionDate: req.ExtractedAt.Format(time.RFC3339),
		DataCount:      len(rows),
		HistoricalData: make([]jsonEntry, 0, len(rows)),
	}
	for _, row := range rows {
		doc.HistoricalData = append(doc.HistoricalData, jsonEntry{Date: row.Date, Close: row.Close})
	}

	var payload any = doc
	if req.Append {
		if merged, ok := mergeExisting(ctx, path, doc); ok {
			payload = merged
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fail(err)
	}
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		file.Close()
		return fail(err)
	}
	if err := file.Close(); err != nil {
		return fail(err)
	}

	result.Success = true
	result.RowsWritten = len(rows)
	result.SizeBytes = fileSize(path)
	return result
}

// mergeExisting folds a prior export at path into the new document.
// Same-shape files merge by date key; data_count grows by the number of
// newly produced rows whether or not they were duplicates. A valid JSON file
// of a different shape is preserved by wrapping old and new in a list. An
// unreadable or corrupt file is overwritten.
func mergeExisting(ctx context.Context, path string, doc jsonDocument) (any, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		slog.WarnContext(ctx, "existing json file is corrupt, overwriting", "path", path)
		return nil, false
	}

	obj, isObject := raw.(map[string]any)
	if isObject {
		_, hasHistory := obj["historical_data"].([]any)
		if hasHistory {
			var existing jsonDocument
			if err := json.Unmarshal(data, &existing); err == nil {
				existing.ExtractionDate = doc.ExtractionDate
				existing.DataCount += len(doc.HistoricalData)

				seen := make(map[string]bool, len(existing.HistoricalData))
				for _, entry := range existing.HistoricalData {
					seen[entry.Date] = true
				}
				for _, entry := range doc.HistoricalData {
					if !seen[entry.Date] {
						existing.HistoricalData = append(existing.HistoricalData, entry)
					}
				}
				return existing, true
			}
		}
	}

	// different shape, keep both.
	return []any{raw, doc}, true
}

// Package csvcodec converts readings to and from the CSV export format.
//
// Exports always quote every field and double embedded quotes. Imports locate
// columns by header name, so files with reordered or extra columns are
// accepted, and rows that cannot be parsed are skipped rather than failing
// the whole file.
package csvcodec

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jwulff/bplog-go/internal/reading"
)

// Column names of the export header, in output order.
const (
	ColumnDate      = "Date"
	ColumnSystolic  = "Systolic"
	ColumnDiastolic = "Diastolic"
	ColumnPulse     = "Pulse"
	ColumnNotes     = "Notes"
	ColumnCategory  = "Category"
)

// Header is the export header row.
var Header = []string{ColumnDate, ColumnSystolic, ColumnDiastolic, ColumnPulse, ColumnNotes}

// DateLayout is the layout of the Date column on export.
const DateLayout = time.RFC3339

var (
	// ErrMissingHeader is returned when the input has no header row.
	ErrMissingHeader = errors.New("csv header row required")
	// ErrMissingColumn is returned when a required column is absent from the header.
	ErrMissingColumn = errors.New("missing required csv column")
)

// headerAliases maps lower-cased header names onto canonical columns.
var headerAliases = map[string]string{
	"date":      ColumnDate,
	"timestamp": ColumnDate,
	"systolic":  ColumnSystolic,
	"diastolic": ColumnDiastolic,
	"pulse":     ColumnPulse,
	"notes":     ColumnNotes,
	"category":  ColumnCategory,
}

// FileName returns the conventional export file name for the given day.
func FileName(now time.Time) string {
	return fmt.Sprintf("blood-pressure-%s.csv", now.Format("2006-01-02"))
}

// Encode writes readings as CSV. Timestamps are rendered in loc; a nil loc
// means time.Local.
func Encode(w io.Writer, readings []reading.Reading, loc *time.Location) error {
	if loc == nil {
		loc = time.Local
	}

	bw := bufio.NewWriter(w)
	if err := writeRow(bw, Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	row := make([]string, len(Header))
	for _, r := range readings {
		row[0] = r.Time(loc).Format(DateLayout)
		row[1] = strconv.Itoa(r.Systolic)
		row[2] = strconv.Itoa(r.Diastolic)
		row[3] = ""
		if r.Pulse != nil {
			row[3] = strconv.Itoa(*r.Pulse)
		}
		row[4] = r.Notes
		if err := writeRow(bw, row); err != nil {
			return fmt.Errorf("failed to write csv row for reading %s: %w", r.ID, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// EncodeToString is Encode into a string.
func EncodeToString(readings []reading.Reading, loc *time.Location) (string, error) {
	var sb strings.Builder
	if err := Encode(&sb, readings, loc); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(quote(f)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

func quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// Record is one decoded data row.
type Record struct {
	Line  int    // 1-based line number in the input
	Date  string // raw Date column, empty when absent
	Entry reading.Entry
}

// RowError describes a skipped row.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// Result is the outcome of decoding a file.
type Result struct {
	Records   []Record
	Skipped   int
	RowErrors []RowError
}

// Decode parses CSV text into records. Only the header is mandatory: a
// missing header or missing systolic/diastolic columns fail the call, while
// malformed data rows are counted in Result.Skipped and decoding continues.
//
// Quoting is parsed strictly. A row that breaks quoting is retried on its own
// with lenient quotes when its quote marks balance (older exports left quotes
// inside notes unescaped); otherwise it is skipped and parsing resumes on the
// following line, so one bad row never absorbs its neighbours.
//
// Records are not validated against reading bounds; callers run them through
// reading.Input.Validate like a manual entry.
func Decode(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	lines := strings.SplitAfter(string(data), "\n")

	// offset is the number of input lines before the current reader's start.
	offset := 0
	reader := newReader(lines, offset)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingHeader
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := mapHeader(header)
	for _, required := range []string{ColumnSystolic, ColumnDiastolic} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	result := &Result{}
	accept := func(record []string, line int) {
		if isBlank(record) {
			return
		}
		rec, err := parseRecord(record, columns)
		if err != nil {
			result.skip(line, err)
			return
		}
		rec.Line = line
		result.Records = append(result.Records, rec)
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("failed to read csv: %w", err)
			}
			bad := offset + perr.StartLine
			if record, ok := lenientRow(lines[bad-1]); ok {
				accept(record, bad)
			} else {
				result.skip(bad, perr.Err)
			}
			offset = bad
			reader = newReader(lines, offset)
			continue
		}

		line, _ := reader.FieldPos(0)
		accept(record, offset+line)
	}

	return result, nil
}

func newReader(lines []string, offset int) *csv.Reader {
	reader := csv.NewReader(strings.NewReader(strings.Join(lines[offset:], "")))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

// lenientRow parses a single line with lazy quotes. Lines with an odd number
// of quote marks hold an unterminated field and are refused.
func lenientRow(line string) ([]string, bool) {
	if strings.Count(line, `"`)%2 != 0 {
		return nil, false
	}
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	record, err := reader.Read()
	if err != nil {
		return nil, false
	}
	if _, err := reader.Read(); !errors.Is(err, io.EOF) {
		return nil, false
	}
	return record, true
}

// DecodeString is Decode over a string.
func DecodeString(s string) (*Result, error) {
	return Decode(strings.NewReader(s))
}

func (r *Result) skip(line int, err error) {
	r.Skipped++
	r.RowErrors = append(r.RowErrors, RowError{Line: line, Err: err})
}

func mapHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canonical, ok := headerAliases[name]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = i
			}
		}
	}
	return columns
}

func parseRecord(record []string, columns map[string]int) (Record, error) {
	get := func(col string) string {
		if idx, ok := columns[col]; ok && idx < len(record) {
			return strings.TrimSpace(record[idx])
		}
		return ""
	}

	systolic, err := strconv.Atoi(get(ColumnSystolic))
	if err != nil {
		return Record{}, fmt.Errorf("invalid systolic %q", get(ColumnSystolic))
	}
	diastolic, err := strconv.Atoi(get(ColumnDiastolic))
	if err != nil {
		return Record{}, fmt.Errorf("invalid diastolic %q", get(ColumnDiastolic))
	}

	entry := reading.Entry{
		Systolic:  systolic,
		Diastolic: diastolic,
		Notes:     get(ColumnNotes),
		Category:  get(ColumnCategory),
	}
	if pulse, err := strconv.Atoi(get(ColumnPulse)); err == nil {
		entry.Pulse = &pulse
	}

	return Record{Date: get(ColumnDate), Entry: entry}, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Input converts the record into a candidate for validation.
func (r Record) Input() reading.Input {
	sys, dia := r.Entry.Systolic, r.Entry.Diastolic
	in := reading.Input{
		Systolic:  &sys,
		Diastolic: &dia,
		Notes:     r.Entry.Notes,
		Category:  r.Entry.Category,
	}
	if r.Entry.Pulse != nil {
		p := *r.Entry.Pulse
		in.Pulse = &p
	}
	return in
}

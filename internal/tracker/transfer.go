package tracker

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jwulff/bplog-go/internal/analytics"
	"github.com/jwulff/bplog-go/internal/csvcodec"
	"github.com/jwulff/bplog-go/internal/reading"
)

// ImportReport summarises one CSV import.
type ImportReport struct {
	Imported  int                 // rows stored
	Skipped   int                 // rows the decoder could not parse
	Rejected  int                 // rows that failed validation
	Readings  []reading.Reading   // stored readings, in file order
	RowErrors []csvcodec.RowError // one per skipped or rejected row
}

// Export writes every reading as CSV, newest first.
func (t *Tracker) Export(ctx context.Context, w io.Writer) error {
	return t.ExportRange(ctx, w, analytics.RangeAll)
}

// ExportRange writes the readings inside rng as CSV, newest first.
func (t *Tracker) ExportRange(ctx context.Context, w io.Writer, rng analytics.TimeRange) error {
	readings, err := t.History(ctx, rng, 0)
	if err != nil {
		return err
	}
	if err := csvcodec.Encode(w, readings, t.loc); err != nil {
		return fmt.Errorf("failed to export readings: %w", err)
	}
	t.logger.Info("readings exported", zap.Int("count", len(readings)), zap.String("range", string(rng)))
	return nil
}

// ExportFileName is the suggested name for an export made now.
func (t *Tracker) ExportFileName() string {
	return csvcodec.FileName(t.Now())
}

// Import reads CSV from r and records each row as if entered by hand: rows
// are validated, and stored rows get a fresh ID and the import time as their
// timestamp. Imports are not atomic; on a storage failure the rows stored
// so far stay stored and the partial report is returned with the error.
func (t *Tracker) Import(ctx context.Context, r io.Reader) (ImportReport, error) {
	result, err := csvcodec.Decode(r)
	if err != nil {
		return ImportReport{}, err
	}

	report := ImportReport{
		Skipped:   result.Skipped,
		RowErrors: append([]csvcodec.RowError(nil), result.RowErrors...),
	}
	defer func() {
		t.metrics.RecordImport(report.Imported, report.Skipped, report.Rejected)
		t.logger.Info("csv import finished",
			zap.Int("imported", report.Imported),
			zap.Int("skipped", report.Skipped),
			zap.Int("rejected", report.Rejected),
		)
	}()

	for _, rec := range result.Records {
		entry, err := rec.Input().Entry()
		if err != nil {
			report.Rejected++
			report.RowErrors = append(report.RowErrors, csvcodec.RowError{Line: rec.Line, Err: err})
			continue
		}

		stored, err := t.add(ctx, entry)
		if err != nil {
			return report, fmt.Errorf("import stopped at line %d: %w", rec.Line, err)
		}
		report.Imported++
		report.Readings = append(report.Readings, stored)
	}
	return report, nil
}

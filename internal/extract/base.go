package extract

import (
	"strings"

	apperrors "freight-reconciliation-service/pkg/errors"
)

// Diagnostics accumulates per-line outcomes during extraction. Lines
// that match no grammar are skipped and counted; records that parse but
// fail validation are dropped and counted. Up to five sample errors are
// kept for the run summary.
type Diagnostics struct {
	LinesRead         int                          `json:"lines_read"`
	RecordsExtracted  int                          `json:"records_extracted"`
	LinesSkipped      int                          `json:"lines_skipped"`
	ValidationDropped int                          `json:"validation_dropped"`
	SampleErrors      []*apperrors.ReconcilerError `json:"sample_errors,omitempty"`
}

const maxDiagnosticSamples = 5

// RecordError counts an error and keeps it as a sample if room remains.
func (d *Diagnostics) RecordError(err *apperrors.ReconcilerError) {
	if err == nil {
		return
	}
	if len(d.SampleErrors) < maxDiagnosticSamples {
		d.SampleErrors = append(d.SampleErrors, err)
	}
}

// Merge folds another diagnostics block into this one.
func (d *Diagnostics) Merge(other *Diagnostics) {
	if other == nil {
		return
	}
	d.LinesRead += other.LinesRead
	d.RecordsExtracted += other.RecordsExtracted
	d.LinesSkipped += other.LinesSkipped
	d.ValidationDropped += other.ValidationDropped
	for _, err := range other.SampleErrors {
		d.RecordError(err)
	}
}

// Errors returns the sample errors for summary building.
func (d *Diagnostics) Errors() []*apperrors.ReconcilerError {
	return d.SampleErrors
}

// SplitLines splits raw extracted text into trimmed lines, preserving
// empty lines so page-structure markers keep their positions.
func SplitLines(text string) []string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return lines
}

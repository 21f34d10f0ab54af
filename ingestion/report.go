package ingestion

import (
	"errors"
	"fmt"
)

// Failure records why one case could not be fully ingested.
type Failure struct {
	DocumentID string
	Err        error
}

// Report summarizes an ingestion run. Slices follow input order.
type Report struct {
	// Indexed lists cases stored, lexically indexed and embedded.
	Indexed []string
	// Skipped lists cases that produced no fragments.
	Skipped []string
	// Failed lists cases with an error at any stage.
	Failed []Failure
}

// Err joins the failures into one error, or returns nil if there were none.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failed))
	for i, f := range r.Failed {
		errs[i] = fmt.Errorf("case %q: %w", f.DocumentID, f.Err)
	}
	return errors.Join(errs...)
}

type outcome int

const (
	pending outcome = iota
	indexed
	skipped
	failed
)

type result struct {
	id      string
	outcome outcome
	err     error
}

func buildReport(results []result) *Report {
	report := &Report{}
	for _, r := range results {
		switch r.outcome {
		case indexed:
			report.Indexed = append(report.Indexed, r.id)
		case skipped:
			report.Skipped = append(report.Skipped, r.id)
		case failed:
			report.Failed = append(report.Failed, Failure{DocumentID: r.id, Err: r.err})
		}
	}
	return report
}

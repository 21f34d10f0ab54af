package ingestion

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/caselens/segment"
)

// maxLineSize bounds one JSON line; judgments with long paragraphs run to megabytes.
const maxLineSize = 64 << 20

// Case is one legal case to ingest.
type Case struct {
	ID     string
	Source *segment.CaseSource
}

type caseRecord struct {
	ID     string              `json:"_id"`
	Source *segment.CaseSource `json:"_source"`
}

// ReadCases parses JSON lines of the form {"_id": ..., "_source": {...}}.
// Blank lines are ignored. Lines that fail to parse or lack an ID or a title
// are skipped with a warning. Only read errors are returned.
func ReadCases(r io.Reader) ([]*Case, error) {
	logger := slog.Default().With("component", "case_loader")

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxLineSize)

	var cases []*Case
	skipped := 0
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var rec caseRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			logger.Warn("skipping malformed case", "line", line, "err", err)
			skipped++
			continue
		}
		if rec.ID == "" || rec.Source == nil || strings.TrimSpace(rec.Source.Title) == "" {
			logger.Warn("skipping case without id or title", "line", line, "id", rec.ID)
			skipped++
			continue
		}
		cases = append(cases, &Case{ID: rec.ID, Source: rec.Source})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cases: %w", err)
	}

	logger.Info("loaded cases", "cases", len(cases), "skipped", skipped)
	return cases, nil
}

// LoadCases reads cases from a JSON lines file.
func LoadCases(path string) ([]*Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCases(f)
}

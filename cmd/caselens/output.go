package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/ingestion"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	idColor     = color.New(color.FgGreen, color.Bold)
	scoreColor  = color.New(color.FgYellow)
	traceColor  = color.New(color.Faint)
	errorColor  = color.New(color.FgRed)
)

// printMatches renders ranked matches, one block per match. With trace set
// the operands behind each score are listed too.
func printMatches(w io.Writer, title string, matches []*core.Match, trace bool) {
	headerColor.Fprintf(w, "%s: %d matches\n", title, len(matches))
	for i, m := range matches {
		fmt.Fprintf(w, "%2d. ", i+1)
		idColor.Fprint(w, m.ID)
		fmt.Fprintf(w, "  diversity=%d", m.Diversity)
		for _, name := range scoreNames(m) {
			scoreColor.Fprintf(w, "  %s=%.4f", name, m.Scores[name].Value)
		}
		fmt.Fprintln(w)
		if m.Text != "" {
			fmt.Fprintf(w, "    %s\n", oneLine(m.Text))
		}
		if !trace {
			continue
		}
		for _, name := range scoreNames(m) {
			for _, op := range m.Scores[name].Operands {
				traceColor.Fprintf(w, "      %s <- %s %.4f [%s] %s\n",
					name, op.Name, op.Value, op.RefID, oneLine(op.Description))
			}
		}
	}
}

// printReport summarizes an ingestion run.
func printReport(w io.Writer, report *ingestion.Report) {
	headerColor.Fprintf(w, "Indexed %d cases", len(report.Indexed))
	fmt.Fprintf(w, ", skipped %d, failed %d\n", len(report.Skipped), len(report.Failed))
	for _, id := range report.Skipped {
		fmt.Fprintf(w, "  skipped %s: no fragments\n", id)
	}
	for _, f := range report.Failed {
		errorColor.Fprintf(w, "  failed %s: %v\n", f.DocumentID, f.Err)
	}
}

func scoreNames(m *core.Match) []string {
	names := make([]string, 0, len(m.Scores))
	for name, s := range m.Scores {
		if s != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

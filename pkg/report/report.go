package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/xerrors"

	"github.com/AlexTiTanium/worm-scan/pkg/scanner"
)

// Format selects the output rendering.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Writer renders findings and the scan summary for the console.
type Writer struct {
	out      io.Writer
	format   string
	critical *color.Color
	warning  *color.Color
	ok       *color.Color
}

// New builds a Writer. noColor disables ANSI sequences; callers wire it
// from their flag and the NO_COLOR environment convention.
func New(out io.Writer, format string, noColor bool) *Writer {
	w := &Writer{
		out:      out,
		format:   format,
		critical: color.New(color.FgRed, color.Bold),
		warning:  color.New(color.FgYellow),
		ok:       color.New(color.FgGreen),
	}
	if noColor {
		w.critical.DisableColor()
		w.warning.DisableColor()
		w.ok.DisableColor()
	}
	return w
}

type jsonReport struct {
	Findings []scanner.Finding `json:"findings"`
	Summary  scanner.Summary   `json:"summary"`
}

// Write renders the report in the configured format.
func (w *Writer) Write(findings []scanner.Finding, summary scanner.Summary) error {
	if w.format == FormatJSON {
		enc := json.NewEncoder(w.out)
		enc.SetIndent("", "  ")
		if findings == nil {
			findings = []scanner.Finding{}
		}
		if err := enc.Encode(jsonReport{Findings: findings, Summary: summary}); err != nil {
			return xerrors.Errorf("failed to encode report: %w", err)
		}
		return nil
	}
	return w.writeTable(findings, summary)
}

func (w *Writer) writeTable(findings []scanner.Finding, summary scanner.Summary) error {
	var criticals, warnings int
	for _, f := range findings {
		switch f.Level {
		case scanner.LevelCritical:
			criticals++
			w.critical.Fprintf(w.out, "CRITICAL  %s@%s", f.Name, f.Version)
			fmt.Fprintf(w.out, "  malicious version %s\n", f.Against)
		case scanner.LevelWarning:
			warnings++
			w.warning.Fprintf(w.out, "WARNING   %s@%s", f.Name, f.Version)
			fmt.Fprintf(w.out, "  near malicious version %s\n", f.Against)
		}
	}
	if len(findings) > 0 {
		fmt.Fprintln(w.out)
	}

	fmt.Fprintf(w.out, "Scanned %d installed packages (%d distinct names) against %d advisories\n",
		summary.TotalInstalled, summary.DistinctNames, summary.AdvisoryNames)

	for _, overlap := range summary.Overlap {
		fmt.Fprintf(w.out, "  %s: installed %s, flagged %s\n",
			overlap.Name,
			strings.Join(overlap.Installed, ", "),
			strings.Join(overlap.Advisory, ", "))
	}

	switch {
	case criticals > 0:
		w.critical.Fprintf(w.out, "%d critical, %d warning finding(s)\n", criticals, warnings)
	case warnings > 0:
		w.warning.Fprintf(w.out, "%d warning finding(s)\n", warnings)
	default:
		w.ok.Fprintln(w.out, "No malicious packages found")
	}
	return nil
}

// ExitCode maps findings to the process contract: 2 when anything is
// critical, 0 otherwise. Upstream errors map to 1 in the CLI layer.
func ExitCode(findings []scanner.Finding) int {
	for _, f := range findings {
		if f.Level == scanner.LevelCritical {
			return 2
		}
	}
	return 0
}

package posterior

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pterm/pterm"
)

// RenderPrecis writes a precis table to w using pterm styling. Diagnostic
// columns appear only when the summaries carry them.
func RenderPrecis(w io.Writer, rows []Summary, prob float64) error {
	withDiagnostics := false
	for _, r := range rows {
		if !math.IsNaN(r.Rhat) {
			withDiagnostics = true
			break
		}
	}

	tail := (1 - prob) / 2 * 100
	header := []string{"param", "mean", "sd", fmt.Sprintf("%.1f%%", tail), fmt.Sprintf("%.1f%%", 100-tail)}
	if withDiagnostics {
		header = append(header, "rhat", "ess")
	}

	data := pterm.TableData{header}
	for _, r := range rows {
		row := []string{
			r.Param,
			fmt.Sprintf("%.2f", r.Mean),
			fmt.Sprintf("%.2f", r.SD),
			fmt.Sprintf("%.2f", r.Lower),
			fmt.Sprintf("%.2f", r.Upper),
		}
		if withDiagnostics {
			row = append(row, fmt.Sprintf("%.3f", r.Rhat), fmt.Sprintf("%.0f", r.ESS))
		}
		data = append(data, row)
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, rendered)
	return err
}

// FormatPrecis renders a precis table as plain aligned text, suitable for
// embedding in rendered markdown documents.
func FormatPrecis(rows []Summary, prob float64) string {
	tail := (1 - prob) / 2 * 100

	withDiagnostics := false
	for _, r := range rows {
		if !math.IsNaN(r.Rhat) {
			withDiagnostics = true
			break
		}
	}

	var b strings.Builder
	if withDiagnostics {
		fmt.Fprintf(&b, "%-10s %8s %8s %8s %8s %7s %7s\n", "param", "mean", "sd",
			fmt.Sprintf("%.1f%%", tail), fmt.Sprintf("%.1f%%", 100-tail), "rhat", "ess")
	} else {
		fmt.Fprintf(&b, "%-10s %8s %8s %8s %8s\n", "param", "mean", "sd",
			fmt.Sprintf("%.1f%%", tail), fmt.Sprintf("%.1f%%", 100-tail))
	}
	for _, r := range rows {
		if withDiagnostics {
			fmt.Fprintf(&b, "%-10s %8.2f %8.2f %8.2f %8.2f %7.3f %7.0f\n",
				r.Param, r.Mean, r.SD, r.Lower, r.Upper, r.Rhat, r.ESS)
		} else {
			fmt.Fprintf(&b, "%-10s %8.2f %8.2f %8.2f %8.2f\n",
				r.Param, r.Mean, r.SD, r.Lower, r.Upper)
		}
	}
	return b.String()
}

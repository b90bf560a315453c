package enrich

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/cloo-solutions/chapterkit/internal/service"
	"github.com/rotisserie/eris"
)

// Render writes the outcome of a run in the requested format.
func Render(w io.Writer, format string, result *service.RunResult) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return eris.Wrap(enc.Encode(result), "failed to encode report")
	}

	report := result.Report
	switch report.Pass {
	case domain.PassLongAnswers:
		fmt.Fprintf(w, "Updated %d/%d chapters with textbookExercise.longAnswers\n", report.Updated, report.Total)
	case domain.PassQACards:
		fmt.Fprintf(w, "Updated %d chapter files with memorize qaCards\n", report.Updated)
	case domain.PassAudit:
		renderAudit(w, report.Summary)
	}

	if report.Pass != domain.PassAudit {
		fmt.Fprintf(w, "unchanged: %d, errors: %d\n", report.Unchanged, report.Errors)
	}
	if report.DryRun && report.Pass != domain.PassAudit {
		fmt.Fprintln(w, "dry run: no files were written")
	}
	if result.ID != "" {
		fmt.Fprintf(w, "run: %s\n", result.ID)
	}
	return nil
}

func renderAudit(w io.Writer, summary any) {
	audit, ok := summary.(*service.AuditReport)
	if !ok {
		return
	}

	fmt.Fprintf(w, "Scanned %d chapters, %d at risk\n", audit.Scanned, audit.Flagged)
	for _, r := range audit.TopRisks {
		fmt.Fprintf(w, "%4d  %s\n", r.Score, r.Chapter)
	}
}

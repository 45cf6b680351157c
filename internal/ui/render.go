package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/thomas-vilte/commitlens/internal/history"
	"github.com/thomas-vilte/commitlens/internal/i18n"
	"github.com/thomas-vilte/commitlens/internal/models"
)

var separator = color.New(color.FgCyan).Sprint("━━━━━━━━━━━━━━━━━━━━━━━")

// PrintJSON writes v as indented JSON, for --json output.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderResult prints the pipeline outcome: the message, its scores and the
// per-iteration critique.
func RenderResult(w io.Writer, result *models.PipelineResult, t *i18n.Translations) {
	if result == nil {
		return
	}
	sectionColor := color.New(color.FgYellow, color.Bold)

	_, _ = fmt.Fprintf(w, "\n%s\n", separator)
	if result.FormattedMessage != "" {
		lines := strings.Split(result.FormattedMessage, "\n")
		_, _ = fmt.Fprintf(w, "%s %s\n",
			color.New(color.FgGreen, color.Bold).Sprint("✓ "+t.GetMessage("result.commit_label", 0, nil)),
			Info.Sprint(lines[0]))
		for _, line := range lines[1:] {
			_, _ = fmt.Fprintf(w, "   %s\n", line)
		}
	}
	_, _ = fmt.Fprintf(w, "%s\n\n", separator)

	_, _ = sectionColor.Fprintln(w, t.GetMessage("result.scores_title", 0, nil))
	PrintKeyValue(w, t.GetMessage("result.quality", 0, nil), fmt.Sprintf("%d/100", result.FinalQualityScore))
	PrintKeyValue(w, t.GetMessage("result.accuracy", 0, nil), fmt.Sprintf("%d/100", result.FinalAccuracy))
	PrintKeyValue(w, t.GetMessage("result.confidence", 0, nil), fmt.Sprintf("%.0f%%", result.Confidence*100))
	PrintKeyValue(w, t.GetMessage("result.iterations", 0, nil), fmt.Sprintf("%d", result.Iterations))
	if result.Threshold > 0 {
		PrintKeyValue(w, t.GetMessage("result.threshold", 0, nil), fmt.Sprintf("%d", result.Threshold))
	}
	if result.AcceptReason != "" {
		PrintKeyValue(w, t.GetMessage("result.accept_reason", 0, nil), result.AcceptReason)
	}
	PrintKeyValue(w, t.GetMessage("result.final_state", 0, nil), result.FinalState)
	PrintKeyValue(w, t.GetMessage("result.run_id", 0, nil), result.RunID)

	if len(result.Reflections) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = sectionColor.Fprintln(w, t.GetMessage("result.reflections_title", 0, nil))
		for i, r := range result.Reflections {
			renderIteration(w, i, r, result.Verifications, t)
		}
	}

	_, _ = fmt.Fprintln(w)
	_, _ = Dim.Fprintln(w, formatTimings(result.Timings, t))
	PrintTokenUsage(w, result.Usage, t)
}

func renderIteration(w io.Writer, i int, r models.ReflectionFeedback, verifications []models.VerificationResult, t *i18n.Translations) {
	header := t.GetMessage("result.iteration_header", 0, struct {
		Number  int
		Quality int
	}{i + 1, r.QualityScore})
	if i < len(verifications) {
		header += " " + t.GetMessage("result.iteration_accuracy", 0, struct{ Accuracy int }{verifications[i].FactualAccuracy})
	}
	if r.Fallback {
		header += " " + Warning.Sprint(t.GetMessage("result.fallback", 0, nil))
	}
	_, _ = fmt.Fprintf(w, "   %s\n", Accent.Sprint(header))

	for _, issue := range r.Issues {
		_, _ = fmt.Fprintf(w, "      %s %s\n", color.RedString("•"), issue)
	}
	for _, improvement := range r.Improvements {
		_, _ = fmt.Fprintf(w, "      %s %s\n", color.YellowString("💡"), improvement)
	}
	if i >= len(verifications) {
		return
	}
	v := verifications[i]
	if len(v.HallucinatedSymbols) > 0 {
		_, _ = fmt.Fprintf(w, "      %s %s\n", color.RedString("✗"),
			t.GetMessage("result.hallucinated", 0, struct{ Symbols string }{strings.Join(v.HallucinatedSymbols, ", ")}))
	}
	if len(v.MissingSymbols) > 0 {
		_, _ = fmt.Fprintf(w, "      %s %s\n", color.YellowString("?"),
			t.GetMessage("result.missing", 0, struct{ Symbols string }{strings.Join(v.MissingSymbols, ", ")}))
	}
}

func formatTimings(timings models.PhaseTimings, t *i18n.Translations) string {
	round := func(d time.Duration) string { return d.Round(10 * time.Millisecond).String() }
	return t.GetMessage("result.timings", 0, struct {
		Generation, Reflection, Verification, Refinement, Total string
	}{
		round(timings.Generation),
		round(timings.Reflection),
		round(timings.Verification),
		round(timings.Refinement),
		round(timings.Total),
	})
}

// RenderAnalysis prints what the structural and syntax-tree analyzers found,
// without any model involvement.
func RenderAnalysis(w io.Writer, changes models.StagedChanges, analysis models.DiffAnalysis, ast []models.ASTAnalysis, t *i18n.Translations) {
	sectionColor := color.New(color.FgYellow, color.Bold)
	s := analysis.Summary

	PrintKeyValue(w, t.GetMessage("analysis.branch", 0, nil), changes.Branch)
	PrintKeyValue(w, t.GetMessage("analysis.complexity", 0, nil), string(analysis.Complexity))
	PrintKeyValue(w, t.GetMessage("analysis.files", 0, nil),
		t.GetMessage("modified_files_count", s.TotalFiles, struct{ Count int }{s.TotalFiles}))
	PrintKeyValue(w, t.GetMessage("analysis.lines", 0, nil), fmt.Sprintf("+%d/-%d", s.LinesAdded, s.LinesRemoved))
	if changes.Truncation.Truncated {
		PrintWarning(w, t.GetMessage("analysis.truncated", 0, struct {
			Original int
			Final    int
		}{changes.Truncation.OriginalBytes, changes.Truncation.FinalBytes}))
	}

	ShowFilesTree(w, analysis.FileChanges, sectionColor.Sprint(t.GetMessage("analysis.files_tree", 0, nil)))

	if len(analysis.ChangePatterns) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = sectionColor.Fprintln(w, t.GetMessage("analysis.patterns", 0, nil))
		for _, p := range analysis.ChangePatterns {
			_, _ = fmt.Fprintf(w, "   %s %s %s %s\n", color.CyanString("•"), p.Kind,
				Dim.Sprintf("(%.2f)", p.Confidence), p.Description)
		}
	}

	if len(analysis.ModifiedSymbols) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = sectionColor.Fprintln(w, t.GetMessage("analysis.symbols", 0, nil))
		for _, sym := range analysis.ModifiedSymbols {
			_, _ = fmt.Fprintf(w, "   %s %s %s %s\n", color.CyanString("•"), sym.Kind, sym.Name, Dim.Sprintf("(%s)", sym.File))
		}
	}

	var refactorings []models.Refactoring
	var impacts []models.SemanticImpact
	for _, a := range ast {
		refactorings = append(refactorings, a.Refactorings...)
		impacts = append(impacts, a.SemanticImpacts...)
	}

	if len(refactorings) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = sectionColor.Fprintln(w, t.GetMessage("analysis.refactorings", 0, nil))
		for _, r := range refactorings {
			_, _ = fmt.Fprintf(w, "   %s %s: %s -> %s %s\n", color.CyanString("•"), r.Kind, r.From, r.To,
				Dim.Sprintf("(%s, %.2f)", r.File, r.Confidence))
		}
	}

	if len(impacts) > 0 {
		_, _ = fmt.Fprintln(w)
		_, _ = sectionColor.Fprintln(w, t.GetMessage("analysis.impacts", 0, nil))
		for _, im := range impacts {
			_, _ = fmt.Fprintf(w, "   %s %s [%s] %s %s\n", severityBullet(im.Severity), im.Kind, im.Severity,
				im.Description, Dim.Sprintf("(%s)", im.File))
		}
	}
	_, _ = fmt.Fprintln(w)
}

func severityBullet(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return color.RedString("•")
	case models.SeverityMedium:
		return color.YellowString("•")
	default:
		return color.GreenString("•")
	}
}

// RenderHistory lists recorded runs, newest first.
func RenderHistory(w io.Writer, runs []history.Run, t *i18n.Translations) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintf(w, "%s\n\n", t.GetMessage("history.empty", 0, nil))
		_, _ = Dim.Fprintln(w, t.GetMessage("history.tip_run_suggest", 0, nil))
		return
	}

	for _, run := range runs {
		status := Success.Sprint("✓")
		if !run.Success {
			status = Error.Sprint("✗")
		}
		header := strings.SplitN(run.Message, "\n", 2)[0]
		if header == "" {
			header = Dim.Sprint(run.Error)
		}
		_, _ = fmt.Fprintf(w, "%s %s %s\n", status, Dim.Sprint(run.CreatedAt.Local().Format("2006-01-02 15:04")), header)
		_, _ = Dim.Fprintf(w, "   %s\n", t.GetMessage("history.run_line", 0, struct {
			Branch     string
			Iterations int
			Quality    int
			Accuracy   int
			Cost       string
		}{run.Branch, run.Iterations, run.QualityScore, run.Accuracy, fmt.Sprintf("$%.4f", run.CostUSD)}))
	}
	_, _ = fmt.Fprintln(w)
}

func RenderStats(w io.Writer, stats history.Stats, t *i18n.Translations) {
	PrintKeyValue(w, t.GetMessage("history.total_runs", 0, nil), fmt.Sprintf("%d", stats.Runs))
	if stats.Runs == 0 {
		return
	}
	PrintKeyValue(w, t.GetMessage("history.success_rate", 0, nil), fmt.Sprintf("%.0f%%", stats.SuccessRate*100))
	PrintKeyValue(w, t.GetMessage("history.avg_iterations", 0, nil), fmt.Sprintf("%.2f", stats.AvgIterations))
	PrintKeyValue(w, t.GetMessage("history.avg_quality", 0, nil), fmt.Sprintf("%.1f", stats.AvgQuality))
	PrintKeyValue(w, t.GetMessage("history.avg_accuracy", 0, nil), fmt.Sprintf("%.1f", stats.AvgAccuracy))
	PrintKeyValue(w, t.GetMessage("history.total_cost", 0, nil), fmt.Sprintf("$%.4f USD", stats.TotalCostUSD))
	_, _ = fmt.Fprintln(w)
}

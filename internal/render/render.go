package render

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"maestro/internal/execution"
	"maestro/internal/negotiation"
	"maestro/internal/strategy"
)

const wrapWidth = 72

// Recommendation renders the single-recommendation view shown right after a
// task is interpreted.
func Recommendation(p *negotiation.Presentation) string {
	rec := p.RecommendedOption()
	var b strings.Builder

	b.WriteString("\n" + titleStyle.Render("  Here's my recommendation:") + "\n\n")
	b.WriteString(fmt.Sprintf("  %s\n\n", valueStyle.Render(rec.Option.Strategy)))
	b.WriteString(metrics(rec))
	if len(p.Options) > 1 {
		b.WriteString("\n" + dimStyle.Render("  Other strategies available. Say 'show options' to compare,") + "\n")
		b.WriteString(dimStyle.Render("  or adjust constraints like 'under $1' or 'faster'.") + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("  Proceed with this approach? (yes / show options / adjust)") + "\n")
	return b.String()
}

// Options renders the full lettered comparison view.
func Options(p *negotiation.Presentation) string {
	var b strings.Builder
	b.WriteString("\n" + titleStyle.Render("  Here are your options:") + "\n\n")

	for i := range p.Options {
		ro := &p.Options[i]
		label := optionStyle.Render(fmt.Sprintf("  Option %s: %s", ro.ID, ro.Option.Name))
		if i == p.Recommended {
			label += recommendStyle.Render("  ★ Recommended")
		}
		b.WriteString(label + "\n")
		b.WriteString(dimStyle.Render("    "+ro.Option.Strategy) + "\n")
		b.WriteString(metrics(ro))
		if ro.Option.Explanation != "" {
			wrapped := wordwrap.String(ro.Option.Explanation, wrapWidth)
			for _, line := range strings.Split(wrapped, "\n") {
				b.WriteString(dimStyle.Render("    "+line) + "\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(dimStyle.Render("  Which option? (A/B/C/... or adjust constraints)") + "\n")
	return b.String()
}

// metrics renders cost, quality and time with per-dimension verdicts.
func metrics(ro *negotiation.RatedOption) string {
	var b strings.Builder
	byDim := make(map[strategy.Dimension]strategy.Violation, len(ro.Violations))
	for _, v := range ro.Violations {
		byDim[v.Dimension] = v
	}

	cost := fmt.Sprintf("$%.2f", ro.Option.Cost)
	if v, ok := byDim[strategy.DimensionBudget]; ok {
		b.WriteString(fmt.Sprintf("    Cost: %s  %s\n", valueStyle.Render(cost),
			verdict(v, fmt.Sprintf("$%.2f over budget (+%.0f%%)", v.Actual-v.Limit, v.DeltaPct))))
	} else {
		b.WriteString(fmt.Sprintf("    Cost: %s  %s\n", valueStyle.Render(cost), passStyle.Render("ok")))
	}

	quality := fmt.Sprintf("%.0f%%", ro.Option.Quality*100)
	if v, ok := byDim[strategy.DimensionQuality]; ok {
		b.WriteString(fmt.Sprintf("    Quality: %s  %s\n", valueStyle.Render(quality),
			verdict(v, fmt.Sprintf("%.0f%% below minimum", v.DeltaPct))))
	} else {
		b.WriteString(fmt.Sprintf("    Quality: %s  %s\n", valueStyle.Render(quality), passStyle.Render("ok")))
	}

	t := FormatTime(ro.Option.TimeSeconds)
	if v, ok := byDim[strategy.DimensionTime]; ok {
		b.WriteString(fmt.Sprintf("    Time: %s  %s\n", valueStyle.Render(t),
			verdict(v, fmt.Sprintf("over time limit (+%.0f%%)", v.DeltaPct))))
	} else {
		b.WriteString(fmt.Sprintf("    Time: %s  %s\n", valueStyle.Render(t), passStyle.Render("ok")))
	}

	for _, note := range ro.Advisories {
		b.WriteString(dimStyle.Render("    note: "+note) + "\n")
	}
	return b.String()
}

func verdict(v strategy.Violation, msg string) string {
	if v.DeltaPct >= 10 {
		return failStyle.Render(msg)
	}
	return warnStyle.Render(msg)
}

// Report renders a completed execution.
func Report(res *execution.Result) string {
	var b strings.Builder
	b.WriteString("\n" + passStyle.Render("  Complete!") + "\n")
	b.WriteString(fmt.Sprintf("    Final cost: %s\n", valueStyle.Render(fmt.Sprintf("$%.2f", res.ActualCost))))
	b.WriteString(fmt.Sprintf("    Quality: %s (%d/%d successful)\n",
		valueStyle.Render(fmt.Sprintf("%.0f%%", res.ActualQuality*100)), res.Succeeded, res.Processed))
	b.WriteString(fmt.Sprintf("    Time: %s\n", valueStyle.Render(FormatTime(res.ActualTime))))
	if res.OutputFile != "" {
		b.WriteString(dimStyle.Render("  Results saved to: "+res.OutputFile) + "\n")
	}
	return b.String()
}

// Failure renders a failed execution, including any partial progress.
func Failure(e *execution.ExecutionError) string {
	var b strings.Builder
	b.WriteString("\n" + failStyle.Render("  Execution failed: "+e.Reason) + "\n")
	if e.Partial != nil && e.Partial.Processed > 0 {
		b.WriteString(fmt.Sprintf("    Partial progress: %d/%d units, $%.2f spent\n",
			e.Partial.Succeeded, e.Partial.Processed, e.Partial.ActualCost))
	}
	return b.String()
}

// Divider renders a section divider line.
func Divider() string {
	return divider
}

// FormatTime renders a duration in seconds as a compact human string.
func FormatTime(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	minutes := seconds / 60
	remaining := seconds % 60
	if remaining == 0 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%dm %ds", minutes, remaining)
}

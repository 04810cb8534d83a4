package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/mcao2/truthlens/internal/api"
	"github.com/mcao2/truthlens/internal/verdict"
)

const (
	barWidth    = 20
	sourceWidth = 18
)

// heuristicNote labels the reliability chart so nobody reads it as a trust score
const heuristicNote = "Reliability bars are a display heuristic based on stance, not a source rating."

// markdownRenderer caches a glamour renderer per wrap width
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

func (r *markdownRenderer) Render(text string, width int) string {
	if width < 20 {
		width = 20
	}
	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text
		}
		r.renderer = renderer
		r.width = width
	}
	out, err := r.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// ResultView renders a completed analysis
type ResultView struct {
	styles   Styles
	theme    Theme
	vocab    verdict.Vocabulary
	markdown markdownRenderer
}

func NewResultView(theme Theme, vocab verdict.Vocabulary) *ResultView {
	return &ResultView{
		styles: NewStyles(theme),
		theme:  theme,
		vocab:  vocab,
	}
}

// SetTheme switches palette
func (rv *ResultView) SetTheme(theme Theme) {
	rv.theme = theme
	rv.styles = NewStyles(theme)
}

// Render lays out the verdict card, explanation, stance counts and the
// evidence chart for the given width
func (rv *ResultView) Render(claim string, r *api.AnalyzeResponse, width int) string {
	if r == nil {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	inner := width - 4

	sections := []string{
		rv.verdictCard(claim, r, inner),
	}

	if strings.TrimSpace(r.Explanation) != "" {
		sections = append(sections,
			rv.styles.Label.Render("Explanation"),
			rv.markdown.Render(r.Explanation, inner),
		)
	}

	if summary := rv.stanceLine(r); summary != "" {
		sections = append(sections, summary)
	}

	if len(r.Evidence) > 0 {
		sections = append(sections, rv.evidenceChart(r.Evidence, inner))
	} else {
		sections = append(sections, rv.styles.Help.Render("No evidence was returned for this claim."))
	}

	return strings.Join(sections, "\n\n")
}

func (rv *ResultView) verdictCard(claim string, r *api.AnalyzeResponse, width int) string {
	style := verdict.Classify(r.Verdict)
	vs := rv.styles.Verdict(style)

	headline := vs.Render(fmt.Sprintf("%s %s", style.Icon(), strings.ToUpper(r.Verdict)))
	lines := []string{
		headline + "  " + rv.styles.Help.Render(style.Label()),
		"",
		rv.styles.Normal.Render(Truncate(claimText(claim, r), width-4)),
	}

	var meta []string
	if r.Confidence != "" {
		meta = append(meta, "confidence: "+r.Confidence)
	}
	if dt := r.DomainTrust; dt != nil {
		trust := "domain trust: " + string(dt.Score)
		if dt.Domain != "" {
			trust = fmt.Sprintf("%s (%s)", trust, dt.Domain)
		}
		meta = append(meta, trust)
	}
	if len(meta) > 0 {
		lines = append(lines, rv.styles.HelpDesc.Render(strings.Join(meta, " · ")))
	}

	if fc := r.FactCheck; fc != nil && fc.Found {
		check := "Fact-check"
		if fc.Rating != "" {
			check += ": " + fc.Rating
		}
		if fc.Source != "" {
			check += " · " + fc.Source
		}
		lines = append(lines, rv.styles.Highlight.Render(Truncate(check, width-4)))
		if fc.Summary != "" {
			lines = append(lines, rv.styles.HelpDesc.Render(Truncate(fc.Summary, width-4)))
		}
	}

	card := rv.styles.Card.
		BorderForeground(lipgloss.Color(rv.colorFor(style))).
		Width(width - 2)
	return card.Render(strings.Join(lines, "\n"))
}

func (rv *ResultView) stanceLine(r *api.AnalyzeResponse) string {
	s := verdict.SummaryFor(r, rv.vocab)
	if s.Total() == 0 {
		return ""
	}
	parts := []string{
		rv.styles.Positive.Render(fmt.Sprintf("%d supporting", s.Supports)),
		rv.styles.Negative.Render(fmt.Sprintf("%d refuting", s.Refutes)),
		rv.styles.Neutral.Render(fmt.Sprintf("%d discussing", s.Discuss)),
		rv.styles.HelpDesc.Render(fmt.Sprintf("%d unrelated", s.Unrelated)),
	}
	return rv.styles.Label.Render("Stance") + "  " + strings.Join(parts, rv.styles.HelpSep.Render(" · "))
}

func (rv *ResultView) evidenceChart(evidence []api.Evidence, width int) string {
	bars := verdict.Bars(evidence, rv.vocab)

	titleWidth := width - sourceWidth - barWidth - 8
	if titleWidth < 10 {
		titleWidth = 10
	}

	lines := []string{rv.styles.Label.Render(fmt.Sprintf("Evidence (%d)", len(bars)))}
	for _, b := range bars {
		bar := progress.New(
			progress.WithSolidFill(rv.stanceColor(b.Stance)),
			progress.WithoutPercentage(),
			progress.WithWidth(barWidth),
		)
		source := b.Source
		if source == "" {
			source = "unknown"
		}
		lines = append(lines, fmt.Sprintf("%s %s %3d%%  %s",
			rv.styles.Normal.Render(Pad(Truncate(source, sourceWidth), sourceWidth)),
			bar.ViewAs(float64(b.Reliability)/100),
			b.Reliability,
			rv.styles.HelpDesc.Render(Truncate(b.Title, titleWidth)),
		))
	}
	lines = append(lines, "", rv.styles.Help.Render(heuristicNote))
	return strings.Join(lines, "\n")
}

func (rv *ResultView) colorFor(style verdict.Style) string {
	switch style {
	case verdict.StylePositive:
		return rv.theme.Positive
	case verdict.StyleNegative:
		return rv.theme.Negative
	default:
		return rv.theme.Neutral
	}
}

func (rv *ResultView) stanceColor(s verdict.Stance) string {
	switch s {
	case verdict.StanceSupporting:
		return rv.theme.Positive
	case verdict.StanceNeutral:
		return rv.theme.Neutral
	default:
		return rv.theme.Negative
	}
}

func claimText(claim string, r *api.AnalyzeResponse) string {
	if strings.TrimSpace(claim) != "" {
		return claim
	}
	return r.Claim
}

// ResultSummary is the plain-text form copied to the clipboard
func ResultSummary(claim string, r *api.AnalyzeResponse, vocab verdict.Vocabulary) string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	style := verdict.Classify(r.Verdict)

	fmt.Fprintf(&b, "Claim: %s\n", claimText(claim, r))
	fmt.Fprintf(&b, "Verdict: %s (%s)\n", r.Verdict, style.Label())
	if r.Confidence != "" {
		fmt.Fprintf(&b, "Confidence: %s\n", r.Confidence)
	}
	if dt := r.DomainTrust; dt != nil && dt.Score != "" {
		fmt.Fprintf(&b, "Domain trust: %s\n", dt.Score)
	}
	if fc := r.FactCheck; fc != nil && fc.Found {
		fmt.Fprintf(&b, "Fact-check: %s %s\n", fc.Rating, fc.Summary)
	}
	if r.Explanation != "" {
		fmt.Fprintf(&b, "\n%s\n", strings.TrimSpace(r.Explanation))
	}
	if len(r.Evidence) > 0 {
		b.WriteString("\nEvidence:\n")
		for _, bar := range verdict.Bars(r.Evidence, vocab) {
			fmt.Fprintf(&b, "- [%s] %s", bar.Stance, bar.Title)
			if bar.Source != "" {
				fmt.Fprintf(&b, " (%s)", bar.Source)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

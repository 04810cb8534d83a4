// Package verdict maps verdict strings and evidence stances to the
// categories the interface renders.
package verdict

import "strings"

// Style is the visual category of a verdict
type Style int

const (
	StyleNeutral Style = iota
	StylePositive
	StyleNegative
)

func (s Style) String() string {
	switch s {
	case StylePositive:
		return "positive"
	case StyleNegative:
		return "negative"
	default:
		return "neutral"
	}
}

// Icon returns the glyph shown next to the verdict
func (s Style) Icon() string {
	switch s {
	case StylePositive:
		return "✓"
	case StyleNegative:
		return "✗"
	default:
		return "?"
	}
}

// Label is a short description of the category
func (s Style) Label() string {
	switch s {
	case StylePositive:
		return "Supported"
	case StyleNegative:
		return "Refuted"
	default:
		return "Uncertain"
	}
}

// Classify picks the style for a verdict by case-insensitive substring match.
// "true", "verified" and "accurate" are positive; "false", "misleading" and
// "inaccurate" are negative; anything else is neutral. "inaccurate" is tested
// first since it contains "accurate".
func Classify(v string) Style {
	lower := strings.ToLower(v)

	if strings.Contains(lower, "inaccurate") {
		return StyleNegative
	}
	for _, word := range []string{"true", "verified", "accurate"} {
		if strings.Contains(lower, word) {
			return StylePositive
		}
	}
	for _, word := range []string{"false", "misleading"} {
		if strings.Contains(lower, word) {
			return StyleNegative
		}
	}
	return StyleNeutral
}

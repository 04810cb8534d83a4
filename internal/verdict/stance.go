package verdict

import (
	"fmt"

	"github.com/mcao2/truthlens/internal/api"
)

// Stance is the canonical relation of one evidence item to the claim
type Stance int

const (
	StanceUnknown Stance = iota
	StanceSupporting
	StanceNeutral
	StanceContradicting
	StanceUnrelated
)

func (s Stance) String() string {
	switch s {
	case StanceSupporting:
		return "supporting"
	case StanceNeutral:
		return "neutral"
	case StanceContradicting:
		return "contradicting"
	case StanceUnrelated:
		return "unrelated"
	default:
		return "unknown"
	}
}

// Vocabulary is one set of stance labels. The client and backend label sets
// are kept apart; a label from one is unknown to the other.
type Vocabulary struct {
	Name   string
	labels map[string]Stance
}

var (
	// VocabularyClient is supporting / neutral / contradicting
	VocabularyClient = Vocabulary{
		Name: "client",
		labels: map[string]Stance{
			"supporting":    StanceSupporting,
			"neutral":       StanceNeutral,
			"contradicting": StanceContradicting,
		},
	}

	// VocabularyBackend is SUPPORTS / DISCUSS / REFUTES / UNRELATED
	VocabularyBackend = Vocabulary{
		Name: "backend",
		labels: map[string]Stance{
			"SUPPORTS":  StanceSupporting,
			"DISCUSS":   StanceNeutral,
			"REFUTES":   StanceContradicting,
			"UNRELATED": StanceUnrelated,
		},
	}
)

// VocabularyByName returns the vocabulary selected in config
func VocabularyByName(name string) (Vocabulary, error) {
	switch name {
	case "", VocabularyClient.Name:
		return VocabularyClient, nil
	case VocabularyBackend.Name:
		return VocabularyBackend, nil
	default:
		return Vocabulary{}, fmt.Errorf("unknown stance vocabulary %q", name)
	}
}

// Parse maps a label to its canonical stance. Labels match exactly.
func (v Vocabulary) Parse(label string) Stance {
	if s, ok := v.labels[label]; ok {
		return s
	}
	return StanceUnknown
}

// Reliability is a display heuristic for the evidence chart, not a trust
// score: supporting 85, neutral 50, anything else 30.
func (v Vocabulary) Reliability(label string) int {
	switch v.Parse(label) {
	case StanceSupporting:
		return 85
	case StanceNeutral:
		return 50
	default:
		return 30
	}
}

// Reliability applies the display heuristic with the client vocabulary
func Reliability(stance string) int {
	return VocabularyClient.Reliability(stance)
}

// Summarize counts evidence per stance. Unknown labels count as unrelated.
func Summarize(evidence []api.Evidence, v Vocabulary) api.StanceSummary {
	var s api.StanceSummary
	for _, e := range evidence {
		switch v.Parse(e.Stance) {
		case StanceSupporting:
			s.Supports++
		case StanceContradicting:
			s.Refutes++
		case StanceNeutral:
			s.Discuss++
		default:
			s.Unrelated++
		}
	}
	return s
}

// SummaryFor prefers the backend's counts and falls back to Summarize
func SummaryFor(r *api.AnalyzeResponse, v Vocabulary) api.StanceSummary {
	if r == nil {
		return api.StanceSummary{}
	}
	if r.StanceSummary != nil {
		return *r.StanceSummary
	}
	return Summarize(r.Evidence, v)
}

// Bar is one entry of the evidence reliability chart
type Bar struct {
	Source      string
	Title       string
	Stance      Stance
	Reliability int
}

// Bars builds the chart rows for evidence, in order
func Bars(evidence []api.Evidence, v Vocabulary) []Bar {
	bars := make([]Bar, 0, len(evidence))
	for _, e := range evidence {
		source := e.Source
		if source == "" {
			source = e.Domain
		}
		bars = append(bars, Bar{
			Source:      source,
			Title:       e.Title,
			Stance:      v.Parse(e.Stance),
			Reliability: v.Reliability(e.Stance),
		})
	}
	return bars
}

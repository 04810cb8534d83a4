package ui

import (
	"strings"
	"testing"

	"github.com/mcao2/truthlens/internal/api"
	"github.com/mcao2/truthlens/internal/verdict"
)

func sampleResult() *api.AnalyzeResponse {
	return &api.AnalyzeResponse{
		Claim:       "Coffee cures cancer",
		Verdict:     "Inaccurate",
		Confidence:  "medium",
		Explanation: "Studies show no causal link.",
		DomainTrust: &api.DomainTrust{Domain: "example.com", Score: "42"},
		FactCheck:   &api.FactCheck{Found: true, Rating: "False", Summary: "Debunked in 2021", Source: "Snopes"},
		Evidence: []api.Evidence{
			{Title: "Meta-analysis", Source: "Lancet", Stance: "contradicting"},
			{Title: "Blog post", Domain: "blog.example", Stance: "supporting"},
		},
	}
}

func TestResultView_Render(t *testing.T) {
	rv := NewResultView(Themes["default"], verdict.VocabularyClient)
	out := rv.Render("", sampleResult(), 100)

	for _, want := range []string{
		"✗ INACCURATE",
		"Refuted",
		"Coffee cures cancer",
		"confidence: medium",
		"domain trust: 42 (example.com)",
		"Fact-check: False",
		"Lancet",
		"blog.example",
		"85%",
		"30%",
		"1 supporting",
		"1 refuting",
		heuristicNote,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered result missing %q", want)
		}
	}
}

func TestResultView_NoEvidence(t *testing.T) {
	rv := NewResultView(Themes["nord"], verdict.VocabularyClient)
	out := rv.Render("claim", &api.AnalyzeResponse{Verdict: "Unverifiable"}, 80)

	if !strings.Contains(out, "? UNVERIFIABLE") {
		t.Errorf("expected neutral verdict headline, got:\n%s", out)
	}
	if !strings.Contains(out, "No evidence") {
		t.Error("expected empty evidence note")
	}
	if rv.Render("claim", nil, 80) != "" {
		t.Error("nil result should render nothing")
	}
}

func TestResultView_BackendVocabulary(t *testing.T) {
	rv := NewResultView(Themes["default"], verdict.VocabularyBackend)
	r := &api.AnalyzeResponse{
		Verdict:  "True",
		Evidence: []api.Evidence{{Title: "x", Source: "s", Stance: "SUPPORTS"}},
	}
	if out := rv.Render("c", r, 100); !strings.Contains(out, "85%") {
		t.Errorf("expected SUPPORTS to score 85 with the backend vocabulary:\n%s", out)
	}
}

func TestResultSummary(t *testing.T) {
	got := ResultSummary("", sampleResult(), verdict.VocabularyClient)

	for _, want := range []string{
		"Claim: Coffee cures cancer\n",
		"Verdict: Inaccurate (Refuted)\n",
		"Confidence: medium\n",
		"Domain trust: 42\n",
		"Fact-check: False Debunked in 2021\n",
		"Studies show no causal link.",
		"- [contradicting] Meta-analysis (Lancet)\n",
		"- [supporting] Blog post (blog.example)\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}

	if ResultSummary("c", nil, verdict.VocabularyClient) != "" {
		t.Error("nil result should produce empty summary")
	}
}

func TestGetThemeNames(t *testing.T) {
	names := GetThemeNames()
	if len(names) != len(Themes) {
		t.Fatalf("expected %d names, got %d", len(Themes), len(names))
	}
	if names[0] != "default" {
		t.Errorf("expected default first, got %q", names[0])
	}
	for _, n := range names {
		if Themes[n].Name != n {
			t.Errorf("theme %q has name %q", n, Themes[n].Name)
		}
	}
}

package verdict

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mcao2/truthlens/internal/api"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		verdict string
		want    Style
	}{
		{"TRUE", StylePositive},
		{"Verified", StylePositive},
		{"Accurate", StylePositive},
		{"Likely True", StylePositive},
		{"False", StyleNegative},
		{"Misleading", StyleNegative},
		{"INACCURATE", StyleNegative},
		{"Likely False", StyleNegative},
		{"Mostly inaccurate", StyleNegative},
		{"", StyleNeutral},
		{"Unclear", StyleNeutral},
		{"Needs More Verification", StyleNeutral},
	}

	for _, tt := range tests {
		t.Run(tt.verdict, func(t *testing.T) {
			if got := Classify(tt.verdict); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.verdict, got, tt.want)
			}
		})
	}
}

func TestClassifyAbsentVerdict(t *testing.T) {
	var r api.AnalyzeResponse
	if got := Classify(r.Verdict); got != StyleNeutral {
		t.Errorf("absent verdict should be neutral, got %v", got)
	}
}

func TestReliability(t *testing.T) {
	tests := []struct {
		stance string
		want   int
	}{
		{"supporting", 85},
		{"neutral", 50},
		{"contradicting", 30},
		{"SUPPORTS", 30},
		{"bogus", 30},
		{"", 30},
	}

	for _, tt := range tests {
		t.Run(tt.stance, func(t *testing.T) {
			if got := Reliability(tt.stance); got != tt.want {
				t.Errorf("Reliability(%q) = %d, want %d", tt.stance, got, tt.want)
			}
		})
	}
}

func TestVocabulariesAreNotMerged(t *testing.T) {
	if VocabularyClient.Parse("SUPPORTS") != StanceUnknown {
		t.Error("client vocabulary must not accept backend labels")
	}
	if VocabularyBackend.Parse("supporting") != StanceUnknown {
		t.Error("backend vocabulary must not accept client labels")
	}

	tests := []struct {
		label string
		want  int
	}{
		{"SUPPORTS", 85},
		{"DISCUSS", 50},
		{"REFUTES", 30},
		{"UNRELATED", 30},
	}
	for _, tt := range tests {
		if got := VocabularyBackend.Reliability(tt.label); got != tt.want {
			t.Errorf("backend Reliability(%q) = %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestVocabularyByName(t *testing.T) {
	v, err := VocabularyByName("backend")
	if err != nil || v.Name != "backend" {
		t.Errorf("expected backend vocabulary, got %v %v", v.Name, err)
	}
	v, err = VocabularyByName("")
	if err != nil || v.Name != "client" {
		t.Errorf("expected client default, got %v %v", v.Name, err)
	}
	if _, err := VocabularyByName("mixed"); err == nil {
		t.Error("expected error for unknown vocabulary")
	}
}

func TestSummarizeAndBars(t *testing.T) {
	evidence := []api.Evidence{
		{Title: "a", Source: "Reuters", Stance: "supporting"},
		{Title: "b", Domain: "blog.example", Stance: "contradicting"},
		{Title: "c", Source: "AP", Stance: "neutral"},
		{Title: "d", Source: "X", Stance: "REFUTES"},
	}

	got := Summarize(evidence, VocabularyClient)
	want := api.StanceSummary{Supports: 1, Refutes: 1, Discuss: 1, Unrelated: 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}

	bars := Bars(evidence, VocabularyClient)
	wantBars := []Bar{
		{Source: "Reuters", Title: "a", Stance: StanceSupporting, Reliability: 85},
		{Source: "blog.example", Title: "b", Stance: StanceContradicting, Reliability: 30},
		{Source: "AP", Title: "c", Stance: StanceNeutral, Reliability: 50},
		{Source: "X", Title: "d", Stance: StanceUnknown, Reliability: 30},
	}
	if diff := cmp.Diff(wantBars, bars); diff != "" {
		t.Errorf("bars mismatch (-want +got):\n%s", diff)
	}
}

func TestSummaryForPrefersBackendCounts(t *testing.T) {
	r := &api.AnalyzeResponse{
		Verdict:       "Misleading",
		Evidence:      []api.Evidence{{Stance: "supporting"}},
		StanceSummary: &api.StanceSummary{Refutes: 4},
	}
	if got := SummaryFor(r, VocabularyClient); got.Refutes != 4 || got.Supports != 0 {
		t.Errorf("expected backend counts, got %+v", got)
	}

	r.StanceSummary = nil
	if got := SummaryFor(r, VocabularyClient); got.Supports != 1 {
		t.Errorf("expected computed counts, got %+v", got)
	}
	if got := SummaryFor(nil, VocabularyClient); got.Total() != 0 {
		t.Errorf("nil result should give empty summary, got %+v", got)
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TrustScore is a domain trust score that the API may send as a string
// ("high", "0.8") or as a bare number
type TrustScore string

// UnmarshalJSON accepts a JSON string, number or null
func (s *TrustScore) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = TrustScore(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unable to parse trust score: %s", string(data))
	}
	*s = TrustScore(n.String())
	return nil
}

// Float returns the numeric score when the value is numeric
func (s TrustScore) Float() (float64, bool) {
	f, err := strconv.ParseFloat(string(s), 64)
	return f, err == nil
}

// FlexibleTime parses the timestamp layouts the backend emits
type FlexibleTime struct {
	time.Time
}

// UnmarshalJSON implements custom JSON unmarshaling for FlexibleTime
func (ft *FlexibleTime) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	if str == "" || str == "null" {
		return nil
	}

	formats := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, str); err == nil {
			ft.Time = t
			return nil
		}
	}

	return fmt.Errorf("unable to parse time: %s", str)
}

// MarshalJSON implements custom JSON marshaling
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	if ft.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("\"%s\"", ft.Format(time.RFC3339))), nil
}

// Credentials is the login and register payload
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by /auth/login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is returned by /auth/register
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// Profile is returned by /auth/me
type Profile struct {
	ID            int          `json:"id"`
	Email         string       `json:"email"`
	MemberSince   FlexibleTime `json:"member_since"`
	TotalAnalyses int          `json:"total_analyses"`
}

// ExtractRequest asks the backend for the primary claim. Exactly one of
// Text or URL is set.
type ExtractRequest struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// ExtractResponse carries the proposed claim. PrimaryClaim may be null.
type ExtractResponse struct {
	PrimaryClaim *string  `json:"primary_claim"`
	Candidates   []string `json:"candidates,omitempty"`
	Message      string   `json:"message,omitempty"`
}

// Claim returns the primary claim, or "" when none was found
func (r *ExtractResponse) Claim() string {
	if r == nil || r.PrimaryClaim == nil {
		return ""
	}
	return *r.PrimaryClaim
}

// AnalyzeRequest runs the full verification pipeline
type AnalyzeRequest struct {
	Text     string `json:"text,omitempty"`
	URL      string `json:"url,omitempty"`
	Language string `json:"language,omitempty"`
}

// DomainTrust describes the reputation of the source domain
type DomainTrust struct {
	Domain   string     `json:"domain"`
	Score    TrustScore `json:"score"`
	Category string     `json:"category,omitempty"`
}

// FactCheck is a matching published fact-check, if any
type FactCheck struct {
	Found   bool   `json:"found"`
	Rating  string `json:"rating,omitempty"`
	Summary string `json:"summary,omitempty"`
	Source  string `json:"source,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Evidence is one search result classified against the claim
type Evidence struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	Source      string `json:"source,omitempty"`
	Domain      string `json:"domain,omitempty"`
	Stance      string `json:"stance"`
	Snippet     string `json:"snippet,omitempty"`
}

// StanceSummary counts evidence per backend stance label
type StanceSummary struct {
	Supports  int `json:"supports"`
	Refutes   int `json:"refutes"`
	Discuss   int `json:"discuss"`
	Unrelated int `json:"unrelated"`
}

// Total returns the number of classified evidence items
func (s StanceSummary) Total() int {
	return s.Supports + s.Refutes + s.Discuss + s.Unrelated
}

// AnalyzeResponse is the verification result. It is validated once when
// decoded; code past the client can rely on Verdict being set.
type AnalyzeResponse struct {
	Claim         string         `json:"claim,omitempty"`
	Verdict       string         `json:"verdict"`
	Confidence    string         `json:"confidence"`
	Explanation   string         `json:"explanation"`
	DomainTrust   *DomainTrust   `json:"domain_trust,omitempty"`
	FactCheck     *FactCheck     `json:"factcheck,omitempty"`
	Evidence      []Evidence     `json:"evidence"`
	Claims        []string       `json:"claims,omitempty"`
	StanceSummary *StanceSummary `json:"stance_summary,omitempty"`
}

// Validate checks the fields the rest of the program depends on. A verdict
// is required; it is what marks a stored record as an analysis result.
// Evidence stances are free-form and unknown or empty ones display with the
// lowest reliability.
func (r *AnalyzeResponse) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if strings.TrimSpace(r.Verdict) == "" {
		return fmt.Errorf("%w: missing verdict", ErrMalformedResponse)
	}
	return nil
}

// HistoryItem is one row of the server-side history list
type HistoryItem struct {
	ID          int          `json:"id"`
	Claim       string       `json:"claim"`
	Verdict     string       `json:"verdict"`
	Confidence  string       `json:"confidence"`
	Explanation string       `json:"explanation"`
	CreatedAt   FlexibleTime `json:"created_at"`
}

// historyPage is the paginated envelope some backend versions return
type historyPage struct {
	Items []HistoryItem `json:"items"`
	Total int           `json:"total"`
}

// HistoryDetail is the full stored record for one check
type HistoryDetail struct {
	ID               int           `json:"id"`
	InputText        string        `json:"input_text"`
	InputURL         string        `json:"input_url"`
	Claim            string        `json:"claim"`
	Verdict          string        `json:"verdict"`
	Confidence       string        `json:"confidence"`
	Explanation      string        `json:"explanation"`
	DomainScore      TrustScore    `json:"domain_score"`
	FactcheckRating  string        `json:"factcheck_rating"`
	FactcheckSummary string        `json:"factcheck_summary"`
	StanceSummary    *StoredStance `json:"stance_summary"`
	CreatedAt        FlexibleTime  `json:"created_at"`
}

// StoredStance is the stance record kept with a history item. The backend
// stores {"counts": {"SUPPORTS": n, ...}, "weighted": {...},
// "total_articles": n}; the flat StanceSummary layout is accepted too.
type StoredStance struct {
	Counts        StanceSummary
	TotalArticles int
}

// UnmarshalJSON accepts the nested counts record or a flat summary
func (s *StoredStance) UnmarshalJSON(data []byte) error {
	var nested struct {
		Counts        map[string]int `json:"counts"`
		TotalArticles int            `json:"total_articles"`
	}
	if err := json.Unmarshal(data, &nested); err != nil {
		return err
	}
	*s = StoredStance{}
	if nested.Counts != nil {
		for label, n := range nested.Counts {
			switch strings.ToUpper(strings.TrimSpace(label)) {
			case "SUPPORTS":
				s.Counts.Supports += n
			case "REFUTES":
				s.Counts.Refutes += n
			case "DISCUSS":
				s.Counts.Discuss += n
			default:
				s.Counts.Unrelated += n
			}
		}
		s.TotalArticles = nested.TotalArticles
		return nil
	}

	if err := json.Unmarshal(data, &s.Counts); err != nil {
		return err
	}
	s.TotalArticles = s.Counts.Total()
	return nil
}

// Result rebuilds an AnalyzeResponse from the stored record. Evidence is not
// persisted server-side, so the result has none.
func (d *HistoryDetail) Result() *AnalyzeResponse {
	r := &AnalyzeResponse{
		Claim:       d.Claim,
		Verdict:     d.Verdict,
		Confidence:  d.Confidence,
		Explanation: d.Explanation,
	}
	if d.StanceSummary != nil {
		counts := d.StanceSummary.Counts
		r.StanceSummary = &counts
	}
	if d.DomainScore != "" {
		r.DomainTrust = &DomainTrust{Score: d.DomainScore}
	}
	if d.FactcheckRating != "" || d.FactcheckSummary != "" {
		r.FactCheck = &FactCheck{
			Found:   true,
			Rating:  d.FactcheckRating,
			Summary: d.FactcheckSummary,
		}
	}
	return r
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

// mockHTTPClient is a test double for HTTPClient
type mockHTTPClient struct {
	responses []*http.Response
	errors    []error
	callCount int
	requests  []*http.Request
	bodies    []string
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	body := ""
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, body)
	defer func() { m.callCount++ }()
	if m.callCount < len(m.errors) && m.errors[m.callCount] != nil {
		return nil, m.errors[m.callCount]
	}
	if m.callCount < len(m.responses) {
		return m.responses[m.callCount], nil
	}
	return nil, io.EOF
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

// memTokens is an in-memory TokenStore
type memTokens struct {
	token   string
	cleared int
}

func (m *memTokens) Token() string               { return m.token }
func (m *memTokens) SetToken(token string) error { m.token = token; return nil }
func (m *memTokens) ClearToken() error           { m.token = ""; m.cleared++; return nil }

func newTestClient(t *testing.T, mock *mockHTTPClient, tokens *memTokens) *Client {
	t.Helper()
	client, err := NewClient("http://api.test",
		WithHTTPClient(mock),
		WithTokenStore(tokens),
		WithRetry(3, 0),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client
}

const analyzeBody = `{
	"claim": "Vaccines cause autism",
	"verdict": "Likely False",
	"confidence": "high",
	"domain_trust": {"domain": "example.com", "score": 72, "category": "news"},
	"factcheck": {"found": true, "rating": "False", "summary": "Debunked", "source": "Snopes", "url": "https://snopes.com/x"},
	"evidence": [
		{"title": "Study finds no link", "description": "Large cohort", "url": "https://a.example", "source": "Journal", "stance": "REFUTES"}
	],
	"stance_summary": {"supports": 0, "refutes": 1, "discuss": 0, "unrelated": 0},
	"explanation": "Multiple studies found no link."
}`

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
		want    string
	}{
		{name: "default", baseURL: "", want: "http://localhost:8000"},
		{name: "trailing slash trimmed", baseURL: "https://verify.example.com/", want: "https://verify.example.com"},
		{name: "no scheme", baseURL: "verify.example.com", wantErr: true},
		{name: "unsupported scheme", baseURL: "ftp://verify.example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.baseURL)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client.BaseURL() != tt.want {
				t.Errorf("expected base URL %s, got %s", tt.want, client.BaseURL())
			}
		})
	}
}

func TestNewInput(t *testing.T) {
	tests := []struct {
		raw      string
		wantURL  string
		wantText string
	}{
		{raw: "https://news.example.com/story", wantURL: "https://news.example.com/story"},
		{raw: "  http://news.example.com/story \n", wantURL: "http://news.example.com/story"},
		{raw: "Vaccines cause autism", wantText: "Vaccines cause autism"},
		{raw: "see https://example.com", wantText: "see https://example.com"},
		{raw: "  padded text  ", wantText: "  padded text  "},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			in := NewInput(tt.raw)
			if in.URL != tt.wantURL || in.Text != tt.wantText {
				t.Errorf("NewInput(%q) = %+v", tt.raw, in)
			}
			if in.IsURL() != (tt.wantURL != "") {
				t.Errorf("IsURL mismatch for %q", tt.raw)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	mock := &mockHTTPClient{responses: []*http.Response{jsonResponse(200, analyzeBody)}}
	tokens := &memTokens{token: "tok-123"}
	client := newTestClient(t, mock, tokens)

	resp, err := client.Analyze(context.Background(), AnalyzeRequest{Text: "Vaccines cause autism"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if resp.Verdict != "Likely False" {
		t.Errorf("expected verdict Likely False, got %s", resp.Verdict)
	}
	if resp.DomainTrust == nil || resp.DomainTrust.Score != "72" {
		t.Errorf("expected numeric trust score decoded as 72, got %+v", resp.DomainTrust)
	}
	if len(resp.Evidence) != 1 || resp.Evidence[0].Stance != "REFUTES" {
		t.Errorf("unexpected evidence: %+v", resp.Evidence)
	}

	req := mock.requests[0]
	if req.URL.Path != "/api/v1/analyze" || req.Method != http.MethodPost {
		t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
	}
	if got := req.Header.Get("Authorization"); got != "Bearer tok-123" {
		t.Errorf("expected bearer header, got %q", got)
	}

	var sent AnalyzeRequest
	if err := json.Unmarshal([]byte(mock.bodies[0]), &sent); err != nil {
		t.Fatalf("request body not JSON: %v", err)
	}
	if sent.Text != "Vaccines cause autism" || sent.Language != "en" {
		t.Errorf("unexpected request body: %+v", sent)
	}
}

func TestAnalyzeRejectsMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing verdict", `{"confidence":"low","evidence":[]}`},
		{"blank verdict", `{"verdict":"  ","evidence":[]}`},
		{"not json", `<html>oops</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockHTTPClient{responses: []*http.Response{jsonResponse(200, tt.body)}}
			client := newTestClient(t, mock, &memTokens{token: "t"})

			_, err := client.Analyze(context.Background(), AnalyzeRequest{Text: "x"})
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestAnalyzeAcceptsEvidenceWithoutStance(t *testing.T) {
	body := `{"verdict":"Misleading","evidence":[{"title":"x"},{"title":"y","stance":"SOMETHING"}]}`
	mock := &mockHTTPClient{responses: []*http.Response{jsonResponse(200, body)}}
	client := newTestClient(t, mock, &memTokens{token: "t"})

	resp, err := client.Analyze(context.Background(), AnalyzeRequest{Text: "x"})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(resp.Evidence) != 2 || resp.Evidence[0].Stance != "" {
		t.Errorf("unexpected evidence %+v", resp.Evidence)
	}
}

func TestUnauthorizedClearsToken(t *testing.T) {
	mock := &mockHTTPClient{responses: []*http.Response{
		jsonResponse(401, `{"detail":"Could not validate credentials"}`),
	}}
	tokens := &memTokens{token: "expired"}
	client := newTestClient(t, mock, tokens)

	_, err := client.ExtractClaim(context.Background(), ExtractRequest{Text: "x"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if tokens.token != "" || tokens.cleared != 1 {
		t.Errorf("expected token cleared once, got %q (%d)", tokens.token, tokens.cleared)
	}
	if mock.callCount != 1 {
		t.Errorf("401 must not be retried, got %d calls", mock.callCount)
	}
}

func TestLogin(t *testing.T) {
	mock := &mockHTTPClient{responses: []*http.Response{
		jsonResponse(200, `{"access_token":"new-token","token_type":"bearer"}`),
	}}
	tokens := &memTokens{}
	client := newTestClient(t, mock, tokens)

	if _, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "pw"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if tokens.token != "new-token" {
		t.Errorf("expected token stored, got %q", tokens.token)
	}
	if mock.requests[0].Header.Get("Authorization") != "" {
		t.Error("login must not send a bearer token")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	mock := &mockHTTPClient{responses: []*http.Response{
		jsonResponse(401, `{"detail":"Invalid email or password"}`),
	}}
	tokens := &memTokens{token: "previous"}
	client := newTestClient(t, mock, tokens)

	_, err := client.Login(context.Background(), Credentials{Email: "a@b.c", Password: "bad"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if err.Error() != "Login failed: Invalid email or password" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if tokens.cleared != 0 {
		t.Error("a failed login must not clear the session")
	}
}

func TestAPIErrorDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Email already registered"}`, "Email already registered"},
		{"validation list", `{"detail":[{"msg":"field required"},{"msg":"value is not a valid email"}]}`, "field required; value is not a valid email"},
		{"empty body", ``, "API request failed"},
		{"no detail", `{"error":"x"}`, "API request failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockHTTPClient{responses: []*http.Response{jsonResponse(400, tt.body)}}
			client := newTestClient(t, mock, &memTokens{})

			_, err := client.Register(context.Background(), Credentials{Email: "a@b.c", Password: "pw"})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T %v", err, err)
			}
			if apiErr.StatusCode != 400 {
				t.Errorf("expected status 400, got %d", apiErr.StatusCode)
			}
			if err.Error() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestRetryOnServerError(t *testing.T) {
	mock := &mockHTTPClient{
		responses: []*http.Response{
			jsonResponse(503, `{"detail":"busy"}`),
			nil,
			jsonResponse(200, analyzeBody),
		},
		errors: []error{nil, fmt.Errorf("connection reset"), nil},
	}
	client := newTestClient(t, mock, &memTokens{token: "t"})

	resp, err := client.Analyze(context.Background(), AnalyzeRequest{Text: "x"})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if resp.Verdict != "Likely False" {
		t.Errorf("unexpected verdict %s", resp.Verdict)
	}
	if mock.callCount != 3 {
		t.Errorf("expected 3 calls, got %d", mock.callCount)
	}
	for i, body := range mock.bodies {
		if body == "" {
			t.Errorf("attempt %d sent an empty body", i+1)
		}
	}
}

func TestRetryExhausted(t *testing.T) {
	mock := &mockHTTPClient{responses: []*http.Response{
		jsonResponse(500, `{}`),
		jsonResponse(500, `{}`),
		jsonResponse(500, `{"detail":"pipeline crashed"}`),
	}}
	client := newTestClient(t, mock, &memTokens{token: "t"})

	_, err := client.Analyze(context.Background(), AnalyzeRequest{Text: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Detail != "pipeline crashed" {
		t.Errorf("expected wrapped APIError from last attempt, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	mock := &mockHTTPClient{errors: []error{context.Canceled}}
	client := newTestClient(t, mock, &memTokens{token: "t"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Analyze(ctx, AnalyzeRequest{Text: "x"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if mock.callCount > 1 {
		t.Errorf("canceled request was retried %d times", mock.callCount)
	}
}

func TestHistoryPagination(t *testing.T) {
	const total = 60
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer t" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		var items []HistoryItem
		for i := skip; i < total && i < skip+limit; i++ {
			items = append(items, HistoryItem{ID: i + 1, Claim: fmt.Sprintf("claim %d", i+1), Verdict: "Misleading"})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"items": items, "total": total})
	}))
	defer server.Close()

	client, err := NewClient(server.URL, WithTokenStore(&memTokens{token: "t"}))
	if err != nil {
		t.Fatal(err)
	}

	items, err := client.History(context.Background())
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(items) != total {
		t.Fatalf("expected %d items, got %d", total, len(items))
	}
	if items[0].ID != 1 || items[total-1].ID != total {
		t.Errorf("unexpected ordering: first %d last %d", items[0].ID, items[total-1].ID)
	}
}

func TestHistoryBareArray(t *testing.T) {
	body := `[{"id":7,"claim":"Earth is flat","verdict":"Likely False","confidence":"high","explanation":"","created_at":"2024-05-01T10:00:00"}]`
	mock := &mockHTTPClient{responses: []*http.Response{jsonResponse(200, body)}}
	client := newTestClient(t, mock, &memTokens{token: "t"})

	items, err := client.History(context.Background())
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != 7 {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].CreatedAt.Year() != 2024 {
		t.Errorf("created_at not parsed: %v", items[0].CreatedAt)
	}
	if mock.callCount != 1 {
		t.Errorf("bare array must not paginate, got %d calls", mock.callCount)
	}
}

func TestDeleteHistory(t *testing.T) {
	mock := &mockHTTPClient{responses: []*http.Response{
		{StatusCode: 204, Body: io.NopCloser(bytes.NewReader(nil))},
		{StatusCode: 204, Body: io.NopCloser(bytes.NewReader(nil))},
		jsonResponse(404, `{"detail":"Check not found"}`),
	}}
	client := newTestClient(t, mock, &memTokens{token: "t"})
	ctx := context.Background()

	if err := client.DeleteHistoryItem(ctx, 3); err != nil {
		t.Fatalf("DeleteHistoryItem failed: %v", err)
	}
	if mock.requests[0].Method != http.MethodDelete || mock.requests[0].URL.Path != "/api/v1/history/3" {
		t.Errorf("unexpected request %s %s", mock.requests[0].Method, mock.requests[0].URL.Path)
	}
	if err := client.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
	if err := client.DeleteHistoryItem(ctx, 99); !IsStatus(err, http.StatusNotFound) {
		t.Errorf("expected 404 APIError, got %v", err)
	}
}

func TestHistoryDetailResult(t *testing.T) {
	body := `{"id":3,"claim":"Coffee cures cancer","input_text":"Coffee cures cancer","input_url":null,
		"verdict":"Likely False","confidence":"medium","explanation":"No evidence.",
		"domain_score":"low","factcheck_rating":"False","factcheck_summary":"Not supported",
		"stance_summary":{"supports":0,"refutes":2,"discuss":1,"unrelated":0},"created_at":"2024-05-01T10:00:00.123456"}`
	mock := &mockHTTPClient{responses: []*http.Response{jsonResponse(200, body)}}
	client := newTestClient(t, mock, &memTokens{token: "t"})

	detail, err := client.HistoryItem(context.Background(), 3)
	if err != nil {
		t.Fatalf("HistoryItem failed: %v", err)
	}

	result := detail.Result()
	if err := result.Validate(); err != nil {
		t.Fatalf("converted result invalid: %v", err)
	}
	if result.DomainTrust == nil || result.DomainTrust.Score != "low" {
		t.Errorf("unexpected domain trust %+v", result.DomainTrust)
	}
	if result.FactCheck == nil || result.FactCheck.Rating != "False" {
		t.Errorf("unexpected factcheck %+v", result.FactCheck)
	}
	if result.StanceSummary == nil || result.StanceSummary.Total() != 3 {
		t.Errorf("unexpected stance summary %+v", result.StanceSummary)
	}
}

func TestHistoryDetailStoredStance(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  *StanceSummary
	}{
		{
			name:  "backend weighted record",
			field: `{"counts":{"SUPPORTS":2,"REFUTES":3,"DISCUSS":0,"UNRELATED":1},"weighted":{"supports":1.5,"refutes":2.1},"total_articles":6}`,
			want:  &StanceSummary{Supports: 2, Refutes: 3, Discuss: 0, Unrelated: 1},
		},
		{
			name:  "flat summary",
			field: `{"supports":1,"refutes":0,"discuss":2,"unrelated":0}`,
			want:  &StanceSummary{Supports: 1, Discuss: 2},
		},
		{
			name:  "null",
			field: `null`,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"id":4,"claim":"c","verdict":"True","stance_summary":` + tt.field + `}`
			var detail HistoryDetail
			if err := json.Unmarshal([]byte(body), &detail); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			got := detail.Result().StanceSummary
			if tt.want == nil {
				if got != nil {
					t.Errorf("expected no summary, got %+v", got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("summary = %+v, want %+v", got, tt.want)
			}
		})
	}

	var detail HistoryDetail
	body := `{"id":4,"stance_summary":{"counts":{"SUPPORTS":2,"REFUTES":3,"DISCUSS":0,"UNRELATED":1},"total_articles":6}}`
	if err := json.Unmarshal([]byte(body), &detail); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if detail.StanceSummary.TotalArticles != 6 {
		t.Errorf("total_articles = %d", detail.StanceSummary.TotalArticles)
	}
}

func TestTrustScoreUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		want    TrustScore
		wantNum bool
	}{
		{`"high"`, "high", false},
		{`"0.85"`, "0.85", true},
		{`72`, "72", true},
		{`0.5`, "0.5", true},
		{`null`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var s TrustScore
			if err := json.Unmarshal([]byte(tt.in), &s); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if s != tt.want {
				t.Errorf("expected %q, got %q", tt.want, s)
			}
			if _, ok := s.Float(); ok != tt.wantNum {
				t.Errorf("Float ok = %v, want %v", ok, tt.wantNum)
			}
		})
	}

	var s TrustScore
	if err := json.Unmarshal([]byte(`{"x":1}`), &s); err == nil {
		t.Error("expected error for object score")
	}
}

func TestRateLimitOption(t *testing.T) {
	client, err := NewClient("", WithRateLimit(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if client.limiter != nil {
		t.Error("rps 0 should disable limiting")
	}

	client, err = NewClient("", WithRateLimit(2, 0))
	if err != nil {
		t.Fatal(err)
	}
	if client.limiter == nil || client.limiter.Burst() != 1 {
		t.Error("expected limiter with burst 1")
	}
}

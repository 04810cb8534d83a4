package api

import (
	"context"
	"net/http"
	"strings"
)

// Input is user input classified as a URL or free text
type Input struct {
	Text string
	URL  string
}

// NewInput treats input starting with http:// or https:// (after trimming)
// as a URL. Anything else is sent verbatim as text.
func NewInput(raw string) Input {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return Input{URL: trimmed}
	}
	return Input{Text: raw}
}

// IsURL reports whether the input is a URL
func (in Input) IsURL() bool {
	return in.URL != ""
}

// ExtractClaim asks the backend to propose the primary claim for input
func (c *Client) ExtractClaim(ctx context.Context, req ExtractRequest) (*ExtractResponse, error) {
	var resp ExtractResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/extract-claim",
		body:   req,
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Analyze runs the full verification pipeline. The response is validated
// before it is returned.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	if req.Language == "" {
		req.Language = c.language
	}

	var resp AnalyzeResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/v1/analyze",
		body:   req,
		auth:   true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if err := resp.Validate(); err != nil {
		return nil, err
	}
	return &resp, nil
}

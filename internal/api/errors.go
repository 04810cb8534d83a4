package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized means the session token was rejected. The stored token
	// has already been erased when this is returned.
	ErrUnauthorized = errors.New("Unauthorized")
	// ErrInvalidCredentials is returned by Login for a rejected email/password
	ErrInvalidCredentials = errors.New("Login failed")
	// ErrMalformedResponse means a 2xx body did not match the expected schema
	ErrMalformedResponse = errors.New("malformed response")
)

// defaultErrorDetail is shown when the server gives no detail
const defaultErrorDetail = "API request failed"

// APIError is a non-2xx response from the verification API
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return defaultErrorDetail
	}
	return e.Detail
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// parseAPIError reads the FastAPI error body. detail is either a string or a
// list of validation errors carrying a msg field.
func parseAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apiErr
	}

	var detail string
	if err := json.Unmarshal(envelope.Detail, &detail); err == nil {
		apiErr.Detail = detail
		return apiErr
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		var msgs []string
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		apiErr.Detail = strings.Join(msgs, "; ")
	}
	return apiErr
}

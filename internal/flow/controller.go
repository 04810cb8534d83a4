// Package flow drives the two-phase verification: extract a claim, let the
// user confirm or edit it, then analyze it.
package flow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mcao2/truthlens/internal/api"
	"github.com/mcao2/truthlens/internal/session"
	"github.com/mcao2/truthlens/internal/verdict"
)

type State int

const (
	StateIdle State = iota
	StateExtracting
	StateAwaitingConfirmation
	StateAnalyzing
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateExtracting:
		return "Extracting"
	case StateAwaitingConfirmation:
		return "AwaitingConfirmation"
	case StateAnalyzing:
		return "Analyzing"
	case StateCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

var (
	ErrEmptyInput = errors.New("enter a claim or a URL to verify")
	ErrEmptyClaim = errors.New("the claim to analyze is empty")
	ErrBusy       = errors.New("a verification is already in progress")
	ErrWrongState = errors.New("operation not allowed in the current state")
)

// DefaultAnalysisError is shown when an analysis failure carries no message
const DefaultAnalysisError = "Analysis failed. Please try again."

// Service is the part of the API client the controller calls
type Service interface {
	ExtractClaim(ctx context.Context, req api.ExtractRequest) (*api.ExtractResponse, error)
	Analyze(ctx context.Context, req api.AnalyzeRequest) (*api.AnalyzeResponse, error)
}

// Request is an in-flight network step. Its token ties the eventual result
// back to the step that started it.
type Request struct {
	Token uint64
	Input string
	Claim string
	ctx   context.Context
}

// Context is cancelled when the request is aborted or superseded
func (r *Request) Context() context.Context {
	return r.ctx
}

// ExtractionResult is the outcome of Extract
type ExtractionResult struct {
	Token    uint64
	Claim    string
	Fallback bool
	Err      error
}

// AnalysisResult is the outcome of Analyze
type AnalysisResult struct {
	Token  uint64
	Claim  string
	Result *api.AnalyzeResponse
	Err    error
}

// Snapshot is a consistent copy of the controller's visible state
type Snapshot struct {
	State        State
	Input        string
	Claim        string
	Result       *api.AnalyzeResponse
	Error        string
	Unauthorized bool
}

// Controller owns the verification state machine. Mutating methods are safe
// for concurrent use; Extract and Analyze only perform I/O and may run on
// any goroutine.
type Controller struct {
	svc         Service
	cache       *session.Cache
	logger      *zap.Logger
	base        context.Context
	timeout     time.Duration
	skipRestore bool

	mu           sync.Mutex
	state        State
	input        string
	claim        string
	result       *api.AnalyzeResponse
	errMsg       string
	unauthorized bool

	seq    uint64
	active uint64
	cancel context.CancelFunc
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithContext sets the parent context of every request
func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.base = ctx
		}
	}
}

// WithTimeout bounds each network step. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.timeout = d
	}
}

// WithoutRestore starts the controller Idle even when a result is cached
func WithoutRestore() Option {
	return func(c *Controller) {
		c.skipRestore = true
	}
}

// NewController creates a controller and restores a persisted result, if any
func NewController(svc Service, cache *session.Cache, opts ...Option) *Controller {
	c := &Controller{
		svc:    svc,
		cache:  cache,
		logger: zap.NewNop(),
		base:   context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.skipRestore {
		c.Restore()
	}
	return c
}

// Restore loads the cached result into the Completed state. It does nothing
// while a verification is in progress or when the cache is empty.
func (c *Controller) Restore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle && c.state != StateCompleted {
		return false
	}
	stored, ok := c.cache.CurrentResult()
	if !ok {
		return false
	}

	c.input = stored.Claim
	c.claim = stored.Claim
	c.result = stored.Result
	c.errMsg = ""
	c.unauthorized = false
	c.state = StateCompleted
	return true
}

// SetInput replaces the raw input while idle
func (c *Controller) SetInput(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrWrongState
	}
	c.input = text
	return nil
}

// Submit starts claim extraction for input
func (c *Controller) Submit(input string) (*Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return nil, ErrBusy
	}
	c.input = input
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	c.errMsg = ""
	c.unauthorized = false
	c.state = StateExtracting
	req := c.begin()
	req.Input = input
	return req, nil
}

// Extract calls the extraction endpoint. Any failure, or an empty proposal,
// falls back to the raw input; the error is logged, not surfaced.
func (c *Controller) Extract(req *Request) ExtractionResult {
	in := api.NewInput(req.Input)
	res := ExtractionResult{Token: req.Token, Claim: req.Input}

	resp, err := c.svc.ExtractClaim(req.ctx, api.ExtractRequest{Text: in.Text, URL: in.URL})
	if err != nil {
		c.logger.Debug("claim extraction failed, using raw input", zap.Error(err))
		res.Fallback = true
		res.Err = err
		return res
	}
	if claim := resp.Claim(); claim != "" {
		res.Claim = claim
	} else {
		res.Fallback = true
	}
	return res
}

// ApplyExtraction moves to AwaitingConfirmation. Results for a request that
// was aborted or superseded are discarded and false is returned.
func (c *Controller) ApplyExtraction(res ExtractionResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Token != c.active || c.state != StateExtracting {
		c.logger.Debug("discarding stale extraction", zap.Uint64("token", res.Token))
		return false
	}
	c.finish()
	c.claim = res.Claim
	c.state = StateAwaitingConfirmation
	return true
}

// EditClaim replaces the claim text awaiting confirmation
func (c *Controller) EditClaim(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAwaitingConfirmation {
		return ErrWrongState
	}
	c.claim = text
	return nil
}

// CancelConfirmation returns to Idle, discarding the claim but keeping the input
func (c *Controller) CancelConfirmation() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAwaitingConfirmation {
		return ErrWrongState
	}
	c.claim = ""
	c.errMsg = ""
	c.unauthorized = false
	c.state = StateIdle
	return nil
}

// Confirm starts analysis of the (possibly edited) claim
func (c *Controller) Confirm() (*Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateAwaitingConfirmation {
		return nil, ErrWrongState
	}
	if strings.TrimSpace(c.claim) == "" {
		return nil, ErrEmptyClaim
	}

	c.errMsg = ""
	c.unauthorized = false
	c.state = StateAnalyzing
	req := c.begin()
	req.Claim = c.claim
	return req, nil
}

// Analyze calls the analysis endpoint with the confirmed claim
func (c *Controller) Analyze(req *Request) AnalysisResult {
	resp, err := c.svc.Analyze(req.ctx, api.AnalyzeRequest{Text: req.Claim})
	if err == nil && resp == nil {
		err = errors.New(DefaultAnalysisError)
	}
	return AnalysisResult{Token: req.Token, Claim: req.Claim, Result: resp, Err: err}
}

// ApplyAnalysis moves to Completed on success, caching the result and
// recording it in history. On failure it returns to AwaitingConfirmation with
// an error message. Stale results are discarded and false is returned.
func (c *Controller) ApplyAnalysis(res AnalysisResult) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Token != c.active || c.state != StateAnalyzing {
		c.logger.Debug("discarding stale analysis", zap.Uint64("token", res.Token))
		return false
	}
	c.finish()

	if res.Err != nil {
		msg := res.Err.Error()
		if strings.TrimSpace(msg) == "" {
			msg = DefaultAnalysisError
		}
		c.errMsg = msg
		c.unauthorized = errors.Is(res.Err, api.ErrUnauthorized)
		c.state = StateAwaitingConfirmation
		c.logger.Info("analysis failed", zap.Error(res.Err))
		return true
	}

	c.result = res.Result
	c.state = StateCompleted

	if err := c.cache.SaveCurrentResult(res.Claim, res.Result); err != nil {
		c.logger.Warn("failed to cache result", zap.Error(err))
	}
	if _, err := c.cache.AddToHistory(res.Claim, res.Result); err != nil {
		c.logger.Warn("failed to record history", zap.Error(err))
	}
	return true
}

// Abort cancels the in-flight step. Extracting returns to Idle and Analyzing
// returns to AwaitingConfirmation.
func (c *Controller) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateExtracting:
		c.state = StateIdle
	case StateAnalyzing:
		c.state = StateAwaitingConfirmation
	default:
		return
	}
	c.finish()
}

// Reset clears the cached result and all fields and returns to Idle. Any
// in-flight step is cancelled.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.finish()
	c.state = StateIdle
	c.input = ""
	c.claim = ""
	c.result = nil
	c.errMsg = ""
	c.unauthorized = false

	return c.cache.ClearCurrentResult()
}

// begin cancels any in-flight step and issues a fresh token. Callers hold c.mu.
func (c *Controller) begin() *Request {
	c.finish()

	var ctx context.Context
	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(c.base, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(c.base)
	}

	c.seq++
	c.active = c.seq
	c.cancel = cancel
	return &Request{Token: c.active, ctx: ctx}
}

// finish releases the active token. Callers hold c.mu.
func (c *Controller) finish() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.active = 0
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

func (c *Controller) Claim() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.claim
}

func (c *Controller) Result() *api.AnalyzeResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// ErrorMessage is the message of the last failed analysis, or ""
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Unauthorized reports whether the last failure ended the session
func (c *Controller) Unauthorized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.unauthorized
}

// Snapshot returns all visible fields at once
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:        c.state,
		Input:        c.input,
		Claim:        c.claim,
		Result:       c.result,
		Error:        c.errMsg,
		Unauthorized: c.unauthorized,
	}
}

// EvidenceBars returns the reliability chart rows for the current result
func (c *Controller) EvidenceBars(v verdict.Vocabulary) []verdict.Bar {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		return nil
	}
	return verdict.Bars(c.result.Evidence, v)
}

// Package session persists the most recent verification result, a local
// history mirror and the bearer token across runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mcao2/truthlens/internal/api"
	"github.com/mcao2/truthlens/internal/store"
)

// Storage keys, shared with the browser client's localStorage layout
const (
	KeyCurrentResult = "truthlens_current_result"
	KeyHistory       = "truthlens_history"
)

const defaultHistoryLimit = 100

// StoredResult is a claim paired with its analysis
type StoredResult struct {
	Claim  string               `json:"claim"`
	Result *api.AnalyzeResponse `json:"result"`
}

// HistoryEntry is one analysis in the local history mirror
type HistoryEntry struct {
	ID      string               `json:"id"`
	Claim   string               `json:"claim"`
	Result  *api.AnalyzeResponse `json:"result"`
	SavedAt time.Time            `json:"saved_at,omitempty"`
}

// Cache is the session result cache
type Cache struct {
	mu     sync.Mutex
	store  store.Store
	logger *zap.Logger
	limit  int
	now    func() time.Time
}

// Option configures a Cache
type Option func(*Cache)

// WithLogger sets the logger used for discarded data
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHistoryLimit caps the local history mirror
func WithHistoryLimit(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a cache over s
func NewCache(s store.Store, opts ...Option) *Cache {
	c := &Cache{
		store:  s,
		logger: zap.NewNop(),
		limit:  defaultHistoryLimit,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SaveCurrentResult replaces the current result
func (c *Cache) SaveCurrentResult(claim string, result *api.AnalyzeResponse) error {
	if err := result.Validate(); err != nil {
		return fmt.Errorf("refusing to cache result: %w", err)
	}

	data, err := json.Marshal(StoredResult{Claim: claim, Result: result})
	if err != nil {
		return fmt.Errorf("failed to marshal current result: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Set(KeyCurrentResult, data); err != nil {
		return fmt.Errorf("failed to save current result: %w", err)
	}
	return nil
}

// CurrentResult returns the cached result. Missing, unparsable or foreign
// data is reported as absent, never as an error.
func (c *Cache) CurrentResult() (*StoredResult, bool) {
	c.mu.Lock()
	data, err := c.store.Get(KeyCurrentResult)
	c.mu.Unlock()

	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("failed to read current result", zap.Error(err))
		}
		return nil, false
	}

	var raw struct {
		Claim  *string              `json:"claim"`
		Result *api.AnalyzeResponse `json:"result"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		c.logger.Debug("discarding unparsable current result", zap.Error(err))
		return nil, false
	}
	if raw.Claim == nil || raw.Result.Validate() != nil {
		c.logger.Debug("discarding foreign current result")
		return nil, false
	}

	return &StoredResult{Claim: *raw.Claim, Result: raw.Result}, true
}

// ClearCurrentResult removes the current result. Clearing an empty cache is a no-op.
func (c *Cache) ClearCurrentResult() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(KeyCurrentResult); err != nil {
		return fmt.Errorf("failed to clear current result: %w", err)
	}
	return nil
}

// AddToHistory prepends an entry unless one with the exact same claim text
// already exists. It reports whether an entry was added.
func (c *Cache) AddToHistory(claim string, result *api.AnalyzeResponse) (bool, error) {
	if err := result.Validate(); err != nil {
		return false, fmt.Errorf("refusing to record result: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	history := c.loadHistory()
	for _, h := range history {
		if h.Claim == claim {
			return false, nil
		}
	}

	entry := HistoryEntry{
		ID:      uuid.NewString(),
		Claim:   claim,
		Result:  result,
		SavedAt: c.now().UTC(),
	}
	history = append([]HistoryEntry{entry}, history...)
	if len(history) > c.limit {
		history = history[:c.limit]
	}

	if err := c.saveHistory(history); err != nil {
		return false, err
	}
	return true, nil
}

// LocalHistory returns the mirror, most recent first. Corrupt data reads as empty.
func (c *Cache) LocalHistory() []HistoryEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadHistory()
}

// DeleteLocal removes the entry with the given id
func (c *Cache) DeleteLocal(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	history := c.loadHistory()
	kept := history[:0]
	found := false
	for _, h := range history {
		if h.ID == id {
			found = true
			continue
		}
		kept = append(kept, h)
	}
	if !found {
		return fmt.Errorf("history entry %s: %w", id, store.ErrNotFound)
	}
	return c.saveHistory(kept)
}

// ClearLocal empties the mirror
func (c *Cache) ClearLocal() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(KeyHistory); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

// loadHistory reads the mirror. Entries written without an id get one,
// persisted so that later deletes can address them. Callers hold c.mu.
func (c *Cache) loadHistory() []HistoryEntry {
	data, err := c.store.Get(KeyHistory)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.logger.Warn("failed to read history", zap.Error(err))
		}
		return nil
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Debug("discarding unparsable history", zap.Error(err))
		return nil
	}

	valid := entries[:0]
	assigned := false
	for _, e := range entries {
		if e.Result.Validate() != nil {
			continue
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
			assigned = true
		}
		valid = append(valid, e)
	}
	if assigned {
		if err := c.saveHistory(valid); err != nil {
			c.logger.Warn("failed to persist history ids", zap.Error(err))
		}
	}
	return valid
}

func (c *Cache) saveHistory(entries []HistoryEntry) error {
	if entries == nil {
		entries = []HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := c.store.Set(KeyHistory, data); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

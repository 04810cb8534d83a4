// Package history presents server-side and local history through one interface.
package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcao2/truthlens/internal/api"
	"github.com/mcao2/truthlens/internal/session"
)

// Entry is one past analysis
type Entry struct {
	ID          string
	Claim       string
	Verdict     string
	Confidence  string
	Explanation string
	CreatedAt   time.Time
	// Result is nil for remote entries until Open fetches it
	Result *api.AnalyzeResponse
	Local  bool
}

// Source lists and manages past analyses
type Source interface {
	List(ctx context.Context) ([]Entry, error)
	Open(ctx context.Context, id string) (*Entry, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Remote() bool
}

// Backend is the part of the API client the remote source calls
type Backend interface {
	History(ctx context.Context) ([]api.HistoryItem, error)
	HistoryItem(ctx context.Context, id int) (*api.HistoryDetail, error)
	DeleteHistoryItem(ctx context.Context, id int) error
	ClearHistory(ctx context.Context) error
}

// Authenticator reports whether a usable session exists
type Authenticator interface {
	Authenticated() bool
}

// Select returns the remote source when logged in, otherwise the local mirror
func Select(backend Backend, cache *session.Cache, auth Authenticator) Source {
	if backend != nil && auth != nil && auth.Authenticated() {
		return NewRemote(backend)
	}
	return NewLocal(cache)
}

// RemoteSource reads the server-side history
type RemoteSource struct {
	backend Backend
}

func NewRemote(backend Backend) *RemoteSource {
	return &RemoteSource{backend: backend}
}

func (r *RemoteSource) Remote() bool { return true }

func (r *RemoteSource) List(ctx context.Context) ([]Entry, error) {
	items, err := r.backend.History(ctx)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, Entry{
			ID:          strconv.Itoa(item.ID),
			Claim:       item.Claim,
			Verdict:     item.Verdict,
			Confidence:  item.Confidence,
			Explanation: item.Explanation,
			CreatedAt:   item.CreatedAt.Time,
		})
	}
	return entries, nil
}

func (r *RemoteSource) Open(ctx context.Context, id string) (*Entry, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	detail, err := r.backend.HistoryItem(ctx, n)
	if err != nil {
		return nil, err
	}
	claim := detail.Claim
	if claim == "" {
		claim = detail.InputText
	}
	result := detail.Result()
	result.Claim = claim
	return &Entry{
		ID:          id,
		Claim:       claim,
		Verdict:     detail.Verdict,
		Confidence:  detail.Confidence,
		Explanation: detail.Explanation,
		CreatedAt:   detail.CreatedAt.Time,
		Result:      result,
	}, nil
}

func (r *RemoteSource) Delete(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	return r.backend.DeleteHistoryItem(ctx, n)
}

func (r *RemoteSource) Clear(ctx context.Context) error {
	return r.backend.ClearHistory(ctx)
}

func parseID(id string) (int, error) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("invalid history id %q", id)
	}
	return n, nil
}

// LocalSource reads the local mirror kept by the session cache
type LocalSource struct {
	cache *session.Cache
}

func NewLocal(cache *session.Cache) *LocalSource {
	return &LocalSource{cache: cache}
}

func (l *LocalSource) Remote() bool { return false }

func (l *LocalSource) List(ctx context.Context) ([]Entry, error) {
	local := l.cache.LocalHistory()
	entries := make([]Entry, 0, len(local))
	for _, h := range local {
		entries = append(entries, fromLocal(h))
	}
	return entries, nil
}

func (l *LocalSource) Open(ctx context.Context, id string) (*Entry, error) {
	for _, h := range l.cache.LocalHistory() {
		if h.ID == id {
			e := fromLocal(h)
			return &e, nil
		}
	}
	return nil, fmt.Errorf("history entry %s not found", id)
}

func (l *LocalSource) Delete(ctx context.Context, id string) error {
	return l.cache.DeleteLocal(id)
}

func (l *LocalSource) Clear(ctx context.Context) error {
	return l.cache.ClearLocal()
}

func fromLocal(h session.HistoryEntry) Entry {
	e := Entry{
		ID:        h.ID,
		Claim:     h.Claim,
		CreatedAt: h.SavedAt,
		Result:    h.Result,
		Local:     true,
	}
	if h.Result != nil {
		e.Verdict = h.Result.Verdict
		e.Confidence = h.Result.Confidence
		e.Explanation = h.Result.Explanation
	}
	return e
}

// View opens entry id and makes it the current result, so the verification
// screen shows it on its next restore
func View(ctx context.Context, src Source, cache *session.Cache, id string) (*Entry, error) {
	entry, err := src.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := cache.SaveCurrentResult(entry.Claim, entry.Result); err != nil {
		return nil, err
	}
	return entry, nil
}

// Filter keeps entries whose claim or verdict contains query, ignoring case
func Filter(entries []Entry, query string) []Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Claim), q) || strings.Contains(strings.ToLower(e.Verdict), q) {
			out = append(out, e)
		}
	}
	return out
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const historyPageSize = 50

// History fetches every server-side history item, most recent first.
// Both a bare array and the paginated {items, total} envelope are accepted.
func (c *Client) History(ctx context.Context) ([]HistoryItem, error) {
	var all []HistoryItem
	skip := 0

	for {
		items, total, paged, err := c.fetchHistoryPage(ctx, skip)
		if err != nil {
			return nil, err
		}

		all = append(all, items...)
		skip += len(items)

		if !paged || len(items) == 0 || skip >= total {
			break
		}
	}

	return all, nil
}

// fetchHistoryPage fetches a single page of history
func (c *Client) fetchHistoryPage(ctx context.Context, skip int) ([]HistoryItem, int, bool, error) {
	params := url.Values{}
	params.Set("skip", strconv.Itoa(skip))
	params.Set("limit", strconv.Itoa(historyPageSize))

	var raw json.RawMessage
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/v1/history",
		query:  params,
		auth:   true,
	}, &raw)
	if err != nil {
		return nil, 0, false, err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []HistoryItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, 0, false, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return items, len(items), false, nil
	}

	var page historyPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, 0, false, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return page.Items, page.Total, true, nil
}

// HistoryItem fetches the stored record for one check
func (c *Client) HistoryItem(ctx context.Context, id int) (*HistoryDetail, error) {
	var detail HistoryDetail
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/v1/history/" + strconv.Itoa(id),
		auth:   true,
	}, &detail)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// DeleteHistoryItem removes one server-side entry
func (c *Client) DeleteHistoryItem(ctx context.Context, id int) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/api/v1/history/" + strconv.Itoa(id),
		auth:   true,
	}, nil)
}

// ClearHistory removes every server-side entry for the user
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/api/v1/history",
		auth:   true,
	}, nil)
}

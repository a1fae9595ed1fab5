// Package httpapi implements the remote gateway over a hosted REST API.
// Requests carry a bearer credential; the server scopes every collection by
// the authenticated user, and upserts are PUTs keyed by the record id so
// retries are idempotent.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dkurniawan/bukukas/internal/client/remote"
	"github.com/dkurniawan/bukukas/internal/common"
	"github.com/dkurniawan/bukukas/internal/timex"
)

// TokenSource supplies the bearer credential for each request, so a token
// refreshed mid-session is picked up without rebuilding the client.
type TokenSource func() (string, error)

type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(baseURL string, token TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		token:   token,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SelectBooks(ctx context.Context, userID string, updatedAfter time.Time) ([]remote.BookRecord, error) {
	q := url.Values{"updated_after": {millisParam(updatedAfter)}}

	var out []remote.BookRecord
	if err := c.doJSON(ctx, http.MethodGet, "/v1/books?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SelectTransactions(ctx context.Context, userID string, updatedAfter time.Time) ([]remote.TransactionRecord, error) {
	q := url.Values{"updated_after": {millisParam(updatedAfter)}}

	var out []remote.TransactionRecord
	if err := c.doJSON(ctx, http.MethodGet, "/v1/transactions?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpsertBook(ctx context.Context, rec remote.BookRecord) error {
	return c.doJSON(ctx, http.MethodPut, "/v1/books/"+url.PathEscape(rec.ID), rec, nil)
}

func (c *Client) UpsertTransaction(ctx context.Context, rec remote.TransactionRecord) error {
	return c.doJSON(ctx, http.MethodPut, "/v1/transactions/"+url.PathEscape(rec.ID), rec, nil)
}

func (c *Client) FindBookByName(ctx context.Context, userID, name string) (*remote.BookRecord, error) {
	q := url.Values{"name": {name}}

	var out remote.BookRecord
	err := c.doJSON(ctx, http.MethodGet, "/v1/books/lookup?"+q.Encode(), nil, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FindTransactionByKey(ctx context.Context, userID, bookID string, createdAt time.Time, amount float64) (*remote.TransactionRecord, error) {
	q := url.Values{
		"book_id":    {bookID},
		"created_at": {millisParam(createdAt)},
		"amount":     {strconv.FormatFloat(amount, 'f', -1, 64)},
	}

	var out remote.TransactionRecord
	err := c.doJSON(ctx, http.MethodGet, "/v1/transactions/lookup?"+q.Encode(), nil, &out)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpsertUserMeta(ctx context.Context, meta remote.UserMeta) error {
	return c.doJSON(ctx, http.MethodPut, "/v1/users/meta", meta, nil)
}

// errNotFound is internal: lookup endpoints translate 404 into a typed
// "no match" that callers turn into (nil, nil).
var errNotFound = errors.New("remote record not found")

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("error encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.token()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error calling remote api: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrCredentialExpired
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote api %s %s: unexpected status %d: %s", method, path, resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("error decoding response body: %w", err)
		}
	}
	return nil
}

func millisParam(t time.Time) string {
	return strconv.FormatInt(timex.ToMillis(t), 10)
}

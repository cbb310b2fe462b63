// Package rosterclient fetches the society's paid-membership roster from the
// union shop API. The API returns the complete list of current members; the
// verification engine matches a claimed order number and username against it.
package rosterclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	dErrors "gatehouse/pkg/domain-errors"
)

// Entry is one paid membership on the roster.
type Entry struct {
	OrderNo   string `json:"order_no"`
	Login     string `json:"login"`
	CID       string `json:"cid"`
	FirstName string `json:"first_name"`
	Surname   string `json:"surname"`
}

// FullName joins the roster's name fields the way the shop displays them.
func (e Entry) FullName() string {
	return e.FirstName + " " + e.Surname
}

// Client lists current paid memberships.
type Client interface {
	List(ctx context.Context) ([]Entry, error)
}

// HTTPClient talks to the shop API over HTTP with an API key header.
// Concurrent List calls are collapsed into a single upstream request.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	group   singleflight.Group
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) List(ctx context.Context) ([]Entry, error) {
	v, err, _ := c.group.Do("list", func() (any, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]Entry), nil
}

func (c *HTTPClient) fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build roster request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "roster API unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, dErrors.Newf(dErrors.CodeUnavailable, "roster API returned %d", resp.StatusCode)
	}

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "decode roster response")
	}
	return entries, nil
}

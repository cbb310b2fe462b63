// Package surface is the HTTP client for the command and notification
// surface, the gateway process that owns the actual chat-platform
// connection. The engine only ever sees the RoleGateway and Notifier
// interfaces; this package carries their wire shape.
package surface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	dErrors "gatehouse/pkg/domain-errors"

	"gatehouse/internal/roster"
	"gatehouse/internal/verify"
)

// Client implements verify.RoleGateway and verify.Notifier against the
// surface gateway's REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type roleRequest struct {
	Identity roster.Identity `json:"identity"`
	Role     string          `json:"role"`
}

func (c *Client) Grant(ctx context.Context, id roster.Identity, role string) error {
	return c.post(ctx, "/roles/grant", roleRequest{Identity: id, Role: role}, nil)
}

func (c *Client) Revoke(ctx context.Context, id roster.Identity, role string) error {
	return c.post(ctx, "/roles/revoke", roleRequest{Identity: id, Role: role}, nil)
}

func (c *Client) Roles(ctx context.Context, id roster.Identity) ([]string, error) {
	var out struct {
		Roles []string `json:"roles"`
	}
	if err := c.get(ctx, "/roles/"+id.String(), &out); err != nil {
		return nil, err
	}
	return out.Roles, nil
}

func (c *Client) PostReviewPrompt(ctx context.Context, prompt verify.ReviewPrompt) (string, error) {
	var out struct {
		Ref string `json:"ref"`
	}
	if err := c.post(ctx, "/prompts", prompt, &out); err != nil {
		return "", err
	}
	return out.Ref, nil
}

func (c *Client) UpdateReviewPrompt(ctx context.Context, ref string, outcome verify.ReviewOutcome) error {
	return c.post(ctx, "/prompts/"+ref, outcome, nil)
}

func (c *Client) Welcome(ctx context.Context, id roster.Identity, fresher roster.FresherStatus) error {
	body := struct {
		Identity roster.Identity      `json:"identity"`
		Fresher  roster.FresherStatus `json:"fresher"`
	}{Identity: id, Fresher: fresher}
	return c.post(ctx, "/welcome", body, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal surface request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build surface request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build surface request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "surface gateway unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return dErrors.Newf(dErrors.CodeUnavailable, "surface gateway returned %d on %s", resp.StatusCode, req.URL.Path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "decode surface response")
	}
	return nil
}

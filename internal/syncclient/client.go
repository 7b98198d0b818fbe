// Package syncclient implements the device-side Sync Transport: pulling and
// pushing full snapshots over the remote store's HTTP API. Every failure
// mode, whether an unreachable host, a rejected request, or a malformed
// response body, surfaces as *Error; callers treat them all as "offline".
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ulasbyzdvr/is-takip/internal/domain"
	"github.com/ulasbyzdvr/is-takip/internal/dto"
	"github.com/ulasbyzdvr/is-takip/internal/ports"
)

const defaultTimeout = 10 * time.Second

// Error is the uniform transport failure / Échec uniforme du transport
type Error struct {
	Op      string // "pull" or "push"
	Status  int    // HTTP status, 0 for network-level failures
	Message string // Server-provided message when available
	Err     error  // Underlying cause when available
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("sync %s: %s (status %d)", e.Op, e.Message, e.Status)
	default:
		return fmt.Sprintf("sync %s failed with status %d", e.Op, e.Status)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

var _ ports.Transport = (*Client)(nil)

// Client talks to the remote store over HTTP / Communique avec le store distant via HTTP
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a sync client / Crée un client de synchronisation
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Pull fetches the remote store's current full snapshot / Récupère l'instantané complet du store distant
func (c *Client) Pull(ctx context.Context) (domain.Snapshot, error) {
	endpoint := fmt.Sprintf("%s/api?action=%s&api_key=%s",
		c.baseURL, dto.ActionDownload, url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Snapshot{}, &Error{Op: "pull", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	apiResp, status, err := c.do(req)
	if err != nil {
		return domain.Snapshot{}, &Error{Op: "pull", Status: status, Err: err}
	}
	if status < 200 || status >= 300 || !apiResp.Success || apiResp.Data == nil {
		return domain.Snapshot{}, &Error{Op: "pull", Status: status, Message: apiResp.Message}
	}
	return apiResp.Data.Snapshot(), nil
}

// Push sends a full local snapshot; the remote store merges it and returns
// the merged, authoritative result. Repeating a push with the same snapshot
// is safe because the merge is idempotent.
func (c *Client) Push(ctx context.Context, snap domain.Snapshot) (domain.Snapshot, error) {
	body, err := json.Marshal(dto.NewUploadRequest(c.apiKey, snap))
	if err != nil {
		return domain.Snapshot{}, &Error{Op: "push", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api", bytes.NewReader(body))
	if err != nil {
		return domain.Snapshot{}, &Error{Op: "push", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	apiResp, status, err := c.do(req)
	if err != nil {
		return domain.Snapshot{}, &Error{Op: "push", Status: status, Err: err}
	}
	if status < 200 || status >= 300 || !apiResp.Success {
		return domain.Snapshot{}, &Error{Op: "push", Status: status, Message: apiResp.Message}
	}
	if apiResp.Data == nil {
		// Older servers acknowledged without echoing the merge result; the
		// pushed snapshot is then the best known state.
		return snap.Normalize(), nil
	}
	return apiResp.Data.Snapshot(), nil
}

// do executes the request and decodes the response envelope. The HTTP status
// is returned even on error so callers can record it.
func (c *Client) do(req *http.Request) (dto.APIResponse, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return dto.APIResponse{}, 0, err
	}
	defer resp.Body.Close()

	var apiResp dto.APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return dto.APIResponse{}, resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return apiResp, resp.StatusCode, nil
}

package recipes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultPath is where the remote store serves the signed-in user's collection.
const DefaultPath = "/api/user/recipes"

// RemoteBackend talks JSON to the per-user recipe store. Requests are never retried.
type RemoteBackend struct {
	baseURL string
	token   string
	client  *http.Client
}

var _ Backend = (*RemoteBackend)(nil)

type RemoteOption func(*RemoteBackend)

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteBackend) { r.client = c }
}

// WithToken sends the session token as a bearer credential.
func WithToken(token string) RemoteOption {
	return func(r *RemoteBackend) { r.token = token }
}

func NewRemoteBackend(baseURL string, opts ...RemoteOption) *RemoteBackend {
	r := &RemoteBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RemoteBackend) Fetch(ctx context.Context) ([]Recipe, error) {
	var list []Recipe
	if err := r.do(ctx, http.MethodGet, "", nil, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []Recipe{}
	}
	return list, nil
}

func (r *RemoteBackend) Create(ctx context.Context, recipe Recipe) (Recipe, error) {
	var stored Recipe
	if err := r.do(ctx, http.MethodPost, "", recipe, &stored); err != nil {
		return Recipe{}, err
	}
	return stored, nil
}

func (r *RemoteBackend) Replace(ctx context.Context, recipe Recipe) (Recipe, error) {
	var stored Recipe
	if err := r.do(ctx, http.MethodPut, "", recipe, &stored); err != nil {
		return Recipe{}, err
	}
	return stored, nil
}

func (r *RemoteBackend) Delete(ctx context.Context, id string) error {
	return r.do(ctx, http.MethodDelete, "?id="+url.QueryEscape(id), nil, nil)
}

func (r *RemoteBackend) do(ctx context.Context, method, query string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+DefaultPath+query, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %w", method, DefaultPath, ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s %s: %w", method, DefaultPath, ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, DefaultPath, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s %s: status %d: %w", method, DefaultPath, resp.StatusCode, ErrBackendUnavailable)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w: %w", method, DefaultPath, ErrBackendUnavailable, err)
	}
	return nil
}

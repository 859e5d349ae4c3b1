// Package remote implements store.Adapter against the mywayd document API.
// The server assigns ids; records travel as {"id", "fields"} documents.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/myway/internal/marker"
	"github.com/five82/myway/internal/store"
)

const (
	defaultBaseURL    = "http://127.0.0.1:7488"
	defaultCollection = "locations"
	defaultUserAgent  = "myway/0.1"
	requestTimeout    = 5 * time.Second
)

var _ store.Adapter = (*Client)(nil)

// Document is one record of a collection.
type Document struct {
	ID     string        `json:"id"`
	Fields marker.Fields `json:"fields"`
}

// DocumentList is the collection listing payload.
type DocumentList struct {
	Documents []Document `json:"documents"`
}

// Client talks to the document API.
type Client struct {
	baseURL    *url.URL
	collection string
	apiKey     string
	http       *http.Client
	userAgent  string
}

// NewClient builds a Client for one collection. Empty values fall back to
// the local daemon, the "locations" collection and a 5s timeout.
func NewClient(baseURL, collection, apiKey string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	collection = strings.TrimSpace(collection)
	if collection == "" {
		collection = defaultCollection
	}
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &Client{
		baseURL:    base,
		collection: collection,
		apiKey:     strings.TrimSpace(apiKey),
		http:       &http.Client{Timeout: timeout},
		userAgent:  defaultUserAgent,
	}, nil
}

// Collection returns the collection name the client writes to.
func (c *Client) Collection() string { return c.collection }

// List fetches every document of the collection.
func (c *Client) List(ctx context.Context) ([]marker.Marker, error) {
	var payload DocumentList
	if err := c.do(ctx, http.MethodGet, c.documentsPath(""), nil, &payload); err != nil {
		return nil, err
	}
	out := make([]marker.Marker, 0, len(payload.Documents))
	for _, doc := range payload.Documents {
		out = append(out, doc.Fields.WithID(doc.ID))
	}
	return out, nil
}

// Create stores fields and returns the server-assigned id.
func (c *Client) Create(ctx context.Context, fields marker.Fields) (string, error) {
	var doc Document
	if err := c.do(ctx, http.MethodPost, c.documentsPath(""), fields, &doc); err != nil {
		return "", err
	}
	if strings.TrimSpace(doc.ID) == "" {
		return "", fmt.Errorf("create document: server returned empty id")
	}
	return doc.ID, nil
}

// Update replaces the fields of the document with the given id.
func (c *Client) Update(ctx context.Context, id string, fields marker.Fields) error {
	if strings.TrimSpace(id) == "" {
		return store.ErrInvalidID
	}
	return c.do(ctx, http.MethodPatch, c.documentsPath(id), fields, nil)
}

// Delete removes the document with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return store.ErrInvalidID
	}
	return c.do(ctx, http.MethodDelete, c.documentsPath(id), nil, nil)
}

func (c *Client) documentsPath(id string) string {
	p := "/v1/collections/" + url.PathEscape(c.collection) + "/documents"
	if id != "" {
		p += "/" + url.PathEscape(id)
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return errors.New("client is nil")
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	// path is already escaped; parsing keeps encoded slashes intact.
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("api %s %s: %w", method, path, store.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s %s returned status %d", method, path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = defaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse remote url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

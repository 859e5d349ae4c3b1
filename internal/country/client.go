// Package country looks up country metadata from a public GraphQL API.
package country

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
)

const (
	// DefaultEndpoint is the public countries GraphQL API.
	DefaultEndpoint  = "https://countries.trevorblades.com/graphql"
	defaultUserAgent = "myway/0.1"
	requestTimeout   = 5 * time.Second
)

const countriesQuery = `query Countries($name: String!) {
  countries(filter: {name: {eq: $name}}) {
    name
    currency
  }
}`

// Result is one matching country.
type Result struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// Client queries the countries API. Results are never cached.
type Client struct {
	endpoint  string
	http      *http.Client
	gql       *graphql.Client
	userAgent string
}

// NewClient builds a Client. Empty values select the public endpoint and a
// 5s timeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = requestTimeout
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: statusTransport{base: http.DefaultTransport},
	}
	return &Client{
		endpoint:  endpoint,
		http:      httpClient,
		gql:       graphql.NewClient(endpoint, graphql.WithHTTPClient(httpClient)),
		userAgent: defaultUserAgent,
	}
}

// statusTransport turns HTTP error statuses into errors. The graphql client
// only reports body decoding failures for them.
type statusTransport struct {
	base http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("countries api returned status %d", resp.StatusCode)
	}
	return resp, nil
}

type countriesData struct {
	Countries []Result `json:"countries"`
}

// Lookup returns the countries whose name matches exactly.
func (c *Client) Lookup(ctx context.Context, name string) ([]Result, error) {
	if c == nil {
		return nil, errors.New("client is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("country name required")
	}

	req := graphql.NewRequest(countriesQuery)
	req.Var("name", name)
	req.Header.Set("User-Agent", c.userAgent)

	var data countriesData
	if err := c.gql.Run(ctx, req, &data); err != nil {
		return nil, fmt.Errorf("query countries: %w", err)
	}
	return data.Countries, nil
}

// FirstCurrency returns the first non-empty currency in results.
func FirstCurrency(results []Result) (string, bool) {
	for _, r := range results {
		if cur := strings.TrimSpace(r.Currency); cur != "" {
			return cur, true
		}
	}
	return "", false
}

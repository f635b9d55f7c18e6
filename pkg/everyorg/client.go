// Package everyorg is a client for the Every.org partner API, the nonprofit
// directory behind candidate search and profile enrichment.
package everyorg

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/relief-match/internal/resilience"
)

const defaultBaseURL = "https://partners.every.org"

// Client queries the nonprofit directory.
type Client interface {
	Search(ctx context.Context, term string, opts SearchOptions) ([]Nonprofit, error)
	Browse(ctx context.Context, cause string, opts BrowseOptions) ([]Nonprofit, error)
	GetDetails(ctx context.Context, slug string) (*Details, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Every.org API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, term string, opts SearchOptions) ([]Nonprofit, error) {
	q := url.Values{}
	if len(opts.Causes) > 0 {
		q.Set("causes", strings.Join(opts.Causes, ","))
	}
	if opts.Take > 0 {
		q.Set("take", strconv.Itoa(opts.Take))
	}
	var resp listResponse
	if err := c.get(ctx, "/v0.2/search/"+url.PathEscape(term), q, &resp); err != nil {
		return nil, eris.Wrapf(err, "everyorg: search %q", term)
	}
	return resp.Nonprofits, nil
}

func (c *httpClient) Browse(ctx context.Context, cause string, opts BrowseOptions) ([]Nonprofit, error) {
	q := url.Values{}
	if opts.Take > 0 {
		q.Set("take", strconv.Itoa(opts.Take))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	var resp listResponse
	if err := c.get(ctx, "/v0.2/browse/"+url.PathEscape(cause), q, &resp); err != nil {
		return nil, eris.Wrapf(err, "everyorg: browse %q", cause)
	}
	return resp.Nonprofits, nil
}

func (c *httpClient) GetDetails(ctx context.Context, slug string) (*Details, error) {
	var resp detailsResponse
	if err := c.get(ctx, "/v0.2/nonprofit/"+url.PathEscape(slug), url.Values{}, &resp); err != nil {
		return nil, eris.Wrapf(err, "everyorg: details %q", slug)
	}
	return &resp.Data, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, out any) error {
	q.Set("apiKey", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "everyorg: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// eris keeps net and context errors on the Unwrap chain for resilience.Classify.
		return eris.Wrap(err, "everyorg: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resilience.NewTransientError(eris.Wrap(err, "everyorg: read response"), 0)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "everyorg: unmarshal response")
	}
	return nil
}

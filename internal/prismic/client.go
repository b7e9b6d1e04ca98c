// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package prismic is a small client for the Prismic REST API (v2). It
// covers what the site needs: predicate search with paging, ordering and
// "after" cursors, lookups by UID and ID, preview ref resolution and
// following an opaque next_page URL. Every call goes to the API; there is
// no local cache and no retry.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single API round trip when no http.Client is supplied.
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of an API response is read.
const maxBodySize = 10 << 20

// Client talks to one Prismic repository.
type Client struct {
	endpoint    *url.URL
	accessToken string
	httpClient  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAccessToken sets the token sent as access_token on every request.
func WithAccessToken(token string) Option {
	return func(c *Client) { c.accessToken = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the API root at endpoint, for example
// "https://spacetraveling.cdn.prismic.io/api/v2".
func New(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("prismic endpoint: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("prismic endpoint %q: must be an absolute http(s) URL", endpoint)
	}

	c := &Client{
		endpoint:   u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Endpoint returns the API root URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// QueryOptions are the search options the site uses.
type QueryOptions struct {
	// Ref overrides the content release to read from. Empty means the
	// master (published) ref.
	Ref string
	// PageSize is the number of results per page; zero leaves the API default.
	PageSize int
	// Orderings is a raw orderings clause, e.g. "[document.first_publication_date desc]".
	Orderings string
	// After restricts results to documents following this document id in
	// the given ordering.
	After string
}

// MasterRef fetches the API root and returns the master ref.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.withToken(c.endpoint.String(), nil))
	if err != nil {
		return "", err
	}

	var root apiRoot
	if err := json.Unmarshal(body, &root); err != nil {
		return "", &SchemaError{Field: "refs", Reason: "invalid JSON: " + err.Error()}
	}
	for _, r := range root.Refs {
		if r.IsMasterRef && r.Ref != "" {
			return r.Ref, nil
		}
	}
	return "", ErrNoMasterRef
}

// ref returns the explicit ref or, when empty, the master ref.
func (c *Client) ref(ctx context.Context, ref string) (string, error) {
	if ref != "" {
		return ref, nil
	}
	return c.MasterRef(ctx)
}

// Query searches for documents matching all predicates.
func (c *Client) Query(ctx context.Context, predicates []Predicate, opts QueryOptions) (*SearchResponse, error) {
	ref, err := c.ref(ctx, opts.Ref)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("ref", ref)
	if len(predicates) > 0 {
		params.Set("q", Join(predicates))
	}
	if opts.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Orderings != "" {
		params.Set("orderings", opts.Orderings)
	}
	if opts.After != "" {
		params.Set("after", opts.After)
	}

	return c.search(ctx, c.withToken(c.endpoint.JoinPath("documents", "search").String(), params))
}

// GetByUID returns the document of type docType with the given uid.
func (c *Client) GetByUID(ctx context.Context, docType, uid string, opts QueryOptions) (*Document, error) {
	return c.first(ctx, []Predicate{At("my."+docType+".uid", uid)}, opts)
}

// GetByID returns the document with the given id.
func (c *Client) GetByID(ctx context.Context, id string, opts QueryOptions) (*Document, error) {
	return c.first(ctx, []Predicate{At("document.id", id)}, opts)
}

func (c *Client) first(ctx context.Context, predicates []Predicate, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	resp, err := c.Query(ctx, predicates, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// FetchPage follows an opaque next_page URL as the API returned it. The
// only change made to it is adding the access token when it is missing.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (*SearchResponse, error) {
	if c.accessToken != "" {
		if u, err := url.Parse(pageURL); err == nil && !u.Query().Has("access_token") {
			q := u.Query()
			q.Set("access_token", c.accessToken)
			u.RawQuery = q.Encode()
			pageURL = u.String()
		}
	}
	return c.search(ctx, pageURL)
}

// search runs a search request. The API echoes access_token into the
// paging cursors; it is removed so cursors can be handed to browsers.
func (c *Client) search(ctx context.Context, rawURL string) (*SearchResponse, error) {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	resp, err := decodeSearch(body)
	if err != nil {
		return nil, err
	}
	resp.NextPage = withoutToken(resp.NextPage)
	resp.PrevPage = withoutToken(resp.PrevPage)
	return resp, nil
}

// withoutToken drops the access_token parameter from a cursor URL. A
// cursor that does not parse is dropped entirely.
func withoutToken(cursor *string) *string {
	if cursor == nil {
		return nil
	}
	u, err := url.Parse(*cursor)
	if err != nil {
		return nil
	}
	q := u.Query()
	if !q.Has("access_token") {
		return cursor
	}
	q.Del("access_token")
	u.RawQuery = q.Encode()
	clean := u.String()
	return &clean
}

// withToken appends params and the access token to rawURL.
func (c *Client) withToken(rawURL string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	if c.accessToken != "" {
		params.Set("access_token", c.accessToken)
	}
	if len(params) == 0 {
		return rawURL
	}
	return rawURL + "?" + params.Encode()
}

// get performs a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("prismic request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prismic request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("prismic read body: %w", err)
	}

	slog.Debug("prismic request",
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start).String(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, req.URL, body)
	}
	return body, nil
}

// newAPIError builds an APIError, stripping the access token from the URL.
func newAPIError(status int, u *url.URL, body []byte) *APIError {
	redacted := *u
	q := redacted.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		redacted.RawQuery = q.Encode()
	}

	e := &APIError{Status: status, URL: redacted.String()}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Type = eb.Type
		e.Message = eb.Message
		if e.Message == "" {
			e.Message = eb.Error
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// IsAPIStatus reports whether err is an APIError with one of the statuses.
func IsAPIStatus(err error, statuses ...int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	for _, s := range statuses {
		if apiErr.Status == s {
			return true
		}
	}
	return false
}

// Package prismic is a small client for the Prismic v2 REST API. It covers
// the calls a read-only front-end needs: ref lookup, document search,
// lookups by uid or id, and following next_page cursors.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DateLayout is the timestamp layout Prismic uses for publication dates.
const DateLayout = "2006-01-02T15:04:05-0700"

// refTTL bounds how long the master ref is reused between queries.
const refTTL = 5 * time.Second

var (
	// ErrNotFound is returned when a lookup matches no document.
	ErrNotFound = errors.New("prismic: document not found")
	// ErrForeignCursor is returned when a next_page cursor does not point at
	// the configured repository.
	ErrForeignCursor = errors.New("prismic: cursor does not belong to this repository")
	// ErrEmptyCursor is returned when FetchPage is called without a cursor.
	ErrEmptyCursor = errors.New("prismic: empty cursor")
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("prismic: API error (status %d): %s", e.StatusCode, e.Message)
}

// Client talks to one Prismic repository.
type Client struct {
	endpoint    *url.URL
	accessToken string
	httpClient  *http.Client

	mu        sync.Mutex
	masterRef string
	refAt     time.Time
}

// NewClient creates a client for the API endpoint of a repository, e.g.
// https://my-repo.cdn.prismic.io/api/v2.
func NewClient(endpoint, accessToken string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("prismic: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("prismic: endpoint %q must be an http(s) URL", endpoint)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		endpoint:    u,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Endpoint returns the repository API endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Ref is a content release pointer. The master ref points at published content.
type Ref struct {
	ID          string `json:"id"`
	Ref         string `json:"ref"`
	Label       string `json:"label"`
	IsMasterRef bool   `json:"isMasterRef"`
}

type apiInfo struct {
	Refs []Ref `json:"refs"`
}

// MasterRef returns the ref of the published content. It is cached briefly
// so the handful of queries one page needs share a single lookup.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.masterRef != "" && time.Since(c.refAt) < refTTL {
		ref := c.masterRef
		c.mu.Unlock()
		return ref, nil
	}
	c.mu.Unlock()

	var info apiInfo
	if err := c.get(ctx, c.withToken(*c.endpoint), &info); err != nil {
		return "", fmt.Errorf("fetch refs: %w", err)
	}
	for _, r := range info.Refs {
		if r.IsMasterRef {
			c.mu.Lock()
			c.masterRef = r.Ref
			c.refAt = time.Now()
			c.mu.Unlock()
			return r.Ref, nil
		}
	}
	return "", errors.New("prismic: API returned no master ref")
}

// Document is a raw Prismic document. Data holds the custom-type fields and
// is decoded by the caller.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Href                 string          `json:"href"`
	Tags                 []string        `json:"tags"`
	Lang                 string          `json:"lang"`
	FirstPublicationDate string          `json:"first_publication_date"`
	LastPublicationDate  string          `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// Response is one page of search results. NextPage is empty on the last page.
type Response struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         string     `json:"next_page"`
	PrevPage         string     `json:"prev_page"`
	Results          []Document `json:"results"`
}

// Query searches documents matching every predicate.
func (c *Client) Query(ctx context.Context, predicates []Predicate, opts QueryOptions) (*Response, error) {
	ref := opts.Ref
	if ref == "" {
		var err error
		ref, err = c.MasterRef(ctx)
		if err != nil {
			return nil, err
		}
	}

	u := *c.endpoint
	u.Path = strings.TrimSuffix(u.Path, "/") + "/documents/search"
	q := url.Values{}
	q.Set("ref", ref)
	if len(predicates) > 0 {
		q.Set("q", joinPredicates(predicates))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.After != "" {
		q.Set("after", opts.After)
	}
	if len(opts.Orderings) > 0 {
		q.Set("orderings", formatOrderings(opts.Orderings))
	}
	if len(opts.Fetch) > 0 {
		q.Set("fetch", strings.Join(opts.Fetch, ","))
	}
	u.RawQuery = q.Encode()

	var resp Response
	if err := c.get(ctx, c.withToken(u), &resp); err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	return &resp, nil
}

// GetByUID returns the document of docType with the given uid.
func (c *Client) GetByUID(ctx context.Context, docType, uid string, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	resp, err := c.Query(ctx, []Predicate{At("my."+docType+".uid", uid)}, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// GetByID returns the document with the given id.
func (c *Client) GetByID(ctx context.Context, id string, opts QueryOptions) (*Document, error) {
	opts.PageSize = 1
	resp, err := c.Query(ctx, []Predicate{At("document.id", id)}, opts)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Results[0], nil
}

// FetchPage dereferences a next_page cursor returned by a previous query.
// Only cursors on the configured repository host are followed.
func (c *Client) FetchPage(ctx context.Context, cursor string) (*Response, error) {
	if cursor == "" {
		return nil, ErrEmptyCursor
	}
	u, err := url.Parse(cursor)
	if err != nil {
		return nil, fmt.Errorf("prismic: parse cursor: %w", err)
	}
	if u.Scheme != c.endpoint.Scheme || !strings.EqualFold(u.Host, c.endpoint.Host) {
		return nil, ErrForeignCursor
	}
	var resp Response
	if err := c.get(ctx, c.withToken(*u), &resp); err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	return &resp, nil
}

func (c *Client) withToken(u url.URL) string {
	if c.accessToken == "" {
		return u.String()
	}
	q := u.Query()
	if q.Get("access_token") == "" {
		q.Set("access_token", c.accessToken)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) get(ctx context.Context, rawURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ibeckermayer/redditpersona/internal/logging"
	"github.com/ibeckermayer/redditpersona/internal/types"
)

const defaultAPIBaseURL = "https://oauth.reddit.com"

// APIClient fetches user history from the authenticated Reddit JSON API
type APIClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	log        *logrus.Entry
}

// Option configures an APIClient.
type Option func(*APIClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *APIClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRequestsPerMinute throttles requests to rpm with a small burst.
func WithRequestsPerMinute(rpm int) Option {
	return func(c *APIClient) {
		c.limiter = NewLimiter(rpm)
	}
}

// NewLimiter returns a token bucket allowing rpm requests per minute.
func NewLimiter(rpm int) *rate.Limiter {
	if rpm < 1 {
		rpm = 1
	}
	burst := max(rpm/6, 1)
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), burst)
}

// NewAPIClient creates a client on top of an already authenticated HTTP client.
func NewAPIClient(httpClient *http.Client, opts ...Option) *APIClient {
	c := &APIClient{
		httpClient: httpClient,
		baseURL:    defaultAPIBaseURL,
		limiter:    NewLimiter(60),
		log:        logging.For("fetcher.api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect implements Fetcher.
func (c *APIClient) Collect(ctx context.Context, username string, commentLimit, submissionLimit int) ([]types.RawItem, []types.RawItem, error) {
	return collect(ctx, username, commentLimit, submissionLimit, c.comments, c.submissions)
}

func (c *APIClient) comments(ctx context.Context, username string, limit int) ([]types.RawItem, error) {
	return c.listing(ctx, username, "comments", types.KindComment, limit)
}

func (c *APIClient) submissions(ctx context.Context, username string, limit int) ([]types.RawItem, error) {
	return c.listing(ctx, username, "submitted", types.KindSubmission, limit)
}

// listingResponse is the envelope of a Reddit listing
type listingResponse struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Kind string `json:"kind"`
			Data thing  `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// thing holds the fields we read from t1 (comment) and t3 (link) objects
type thing struct {
	ID         string  `json:"id"`
	Body       string  `json:"body"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Permalink  string  `json:"permalink"`
	Subreddit  string  `json:"subreddit"`
	CreatedUTC float64 `json:"created_utc"`
}

func (t thing) toRawItem(kind types.ItemKind) types.RawItem {
	body := t.Body
	if kind == types.KindSubmission {
		body = t.Title + " " + t.Selftext
	}
	return types.RawItem{
		Kind:      kind,
		ID:        t.ID,
		Body:      body,
		Permalink: t.Permalink,
		Community: t.Subreddit,
		CreatedAt: time.Unix(int64(t.CreatedUTC), 0).UTC(),
	}
}

// listing pages through /user/<name>/<path> until limit items are collected
// or the listing ends.
func (c *APIClient) listing(ctx context.Context, username, path string, kind types.ItemKind, limit int) ([]types.RawItem, error) {
	limit = max(limit, 0)
	items := make([]types.RawItem, 0, limit)
	after := ""

	for len(items) < limit {
		pageSize := min(limit-len(items), maxPageSize)

		q := url.Values{}
		q.Set("limit", fmt.Sprint(pageSize))
		q.Set("sort", "new")
		q.Set("raw_json", "1")
		if after != "" {
			q.Set("after", after)
		}
		u := fmt.Sprintf("%s/user/%s/%s?%s", c.baseURL, url.PathEscape(username), path, q.Encode())

		page, err := c.getPage(ctx, u)
		if err != nil {
			return nil, newFetchError(username, path, err)
		}

		for _, child := range page.Data.Children {
			items = append(items, child.Data.toRawItem(kind))
			if len(items) == limit {
				break
			}
		}

		c.log.WithFields(logrus.Fields{
			"user":  username,
			"path":  path,
			"page":  len(page.Data.Children),
			"total": len(items),
		}).Debug("Fetched listing page")

		if page.Data.After == "" || len(page.Data.Children) == 0 {
			break
		}
		after = page.Data.After
	}

	return items, nil
}

func (c *APIClient) getPage(ctx context.Context, u string) (*listingResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var page listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &page, nil
}

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ibeckermayer/redditpersona/internal/logging"
	"github.com/ibeckermayer/redditpersona/internal/types"
)

const defaultFeedBaseURL = "https://www.reddit.com"

// FeedClient fetches user history from Reddit's public Atom feeds.
// It needs no credentials but only sees what the feeds expose.
type FeedClient struct {
	parser  *gofeed.Parser
	baseURL string
	limiter *rate.Limiter
	log     *logrus.Entry
}

// NewFeedClient creates a feed-backed fetcher.
func NewFeedClient(httpClient *http.Client, userAgent string, rpm int) *FeedClient {
	parser := gofeed.NewParser()
	parser.Client = httpClient
	parser.UserAgent = userAgent

	return &FeedClient{
		parser:  parser,
		baseURL: defaultFeedBaseURL,
		limiter: NewLimiter(rpm),
		log:     logging.For("fetcher.rss"),
	}
}

// WithBaseURL overrides the feed host (for testing).
func (c *FeedClient) WithBaseURL(u string) *FeedClient {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// Collect implements Fetcher.
func (c *FeedClient) Collect(ctx context.Context, username string, commentLimit, submissionLimit int) ([]types.RawItem, []types.RawItem, error) {
	return collect(ctx, username, commentLimit, submissionLimit, c.comments, c.submissions)
}

func (c *FeedClient) comments(ctx context.Context, username string, limit int) ([]types.RawItem, error) {
	return c.feed(ctx, username, "comments", types.KindComment, limit)
}

func (c *FeedClient) submissions(ctx context.Context, username string, limit int) ([]types.RawItem, error) {
	return c.feed(ctx, username, "submitted", types.KindSubmission, limit)
}

func (c *FeedClient) feed(ctx context.Context, username, path string, kind types.ItemKind, limit int) ([]types.RawItem, error) {
	if limit <= 0 {
		return []types.RawItem{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, newFetchError(username, path, fmt.Errorf("rate limiter: %w", err))
	}

	u := fmt.Sprintf("%s/user/%s/%s/.rss?limit=%d", c.baseURL, url.PathEscape(username), path, min(limit, maxPageSize))

	feed, err := c.parser.ParseURLWithContext(u, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			err = &StatusError{Code: httpErr.StatusCode, Status: httpErr.Status}
		}
		return nil, newFetchError(username, path, err)
	}

	items := make([]types.RawItem, 0, min(limit, len(feed.Items)))
	for _, entry := range feed.Items {
		if len(items) == limit {
			break
		}
		items = append(items, entryToRawItem(entry, kind))
	}

	c.log.WithFields(logrus.Fields{
		"user":  username,
		"path":  path,
		"total": len(items),
	}).Debug("Fetched feed")

	return items, nil
}

func entryToRawItem(entry *gofeed.Item, kind types.ItemKind) types.RawItem {
	text := htmlToText(entry.Content)
	if kind == types.KindSubmission {
		text = entry.Title + " " + text
	}

	var community string
	if len(entry.Categories) > 0 {
		community = entry.Categories[0]
	}

	var created time.Time
	switch {
	case entry.PublishedParsed != nil:
		created = entry.PublishedParsed.UTC()
	case entry.UpdatedParsed != nil:
		created = entry.UpdatedParsed.UTC()
	}

	return types.RawItem{
		Kind:      kind,
		ID:        strings.TrimPrefix(strings.TrimPrefix(entry.GUID, "t1_"), "t3_"),
		Body:      text,
		Permalink: permalinkPath(entry.Link),
		Community: community,
		CreatedAt: created,
	}
}

// permalinkPath reduces an absolute entry link to the path Reddit uses as
// permalink.
func permalinkPath(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Path == "" {
		return link
	}
	return u.Path
}

// htmlToText extracts the markdown body from entry HTML. Feed entries wrap the
// user's text in a div.md; anything outside it is feed chrome.
func htmlToText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}

	body := doc.Find("div.md").First()
	if body.Length() == 0 {
		// Link submissions have no self text, only the submission table.
		if doc.Find("table").Length() > 0 {
			return ""
		}
		body = doc.Selection
	}

	var paragraphs []string
	body.Find("p, li, pre").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "li" && s.Find("p").Length() > 0 {
			return
		}
		if t := strings.TrimSpace(s.Text()); t != "" {
			paragraphs = append(paragraphs, t)
		}
	})
	if len(paragraphs) == 0 {
		return strings.TrimSpace(body.Text())
	}
	return strings.Join(paragraphs, "\n\n")
}

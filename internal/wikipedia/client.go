package wikipedia

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/thinkscotty/wikichat/internal/models"
	"github.com/tidwall/gjson"
)

// Client queries the Wikipedia API for search results and article extracts.
type Client struct {
	httpClient   *http.Client
	apiURL       string
	wikiURL      string
	userAgent    string
	relatedLimit int
}

// SearchResult represents a single Wikipedia search hit.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	PageID  int    `json:"pageid"`
}

type Options struct {
	APIURL       string
	WikiURL      string
	UserAgent    string
	Timeout      time.Duration
	RelatedLimit int
}

// New creates a Wikipedia client. Zero-valued options fall back to the
// English Wikipedia endpoints and a 15-second timeout.
func New(opts Options) *Client {
	if opts.APIURL == "" {
		opts.APIURL = "https://en.wikipedia.org/w/api.php"
	}
	if opts.WikiURL == "" {
		opts.WikiURL = "https://en.wikipedia.org/wiki"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "wikichat/1.0 (+https://github.com/thinkscotty/wikichat)"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = 5
	}
	return &Client{
		httpClient:   &http.Client{Timeout: opts.Timeout},
		apiURL:       opts.APIURL,
		wikiURL:      strings.TrimRight(opts.WikiURL, "/"),
		userAgent:    opts.UserAgent,
		relatedLimit: opts.RelatedLimit,
	}
}

// Lookup resolves a free-text query to the first search hit's introduction.
// It returns models.ErrNotFound when nothing matches or the article has no extract.
func (c *Client) Lookup(ctx context.Context, query string) (models.Article, error) {
	hits, err := c.Search(ctx, query, 1)
	if err != nil {
		return models.Article{}, err
	}
	if len(hits) == 0 {
		return models.Article{}, fmt.Errorf("search %q: %w", query, models.ErrNotFound)
	}
	return c.Article(ctx, hits[0].Title)
}

// Search finds Wikipedia articles matching a query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"format":   {"json"},
		"utf8":     {"1"},
		"srlimit":  {fmt.Sprintf("%d", limit)},
	}

	body, err := c.get(ctx, params, "wikipedia search")
	if err != nil {
		return nil, err
	}

	var result struct {
		Query struct {
			Search []SearchResult `json:"search"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return result.Query.Search, nil
}

// Article fetches the plain-text introduction and outgoing links of a page.
func (c *Client) Article(ctx context.Context, title string) (models.Article, error) {
	params := url.Values{
		"action":      {"query"},
		"titles":      {title},
		"prop":        {"extracts|links"},
		"exintro":     {"true"},
		"explaintext": {"true"},
		"pllimit":     {"10"},
		"format":      {"json"},
		"utf8":        {"1"},
	}

	body, err := c.get(ctx, params, "wikipedia article")
	if err != nil {
		return models.Article{}, err
	}
	if !gjson.ValidBytes(body) {
		return models.Article{}, errors.New("decode article response: invalid JSON")
	}

	// Pages are keyed by page id, which is not known in advance.
	var page gjson.Result
	gjson.GetBytes(body, "query.pages").ForEach(func(_, value gjson.Result) bool {
		page = value
		return false
	})
	if !page.Exists() {
		return models.Article{}, fmt.Errorf("article %q: %w", title, models.ErrNotFound)
	}

	extract := page.Get("extract").String()
	if strings.TrimSpace(extract) == "" {
		return models.Article{}, fmt.Errorf("no extract available for %q: %w", title, models.ErrNotFound)
	}

	pageTitle := page.Get("title").String()
	if pageTitle == "" {
		pageTitle = title
	}

	var related []string
	for _, link := range page.Get("links.#.title").Array() {
		if len(related) == c.relatedLimit {
			break
		}
		related = append(related, link.String())
	}

	return models.Article{
		Title:   pageTitle,
		Extract: extract,
		URL:     c.ArticleURL(pageTitle),
		Related: related,
	}, nil
}

// ArticleURL returns the human-readable page URL for a title.
func (c *Client) ArticleURL(title string) string {
	return c.wikiURL + "/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

func (c *Client) get(ctx context.Context, params url.Values, what string) ([]byte, error) {
	reqURL := c.apiURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d", what, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", what, err)
	}
	return body, nil
}

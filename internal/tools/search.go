package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxSearchResults = 10

// SearchTool queries the DuckDuckGo HTML endpoint and scrapes the
// result list. No API key required.
type SearchTool struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// SearchConfig configures the search tool.
type SearchConfig struct {
	BaseURL string
	Timeout time.Duration
}

// NewSearchTool creates a web search tool with sensible defaults.
func NewSearchTool(cfg *SearchConfig) *SearchTool {
	if cfg == nil {
		cfg = &SearchConfig{}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://html.duckduckgo.com/html/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &SearchTool{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   cfg.BaseURL,
		userAgent: "Mozilla/5.0 (compatible; stimme/1.0)",
	}
}

func (t *SearchTool) Name() string { return "web_search" }

func (t *SearchTool) Description() string {
	return "Search the web for current information. Use this for news, local searches (restaurants, shops), and anything that needs up-to-date data."
}

func (t *SearchTool) Spec() *Spec {
	return &Spec{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]Param{
			"query": {
				Type:        "string",
				Description: "The search query",
			},
			"max_results": {
				Type:        "integer",
				Description: "Maximum number of results to return",
				Default:     maxSearchResults,
			},
		},
		Required: []string{"query"},
	}
}

func (t *SearchTool) Validate(input *Input) error {
	query, ok := StringArg(input, "query")
	if !ok || strings.TrimSpace(query) == "" {
		return errors.New("query is required")
	}
	if len(query) > 1000 {
		return errors.New("query too long (max 1000 characters)")
	}
	return nil
}

func (t *SearchTool) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	query, _ := StringArg(input, "query")
	maxResults := IntArg(input, "max_results", maxSearchResults)
	if maxResults <= 0 || maxResults > maxSearchResults {
		maxResults = maxSearchResults
	}

	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return &Output{Error: fmt.Sprintf("search request setup failed: %v", err), Duration: time.Since(start)}, nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return &Output{Error: fmt.Sprintf("web search failed: %v", err), Duration: time.Since(start)}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Output{Error: fmt.Sprintf("web search failed: status %d", resp.StatusCode), Duration: time.Since(start)}, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return &Output{Error: fmt.Sprintf("could not parse search results: %v", err), Duration: time.Since(start)}, nil
	}

	type result struct{ title, snippet, link string }
	var results []result

	doc.Find("div.result").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}
		anchor := s.Find("a.result__a").First()
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			return true
		}
		href, _ := anchor.Attr("href")
		snippet := strings.TrimSpace(s.Find(".result__snippet").First().Text())
		results = append(results, result{title: title, snippet: snippet, link: cleanResultURL(href)})
		return true
	})

	if len(results) == 0 {
		return &Output{
			Success:  true,
			Output:   fmt.Sprintf("No search results found for %q. Try different or more specific terms.", query),
			Duration: time.Since(start),
		}, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d results for %q:\n\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, r.title)
		if r.snippet != "" {
			fmt.Fprintf(&sb, "   %s\n", r.snippet)
		}
		if r.link != "" {
			fmt.Fprintf(&sb, "   %s\n", r.link)
		}
		sb.WriteString("\n")
	}

	return &Output{Success: true, Output: sb.String(), Duration: time.Since(start)}, nil
}

// cleanResultURL unwraps DuckDuckGo's redirect links (/l/?uddg=...).
func cleanResultURL(href string) string {
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
	}
	return href
}

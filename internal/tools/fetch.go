package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const fetchMaxChars = 2000

// FetchTool downloads a web page and returns its readable text content,
// stripped of markup and truncated to a size a conversation can carry.
type FetchTool struct {
	client *http.Client
}

// FetchOption configures a FetchTool.
type FetchOption func(*FetchTool)

// WithFetchTimeout sets the HTTP timeout for page downloads.
func WithFetchTimeout(d time.Duration) FetchOption {
	return func(t *FetchTool) {
		if d > 0 {
			t.client.Timeout = d
		}
	}
}

// NewFetchTool creates a page-fetching tool.
func NewFetchTool(opts ...FetchOption) *FetchTool {
	t := &FetchTool{
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *FetchTool) Name() string { return "fetch_page" }

func (t *FetchTool) Description() string {
	return "Fetch the text content of a web page by URL. Use this to read an article found via web search."
}

func (t *FetchTool) Spec() *Spec {
	return &Spec{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]Param{
			"url": {
				Type:        "string",
				Description: "The full URL of the page to fetch, including the scheme",
			},
		},
		Required: []string{"url"},
	}
}

func (t *FetchTool) Validate(input *Input) error {
	raw, ok := StringArg(input, "url")
	if !ok || strings.TrimSpace(raw) == "" {
		return errors.New("url is required")
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid url: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	return nil
}

func (t *FetchTool) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	raw, _ := StringArg(input, "url")
	raw = strings.TrimSpace(raw)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return &Output{Error: fmt.Sprintf("invalid request: %v", err), Duration: time.Since(start)}, nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; stimme/1.0)")

	resp, err := t.client.Do(req)
	if err != nil {
		return &Output{Error: fmt.Sprintf("fetch failed: %v", err), Duration: time.Since(start)}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Output{
			Error:    fmt.Sprintf("fetch failed: server returned status %d", resp.StatusCode),
			Duration: time.Since(start),
		}, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return &Output{Error: fmt.Sprintf("failed to parse page: %v", err), Duration: time.Since(start)}, nil
	}

	doc.Find("script, style, noscript").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if text == "" {
		text = strings.Join(strings.Fields(doc.Text()), " ")
	}
	if text == "" {
		return &Output{
			Success:  true,
			Output:   fmt.Sprintf("The page at %s contains no readable text.", raw),
			Duration: time.Since(start),
		}, nil
	}

	if len(text) > fetchMaxChars {
		text = truncateRunes(text, fetchMaxChars) + "..."
	}

	return &Output{
		Success:  true,
		Output:   fmt.Sprintf("Content of %s:\n\n%s", raw, text),
		Duration: time.Since(start),
	}, nil
}

// truncateRunes cuts s to at most max bytes without splitting a rune.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

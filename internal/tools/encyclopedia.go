package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultSummarySentences = 3
	maxDisambiguation       = 5
)

// EncyclopediaTool answers factual questions from Wikipedia via the
// MediaWiki action API. Ambiguous topics come back as a short list of
// candidate titles, missing topics as a not-found message; the tool
// itself never fails the loop.
type EncyclopediaTool struct {
	client  *http.Client
	baseURL string
}

// EncyclopediaConfig configures the encyclopedia tool.
type EncyclopediaConfig struct {
	// BaseURL overrides the wiki endpoint (tests). When empty it is
	// derived from Language.
	BaseURL  string
	Language string
	Timeout  time.Duration
}

// NewEncyclopediaTool creates an encyclopedia lookup tool.
func NewEncyclopediaTool(cfg *EncyclopediaConfig) *EncyclopediaTool {
	if cfg == nil {
		cfg = &EncyclopediaConfig{}
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", cfg.Language)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	return &EncyclopediaTool{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
	}
}

func (t *EncyclopediaTool) Name() string { return "encyclopedia_lookup" }

func (t *EncyclopediaTool) Description() string {
	return "Look up factual, encyclopedic information about a topic. Use this for definitions, people, places, and established facts."
}

func (t *EncyclopediaTool) Spec() *Spec {
	return &Spec{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: map[string]Param{
			"topic": {
				Type:        "string",
				Description: "The topic to look up",
			},
			"sentences": {
				Type:        "integer",
				Description: "Number of summary sentences to return",
				Default:     defaultSummarySentences,
			},
		},
		Required: []string{"topic"},
	}
}

func (t *EncyclopediaTool) Validate(input *Input) error {
	topic, ok := StringArg(input, "topic")
	if !ok || strings.TrimSpace(topic) == "" {
		return errors.New("topic is required")
	}
	return nil
}

type wikiQueryResponse struct {
	Query struct {
		Pages map[string]struct {
			PageID    int    `json:"pageid"`
			Title     string `json:"title"`
			Extract   string `json:"extract"`
			Missing   *any   `json:"missing,omitempty"`
			PageProps *struct {
				Disambiguation *string `json:"disambiguation"`
			} `json:"pageprops,omitempty"`
		} `json:"pages"`
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

func (t *EncyclopediaTool) Execute(ctx context.Context, input *Input) (*Output, error) {
	start := time.Now()

	topic, _ := StringArg(input, "topic")
	topic = strings.TrimSpace(topic)
	sentences := IntArg(input, "sentences", defaultSummarySentences)
	if sentences <= 0 || sentences > 10 {
		sentences = defaultSummarySentences
	}

	page, err := t.queryExtract(ctx, topic, sentences)
	if err != nil {
		return &Output{Error: fmt.Sprintf("encyclopedia lookup failed: %v", err), Duration: time.Since(start)}, nil
	}

	switch {
	case page == nil:
		return &Output{
			Success:  true,
			Output:   fmt.Sprintf("No encyclopedia article found for %q.", topic),
			Duration: time.Since(start),
		}, nil

	case page.disambiguation:
		candidates, err := t.searchTitles(ctx, topic, maxDisambiguation)
		if err != nil || len(candidates) == 0 {
			return &Output{
				Success:  true,
				Output:   fmt.Sprintf("%q is ambiguous. Please be more specific.", topic),
				Duration: time.Since(start),
			}, nil
		}
		return &Output{
			Success: true,
			Output: fmt.Sprintf("%q matches several articles. Did you mean: %s?",
				topic, strings.Join(candidates, ", ")),
			Duration: time.Since(start),
		}, nil

	default:
		return &Output{
			Success:  true,
			Output:   fmt.Sprintf("Encyclopedia entry for %q:\n\n%s", page.title, page.extract),
			Duration: time.Since(start),
		}, nil
	}
}

type wikiPage struct {
	title          string
	extract        string
	disambiguation bool
}

func (t *EncyclopediaTool) queryExtract(ctx context.Context, topic string, sentences int) (*wikiPage, error) {
	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"prop":        {"extracts|pageprops"},
		"ppprop":      {"disambiguation"},
		"explaintext": {"1"},
		"exintro":     {"1"},
		"exsentences": {strconv.Itoa(sentences)},
		"redirects":   {"1"},
		"titles":      {topic},
	}

	var resp wikiQueryResponse
	if err := t.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	for id, p := range resp.Query.Pages {
		if id == "-1" || p.Missing != nil {
			return nil, nil
		}
		return &wikiPage{
			title:          p.Title,
			extract:        strings.TrimSpace(p.Extract),
			disambiguation: p.PageProps != nil && p.PageProps.Disambiguation != nil,
		}, nil
	}
	return nil, nil
}

func (t *EncyclopediaTool) searchTitles(ctx context.Context, topic string, limit int) ([]string, error) {
	params := url.Values{
		"action":   {"query"},
		"format":   {"json"},
		"list":     {"search"},
		"srsearch": {topic},
		"srlimit":  {strconv.Itoa(limit)},
	}

	var resp wikiQueryResponse
	if err := t.get(ctx, params, &resp); err != nil {
		return nil, err
	}

	titles := make([]string, 0, limit)
	for _, s := range resp.Query.Search {
		titles = append(titles, s.Title)
		if len(titles) >= limit {
			break
		}
	}
	return titles, nil
}

func (t *EncyclopediaTool) get(ctx context.Context, params url.Values, out *wikiQueryResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

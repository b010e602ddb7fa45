package tools

import "time"

// Config carries the knobs for the built-in tools.
type Config struct {
	// Language selects the encyclopedia edition and date formatting.
	Language string
	// Timezone is the default zone for the clock tool.
	Timezone string
	// FetchTimeout bounds page fetches.
	FetchTimeout time.Duration
}

// NewDefaultRegistry builds the registry with the five built-in tools:
// web search, encyclopedia lookup, page fetch, calculator and clock.
func NewDefaultRegistry(cfg *Config) *Registry {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Europe/Berlin"
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}

	r := NewRegistry()
	r.Register(NewSearchTool(nil))
	r.Register(NewEncyclopediaTool(&EncyclopediaConfig{Language: cfg.Language}))
	r.Register(NewFetchTool(WithFetchTimeout(cfg.FetchTimeout)))
	r.Register(NewCalculatorTool())
	r.Register(NewClockTool(cfg.Timezone, cfg.Language))
	return r
}

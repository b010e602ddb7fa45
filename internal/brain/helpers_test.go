package brain

import "github.com/auralab-io/stimme/internal/config"

func testEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		BaseURL:     "http://127.0.0.1:1",
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   64,
	}
}

// Package config handles loading and validating the agent configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the voice agent.
type Config struct {
	Version     int               `yaml:"version"`
	Agent       AgentConfig       `yaml:"agent"`
	Engine      EngineConfig      `yaml:"engine"`
	Transcriber TranscriberConfig `yaml:"transcriber"`
	Speech      SpeechConfig      `yaml:"speech"`
	Channels    ChannelsConfig    `yaml:"channels"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// AgentConfig controls the reasoning loop and session behavior.
type AgentConfig struct {
	MaxHistory        int    `yaml:"max_history"`         // turn pairs kept per session
	MaxToolIterations int    `yaml:"max_tool_iterations"` // hard bound on reason/act cycles
	Language          string `yaml:"language"`
	Timezone          string `yaml:"timezone"`
	Persona           string `yaml:"persona"`
}

// EngineConfig points at an OpenAI-compatible chat completion backend.
type EngineConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// TranscriberConfig configures the speech-to-text backend.
type TranscriberConfig struct {
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	Language  string `yaml:"language"`
}

// SpeechConfig configures the text-to-speech backend.
type SpeechConfig struct {
	Enabled        bool   `yaml:"enabled"`
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	VoiceID        string `yaml:"voice_id"`
	ModelID        string `yaml:"model_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ChannelsConfig enables front-end channels.
type ChannelsConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	WebChat  WebChatConfig  `yaml:"webchat"`
}

// TelegramConfig configures the Telegram bot channel.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	TokenEnv string `yaml:"token_env"`
}

// WebChatConfig configures the websocket demo channel.
type WebChatConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns a configuration with sensible defaults. Defaults mirror
// the hosted services the agent was built against; all secrets come from
// the environment, never from the file.
func Default() *Config {
	return &Config{
		Version: 1,
		Agent: AgentConfig{
			MaxHistory:        10,
			MaxToolIterations: 10,
			Language:          "de",
			Timezone:          "Europe/Berlin",
			Persona:           "spoken",
		},
		Engine: EngineConfig{
			BaseURL:        "https://api.groq.com/openai/v1",
			APIKeyEnv:      "GROQ_API_KEY",
			Model:          "meta-llama/llama-4-maverick-17b-128e-instruct",
			Temperature:    0.7,
			MaxTokens:      1000,
			TimeoutSeconds: 120,
		},
		Transcriber: TranscriberConfig{
			BaseURL:   "https://api.groq.com/openai/v1",
			APIKeyEnv: "GROQ_API_KEY",
			Model:     "whisper-large-v3",
			Language:  "de",
		},
		Speech: SpeechConfig{
			Enabled:        true,
			BaseURL:        "https://api.elevenlabs.io",
			APIKeyEnv:      "ELEVENLABS_API_KEY",
			VoiceID:        "z1EhmmPwF0ENGYE8dBE6",
			ModelID:        "eleven_flash_v2_5",
			TimeoutSeconds: 60,
		},
		Channels: ChannelsConfig{
			Telegram: TelegramConfig{
				Enabled:  false,
				TokenEnv: "TELEGRAM_BOT_TOKEN",
			},
			WebChat: WebChatConfig{
				Enabled: true,
				Host:    "127.0.0.1",
				Port:    18900,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a configuration file. An empty path falls back to defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Unmarshal on top of defaults so partial files stay usable.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// Validate checks the configuration for values the agent cannot run with.
func (c *Config) Validate() error {
	if c.Agent.MaxHistory <= 0 {
		return fmt.Errorf("agent.max_history must be positive, got %d", c.Agent.MaxHistory)
	}
	if c.Agent.MaxToolIterations <= 0 {
		return fmt.Errorf("agent.max_tool_iterations must be positive, got %d", c.Agent.MaxToolIterations)
	}
	if c.Engine.Model == "" {
		return fmt.Errorf("engine.model is required")
	}
	if c.Engine.BaseURL == "" {
		return fmt.Errorf("engine.base_url is required")
	}
	if c.Channels.WebChat.Enabled {
		if c.Channels.WebChat.Port <= 0 || c.Channels.WebChat.Port > 65535 {
			return fmt.Errorf("channels.webchat.port out of range: %d", c.Channels.WebChat.Port)
		}
	}
	return nil
}

// EngineAPIKey resolves the reasoning engine API key from the environment.
func (c *Config) EngineAPIKey() string {
	return os.Getenv(c.Engine.APIKeyEnv)
}

// TranscriberAPIKey resolves the transcription API key from the environment.
func (c *Config) TranscriberAPIKey() string {
	return os.Getenv(c.Transcriber.APIKeyEnv)
}

// SpeechAPIKey resolves the synthesis API key from the environment.
func (c *Config) SpeechAPIKey() string {
	return os.Getenv(c.Speech.APIKeyEnv)
}

// TelegramToken resolves the bot token from the environment.
func (c *Config) TelegramToken() string {
	return os.Getenv(c.Channels.Telegram.TokenEnv)
}

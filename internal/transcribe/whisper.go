// Package transcribe converts prepared audio into text through an
// OpenAI-compatible speech-to-text endpoint.
package transcribe

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/auralab-io/stimme/internal/audio"
	"github.com/auralab-io/stimme/internal/config"
)

// Transcriber turns audio into text.
type Transcriber interface {
	// Transcribe returns the spoken text of a buffer. The language hint
	// is a two-letter code; empty lets the backend detect it.
	Transcribe(ctx context.Context, b *audio.Buffer, language string) (string, error)
}

// WhisperTranscriber calls a Whisper-style transcription endpoint.
type WhisperTranscriber struct {
	client *openai.Client
	model  string
}

// NewWhisper creates a transcriber from configuration. The API key is
// required.
func NewWhisper(cfg config.TranscriberConfig, apiKey string) (*WhisperTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("transcriber API key is empty")
	}

	clientCfg := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &WhisperTranscriber{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

// Transcribe uploads the buffer as a WAV file and returns the text.
// The temporary file is removed before returning.
func (t *WhisperTranscriber) Transcribe(ctx context.Context, b *audio.Buffer, language string) (string, error) {
	if err := b.Validate(); err != nil {
		return "", fmt.Errorf("transcription input: %w", err)
	}

	path, err := audio.WriteTempWAV(b)
	if err != nil {
		return "", fmt.Errorf("stage audio for transcription: %w", err)
	}
	defer os.Remove(path)

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Language: language,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}

	return strings.TrimSpace(resp.Text), nil
}

// Package speech converts answer text into audio through the
// ElevenLabs text-to-speech API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/auralab-io/stimme/internal/config"
)

// Synthesizer turns text into spoken audio bytes.
type Synthesizer interface {
	// Synthesize renders text with the given voice. An empty voiceID
	// uses the configured default. The returned bytes are an encoded
	// audio stream ready to send to a channel.
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// ElevenLabs calls the ElevenLabs streaming TTS endpoint.
type ElevenLabs struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	defaultVoice string
	modelID      string
}

// NewElevenLabs creates a synthesizer from configuration. The API key
// is required.
func NewElevenLabs(cfg config.SpeechConfig, apiKey string) (*ElevenLabs, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("speech API key is empty")
	}

	base := cfg.BaseURL
	if base == "" {
		base = "https://api.elevenlabs.io"
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ElevenLabs{
		client:       &http.Client{Timeout: timeout},
		baseURL:      base,
		apiKey:       apiKey,
		defaultVoice: cfg.VoiceID,
		modelID:      cfg.ModelID,
	}, nil
}

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id,omitempty"`
}

// Synthesize renders text to audio. Non-2xx responses come back as
// errors carrying the backend's explanation.
func (e *ElevenLabs) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}
	if voiceID == "" {
		voiceID = e.defaultVoice
	}
	if voiceID == "" {
		return nil, fmt.Errorf("no voice configured")
	}

	body, err := json.Marshal(synthesisRequest{Text: text, ModelID: e.modelID})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", e.baseURL, url.PathEscape(voiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("speech synthesis failed with status %d: %s", resp.StatusCode, string(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech backend returned no audio")
	}
	return audio, nil
}

package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/auralab-io/stimme/internal/config"
)

func testConfig(baseURL string) config.SpeechConfig {
	return config.SpeechConfig{
		Enabled: true,
		BaseURL: baseURL,
		VoiceID: "voice-default",
		ModelID: "model-1",
	}
}

func TestSynthesizeSendsRequest(t *testing.T) {
	mp3 := []byte("ID3-fake-audio")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.HasSuffix(r.URL.Path, "/v1/text-to-speech/voice-default") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "secret" {
			t.Errorf("xi-api-key = %q", got)
		}

		var body struct {
			Text    string `json:"text"`
			ModelID string `json:"model_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Text != "Hallo Welt" || body.ModelID != "model-1" {
			t.Errorf("body = %+v", body)
		}

		w.Write(mp3)
	}))
	defer srv.Close()

	e, err := NewElevenLabs(testConfig(srv.URL), "secret")
	if err != nil {
		t.Fatal(err)
	}

	audio, err := e.Synthesize(context.Background(), "Hallo Welt", "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if !bytes.Equal(audio, mp3) {
		t.Error("Synthesize did not return the backend audio")
	}
}

func TestSynthesizeExplicitVoiceOverridesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/other-voice") {
			t.Errorf("path = %q, want other-voice suffix", r.URL.Path)
		}
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	e, err := NewElevenLabs(testConfig(srv.URL), "secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Synthesize(context.Background(), "hi", "other-voice"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
}

func TestSynthesizeBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e, err := NewElevenLabs(testConfig(srv.URL), "secret")
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Synthesize(context.Background(), "hi", "")
	if err == nil {
		t.Fatal("Synthesize succeeded on a 429 response")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota") {
		t.Errorf("error %q missing status and backend detail", err)
	}
}

func TestSynthesizeInputValidation(t *testing.T) {
	e, err := NewElevenLabs(testConfig("http://unused"), "secret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Synthesize(context.Background(), "", ""); err == nil {
		t.Error("empty text accepted")
	}

	if _, err := NewElevenLabs(testConfig("http://unused"), ""); err == nil {
		t.Error("empty API key accepted")
	}
}

package gateway

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/auralab-io/stimme/internal/agent"
	"github.com/auralab-io/stimme/internal/audio"
	"github.com/auralab-io/stimme/internal/brain"
	"github.com/auralab-io/stimme/internal/persona"
	"github.com/auralab-io/stimme/internal/session"
	"github.com/auralab-io/stimme/internal/speech"
	"github.com/auralab-io/stimme/internal/tools"
	"github.com/auralab-io/stimme/internal/transcribe"
)

type stubBrain struct {
	answer string
}

func (s *stubBrain) Think(ctx context.Context, req *brain.ThinkRequest) (*brain.ThinkResponse, error) {
	return &brain.ThinkResponse{Content: s.answer}, nil
}

func (s *stubBrain) Ping(ctx context.Context) error { return nil }

type stubTranscriber struct {
	text string
	err  error
	last *audio.Buffer
}

func (s *stubTranscriber) Transcribe(ctx context.Context, b *audio.Buffer, language string) (string, error) {
	s.last = b
	return s.text, s.err
}

type stubSynthesizer struct {
	data []byte
	err  error
	text string
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	s.text = text
	return s.data, s.err
}

func speechBuffer() *audio.Buffer {
	const rate = 16000
	samples := make([]float32, rate/2)
	for i := range samples {
		samples[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/rate))
	}
	return &audio.Buffer{Samples: samples, SampleRate: rate, Channels: 1}
}

func newTestGateway(b brain.Brain, tr *stubTranscriber, sy *stubSynthesizer) (*Gateway, *session.Store) {
	store := session.NewStore(10, "en", "UTC", "test-voice")
	p, err := persona.NewManager().Get(persona.DefaultID)
	if err != nil {
		panic(err)
	}
	loop := agent.New(b, tools.NewDefaultRegistry(nil), p, agent.Config{}, nil)

	// Typed-nil stubs must become nil interfaces.
	var transcriber transcribe.Transcriber
	if tr != nil {
		transcriber = tr
	}
	var synthesizer speech.Synthesizer
	if sy != nil {
		synthesizer = sy
	}
	g := New(store, loop, transcriber, synthesizer, nil)
	return g, store
}

func TestSubmitTextRunsTurn(t *testing.T) {
	g, store := newTestGateway(&stubBrain{answer: "Hello there."}, nil, nil)

	turn, err := g.SubmitText(context.Background(), "webchat", "alice", "  Hi!  ")
	if err != nil {
		t.Fatalf("SubmitText: %v", err)
	}
	if turn.Response != "Hello there." {
		t.Errorf("Response = %q", turn.Response)
	}

	sess, ok := store.Get("alice")
	if !ok {
		t.Fatal("no session created")
	}
	if len(sess.Messages) != 2 {
		t.Errorf("history has %d messages, want 2", len(sess.Messages))
	}
	if sess.Messages[0].Content != "Hi!" {
		t.Errorf("user message = %q, want trimmed input", sess.Messages[0].Content)
	}
}

func TestSubmitTextRejectsBadInput(t *testing.T) {
	g, store := newTestGateway(&stubBrain{answer: "x"}, nil, nil)

	if _, err := g.SubmitText(context.Background(), "webchat", "", "hi"); !IsInputError(err) {
		t.Errorf("missing identity: err = %v, want input error", err)
	}
	if _, err := g.SubmitText(context.Background(), "webchat", "alice", "   "); !IsInputError(err) {
		t.Errorf("blank text: err = %v, want input error", err)
	}
	if sess, ok := store.Get("alice"); ok && len(sess.Messages) != 0 {
		t.Error("rejected input mutated the session")
	}
}

func TestSubmitAudioFullPipeline(t *testing.T) {
	tr := &stubTranscriber{text: "what time is it"}
	sy := &stubSynthesizer{data: []byte("mp3-bytes")}
	g, _ := newTestGateway(&stubBrain{answer: "It is noon."}, tr, sy)

	turn, err := g.SubmitAudio(context.Background(), "telegram", "bob", speechBuffer())
	if err != nil {
		t.Fatalf("SubmitAudio: %v", err)
	}

	if turn.Transcript != "what time is it" {
		t.Errorf("Transcript = %q", turn.Transcript)
	}
	if turn.Response != "It is noon." {
		t.Errorf("Response = %q", turn.Response)
	}
	if string(turn.Audio) != "mp3-bytes" {
		t.Errorf("Audio = %q", turn.Audio)
	}
	if sy.text != "It is noon." {
		t.Errorf("synthesizer got %q", sy.text)
	}
	if tr.last == nil {
		t.Fatal("transcriber never received audio")
	}
	// The transcriber sees preprocessed audio, normalized to unit peak.
	var peak float32
	for _, s := range tr.last.Samples {
		if s > peak {
			peak = s
		}
	}
	if peak < 0.9 {
		t.Errorf("transcriber input peak = %f, want normalized", peak)
	}
}

func TestSubmitAudioTranscriptionFailureDegrades(t *testing.T) {
	tr := &stubTranscriber{err: errors.New("backend down")}
	g, store := newTestGateway(&stubBrain{answer: "unused"}, tr, nil)

	turn, err := g.SubmitAudio(context.Background(), "telegram", "bob", speechBuffer())
	if err != nil {
		t.Fatalf("SubmitAudio must degrade, not fail: %v", err)
	}
	if !turn.Degraded {
		t.Error("transcription failure not marked degraded")
	}
	if turn.Response == "" {
		t.Error("degraded turn has no apology text")
	}
	sess, _ := store.Get("bob")
	if len(sess.Messages) != 0 {
		t.Errorf("failed transcription left %d messages in history", len(sess.Messages))
	}
}

func TestSubmitAudioEmptyTranscriptDegrades(t *testing.T) {
	tr := &stubTranscriber{text: "   "}
	g, store := newTestGateway(&stubBrain{answer: "unused"}, tr, nil)

	turn, err := g.SubmitAudio(context.Background(), "telegram", "bob", speechBuffer())
	if err != nil {
		t.Fatalf("SubmitAudio: %v", err)
	}
	if !turn.Degraded || turn.Response == "" {
		t.Errorf("empty transcript turn = %+v, want degraded with text", turn)
	}
	sess, _ := store.Get("bob")
	if len(sess.Messages) != 0 {
		t.Error("empty transcript reached the reasoning loop")
	}
}

func TestSubmitAudioSynthesisFailureKeepsText(t *testing.T) {
	tr := &stubTranscriber{text: "hello"}
	sy := &stubSynthesizer{err: errors.New("tts down")}
	g, _ := newTestGateway(&stubBrain{answer: "Hi."}, tr, sy)

	turn, err := g.SubmitAudio(context.Background(), "telegram", "bob", speechBuffer())
	if err != nil {
		t.Fatalf("SubmitAudio: %v", err)
	}
	if turn.Degraded {
		t.Error("synthesis failure must not degrade the turn")
	}
	if turn.Response != "Hi." {
		t.Errorf("Response = %q", turn.Response)
	}
	if turn.Audio != nil {
		t.Error("failed synthesis still attached audio")
	}
}

func TestSubmitAudioRejectsBadInput(t *testing.T) {
	g, _ := newTestGateway(&stubBrain{answer: "x"}, &stubTranscriber{text: "hi"}, nil)

	if _, err := g.SubmitAudio(context.Background(), "telegram", "bob", nil); !IsInputError(err) {
		t.Errorf("nil buffer: err = %v, want input error", err)
	}
	bad := &audio.Buffer{Samples: nil, SampleRate: 16000, Channels: 1}
	if _, err := g.SubmitAudio(context.Background(), "telegram", "bob", bad); !IsInputError(err) {
		t.Errorf("empty buffer: err = %v, want input error", err)
	}

	// Without a transcriber, audio submissions are rejected up front.
	noTr, _ := newTestGateway(&stubBrain{answer: "x"}, nil, nil)
	if _, err := noTr.SubmitAudio(context.Background(), "telegram", "bob", speechBuffer()); !IsInputError(err) {
		t.Errorf("no transcriber: err = %v, want input error", err)
	}
}

func TestResetClearsHistoryAndAcknowledges(t *testing.T) {
	g, store := newTestGateway(&stubBrain{answer: "noted"}, nil, nil)

	if _, err := g.SubmitText(context.Background(), "webchat", "alice", "remember this"); err != nil {
		t.Fatal(err)
	}

	ack := g.Reset("alice")
	if !strings.Contains(ack, "forgotten") {
		t.Errorf("ack = %q", ack)
	}
	sess, _ := store.Get("alice")
	if len(sess.Messages) != 0 {
		t.Errorf("reset left %d messages", len(sess.Messages))
	}
}

func TestResetUnknownIdentityCreatesNoSession(t *testing.T) {
	g, store := newTestGateway(&stubBrain{answer: "x"}, nil, nil)

	ack := g.Reset("stranger")
	if ack == "" {
		t.Error("reset of unknown identity has no acknowledgement")
	}
	if store.Len() != 0 {
		t.Errorf("reset of unknown identity created %d sessions", store.Len())
	}
}

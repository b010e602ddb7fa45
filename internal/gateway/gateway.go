// Package gateway is the single entry point channels talk to. It owns
// the per-turn pipeline: validate input, prepare audio, transcribe,
// reason, synthesize speech, and keep sessions consistent throughout.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/auralab-io/stimme/internal/agent"
	"github.com/auralab-io/stimme/internal/audio"
	"github.com/auralab-io/stimme/internal/logging"
	"github.com/auralab-io/stimme/internal/metrics"
	"github.com/auralab-io/stimme/internal/session"
	"github.com/auralab-io/stimme/internal/speech"
	"github.com/auralab-io/stimme/internal/transcribe"
)

// InputError marks rejected input. Input is checked before the session
// is touched, so a rejected submission leaves no trace in history.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string { return e.Reason }

// IsInputError reports whether err is an input rejection.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// TextTurn is the outcome of a text submission.
type TextTurn struct {
	Response string
	Degraded bool
}

// AudioTurn is the outcome of an audio submission. Audio is nil when
// synthesis is disabled or failed; the text response always stands on
// its own.
type AudioTurn struct {
	Transcript string
	Response   string
	Audio      []byte
	Degraded   bool
}

// Gateway wires the pipeline components together.
type Gateway struct {
	sessions    *session.Store
	loop        *agent.Loop
	preprocess  *audio.Preprocessor
	transcriber transcribe.Transcriber
	synthesizer speech.Synthesizer
	log         *logging.Logger
}

// New creates a gateway. The synthesizer may be nil, which disables
// speech output; the transcriber may be nil, which rejects audio
// submissions.
func New(sessions *session.Store, loop *agent.Loop, tr transcribe.Transcriber, sy speech.Synthesizer, log *logging.Logger) *Gateway {
	if log == nil {
		log = logging.New()
	}
	return &Gateway{
		sessions:    sessions,
		loop:        loop,
		preprocess:  audio.NewPreprocessor(),
		transcriber: tr,
		synthesizer: sy,
		log:         log.Component("gateway"),
	}
}

// SubmitText runs one text turn for an identity. The channel name is
// used for instrumentation only.
func (g *Gateway) SubmitText(ctx context.Context, channel, identity, text string) (*TextTurn, error) {
	text = strings.TrimSpace(text)
	if identity == "" {
		return nil, &InputError{Reason: "identity is required"}
	}
	if text == "" {
		return nil, &InputError{Reason: "message is empty"}
	}

	sess := g.sessions.GetOrCreate(identity)
	sess.Lock()
	defer sess.Unlock()

	resp := g.loop.Process(ctx, sess, text)
	metrics.TurnsTotal.WithLabelValues(channel, outcome(resp.Degraded)).Inc()
	g.log.Info("text turn completed", "channel", channel, "identity", identity, "degraded", resp.Degraded, "tools", len(resp.ToolsUsed))

	return &TextTurn{Response: resp.Content, Degraded: resp.Degraded}, nil
}

// SubmitAudio runs one voice turn: preprocess, transcribe, reason, and
// synthesize the answer. A transcription failure degrades the turn to
// an apology instead of failing it; a synthesis failure only drops the
// audio.
func (g *Gateway) SubmitAudio(ctx context.Context, channel, identity string, b *audio.Buffer) (*AudioTurn, error) {
	if identity == "" {
		return nil, &InputError{Reason: "identity is required"}
	}
	if b == nil {
		return nil, &InputError{Reason: "audio is empty"}
	}
	if err := b.Validate(); err != nil {
		return nil, &InputError{Reason: fmt.Sprintf("bad audio: %v", err)}
	}
	if g.transcriber == nil {
		return nil, &InputError{Reason: "audio input is not configured"}
	}

	sess := g.sessions.GetOrCreate(identity)
	sess.Lock()
	defer sess.Unlock()

	prepared, err := g.preprocess.Process(b)
	if err != nil {
		return nil, &InputError{Reason: fmt.Sprintf("bad audio: %v", err)}
	}

	turn := &AudioTurn{}

	transcript, err := g.transcriber.Transcribe(ctx, prepared, sess.Language)
	if err != nil {
		metrics.AdapterErrors.WithLabelValues("transcriber").Inc()
		metrics.TurnsTotal.WithLabelValues(channel, "degraded").Inc()
		g.log.Error("transcription failed", "channel", channel, "identity", identity, "error", err)
		turn.Response = transcriptionFailureText(sess.Language)
		turn.Degraded = true
		g.synthesizeInto(ctx, sess, turn)
		return turn, nil
	}
	turn.Transcript = transcript

	if strings.TrimSpace(transcript) == "" {
		turn.Response = emptyTranscriptText(sess.Language)
		turn.Degraded = true
		metrics.TurnsTotal.WithLabelValues(channel, "degraded").Inc()
		g.synthesizeInto(ctx, sess, turn)
		return turn, nil
	}

	resp := g.loop.Process(ctx, sess, transcript)
	turn.Response = resp.Content
	turn.Degraded = resp.Degraded
	metrics.TurnsTotal.WithLabelValues(channel, outcome(resp.Degraded)).Inc()
	g.log.Info("voice turn completed", "channel", channel, "identity", identity, "degraded", resp.Degraded, "tools", len(resp.ToolsUsed))

	g.synthesizeInto(ctx, sess, turn)
	return turn, nil
}

// Reset clears an identity's conversation and returns the localized
// acknowledgement. An unknown identity gets the acknowledgement only;
// no session is created for it.
func (g *Gateway) Reset(identity string) string {
	language := g.sessions.DefaultLanguage()
	if sess, ok := g.sessions.Get(identity); ok {
		language = sess.Language
		g.sessions.Reset(identity)
	}
	g.log.Info("session reset", "identity", identity)
	if language == "de" {
		return "Alles klar, ich habe unser Gespräch vergessen. Womit kann ich dir helfen?"
	}
	return "Okay, I've forgotten our conversation. What can I help you with?"
}

func (g *Gateway) synthesizeInto(ctx context.Context, sess *session.Session, turn *AudioTurn) {
	if g.synthesizer == nil || turn.Response == "" {
		return
	}
	data, err := g.synthesizer.Synthesize(ctx, turn.Response, sess.Voice)
	if err != nil {
		metrics.AdapterErrors.WithLabelValues("speech").Inc()
		g.log.Warn("speech synthesis failed, sending text only", "identity", sess.Identity, "error", err)
		return
	}
	turn.Audio = data
}

func outcome(degraded bool) string {
	if degraded {
		return "degraded"
	}
	return "ok"
}

func transcriptionFailureText(language string) string {
	if language == "de" {
		return "Entschuldigung, ich konnte deine Sprachnachricht nicht verstehen. Bitte versuche es noch einmal."
	}
	return "Sorry, I couldn't understand your voice message. Please try again."
}

func emptyTranscriptText(language string) string {
	if language == "de" {
		return "Ich habe in der Aufnahme leider nichts gehört. Magst du es noch einmal versuchen?"
	}
	return "I couldn't hear anything in that recording. Could you try again?"
}

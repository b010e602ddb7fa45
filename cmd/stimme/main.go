// Command stimme runs the voice agent: it connects the reasoning loop
// and its tools to the configured channels and serves conversations
// until terminated.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/auralab-io/stimme/internal/agent"
	"github.com/auralab-io/stimme/internal/brain"
	"github.com/auralab-io/stimme/internal/channels"
	"github.com/auralab-io/stimme/internal/channels/telegram"
	"github.com/auralab-io/stimme/internal/channels/webchat"
	"github.com/auralab-io/stimme/internal/config"
	"github.com/auralab-io/stimme/internal/gateway"
	"github.com/auralab-io/stimme/internal/logging"
	"github.com/auralab-io/stimme/internal/persona"
	"github.com/auralab-io/stimme/internal/session"
	"github.com/auralab-io/stimme/internal/speech"
	"github.com/auralab-io/stimme/internal/tools"
	"github.com/auralab-io/stimme/internal/transcribe"
)

const version = "0.3.0"

const turnTimeout = 2 * time.Minute

func main() {
	var (
		configPath  = flag.String("config", "", "path to config file (YAML)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("stimme %s\n", version)
		return
	}

	// Secrets come from the environment; a local .env is a convenience.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logging.NewWithConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	defer log.Close()

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logging.Logger) error {
	engine, err := brain.NewOpenAI(cfg.Engine, cfg.EngineAPIKey())
	if err != nil {
		return fmt.Errorf("reasoning engine: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := engine.Ping(pingCtx); err != nil {
		log.Warn("reasoning backend unreachable at startup", "error", err)
	}
	cancel()

	personas := persona.NewManager()
	active, err := personas.Get(cfg.Agent.Persona)
	if err != nil {
		return err
	}

	registry := tools.NewDefaultRegistry(&tools.Config{
		Language: cfg.Agent.Language,
		Timezone: cfg.Agent.Timezone,
	})
	loop := agent.New(engine, registry, active, agent.Config{
		MaxIterations: cfg.Agent.MaxToolIterations,
		MaxTokens:     cfg.Engine.MaxTokens,
		Temperature:   cfg.Engine.Temperature,
	}, log)

	var transcriber transcribe.Transcriber
	if key := cfg.TranscriberAPIKey(); key != "" {
		whisper, err := transcribe.NewWhisper(cfg.Transcriber, key)
		if err != nil {
			return fmt.Errorf("transcriber: %w", err)
		}
		transcriber = whisper
	} else {
		log.Warn("no transcriber API key, voice input disabled")
	}

	var synthesizer speech.Synthesizer
	if cfg.Speech.Enabled {
		if key := cfg.SpeechAPIKey(); key != "" {
			eleven, err := speech.NewElevenLabs(cfg.Speech, key)
			if err != nil {
				return fmt.Errorf("speech: %w", err)
			}
			synthesizer = eleven
		} else {
			log.Warn("no speech API key, voice output disabled")
		}
	}

	sessions := session.NewStore(cfg.Agent.MaxHistory, cfg.Agent.Language, cfg.Agent.Timezone, cfg.Speech.VoiceID)
	gw := gateway.New(sessions, loop, transcriber, synthesizer, log)

	router := channels.NewRouter()

	tg, err := telegram.New(cfg.TelegramToken(), cfg.Channels.Telegram.Enabled, log)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	router.Register(tg)
	router.Register(webchat.New(cfg.Channels.WebChat.Host, cfg.Channels.WebChat.Port, cfg.Channels.WebChat.Enabled, log))

	if len(router.Channels()) == 0 {
		return fmt.Errorf("no channels enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := router.StartAll(ctx); err != nil {
		return err
	}
	log.Info("agent running", "version", version, "channels", len(router.Channels()), "language", cfg.Agent.Language)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			router.StopAll()
			return nil
		case msg := <-router.Incoming():
			// Per-identity ordering is enforced by the session lock, so
			// each message can run on its own goroutine.
			go handle(ctx, gw, router, cfg, log, msg)
		}
	}
}

func handle(ctx context.Context, gw *gateway.Gateway, router *channels.Router, cfg *config.Config, log *logging.Logger, msg *channels.Inbound) {
	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	ch, ok := router.Get(msg.Channel)
	if !ok {
		log.Error("message from unknown channel", "channel", msg.Channel)
		return
	}
	reply := func(out *channels.Outbound) {
		if err := ch.SendMessage(msg.UserID, out); err != nil {
			log.Error("reply failed", "channel", msg.Channel, "user", msg.UserID, "error", err)
		}
	}

	switch msg.Kind {
	case channels.KindCommand:
		reply(&channels.Outbound{Text: handleCommand(gw, cfg, msg)})

	case channels.KindText:
		turn, err := gw.SubmitText(ctx, msg.Channel, msg.UserID, msg.Text)
		if err != nil {
			reply(&channels.Outbound{Text: rejectionText(cfg.Agent.Language, err)})
			return
		}
		reply(&channels.Outbound{Text: turn.Response})

	case channels.KindAudio:
		turn, err := gw.SubmitAudio(ctx, msg.Channel, msg.UserID, msg.Audio)
		if err != nil {
			reply(&channels.Outbound{Text: rejectionText(cfg.Agent.Language, err)})
			return
		}
		text := turn.Response
		if turn.Transcript != "" {
			text = fmt.Sprintf("🗣️ %s\n\n💬 %s", turn.Transcript, turn.Response)
		}
		reply(&channels.Outbound{Text: text, Audio: turn.Audio, AudioMIME: "audio/mpeg"})

	default:
		log.Warn("unhandled message kind", "kind", msg.Kind)
	}
}

func handleCommand(gw *gateway.Gateway, cfg *config.Config, msg *channels.Inbound) string {
	switch msg.Text {
	case "reset":
		return gw.Reset(msg.UserID)
	case "start":
		return greetingText(cfg.Agent.Language)
	case "help":
		return helpText(cfg.Agent.Language)
	default:
		if cfg.Agent.Language == "de" {
			return fmt.Sprintf("Den Befehl /%s kenne ich nicht. Probiere /help.", msg.Text)
		}
		return fmt.Sprintf("I don't know the command /%s. Try /help.", msg.Text)
	}
}

func greetingText(language string) string {
	if language == "de" {
		return "Hallo! Ich bin dein Sprachassistent. Schick mir eine Sprachnachricht oder schreib mir, und ich antworte dir. Mit /reset fangen wir von vorn an."
	}
	return "Hi! I'm your voice assistant. Send me a voice message or just type, and I'll answer. Use /reset to start over."
}

func helpText(language string) string {
	if language == "de" {
		return "So funktioniert es: Schick mir eine Sprachnachricht oder eine Textfrage. Ich kann im Web suchen, Wissensfragen beantworten, rechnen und dir die Uhrzeit sagen. Befehle: /start, /help, /reset."
	}
	return "How it works: send me a voice message or a text question. I can search the web, answer factual questions, do math, and tell the time. Commands: /start, /help, /reset."
}

func rejectionText(language string, err error) string {
	if gateway.IsInputError(err) {
		if language == "de" {
			return fmt.Sprintf("Das konnte ich nicht annehmen: %v", err)
		}
		return fmt.Sprintf("I couldn't accept that: %v", err)
	}
	if language == "de" {
		return "Da ist etwas schiefgelaufen. Bitte versuche es noch einmal."
	}
	return "Something went wrong. Please try again."
}

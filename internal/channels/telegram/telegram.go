// Package telegram is the Telegram bot channel. Users talk to the
// agent by text or voice note; answers come back as text and, when
// synthesis is on, as a voice reply.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/auralab-io/stimme/internal/audio"
	"github.com/auralab-io/stimme/internal/channels"
	"github.com/auralab-io/stimme/internal/logging"
)

const voiceDownloadLimit = 20 << 20 // Telegram bot API file cap

// Channel is the Telegram front end.
type Channel struct {
	bot      *tgbotapi.BotAPI
	enabled  bool
	incoming chan *channels.Inbound
	log      *logging.Logger
	client   *http.Client

	cancel context.CancelFunc
}

// New creates the Telegram channel. An empty token yields a disabled
// channel; a bad token fails.
func New(token string, enabled bool, log *logging.Logger) (*Channel, error) {
	if log == nil {
		log = logging.New()
	}
	ch := &Channel{
		enabled:  enabled && token != "",
		incoming: make(chan *channels.Inbound, 16),
		log:      log.Component("telegram"),
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	if !ch.enabled {
		return ch, nil
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	ch.bot = bot
	ch.log.Info("telegram bot authorized", "username", bot.Self.UserName)
	return ch, nil
}

func (c *Channel) Name() string    { return "telegram" }
func (c *Channel) IsEnabled() bool { return c.enabled }

func (c *Channel) Incoming() <-chan *channels.Inbound { return c.incoming }

// Start begins long-polling for updates.
func (c *Channel) Start(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	ctx, c.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := c.bot.GetUpdatesChan(u)

	go c.receive(ctx, updates)
	return nil
}

// Stop ends polling and closes the incoming stream.
func (c *Channel) Stop() error {
	if !c.enabled {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.bot.StopReceivingUpdates()
	return nil
}

func (c *Channel) receive(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer close(c.incoming)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			if msg := c.convert(ctx, update.Message); msg != nil {
				c.incoming <- msg
			}
		}
	}
}

func (c *Channel) convert(ctx context.Context, m *tgbotapi.Message) *channels.Inbound {
	in := &channels.Inbound{
		ID:      uuid.NewString(),
		Channel: c.Name(),
		UserID:  strconv.FormatInt(m.Chat.ID, 10),
	}

	switch {
	case m.IsCommand():
		in.Kind = channels.KindCommand
		in.Text = m.Command()
		return in

	case m.Voice != nil:
		buf, err := c.downloadVoice(ctx, m.Voice.FileID)
		if err != nil {
			c.log.Error("voice download failed", "chat", m.Chat.ID, "error", err)
			_ = c.SendMessage(in.UserID, &channels.Outbound{
				Text: "Entschuldigung, ich konnte deine Sprachnachricht nicht laden.",
			})
			return nil
		}
		in.Kind = channels.KindAudio
		in.Audio = buf
		return in

	case m.Text != "":
		in.Kind = channels.KindText
		in.Text = m.Text
		return in

	default:
		return nil
	}
}

func (c *Channel) downloadVoice(ctx context.Context, fileID string) (*audio.Buffer, error) {
	url, err := c.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, voiceDownloadLimit))
	if err != nil {
		return nil, err
	}

	buf, err := audio.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode voice note: %w", err)
	}
	return buf, nil
}

// SendMessage delivers a reply. Text goes out first so the user reads
// the answer even when the voice upload fails.
func (c *Channel) SendMessage(userID string, msg *channels.Outbound) error {
	if !c.enabled {
		return fmt.Errorf("telegram channel is disabled")
	}
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad chat id %q: %w", userID, err)
	}

	if msg.Text != "" {
		if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, msg.Text)); err != nil {
			return fmt.Errorf("send text: %w", err)
		}
	}

	if len(msg.Audio) > 0 {
		voice := tgbotapi.NewVoice(chatID, tgbotapi.FileBytes{
			Name:  "answer.mp3",
			Bytes: msg.Audio,
		})
		if _, err := c.bot.Send(voice); err != nil {
			c.log.Warn("voice reply failed, text was delivered", "chat", chatID, "error", err)
		}
	}
	return nil
}

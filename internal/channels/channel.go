// Package channels defines the front-end boundary: the Channel
// interface every transport implements and the Router that fans their
// traffic into one stream.
package channels

import (
	"context"
	"fmt"

	"github.com/auralab-io/stimme/internal/audio"
)

// Message kinds.
const (
	KindText    = "text"
	KindAudio   = "audio"
	KindCommand = "command"
)

// Inbound is one incoming message from a channel. UserID is the
// channel-scoped identity the session is keyed by.
type Inbound struct {
	ID      string
	Channel string
	UserID  string
	Kind    string
	Text    string
	Audio   *audio.Buffer
}

// Outbound is one reply to a user. Audio is optional; channels that
// cannot play audio send only the text.
type Outbound struct {
	Text      string
	Audio     []byte
	AudioMIME string
}

// Channel is a front-end transport the agent can converse over.
type Channel interface {
	Name() string
	IsEnabled() bool

	// Start begins receiving. Received messages appear on Incoming
	// until Stop.
	Start(ctx context.Context) error
	Stop() error

	// SendMessage delivers a reply to a user of this channel.
	SendMessage(userID string, msg *Outbound) error

	Incoming() <-chan *Inbound
}

// Router aggregates the enabled channels behind a single message
// stream.
type Router struct {
	channels []Channel
	incoming chan *Inbound
	done     chan struct{}
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		incoming: make(chan *Inbound, 64),
		done:     make(chan struct{}),
	}
}

// Register adds a channel. Disabled channels are skipped.
func (r *Router) Register(ch Channel) {
	if !ch.IsEnabled() {
		return
	}
	r.channels = append(r.channels, ch)
}

// Channels returns the registered channels.
func (r *Router) Channels() []Channel {
	return r.channels
}

// Get returns a registered channel by name.
func (r *Router) Get(name string) (Channel, bool) {
	for _, ch := range r.channels {
		if ch.Name() == name {
			return ch, true
		}
	}
	return nil, false
}

// StartAll starts every registered channel and begins forwarding their
// messages onto Incoming. A channel that fails to start aborts the
// whole startup.
func (r *Router) StartAll(ctx context.Context) error {
	for _, ch := range r.channels {
		if err := ch.Start(ctx); err != nil {
			return fmt.Errorf("start channel %s: %w", ch.Name(), err)
		}
		go r.forward(ch)
	}
	return nil
}

func (r *Router) forward(ch Channel) {
	for msg := range ch.Incoming() {
		select {
		case r.incoming <- msg:
		case <-r.done:
			return
		}
	}
}

// StopAll stops every registered channel.
func (r *Router) StopAll() {
	close(r.done)
	for _, ch := range r.channels {
		_ = ch.Stop()
	}
}

// Incoming is the aggregated message stream.
func (r *Router) Incoming() <-chan *Inbound {
	return r.incoming
}

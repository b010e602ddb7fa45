// Package webchat is the websocket demo channel. It serves a JSON
// message protocol for browser clients plus health and metrics
// endpoints.
package webchat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/auralab-io/stimme/internal/channels"
	"github.com/auralab-io/stimme/internal/logging"
)

// clientFrame is what a browser sends: a chat message or a reset.
type clientFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// serverFrame is what the server sends back.
type serverFrame struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Audio     string `json:"audio,omitempty"` // base64
	AudioMIME string `json:"audio_mime,omitempty"`
}

// Channel is the websocket front end.
type Channel struct {
	enabled  bool
	addr     string
	server   *http.Server
	upgrader websocket.Upgrader
	incoming chan *channels.Inbound
	log      *logging.Logger

	mu    sync.RWMutex
	conns map[string]*wsConn
}

type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

// New creates the webchat channel.
func New(host string, port int, enabled bool, log *logging.Logger) *Channel {
	if log == nil {
		log = logging.New()
	}
	return &Channel{
		enabled:  enabled,
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		incoming: make(chan *channels.Inbound, 16),
		log:      log.Component("webchat"),
		conns:    make(map[string]*wsConn),
	}
}

func (c *Channel) Name() string    { return "webchat" }
func (c *Channel) IsEnabled() bool { return c.enabled }

func (c *Channel) Incoming() <-chan *channels.Inbound { return c.incoming }

// Start launches the HTTP server.
func (c *Channel) Start(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", c.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/metrics", promhttp.Handler())

	c.server = &http.Server{Addr: c.addr, Handler: mux}

	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("webchat listen: %w", err)
	}
	c.log.Info("webchat listening", "addr", ln.Addr().String())

	go func() {
		if err := c.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.log.Error("webchat server stopped", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down and closes the incoming stream.
func (c *Channel) Stop() error {
	if !c.enabled {
		return nil
	}
	defer close(c.incoming)
	if c.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.server.Shutdown(ctx)
}

func (c *Channel) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.log.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = uuid.NewString()
	}

	wc := &wsConn{conn: conn}
	c.mu.Lock()
	c.conns[userID] = wc
	c.mu.Unlock()

	_ = wc.writeJSON(serverFrame{Type: "welcome", UserID: userID})
	c.log.Info("client connected", "user", userID)

	defer func() {
		c.mu.Lock()
		// A reconnect may have replaced this entry; only evict our own.
		if c.conns[userID] == wc {
			delete(c.conns, userID)
		}
		c.mu.Unlock()
		conn.Close()
		c.log.Info("client disconnected", "user", userID)
	}()

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}

		in := &channels.Inbound{
			ID:      uuid.NewString(),
			Channel: c.Name(),
			UserID:  userID,
		}
		switch frame.Type {
		case "message":
			in.Kind = channels.KindText
			in.Text = frame.Content
		case "reset":
			in.Kind = channels.KindCommand
			in.Text = "reset"
		default:
			_ = wc.writeJSON(serverFrame{Type: "error", Content: fmt.Sprintf("unknown frame type %q", frame.Type)})
			continue
		}
		c.incoming <- in
	}
}

// SendMessage delivers a reply to a connected client.
func (c *Channel) SendMessage(userID string, msg *channels.Outbound) error {
	c.mu.RLock()
	wc, ok := c.conns[userID]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no connected client for %q", userID)
	}

	frame := serverFrame{Type: "response", Content: msg.Text, UserID: userID}
	if len(msg.Audio) > 0 {
		frame.Audio = base64.StdEncoding.EncodeToString(msg.Audio)
		frame.AudioMIME = msg.AudioMIME
	}
	if err := wc.writeJSON(frame); err != nil {
		return fmt.Errorf("write to %q: %w", userID, err)
	}
	return nil
}

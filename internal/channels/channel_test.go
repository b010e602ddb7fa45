package channels

import (
	"context"
	"testing"
	"time"
)

type fakeChannel struct {
	name     string
	enabled  bool
	started  bool
	stopped  bool
	incoming chan *Inbound
	sent     []*Outbound
}

func newFakeChannel(name string, enabled bool) *fakeChannel {
	return &fakeChannel{name: name, enabled: enabled, incoming: make(chan *Inbound, 4)}
}

func (f *fakeChannel) Name() string    { return f.name }
func (f *fakeChannel) IsEnabled() bool { return f.enabled }

func (f *fakeChannel) Start(ctx context.Context) error {
	f.started = true
	return nil
}

func (f *fakeChannel) Stop() error {
	f.stopped = true
	return nil
}

func (f *fakeChannel) SendMessage(userID string, msg *Outbound) error {
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeChannel) Incoming() <-chan *Inbound { return f.incoming }

func TestRouterSkipsDisabledChannels(t *testing.T) {
	r := NewRouter()
	r.Register(newFakeChannel("a", true))
	r.Register(newFakeChannel("b", false))

	if n := len(r.Channels()); n != 1 {
		t.Errorf("router registered %d channels, want 1", n)
	}
	if _, ok := r.Get("b"); ok {
		t.Error("disabled channel is reachable")
	}
	if _, ok := r.Get("a"); !ok {
		t.Error("enabled channel is not reachable")
	}
}

func TestRouterAggregatesIncoming(t *testing.T) {
	a := newFakeChannel("a", true)
	b := newFakeChannel("b", true)

	r := NewRouter()
	r.Register(a)
	r.Register(b)
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer r.StopAll()

	if !a.started || !b.started {
		t.Fatal("StartAll did not start all channels")
	}

	a.incoming <- &Inbound{Channel: "a", Text: "from a"}
	b.incoming <- &Inbound{Channel: "b", Text: "from b"}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-r.Incoming():
			seen[msg.Channel] = true
		case <-time.After(2 * time.Second):
			t.Fatal("aggregated message did not arrive")
		}
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("seen = %v, want both channels", seen)
	}
}

func TestRouterStopAllStopsChannels(t *testing.T) {
	a := newFakeChannel("a", true)
	r := NewRouter()
	r.Register(a)
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	r.StopAll()
	if !a.stopped {
		t.Error("StopAll did not stop the channel")
	}
}

package hub_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tailored-agentic-units/seabird/core/wire"
	"github.com/tailored-agentic-units/seabird/hub"
	"github.com/tailored-agentic-units/seabird/id"
)

func newTestHub(t *testing.T, mutate ...func(*hub.Config)) *hub.Hub {
	t.Helper()

	cfg := hub.DefaultConfig()
	cfg.RequestTimeoutSeconds = 2
	cfg.Tokens = map[string]string{"token-1": "plugin-one"}
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, m := range mutate {
		m(&cfg)
	}

	h := hub.New(context.Background(), cfg)
	t.Cleanup(h.Shutdown)
	return h
}

func helloFrame(backendType, backendID string) *wire.ChatEvent {
	return &wire.ChatEvent{
		Hello: &wire.HelloEvent{
			Backend: id.BackendID{Type: backendType, ID: backendID},
		},
	}
}

func acceptBackend(t *testing.T, h *hub.Hub, backendType, backendID string) *hub.Conn {
	t.Helper()

	conn, err := h.AcceptBackend(helloFrame(backendType, backendID))
	if err != nil {
		t.Fatalf("AcceptBackend() error = %v", err)
	}
	return conn
}

// nextRequest reads the connection's next outbound frame, failing the test
// if none arrives promptly.
func nextRequest(t *testing.T, conn *hub.Conn) *wire.ChatRequest {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	req, err := conn.NextRequest(ctx)
	if err != nil {
		t.Fatalf("NextRequest() error = %v", err)
	}
	return req
}

// autoRespond answers every outbound request with a success marker until
// the connection closes.
func autoRespond(conn *hub.Conn) {
	go func() {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			req, err := conn.NextRequest(ctx)
			cancel()
			if err != nil {
				return
			}
			if req.ID != "" {
				conn.HandleEvent(&wire.ChatEvent{ID: req.ID, Success: &wire.SuccessEvent{}})
			}
		}
	}()
}

func openSession(t *testing.T, h *hub.Hub, identity string, commands map[string]wire.CommandMetadata) *hub.Session {
	t.Helper()

	session, err := h.OpenSession(identity, commands)
	if err != nil {
		t.Fatalf("OpenSession() error = %v", err)
	}
	t.Cleanup(func() { h.CloseSession(session) })
	return session
}

func receiveEvent(t *testing.T, session *hub.Session) *wire.Event {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	event, err := session.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	return event
}

func expectNoEvent(t *testing.T, session *hub.Session) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	event, err := session.Receive(ctx)
	if err == nil {
		t.Fatalf("Receive() = %v, want timeout", event.Kind())
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Receive() error = %v, want deadline exceeded", err)
	}
}

func TestJoinChannel_DispatchesBareChannelName(t *testing.T) {
	h := newTestHub(t)
	conn := acceptBackend(t, h, "irc", "net1")

	backend := id.BackendID{Type: "irc", ID: "net1"}
	absolute := backend.Rewrite("#general")
	if absolute != "irc://net1/%23general" {
		t.Fatalf("Rewrite(#general) = %q, want %q", absolute, "irc://net1/%23general")
	}

	result := make(chan error, 1)
	go func() {
		result <- h.JoinChannel(context.Background(), absolute)
	}()

	req := nextRequest(t, conn)
	if req.JoinChannel == nil {
		t.Fatalf("dispatched request kind = %q, want join_channel", req.Kind())
	}
	if req.JoinChannel.ChannelName != "general" {
		t.Errorf("ChannelName = %q, want %q", req.JoinChannel.ChannelName, "general")
	}
	if req.ID == "" {
		t.Error("join request carries no correlation id")
	}

	conn.HandleEvent(&wire.ChatEvent{ID: req.ID, Success: &wire.SuccessEvent{}})
	if err := <-result; err != nil {
		t.Errorf("JoinChannel() error = %v", err)
	}
}

func TestSendMessage_MalformedID(t *testing.T) {
	h := newTestHub(t)
	acceptBackend(t, h, "irc", "net1")

	tests := []struct {
		name      string
		channelID string
	}{
		{name: "not an absolute id", channelID: "#general"},
		{name: "bad escape", channelID: "irc://net1/%zz"},
		{name: "unknown namespace", channelID: "discord://guild9/general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.SendMessage(context.Background(), "plugin-one", tt.channelID, "hi", nil, nil)
			if !errors.Is(err, id.ErrMalformedID) {
				t.Errorf("SendMessage() error = %v, want ErrMalformedID", err)
			}
		})
	}
}

func TestListBackends(t *testing.T) {
	h := newTestHub(t)
	acceptBackend(t, h, "irc", "net1")
	acceptBackend(t, h, "discord", "guild9")

	backends := h.ListBackends()
	if len(backends) != 2 {
		t.Fatalf("ListBackends() returned %d backends, want 2", len(backends))
	}
	// Sorted by namespace string: discord before irc.
	if backends[0].Type != "discord" || backends[1].Type != "irc" {
		t.Errorf("ListBackends() = %v, want discord then irc", backends)
	}
}

func TestChannelTracking(t *testing.T) {
	h := newTestHub(t)
	conn := acceptBackend(t, h, "irc", "net1")

	conn.HandleEvent(&wire.ChatEvent{JoinChannel: &wire.JoinChannelEvent{
		ChannelID: "#general", DisplayName: "#general", Topic: "chatter",
	}})
	conn.HandleEvent(&wire.ChatEvent{JoinChannel: &wire.JoinChannelEvent{
		ChannelID: "#dev", DisplayName: "#dev",
	}})

	channels := h.ListChannels()
	if len(channels) != 2 {
		t.Fatalf("ListChannels() returned %d channels, want 2", len(channels))
	}
	if channels[0].ID != "irc://net1/%23dev" {
		t.Errorf("first channel id = %q, want %q", channels[0].ID, "irc://net1/%23dev")
	}

	channel, err := h.GetChannel("irc://net1/%23general")
	if err != nil {
		t.Fatalf("GetChannel() error = %v", err)
	}
	if channel.Topic != "chatter" {
		t.Errorf("Topic = %q, want %q", channel.Topic, "chatter")
	}

	conn.HandleEvent(&wire.ChatEvent{ChangeChannel: &wire.ChangeChannelEvent{
		ChannelID: "#general", DisplayName: "#general", Topic: "new topic",
	}})
	channel, err = h.GetChannel("irc://net1/%23general")
	if err != nil {
		t.Fatalf("GetChannel() after change error = %v", err)
	}
	if channel.Topic != "new topic" {
		t.Errorf("Topic after change = %q, want %q", channel.Topic, "new topic")
	}

	conn.HandleEvent(&wire.ChatEvent{LeaveChannel: &wire.LeaveChannelEvent{ChannelID: "#dev"}})
	if got := len(h.ListChannels()); got != 1 {
		t.Errorf("ListChannels() after leave returned %d channels, want 1", got)
	}

	if _, err := h.GetChannel("irc://net1/%23dev"); !errors.Is(err, id.ErrMalformedID) {
		t.Errorf("GetChannel(left channel) error = %v, want ErrMalformedID", err)
	}
}

func TestBackendMetadata(t *testing.T) {
	h := newTestHub(t)
	conn := acceptBackend(t, h, "irc", "net1")

	result := make(chan map[string]string, 1)
	errCh := make(chan error, 1)
	go func() {
		values, err := h.BackendMetadata(context.Background(), id.BackendID{Type: "irc", ID: "net1"})
		result <- values
		errCh <- err
	}()

	req := nextRequest(t, conn)
	if req.Metadata == nil {
		t.Fatalf("dispatched request kind = %q, want metadata", req.Kind())
	}

	conn.HandleEvent(&wire.ChatEvent{
		ID:       req.ID,
		Metadata: &wire.MetadataEvent{Values: map[string]string{"nick": "seabird"}},
	})

	values := <-result
	if err := <-errCh; err != nil {
		t.Fatalf("BackendMetadata() error = %v", err)
	}
	if values["nick"] != "seabird" {
		t.Errorf("metadata = %v, want nick=seabird", values)
	}
}

func TestBackendMetadata_NotConnected(t *testing.T) {
	h := newTestHub(t)

	_, err := h.BackendMetadata(context.Background(), id.BackendID{Type: "irc", ID: "nope"})
	if !errors.Is(err, hub.ErrBackendNotFound) {
		t.Errorf("BackendMetadata() error = %v, want ErrBackendNotFound", err)
	}
}

func TestCoreInfo(t *testing.T) {
	h := newTestHub(t)

	info := h.CoreInfo()
	if info.StartupTimestamp > info.CurrentTimestamp {
		t.Errorf("StartupTimestamp %d after CurrentTimestamp %d", info.StartupTimestamp, info.CurrentTimestamp)
	}
}

func TestAuthenticate(t *testing.T) {
	h := newTestHub(t)

	identity, ok := h.Authenticate("token-1")
	if !ok || identity != "plugin-one" {
		t.Errorf("Authenticate(token-1) = %q, %v; want plugin-one, true", identity, ok)
	}

	if _, ok := h.Authenticate("bogus"); ok {
		t.Error("Authenticate(bogus) succeeded, want failure")
	}
}

func TestShutdown(t *testing.T) {
	h := newTestHub(t)
	conn := acceptBackend(t, h, "irc", "net1")
	session := openSession(t, h, "plugin-one", nil)

	result := make(chan error, 1)
	go func() {
		_, err := conn.Dispatch(context.Background(), &wire.ChatRequest{
			SendMessage: &wire.SendMessageRequest{ChannelID: "#general", Text: "hi"},
		})
		result <- err
	}()
	nextRequest(t, conn)

	h.Shutdown()

	if err := <-result; !errors.Is(err, hub.ErrConnectionLost) {
		t.Errorf("Dispatch() during shutdown error = %v, want ErrConnectionLost", err)
	}

	if _, err := h.AcceptBackend(helloFrame("irc", "net2")); !errors.Is(err, hub.ErrShuttingDown) {
		t.Errorf("AcceptBackend() after shutdown error = %v, want ErrShuttingDown", err)
	}
	if _, err := h.OpenSession("plugin-one", nil); !errors.Is(err, hub.ErrShuttingDown) {
		t.Errorf("OpenSession() after shutdown error = %v, want ErrShuttingDown", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := session.Receive(ctx); !errors.Is(err, hub.ErrChannelClosed) {
		t.Errorf("Receive() after shutdown error = %v, want ErrChannelClosed", err)
	}
}

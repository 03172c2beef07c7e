package hub

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tailored-agentic-units/seabird/core/wire"
	"github.com/tailored-agentic-units/seabird/id"
)

// State tracks the backend connection lifecycle.
type State int32

const (
	StateAwaitingHello State = iota
	StateActive
	StateClosedNormal
	StateClosedError
)

func (s State) String() string {
	switch s {
	case StateAwaitingHello:
		return "awaiting_hello"
	case StateActive:
		return "active"
	case StateClosedNormal:
		return "closed"
	case StateClosedError:
		return "closed_error"
	default:
		return "unknown"
	}
}

// Conn is one active backend connection, bound as the namespace owner for
// every relative id it emits. Outbound frames go through a single bounded
// outbox drained by exactly one writer, so writes never interleave.
type Conn struct {
	hub     *Hub
	backend id.BackendID
	outbox  *MessageChannel[*wire.ChatRequest]

	channelsMu sync.Mutex
	channels   map[string]wire.Channel // relative id → info

	pendingMu sync.Mutex
	pending   map[string]*pendingRequest

	state     atomic.Int32
	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(h *Hub, backend id.BackendID) *Conn {
	c := &Conn{
		hub:      h,
		backend:  backend,
		outbox:   NewMessageChannel[*wire.ChatRequest](h.cfg.OutboxBufferSize),
		channels: make(map[string]wire.Channel),
		pending:  make(map[string]*pendingRequest),
		closed:   make(chan struct{}),
	}
	c.state.Store(int32(StateActive))
	return c
}

// Backend returns the namespace this connection owns.
func (c *Conn) Backend() id.BackendID {
	return c.backend
}

// State returns the connection's lifecycle state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// Done returns a channel closed when the connection terminates.
func (c *Conn) Done() <-chan struct{} {
	return c.closed
}

// NextRequest returns the next outbound frame for the connection's single
// writer, blocking until one is queued, the context ends, or the
// connection closes.
func (c *Conn) NextRequest(ctx context.Context) (*wire.ChatRequest, error) {
	req, err := c.outbox.Receive(ctx)
	if err == ErrChannelClosed {
		return nil, ErrConnectionLost
	}
	return req, err
}

// HandleEvent processes one inbound frame from an Active connection.
// Frames carrying a known correlation id resolve their pending request;
// everything else is routed to subscribed sessions.
func (c *Conn) HandleEvent(ev *wire.ChatEvent) {
	kind := ev.Kind()
	if kind == "" || kind == "hello" {
		// Unrecognized discriminant or a second hello. Logged, never
		// silently ignored.
		c.hub.logger.Warn(
			"protocol violation on backend stream",
			slog.String("backend", c.backend.String()),
			slog.String("kind", kind),
		)
		return
	}

	wire.StripReservedTags(ev.Tags)

	if ev.ID != "" && c.resolve(ev) {
		return
	}

	if ev.IsResponse() || ev.Metadata != nil {
		// A response marker with an empty, unknown, or already resolved
		// id. The protocol says these are ignored; log and drop.
		c.hub.logger.Debug(
			"discarding unmatched response",
			slog.String("backend", c.backend.String()),
			slog.String("kind", kind),
			slog.String("request_id", ev.ID),
		)
		return
	}

	c.trackChannel(ev)
	c.hub.router.route(c, ev)
}

// trackChannel maintains the per-connection channel table from membership
// events. The table serves channel listing and the synthetic leave events
// emitted when the connection is lost.
func (c *Conn) trackChannel(ev *wire.ChatEvent) {
	c.channelsMu.Lock()
	defer c.channelsMu.Unlock()

	switch {
	case ev.JoinChannel != nil:
		c.channels[ev.JoinChannel.ChannelID] = wire.Channel{
			ID:          ev.JoinChannel.ChannelID,
			DisplayName: ev.JoinChannel.DisplayName,
			Topic:       ev.JoinChannel.Topic,
		}
	case ev.LeaveChannel != nil:
		delete(c.channels, ev.LeaveChannel.ChannelID)
	case ev.ChangeChannel != nil:
		c.channels[ev.ChangeChannel.ChannelID] = wire.Channel{
			ID:          ev.ChangeChannel.ChannelID,
			DisplayName: ev.ChangeChannel.DisplayName,
			Topic:       ev.ChangeChannel.Topic,
		}
	}
}

// Channels returns the tracked channels with backend-relative ids, sorted
// by id.
func (c *Conn) Channels() []wire.Channel {
	c.channelsMu.Lock()
	channels := make([]wire.Channel, 0, len(c.channels))
	for _, channel := range c.channels {
		channels = append(channels, channel)
	}
	c.channelsMu.Unlock()

	sort.Slice(channels, func(i, j int) bool {
		return channels[i].ID < channels[j].ID
	})
	return channels
}

// Close terminates the connection, failing all pending requests and
// emitting synthetic leave events for every tracked channel. Idempotent;
// err selects Closed{Error} over Closed{Normal}.
func (c *Conn) Close(err error) {
	c.closeOnce.Do(func() {
		if err != nil {
			c.state.Store(int32(StateClosedError))
		} else {
			c.state.Store(int32(StateClosedNormal))
		}
		close(c.closed)
		c.outbox.Close()

		c.hub.removeConn(c)
		c.failPending(ErrConnectionLost)

		for _, channel := range c.Channels() {
			c.hub.router.route(c, &wire.ChatEvent{
				Tags: map[string]string{wire.ReservedTagPrefix + "synthetic": "1"},
				LeaveChannel: &wire.LeaveChannelEvent{
					ChannelID: channel.ID,
				},
			})
		}

		attrs := []any{
			slog.String("backend", c.backend.String()),
			slog.String("state", c.State().String()),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		c.hub.logger.Info("backend disconnected", attrs...)
	})
}

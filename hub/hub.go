// Package hub implements the core of the chat bridge: the connection
// registry binding backend streams to id namespaces, the request
// correlator matching dispatched actions to their outcomes, and the router
// fanning backend events out to plugin sessions.
//
//	h := hub.New(ctx, cfg)
//	conn, err := h.AcceptBackend(helloFrame)
//	err = h.SendMessage(ctx, "plugin", "irc://net1/%23general", "hi", nil, nil)
package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tailored-agentic-units/seabird/core/block"
	"github.com/tailored-agentic-units/seabird/core/wire"
	"github.com/tailored-agentic-units/seabird/id"
)

// CoreInfo describes the running hub.
type CoreInfo struct {
	StartupTimestamp int64 `json:"startup_timestamp"`
	CurrentTimestamp int64 `json:"current_timestamp"`
}

/// Hub owns the three registries of the bridge: active backend connections,
// their pending requests (held per connection), and plugin sessions (held
// by the router). All state is threaded through the Hub; nothing is
// ambient.
type Hub struct {
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
	router  *router

	connsMu sync.RWMutex
	conns   map[id.BackendID]*Conn

	startedAt time.Time
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a Hub. The context bounds the hub's lifetime; cancelling it
// has the same effect as Shutdown.
func New(ctx context.Context, cfg Config) *Hub {
	defaults := DefaultConfig()
	defaults.Merge(&cfg)
	cfg = defaults

	hubCtx, cancel := context.WithCancel(ctx)

	h := &Hub{
		cfg:       cfg,
		logger:    cfg.Logger,
		metrics:   NewMetrics(),
		conns:     make(map[id.BackendID]*Conn),
		startedAt: time.Now(),
		ctx:       hubCtx,
		cancel:    cancel,
	}
	h.router = newRouter(cfg.CommandPrefix, cfg.SessionBufferSize, h.logger, h.metrics)
	return h
}

// AcceptBackend validates a connection's first frame and, when it is a
// well-formed hello for an unclaimed namespace, binds a new Active
// connection. Any other first frame is a protocol violation and the caller
// must terminate the stream.
func (h *Hub) AcceptBackend(first *wire.ChatEvent) (*Conn, error) {
	if h.ctx.Err() != nil {
		return nil, ErrShuttingDown
	}

	if first.Kind() != "hello" {
		return nil, fmt.Errorf("%w: first frame must be hello, got %q", ErrProtocolViolation, first.Kind())
	}

	backend := first.Hello.Backend
	if !backend.Valid() {
		return nil, fmt.Errorf("%w: invalid backend identity %q/%q", ErrProtocolViolation, backend.Type, backend.ID)
	}

	h.connsMu.Lock()
	if _, exists := h.conns[backend]; exists {
		h.connsMu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrBackendExists, backend)
	}
	conn := newConn(h, backend)
	h.conns[backend] = conn
	h.connsMu.Unlock()

	h.metrics.RecordBackend(1)
	h.logger.Info(
		"backend connected",
		slog.String("backend", backend.String()),
	)
	return conn, nil
}

func (h *Hub) removeConn(c *Conn) {
	h.connsMu.Lock()
	if h.conns[c.backend] == c {
		delete(h.conns, c.backend)
		h.metrics.RecordBackend(-1)
	}
	h.connsMu.Unlock()
}

// resolveConn decomposes an absolute id and finds the connection bound to
// its namespace. An unclaimed namespace is indistinguishable from a bad id
// to callers: both are ErrMalformedID.
func (h *Hub) resolveConn(absolute string) (*Conn, string, error) {
	backend, relative, err := id.Parse(absolute)
	if err != nil {
		return nil, "", err
	}

	h.connsMu.RLock()
	conn, ok := h.conns[backend]
	h.connsMu.RUnlock()

	if !ok {
		return nil, "", fmt.Errorf("%w: no backend bound to namespace %s", id.ErrMalformedID, backend)
	}
	return conn, relative, nil
}

// SendMessage dispatches a channel message to the backend owning the
// absolute channel id, then mirrors the action to subscribed sessions.
func (h *Hub) SendMessage(ctx context.Context, sender, channelID, text string, root *block.Block, tags map[string]string) error {
	conn, relative, err := h.resolveConn(channelID)
	if err != nil {
		return err
	}

	tags = wire.StripReservedTags(tags)
	_, err = conn.Dispatch(ctx, &wire.ChatRequest{
		Tags: tags,
		SendMessage: &wire.SendMessageRequest{
			ChannelID: relative,
			Text:      text,
			Root:      root,
		},
	})
	if err != nil {
		return err
	}

	h.router.broadcast(&wire.Event{
		Sender: sender,
		Tags:   tags,
		SendMessage: &wire.SendMessageEvent{
			ChannelID: channelID,
			Text:      text,
		},
	})
	return nil
}

// SendPrivateMessage dispatches a direct message to the backend owning the
// absolute user id, then mirrors the action to subscribed sessions.
func (h *Hub) SendPrivateMessage(ctx context.Context, sender, userID, text string, root *block.Block, tags map[string]string) error {
	conn, relative, err := h.resolveConn(userID)
	if err != nil {
		return err
	}

	tags = wire.StripReservedTags(tags)
	_, err = conn.Dispatch(ctx, &wire.ChatRequest{
		Tags: tags,
		SendPrivateMessage: &wire.SendPrivateMessageRequest{
			UserID: relative,
			Text:   text,
			Root:   root,
		},
	})
	if err != nil {
		return err
	}

	h.router.broadcast(&wire.Event{
		Sender: sender,
		Tags:   tags,
		SendPrivateMessage: &wire.SendPrivateMessageEvent{
			UserID: userID,
			Text:   text,
		},
	})
	return nil
}

// PerformAction dispatches an emoted channel action, then mirrors it.
func (h *Hub) PerformAction(ctx context.Context, sender, channelID, text string, tags map[string]string) error {
	conn, relative, err := h.resolveConn(channelID)
	if err != nil {
		return err
	}

	tags = wire.StripReservedTags(tags)
	_, err = conn.Dispatch(ctx, &wire.ChatRequest{
		Tags: tags,
		PerformAction: &wire.PerformActionRequest{
			ChannelID: relative,
			Text:      text,
		},
	})
	if err != nil {
		return err
	}

	h.router.broadcast(&wire.Event{
		Sender: sender,
		Tags:   tags,
		PerformAction: &wire.PerformActionEvent{
			ChannelID: channelID,
			Text:      text,
		},
	})
	return nil
}

// PerformPrivateAction dispatches an emoted direct action, then mirrors it.
func (h *Hub) PerformPrivateAction(ctx context.Context, sender, userID, text string, tags map[string]string) error {
	conn, relative, err := h.resolveConn(userID)
	if err != nil {
		return err
	}

	tags = wire.StripReservedTags(tags)
	_, err = conn.Dispatch(ctx, &wire.ChatRequest{
		Tags: tags,
		PerformPrivateAction: &wire.PerformPrivateActionRequest{
			UserID: relative,
			Text:   text,
		},
	})
	if err != nil {
		return err
	}

	h.router.broadcast(&wire.Event{
		Sender: sender,
		Tags:   tags,
		PerformPrivateAction: &wire.PerformPrivateActionEvent{
			UserID: userID,
			Text:   text,
		},
	})
	return nil
}

// JoinChannel asks the owning backend to join the channel named by the
// absolute id. The dispatched request carries the bare channel name, with
// any leading "#" sigil stripped.
func (h *Hub) JoinChannel(ctx context.Context, channelID string) error {
	conn, relative, err := h.resolveConn(channelID)
	if err != nil {
		return err
	}

	_, err = conn.Dispatch(ctx, &wire.ChatRequest{
		JoinChannel: &wire.JoinChannelRequest{
			ChannelName: strings.TrimPrefix(relative, "#"),
		},
	})
	return err
}

// LeaveChannel asks the owning backend to leave the channel.
func (h *Hub) LeaveChannel(ctx context.Context, channelID string) error {
	conn, relative, err := h.resolveConn(channelID)
	if err != nil {
		return err
	}

	_, err = conn.Dispatch(ctx, &wire.ChatRequest{
		LeaveChannel: &wire.LeaveChannelRequest{
			ChannelID: relative,
		},
	})
	return err
}

// UpdateChannelInfo asks the owning backend to change channel metadata.
func (h *Hub) UpdateChannelInfo(ctx context.Context, channelID, topic string) error {
	conn, relative, err := h.resolveConn(channelID)
	if err != nil {
		return err
	}

	_, err = conn.Dispatch(ctx, &wire.ChatRequest{
		UpdateChannelInfo: &wire.UpdateChannelInfoRequest{
			ChannelID: relative,
			Topic:     topic,
		},
	})
	return err
}

// BackendMetadata asks a backend to describe itself.
func (h *Hub) BackendMetadata(ctx context.Context, backend id.BackendID) (map[string]string, error) {
	h.connsMu.RLock()
	conn, ok := h.conns[backend]
	h.connsMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, backend)
	}

	ev, err := conn.Dispatch(ctx, &wire.ChatRequest{Metadata: &wire.MetadataRequest{}})
	if err != nil {
		return nil, err
	}
	if ev.Metadata == nil {
		// Backend answered with a bare success marker.
		return nil, nil
	}
	return ev.Metadata.Values, nil
}

// ListBackends returns the namespaces of all active connections, sorted.
func (h *Hub) ListBackends() []id.BackendID {
	h.connsMu.RLock()
	backends := make([]id.BackendID, 0, len(h.conns))
	for backend := range h.conns {
		backends = append(backends, backend)
	}
	h.connsMu.RUnlock()

	sort.Slice(backends, func(i, j int) bool {
		return backends[i].String() < backends[j].String()
	})
	return backends
}

// ListChannels returns every channel tracked across all active backends,
// with absolute ids.
func (h *Hub) ListChannels() []wire.Channel {
	h.connsMu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.connsMu.RUnlock()

	var channels []wire.Channel
	for _, conn := range conns {
		for _, channel := range conn.Channels() {
			channel.ID = conn.backend.Rewrite(channel.ID)
			channels = append(channels, channel)
		}
	}
	sort.Slice(channels, func(i, j int) bool {
		return channels[i].ID < channels[j].ID
	})
	return channels
}

// GetChannel describes one channel by absolute id.
func (h *Hub) GetChannel(channelID string) (wire.Channel, error) {
	conn, relative, err := h.resolveConn(channelID)
	if err != nil {
		return wire.Channel{}, err
	}

	conn.channelsMu.Lock()
	channel, ok := conn.channels[relative]
	conn.channelsMu.Unlock()

	if !ok {
		return wire.Channel{}, fmt.Errorf("%w: unknown channel %q", id.ErrMalformedID, channelID)
	}
	channel.ID = conn.backend.Rewrite(channel.ID)
	return channel, nil
}

// CoreInfo reports hub uptime information.
func (h *Hub) CoreInfo() CoreInfo {
	return CoreInfo{
		StartupTimestamp: h.startedAt.Unix(),
		CurrentTimestamp: time.Now().Unix(),
	}
}

// OpenSession registers a plugin event subscription with its command
// registry. Registry validation failures reject the whole subscription.
func (h *Hub) OpenSession(identity string, commands map[string]wire.CommandMetadata) (*Session, error) {
	if h.ctx.Err() != nil {
		return nil, ErrShuttingDown
	}
	return h.router.addSession(identity, commands)
}

// CloseSession removes a session and releases its buffer.
func (h *Hub) CloseSession(session *Session) {
	h.router.removeSession(session)
}

// Commands returns the registered command descriptors across all sessions.
func (h *Hub) Commands() []wire.CommandMetadata {
	return h.router.commands()
}

// Authenticate maps a bearer token to a caller identity.
func (h *Hub) Authenticate(token string) (string, bool) {
	identity, ok := h.cfg.Tokens[token]
	return identity, ok
}

// Metrics returns a snapshot of hub counters.
func (h *Hub) Metrics() MetricsSnapshot {
	return h.metrics.Snapshot()
}

// Shutdown drains the hub: new connections and sessions are refused, every
// backend connection closes normally (failing its pending requests), and
// every session buffer is released.
func (h *Hub) Shutdown() {
	h.cancel()

	h.connsMu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.connsMu.RUnlock()

	for _, conn := range conns {
		conn.Close(nil)
	}
	h.router.closeAll()

	h.logger.Info("hub shut down")
}

package hub

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tailored-agentic-units/seabird/core/wire"
	"github.com/tailored-agentic-units/seabird/id"
)

const helpReplyTimeout = 5 * time.Second

// router fans unsolicited backend events out to plugin sessions. Events
// with embedded relative ids are rewritten into the absolute id space
// before delivery; command-shaped messages are diverted to the sessions
// registered for them. Delivery to each session is independent and never
// blocks ingestion.
type router struct {
	prefix     string
	bufferSize int
	logger     *slog.Logger
	metrics    *Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

func newRouter(prefix string, bufferSize int, logger *slog.Logger, metrics *Metrics) *router {
	return &router{
		prefix:     prefix,
		bufferSize: bufferSize,
		logger:     logger,
		metrics:    metrics,
		sessions:   make(map[string]*Session),
	}
}

func (r *router) addSession(identity string, commands map[string]wire.CommandMetadata) (*Session, error) {
	session, err := newSession(identity, commands, r.bufferSize)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[session.ID()] = session
	r.mu.Unlock()

	r.metrics.RecordSession(1)
	r.logger.Debug(
		"session subscribed",
		slog.String("session_id", session.ID()),
		slog.String("identity", identity),
		slog.Int("commands", len(commands)),
	)
	return session, nil
}

func (r *router) removeSession(session *Session) {
	r.mu.Lock()
	_, exists := r.sessions[session.ID()]
	if exists {
		delete(r.sessions, session.ID())
	}
	r.mu.Unlock()

	if !exists {
		return
	}

	session.close()
	r.metrics.RecordSession(-1)
	r.logger.Debug(
		"session unsubscribed",
		slog.String("session_id", session.ID()),
		slog.String("identity", session.Identity()),
	)
}

// commands returns the union of command descriptors across all sessions,
// sorted by name. Identical names registered by several sessions collapse
// into one descriptor.
func (r *router) commands() []wire.CommandMetadata {
	r.mu.RLock()
	byName := make(map[string]wire.CommandMetadata)
	for _, session := range r.sessions {
		for name, meta := range session.commands {
			byName[name] = meta
		}
	}
	r.mu.RUnlock()

	commands := make([]wire.CommandMetadata, 0, len(byName))
	for _, meta := range byName {
		commands = append(commands, meta)
	}
	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Name < commands[j].Name
	})
	return commands
}

// route handles one unsolicited event from a backend connection: rewrite
// ids, divert command-shaped messages, otherwise broadcast. A given message
// is delivered as a command event or as its original event, never both.
func (r *router) route(c *Conn, ev *wire.ChatEvent) {
	if m := ev.Message; m != nil {
		if name, arg, ok := splitCommand(r.prefix, m.Text); ok {
			command := &wire.Event{
				Sender: c.backend.String(),
				Tags:   ev.Tags,
				Command: &wire.CommandEvent{
					Source:  rewriteChannelSource(c.backend, m.Source),
					Command: name,
					Arg:     arg,
				},
			}

			if name == helpCommand {
				r.replyHelp(c, m.Source.ChannelID, arg)
				return
			}
			if r.routeCommand(name, command) {
				return
			}
			// No session answers this name; fall through as a plain message.
		}
	}

	event := translateEvent(c.backend, ev)
	if event == nil {
		r.logger.Warn(
			"dropping unroutable event",
			slog.String("backend", c.backend.String()),
			slog.String("kind", ev.Kind()),
		)
		return
	}
	r.broadcast(event)
}

// routeCommand delivers a command event only to the sessions registered for
// its name, reporting whether any session was.
func (r *router) routeCommand(name string, event *wire.Event) bool {
	r.mu.RLock()
	targets := make([]*Session, 0, 1)
	for _, session := range r.sessions {
		if session.handles(name) {
			targets = append(targets, session)
		}
	}
	r.mu.RUnlock()

	if len(targets) == 0 {
		return false
	}
	for _, session := range targets {
		r.deliver(session, event)
	}
	return true
}

// broadcast fans an event out to every session, honoring proxy/skip
// suppression.
func (r *router) broadcast(event *wire.Event) {
	if wire.ProxySkipped(event.Tags) {
		return
	}

	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.RUnlock()

	for _, session := range sessions {
		r.deliver(session, event)
	}
}

func (r *router) deliver(session *Session, event *wire.Event) {
	ok, dropped := session.deliver(event)
	if ok {
		r.metrics.RecordEventRouted(1)
	}
	if dropped || !ok {
		r.metrics.RecordEventDropped(1)
		r.logger.Warn(
			"session buffer overflow, dropped oldest event",
			slog.String("session_id", session.ID()),
			slog.String("identity", session.Identity()),
		)
	}
}

// replyHelp answers the built-in help command with the registered command
// list, fire-and-forget back to the source channel. The reply is sent from
// a separate goroutine so a congested outbox cannot stall ingestion.
func (r *router) replyHelp(c *Conn, channelID, arg string) {
	text := r.helpText(strings.TrimSpace(arg))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), helpReplyTimeout)
		defer cancel()

		err := c.Send(ctx, &wire.ChatRequest{
			Tags: map[string]string{wire.ReservedTagPrefix + "origin": "help"},
			SendMessage: &wire.SendMessageRequest{
				ChannelID: channelID,
				Text:      text,
			},
		})
		if err != nil {
			r.logger.Warn(
				"failed to send help reply",
				slog.String("backend", c.backend.String()),
				slog.String("error", err.Error()),
			)
		}
	}()
}

func (r *router) helpText(arg string) string {
	commands := r.commands()

	if arg != "" {
		for _, meta := range commands {
			if meta.Name == arg {
				if meta.FullHelp != "" {
					return fmt.Sprintf("%s%s: %s", r.prefix, meta.Name, meta.FullHelp)
				}
				return fmt.Sprintf("%s%s: %s", r.prefix, meta.Name, meta.ShortHelp)
			}
		}
		return fmt.Sprintf("unknown command %q", arg)
	}

	if len(commands) == 0 {
		return "no commands registered"
	}

	var sb strings.Builder
	sb.WriteString("available commands: ")
	for i, meta := range commands {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.prefix)
		sb.WriteString(meta.Name)
	}
	return sb.String()
}

func (r *router) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, session := range sessions {
		session.close()
		r.metrics.RecordSession(-1)
	}
}

// splitCommand recognizes "{prefix}{name} {arg}" at the start of a message.
func splitCommand(prefix, text string) (name, arg string, ok bool) {
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(text, prefix)
	name, arg, _ = strings.Cut(rest, " ")
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(arg), true
}

// translateEvent rewrites a backend event into the plugin-facing absolute
// id space. It returns nil for kinds that never reach plugins.
func translateEvent(b id.BackendID, ev *wire.ChatEvent) *wire.Event {
	event := &wire.Event{Sender: b.String(), Tags: ev.Tags}

	switch {
	case ev.Message != nil:
		event.Message = &wire.MessageEvent{
			Source: rewriteChannelSource(b, ev.Message.Source),
			Text:   ev.Message.Text,
			Root:   ev.Message.Root,
		}
	case ev.PrivateMessage != nil:
		event.PrivateMessage = &wire.PrivateMessageEvent{
			Source: rewriteUser(b, ev.PrivateMessage.Source),
			Text:   ev.PrivateMessage.Text,
			Root:   ev.PrivateMessage.Root,
		}
	case ev.Mention != nil:
		event.Mention = &wire.MentionEvent{
			Source: rewriteChannelSource(b, ev.Mention.Source),
			Text:   ev.Mention.Text,
			Root:   ev.Mention.Root,
		}
	case ev.Command != nil:
		event.Command = &wire.CommandEvent{
			Source:  rewriteChannelSource(b, ev.Command.Source),
			Command: ev.Command.Command,
			Arg:     ev.Command.Arg,
		}
	case ev.Action != nil:
		event.Action = &wire.ActionEvent{
			Source: rewriteChannelSource(b, ev.Action.Source),
			Text:   ev.Action.Text,
		}
	case ev.PrivateAction != nil:
		event.PrivateAction = &wire.PrivateActionEvent{
			Source: rewriteUser(b, ev.PrivateAction.Source),
			Text:   ev.PrivateAction.Text,
		}
	case ev.JoinChannel != nil:
		event.JoinChannel = &wire.JoinChannelEvent{
			ChannelID:   b.Rewrite(ev.JoinChannel.ChannelID),
			DisplayName: ev.JoinChannel.DisplayName,
			Topic:       ev.JoinChannel.Topic,
		}
	case ev.LeaveChannel != nil:
		event.LeaveChannel = &wire.LeaveChannelEvent{
			ChannelID: b.Rewrite(ev.LeaveChannel.ChannelID),
		}
	case ev.ChangeChannel != nil:
		event.ChangeChannel = &wire.ChangeChannelEvent{
			ChannelID:   b.Rewrite(ev.ChangeChannel.ChannelID),
			DisplayName: ev.ChangeChannel.DisplayName,
			Topic:       ev.ChangeChannel.Topic,
		}
	default:
		return nil
	}

	return event
}

func rewriteChannelSource(b id.BackendID, source wire.ChannelSource) wire.ChannelSource {
	return wire.ChannelSource{
		ChannelID: b.Rewrite(source.ChannelID),
		User:      rewriteUser(b, source.User),
	}
}

func rewriteUser(b id.BackendID, user wire.User) wire.User {
	return wire.User{
		ID:          b.Rewrite(user.ID),
		DisplayName: user.DisplayName,
	}
}

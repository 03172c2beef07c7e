package hub

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/seabird/core/wire"
)

// helpCommand is answered by the hub itself and may not be registered.
const helpCommand = "help"

// Session is one plugin's event subscription. Events are delivered through
// a bounded buffer; when the plugin stalls, the oldest undelivered events
// are dropped rather than ever stalling backend ingestion.
type Session struct {
	id       string
	identity string
	commands map[string]wire.CommandMetadata
	events   *MessageChannel[*wire.Event]
}

// newSession validates the command registry and creates the session.
// Validation failures reject the whole subscription; no partial
// registration is retained.
func newSession(identity string, commands map[string]wire.CommandMetadata, bufferSize int) (*Session, error) {
	for key, meta := range commands {
		if key == helpCommand {
			return nil, fmt.Errorf("%w: %q", ErrReservedCommandName, key)
		}
		if key == "" || meta.Name != key {
			return nil, fmt.Errorf("%w: key %q, name %q", ErrInconsistentMetadata, key, meta.Name)
		}
	}

	registered := make(map[string]wire.CommandMetadata, len(commands))
	for key, meta := range commands {
		registered[key] = meta
	}

	return &Session{
		id:       uuid.Must(uuid.NewV7()).String(),
		identity: identity,
		commands: registered,
		events:   NewMessageChannel[*wire.Event](bufferSize),
	}, nil
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// Identity returns the authenticated identity the session was opened with.
func (s *Session) Identity() string {
	return s.identity
}

// Commands returns the session's command descriptors, sorted by name.
func (s *Session) Commands() []wire.CommandMetadata {
	commands := make([]wire.CommandMetadata, 0, len(s.commands))
	for _, meta := range s.commands {
		commands = append(commands, meta)
	}
	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Name < commands[j].Name
	})
	return commands
}

// Receive returns the next event for the session, blocking until one
// arrives, the context ends, or the session is closed.
func (s *Session) Receive(ctx context.Context) (*wire.Event, error) {
	return s.events.Receive(ctx)
}

func (s *Session) handles(command string) bool {
	_, ok := s.commands[command]
	return ok
}

func (s *Session) deliver(event *wire.Event) (ok, dropped bool) {
	return s.events.Offer(event)
}

func (s *Session) close() {
	s.events.Close()
}

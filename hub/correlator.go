package hub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tailored-agentic-units/seabird/core/wire"
)

// pendingRequest is one in-flight correlated request. It is created on
// dispatch and consumed exactly once: the resolver that removes the entry
// from the pending table owns the single send on done.
type pendingRequest struct {
	id     string
	expect string // typed response kind, "" when only success/failed apply
	done   chan dispatchOutcome
}

type dispatchOutcome struct {
	event *wire.ChatEvent
	err   error
}

// expectedResponseKind names the typed response payload a request kind may
// resolve with, beyond the success/failed markers.
func expectedResponseKind(req *wire.ChatRequest) string {
	if req.Metadata != nil {
		return "metadata"
	}
	return ""
}

// Dispatch assigns the request a fresh correlation id, queues it on the
// connection's outbox, and blocks until exactly one outcome: the resolving
// event on success or a typed response, *BackendError for an explicit
// failure marker, ErrDispatchTimeout when the connection-level deadline
// elapses, ErrConnectionLost when the connection terminates, or the
// context error when the caller gives up first. Whichever fires first
// wins; late responses are discarded.
func (c *Conn) Dispatch(ctx context.Context, req *wire.ChatRequest) (*wire.ChatEvent, error) {
	if c.State() != StateActive {
		return nil, ErrConnectionLost
	}
	if req.Kind() == "" {
		return nil, fmt.Errorf("%w: request frame sets no variant", ErrProtocolViolation)
	}

	pending := &pendingRequest{
		id:     uuid.Must(uuid.NewV7()).String(),
		expect: expectedResponseKind(req),
		done:   make(chan dispatchOutcome, 1),
	}
	req.ID = pending.id

	c.pendingMu.Lock()
	c.pending[pending.id] = pending
	c.pendingMu.Unlock()

	timeout := c.hub.cfg.RequestTimeout()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// Queueing counts against the deadline: a congested outbox must not
	// let Dispatch outlive its deadline.
	sendCtx, cancelSend := context.WithTimeout(ctx, timeout)
	err := c.outbox.Send(sendCtx, req)
	cancelSend()
	if err != nil {
		c.abandon(pending.id)
		switch {
		case err == ErrChannelClosed:
			return nil, ErrConnectionLost
		case err == context.DeadlineExceeded && ctx.Err() == nil:
			c.hub.metrics.RecordRequestTimedOut(1)
			return nil, ErrDispatchTimeout
		default:
			return nil, err
		}
	}

	c.hub.metrics.RecordRequestDispatched(1)
	c.hub.logger.Debug(
		"request dispatched",
		slog.String("backend", c.backend.String()),
		slog.String("request_id", pending.id),
		slog.String("kind", req.Kind()),
	)

	select {
	case outcome := <-pending.done:
		return outcome.event, outcome.err

	case <-timer.C:
		if c.abandon(pending.id) {
			c.hub.metrics.RecordRequestTimedOut(1)
			return nil, ErrDispatchTimeout
		}
		// A response won the race; its outcome is already buffered.
		outcome := <-pending.done
		return outcome.event, outcome.err

	case <-ctx.Done():
		if c.abandon(pending.id) {
			return nil, ctx.Err()
		}
		outcome := <-pending.done
		return outcome.event, outcome.err

	case <-c.closed:
		if c.abandon(pending.id) {
			return nil, ErrConnectionLost
		}
		outcome := <-pending.done
		return outcome.event, outcome.err
	}
}

// Send queues a fire-and-forget request: no correlation id, no pending
// entry, no outcome beyond queueing.
func (c *Conn) Send(ctx context.Context, req *wire.ChatRequest) error {
	if c.State() != StateActive {
		return ErrConnectionLost
	}
	if req.Kind() == "" {
		return fmt.Errorf("%w: request frame sets no variant", ErrProtocolViolation)
	}

	req.ID = ""
	if err := c.outbox.Send(ctx, req); err != nil {
		if err == ErrChannelClosed {
			return ErrConnectionLost
		}
		return err
	}
	return nil
}

// abandon removes a pending entry, reporting whether the caller won the
// removal race and therefore owns the outcome.
func (c *Conn) abandon(requestID string) bool {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	if _, ok := c.pending[requestID]; !ok {
		return false
	}
	delete(c.pending, requestID)
	return true
}

// resolve matches an inbound frame against the pending table, reporting
// whether the frame was consumed as a response. Removal from the table is
// atomic with the match, so a given request resolves at most once.
func (c *Conn) resolve(ev *wire.ChatEvent) bool {
	c.pendingMu.Lock()
	pending, ok := c.pending[ev.ID]
	if !ok {
		c.pendingMu.Unlock()
		return false
	}

	kind := ev.Kind()
	if kind != "success" && kind != "failed" && kind != pending.expect {
		c.pendingMu.Unlock()
		// A known id paired with a frame that is not a valid outcome for
		// its request. The entry stays; the dispatcher will time out.
		c.hub.logger.Warn(
			"protocol violation: mismatched response kind",
			slog.String("backend", c.backend.String()),
			slog.String("request_id", ev.ID),
			slog.String("kind", kind),
			slog.String("expected", pending.expect),
		)
		return true
	}

	delete(c.pending, ev.ID)
	c.pendingMu.Unlock()

	if ev.Failed != nil {
		pending.done <- dispatchOutcome{err: &BackendError{Reason: ev.Failed.Reason}}
	} else {
		pending.done <- dispatchOutcome{event: ev}
	}
	return true
}

// failPending resolves every outstanding request with err. Called once on
// connection termination.
func (c *Conn) failPending(err error) {
	c.pendingMu.Lock()
	pending := c.pending
	c.pending = make(map[string]*pendingRequest)
	c.pendingMu.Unlock()

	for _, p := range pending {
		p.done <- dispatchOutcome{err: err}
	}
}

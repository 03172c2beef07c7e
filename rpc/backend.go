package rpc

import (
	"context"
	"errors"
	"io"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/seabird/core/wire"
	"github.com/tailored-agentic-units/seabird/hub"
)

// ingestEvents is the backend ingestion stream. The first inbound frame
// must be a hello; after the handshake one goroutine drains the hub's
// outbox onto the stream (the connection's single writer) while this
// goroutine pumps inbound frames into the hub.
func (s *Server) ingestEvents(ctx context.Context, stream *connect.BidiStream[wire.ChatEvent, wire.ChatRequest]) error {
	first, err := stream.Receive()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	conn, err := s.hub.AcceptBackend(first)
	if err != nil {
		switch {
		case errors.Is(err, hub.ErrBackendExists):
			return connect.NewError(connect.CodeAlreadyExists, err)
		case errors.Is(err, hub.ErrShuttingDown):
			return connect.NewError(connect.CodeUnavailable, err)
		default:
			return connect.NewError(connect.CodeFailedPrecondition, err)
		}
	}

	sendErr := make(chan error, 1)
	go func() {
		for {
			req, err := conn.NextRequest(ctx)
			if err != nil {
				return
			}
			if err := stream.Send(req); err != nil {
				sendErr <- err
				return
			}
		}
	}()

	recvErr := make(chan error, 1)
	go func() {
		for {
			ev, err := stream.Receive()
			if err != nil {
				recvErr <- err
				return
			}
			conn.HandleEvent(ev)
		}
	}()

	select {
	case err := <-recvErr:
		if errors.Is(err, io.EOF) {
			conn.Close(nil)
			return nil
		}
		conn.Close(err)
		return err
	case err := <-sendErr:
		conn.Close(err)
		return err
	case <-conn.Done():
		// Hub-initiated close (shutdown); the stream ends cleanly.
		return nil
	}
}

package rpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/seabird/hub"
)

type identityKey struct{}

// identityFrom returns the authenticated caller identity stored by the
// auth interceptor.
func identityFrom(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey{}).(string)
	return identity
}

// authInterceptor validates the bearer token on every call before dispatch
// or subscription registration, and threads the resolved identity through
// the context.
type authInterceptor struct {
	hub *hub.Hub
}

func newAuthInterceptor(h *hub.Hub) *authInterceptor {
	return &authInterceptor{hub: h}
}

func (a *authInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		identity, err := a.authenticate(req.Header())
		if err != nil {
			return nil, err
		}
		return next(context.WithValue(ctx, identityKey{}, identity), req)
	}
}

func (a *authInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (a *authInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		identity, err := a.authenticate(conn.RequestHeader())
		if err != nil {
			return err
		}
		return next(context.WithValue(ctx, identityKey{}, identity), conn)
	}
}

func (a *authInterceptor) authenticate(header http.Header) (string, error) {
	token, ok := strings.CutPrefix(header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errors.New("missing bearer token"))
	}

	identity, ok := a.hub.Authenticate(token)
	if !ok {
		return "", connect.NewError(connect.CodeUnauthenticated, errors.New("invalid bearer token"))
	}
	return identity, nil
}

package rpc

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/seabird/core/wire"
	"github.com/tailored-agentic-units/seabird/hub"
	"github.com/tailored-agentic-units/seabird/id"
)

// rpcError translates hub outcomes into connect error codes. Backend
// failure reasons are surfaced verbatim, distinct from transport errors.
func rpcError(err error) error {
	var backendErr *hub.BackendError
	switch {
	case errors.As(err, &backendErr):
		return connect.NewError(connect.CodeFailedPrecondition, errors.New(backendErr.Reason))
	case errors.Is(err, id.ErrMalformedID):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, hub.ErrReservedCommandName), errors.Is(err, hub.ErrInconsistentMetadata):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, hub.ErrDispatchTimeout), errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, hub.ErrConnectionLost), errors.Is(err, hub.ErrBackendNotFound), errors.Is(err, hub.ErrShuttingDown):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// streamEvents opens a plugin session and forwards its events until the
// plugin disconnects or the hub shuts down.
func (s *Server) streamEvents(ctx context.Context, req *connect.Request[StreamEventsRequest], stream *connect.ServerStream[wire.Event]) error {
	session, err := s.hub.OpenSession(identityFrom(ctx), req.Msg.Commands)
	if err != nil {
		return rpcError(err)
	}
	defer s.hub.CloseSession(session)

	for {
		event, err := session.Receive(ctx)
		if err != nil {
			if errors.Is(err, hub.ErrChannelClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			return rpcError(err)
		}
		if err := stream.Send(event); err != nil {
			return err
		}
	}
}

func (s *Server) sendMessage(ctx context.Context, req *connect.Request[SendMessageRequest]) (*connect.Response[SendMessageResponse], error) {
	msg := req.Msg
	if err := s.hub.SendMessage(ctx, identityFrom(ctx), msg.ChannelID, msg.Text, msg.Root, msg.Tags); err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&SendMessageResponse{}), nil
}

func (s *Server) sendPrivateMessage(ctx context.Context, req *connect.Request[SendPrivateMessageRequest]) (*connect.Response[SendPrivateMessageResponse], error) {
	msg := req.Msg
	if err := s.hub.SendPrivateMessage(ctx, identityFrom(ctx), msg.UserID, msg.Text, msg.Root, msg.Tags); err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&SendPrivateMessageResponse{}), nil
}

func (s *Server) performAction(ctx context.Context, req *connect.Request[PerformActionRequest]) (*connect.Response[PerformActionResponse], error) {
	msg := req.Msg
	if err := s.hub.PerformAction(ctx, identityFrom(ctx), msg.ChannelID, msg.Text, msg.Tags); err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&PerformActionResponse{}), nil
}

func (s *Server) performPrivateAction(ctx context.Context, req *connect.Request[PerformPrivateActionRequest]) (*connect.Response[PerformPrivateActionResponse], error) {
	msg := req.Msg
	if err := s.hub.PerformPrivateAction(ctx, identityFrom(ctx), msg.UserID, msg.Text, msg.Tags); err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&PerformPrivateActionResponse{}), nil
}

func (s *Server) joinChannel(ctx context.Context, req *connect.Request[JoinChannelRequest]) (*connect.Response[JoinChannelResponse], error) {
	if err := s.hub.JoinChannel(ctx, req.Msg.ChannelID); err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&JoinChannelResponse{}), nil
}

func (s *Server) leaveChannel(ctx context.Context, req *connect.Request[LeaveChannelRequest]) (*connect.Response[LeaveChannelResponse], error) {
	if err := s.hub.LeaveChannel(ctx, req.Msg.ChannelID); err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&LeaveChannelResponse{}), nil
}

func (s *Server) updateChannelInfo(ctx context.Context, req *connect.Request[UpdateChannelInfoRequest]) (*connect.Response[UpdateChannelInfoResponse], error) {
	if err := s.hub.UpdateChannelInfo(ctx, req.Msg.ChannelID, req.Msg.Topic); err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&UpdateChannelInfoResponse{}), nil
}

func (s *Server) listBackends(ctx context.Context, req *connect.Request[ListBackendsRequest]) (*connect.Response[ListBackendsResponse], error) {
	return connect.NewResponse(&ListBackendsResponse{
		Backends: s.hub.ListBackends(),
	}), nil
}

func (s *Server) getBackendMetadata(ctx context.Context, req *connect.Request[GetBackendMetadataRequest]) (*connect.Response[GetBackendMetadataResponse], error) {
	values, err := s.hub.BackendMetadata(ctx, id.BackendID{
		Type: req.Msg.BackendType,
		ID:   req.Msg.BackendID,
	})
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&GetBackendMetadataResponse{Values: values}), nil
}

func (s *Server) listChannels(ctx context.Context, req *connect.Request[ListChannelsRequest]) (*connect.Response[ListChannelsResponse], error) {
	return connect.NewResponse(&ListChannelsResponse{
		Channels: s.hub.ListChannels(),
	}), nil
}

func (s *Server) getChannel(ctx context.Context, req *connect.Request[GetChannelRequest]) (*connect.Response[GetChannelResponse], error) {
	channel, err := s.hub.GetChannel(req.Msg.ChannelID)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&GetChannelResponse{Channel: channel}), nil
}

func (s *Server) getCoreInfo(ctx context.Context, req *connect.Request[GetCoreInfoRequest]) (*connect.Response[GetCoreInfoResponse], error) {
	return connect.NewResponse(&GetCoreInfoResponse{
		CoreInfo: s.hub.CoreInfo(),
	}), nil
}

func (s *Server) listCommands(ctx context.Context, req *connect.Request[ListCommandsRequest]) (*connect.Response[ListCommandsResponse], error) {
	return connect.NewResponse(&ListCommandsResponse{
		Commands: s.hub.Commands(),
	}), nil
}

package rpc

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/seabird/hub"
)

// Server mounts the hub's two services. Note that the backend ingestion
// stream is bidirectional and therefore requires an HTTP/2-capable
// listener.
type Server struct {
	hub    *hub.Hub
	logger *slog.Logger
}

// NewServer creates a Server for the given hub. A nil logger falls back to
// slog.Default.
func NewServer(h *hub.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{hub: h, logger: logger}
}

// Handler returns the HTTP handler serving every procedure of both
// services, with bearer-token authentication applied to each.
func (s *Server) Handler() http.Handler {
	opts := []connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(newAuthInterceptor(s.hub)),
	}

	mux := http.NewServeMux()

	mux.Handle(IngestEventsProcedure, connect.NewBidiStreamHandler(
		IngestEventsProcedure, s.ingestEvents, opts...))

	mux.Handle(StreamEventsProcedure, connect.NewServerStreamHandler(
		StreamEventsProcedure, s.streamEvents, opts...))
	mux.Handle(SendMessageProcedure, connect.NewUnaryHandler(
		SendMessageProcedure, s.sendMessage, opts...))
	mux.Handle(SendPrivateMessageProcedure, connect.NewUnaryHandler(
		SendPrivateMessageProcedure, s.sendPrivateMessage, opts...))
	mux.Handle(PerformActionProcedure, connect.NewUnaryHandler(
		PerformActionProcedure, s.performAction, opts...))
	mux.Handle(PerformPrivateActionProcedure, connect.NewUnaryHandler(
		PerformPrivateActionProcedure, s.performPrivateAction, opts...))
	mux.Handle(JoinChannelProcedure, connect.NewUnaryHandler(
		JoinChannelProcedure, s.joinChannel, opts...))
	mux.Handle(LeaveChannelProcedure, connect.NewUnaryHandler(
		LeaveChannelProcedure, s.leaveChannel, opts...))
	mux.Handle(UpdateChannelInfoProcedure, connect.NewUnaryHandler(
		UpdateChannelInfoProcedure, s.updateChannelInfo, opts...))
	mux.Handle(ListBackendsProcedure, connect.NewUnaryHandler(
		ListBackendsProcedure, s.listBackends, opts...))
	mux.Handle(GetBackendMetadataProcedure, connect.NewUnaryHandler(
		GetBackendMetadataProcedure, s.getBackendMetadata, opts...))
	mux.Handle(ListChannelsProcedure, connect.NewUnaryHandler(
		ListChannelsProcedure, s.listChannels, opts...))
	mux.Handle(GetChannelProcedure, connect.NewUnaryHandler(
		GetChannelProcedure, s.getChannel, opts...))
	mux.Handle(GetCoreInfoProcedure, connect.NewUnaryHandler(
		GetCoreInfoProcedure, s.getCoreInfo, opts...))
	mux.Handle(ListCommandsProcedure, connect.NewUnaryHandler(
		ListCommandsProcedure, s.listCommands, opts...))

	return mux
}

package rpc

import (
	"github.com/tailored-agentic-units/seabird/core/block"
	"github.com/tailored-agentic-units/seabird/core/wire"
	"github.com/tailored-agentic-units/seabird/hub"
	"github.com/tailored-agentic-units/seabird/id"
)

// Procedure paths for the two services.
const (
	IngestEventsProcedure = "/seabird.v1.ChatIngest/IngestEvents"

	StreamEventsProcedure         = "/seabird.v1.Seabird/StreamEvents"
	SendMessageProcedure          = "/seabird.v1.Seabird/SendMessage"
	SendPrivateMessageProcedure   = "/seabird.v1.Seabird/SendPrivateMessage"
	PerformActionProcedure        = "/seabird.v1.Seabird/PerformAction"
	PerformPrivateActionProcedure = "/seabird.v1.Seabird/PerformPrivateAction"
	JoinChannelProcedure          = "/seabird.v1.Seabird/JoinChannel"
	LeaveChannelProcedure         = "/seabird.v1.Seabird/LeaveChannel"
	UpdateChannelInfoProcedure    = "/seabird.v1.Seabird/UpdateChannelInfo"
	ListBackendsProcedure         = "/seabird.v1.Seabird/ListBackends"
	GetBackendMetadataProcedure   = "/seabird.v1.Seabird/GetBackendMetadata"
	ListChannelsProcedure         = "/seabird.v1.Seabird/ListChannels"
	GetChannelProcedure           = "/seabird.v1.Seabird/GetChannel"
	GetCoreInfoProcedure          = "/seabird.v1.Seabird/GetCoreInfo"
	ListCommandsProcedure         = "/seabird.v1.Seabird/ListCommands"
)

// StreamEventsRequest opens a plugin event subscription with that plugin's
// command registry, keyed by command name.
type StreamEventsRequest struct {
	Commands map[string]wire.CommandMetadata `json:"commands,omitempty"`
}

type SendMessageRequest struct {
	ChannelID string            `json:"channel_id"`
	Text      string            `json:"text"`
	Root      *block.Block      `json:"root,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

type SendMessageResponse struct{}

type SendPrivateMessageRequest struct {
	UserID string            `json:"user_id"`
	Text   string            `json:"text"`
	Root   *block.Block      `json:"root,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

type SendPrivateMessageResponse struct{}

type PerformActionRequest struct {
	ChannelID string            `json:"channel_id"`
	Text      string            `json:"text"`
	Tags      map[string]string `json:"tags,omitempty"`
}

type PerformActionResponse struct{}

type PerformPrivateActionRequest struct {
	UserID string            `json:"user_id"`
	Text   string            `json:"text"`
	Tags   map[string]string `json:"tags,omitempty"`
}

type PerformPrivateActionResponse struct{}

type JoinChannelRequest struct {
	ChannelID string `json:"channel_id"`
}

type JoinChannelResponse struct{}

type LeaveChannelRequest struct {
	ChannelID string `json:"channel_id"`
}

type LeaveChannelResponse struct{}

type UpdateChannelInfoRequest struct {
	ChannelID string `json:"channel_id"`
	Topic     string `json:"topic"`
}

type UpdateChannelInfoResponse struct{}

type ListBackendsRequest struct{}

type ListBackendsResponse struct {
	Backends []id.BackendID `json:"backends"`
}

type GetBackendMetadataRequest struct {
	BackendType string `json:"backend_type"`
	BackendID   string `json:"backend_id"`
}

type GetBackendMetadataResponse struct {
	Values map[string]string `json:"values,omitempty"`
}

type ListChannelsRequest struct{}

type ListChannelsResponse struct {
	Channels []wire.Channel `json:"channels"`
}

type GetChannelRequest struct {
	ChannelID string `json:"channel_id"`
}

type GetChannelResponse struct {
	Channel wire.Channel `json:"channel"`
}

type GetCoreInfoRequest struct{}

type GetCoreInfoResponse struct {
	hub.CoreInfo
}

type ListCommandsRequest struct{}

type ListCommandsResponse struct {
	Commands []wire.CommandMetadata `json:"commands"`
}

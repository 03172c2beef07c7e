package wire

import (
	"github.com/tailored-agentic-units/seabird/core/block"
	"github.com/tailored-agentic-units/seabird/id"
)

// ChatEvent is a frame sent by a backend to the hub. ID, when non-empty,
// correlates the frame with an outstanding ChatRequest; frames without an
// id are unsolicited events. Exactly one variant pointer must be set.
type ChatEvent struct {
	ID   string            `json:"id,omitempty"`
	Tags map[string]string `json:"tags,omitempty"`

	Hello          *HelloEvent          `json:"hello,omitempty"`
	Success        *SuccessEvent        `json:"success,omitempty"`
	Failed         *FailedEvent         `json:"failed,omitempty"`
	Message        *MessageEvent        `json:"message,omitempty"`
	PrivateMessage *PrivateMessageEvent `json:"private_message,omitempty"`
	Mention        *MentionEvent        `json:"mention,omitempty"`
	Command        *CommandEvent        `json:"command,omitempty"`
	Action         *ActionEvent         `json:"action,omitempty"`
	PrivateAction  *PrivateActionEvent  `json:"private_action,omitempty"`
	JoinChannel    *JoinChannelEvent    `json:"join_channel,omitempty"`
	LeaveChannel   *LeaveChannelEvent   `json:"leave_channel,omitempty"`
	ChangeChannel  *ChangeChannelEvent  `json:"change_channel,omitempty"`
	Metadata       *MetadataEvent       `json:"metadata,omitempty"`
}

// HelloEvent must be the first frame on every backend stream. It binds the
// connection to its id namespace.
type HelloEvent struct {
	Backend id.BackendID `json:"backend"`
}

// SuccessEvent marks a correlated request as completed.
type SuccessEvent struct{}

// FailedEvent marks a correlated request as failed with a human-readable
// reason.
type FailedEvent struct {
	Reason string `json:"reason"`
}

// MessageEvent is a message sent to a channel.
type MessageEvent struct {
	Source ChannelSource `json:"source"`
	Text   string        `json:"text"`
	Root   *block.Block  `json:"root,omitempty"`
}

// PrivateMessageEvent is a message sent directly to the backend's own user.
type PrivateMessageEvent struct {
	Source User         `json:"source"`
	Text   string       `json:"text"`
	Root   *block.Block `json:"root,omitempty"`
}

// MentionEvent is a channel message that addressed the backend's own user.
type MentionEvent struct {
	Source ChannelSource `json:"source"`
	Text   string        `json:"text"`
	Root   *block.Block  `json:"root,omitempty"`
}

// CommandEvent is a message already shaped as a command invocation.
type CommandEvent struct {
	Source  ChannelSource `json:"source"`
	Command string        `json:"command"`
	Arg     string        `json:"arg"`
}

// ActionEvent is an emoted action in a channel ("/me ...").
type ActionEvent struct {
	Source ChannelSource `json:"source"`
	Text   string        `json:"text"`
}

// PrivateActionEvent is an emoted action sent directly to the backend's
// own user.
type PrivateActionEvent struct {
	Source User   `json:"source"`
	Text   string `json:"text"`
}

// JoinChannelEvent reports that the backend joined a channel.
type JoinChannelEvent struct {
	ChannelID   string `json:"channel_id"`
	DisplayName string `json:"display_name,omitempty"`
	Topic       string `json:"topic,omitempty"`
}

// LeaveChannelEvent reports that the backend left a channel.
type LeaveChannelEvent struct {
	ChannelID string `json:"channel_id"`
}

// ChangeChannelEvent reports updated channel metadata.
type ChangeChannelEvent struct {
	ChannelID   string `json:"channel_id"`
	DisplayName string `json:"display_name,omitempty"`
	Topic       string `json:"topic,omitempty"`
}

/// MetadataEvent is the typed response to a MetadataRequest: the backend's
// self-description as key/value pairs. Only valid as a correlated response.
type MetadataEvent struct {
	Values map[string]string `json:"values"`
}

// Kind returns the name of the variant set on the frame, or the empty
// string when none or more than one is set. Receivers treat "" as a
// protocol violation.
func (e *ChatEvent) Kind() string {
	kind := ""
	set := func(name string, present bool) {
		if !present {
			return
		}
		if kind != "" {
			kind = "?" // more than one variant
			return
		}
		kind = name
	}

	set("hello", e.Hello != nil)
	set("success", e.Success != nil)
	set("failed", e.Failed != nil)
	set("message", e.Message != nil)
	set("private_message", e.PrivateMessage != nil)
	set("mention", e.Mention != nil)
	set("command", e.Command != nil)
	set("action", e.Action != nil)
	set("private_action", e.PrivateAction != nil)
	set("join_channel", e.JoinChannel != nil)
	set("leave_channel", e.LeaveChannel != nil)
	set("change_channel", e.ChangeChannel != nil)
	set("metadata", e.Metadata != nil)

	if kind == "?" {
		return ""
	}
	return kind
}

// IsResponse reports whether the frame is a request outcome marker.
func (e *ChatEvent) IsResponse() bool {
	return e.Success != nil || e.Failed != nil
}

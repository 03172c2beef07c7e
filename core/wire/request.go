package wire

import "github.com/tailored-agentic-units/seabird/core/block"

// ChatRequest is a frame sent by the hub to a backend. A non-empty ID asks
// the backend to answer with a ChatEvent carrying the same id; an empty ID
// is fire-and-forget. All entity ids are backend-relative. Exactly one
// variant pointer must be set.
type ChatRequest struct {
	ID   string            `json:"id,omitempty"`
	Tags map[string]string `json:"tags,omitempty"`

	SendMessage          *SendMessageRequest          `json:"send_message,omitempty"`
	SendPrivateMessage   *SendPrivateMessageRequest   `json:"send_private_message,omitempty"`
	JoinChannel          *JoinChannelRequest          `json:"join_channel,omitempty"`
	LeaveChannel         *LeaveChannelRequest         `json:"leave_channel,omitempty"`
	UpdateChannelInfo    *UpdateChannelInfoRequest    `json:"update_channel_info,omitempty"`
	PerformAction        *PerformActionRequest        `json:"perform_action,omitempty"`
	PerformPrivateAction *PerformPrivateActionRequest `json:"perform_private_action,omitempty"`
	Metadata             *MetadataRequest             `json:"metadata,omitempty"`
}

// SendMessageRequest asks the backend to send a message to a channel.
type SendMessageRequest struct {
	ChannelID string       `json:"channel_id"`
	Text      string       `json:"text"`
	Root      *block.Block `json:"root,omitempty"`
}

// SendPrivateMessageRequest asks the backend to message a user directly.
type SendPrivateMessageRequest struct {
	UserID string       `json:"user_id"`
	Text   string       `json:"text"`
	Root   *block.Block `json:"root,omitempty"`
}

// JoinChannelRequest asks the backend to join a channel by bare name,
// without any network-specific sigil.
type JoinChannelRequest struct {
	ChannelName string `json:"channel_name"`
}

// LeaveChannelRequest asks the backend to leave a channel.
type LeaveChannelRequest struct {
	ChannelID string `json:"channel_id"`
}

// UpdateChannelInfoRequest asks the backend to change channel metadata.
type UpdateChannelInfoRequest struct {
	ChannelID string `json:"channel_id"`
	Topic     string `json:"topic"`
}

// PerformActionRequest asks the backend to emote an action in a channel.
type PerformActionRequest struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

// PerformPrivateActionRequest asks the backend to emote an action directly
// to a user.
type PerformPrivateActionRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// MetadataRequest asks the backend to describe itself. The backend answers
// with a MetadataEvent carrying the same correlation id.
type MetadataRequest struct{}

// Kind returns the name of the variant set on the frame, or the empty
// string when none or more than one is set.
func (r *ChatRequest) Kind() string {
	kind := ""
	set := func(name string, present bool) {
		if !present {
			return
		}
		if kind != "" {
			kind = "?"
			return
		}
		kind = name
	}

	set("send_message", r.SendMessage != nil)
	set("send_private_message", r.SendPrivateMessage != nil)
	set("join_channel", r.JoinChannel != nil)
	set("leave_channel", r.LeaveChannel != nil)
	set("update_channel_info", r.UpdateChannelInfo != nil)
	set("perform_action", r.PerformAction != nil)
	set("perform_private_action", r.PerformPrivateAction != nil)
	set("metadata", r.Metadata != nil)

	if kind == "?" {
		return ""
	}
	return kind
}

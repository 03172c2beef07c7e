package wire

// Event is a frame streamed from the hub to plugin sessions. Every
// embedded entity id is absolute. Backend-originated variants reuse the
// ChatEvent payload shapes; the Send/Perform variants mirror actions other
// plugins performed, so plugins can observe them (subject to proxy/skip
// suppression).
type Event struct {
	// Sender names the origin of the frame: the backend namespace for
	// backend-originated events, or the authenticated plugin identity for
	// mirrored plugin actions.
	Sender string            `json:"sender,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`

	Message        *MessageEvent        `json:"message,omitempty"`
	PrivateMessage *PrivateMessageEvent `json:"private_message,omitempty"`
	Mention        *MentionEvent        `json:"mention,omitempty"`
	Command        *CommandEvent        `json:"command,omitempty"`
	Action         *ActionEvent         `json:"action,omitempty"`
	PrivateAction  *PrivateActionEvent  `json:"private_action,omitempty"`
	JoinChannel    *JoinChannelEvent    `json:"join_channel,omitempty"`
	LeaveChannel   *LeaveChannelEvent   `json:"leave_channel,omitempty"`
	ChangeChannel  *ChangeChannelEvent  `json:"change_channel,omitempty"`

	SendMessage          *SendMessageEvent          `json:"send_message,omitempty"`
	SendPrivateMessage   *SendPrivateMessageEvent   `json:"send_private_message,omitempty"`
	PerformAction        *PerformActionEvent        `json:"perform_action,omitempty"`
	PerformPrivateAction *PerformPrivateActionEvent `json:"perform_private_action,omitempty"`
}

// SendMessageEvent mirrors a plugin-sent channel message.
type SendMessageEvent struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

// SendPrivateMessageEvent mirrors a plugin-sent direct message.
type SendPrivateMessageEvent struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// PerformActionEvent mirrors a plugin-performed channel action.
type PerformActionEvent struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
}

// PerformPrivateActionEvent mirrors a plugin-performed direct action.
type PerformPrivateActionEvent struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// Kind returns the name of the variant set on the frame, or the empty
// string when none or more than one is set.
func (e *Event) Kind() string {
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

	set("message", e.Message != nil)
	set("private_message", e.PrivateMessage != nil)
	set("mention", e.Mention != nil)
	set("command", e.Command != nil)
	set("action", e.Action != nil)
	set("private_action", e.PrivateAction != nil)
	set("join_channel", e.JoinChannel != nil)
	set("leave_channel", e.LeaveChannel != nil)
	set("change_channel", e.ChangeChannel != nil)
	set("send_message", e.SendMessage != nil)
	set("send_private_message", e.SendPrivateMessage != nil)
	set("perform_action", e.PerformAction != nil)
	set("perform_private_action", e.PerformPrivateAction != nil)

	if kind == "?" {
		return ""
	}
	return kind
}

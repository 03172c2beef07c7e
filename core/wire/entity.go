// Package wire defines the frame and entity types exchanged between
// backends, the hub, and plugins.
//
// Frame unions (ChatEvent, ChatRequest, Event) are structs with exactly one
// non-nil variant pointer; Kind reports which one is set and returns the
// empty string for a frame that sets none or several, which receivers treat
// as a protocol violation. Entity ids are backend-relative on the backend
// surfaces and absolute on the plugin surface; the hub rewrites between the
// two.
package wire

// User identifies a person on a chat network.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
}

// Channel identifies a room or channel on a chat network.
type Channel struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Topic       string `json:"topic,omitempty"`
}

// ChannelSource records the provenance of a channel-scoped message.
type ChannelSource struct {
	ChannelID string `json:"channel_id"`
	User      User   `json:"user"`
}

// CommandMetadata describes one command a plugin session answers.
type CommandMetadata struct {
	Name      string `json:"name"`
	ShortHelp string `json:"short_help,omitempty"`
	FullHelp  string `json:"full_help,omitempty"`
}

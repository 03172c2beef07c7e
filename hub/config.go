package hub

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"
)

const (
	defaultCommandPrefix     = "!"
	defaultSessionBufferSize = 100
	defaultOutboxBufferSize  = 100
	defaultRequestTimeout    = 10 * time.Second
)

// Config holds hub initialization parameters.
type Config struct {
	// CommandPrefix introduces command invocations in channel messages.
	CommandPrefix string `json:"command_prefix,omitempty"`

	// SessionBufferSize bounds each plugin session's event buffer. When a
	// session stalls past this depth, its oldest events are dropped.
	SessionBufferSize int `json:"session_buffer_size,omitempty"`

	// OutboxBufferSize bounds each backend connection's outbound queue.
	OutboxBufferSize int `json:"outbox_buffer_size,omitempty"`

	// RequestTimeoutSeconds is the connection-level deadline for correlated
	// requests. Callers may impose shorter deadlines via context.
	RequestTimeoutSeconds int `json:"request_timeout_seconds,omitempty"`

	// Tokens maps bearer tokens to caller identities.
	Tokens map[string]string `json:"tokens,omitempty"`

	Logger *slog.Logger `json:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CommandPrefix:         defaultCommandPrefix,
		SessionBufferSize:     defaultSessionBufferSize,
		OutboxBufferSize:      defaultOutboxBufferSize,
		RequestTimeoutSeconds: int(defaultRequestTimeout / time.Second),
		Logger:                slog.Default(),
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.CommandPrefix != "" {
		c.CommandPrefix = source.CommandPrefix
	}
	if source.SessionBufferSize > 0 {
		c.SessionBufferSize = source.SessionBufferSize
	}
	if source.OutboxBufferSize > 0 {
		c.OutboxBufferSize = source.OutboxBufferSize
	}
	if source.RequestTimeoutSeconds > 0 {
		c.RequestTimeoutSeconds = source.RequestTimeoutSeconds
	}
	if len(source.Tokens) > 0 {
		c.Tokens = source.Tokens
	}
	if source.Logger != nil {
		c.Logger = source.Logger
	}
}

// RequestTimeout returns the configured deadline as a duration.
func (c *Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return defaultRequestTimeout
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// LoadConfig reads a JSON config file, merges it with defaults, and returns
// the resulting Config.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}

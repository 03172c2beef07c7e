package id_test

import (
	"errors"
	"testing"

	"github.com/tailored-agentic-units/seabird/id"
)

func TestRewrite(t *testing.T) {
	tests := []struct {
		name     string
		backend  id.BackendID
		relative string
		want     string
	}{
		{
			name:     "plain channel",
			backend:  id.BackendID{Type: "irc", ID: "net1"},
			relative: "#general",
			want:     "irc://net1/%23general",
		},
		{
			name:     "slash in relative",
			backend:  id.BackendID{Type: "discord", ID: "guild9"},
			relative: "rooms/general",
			want:     "discord://guild9/rooms%2Fgeneral",
		},
		{
			name:     "percent in relative",
			backend:  id.BackendID{Type: "irc", ID: "net1"},
			relative: "50%",
			want:     "irc://net1/50%25",
		},
		{
			name:     "empty relative",
			backend:  id.BackendID{Type: "irc", ID: "net1"},
			relative: "",
			want:     "irc://net1/",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.backend.Rewrite(tt.relative)
			if got != tt.want {
				t.Errorf("Rewrite(%q) = %q, want %q", tt.relative, got, tt.want)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	backend := id.BackendID{Type: "irc", ID: "net1"}
	relatives := []string{
		"#general",
		"##double",
		"user/with/slashes",
		"plain",
		"spaces and %signs#",
		"ünïcødé",
		"?query#frag://weird",
	}

	for _, relative := range relatives {
		absolute := backend.Rewrite(relative)
		gotBackend, gotRelative, err := id.Parse(absolute)
		if err != nil {
			t.Errorf("Parse(%q) error = %v", absolute, err)
			continue
		}
		if gotBackend != backend {
			t.Errorf("Parse(%q) backend = %v, want %v", absolute, gotBackend, backend)
		}
		if gotRelative != relative {
			t.Errorf("Parse(%q) relative = %q, want %q", absolute, gotRelative, relative)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		absolute string
	}{
		{name: "empty", absolute: ""},
		{name: "no scheme separator", absolute: "irc/net1/general"},
		{name: "missing type", absolute: "://net1/general"},
		{name: "missing backend id", absolute: "irc:///general"},
		{name: "missing relative separator", absolute: "irc://net1"},
		{name: "bad escape", absolute: "irc://net1/%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := id.Parse(tt.absolute)
			if !errors.Is(err, id.ErrMalformedID) {
				t.Errorf("Parse(%q) error = %v, want ErrMalformedID", tt.absolute, err)
			}
		})
	}
}

func TestBackendID_Valid(t *testing.T) {
	tests := []struct {
		name    string
		backend id.BackendID
		want    bool
	}{
		{name: "ok", backend: id.BackendID{Type: "irc", ID: "net1"}, want: true},
		{name: "empty type", backend: id.BackendID{ID: "net1"}, want: false},
		{name: "empty id", backend: id.BackendID{Type: "irc"}, want: false},
		{name: "slash in id", backend: id.BackendID{Type: "irc", ID: "a/b"}, want: false},
		{name: "colon in type", backend: id.BackendID{Type: "ir:c", ID: "net1"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.backend.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

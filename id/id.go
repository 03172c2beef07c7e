// Package id implements the namespacing scheme that maps backend-relative
// identifiers into globally unique absolute identifiers and back.
//
// An absolute id has the layout
//
//	{backend-type}://{backend-id}/{percent-encoded relative id}
//
// so irc backend "net1" maps channel "#general" to "irc://net1/%23general".
// The relative component is percent-encoded so that reserved characters
// ("#", "/", "%", "?", ...) survive the round trip unambiguously.
package id

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformedID is returned when an absolute id does not decompose into
// backend type, backend id, and relative id.
var ErrMalformedID = errors.New("malformed id")

// BackendID names one running backend instance: the network type it bridges
// ("irc", "discord") and a unique instance id within that type.
type BackendID struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Valid reports whether both components are usable as a namespace prefix.
// Neither may be empty or contain the separators used by the absolute layout.
func (b BackendID) Valid() bool {
	if b.Type == "" || b.ID == "" {
		return false
	}
	if strings.ContainsAny(b.Type, ":/") || strings.ContainsAny(b.ID, ":/") {
		return false
	}
	return true
}

// String returns the namespace prefix without a relative component.
func (b BackendID) String() string {
	return b.Type + "://" + b.ID
}

// Rewrite maps a backend-relative id into the absolute id space owned by
// this backend.
func (b BackendID) Rewrite(relative string) string {
	return b.Type + "://" + b.ID + "/" + url.PathEscape(relative)
}

// Parse is the exact inverse of Rewrite. It decomposes an absolute id into
// the owning backend and the original relative id, returning ErrMalformedID
// when the layout or the percent-encoding is invalid.
func Parse(absolute string) (BackendID, string, error) {
	backendType, rest, ok := strings.Cut(absolute, "://")
	if !ok || backendType == "" {
		return BackendID{}, "", fmt.Errorf("%w: %q", ErrMalformedID, absolute)
	}

	backendID, escaped, ok := strings.Cut(rest, "/")
	if !ok || backendID == "" {
		return BackendID{}, "", fmt.Errorf("%w: %q", ErrMalformedID, absolute)
	}

	relative, err := url.PathUnescape(escaped)
	if err != nil {
		return BackendID{}, "", fmt.Errorf("%w: %q: %v", ErrMalformedID, absolute, err)
	}

	b := BackendID{Type: backendType, ID: backendID}
	if !b.Valid() {
		return BackendID{}, "", fmt.Errorf("%w: %q", ErrMalformedID, absolute)
	}
	return b, relative, nil
}

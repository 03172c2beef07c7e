package wire

import "strings"

const (
	// TagProxySkip marks a message that downstream proxies must not
	// re-proxy. Only the exact value "1" activates the suppression.
	TagProxySkip = "proxy/skip"

	proxySkipActive = "1"

	// ReservedTagPrefix namespaces tag keys the hub sets itself. Tags with
	// this prefix arriving from backends or plugins are stripped before
	// routing.
	ReservedTagPrefix = "seabird-core/"
)

// ProxySkipped reports whether tags request proxy suppression.
func ProxySkipped(tags map[string]string) bool {
	return tags[TagProxySkip] == proxySkipActive
}

// StripReservedTags removes externally supplied tags that use the hub's
// reserved prefix. The map is modified in place and returned for chaining;
// a nil map stays nil.
func StripReservedTags(tags map[string]string) map[string]string {
	for key := range tags {
		if strings.HasPrefix(key, ReservedTagPrefix) {
			delete(tags, key)
		}
	}
	return tags
}

// Package rpc exposes the hub over connect: a bidirectional stream for
// backend ingestion and a server stream plus unary calls for plugins. Each
// unary call is a thin wrapper that dispatches through the hub's
// correlator and translates the resolved outcome into a response or a
// connect error.
package rpc

import "encoding/json"

// jsonCodec lets connect carry the hand-written wire types.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, message)
}

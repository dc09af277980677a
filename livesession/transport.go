// Package livesession implements the duplex client to the multimodal live
// voice model: session setup, uplink audio chunking, downlink event
// routing, turn-phase derivation and the barge-in guarantee.
package livesession

import (
	"context"
	"encoding/json"
)

// ServerFrame is a single downlink message from the live model, kept as a
// raw envelope with a captured Extra map the way the WebSocket client here
// is grounded on preserves unknown fields rather than dropping them.
type ServerFrame struct {
	Type  string                 `json:"type"`
	Extra map[string]interface{} `json:"-"`
}

// UnmarshalJSON captures every field of the frame, not just Type, so a
// transport-specific decoder further up the stack can inspect payload
// fields without a second parse.
func (f *ServerFrame) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	type alias ServerFrame
	aux := &struct{ *alias }{alias: (*alias)(f)}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	f.Extra = make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if k != "type" {
			f.Extra[k] = v
		}
	}
	return nil
}

// Transport abstracts the wire between the live session and the model.
// wsTransport (nhooyr.io/websocket) is the default; webrtcTransport
// (pion/webrtc + Opus) is an alternate low-latency path selected by
// Config.Transport == "webrtc".
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, frame interface{}) error
	SendAudio(pcm []byte) error
	Messages() <-chan ServerFrame
	Errors() <-chan error
	Close() error
}

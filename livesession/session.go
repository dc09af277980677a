package livesession

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mavoice/mavoice/internal/mvtypes"
)

// ErrClosed is returned by operations on a session that has already closed.
var ErrClosed = errors.New("livesession: closed")

// uplinkFrameDuration bounds each uplink chunk to at most 100ms of audio.
const uplinkFrameDuration = 100 * time.Millisecond

// SetupOptions carries what the setup handshake needs from Config.
type SetupOptions struct {
	APIKey            string
	VoiceName         string
	SystemInstruction string
	Language          string
	Temperature       float64
}

// Session owns one live conversation: the transport, uplink chunking, and
// downlink event routing into a single mvtypes.LiveEvent channel the router
// consumes.
type Session struct {
	transport Transport
	events    chan mvtypes.LiveEvent

	uplinkBuf  []byte
	frameBytes int

	phase turnPhaseTracker
}

// bytesPerSample is fixed at 16-bit mono, matching the uplink PCM format.
const bytesPerSample = 2

// NewSession constructs a session over the given transport. Use
// NewWebSocketTransport or NewWebRTCTransport to build transport; the
// caller chooses between them (Open itself takes no transport option).
func NewSession(transport Transport) *Session {
	frameBytes := int(uplinkFrameDuration.Seconds()*16000) * bytesPerSample
	return &Session{
		transport:  transport,
		events:     make(chan mvtypes.LiveEvent, 64),
		frameBytes: frameBytes,
	}
}

// NewWebSocketTransport builds the default duplex transport.
func NewWebSocketTransport(url, apiKey string) Transport {
	return newWSTransport(url, apiKey)
}

// NewWebRTCTransport builds the alternate low-latency transport.
func NewWebRTCTransport(sdpExchange func(ctx context.Context, offerSDP string) (string, error)) Transport {
	return newWebRTCTransport(sdpExchange)
}

// Open connects the transport and sends the setup handshake.
func (s *Session) Open(ctx context.Context, opts SetupOptions) error {
	if err := s.transport.Connect(ctx); err != nil {
		return fmt.Errorf("livesession: connect: %w", err)
	}
	setup := map[string]interface{}{
		"type":               "session.setup",
		"voice":              opts.VoiceName,
		"system_instruction": opts.SystemInstruction,
		"language":           opts.Language,
		"temperature":        opts.Temperature,
	}
	if err := s.transport.Send(ctx, setup); err != nil {
		return fmt.Errorf("livesession: send setup: %w", err)
	}
	go s.routeDownlink()
	return nil
}

// SendAudio uplinks one buffer of 16kHz mono s16le PCM, splitting it into
// ≤100ms frames. If a frame cannot be sent because the transport is
// saturated, it is dropped (drop-oldest is realised by not queuing at all —
// the caller's audio ring already holds the backlog).
func (s *Session) SendAudio(pcm []byte) {
	s.uplinkBuf = append(s.uplinkBuf, pcm...)
	for len(s.uplinkBuf) >= s.frameBytes {
		frame := s.uplinkBuf[:s.frameBytes]
		if err := s.transport.SendAudio(frame); err != nil {
			s.events <- mvtypes.LiveEvent{Kind: mvtypes.EventError, Err: fmt.Errorf("livesession: send audio: %w", err)}
		}
		s.uplinkBuf = s.uplinkBuf[s.frameBytes:]
	}
}

// SendToolResult delivers a tool call's result back to the model. Multiple
// concurrent tool calls may complete out of order; each is sent as soon as
// it finishes, tagged by call ID, so ordering of send_tool_result on the
// wire need not match request order.
func (s *Session) SendToolResult(ctx context.Context, result mvtypes.ToolResult) error {
	payload := map[string]interface{}{
		"type":    "tool.result",
		"call_id": result.ID,
		"name":    result.Name,
	}
	if result.Err != nil {
		payload["error"] = result.Err.Error()
	} else {
		payload["result"] = result.Result
	}
	return s.transport.Send(ctx, payload)
}

// Events returns the channel of routed downlink events.
func (s *Session) Events() <-chan mvtypes.LiveEvent { return s.events }

// TurnPhase returns the currently derived turn phase.
func (s *Session) TurnPhase() mvtypes.TurnPhase { return s.phase.current }

// Close tears down the transport.
func (s *Session) Close() error {
	return s.transport.Close()
}

func (s *Session) routeDownlink() {
	defer close(s.events)
	for {
		select {
		case frame, ok := <-s.transport.Messages():
			if !ok {
				return
			}
			s.routeFrame(frame)
		case err, ok := <-s.transport.Errors():
			if !ok {
				continue
			}
			s.events <- mvtypes.LiveEvent{Kind: mvtypes.EventError, Err: err}
		}
	}
}

func (s *Session) routeFrame(frame ServerFrame) {
	switch frame.Type {
	case "session.ready":
		s.events <- mvtypes.LiveEvent{Kind: mvtypes.EventSessionReady}
	case "audio.chunk":
		b64, _ := frame.Extra["audio"].(string)
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			s.events <- mvtypes.LiveEvent{Kind: mvtypes.EventError, Err: fmt.Errorf("livesession: decode audio chunk: %w", err)}
			return
		}
		s.phase.onModelAudio()
		s.events <- mvtypes.LiveEvent{Kind: mvtypes.EventAudioChunk, Audio: data}
	case "text.delta":
		text, _ := frame.Extra["text"].(string)
		s.phase.onModelText()
		s.events <- mvtypes.LiveEvent{Kind: mvtypes.EventTextDelta, Text: text}
	case "tool_call.requested":
		calls := parseToolCalls(frame.Extra)
		s.events <- mvtypes.LiveEvent{Kind: mvtypes.EventToolCallRequested, ToolCalls: calls}
	case "turn.complete":
		s.phase.onTurnComplete()
		s.events <- mvtypes.LiveEvent{Kind: mvtypes.EventTurnComplete}
	case "interrupted":
		s.phase.onInterrupted()
		s.events <- mvtypes.LiveEvent{Kind: mvtypes.EventInterrupted}
	case "error":
		msg, _ := frame.Extra["message"].(string)
		s.events <- mvtypes.LiveEvent{Kind: mvtypes.EventError, Err: errors.New(msg)}
	}
}

func parseToolCalls(extra map[string]interface{}) []mvtypes.ToolCall {
	raw, ok := extra["calls"].([]interface{})
	if !ok {
		return nil
	}
	calls := make([]mvtypes.ToolCall, 0, len(raw))
	for _, r := range raw {
		m, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := m["id"].(string)
		if id == "" {
			id = uuid.NewString()
		}
		name, _ := m["name"].(string)
		args, _ := m["args"].(map[string]interface{})
		calls = append(calls, mvtypes.ToolCall{ID: id, Name: name, Args: args})
	}
	return calls
}

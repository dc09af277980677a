package livesession

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	opuscodec "github.com/jj11hh/opus"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
)

// webrtcTransport is the alternate low-latency live-session transport: a
// pion/webrtc peer connection with an Opus-encoded local audio track and a
// JSON data channel for control/tool frames. Selected when
// Config.Transport == "webrtc".
type webrtcTransport struct {
	sdpExchange func(ctx context.Context, offerSDP string) (answerSDP string, err error)

	mu             sync.Mutex
	peerConnection *webrtc.PeerConnection
	dataChannel    *webrtc.DataChannel
	audioTrack     *webrtc.TrackLocalStaticSample
	opusEncoder    *opuscodec.Encoder
	closed         bool

	msgChan chan ServerFrame
	errChan chan error
	done    chan struct{}
}

// newWebRTCTransport builds a transport that exchanges SDP via the given
// callback (an HTTP POST against the live model's session endpoint in
// production, a stub in tests).
func newWebRTCTransport(sdpExchange func(ctx context.Context, offerSDP string) (string, error)) *webrtcTransport {
	return &webrtcTransport{
		sdpExchange: sdpExchange,
		msgChan:     make(chan ServerFrame, 100),
		errChan:     make(chan error, 1),
		done:        make(chan struct{}),
	}
}

func (t *webrtcTransport) Connect(ctx context.Context) error {
	mediaEngine := &webrtc.MediaEngine{}
	if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return fmt.Errorf("livesession: register codecs: %w", err)
	}
	api := webrtc.NewAPI(webrtc.WithMediaEngine(mediaEngine))

	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}},
	})
	if err != nil {
		return fmt.Errorf("livesession: new peer connection: %w", err)
	}
	t.peerConnection = pc

	audioTrack, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio", "mavoice-uplink",
	)
	if err != nil {
		return fmt.Errorf("livesession: create audio track: %w", err)
	}
	t.audioTrack = audioTrack
	if _, err := pc.AddTrack(audioTrack); err != nil {
		return fmt.Errorf("livesession: add audio track: %w", err)
	}

	enc, err := opuscodec.NewEncoder(48000, 2, opuscodec.AppVoIP)
	if err != nil {
		return fmt.Errorf("livesession: opus encoder: %w", err)
	}
	t.opusEncoder = enc

	dc, err := pc.CreateDataChannel("mavoice-events", nil)
	if err != nil {
		return fmt.Errorf("livesession: create data channel: %w", err)
	}
	t.dataChannel = dc
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		var frame ServerFrame
		if err := json.Unmarshal(msg.Data, &frame); err != nil {
			slog.Error("livesession: unmarshal data channel frame", "error", err)
			return
		}
		select {
		case t.msgChan <- frame:
		case <-time.After(100 * time.Millisecond):
			slog.Warn("livesession: data channel msg chan full, dropping", "type", frame.Type)
		}
	})

	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		if state == webrtc.ICEConnectionStateFailed || state == webrtc.ICEConnectionStateClosed {
			select {
			case t.errChan <- fmt.Errorf("livesession: ICE connection %s", state.String()):
			default:
			}
		}
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("livesession: create offer: %w", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("livesession: set local description: %w", err)
	}
	<-webrtc.GatheringCompletePromise(pc)

	answerSDP, err := t.sdpExchange(ctx, pc.LocalDescription().SDP)
	if err != nil {
		return fmt.Errorf("livesession: exchange sdp: %w", err)
	}
	if err := pc.SetRemoteDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: answerSDP}); err != nil {
		return fmt.Errorf("livesession: set remote description: %w", err)
	}
	return nil
}

func (t *webrtcTransport) Send(ctx context.Context, frame interface{}) error {
	t.mu.Lock()
	dc := t.dataChannel
	t.mu.Unlock()
	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return fmt.Errorf("livesession: data channel not ready")
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("livesession: marshal frame: %w", err)
	}
	return dc.Send(data)
}

// SendAudio converts mono PCM16 to stereo float32, Opus-encodes it, and
// writes it to the local audio track.
func (t *webrtcTransport) SendAudio(pcm []byte) error {
	t.mu.Lock()
	track := t.audioTrack
	encoder := t.opusEncoder
	t.mu.Unlock()
	if track == nil || encoder == nil {
		return fmt.Errorf("livesession: audio track not ready")
	}

	n := len(pcm) / 2
	stereo := make([]float32, n*2)
	for i := 0; i < n; i++ {
		s := int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
		f := float32(s) / 32768
		stereo[2*i] = f
		stereo[2*i+1] = f
	}

	out := make([]byte, 1275)
	written, err := encoder.EncodeFloat32(stereo, out)
	if err != nil {
		return fmt.Errorf("livesession: opus encode: %w", err)
	}

	sample := media.Sample{
		Data:     out[:written],
		Duration: time.Duration(n) * time.Second / 48000,
	}
	return track.WriteSample(sample)
}

func (t *webrtcTransport) Messages() <-chan ServerFrame { return t.msgChan }
func (t *webrtcTransport) Errors() <-chan error         { return t.errChan }

func (t *webrtcTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	if t.dataChannel != nil {
		_ = t.dataChannel.Close()
	}
	if t.peerConnection != nil {
		return t.peerConnection.Close()
	}
	return nil
}

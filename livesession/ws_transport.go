package livesession

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nhooyr.io/websocket"
)

// DefaultLiveURL is the live-voice model's duplex endpoint.
const DefaultLiveURL = "wss://api.mavoice.dev/v1/live"

// wsTransport carries the live session over a JSON websocket, the same
// dial-with-bearer-header-and-background-read-loop shape used for the
// realtime translation session, generalised to the live-voice wire schema.
type wsTransport struct {
	url    string
	apiKey string

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	msgChan chan ServerFrame
	errChan chan error
	done    chan struct{}
}

func newWSTransport(url, apiKey string) *wsTransport {
	if url == "" {
		url = DefaultLiveURL
	}
	return &wsTransport{
		url:     url,
		apiKey:  apiKey,
		msgChan: make(chan ServerFrame, 100),
		errChan: make(chan error, 1),
		done:    make(chan struct{}),
	}
}

func (t *wsTransport) Connect(ctx context.Context) error {
	opts := &websocket.DialOptions{
		HTTPHeader: map[string][]string{
			"Authorization": {"Bearer " + t.apiKey},
		},
	}
	conn, _, err := websocket.Dial(ctx, t.url, opts)
	if err != nil {
		return fmt.Errorf("livesession: websocket dial: %w", err)
	}
	t.conn = conn
	go t.readLoop()
	return nil
}

func (t *wsTransport) Send(ctx context.Context, frame interface{}) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("livesession: not connected")
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("livesession: marshal frame: %w", err)
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

// SendAudio uplinks one PCM chunk as a base64-framed JSON message. Chunking
// to ≤100ms frames is the caller's (Session's) responsibility.
func (t *wsTransport) SendAudio(pcm []byte) error {
	return t.Send(context.Background(), map[string]interface{}{
		"type":  "input_audio.append",
		"audio": base64.StdEncoding.EncodeToString(pcm),
	})
}

func (t *wsTransport) Messages() <-chan ServerFrame { return t.msgChan }
func (t *wsTransport) Errors() <-chan error         { return t.errChan }

func (t *wsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	if t.conn != nil {
		return t.conn.Close(websocket.StatusNormalClosure, "closing")
	}
	return nil
}

func (t *wsTransport) readLoop() {
	defer close(t.msgChan)
	ctx := context.Background()
	for {
		select {
		case <-t.done:
			return
		default:
		}
		_, data, err := t.conn.Read(ctx)
		if err != nil {
			select {
			case t.errChan <- fmt.Errorf("livesession: read: %w", err):
			default:
			}
			return
		}
		var frame ServerFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			slog.Error("livesession: unmarshal frame", "error", err)
			continue
		}
		select {
		case t.msgChan <- frame:
		case <-time.After(100 * time.Millisecond):
			slog.Warn("livesession: msg channel full, dropping frame", "type", frame.Type)
		}
	}
}

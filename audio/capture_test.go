package audio

import "testing"

func newTestCapture(capacity int) *Capture {
	return &Capture{Ring: NewRing[float32](capacity)}
}

func TestCaptureOnAudioFeedsRegisteredCallbacks(t *testing.T) {
	c := newTestCapture(64)

	var got []float32
	c.OnAudio(func(s []float32) { got = append(got, s...) })

	c.dispatch([]float32{0.1, 0.2, 0.3})
	if len(got) != 3 {
		t.Fatalf("expected 3 samples delivered to OnAudio, got %d", len(got))
	}
}

func TestCaptureOnAudioUnregisterStopsDelivery(t *testing.T) {
	c := newTestCapture(64)

	var got []float32
	unsub := c.OnAudio(func(s []float32) { got = append(got, s...) })
	c.dispatch([]float32{0.1})
	unsub()
	c.dispatch([]float32{0.2})

	if len(got) != 1 {
		t.Fatalf("expected only the pre-unregister chunk delivered, got %d chunks", len(got))
	}
}

func TestCaptureOnAudioSupportsMultipleIndependentSubscribers(t *testing.T) {
	c := newTestCapture(64)

	var a, b []float32
	unsubA := c.OnAudio(func(s []float32) { a = append(a, s...) })
	c.OnAudio(func(s []float32) { b = append(b, s...) })

	c.dispatch([]float32{1})
	unsubA()
	c.dispatch([]float32{2})

	if len(a) != 1 {
		t.Fatalf("expected subscriber a to stop receiving after unregister, got %d", len(a))
	}
	if len(b) != 2 {
		t.Fatalf("expected subscriber b unaffected by a's unregister, got %d", len(b))
	}
}

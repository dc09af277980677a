package livesession

import (
	"sync"
	"time"

	"github.com/mavoice/mavoice/internal/mvtypes"
)

// userPauseThreshold is how long capture-side intensity must stay below
// userSilenceFloor before the turn phase derives UserPaused.
const userPauseThreshold = 400 * time.Millisecond

// userSilenceFloor is the intensity floor used for pause derivation.
const userSilenceFloor = 0.05

// turnPhaseTracker derives TurnPhase from downlink activity and capture
// intensity, since the live model does not report an explicit phase field.
type turnPhaseTracker struct {
	mu                sync.Mutex
	current           mvtypes.TurnPhase
	lastModelActivity time.Time
	silenceSince      time.Time
	haveSilenceSince  bool
}

func (t *turnPhaseTracker) onModelAudio() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = mvtypes.ModelSpeaking
	t.lastModelActivity = time.Now()
}

func (t *turnPhaseTracker) onModelText() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != mvtypes.ModelSpeaking {
		t.current = mvtypes.ModelThinking
	}
}

func (t *turnPhaseTracker) onTurnComplete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = mvtypes.UserSpeaking
	t.haveSilenceSince = false
}

func (t *turnPhaseTracker) onInterrupted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = mvtypes.UserSpeaking
	t.haveSilenceSince = false
}

// OnCaptureIntensity feeds the analyser's current intensity so the tracker
// can derive UserPaused after a sustained silence: intensity below
// userSilenceFloor for more than userPauseThreshold. Only applies while the
// user otherwise holds the floor (not while the model is speaking/thinking).
func (t *turnPhaseTracker) OnCaptureIntensity(intensity float32, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == mvtypes.ModelSpeaking || t.current == mvtypes.ModelThinking {
		t.haveSilenceSince = false
		return
	}
	if intensity < userSilenceFloor {
		if !t.haveSilenceSince {
			t.silenceSince = now
			t.haveSilenceSince = true
		} else if now.Sub(t.silenceSince) > userPauseThreshold {
			t.current = mvtypes.UserPaused
		}
	} else {
		t.haveSilenceSince = false
		t.current = mvtypes.UserSpeaking
	}
}

package audio

import (
	"math"
	"time"

	"github.com/mavoice/mavoice/internal/dsp"
)

// bandEdges are the 4-band logarithmic split points in Hz, per the overlay's
// visual band contract.
var bandEdges = [5]float64{80, 250, 800, 2500, 6000}

// Analyser turns a raw sample window into 4 normalised band levels plus an
// EMA-smoothed overall intensity, following an attack/release envelope so
// the visualizer doesn't flicker on single loud samples.
type Analyser struct {
	sampleRate int
	attack     float64
	release    float64
	intensity  float64
}

// NewAnalyser builds an analyser for the given sample rate with the
// attack/release time constants from the overlay's smoothing model
// (40ms attack, 300ms release).
func NewAnalyser(sampleRate int) *Analyser {
	return &Analyser{
		sampleRate: sampleRate,
		attack:     40 * float64(time.Millisecond) / float64(time.Second),
		release:    300 * float64(time.Millisecond) / float64(time.Second),
	}
}

// Bands computes the 4 compressed band levels and updated overall intensity
// for one window of samples. frameDuration is the wall-clock time the
// window represents, used to derive the EMA coefficient.
func (a *Analyser) Bands(samples []float32, frameDuration time.Duration) (levels [4]float32, intensity float32) {
	n := dsp.NextPowerOfTwo(len(samples))
	if n == 0 {
		return levels, float32(a.intensity)
	}

	spectrum := make([]complex128, n)
	for i, s := range samples {
		w := hann(i, len(samples))
		spectrum[i] = complex(float64(s)*w, 0)
	}
	dsp.FFT(spectrum)

	mags := make([]float64, n/2)
	for i := range mags {
		mags[i] = cabs(spectrum[i])
	}

	binHz := float64(a.sampleRate) / float64(n)
	var rmsAll float64
	for band := 0; band < 4; band++ {
		lo := int(bandEdges[band] / binHz)
		hi := int(bandEdges[band+1] / binHz)
		if hi > len(mags) {
			hi = len(mags)
		}
		if lo >= hi {
			levels[band] = 0
			continue
		}
		var sum float64
		for _, m := range mags[lo:hi] {
			sum += m * m
		}
		rms := math.Sqrt(sum / float64(hi-lo))
		rmsAll += rms
		levels[band] = float32(compress(rms))
	}

	dt := frameDuration.Seconds()
	target := rmsAll / 4
	target = compress(target)
	var alpha float64
	if target > a.intensity {
		alpha = 1 - math.Exp(-dt/a.attack)
	} else {
		alpha = 1 - math.Exp(-dt/a.release)
	}
	a.intensity += alpha * (target - a.intensity)

	return levels, float32(a.intensity)
}

// compress applies x ↦ clamp(x,0,1)^0.55, mapping raw amplitude into a
// perceptually flatter range for the visualizer.
func compress(x float64) float64 {
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	return math.Pow(x, 0.55)
}

func hann(i, n int) float64 {
	if n <= 1 {
		return 1
	}
	return 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
}

func cabs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

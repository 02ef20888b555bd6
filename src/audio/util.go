package audio

import (
	"encoding/json"
	"math"

	"github.com/cwbudde/algo-approx"
	"github.com/cwbudde/algo-dsp/dsp/core"
)

const (
	defaultSampleRate = 48000
	channelNum        = 2
	blockSize         = 128
	baseFreq          = 440.0
	maxPoly           = 32
)

// ----- Utility ----- //

func noteToFreq(note int) float64 {
	return baseFreq * math.Pow(2, float64(note-69)/12)
}

// centsToRatio runs per sample, so it goes through the fast exp.
func centsToRatio(cents float64) float64 {
	const ln2 = 0.69314718055994530942
	return float64(approx.FastExp(float32(cents / 1200.0 * ln2)))
}

func clamp(v float64, lo float64, hi float64) float64 {
	return core.Clamp(v, lo, hi)
}

// softClip is a rational tanh approximation, exact at |x| = 3.
func softClip(x float64) float64 {
	if x > 3 {
		return 1
	}
	if x < -3 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

func flush(x float64) float64 {
	return core.FlushDenormals(x)
}

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

package audio

import (
	"math"
	"math/rand"
)

// ----- LFO ----- //

type lfo struct {
	sampleRate float64
	kind       int
	rate       float64
	phase      float64
	prevPhase  float64
	held       float64
	rng        *rand.Rand
}

func newLfo(sampleRate float64, seed int64) *lfo {
	l := &lfo{
		sampleRate: sampleRate,
		kind:       waveSine,
		rate:       1,
		rng:        rand.New(rand.NewSource(seed)),
	}
	l.reset()
	return l
}

func (l *lfo) setRate(hz float64) {
	l.rate = clamp(hz, 0.001, 100)
}

func (l *lfo) setWaveType(kind int) {
	if kind < waveSine || kind > waveSampleHold {
		return
	}
	l.kind = kind
}

func (l *lfo) reset() {
	l.phase = 0
	l.prevPhase = 0
	l.held = l.rng.Float64()*2 - 1
}

// next returns a bipolar value in [-1,1].
func (l *lfo) next() float64 {
	t := l.phase
	// sample and hold redraws only when the phase wrapped since the last call
	if t < l.prevPhase {
		l.held = l.rng.Float64()*2 - 1
	}
	value := 0.0
	switch l.kind {
	case waveSine:
		value = math.Sin(2 * math.Pi * t)
	case waveTriangle:
		value = naiveTriangle(t)
	case waveSaw:
		value = 2*t - 1
	case waveSquare:
		if t < 0.5 {
			value = 1
		} else {
			value = -1
		}
	case waveSampleHold:
		value = l.held
	}
	l.prevPhase = t
	l.phase += l.rate / l.sampleRate
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
	}
	return value
}

// nextUnipolar returns a value in [0,1].
func (l *lfo) nextUnipolar() float64 {
	return (l.next() + 1) / 2
}

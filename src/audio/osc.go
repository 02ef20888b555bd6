package audio

import "math"

// ----- Wave Kind ----- //

const (
	waveSine = iota
	waveTriangle
	waveSaw
	waveSquare
	waveSampleHold // lfo only
)

var waveNames = []string{"sine", "triangle", "saw", "square", "sh"}

// ----- OSC ----- //

/*
  PolyBLEP oscillator. Phase runs in [0,1).

  saw    = naive saw - blep(t)
  square = naive pulse + blep(t) - blep(t+0.5)
  tri    = leaky integral of the corrected square
*/
type osc struct {
	sampleRate float64
	kind       int
	freq       float64
	phase      float64
	inc        float64
	tri        float64
}

func newOsc(sampleRate float64) *osc {
	o := &osc{sampleRate: sampleRate, kind: waveSine}
	o.setFrequency(baseFreq)
	return o
}

func (o *osc) setFrequency(freq float64) {
	o.freq = clamp(freq, 0.01, o.sampleRate/2)
	o.inc = o.freq / o.sampleRate
}

func (o *osc) setWaveType(kind int) {
	if kind < waveSine || kind > waveSquare {
		return
	}
	if kind == waveTriangle && o.kind != waveTriangle {
		o.tri = naiveTriangle(o.phase)
	}
	o.kind = kind
}

func (o *osc) reset() {
	o.phase = 0
	o.tri = naiveTriangle(0)
}

func (o *osc) next() float64 {
	t := o.phase
	dt := o.inc
	value := 0.0
	switch o.kind {
	case waveSine:
		value = math.Sin(2 * math.Pi * t)
	case waveSaw:
		value = 2*t - 1
		value -= polyBLEP(t, dt)
	case waveSquare:
		value = squareBLEP(t, dt)
	case waveTriangle:
		// 4*dt makes the ramp span [-1,1] over half a period.
		o.tri = 4*dt*squareBLEP(t, dt) + (1-0.05*dt)*o.tri
		value = o.tri
	}
	o.phase += dt
	if o.phase >= 1 {
		o.phase -= 1
	}
	return value
}

func squareBLEP(t float64, dt float64) float64 {
	value := -1.0
	if t < 0.5 {
		value = 1.0
	}
	value += polyBLEP(t, dt)
	t2 := t + 0.5
	if t2 >= 1 {
		t2 -= 1
	}
	return value - polyBLEP(t2, dt)
}

// polyBLEP returns the residual of a unit step at phase 0.
func polyBLEP(t float64, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	if t < dt {
		t /= dt
		return t + t - t*t - 1
	}
	if t > 1-dt {
		t = (t - 1) / dt
		return t*t + t + t + 1
	}
	return 0
}

// naiveTriangle matches the integral of the square starting at phase 0.
func naiveTriangle(t float64) float64 {
	if t < 0.5 {
		return -1 + 4*t
	}
	return 3 - 4*t
}

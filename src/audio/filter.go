package audio

import "math"

// ----- Filter Kind ----- //

const (
	filterLowpass24 = iota
	filterLowpass12
	filterBandpass
	filterHighpass
)

var filterNames = []string{"lp24", "lp12", "bp", "hp"}

// ----- Ladder Filter ----- //

const (
	minCutoff        = 20.0
	maxCutoffRatio   = 0.49
	cutoffSmoothTime = 0.001 // s
	maxResonanceGain = 4.0
	minDrive         = 0.1
	maxDrive         = 5.0
)

/*
  in -> drive -> (-) -> softClip -> [1] -> [2] -> [3] -> [4] -+-> tap -> softClip -> out
                  ^                                           |
                  +-------------------- k --------------------+

  Each stage is a tan-prewarped one-pole: v = G*(x-s), y = v+s, s = y+v.
*/
type ladderFilter struct {
	sampleRate  float64
	kind        int
	target      float64
	cutoff      float64
	resonance   float64 // 0-1
	k           float64 // 0-4
	drive       float64
	smoothCoeff float64
	stages      [4]float64
	taps        [4]float64
	lastG       float64
	lastCutoff  float64
}

func newLadderFilter(sampleRate float64) *ladderFilter {
	f := &ladderFilter{
		sampleRate:  sampleRate,
		kind:        filterLowpass24,
		drive:       1,
		smoothCoeff: timeConstantCoeff(cutoffSmoothTime, sampleRate),
	}
	f.setCutoff(1000)
	f.cutoff = f.target
	return f
}

func (f *ladderFilter) setCutoff(hz float64) {
	f.target = clamp(hz, minCutoff, maxCutoffRatio*f.sampleRate)
}

func (f *ladderFilter) setResonance(r float64) {
	f.resonance = clamp(r, 0, 1)
	f.k = f.resonance * maxResonanceGain
}

func (f *ladderFilter) setDrive(d float64) {
	f.drive = clamp(d, minDrive, maxDrive)
}

func (f *ladderFilter) setType(kind int) {
	if kind < filterLowpass24 || kind > filterHighpass {
		return
	}
	f.kind = kind
}

// jumpCutoff skips smoothing. Used when a voice starts a new note.
func (f *ladderFilter) jumpCutoff() {
	f.cutoff = f.target
}

func (f *ladderFilter) reset() {
	for i := range f.stages {
		f.stages[i] = 0
		f.taps[i] = 0
	}
}

func (f *ladderFilter) process(in float64) float64 {
	f.cutoff = f.target + (f.cutoff-f.target)*f.smoothCoeff
	if f.cutoff != f.lastCutoff {
		g := math.Tan(math.Pi * f.cutoff / f.sampleRate)
		f.lastG = g / (1 + g)
		f.lastCutoff = f.cutoff
	}
	G := f.lastG

	u := softClip(in*f.drive - f.k*f.taps[3])
	x := u
	for i := range f.stages {
		v := (x - f.stages[i]) * G
		f.taps[i] = v + f.stages[i]
		f.stages[i] = flush(f.taps[i] + v)
		x = f.taps[i]
	}
	y := &f.taps

	out := 0.0
	switch f.kind {
	case filterLowpass24:
		out = y[3]
	case filterLowpass12:
		out = y[1]
	case filterBandpass:
		out = y[1] - y[3]
	case filterHighpass:
		out = u - y[3]
	}
	return softClip(out)
}

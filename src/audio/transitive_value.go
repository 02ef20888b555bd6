package audio

import "math"

// ----- Transition Kind ----- //

const (
	transitionNone = iota
	transitionLinear
	transitionExponential
)

// ----- Transitive Value ----- //

// transitiveValue moves toward a target without steps. Durations are in ms.
type transitiveValue struct {
	kind        int
	sampleRate  float64
	coeff       float64
	increment   float64
	remaining   int
	targetValue float64
	value       float64
}

func newTransitiveValue(sampleRate float64, value float64) *transitiveValue {
	tv := &transitiveValue{sampleRate: sampleRate}
	tv.init(value)
	return tv
}

func (tv *transitiveValue) init(value float64) {
	tv.kind = transitionNone
	tv.coeff = 0
	tv.increment = 0
	tv.remaining = 0
	tv.targetValue = value
	tv.value = value
}

func (tv *transitiveValue) linear(duration float64, targetValue float64) {
	n := int(duration * tv.sampleRate / 1000)
	if n <= 0 {
		tv.init(targetValue)
		return
	}
	tv.kind = transitionLinear
	tv.remaining = n
	tv.increment = (targetValue - tv.value) / float64(n)
	tv.targetValue = targetValue
}

// exponential approaches the target with a time constant of duration ms.
func (tv *transitiveValue) exponential(duration float64, targetValue float64) {
	tv.kind = transitionExponential
	tv.coeff = timeConstantCoeff(duration/1000, tv.sampleRate)
	tv.targetValue = targetValue
}

func (tv *transitiveValue) step() float64 {
	switch tv.kind {
	case transitionLinear:
		tv.remaining--
		if tv.remaining <= 0 {
			tv.end()
		} else {
			tv.value += tv.increment
		}
	case transitionExponential:
		tv.value = tv.targetValue + (tv.value-tv.targetValue)*tv.coeff
		if math.Abs(tv.value-tv.targetValue) < 1e-9 {
			tv.end()
		}
	case transitionNone:
	}
	return tv.value
}

func (tv *transitiveValue) settled() bool {
	return tv.kind == transitionNone
}

func (tv *transitiveValue) end() {
	tv.kind = transitionNone
	tv.value = tv.targetValue
	tv.remaining = 0
}

// timeConstantCoeff is the one-pole coefficient that covers 63% of the
// distance to the target in seconds.
func timeConstantCoeff(seconds float64, sampleRate float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return math.Exp(-1 / (seconds * sampleRate))
}

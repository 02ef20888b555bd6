package audio

import "math"

// ----- ADSR ----- //

const (
	phaseIdle = iota
	phaseAttack
	phaseDecay
	phaseSustain
	phaseRelease
)

const (
	envelopeCurve      = 3.0
	envelopeEpsilon    = 1e-4
	envelopeSmoothTime = 0.002 // s
	minStageTime       = 0.001 // s
	maxStageTime       = 30.0  // s
)

// each stage aims past its end value by this ratio so that it arrives at
// the nominal stage time instead of only approaching it
var envelopeOvershoot = math.Exp(-envelopeCurve) / (1 - math.Exp(-envelopeCurve))

/*
  1 +     x
    |    / \
    |   /   \
  s +  /     x------x
    | /              \
    |/                \
  0 +-----+--+------+---
    |a    |d |      |r |
*/
type adsr struct {
	sampleRate   float64
	attack       float64 // s
	decay        float64 // s
	sustain      float64 // 0-1
	release      float64 // s
	attackCoeff  float64
	decayCoeff   float64
	releaseCoeff float64
	smoothCoeff  float64
	phase        int
	raw          float64
	value        float64
}

func newADSR(sampleRate float64) *adsr {
	a := &adsr{
		sampleRate:  sampleRate,
		smoothCoeff: timeConstantCoeff(envelopeSmoothTime, sampleRate),
	}
	a.setAttack(0.01)
	a.setDecay(0.3)
	a.setSustain(0.7)
	a.setRelease(0.5)
	return a
}

func (a *adsr) stageCoeff(seconds float64) float64 {
	return math.Exp(-envelopeCurve / (seconds * a.sampleRate))
}

func (a *adsr) setAttack(seconds float64) {
	a.attack = clamp(seconds, minStageTime, maxStageTime)
	a.attackCoeff = a.stageCoeff(a.attack)
}

func (a *adsr) setDecay(seconds float64) {
	a.decay = clamp(seconds, minStageTime, maxStageTime)
	a.decayCoeff = a.stageCoeff(a.decay)
}

func (a *adsr) setSustain(level float64) {
	a.sustain = clamp(level, 0, 1)
}

func (a *adsr) setRelease(seconds float64) {
	a.release = clamp(seconds, minStageTime, maxStageTime)
	a.releaseCoeff = a.stageCoeff(a.release)
}

// trigger starts the attack from wherever the envelope currently is.
func (a *adsr) trigger() {
	a.phase = phaseAttack
}

func (a *adsr) noteOff() {
	if a.phase == phaseIdle {
		return
	}
	a.phase = phaseRelease
}

// reset forces the envelope to idle and silent.
func (a *adsr) reset() {
	a.phase = phaseIdle
	a.raw = 0
	a.value = 0
}

func (a *adsr) isFinished() bool {
	return a.phase == phaseIdle && a.value < envelopeEpsilon
}

func (a *adsr) getValue() float64 {
	return a.value
}

func (a *adsr) next() float64 {
	switch a.phase {
	case phaseAttack:
		target := 1 + envelopeOvershoot
		a.raw += (target - a.raw) * (1 - a.attackCoeff)
		if a.raw >= 0.999 {
			a.raw = 1
			a.phase = phaseDecay
		}
	case phaseDecay:
		target := a.sustain - (1-a.sustain)*envelopeOvershoot
		a.raw += (target - a.raw) * (1 - a.decayCoeff)
		if math.Abs(a.raw-a.sustain) < envelopeEpsilon || a.raw < a.sustain {
			a.raw = a.sustain
			a.phase = phaseSustain
		}
	case phaseSustain:
		a.raw += (a.sustain - a.raw) * (1 - a.decayCoeff)
	case phaseRelease:
		target := -envelopeOvershoot
		a.raw += (target - a.raw) * (1 - a.releaseCoeff)
		if a.raw < envelopeEpsilon {
			a.raw = 0
		}
	}
	smoothed := flush(a.value + (a.raw-a.value)*(1-a.smoothCoeff))
	// the smoother lags behind raw, so after a stage change it could still
	// move the wrong way
	switch a.phase {
	case phaseAttack:
		a.value = max(a.value, smoothed)
	case phaseRelease:
		a.value = min(a.value, smoothed)
	default:
		a.value = smoothed
	}
	if a.phase == phaseRelease && a.raw == 0 && a.value < envelopeEpsilon {
		a.phase = phaseIdle
		a.value = 0
	}
	return a.value
}

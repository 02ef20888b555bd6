package audio

import "math"

// ----- Voice -----

const (
	mixGain      = 0.5
	voiceGain    = 0.3
	panSmoothing = 0.005 // s
	levelRamp    = 10.0  // ms
)

type voice struct {
	sampleRate float64
	note       int
	velocity   float64 // 0-1
	active     bool    // held, not yet released
	started    uint64  // allocation order, for stealing

	oscs       [3]*osc
	oscLevels  [3]*transitiveValue
	oscRatios  [3]float64
	noise      *noise
	noiseLevel *transitiveValue
	filter     *ladderFilter
	ampEnv     *adsr
	filterEnv  *adsr
	lfos       [2]*lfo
	lfoDepth   [2]float64
	lfoTarget  [2]int
	modulation modulation

	baseFreq  float64
	lastCents float64
	cutoff    float64
	keyTrack  float64
	keyCutoff float64
	envAmount float64
	gain      float64
	velSense  float64
	pan       float64
	panCoeff  float64
	smoothPan float64
}

func newVoice(sampleRate float64, seed int64) *voice {
	v := &voice{
		sampleRate: sampleRate,
		noise:      newNoise(seed),
		noiseLevel: newTransitiveValue(sampleRate, 0),
		filter:     newLadderFilter(sampleRate),
		ampEnv:     newADSR(sampleRate),
		filterEnv:  newADSR(sampleRate),
		panCoeff:   timeConstantCoeff(panSmoothing, sampleRate),
		gain:       1,
	}
	for i := range v.oscs {
		v.oscs[i] = newOsc(sampleRate)
		v.oscLevels[i] = newTransitiveValue(sampleRate, 0)
		v.oscRatios[i] = 1
	}
	for i := range v.lfos {
		v.lfos[i] = newLfo(sampleRate, seed+int64(i)+1)
	}
	return v
}

// applyParams pushes the current parameter table into an allocated voice.
// Levels ramp, so it is safe to call while the voice is sounding.
func (v *voice) applyParams(p *params) {
	for i, o := range v.oscs {
		o.setWaveType(p.getInt(paramOscWave[i]))
		v.oscLevels[i].linear(levelRamp, p.getFloat(paramOscLevel[i]))
		semis := 12*p.getFloat(paramOscOctave[i]) + p.getFloat(paramOscSemitone[i]) + p.getFloat(paramOscCents[i])/100
		v.oscRatios[i] = math.Pow(2, semis/12)
	}
	v.noise.setType(p.getInt(paramNoiseType))
	v.noiseLevel.linear(levelRamp, p.getFloat(paramNoiseLevel))

	v.filter.setType(p.getInt(paramFilterType))
	v.filter.setResonance(p.getFloat(paramFilterResonance))
	v.filter.setDrive(p.getFloat(paramFilterDrive))
	v.cutoff = p.getFloat(paramFilterCutoff)
	v.keyTrack = p.getFloat(paramFilterKeyTrack)
	v.envAmount = p.getFloat(paramFilterEnvAmount)
	v.updateKeyCutoff()

	v.ampEnv.setAttack(p.getFloat(paramAmpAttack))
	v.ampEnv.setDecay(p.getFloat(paramAmpDecay))
	v.ampEnv.setSustain(p.getFloat(paramAmpSustain))
	v.ampEnv.setRelease(p.getFloat(paramAmpRelease))
	v.filterEnv.setAttack(p.getFloat(paramFilterAttack))
	v.filterEnv.setDecay(p.getFloat(paramFilterDecay))
	v.filterEnv.setSustain(p.getFloat(paramFilterSustain))
	v.filterEnv.setRelease(p.getFloat(paramFilterRelease))

	for i, l := range v.lfos {
		l.setWaveType(p.getInt(paramLfoWave[i]))
		l.setRate(p.getFloat(paramLfoRate[i]))
		v.lfoDepth[i] = p.getFloat(paramLfoDepth[i])
		v.lfoTarget[i] = p.getInt(paramLfoTarget[i])
	}
	v.pan = p.getFloat(paramVoicePan)
	v.velSense = p.getFloat(paramVelocitySens)
	v.updateGain()
	v.lastCents = math.NaN()
}

// key tracking shifts the cutoff by a fraction of the distance from middle C
func (v *voice) updateKeyCutoff() {
	v.keyCutoff = v.cutoff * math.Pow(2, v.keyTrack*float64(v.note-60)/12)
}

func (v *voice) updateGain() {
	v.gain = 1 - v.velSense + v.velSense*v.velocity
}

func (v *voice) noteOn(note int, velocity float64) {
	silent := v.ampEnv.isFinished()
	v.note = note
	v.velocity = clamp(velocity, 0, 1)
	v.active = true
	v.baseFreq = noteToFreq(note)
	v.lastCents = math.NaN()
	v.updateKeyCutoff()
	v.updateGain()
	for _, o := range v.oscs {
		o.reset()
	}
	for _, l := range v.lfos {
		l.reset()
	}
	if silent {
		v.noise.reset()
		v.filter.reset()
		v.smoothPan = v.pan
		for _, level := range v.oscLevels {
			level.end()
		}
		v.noiseLevel.end()
	}
	v.filter.setCutoff(v.keyCutoff)
	v.filter.jumpCutoff()
	v.ampEnv.trigger()
	v.filterEnv.trigger()
}

func (v *voice) noteOff() {
	v.active = false
	v.ampEnv.noteOff()
	v.filterEnv.noteOff()
}

// kill silences the voice immediately.
func (v *voice) kill() {
	v.active = false
	v.ampEnv.reset()
	v.filterEnv.reset()
	v.filter.reset()
}

func (v *voice) isFinished() bool {
	return !v.active && v.ampEnv.isFinished()
}

// render adds len(outL) samples into outL and outR.
func (v *voice) render(outL []float64, outR []float64) {
	if v.isFinished() {
		return
	}
	m := &v.modulation
	for i := range outL {
		m.init()
		for j, l := range v.lfos {
			value := l.next()
			if v.lfoTarget[j] != destNone {
				m.add(v.lfoTarget[j], value*v.lfoDepth[j])
			}
		}
		if m.cents != v.lastCents {
			ratio := 1.0
			if m.cents != 0 {
				ratio = centsToRatio(m.cents)
			}
			for j, o := range v.oscs {
				o.setFrequency(v.baseFreq * v.oscRatios[j] * ratio)
			}
			v.lastCents = m.cents
		}

		mix := 0.0
		for j, o := range v.oscs {
			level := v.oscLevels[j].step()
			s := o.next()
			mix += s * level
		}
		mix += v.noise.next() * v.noiseLevel.step()

		fenv := v.filterEnv.next()
		v.filter.setCutoff(v.keyCutoff + fenv*v.envAmount + m.cutoffHz)
		y := v.filter.process(mix * mixGain)

		y *= v.ampEnv.next() * v.gain * voiceGain

		target := clamp(v.pan+m.pan, -1, 1)
		v.smoothPan = target + (v.smoothPan-target)*v.panCoeff
		l, r := panGains(v.smoothPan)
		outL[i] += y * l
		outR[i] += y * r
	}
}

// panGains is the constant power law with angle (pan+1)*pi/4.
func panGains(pan float64) (float64, float64) {
	angle := (clamp(pan, -1, 1) + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

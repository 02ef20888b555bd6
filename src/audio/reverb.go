package audio

import (
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// ----- Reverb ----- //

const (
	reverbPartSize     = blockSize
	reverbMaxPreDelay  = 0.5 // s
	filterQ            = 0.7071
	coeffUpdateSamples = 16
)

/*
  in -> mono -> pre-delay -> low cut -> high cut -> convolution -> wet
                                                                  |
  in --------------------------------------------------- dry ---(mix)--> out
*/
type reverb struct {
	sampleRate float64
	enabled    bool
	mixValue   float64
	mix        *transitiveValue
	preDelay   *transitiveValue // samples
	delay      *delay
	lowCut     *transitiveValue
	highCut    *transitiveValue
	hp         *biquad.Section
	lp         *biquad.Section
	conv       *convolver
	countdown  int
	dirty      bool
	bypassed   bool
}

func newReverb(sampleRate float64) *reverb {
	r := &reverb{
		sampleRate: sampleRate,
		mix:        newTransitiveValue(sampleRate, 0),
		preDelay:   newTransitiveValue(sampleRate, 0),
		delay:      newDelay(int(reverbMaxPreDelay*sampleRate) + 2),
		lowCut:     newTransitiveValue(sampleRate, 100),
		highCut:    newTransitiveValue(sampleRate, 8000),
		conv:       newConvolver(reverbPartSize),
		bypassed:   true,
	}
	r.hp = biquad.NewSection(design.Highpass(r.lowCut.value, filterQ, sampleRate))
	r.lp = biquad.NewSection(design.Lowpass(r.highCut.value, filterQ, sampleRate))
	return r
}

// buildReverbKernel runs on the control side. It is synchronous but only
// needed when the decay time changes.
func buildReverbKernel(sampleRate int, decay float64, seed int64) (*irKernel, error) {
	left, right := generateRoomIR(sampleRate, decay, seed)
	return newIRKernel(left, right, reverbPartSize)
}

func (r *reverb) applyParams(p *params) {
	r.enabled = p.getBool(paramReverbEnabled)
	r.mixValue = p.getFloat(paramReverbMix)
	target := 0.0
	if r.enabled {
		target = r.mixValue
	}
	r.mix.exponential(rampTime/3, target)
	samples := p.getFloat(paramReverbPreDelay)*r.sampleRate - float64(r.conv.latency())
	r.preDelay.linear(rampTime*5, max(samples, 0))
	r.lowCut.exponential(rampTime/3, p.getFloat(paramReverbLowCut))
	r.highCut.exponential(rampTime/3, p.getFloat(paramReverbHighCut))
	r.dirty = true
}

func (r *reverb) updateFilters() {
	r.hp.Coefficients = design.Highpass(r.lowCut.value, filterQ, r.sampleRate)
	r.lp.Coefficients = design.Lowpass(min(r.highCut.value, 0.45*r.sampleRate), filterQ, r.sampleRate)
}

func (r *reverb) process(inL []float64, inR []float64) {
	if !r.enabled && r.mix.settled() {
		r.bypassed = true
		return
	}
	if r.bypassed {
		// drop the tail left over from before the bypass
		r.conv.reset()
		r.delay.reset()
		r.hp.Reset()
		r.lp.Reset()
		r.bypassed = false
	}
	for i := range inL {
		r.lowCut.step()
		r.highCut.step()
		if r.countdown <= 0 {
			if r.dirty {
				r.updateFilters()
				r.dirty = !r.lowCut.settled() || !r.highCut.settled()
			}
			r.countdown = coeffUpdateSamples
		}
		r.countdown--
		mix := r.mix.step()
		r.delay.step((inL[i] + inR[i]) / 2)
		x := r.delay.getDelayed(r.preDelay.step())
		x = r.hp.ProcessSample(x)
		x = r.lp.ProcessSample(x)
		wl, wr := r.conv.process(float32(x))
		inL[i] = inL[i]*(1-mix) + float64(wl)*mix
		inR[i] = inR[i]*(1-mix) + float64(wr)*mix
	}
}

// reset drops the tail at the start of the next block.
func (r *reverb) reset() {
	r.bypassed = true
}

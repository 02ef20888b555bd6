package audio

import (
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// ----- EQ ----- //

const (
	dcCutFreq = 20.0
	shelfQ    = 0.7071
)

type eqChannel struct {
	hp   *biquad.Section
	low  *biquad.Section
	high *biquad.Section
}

func (c *eqChannel) process(x float64) float64 {
	return c.high.ProcessSample(c.low.ProcessSample(c.hp.ProcessSample(x)))
}

// eq is a fixed DC/rumble cut followed by a low and a high shelf.
type eq struct {
	sampleRate float64
	channels   [channelNum]*eqChannel
	lowFreq    *transitiveValue
	lowGain    *transitiveValue
	highFreq   *transitiveValue
	highGain   *transitiveValue
	countdown  int
	dirty      bool
}

func newEQ(sampleRate float64) *eq {
	e := &eq{
		sampleRate: sampleRate,
		lowFreq:    newTransitiveValue(sampleRate, paramDefs[paramEQLowFreq].def),
		lowGain:    newTransitiveValue(sampleRate, paramDefs[paramEQLowGain].def),
		highFreq:   newTransitiveValue(sampleRate, paramDefs[paramEQHighFreq].def),
		highGain:   newTransitiveValue(sampleRate, paramDefs[paramEQHighGain].def),
	}
	for i := range e.channels {
		e.channels[i] = &eqChannel{
			hp:   biquad.NewSection(design.Highpass(dcCutFreq, shelfQ, sampleRate)),
			low:  biquad.NewSection(e.lowShelf()),
			high: biquad.NewSection(e.highShelf()),
		}
	}
	return e
}

func (e *eq) lowShelf() biquad.Coefficients {
	return design.LowShelf(e.lowFreq.value, e.lowGain.value, shelfQ, e.sampleRate)
}

func (e *eq) highShelf() biquad.Coefficients {
	freq := min(e.highFreq.value, 0.45*e.sampleRate)
	return design.HighShelf(freq, e.highGain.value, shelfQ, e.sampleRate)
}

func (e *eq) applyParams(p *params) {
	e.lowFreq.linear(rampTime, p.getFloat(paramEQLowFreq))
	e.lowGain.linear(rampTime, p.getFloat(paramEQLowGain))
	e.highFreq.linear(rampTime, p.getFloat(paramEQHighFreq))
	e.highGain.linear(rampTime, p.getFloat(paramEQHighGain))
	e.dirty = true
}

func (e *eq) settled() bool {
	return e.lowFreq.settled() && e.lowGain.settled() && e.highFreq.settled() && e.highGain.settled()
}

func (e *eq) updateFilters() {
	low := e.lowShelf()
	high := e.highShelf()
	for _, c := range e.channels {
		c.low.Coefficients = low
		c.high.Coefficients = high
	}
}

func (e *eq) process(inL []float64, inR []float64) {
	left, right := e.channels[0], e.channels[1]
	for i := range inL {
		e.lowFreq.step()
		e.lowGain.step()
		e.highFreq.step()
		e.highGain.step()
		if e.countdown <= 0 {
			if e.dirty {
				e.updateFilters()
				e.dirty = !e.settled()
			}
			e.countdown = coeffUpdateSamples
		}
		e.countdown--
		inL[i] = left.process(inL[i])
		inR[i] = right.process(inR[i])
	}
}

func (e *eq) reset() {
	for _, c := range e.channels {
		c.hp.Reset()
		c.low.Reset()
		c.high.Reset()
	}
}

package audio

// ----- Chorus ----- //

const (
	chorusBaseDelay = 15.0 // ms
	chorusMaxDepth  = 5.0  // ms
	chorusDetune    = 1.1  // right lfo rate ratio
	rampTime        = 10.0 // ms
)

type chorus struct {
	sampleRate float64
	enabled    bool
	mixValue   float64
	left       *delay
	right      *delay
	lfoL       *lfo
	lfoR       *lfo
	depth      *transitiveValue
	mix        *transitiveValue
}

func newChorus(sampleRate float64, seed int64) *chorus {
	maxSamples := int((chorusBaseDelay + chorusMaxDepth) * sampleRate / 1000)
	c := &chorus{
		sampleRate: sampleRate,
		left:       newDelay(maxSamples + 2),
		right:      newDelay(maxSamples + 2),
		lfoL:       newLfo(sampleRate, seed),
		lfoR:       newLfo(sampleRate, seed+1),
		depth:      newTransitiveValue(sampleRate, 0),
		mix:        newTransitiveValue(sampleRate, 0),
	}
	c.setRate(0.8)
	// start the right side a quarter cycle ahead
	c.lfoR.phase = 0.25
	return c
}

func (c *chorus) applyParams(p *params) {
	c.enabled = p.getBool(paramChorusEnabled)
	c.setRate(p.getFloat(paramChorusRate))
	c.depth.exponential(rampTime/3, p.getFloat(paramChorusDepth))
	c.mixValue = p.getFloat(paramChorusMix)
	c.setEnabled(c.enabled)
}

func (c *chorus) setRate(hz float64) {
	c.lfoL.setRate(hz)
	c.lfoR.setRate(hz * chorusDetune)
}

// setEnabled(false) ramps to full dry instead of removing the node.
func (c *chorus) setEnabled(enabled bool) {
	c.enabled = enabled
	target := 0.0
	if enabled {
		target = c.mixValue
	}
	c.mix.exponential(rampTime/3, target)
}

func (c *chorus) process(inL []float64, inR []float64) {
	if !c.enabled && c.mix.settled() {
		// keep the lines fed so re-enabling starts from current audio
		for i := range inL {
			c.left.step(inL[i])
			c.right.step(inR[i])
		}
		return
	}
	msToSamples := c.sampleRate / 1000
	for i := range inL {
		depth := c.depth.step() * chorusMaxDepth
		mix := c.mix.step()
		dl := (chorusBaseDelay + depth*c.lfoL.next()) * msToSamples
		dr := (chorusBaseDelay + depth*c.lfoR.next()) * msToSamples
		c.left.step(inL[i])
		c.right.step(inR[i])
		wetL := c.left.getDelayed(dl)
		wetR := c.right.getDelayed(dr)
		inL[i] = inL[i]*(1-mix) + wetL*mix
		inR[i] = inR[i]*(1-mix) + wetR*mix
	}
}

func (c *chorus) reset() {
	c.left.reset()
	c.right.reset()
}

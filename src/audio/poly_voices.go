package audio

import "math/rand"

// ----- Poly Voices ----- //

type polyVoices struct {
	// pooled + active = size
	size    int
	pooled  []*voice
	active  []*voice
	limit   int
	counter uint64
	steals  uint64
}

func newPolyVoices(sampleRate float64, size int, seed int64) *polyVoices {
	rng := rand.New(rand.NewSource(seed))
	pooled := make([]*voice, size)
	for i := 0; i < len(pooled); i++ {
		pooled[i] = newVoice(sampleRate, rng.Int63())
	}
	return &polyVoices{
		size:   size,
		pooled: pooled,
		active: make([]*voice, 0, size),
		limit:  size,
	}
}

func (p *polyVoices) setLimit(limit int) {
	if limit < 1 {
		limit = 1
	}
	if limit > p.size {
		limit = p.size
	}
	p.limit = limit
	// release the oldest held voices above the new limit
	for p.countHeld() > limit {
		if o := p.oldest(true); o != nil {
			o.noteOff()
		}
	}
}

func (p *polyVoices) countHeld() int {
	n := 0
	for _, o := range p.active {
		if o.active {
			n++
		}
	}
	return n
}

// oldest returns the oldest active voice. heldOnly skips releasing voices.
func (p *polyVoices) oldest(heldOnly bool) *voice {
	var found *voice
	for _, o := range p.active {
		if heldOnly && !o.active {
			continue
		}
		if found == nil || o.started < found.started {
			found = o
		}
	}
	return found
}

// oldestReleasing returns the oldest voice that has been released.
func (p *polyVoices) oldestReleasing() *voice {
	var found *voice
	for _, o := range p.active {
		if o.active {
			continue
		}
		if found == nil || o.started < found.started {
			found = o
		}
	}
	return found
}

func (p *polyVoices) noteOn(note int, velocity float64, params *params) {
	// one voice per note: retrigger the voice that already plays it
	for _, o := range p.active {
		if o.note == note && !o.isFinished() {
			o.noteOff()
			p.counter++
			o.started = p.counter
			o.noteOn(note, velocity)
			return
		}
	}
	var o *voice
	lenPooled := len(p.pooled)
	if len(p.active) < p.limit && lenPooled > 0 {
		o = p.pooled[lenPooled-1]
		p.pooled = p.pooled[:lenPooled-1]
		p.active = append(p.active, o)
		o.applyParams(params)
	} else {
		o = p.oldestReleasing()
		if o == nil {
			o = p.oldest(false)
		}
		if o == nil {
			return
		}
		p.steals++
	}
	p.counter++
	o.started = p.counter
	o.noteOn(note, velocity)
}

func (p *polyVoices) noteOff(note int) {
	for _, o := range p.active {
		if o.active && o.note == note {
			o.noteOff()
		}
	}
}

func (p *polyVoices) allNotesOff() {
	for _, o := range p.active {
		o.noteOff()
	}
}

func (p *polyVoices) allSoundOff() {
	for _, o := range p.active {
		o.kill()
	}
	p.recycle()
}

func (p *polyVoices) applyParams(params *params) {
	for _, o := range p.active {
		o.applyParams(params)
	}
	p.setLimit(params.getInt(paramVoicePolyphony))
}

// render adds the active voices into outL and outR and returns finished
// voices to the pool once per block.
func (p *polyVoices) render(outL []float64, outR []float64) {
	for _, o := range p.active {
		o.render(outL, outR)
	}
	p.recycle()
}

func (p *polyVoices) recycle() {
	for j := len(p.active) - 1; j >= 0; j-- {
		o := p.active[j]
		if o.isFinished() {
			p.active = append(p.active[:j], p.active[j+1:]...)
			p.pooled = append(p.pooled, o)
		}
	}
}

func (p *polyVoices) count() int {
	return len(p.active)
}

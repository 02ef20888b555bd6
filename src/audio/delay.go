package audio

import "math"

// ----- Delay ----- //

// delay is a ring buffer read at a fractional distance behind the last write.
type delay struct {
	cursor int
	past   []float64
}

func newDelay(maxSamples int) *delay {
	if maxSamples < 2 {
		maxSamples = 2
	}
	return &delay{past: make([]float64, maxSamples+1)}
}

func (d *delay) step(in float64) {
	d.cursor++
	if d.cursor >= len(d.past) {
		d.cursor = 0
	}
	d.past[d.cursor] = in
}

// getDelayed reads samples behind the most recent input with linear
// interpolation. 0 returns the most recent input.
func (d *delay) getDelayed(samples float64) float64 {
	maxDelay := float64(len(d.past) - 2)
	if samples < 0 {
		samples = 0
	}
	if samples > maxDelay {
		samples = maxDelay
	}
	whole := math.Floor(samples)
	frac := samples - whole
	i := d.cursor - int(whole)
	if i < 0 {
		i += len(d.past)
	}
	j := i - 1
	if j < 0 {
		j += len(d.past)
	}
	return d.past[i]*(1-frac) + d.past[j]*frac
}

func (d *delay) reset() {
	for i := range d.past {
		d.past[i] = 0
	}
}

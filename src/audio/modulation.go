package audio

// ----- Modulation -----

// modulation collects per-sample LFO contributions. Contributions to the
// same destination add up.
type modulation struct {
	cents    float64
	cutoffHz float64
	pan      float64
}

func (m *modulation) init() {
	m.cents = 0
	m.cutoffHz = 0
	m.pan = 0
}

func (m *modulation) add(destination int, value float64) {
	switch destination {
	case destPitch:
		m.cents += value * lfoPitchRange
	case destFilter:
		m.cutoffHz += value * lfoFilterRange
	case destPan:
		m.pan += value * lfoPanRange
	}
}

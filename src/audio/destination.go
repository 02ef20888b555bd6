package audio

// ----- Destination ----- //

const (
	destNone = iota
	destPitch
	destFilter
	destPan
)

var destinationNames = []string{"none", "pitch", "filter", "pan"}

// modulation ranges at depth 1.0
const (
	lfoPitchRange  = 100.0  // cents
	lfoFilterRange = 4000.0 // Hz
	lfoPanRange    = 1.0
)

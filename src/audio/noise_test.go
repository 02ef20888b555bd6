package audio

import (
	"math"
	"testing"
)

func renderNoise(kind int, n int) []float64 {
	g := newNoise(42)
	g.setType(kind)
	out := make([]float64, n)
	for i := range out {
		out[i] = g.next()
	}
	return out
}

func TestNoiseOffIsSilent(t *testing.T) {
	expectEqual(t, peak(renderNoise(noiseOff, 1000)), 0.0)
}

func TestNoiseBounded(t *testing.T) {
	for _, kind := range []int{noiseWhite, noisePink, noiseBrown} {
		data := renderNoise(kind, 1<<16)
		if p := peak(data); p > 1 || p == 0 {
			t.Errorf("%s: peak %v", noiseNames[kind], p)
		}
	}
}

func TestPinkNoiseTilt(t *testing.T) {
	const n = 4096
	white := powerSpectrum(t, renderNoise(noiseWhite, 1<<19), n)
	pink := powerSpectrum(t, renderNoise(noisePink, 1<<19), n)

	// three octaves apart
	whiteSlope := toDB(bandDensity(white, n, 1600, 3200)) - toDB(bandDensity(white, n, 200, 400))
	pinkSlope := toDB(bandDensity(pink, n, 1600, 3200)) - toDB(bandDensity(pink, n, 200, 400))
	if math.Abs(whiteSlope) > 1.5 {
		t.Errorf("white noise should be flat, got %.2f dB over 3 octaves", whiteSlope)
	}
	if pinkSlope > -6 || pinkSlope < -12 {
		t.Errorf("pink noise should fall about 9 dB over 3 octaves, got %.2f dB", pinkSlope)
	}
}

func TestBrownNoiseIsDarkerThanPink(t *testing.T) {
	const n = 4096
	pink := powerSpectrum(t, renderNoise(noisePink, 1<<18), n)
	brown := powerSpectrum(t, renderNoise(noiseBrown, 1<<18), n)
	pinkSlope := toDB(bandDensity(pink, n, 1600, 3200)) - toDB(bandDensity(pink, n, 200, 400))
	brownSlope := toDB(bandDensity(brown, n, 1600, 3200)) - toDB(bandDensity(brown, n, 200, 400))
	if brownSlope > pinkSlope-6 {
		t.Errorf("brown %.2f dB should fall faster than pink %.2f dB", brownSlope, pinkSlope)
	}
}

func TestNoiseResetIsDeterministic(t *testing.T) {
	a := newNoise(7)
	b := newNoise(7)
	a.setType(noisePink)
	b.setType(noisePink)
	for i := 0; i < 100; i++ {
		a.next()
	}
	a.reset()
	b.reset()
	for i := 0; i < 100; i++ {
		expectEqual(t, a.next(), b.next())
	}
}

func TestNoiseIgnoresUnknownType(t *testing.T) {
	g := newNoise(1)
	g.setType(noiseBrown)
	g.setType(99)
	expectEqual(t, g.kind, noiseBrown)
}

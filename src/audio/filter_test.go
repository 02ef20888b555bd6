package audio

import (
	"math"
	"testing"
)

func runFilter(f *ladderFilter, in []float64) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		out[i] = f.process(x)
	}
	return out
}

func TestLadderFilterBounded(t *testing.T) {
	in := sine(440, 1, 10000)
	for kind := range filterNames {
		for _, cutoff := range []float64{20, 440, 5000, testSampleRate * 0.49} {
			for _, res := range []float64{0, 0.5, 1} {
				f := newLadderFilter(testSampleRate)
				f.setType(kind)
				f.setCutoff(cutoff)
				f.jumpCutoff()
				f.setResonance(res)
				f.setDrive(maxDrive)
				out := runFilter(f, in)
				for i, y := range out {
					if math.IsNaN(y) || math.Abs(y) > 2 {
						t.Fatalf("%s cutoff=%v res=%v: sample %d is %v", filterNames[kind], cutoff, res, i, y)
					}
				}
			}
		}
	}
}

func TestLadderFilterClamps(t *testing.T) {
	f := newLadderFilter(testSampleRate)
	f.setCutoff(-5)
	expectEqual(t, f.target, minCutoff)
	f.setCutoff(1e6)
	expectEqual(t, f.target, maxCutoffRatio*testSampleRate)
	f.setResonance(5)
	expectEqual(t, f.resonance, 1.0)
	expectEqual(t, f.k, maxResonanceGain)
	f.setResonance(-1)
	expectEqual(t, f.resonance, 0.0)
	f.setDrive(100)
	expectEqual(t, f.drive, maxDrive)
	f.setType(42)
	expectEqual(t, f.kind, filterLowpass24)
}

func TestLadderFilterResponse(t *testing.T) {
	low := sine(100, 0.3, 24000)
	high := sine(8000, 0.3, 24000)
	gain := func(kind int, in []float64) float64 {
		f := newLadderFilter(testSampleRate)
		f.setType(kind)
		f.setCutoff(1000)
		f.jumpCutoff()
		out := runFilter(f, in)
		// skip the transient
		return rms(out[4800:]) / rms(in[4800:])
	}
	if g := gain(filterLowpass24, high); g > 0.01 {
		t.Errorf("lp24 should cut 8 kHz, gain %v", g)
	}
	if g := gain(filterLowpass24, low); g < 0.8 {
		t.Errorf("lp24 should pass 100 Hz, gain %v", g)
	}
	if gain(filterLowpass12, high) < gain(filterLowpass24, high) {
		t.Errorf("lp12 should be less steep than lp24")
	}
	// input minus the 4th stage rolls off gently below the cutoff
	if g := gain(filterHighpass, low); g > 0.5 {
		t.Errorf("hp should cut 100 Hz, gain %v", g)
	}
	if g := gain(filterHighpass, high); g < 0.8 {
		t.Errorf("hp should pass 8 kHz, gain %v", g)
	}
	if gain(filterBandpass, sine(1000, 0.3, 24000)) < gain(filterBandpass, low) {
		t.Errorf("bp should favor its center")
	}
}

func TestLadderFilterResonancePeaks(t *testing.T) {
	in := sine(1000, 0.1, 24000)
	gain := func(res float64) float64 {
		f := newLadderFilter(testSampleRate)
		f.setCutoff(1000)
		f.jumpCutoff()
		f.setResonance(res)
		return rms(runFilter(f, in)[4800:])
	}
	if gain(0.9) < 2*gain(0) {
		t.Errorf("resonance should boost the cutoff frequency")
	}
}

func TestLadderFilterSmoothsCutoff(t *testing.T) {
	f := newLadderFilter(testSampleRate)
	f.setCutoff(200)
	f.jumpCutoff()
	f.setCutoff(10000)
	f.process(0)
	if f.cutoff >= 10000 || f.cutoff <= 200 {
		t.Errorf("cutoff should move gradually, got %v", f.cutoff)
	}
	for i := 0; i < 4800; i++ {
		f.process(0)
	}
	if math.Abs(f.cutoff-10000) > 1 {
		t.Errorf("cutoff should settle, got %v", f.cutoff)
	}
}

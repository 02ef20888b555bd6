package audio

import "testing"

func TestChorusDisabledIsDry(t *testing.T) {
	c := newChorus(testSampleRate, 1)
	c.applyParams(newParams())
	inL := sine(440, 0.5, 4800)
	inR := sine(440, 0.5, 4800)
	want := append([]float64(nil), inL...)
	for pos := 0; pos < len(inL); pos += 96 {
		c.process(inL[pos:pos+96], inR[pos:pos+96])
	}
	for i := range inL {
		expectEqual(t, inL[i], want[i])
	}
}

func TestChorusEnabledIsWet(t *testing.T) {
	p := newParams()
	p[paramChorusEnabled] = 1
	p[paramChorusMix] = 1
	c := newChorus(testSampleRate, 1)
	c.applyParams(p)
	inL := sine(440, 0.5, 9600)
	inR := sine(440, 0.5, 9600)
	dry := append([]float64(nil), inL...)
	c.process(inL, inR)
	diff := make([]float64, len(inL))
	for i := range inL {
		diff[i] = inL[i] - dry[i]
	}
	if rms(diff[4800:]) < 0.01 {
		t.Errorf("chorus should change the signal")
	}
	// left and right are modulated differently
	side := make([]float64, len(inL))
	for i := range inL {
		side[i] = inL[i] - inR[i]
	}
	if rms(side[4800:]) == 0 {
		t.Errorf("chorus should widen the signal")
	}
	if peak(inL) > 1 {
		t.Errorf("chorus should not gain, peak %v", peak(inL))
	}
}

func TestChorusResetClearsLines(t *testing.T) {
	p := newParams()
	p[paramChorusEnabled] = 1
	p[paramChorusMix] = 1
	c := newChorus(testSampleRate, 1)
	c.applyParams(p)
	inL := sine(440, 0.5, 4800)
	inR := sine(440, 0.5, 4800)
	c.process(inL, inR)
	c.reset()
	silentL := make([]float64, 256)
	silentR := make([]float64, 256)
	c.process(silentL, silentR)
	expectEqual(t, peak(silentL), 0.0)
	expectEqual(t, peak(silentR), 0.0)
}

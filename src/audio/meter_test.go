package audio

import (
	"errors"
	"math"
	"testing"
)

func feedMeter(m *meter, data []float64) {
	for pos := 0; pos+blockSize <= len(data); pos += blockSize {
		m.write(data[pos:pos+blockSize], data[pos:pos+blockSize])
	}
}

func TestMeterSpectrumPeak(t *testing.T) {
	m, err := newMeter(testSampleRate)
	expectNoError(t, err)
	feedMeter(m, sine(3000, 0.5, fftSize*2))
	spectrum := m.spectrumTo(nil)
	expectEqual(t, len(spectrum), fftSize/2)

	best := 0
	for i, v := range spectrum {
		if v > spectrum[best] {
			best = i
		}
	}
	binHz := testSampleRate / fftSize
	if math.Abs(float64(best)*binHz-3000) > binHz {
		t.Errorf("peak at %v Hz", float64(best)*binHz)
	}
	if spectrum[best] < -20 {
		t.Errorf("peak too low: %v dB", spectrum[best])
	}
	if far := spectrum[best/4]; far > spectrum[best]-60 {
		t.Errorf("expected a clean spectrum, got %v dB at bin %d", far, best/4)
	}
}

func TestMeterSpectrumKeepsLastOnFailure(t *testing.T) {
	m, err := newMeter(testSampleRate)
	expectNoError(t, err)
	feedMeter(m, sine(1000, 0.5, fftSize*2))
	before := m.spectrumTo(nil)

	m.forward = func(dst []complex128, src []float64) error {
		return errors.New("fft failed")
	}
	feedMeter(m, sine(5000, 0.5, fftSize*2))
	after := m.spectrumTo(nil)
	expectEqual(t, len(after), len(before))
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("bin %d changed from %v to %v", i, before[i], after[i])
		}
	}
}

func TestMeterSilence(t *testing.T) {
	m, err := newMeter(testSampleRate)
	expectNoError(t, err)
	for _, v := range m.spectrumTo(nil) {
		expectEqual(t, v, meterFloorDB)
	}
	lv := m.level()
	expectEqual(t, lv.Peak, 0.0)
	expectEqual(t, lv.RMS, 0.0)
}

func TestMeterLevel(t *testing.T) {
	m, err := newMeter(testSampleRate)
	expectNoError(t, err)
	// a whole number of cycles per block
	feedMeter(m, sine(375, 0.5, blockSize*4))
	lv := m.level()
	if math.Abs(lv.Peak-0.5) > 0.01 {
		t.Errorf("peak %v", lv.Peak)
	}
	if math.Abs(lv.RMS-0.5/math.Sqrt2) > 0.01 {
		t.Errorf("rms %v", lv.RMS)
	}

	// the peak falls slowly after the signal stops
	feedMeter(m, make([]float64, blockSize))
	lv = m.level()
	if lv.Peak <= 0.4 || lv.Peak >= 0.5 {
		t.Errorf("peak should fall gradually, got %v", lv.Peak)
	}
	expectEqual(t, lv.RMS, 0.0)
}

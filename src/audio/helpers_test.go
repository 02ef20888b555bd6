package audio

import (
	"math"
	"testing"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

const testSampleRate = 48000.0

func expectEqual(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNearlyEqual(t *testing.T, actual, expected float64) {
	t.Helper()
	if math.Abs(actual-expected) > 0.0001 {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
}

func expectError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Errorf("expected an error, but got nil")
	}
}

func rms(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(data)))
}

func peak(data []float64) float64 {
	p := 0.0
	for _, v := range data {
		p = math.Max(p, math.Abs(v))
	}
	return p
}

func sine(freq float64, amp float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
	return out
}

func toDB(x float64) float64 {
	return 10 * math.Log10(x+1e-30)
}

// powerSpectrum averages Hann windowed frames of size n and returns the
// power of bins 0..n/2.
func powerSpectrum(t *testing.T, data []float64, n int) []float64 {
	t.Helper()
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		t.Fatalf("NewPlan64: %v", err)
	}
	win := window.Generate(window.TypeHann, n, window.WithPeriodic())
	in := make([]complex128, n)
	out := make([]complex128, n)
	power := make([]float64, n/2+1)
	frames := 0
	for pos := 0; pos+n <= len(data); pos += n {
		for i := 0; i < n; i++ {
			in[i] = complex(data[pos+i]*win[i], 0)
		}
		if err := plan.Forward(out, in); err != nil {
			t.Fatalf("Forward: %v", err)
		}
		for k := range power {
			re, im := real(out[k]), imag(out[k])
			power[k] += re*re + im*im
		}
		frames++
	}
	for k := range power {
		power[k] /= float64(frames)
	}
	return power
}

// bandDensity is the mean power per bin between lo and hi Hz.
func bandDensity(power []float64, n int, lo float64, hi float64) float64 {
	binHz := testSampleRate / float64(n)
	sum := 0.0
	count := 0
	for k := range power {
		f := float64(k) * binHz
		if f >= lo && f < hi {
			sum += power[k]
			count++
		}
	}
	return sum / float64(count)
}

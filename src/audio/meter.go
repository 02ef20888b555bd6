package audio

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"
	"sync/atomic"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

// ----- Meter ----- //

const (
	fftSize      = 2048
	meterRelease = 0.3 // s, peak fall time constant
	meterFloorDB = -120.0
)

// Level is the master output level seen by the meter.
type Level struct {
	Peak float64 `json:"peak"`
	RMS  float64 `json:"rms"`
}

/*
  The audio thread writes the mono sum of the master output into ring and
  publishes pos after each block. Readers copy the last fftSize samples
  without locking, so a frame may be torn across a block boundary.
*/
type meter struct {
	ring      [fftSize]atomic.Uint32
	pos       atomic.Uint64
	peak      atomic.Uint64
	rms       atomic.Uint64
	peakHold  float64
	peakCoeff float64

	// reader side
	mu       sync.Mutex
	forward  func(dst []complex128, src []float64) error
	win      []float64
	buf      []float64
	spectrum []complex128
	result   []float64
}

func newMeter(sampleRate float64) (*meter, error) {
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}
	return &meter{
		peakCoeff: math.Exp(-blockSize / (meterRelease * sampleRate)),
		forward: func(dst []complex128, src []float64) error {
			return plan.Forward(dst, src)
		},
		win:      window.Generate(window.TypeHann, fftSize, window.WithPeriodic()),
		buf:      make([]float64, fftSize),
		spectrum: make([]complex128, fftSize/2+1),
		result:   make([]float64, fftSize/2),
	}, nil
}

// write runs on the audio thread.
func (m *meter) write(outL []float64, outR []float64) {
	pos := m.pos.Load()
	peak := 0.0
	sumSq := 0.0
	for i := range outL {
		x := (outL[i] + outR[i]) / 2
		m.ring[(pos+uint64(i))%fftSize].Store(math.Float32bits(float32(x)))
		peak = max(peak, math.Abs(outL[i]), math.Abs(outR[i]))
		sumSq += outL[i]*outL[i] + outR[i]*outR[i]
	}
	m.pos.Store(pos + uint64(len(outL)))

	m.peakHold = max(peak, m.peakHold*m.peakCoeff)
	m.peak.Store(math.Float64bits(m.peakHold))
	rms := math.Sqrt(sumSq / float64(2*len(outL)))
	m.rms.Store(math.Float64bits(rms))
}

func (m *meter) level() Level {
	return Level{
		Peak: math.Float64frombits(m.peak.Load()),
		RMS:  math.Float64frombits(m.rms.Load()),
	}
}

// spectrumTo fills dst with fftSize/2 magnitudes (dB) of the latest output.
// If the transform fails, the previous spectrum is returned.
func (m *meter) spectrumTo(dst []float64) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	// buf: | oldest ... newest |
	pos := m.pos.Load()
	for i := range m.buf {
		bits := m.ring[(pos+uint64(i))%fftSize].Load()
		m.buf[i] = float64(math.Float32frombits(bits)) * m.win[i]
	}
	if err := m.forward(m.spectrum, m.buf); err != nil {
		return append(dst[:0], m.result...)
	}
	for i := range m.result {
		mag := cmplx.Abs(m.spectrum[i]) * 2 / fftSize
		m.result[i] = max(20*math.Log10(mag+1e-12), meterFloorDB)
	}
	return append(dst[:0], m.result...)
}

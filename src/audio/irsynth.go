package audio

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
)

// ----- Long IR ----- //

const (
	irChunkFrames  = 4096
	irPeakTarget   = 0.7
	irDampHigh     = 18000.0 // Hz at t=0
	irDampLow      = 600.0   // Hz at full damping and t=decay
	roomEarlyTime  = 0.1     // s
	roomEarlyBoost = 1.8
	roomEarlyTaps  = 12
	roomCrossFeed  = 0.3
	roomCrossShift = 23 // samples
)

// IRConfig describes a long reverb impulse response.
type IRConfig struct {
	SampleRate  int
	Decay       float64 // s, -60 dB point
	Damping     float64 // 0-1
	StereoWidth float64 // 0-1
	Seed        int64
}

func (c *IRConfig) Validate() error {
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample rate too low: %d", c.SampleRate)
	}
	if c.Decay <= 0 {
		return fmt.Errorf("decay must be > 0")
	}
	if c.Damping < 0 || c.Damping > 1 {
		return fmt.Errorf("damping must be in [0,1]: %v", c.Damping)
	}
	if c.StereoWidth < 0 || c.StereoWidth > 1 {
		return fmt.Errorf("stereo width must be in [0,1]: %v", c.StereoWidth)
	}
	return nil
}

// GenerateLongIR fills a stereo buffer of Decay*SampleRate frames in chunks,
// yielding between chunks and returning ctx.Err() once ctx is done. The
// result is peak normalized to 0.7.
func GenerateLongIR(ctx context.Context, cfg IRConfig) ([]float32, []float32, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	sr := float64(cfg.SampleRate)
	n := int(math.Round(cfg.Decay * sr))
	if n < 1 {
		n = 1
	}
	left := make([]float32, n)
	right := make([]float32, n)
	rng := rand.New(rand.NewSource(cfg.Seed))

	decayCoeff := math.Log(0.001) / cfg.Decay
	var lpL, lpR float64
	peak := 0.0
	for start := 0; start < n; start += irChunkFrames {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		end := min(start+irChunkFrames, n)
		for i := start; i < end; i++ {
			t := float64(i) / sr
			env := math.Exp(decayCoeff * t)
			// absorption: the lowpass closes as the tail gets older
			progress := t / cfg.Decay
			cutoff := irDampHigh - (irDampHigh-irDampLow)*cfg.Damping*progress
			a := math.Exp(-2 * math.Pi * cutoff / sr)
			lpL = (1-a)*(rng.Float64()*2-1) + a*lpL
			lpR = (1-a)*(rng.Float64()*2-1) + a*lpR
			l := lpL * env
			r := lpR * env
			mid := (l + r) / 2
			side := (l - r) / 2 * cfg.StereoWidth
			l = mid + side
			r = mid - side
			left[i] = float32(l)
			right[i] = float32(r)
			peak = math.Max(peak, math.Max(math.Abs(l), math.Abs(r)))
		}
		runtime.Gosched()
	}
	normalizePeak(left, right, peak, irPeakTarget)
	return left, right, nil
}

func normalizePeak(left []float32, right []float32, peak float64, target float64) {
	if peak <= 0 {
		return
	}
	scale := float32(target / peak)
	for i := range left {
		left[i] *= scale
	}
	for i := range right {
		right[i] *= scale
	}
}

func peakOf(left []float32, right []float32) float64 {
	peak := 0.0
	for _, v := range left {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	for _, v := range right {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	return peak
}

// ----- Room IR ----- //

// generateRoomIR builds the short reverb response: decaying filtered noise,
// a denser first 100 ms with discrete reflections, and a small cross feed
// between channels.
func generateRoomIR(sampleRate int, decay float64, seed int64) ([]float32, []float32) {
	sr := float64(sampleRate)
	n := max(int(math.Round(decay*sr)), 1)
	rng := rand.New(rand.NewSource(seed))
	l := make([]float64, n)
	r := make([]float64, n)

	decayCoeff := math.Log(0.001) / decay
	a := math.Exp(-2 * math.Pi * 9000 / sr)
	early := int(roomEarlyTime * sr)
	var lpL, lpR float64
	for i := 0; i < n; i++ {
		env := math.Exp(decayCoeff * float64(i) / sr)
		if i < early {
			env *= roomEarlyBoost
		}
		lpL = (1-a)*(rng.Float64()*2-1) + a*lpL
		lpR = (1-a)*(rng.Float64()*2-1) + a*lpR
		l[i] = lpL * env
		r[i] = lpR * env
	}
	for k := 0; k < roomEarlyTaps; k++ {
		i := min(rng.Intn(max(early, 1)), n-1)
		g := (0.3 + 0.5*rng.Float64()) * math.Exp(decayCoeff*float64(i)/sr)
		if k%2 == 0 {
			l[i] += g
			r[i] += g * 0.6
		} else {
			l[i] += g * 0.6
			r[i] += g
		}
	}

	left := make([]float32, n)
	right := make([]float32, n)
	peak := 0.0
	for i := 0; i < n; i++ {
		lv, rv := l[i], r[i]
		if i >= roomCrossShift {
			lv += roomCrossFeed * r[i-roomCrossShift]
			rv += roomCrossFeed * l[i-roomCrossShift]
		}
		left[i] = float32(lv)
		right[i] = float32(rv)
		peak = math.Max(peak, math.Max(math.Abs(lv), math.Abs(rv)))
	}
	normalizePeak(left, right, peak, irPeakTarget)
	return left, right
}

package audio

import (
	"fmt"
	"math"
	"sync/atomic"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
)

// ----- IR Kernel ----- //

// irKernel is a ready to run stereo convolution. It is built off the audio
// thread and handed over through convolver.install.
type irKernel struct {
	leftOLA  *dspconv.StreamingOverlapAddT[float32, complex64]
	rightOLA *dspconv.StreamingOverlapAddT[float32, complex64]
	length   int
	gain     float32
	width    float64
}

func newIRKernel(left []float32, right []float32, partSize int) (*irKernel, error) {
	if len(left) == 0 || len(right) == 0 {
		return nil, fmt.Errorf("empty impulse response")
	}
	leftOLA, err := dspconv.NewStreamingOverlapAdd32(left, partSize)
	if err != nil {
		return nil, fmt.Errorf("left convolver: %w", err)
	}
	rightOLA, err := dspconv.NewStreamingOverlapAdd32(right, partSize)
	if err != nil {
		return nil, fmt.Errorf("right convolver: %w", err)
	}
	return &irKernel{
		leftOLA:  leftOLA,
		rightOLA: rightOLA,
		length:   max(len(left), len(right)),
		gain:     energyGain(left, right),
	}, nil
}

// energyGain scales the wet signal so that the IR has unit energy per
// channel, independent of its length.
func energyGain(left []float32, right []float32) float32 {
	sum := 0.0
	for _, v := range left {
		sum += float64(v) * float64(v)
	}
	for _, v := range right {
		sum += float64(v) * float64(v)
	}
	sum /= 2
	if sum < 1e-12 {
		return 0
	}
	return float32(1 / math.Sqrt(sum))
}

func (k *irKernel) reset() {
	k.leftOLA.Reset()
	k.rightOLA.Reset()
}

// ----- Convolver ----- //

/*
  mono in -> [fifo: partSize] -> kernel L/R -> [fifo: partSize] -> stereo out

  Latency is one partition. A newly installed kernel is picked up at the next
  partition boundary and crossfaded against the previous one for a partition.
*/
type convolver struct {
	partSize int
	pending  atomic.Pointer[irKernel]
	current  *irKernel
	previous *irKernel
	in       []float32
	outL     []float32
	outR     []float32
	fadeL    []float32
	fadeR    []float32
	pos      int
}

func newConvolver(partSize int) *convolver {
	return &convolver{
		partSize: partSize,
		in:       make([]float32, partSize),
		outL:     make([]float32, partSize),
		outR:     make([]float32, partSize),
		fadeL:    make([]float32, partSize),
		fadeR:    make([]float32, partSize),
	}
}

// install may be called from any goroutine.
func (c *convolver) install(k *irKernel) {
	c.pending.Store(k)
}

func (c *convolver) installed() *irKernel {
	return c.pending.Load()
}

func (c *convolver) latency() int {
	return c.partSize
}

func (c *convolver) swap() {
	k := c.pending.Load()
	if k == c.current {
		return
	}
	c.previous = c.current
	c.current = k
}

// reset clears buffered audio. Audio thread only.
func (c *convolver) reset() {
	for i := range c.in {
		c.in[i] = 0
		c.outL[i] = 0
		c.outR[i] = 0
	}
	c.pos = 0
	c.previous = nil
	if c.current != nil {
		c.current.reset()
	}
}

func (c *convolver) process(in float32) (float32, float32) {
	l, r := c.outL[c.pos], c.outR[c.pos]
	c.in[c.pos] = in
	c.pos++
	if c.pos == c.partSize {
		c.pos = 0
		c.runPartition()
	}
	return l, r
}

func (c *convolver) runPartition() {
	c.swap()
	if c.current == nil || !c.convolve(c.current, c.outL, c.outR) {
		for i := range c.outL {
			c.outL[i] = 0
			c.outR[i] = 0
		}
	}
	if c.previous == nil {
		return
	}
	if c.convolve(c.previous, c.fadeL, c.fadeR) {
		n := float32(c.partSize)
		for i := range c.outL {
			t := float32(i) / n
			c.outL[i] = c.outL[i]*t + c.fadeL[i]*(1-t)
			c.outR[i] = c.outR[i]*t + c.fadeR[i]*(1-t)
		}
	}
	c.previous = nil
}

func (c *convolver) convolve(k *irKernel, outL []float32, outR []float32) bool {
	errL := k.leftOLA.ProcessBlockTo(outL, c.in)
	errR := k.rightOLA.ProcessBlockTo(outR, c.in)
	if errL != nil || errR != nil {
		return false
	}
	for i := range outL {
		outL[i] *= k.gain
		outR[i] *= k.gain
	}
	return true
}

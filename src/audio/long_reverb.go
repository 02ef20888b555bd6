package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ----- Long Reverb ----- //

const (
	longReverbPartSize    = 2048
	longReverbMaxPreDelay = 1.0 // s
	maxSideGain           = 2.0
)

/*
  in -> mono -> pre-delay -> convolution (L/R) -> width balance -> wet
                                                                  |
  in ---------------------------------------------------- dry ---(mix)--> out

  The impulse response is generated off the audio thread. Only the job for
  the latest request may publish; older jobs are cancelled or discarded.
*/
type longReverb struct {
	sampleRate float64
	enabled    bool
	mixValue   float64
	mix        *transitiveValue
	preDelay   *transitiveValue // samples
	sideGain   *transitiveValue
	delay      *delay
	conv       *convolver
	width      float64
	bypassed   bool

	// control side
	mu         sync.Mutex
	generation atomic.Uint64
	cancel     context.CancelFunc
	done       chan struct{} // closed when the latest job ends
	wg         sync.WaitGroup
	closed     bool
	requested  IRConfig
	seed       int64
	log        *logrus.Entry
}

func newLongReverb(sampleRate float64, seed int64) *longReverb {
	conv := newConvolver(longReverbPartSize)
	return &longReverb{
		sampleRate: sampleRate,
		mix:        newTransitiveValue(sampleRate, 0),
		preDelay:   newTransitiveValue(sampleRate, 0),
		sideGain:   newTransitiveValue(sampleRate, 1),
		delay:      newDelay(int(longReverbMaxPreDelay*sampleRate) + conv.latency() + 2),
		conv:       conv,
		bypassed:   true,
		seed:       seed,
		log:        logrus.WithField("component", "longReverb"),
	}
}

// request starts generating a new impulse response unless the same one is
// already current or being built. Control side only.
func (r *longReverb) request(cfg IRConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || cfg == r.requested {
		return
	}
	r.requested = cfg
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	gen := r.generation.Add(1)
	done := make(chan struct{})
	r.done = done
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer close(done)
		defer cancel()
		r.job(ctx, gen, cfg)
	}()
}

func (r *longReverb) job(ctx context.Context, gen uint64, cfg IRConfig) {
	log := r.log.WithFields(logrus.Fields{
		"generation": gen,
		"decay":      cfg.Decay,
		"damping":    cfg.Damping,
		"width":      cfg.StereoWidth,
	})
	log.Debug("generating impulse response")
	start := time.Now()
	left, right, err := GenerateLongIR(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			log.Debug("impulse response superseded")
		} else {
			log.WithError(err).Error("failed to generate impulse response")
			r.forget(gen)
		}
		return
	}
	k, err := newIRKernel(left, right, longReverbPartSize)
	if err != nil {
		log.WithError(err).Error("failed to build convolution kernel")
		r.forget(gen)
		return
	}
	k.width = cfg.StereoWidth

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation.Load() != gen {
		log.Debug("impulse response discarded")
		return
	}
	r.conv.install(k)
	log.WithField("elapsed", time.Since(start)).Info("impulse response installed")
}

// forget lets a failed config be requested again.
func (r *longReverb) forget(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generation.Load() == gen {
		r.requested = IRConfig{}
	}
}

// wait blocks until the latest job has finished. Jobs it superseded may
// still be winding down.
func (r *longReverb) wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (r *longReverb) close() {
	r.mu.Lock()
	r.closed = true
	if r.cancel != nil {
		r.cancel()
	}
	r.generation.Add(1)
	r.mu.Unlock()
	r.wg.Wait()
}

// irConfig reads the parameters that shape the impulse response.
func (r *longReverb) irConfig(p *params) IRConfig {
	return IRConfig{
		SampleRate:  int(r.sampleRate),
		Decay:       p.getFloat(paramLongReverbDecay),
		Damping:     p.getFloat(paramLongReverbDamping),
		StereoWidth: p.getFloat(paramLongReverbWidth),
		Seed:        r.seed,
	}
}

// applyParams runs on the audio thread and never blocks.
func (r *longReverb) applyParams(p *params) {
	r.enabled = p.getBool(paramLongReverbEnabled)
	r.mixValue = p.getFloat(paramLongReverbMix)
	target := 0.0
	if r.enabled {
		target = r.mixValue
	}
	r.mix.exponential(rampTime/3, target)
	samples := p.getFloat(paramLongReverbPreDelay)*r.sampleRate - float64(r.conv.latency())
	r.preDelay.linear(rampTime*5, max(samples, 0))
	r.width = p.getFloat(paramLongReverbWidth)
	r.updateSideGain()
}

// updateSideGain matches the requested width right away while a kernel
// built with another width is still playing.
func (r *longReverb) updateSideGain() {
	g := 1.0
	if k := r.conv.current; k != nil {
		if k.width > 0 {
			g = clamp(r.width/k.width, 0, maxSideGain)
		} else {
			g = 0
		}
	}
	if g != r.sideGain.targetValue {
		r.sideGain.exponential(rampTime/3, g)
	}
}

func (r *longReverb) process(inL []float64, inR []float64) {
	if !r.enabled && r.mix.settled() {
		r.bypassed = true
		return
	}
	if r.bypassed {
		r.conv.reset()
		r.delay.reset()
		r.bypassed = false
	}
	current := r.conv.current
	for i := range inL {
		mix := r.mix.step()
		r.delay.step((inL[i] + inR[i]) / 2)
		x := r.delay.getDelayed(r.preDelay.step())
		wl, wr := r.conv.process(float32(x))
		if r.conv.current != current {
			current = r.conv.current
			r.updateSideGain()
		}
		l, rr := float64(wl), float64(wr)
		mid := (l + rr) / 2
		side := (l - rr) / 2 * r.sideGain.step()
		inL[i] = inL[i]*(1-mix) + (mid+side)*mix
		inR[i] = inR[i]*(1-mix) + (mid-side)*mix
	}
}

// reset drops the tail at the start of the next block.
func (r *longReverb) reset() {
	r.bypassed = true
}

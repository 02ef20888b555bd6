package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ----- Sequencer ----- //

const (
	minBPM = 20.0
	maxBPM = 400.0
	rest   = -1
)

// NoteSink receives notes from a Sequencer. *Engine implements it.
type NoteSink interface {
	NoteOn(note int, velocity int)
	NoteOff(note int)
	AllNotesOff()
}

// Pattern is a loop of steps, one per beat. A note of -1 is a rest.
type Pattern struct {
	BPM      float64
	Notes    []int
	Velocity int
	Gate     float64 // fraction of the step the note is held, (0,1]
}

func (p *Pattern) Validate() error {
	if p.BPM < minBPM || p.BPM > maxBPM {
		return fmt.Errorf("bpm must be in [%v,%v]: %v", minBPM, maxBPM, p.BPM)
	}
	if len(p.Notes) == 0 {
		return fmt.Errorf("pattern has no steps")
	}
	for _, n := range p.Notes {
		if n != rest && (n < 0 || n > maxNote) {
			return fmt.Errorf("note out of range: %d", n)
		}
	}
	if p.Velocity < 1 || p.Velocity > maxVelocity {
		return fmt.Errorf("velocity must be in [1,%d]: %d", maxVelocity, p.Velocity)
	}
	if p.Gate <= 0 || p.Gate > 1 {
		return fmt.Errorf("gate must be in (0,1]: %v", p.Gate)
	}
	return nil
}

// Sequencer plays a Pattern until stopped. Stopping always releases every
// note, so nothing keeps sounding after Stop returns.
type Sequencer struct {
	sink   NoteSink
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	log    *logrus.Entry
}

func NewSequencer(sink NoteSink) *Sequencer {
	return &Sequencer{
		sink: sink,
		log:  logrus.WithField("component", "sequencer"),
	}
}

// Start replaces any running pattern. The loop ends when ctx is done or
// Stop is called.
func (s *Sequencer) Start(ctx context.Context, p Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	notes := append([]int(nil), p.Notes...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	go func() {
		defer close(done)
		defer s.sink.AllNotesOff()
		s.run(ctx, p, notes)
	}()
	s.log.WithFields(logrus.Fields{
		"bpm":   p.BPM,
		"steps": len(notes),
	}).Info("sequencer started")
	return nil
}

func (s *Sequencer) run(ctx context.Context, p Pattern, notes []int) {
	step := time.Duration(float64(time.Minute) / p.BPM)
	gate := time.Duration(float64(step) * p.Gate)
	ticker := time.NewTicker(step)
	defer ticker.Stop()
	release := time.NewTimer(gate)
	defer release.Stop()

	held := rest
	i := 0
	play := func() {
		held = notes[i%len(notes)]
		i++
		if held != rest {
			s.sink.NoteOn(held, p.Velocity)
		}
		release.Reset(gate)
	}
	play()
	for {
		select {
		case <-ctx.Done():
			return
		case <-release.C:
			if held != rest {
				s.sink.NoteOff(held)
				held = rest
			}
		case <-ticker.C:
			if held != rest {
				s.sink.NoteOff(held)
			}
			play()
		}
	}
}

// Stop ends the running pattern, if any, and waits for its last note-off.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Sequencer) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel, s.done = nil, nil
	s.log.Info("sequencer stopped")
}

func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

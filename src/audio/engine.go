package audio

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	bitDepthInBytes = 2
	bytesPerFrame   = bitDepthInBytes * channelNum
	maxNote         = 127
	maxVelocity     = 127
	backlogRetry    = 2 * time.Millisecond
)

// ----- Config ----- //

// Config holds the engine settings that are fixed for its lifetime.
type Config struct {
	SampleRate   int
	MaxPolyphony int
	QueueSize    int
	Seed         int64
}

func DefaultConfig() Config {
	return Config{
		SampleRate:   defaultSampleRate,
		MaxPolyphony: maxPoly,
		QueueSize:    1024,
		Seed:         1,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return fmt.Errorf("sample rate out of range: %d", c.SampleRate)
	}
	if c.MaxPolyphony < 1 || c.MaxPolyphony > maxPoly {
		return fmt.Errorf("max polyphony must be in [1,%d]: %d", maxPoly, c.MaxPolyphony)
	}
	if c.QueueSize < 16 {
		return fmt.Errorf("queue size too small: %d", c.QueueSize)
	}
	return nil
}

// ----- Engine ----- //

/*
  control side                      audio side (Process / Read)
  ------------                      ---------------------------
  NoteOn, SetParams ... -> queue -> drain -> params -> voices -> chorus
                                                    -> reverb -> long reverb
  reverb kernels --------(atomic)-> convolvers      -> eq -> master -> meter
*/

// Engine is a polyphonic synthesizer. Its control methods may be called from
// any goroutine. Process and Read must be called from one goroutine only.
type Engine struct {
	config     Config
	sampleRate float64
	log        *logrus.Entry

	// control side
	mu          sync.Mutex
	params      *params
	reverbDecay float64
	queue       *commandQueue
	pending     []command
	backlog     []command
	retry       *time.Timer
	dropped     atomic.Uint64
	closed      atomic.Bool

	// audio side
	audioParams  *params
	dirty        bool
	handle       func(c *command)
	voices       *polyVoices
	chorus       *chorus
	reverb       *reverb
	longReverb   *longReverb
	eq           *eq
	master       *transitiveValue
	meter        *meter
	bufL         []float64
	bufR         []float64
	carry        []float32 // interleaved, one block
	carryPos     int
	readBuf      []float32
	activeVoices atomic.Int32
}

func NewEngine(config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	sr := float64(config.SampleRate)
	m, err := newMeter(sr)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		config:      config,
		sampleRate:  sr,
		log:         logrus.WithField("component", "engine"),
		params:      newParams(),
		queue:       newCommandQueue(config.QueueSize),
		pending:     make([]command, 0, numParams),
		audioParams: newParams(),
		voices:      newPolyVoices(sr, config.MaxPolyphony, config.Seed),
		chorus:      newChorus(sr, config.Seed+101),
		reverb:      newReverb(sr),
		longReverb:  newLongReverb(sr, config.Seed+202),
		eq:          newEQ(sr),
		master:      newTransitiveValue(sr, 0),
		meter:       m,
		bufL:        make([]float64, blockSize),
		bufR:        make([]float64, blockSize),
		carry:       make([]float32, blockSize*channelNum),
	}
	e.carryPos = len(e.carry)
	e.handle = e.handleCommand
	if err := e.rebuildReverb(); err != nil {
		return nil, err
	}
	e.applyParams()
	e.master.init(e.audioParams.getFloat(paramMasterVolume))
	e.log.WithFields(logrus.Fields{
		"sampleRate": config.SampleRate,
		"polyphony":  config.MaxPolyphony,
	}).Debug("engine created")
	return e, nil
}

func (e *Engine) SampleRate() int {
	return e.config.SampleRate
}

// ----- Control Side ----- //

// NoteOn starts or retriggers note. A velocity of 0 releases the note.
func (e *Engine) NoteOn(note int, velocity int) {
	if note < 0 || note > maxNote {
		return
	}
	if velocity <= 0 {
		e.NoteOff(note)
		return
	}
	velocity = min(velocity, maxVelocity)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.push(command{kind: commandNoteOn, note: note, velocity: float64(velocity) / maxVelocity})
}

func (e *Engine) NoteOff(note int) {
	if note < 0 || note > maxNote {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.push(command{kind: commandNoteOff, note: note})
}

// AllNotesOff releases every voice. Release tails play out.
func (e *Engine) AllNotesOff() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.push(command{kind: commandAllNotesOff})
}

// AllSoundOff silences every voice and effect tail at once.
func (e *Engine) AllSoundOff() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.push(command{kind: commandAllSoundOff})
}

// SetParam sets one parameter. Unknown names are ignored. Values out of
// range are clamped; values that cannot be converted are reported and
// not applied.
func (e *Engine) SetParam(name string, value interface{}) error {
	return e.SetParams(map[string]interface{}{name: value})
}

// SetParams applies values as one batch. The audio thread sees all of them
// in the same block.
func (e *Engine) SetParams(values map[string]interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cmds := e.pending[:0]
	var errs []error
	for name, value := range values {
		id, ok := lookupParam(name)
		if !ok {
			e.log.WithField("name", name).Debug("unknown parameter ignored")
			continue
		}
		v, err := paramDefs[id].coerce(value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		e.params[id] = v
		cmds = append(cmds, command{kind: commandSetParam, id: id, value: v})
	}
	e.pending = cmds
	if len(cmds) > 0 {
		e.push(cmds...)
		e.afterParams()
	}
	return errors.Join(errs...)
}

// GetParams returns a copy of the current parameter values.
func (e *Engine) GetParams() map[string]interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.snapshot()
}

// ApplyJSON sets every parameter found in a JSON object.
func (e *Engine) ApplyJSON(data []byte) error {
	var values map[string]interface{}
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	return e.SetParams(values)
}

// ToJSON returns the current parameters as a JSON object.
func (e *Engine) ToJSON() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params.toJSON()
}

// Spectrum returns magnitudes in dB of the latest output, fftSize/2 bins.
func (e *Engine) Spectrum() []float64 {
	return e.meter.spectrumTo(nil)
}

func (e *Engine) Level() Level {
	return e.meter.level()
}

// ActiveVoices is the number of sounding voices after the last block.
func (e *Engine) ActiveVoices() int {
	return int(e.activeVoices.Load())
}

// Dropped counts note-on commands lost to a full queue.
func (e *Engine) Dropped() uint64 {
	return e.dropped.Load()
}

// WaitIR blocks until the latest requested impulse response has been
// installed or has failed. Offline renders call it before pulling audio.
// It may run alongside SetParams.
func (e *Engine) WaitIR() {
	e.longReverb.wait()
}

// Close stops impulse response generation. Read returns io.EOF afterwards.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.mu.Lock()
	if e.retry != nil {
		e.retry.Stop()
	}
	e.mu.Unlock()
	e.longReverb.close()
	e.log.Debug("engine closed")
	return nil
}

// push must be called with mu held. Commands that could not be queued
// earlier go first. When the queue is full, note-ons are dropped and the
// rest waits in the backlog, which is retried until the audio side has
// made room.
func (e *Engine) push(cmds ...command) {
	if len(e.backlog) > 0 {
		e.backlog = append(e.backlog, cmds...)
		cmds = e.backlog
	}
	if e.queue.pushAll(cmds) {
		e.backlog = e.backlog[:0]
		return
	}
	rest := make([]command, 0, len(cmds))
	for _, c := range cmds {
		if c.kind != commandNoteOn {
			rest = append(rest, c)
		}
	}
	lost := len(cmds) - len(rest)
	n := e.queue.pushSome(rest)
	e.backlog = append(e.backlog[:0], rest[n:]...)
	if lost > 0 {
		e.dropped.Add(uint64(lost))
	}
	e.scheduleRetry()
	e.log.WithFields(logrus.Fields{
		"dropped": lost,
		"waiting": len(e.backlog),
	}).Warn("command queue is full")
}

// scheduleRetry arms the backlog timer. Called with mu held.
func (e *Engine) scheduleRetry() {
	if len(e.backlog) == 0 || e.closed.Load() {
		return
	}
	if e.retry == nil {
		e.retry = time.AfterFunc(backlogRetry, e.flushBacklog)
		return
	}
	e.retry.Reset(backlogRetry)
}

// flushBacklog queues as much of the backlog as fits and tries again later
// for the rest.
func (e *Engine) flushBacklog() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.backlog) == 0 {
		return
	}
	n := e.queue.pushSome(e.backlog)
	e.backlog = append(e.backlog[:0], e.backlog[n:]...)
	e.scheduleRetry()
}

// afterParams starts impulse response rebuilds. Called with mu held.
func (e *Engine) afterParams() {
	if e.closed.Load() {
		return
	}
	if e.params.getFloat(paramReverbDecay) != e.reverbDecay {
		if err := e.rebuildReverb(); err != nil {
			e.log.WithError(err).Error("failed to rebuild reverb")
		}
	}
	if e.params.getBool(paramLongReverbEnabled) {
		e.longReverb.request(e.longReverb.irConfig(e.params))
	}
}

// rebuildReverb builds the short reverb kernel synchronously. On failure the
// previous kernel stays installed.
func (e *Engine) rebuildReverb() error {
	decay := e.params.getFloat(paramReverbDecay)
	k, err := buildReverbKernel(e.config.SampleRate, decay, e.config.Seed)
	if err != nil {
		return fmt.Errorf("reverb kernel: %w", err)
	}
	e.reverb.conv.install(k)
	e.reverbDecay = decay
	e.log.WithField("decay", decay).Debug("reverb kernel installed")
	return nil
}

// ----- Audio Side ----- //

func (e *Engine) handleCommand(c *command) {
	switch c.kind {
	case commandNoteOn:
		e.voices.noteOn(c.note, c.velocity, e.audioParams)
	case commandNoteOff:
		e.voices.noteOff(c.note)
	case commandAllNotesOff:
		e.voices.allNotesOff()
	case commandAllSoundOff:
		e.voices.allSoundOff()
		e.chorus.reset()
		e.reverb.reset()
		e.longReverb.reset()
		e.eq.reset()
	case commandSetParam:
		e.audioParams[c.id] = c.value
		e.dirty = true
	}
}

func (e *Engine) applyParams() {
	p := e.audioParams
	e.voices.applyParams(p)
	e.chorus.applyParams(p)
	e.reverb.applyParams(p)
	e.longReverb.applyParams(p)
	e.eq.applyParams(p)
	e.master.linear(rampTime, p.getFloat(paramMasterVolume))
}

func (e *Engine) renderBlock() {
	e.queue.drain(e.handle)
	if e.dirty {
		e.applyParams()
		e.dirty = false
	}
	outL, outR := e.bufL, e.bufR
	for i := range outL {
		outL[i] = 0
		outR[i] = 0
	}
	e.voices.render(outL, outR)
	e.activeVoices.Store(int32(e.voices.count()))
	e.chorus.process(outL, outR)
	e.reverb.process(outL, outR)
	e.longReverb.process(outL, outR)
	e.eq.process(outL, outR)
	for i := range outL {
		g := e.master.step()
		outL[i] = softClip(outL[i] * g)
		outR[i] = softClip(outR[i] * g)
	}
	e.meter.write(outL, outR)
	for i := range outL {
		e.carry[2*i] = float32(outL[i])
		e.carry[2*i+1] = float32(outR[i])
	}
}

// Process fills out with interleaved stereo samples. Any length is allowed;
// audio is rendered in fixed blocks and the remainder is kept for the next
// call.
func (e *Engine) Process(out []float32) {
	for len(out) > 0 {
		if e.carryPos == len(e.carry) {
			e.renderBlock()
			e.carryPos = 0
		}
		n := copy(out, e.carry[e.carryPos:])
		e.carryPos += n
		out = out[n:]
	}
}

// Read renders 16 bit little endian interleaved stereo, so the engine can
// be used as an io.Reader by an output device.
func (e *Engine) Read(buf []byte) (int, error) {
	if e.closed.Load() {
		return 0, io.EOF
	}
	frames := len(buf) / bytesPerFrame
	samples := frames * channelNum
	if cap(e.readBuf) < samples {
		e.readBuf = make([]float32, samples)
	}
	out := e.readBuf[:samples]
	e.Process(out)
	writeBuffer(out, buf)
	return frames * bytesPerFrame, nil
}

func writeBuffer(in []float32, buf []byte) {
	const max = 32767
	for i, value := range in {
		b := int16(clamp(float64(value), -1, 1) * max)
		buf[bitDepthInBytes*i] = byte(b)
		buf[bitDepthInBytes*i+1] = byte(b >> 8)
	}
}

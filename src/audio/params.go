package audio

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ----- Param Kind ----- //

const (
	kindFloat = iota
	kindEnum
	kindBool
)

// ----- Param ID ----- //

type paramID int

const (
	paramOsc1Wave paramID = iota
	paramOsc1Level
	paramOsc1Octave
	paramOsc1Semitone
	paramOsc1Cents
	paramOsc2Wave
	paramOsc2Level
	paramOsc2Octave
	paramOsc2Semitone
	paramOsc2Cents
	paramOsc3Wave
	paramOsc3Level
	paramOsc3Octave
	paramOsc3Semitone
	paramOsc3Cents
	paramNoiseType
	paramNoiseLevel
	paramFilterType
	paramFilterCutoff
	paramFilterResonance
	paramFilterDrive
	paramFilterEnvAmount
	paramFilterKeyTrack
	paramAmpAttack
	paramAmpDecay
	paramAmpSustain
	paramAmpRelease
	paramFilterAttack
	paramFilterDecay
	paramFilterSustain
	paramFilterRelease
	paramLfo1Wave
	paramLfo1Rate
	paramLfo1Depth
	paramLfo1Target
	paramLfo2Wave
	paramLfo2Rate
	paramLfo2Depth
	paramLfo2Target
	paramVoicePan
	paramVoicePolyphony
	paramVelocitySens
	paramMasterVolume
	paramChorusEnabled
	paramChorusRate
	paramChorusDepth
	paramChorusMix
	paramReverbEnabled
	paramReverbDecay
	paramReverbPreDelay
	paramReverbLowCut
	paramReverbHighCut
	paramReverbMix
	paramLongReverbEnabled
	paramLongReverbDecay
	paramLongReverbDamping
	paramLongReverbWidth
	paramLongReverbPreDelay
	paramLongReverbMix
	paramEQLowFreq
	paramEQLowGain
	paramEQHighFreq
	paramEQHighGain
	numParams
)

// per-slot ids, indexed by oscillator or lfo number
var (
	paramOscWave     = [3]paramID{paramOsc1Wave, paramOsc2Wave, paramOsc3Wave}
	paramOscLevel    = [3]paramID{paramOsc1Level, paramOsc2Level, paramOsc3Level}
	paramOscOctave   = [3]paramID{paramOsc1Octave, paramOsc2Octave, paramOsc3Octave}
	paramOscSemitone = [3]paramID{paramOsc1Semitone, paramOsc2Semitone, paramOsc3Semitone}
	paramOscCents    = [3]paramID{paramOsc1Cents, paramOsc2Cents, paramOsc3Cents}
	paramLfoWave     = [2]paramID{paramLfo1Wave, paramLfo2Wave}
	paramLfoRate     = [2]paramID{paramLfo1Rate, paramLfo2Rate}
	paramLfoDepth    = [2]paramID{paramLfo1Depth, paramLfo2Depth}
	paramLfoTarget   = [2]paramID{paramLfo1Target, paramLfo2Target}
)

// ----- Param Table ----- //

type paramDef struct {
	name    string
	kind    int
	min     float64
	max     float64
	def     float64
	integer bool
	enum    []string
}

var paramDefs [numParams]paramDef
var paramIndex = make(map[string]paramID, numParams)

func floatParam(id paramID, name string, lo, hi, def float64) {
	paramDefs[id] = paramDef{name: name, kind: kindFloat, min: lo, max: hi, def: def}
}
func intParam(id paramID, name string, lo, hi, def float64) {
	paramDefs[id] = paramDef{name: name, kind: kindFloat, min: lo, max: hi, def: def, integer: true}
}
func enumParam(id paramID, name string, enum []string, def int) {
	paramDefs[id] = paramDef{name: name, kind: kindEnum, min: 0, max: float64(len(enum) - 1), def: float64(def), enum: enum}
}
func boolParam(id paramID, name string, def bool) {
	d := 0.0
	if def {
		d = 1
	}
	paramDefs[id] = paramDef{name: name, kind: kindBool, min: 0, max: 1, def: d}
}

func init() {
	defaultWaves := [3]int{waveSaw, waveSquare, waveSine}
	defaultLevels := [3]float64{0.8, 0, 0}
	for i := 0; i < 3; i++ {
		prefix := fmt.Sprintf("osc%d.", i+1)
		enumParam(paramOscWave[i], prefix+"wave", waveNames[:waveSampleHold], defaultWaves[i])
		floatParam(paramOscLevel[i], prefix+"level", 0, 1, defaultLevels[i])
		intParam(paramOscOctave[i], prefix+"octave", -3, 3, 0)
		intParam(paramOscSemitone[i], prefix+"semitone", -12, 12, 0)
		floatParam(paramOscCents[i], prefix+"cents", -100, 100, 0)
	}
	enumParam(paramNoiseType, "noise.type", noiseNames, noiseOff)
	floatParam(paramNoiseLevel, "noise.level", 0, 1, 0)

	enumParam(paramFilterType, "filter.type", filterNames, filterLowpass24)
	floatParam(paramFilterCutoff, "filter.cutoff", 20, 20000, 2000)
	floatParam(paramFilterResonance, "filter.resonance", 0, 1, 0.2)
	floatParam(paramFilterDrive, "filter.drive", minDrive, maxDrive, 1)
	floatParam(paramFilterEnvAmount, "filter.envAmount", -10000, 10000, 2000)
	floatParam(paramFilterKeyTrack, "filter.keyTrack", 0, 1, 0.5)

	floatParam(paramAmpAttack, "ampEnv.attack", minStageTime, maxStageTime, 0.01)
	floatParam(paramAmpDecay, "ampEnv.decay", minStageTime, maxStageTime, 0.3)
	floatParam(paramAmpSustain, "ampEnv.sustain", 0, 1, 0.7)
	floatParam(paramAmpRelease, "ampEnv.release", minStageTime, maxStageTime, 0.5)
	floatParam(paramFilterAttack, "filterEnv.attack", minStageTime, maxStageTime, 0.05)
	floatParam(paramFilterDecay, "filterEnv.decay", minStageTime, maxStageTime, 0.5)
	floatParam(paramFilterSustain, "filterEnv.sustain", 0, 1, 0.3)
	floatParam(paramFilterRelease, "filterEnv.release", minStageTime, maxStageTime, 0.8)

	defaultRates := [2]float64{2, 0.5}
	for i := 0; i < 2; i++ {
		prefix := fmt.Sprintf("lfo%d.", i+1)
		enumParam(paramLfoWave[i], prefix+"wave", waveNames, waveSine)
		floatParam(paramLfoRate[i], prefix+"rate", 0.001, 100, defaultRates[i])
		floatParam(paramLfoDepth[i], prefix+"depth", 0, 1, 0)
		enumParam(paramLfoTarget[i], prefix+"target", destinationNames, destNone)
	}

	floatParam(paramVoicePan, "voice.pan", -1, 1, 0)
	intParam(paramVoicePolyphony, "voice.polyphony", 1, maxPoly, 16)
	floatParam(paramVelocitySens, "voice.velocitySens", 0, 1, 1)
	floatParam(paramMasterVolume, "master.volume", 0, 1, 0.8)

	boolParam(paramChorusEnabled, "chorus.enabled", false)
	floatParam(paramChorusRate, "chorus.rate", 0.05, 5, 0.8)
	floatParam(paramChorusDepth, "chorus.depth", 0, 1, 0.5)
	floatParam(paramChorusMix, "chorus.mix", 0, 1, 0.5)

	boolParam(paramReverbEnabled, "reverb.enabled", false)
	floatParam(paramReverbDecay, "reverb.decay", 0.1, 10, 2)
	floatParam(paramReverbPreDelay, "reverb.preDelay", 0, 0.5, 0.02)
	floatParam(paramReverbLowCut, "reverb.lowCut", 20, 2000, 100)
	floatParam(paramReverbHighCut, "reverb.highCut", 1000, 20000, 8000)
	floatParam(paramReverbMix, "reverb.mix", 0, 1, 0.3)

	boolParam(paramLongReverbEnabled, "longReverb.enabled", false)
	floatParam(paramLongReverbDecay, "longReverb.decay", 1, 30, 8)
	floatParam(paramLongReverbDamping, "longReverb.damping", 0, 1, 0.5)
	floatParam(paramLongReverbWidth, "longReverb.width", 0, 1, 0.8)
	floatParam(paramLongReverbPreDelay, "longReverb.preDelay", 0, 1, 0.03)
	floatParam(paramLongReverbMix, "longReverb.mix", 0, 1, 0.4)

	floatParam(paramEQLowFreq, "eq.lowFreq", 20, 1000, 200)
	floatParam(paramEQLowGain, "eq.lowGain", -24, 24, 0)
	floatParam(paramEQHighFreq, "eq.highFreq", 1000, 20000, 6000)
	floatParam(paramEQHighGain, "eq.highGain", -24, 24, 0)

	for id := paramID(0); id < numParams; id++ {
		if paramDefs[id].name == "" {
			panic(fmt.Sprintf("param %d is not registered", id))
		}
		paramIndex[paramDefs[id].name] = id
	}
}

// lookupParam resolves a parameter name once, off the audio thread.
func lookupParam(name string) (paramID, bool) {
	id, ok := paramIndex[name]
	return id, ok
}

// ParamNames lists every known parameter name in sorted order.
func ParamNames() []string {
	names := make([]string, 0, numParams)
	for name := range paramIndex {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// coerce converts a caller supplied value into the internal representation
// of the parameter and clamps it.
func (d *paramDef) coerce(value interface{}) (float64, error) {
	var v float64
	switch d.kind {
	case kindEnum:
		switch x := value.(type) {
		case string:
			for i, name := range d.enum {
				if name == x {
					return float64(i), nil
				}
			}
			n, err := strconv.ParseFloat(x, 64)
			if err != nil {
				return 0, fmt.Errorf("%s: unknown value %q", d.name, x)
			}
			v = math.Round(n)
		default:
			n, err := toFloat(value)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", d.name, err)
			}
			v = math.Round(n)
		}
	case kindBool:
		switch x := value.(type) {
		case bool:
			if x {
				return 1, nil
			}
			return 0, nil
		case string:
			b, err := strconv.ParseBool(strings.ToLower(x))
			if err != nil {
				return 0, fmt.Errorf("%s: %w", d.name, err)
			}
			if b {
				return 1, nil
			}
			return 0, nil
		default:
			n, err := toFloat(value)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", d.name, err)
			}
			if n != 0 {
				return 1, nil
			}
			return 0, nil
		}
	default:
		n, err := toFloat(value)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", d.name, err)
		}
		v = n
		if d.integer {
			v = math.Round(v)
		}
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%s: NaN", d.name)
	}
	return clamp(v, d.min, d.max), nil
}

func toFloat(value interface{}) (float64, error) {
	switch x := value.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("unsupported value type %T", value)
}

// external returns the caller facing value: float64, string or bool.
func (d *paramDef) external(v float64) interface{} {
	switch d.kind {
	case kindEnum:
		i := int(v)
		if i < 0 || i >= len(d.enum) {
			i = int(d.def)
		}
		return d.enum[i]
	case kindBool:
		return v != 0
	}
	return v
}

// ----- Params ----- //

type params [numParams]float64

func newParams() *params {
	p := &params{}
	for id := range p {
		p[id] = paramDefs[id].def
	}
	return p
}

func (p *params) getFloat(id paramID) float64 {
	return p[id]
}
func (p *params) getInt(id paramID) int {
	return int(p[id])
}
func (p *params) getBool(id paramID) bool {
	return p[id] != 0
}

func (p *params) snapshot() map[string]interface{} {
	m := make(map[string]interface{}, numParams)
	for id := range p {
		d := &paramDefs[id]
		m[d.name] = d.external(p[id])
	}
	return m
}

func (p *params) toJSON() json.RawMessage {
	return toRawMessage(p.snapshot())
}

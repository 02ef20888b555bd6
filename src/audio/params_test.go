package audio

import (
	"encoding/json"
	"sort"
	"testing"
)

func TestParamNamesAreSortedAndComplete(t *testing.T) {
	names := ParamNames()
	expectEqual(t, len(names), int(numParams))
	expectEqual(t, sort.StringsAreSorted(names), true)
	for _, name := range names {
		if _, ok := lookupParam(name); !ok {
			t.Errorf("%s does not resolve", name)
		}
	}
}

func TestParamDefaultsAreInRange(t *testing.T) {
	p := newParams()
	for id := range p {
		d := paramDefs[id]
		if p[id] < d.min || p[id] > d.max {
			t.Errorf("%s: default %v outside [%v,%v]", d.name, p[id], d.min, d.max)
		}
	}
}

func TestParamCoerceFloat(t *testing.T) {
	id, ok := lookupParam("filter.cutoff")
	expectEqual(t, ok, true)
	d := &paramDefs[id]
	for _, tc := range []struct {
		in   interface{}
		want float64
	}{
		{1000.0, 1000},
		{500, 500},
		{"250.5", 250.5},
		{json.Number("800"), 800},
		{1e9, 20000},
		{-3, 20},
	} {
		v, err := d.coerce(tc.in)
		expectNoError(t, err)
		expectEqual(t, v, tc.want)
	}
	_, err := d.coerce("loud")
	expectError(t, err)
	_, err = d.coerce([]int{1})
	expectError(t, err)
}

func TestParamCoerceInteger(t *testing.T) {
	d := &paramDefs[paramOsc1Octave]
	v, err := d.coerce(1.6)
	expectNoError(t, err)
	expectEqual(t, v, 2.0)
	v, err = d.coerce(-10)
	expectNoError(t, err)
	expectEqual(t, v, -3.0)
}

func TestParamCoerceEnum(t *testing.T) {
	d := &paramDefs[paramOsc1Wave]
	v, err := d.coerce("square")
	expectNoError(t, err)
	expectEqual(t, v, float64(waveSquare))
	v, err = d.coerce(2)
	expectNoError(t, err)
	expectEqual(t, v, 2.0)
	_, err = d.coerce("banana")
	expectError(t, err)
	expectEqual(t, d.external(float64(waveSquare)), "square")
}

func TestParamCoerceBool(t *testing.T) {
	d := &paramDefs[paramChorusEnabled]
	for in, want := range map[interface{}]float64{
		true:    1,
		false:   0,
		"TRUE":  1,
		"false": 0,
		1:       1,
		0:       0,
	} {
		v, err := d.coerce(in)
		expectNoError(t, err)
		expectEqual(t, v, want)
	}
	_, err := d.coerce("maybe")
	expectError(t, err)
	expectEqual(t, d.external(1), true)
}

func TestParamsSnapshot(t *testing.T) {
	p := newParams()
	p[paramLfo1Target] = destFilter
	m := p.snapshot()
	expectEqual(t, len(m), int(numParams))
	expectEqual(t, m["lfo1.target"], "filter")
	expectEqual(t, m["reverb.enabled"], false)
	expectEqual(t, m["filter.cutoff"], 2000.0)

	var decoded map[string]interface{}
	expectNoError(t, json.Unmarshal(p.toJSON(), &decoded))
	expectEqual(t, decoded["lfo1.target"], "filter")
}

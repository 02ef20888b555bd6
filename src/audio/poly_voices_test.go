package audio

import "testing"

func newTestPolyVoices(limit int) (*polyVoices, *params) {
	p := newParams()
	p[paramVoicePolyphony] = float64(limit)
	pv := newPolyVoices(testSampleRate, maxPoly, 1)
	pv.applyParams(p)
	return pv, p
}

func heldNotes(pv *polyVoices) map[int]bool {
	notes := make(map[int]bool)
	for _, o := range pv.active {
		if o.active {
			notes[o.note] = true
		}
	}
	return notes
}

func TestPolyVoicesStealOldest(t *testing.T) {
	pv, p := newTestPolyVoices(2)
	pv.noteOn(60, 1, p)
	pv.noteOn(62, 1, p)
	pv.noteOn(64, 1, p)
	expectEqual(t, pv.count(), 2)
	expectEqual(t, pv.steals, uint64(1))
	notes := heldNotes(pv)
	if notes[60] || !notes[62] || !notes[64] {
		t.Errorf("the oldest note should be stolen, held %v", notes)
	}
}

func TestPolyVoicesStealReleasingFirst(t *testing.T) {
	pv, p := newTestPolyVoices(2)
	pv.noteOn(60, 1, p)
	pv.noteOn(62, 1, p)
	pv.noteOff(62)
	pv.noteOn(64, 1, p)
	notes := heldNotes(pv)
	if !notes[60] || !notes[64] {
		t.Errorf("a releasing voice should be stolen before a held one, held %v", notes)
	}
}

func TestPolyVoicesRetrigger(t *testing.T) {
	pv, p := newTestPolyVoices(4)
	pv.noteOn(60, 1, p)
	pv.noteOn(60, 0.5, p)
	expectEqual(t, pv.count(), 1)
	expectEqual(t, pv.steals, uint64(0))
	expectEqual(t, pv.active[0].velocity, 0.5)
}

func TestPolyVoicesLowerLimitReleasesOldest(t *testing.T) {
	pv, p := newTestPolyVoices(4)
	for _, note := range []int{60, 62, 64, 65} {
		pv.noteOn(note, 1, p)
	}
	p[paramVoicePolyphony] = 2
	pv.applyParams(p)
	notes := heldNotes(pv)
	expectEqual(t, len(notes), 2)
	if !notes[64] || !notes[65] {
		t.Errorf("the newest notes should stay held, held %v", notes)
	}
}

func TestPolyVoicesRecycle(t *testing.T) {
	pv, p := newTestPolyVoices(8)
	pv.noteOn(60, 1, p)
	pv.noteOn(67, 1, p)
	outL := make([]float64, blockSize)
	outR := make([]float64, blockSize)
	pv.render(outL, outR)
	expectEqual(t, pv.count(), 2)

	pv.allNotesOff()
	blocks := int(p.getFloat(paramAmpRelease)*testSampleRate)/blockSize + 1
	for i := 0; i < blocks; i++ {
		pv.render(outL, outR)
	}
	expectEqual(t, pv.count(), 0)
	expectEqual(t, len(pv.pooled), maxPoly)
}

func TestPolyVoicesAllSoundOff(t *testing.T) {
	pv, p := newTestPolyVoices(8)
	pv.noteOn(60, 1, p)
	pv.noteOn(64, 1, p)
	pv.allSoundOff()
	expectEqual(t, pv.count(), 0)
	outL := make([]float64, blockSize)
	outR := make([]float64, blockSize)
	pv.render(outL, outR)
	expectEqual(t, peak(outL), 0.0)
}

func TestPolyVoicesLimitIsClamped(t *testing.T) {
	pv := newPolyVoices(testSampleRate, 4, 1)
	pv.setLimit(100)
	expectEqual(t, pv.limit, 4)
	pv.setLimit(0)
	expectEqual(t, pv.limit, 1)
}

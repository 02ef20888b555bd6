package audio

import (
	"math/bits"
	"math/rand"
)

// ----- Noise Kind ----- //

const (
	noiseOff = iota
	noiseWhite
	noisePink
	noiseBrown
)

var noiseNames = []string{"off", "white", "pink", "brown"}

// ----- Noise ----- //

const (
	pinkRows     = 16
	pinkGain     = 2.5
	brownLeak    = 0.02
	brownGain    = 5.0
	pinkRowsMask = 1<<pinkRows - 1
)

type noise struct {
	kind    int
	seed    int64
	resets  int64
	rng     *rand.Rand
	rows    [pinkRows]float64
	rowSum  float64
	counter uint32
	brown   float64
}

func newNoise(seed int64) *noise {
	n := &noise{
		kind: noiseOff,
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
	n.fillRows()
	return n
}

func (n *noise) setType(kind int) {
	if kind < noiseOff || kind > noiseBrown {
		return
	}
	n.kind = kind
}

func (n *noise) reset() {
	n.resets++
	n.rng.Seed(n.seed + n.resets*7919)
	n.counter = 0
	n.brown = 0
	n.fillRows()
}

func (n *noise) fillRows() {
	n.rowSum = 0
	for i := range n.rows {
		n.rows[i] = n.white()
		n.rowSum += n.rows[i]
	}
}

func (n *noise) white() float64 {
	return n.rng.Float64()*2 - 1
}

func (n *noise) next() float64 {
	switch n.kind {
	case noiseWhite:
		return n.white()
	case noisePink:
		return n.nextPink()
	case noiseBrown:
		w := n.white()
		n.brown = flush((n.brown + w*brownLeak) / (1 + brownLeak))
		return clamp(n.brown*brownGain, -1, 1)
	}
	return 0
}

// nextPink updates the row picked by the trailing zeros of the counter, so
// row i changes every 2^(i+1) samples.
func (n *noise) nextPink() float64 {
	n.counter = (n.counter + 1) & pinkRowsMask
	if n.counter != 0 {
		i := bits.TrailingZeros32(n.counter)
		v := n.white()
		n.rowSum += v - n.rows[i]
		n.rows[i] = v
	}
	sum := n.rowSum + n.white()
	return clamp(sum/(pinkRows+1)*pinkGain, -1, 1)
}

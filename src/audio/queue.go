package audio

import (
	"sync"
	"sync/atomic"
)

// ----- Command ----- //

const (
	commandNoteOn = iota
	commandNoteOff
	commandAllNotesOff
	commandAllSoundOff
	commandSetParam
)

type command struct {
	kind     int
	note     int
	velocity float64
	id       paramID
	value    float64
}

// ----- Command Queue ----- //

/*
  Many producers, serialized by mu. One consumer: the audio thread.
  The consumer never takes a lock.

  head: next slot to read (consumer)
  tail: next slot to write (producers)
*/
type commandQueue struct {
	mu    sync.Mutex
	slots []command
	mask  uint64
	head  atomic.Uint64
	tail  atomic.Uint64
}

func newCommandQueue(size int) *commandQueue {
	n := 1
	for n < size {
		n <<= 1
	}
	return &commandQueue{
		slots: make([]command, n),
		mask:  uint64(n - 1),
	}
}

func (q *commandQueue) capacity() int {
	return len(q.slots)
}

// push returns false when the queue is full.
func (q *commandQueue) push(c command) bool {
	return q.pushAll([]command{c})
}

// pushAll publishes every command at once or none of them. The consumer
// sees them in the same block.
func (q *commandQueue) pushAll(cs []command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	tail := q.tail.Load()
	free := uint64(len(q.slots)) - (tail - q.head.Load())
	if uint64(len(cs)) > free {
		return false
	}
	for i, c := range cs {
		q.slots[(tail+uint64(i))&q.mask] = c
	}
	q.tail.Store(tail + uint64(len(cs)))
	return true
}

// pushSome queues the longest prefix of cs that fits and returns its length.
func (q *commandQueue) pushSome(cs []command) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	tail := q.tail.Load()
	free := uint64(len(q.slots)) - (tail - q.head.Load())
	n := min(uint64(len(cs)), free)
	for i := uint64(0); i < n; i++ {
		q.slots[(tail+i)&q.mask] = cs[i]
	}
	q.tail.Store(tail + n)
	return int(n)
}

// drain hands every queued command to f in order. Consumer only.
func (q *commandQueue) drain(f func(c *command)) int {
	head := q.head.Load()
	tail := q.tail.Load()
	for i := head; i < tail; i++ {
		f(&q.slots[i&q.mask])
	}
	q.head.Store(tail)
	return int(tail - head)
}

func (q *commandQueue) len() int {
	return int(q.tail.Load() - q.head.Load())
}

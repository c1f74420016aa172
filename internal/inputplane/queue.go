package inputplane

// TurnOffset is the number of turns a player's inputs lead the turn they
// apply to: a client generates inputs for turn T while the simulation is
// still executing turn T-TurnOffset, so that inputs can cross the network
// and be in hand before the simulation needs them (§4.5).
const TurnOffset = 2

// PlayerQueue is one player's ring of per-turn input vectors, grounded on
// original_source/src/container/ring_buffer.h generalized from a raw byte
// ring to a queue of decoded-input slices: the original's ring buffer
// stores serialized bytes, but the turn-boundary semantics (push to the
// tail on receipt, pop from the head on turn advance) are the same shape.
type PlayerQueue struct {
	turns [][]Input
}

// NewPlayerQueue primes the queue with TurnOffset-1 empty NONE turns, so
// the head turn is already available while the owning player produces
// input for the turns still ahead of it.
func NewPlayerQueue() *PlayerQueue {
	q := &PlayerQueue{}
	for i := 0; i < TurnOffset-1; i++ {
		q.turns = append(q.turns, []Input{NoneInput})
	}
	return q
}

// Push appends a newly received turn's inputs to the tail of the queue.
// An empty turn is always represented by at least one NONE input, per
// §4.5, so callers should never push a zero-length slice.
func (q *PlayerQueue) Push(turn []Input) {
	if len(turn) == 0 {
		turn = []Input{NoneInput}
	}
	q.turns = append(q.turns, turn)
}

// HeadReady reports whether a turn is available to consume.
func (q *PlayerQueue) HeadReady() bool {
	return len(q.turns) > 0
}

// Pop removes and returns the head turn. Callers must check HeadReady
// first; Pop on an empty queue returns nil.
func (q *PlayerQueue) Pop() []Input {
	if len(q.turns) == 0 {
		return nil
	}
	head := q.turns[0]
	q.turns = q.turns[1:]
	return head
}

// Pending returns how many turns are queued but not yet consumed.
func (q *PlayerQueue) Pending() int {
	return len(q.turns)
}

package table

import (
	"math/rand/v2"
)

// DefaultMaxID bounds random ids to [0, DefaultMaxID).
const DefaultMaxID = 1000

// IDSource generates identifiers for new rows.
type IDSource interface {
	NextID() int
}

// RandomIDs draws ids uniformly from [0, max). Ids may repeat.
type RandomIDs struct {
	rng *rand.Rand
	max int
}

// NewRandomIDs creates a random id source. A zero seed picks a random seed.
func NewRandomIDs(maxID int, seed uint64) *RandomIDs {
	if maxID <= 0 {
		maxID = DefaultMaxID
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &RandomIDs{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		max: maxID,
	}
}

// NextID returns the next random id.
func (r *RandomIDs) NextID() int {
	return r.rng.IntN(r.max)
}

// SequenceIDs hands out increasing ids starting at a given value.
type SequenceIDs struct {
	next int
}

// NewSequenceIDs creates a sequential id source starting at start.
func NewSequenceIDs(start int) *SequenceIDs {
	return &SequenceIDs{next: start}
}

// NextID returns the next id in sequence.
func (s *SequenceIDs) NextID() int {
	id := s.next
	s.next++
	return id
}

// Skip advances the sequence past every id in rows, so ids stay unique
// after a table is loaded from storage.
func (s *SequenceIDs) Skip(rows []Row) {
	for _, r := range rows {
		if r.ID >= s.next {
			s.next = r.ID + 1
		}
	}
}

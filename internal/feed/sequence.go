package feed

import (
	"errors"
	"math"
	"sync"
)

// MaxPosition is the highest allocatable position. Positions stay within
// the int64 horizon so offsets survive JSON number round-trips.
const MaxPosition = uint64(math.MaxInt64)

// ErrSequenceExhausted is returned when the position space is used up.
// Fatal by contract; operationally unreachable.
var ErrSequenceExhausted = errors.New("feed: position sequence exhausted")

// Sequencer hands out strictly increasing positions. Allocation is
// serialized: concurrent callers never observe the same position twice,
// and allocation order defines the feed's total order.
type Sequencer struct {
	mu   sync.Mutex
	last uint64
}

// NewSequencer creates a Sequencer resuming after the given last position.
func NewSequencer(last uint64) *Sequencer {
	return &Sequencer{last: last}
}

// Next allocates the next position.
func (s *Sequencer) Next() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last >= MaxPosition {
		return 0, ErrSequenceExhausted
	}
	s.last++
	return s.last, nil
}

// Last returns the most recently allocated position (0 if none).
func (s *Sequencer) Last() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

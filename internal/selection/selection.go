// Package selection implements question-set resolution primitives: drawing
// a random subset without replacement and shuffling presentation order.
// Both take an explicit *rand.Rand so callers can seed them for
// reproducible draws in tests.
package selection

import (
	"errors"
	"math/rand"

	"github.com/google/uuid"
)

// ErrInsufficientPool is returned when the candidate pool holds fewer
// questions than the requested subset size. The draw never truncates.
var ErrInsufficientPool = errors.New("candidate pool smaller than requested subset")

// Subset draws n unique question ids from pool without replacement. The
// input slice is not modified. Each call with an independent rng state
// yields an independent draw, which is what makes per-student random
// subsets possible.
func Subset(rng *rand.Rand, pool []uuid.UUID, n int) ([]uuid.UUID, error) {
	if n > len(pool) {
		return nil, ErrInsufficientPool
	}
	out := append([]uuid.UUID(nil), pool...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out[:n], nil
}

// Shuffle returns a shuffled copy of ids.
func Shuffle(rng *rand.Rand, ids []uuid.UUID) []uuid.UUID {
	out := append([]uuid.UUID(nil), ids...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

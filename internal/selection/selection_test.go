package selection

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
)

func newPool(n int) []uuid.UUID {
	pool := make([]uuid.UUID, n)
	for i := range pool {
		pool[i] = uuid.New()
	}
	return pool
}

func TestSubsetDrawsWithoutReplacement(t *testing.T) {
	pool := newPool(10)
	rng := rand.New(rand.NewSource(42))

	got, err := Subset(rng, pool, 5)
	if err != nil {
		t.Fatalf("Subset() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Subset() returned %d ids, want 5", len(got))
	}

	poolSet := make(map[uuid.UUID]struct{}, len(pool))
	for _, id := range pool {
		poolSet[id] = struct{}{}
	}
	seen := make(map[uuid.UUID]struct{}, len(got))
	for _, id := range got {
		if _, ok := poolSet[id]; !ok {
			t.Errorf("Subset() returned id %s not in pool", id)
		}
		if _, dup := seen[id]; dup {
			t.Errorf("Subset() returned duplicate id %s", id)
		}
		seen[id] = struct{}{}
	}
}

func TestSubsetInsufficientPool(t *testing.T) {
	pool := newPool(3)
	rng := rand.New(rand.NewSource(1))

	if _, err := Subset(rng, pool, 5); !errors.Is(err, ErrInsufficientPool) {
		t.Fatalf("Subset() error = %v, want ErrInsufficientPool", err)
	}
}

func TestSubsetExactPoolSize(t *testing.T) {
	pool := newPool(4)
	rng := rand.New(rand.NewSource(7))

	got, err := Subset(rng, pool, 4)
	if err != nil {
		t.Fatalf("Subset() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("Subset() returned %d ids, want 4", len(got))
	}
}

func TestSubsetReproducibleWithFixedSeed(t *testing.T) {
	pool := newPool(20)

	a, err := Subset(rand.New(rand.NewSource(99)), pool, 6)
	if err != nil {
		t.Fatalf("Subset() error = %v", err)
	}
	b, err := Subset(rand.New(rand.NewSource(99)), pool, 6)
	if err != nil {
		t.Fatalf("Subset() error = %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different draws at index %d: %s vs %s", i, a[i], b[i])
		}
	}
}

func TestSubsetDoesNotModifyPool(t *testing.T) {
	pool := newPool(8)
	before := append([]uuid.UUID(nil), pool...)

	if _, err := Subset(rand.New(rand.NewSource(3)), pool, 4); err != nil {
		t.Fatalf("Subset() error = %v", err)
	}

	for i := range pool {
		if pool[i] != before[i] {
			t.Fatalf("pool modified at index %d", i)
		}
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	ids := newPool(12)
	got := Shuffle(rand.New(rand.NewSource(5)), ids)

	if len(got) != len(ids) {
		t.Fatalf("Shuffle() returned %d ids, want %d", len(got), len(ids))
	}

	counts := make(map[uuid.UUID]int)
	for _, id := range ids {
		counts[id]++
	}
	for _, id := range got {
		counts[id]--
	}
	for id, n := range counts {
		if n != 0 {
			t.Fatalf("Shuffle() is not a permutation: id %s count off by %d", id, n)
		}
	}
}

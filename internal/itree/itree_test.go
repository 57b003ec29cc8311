package itree

import (
	"math/rand"
	"testing"
)

func TestInsertGet(t *testing.T) {
	tr := New()
	tr = Insert(tr, 10, "ten")
	tr = Insert(tr, 5, "five")
	tr = Insert(tr, 15, "fifteen")

	if v, ok := Get(tr, 5); !ok || v != "five" {
		t.Fatalf("Get(5) = %v, %v", v, ok)
	}
	if _, ok := Get(tr, 999); ok {
		t.Fatalf("Get(999) unexpectedly found")
	}
	if !CheckInvariant(tr) {
		t.Fatalf("AVL invariant violated")
	}
}

func TestInsertNoOpOnDuplicate(t *testing.T) {
	tr := New()
	tr = Insert(tr, 1, "a")
	tr = Insert(tr, 1, "b")
	v, _ := Get(tr, 1)
	if v != "a" {
		t.Fatalf("duplicate insert overwrote value: got %v", v)
	}
	if Size(tr) != 1 {
		t.Fatalf("Size = %d, want 1", Size(tr))
	}
}

func TestBalanceUnderSequentialInsert(t *testing.T) {
	tr := New()
	for i := uint32(0); i < 1000; i++ {
		tr = Insert(tr, i, i)
		if !CheckInvariant(tr) {
			t.Fatalf("AVL invariant violated after inserting %d", i)
		}
	}
	if Size(tr) != 1000 {
		t.Fatalf("Size = %d, want 1000", Size(tr))
	}
}

func TestRoundTripRandomPermutation(t *testing.T) {
	ids := make([]uint32, 200)
	for i := range ids {
		ids[i] = uint32(i)
	}
	rnd := rand.New(rand.NewSource(1))
	rnd.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	tr := New()
	for _, id := range ids {
		tr = Insert(tr, id, id)
		if !CheckInvariant(tr) {
			t.Fatalf("AVL invariant violated inserting %d", id)
		}
	}

	for i := len(ids) - 1; i >= 0; i-- {
		tr = Remove(tr, ids[i])
		if !CheckInvariant(tr) {
			t.Fatalf("AVL invariant violated removing %d", ids[i])
		}
	}

	if Size(tr) != 0 {
		t.Fatalf("Size = %d, want 0 after round trip", Size(tr))
	}
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	tr := New()
	tr = Insert(tr, 1, "a")
	tr = Remove(tr, 2)
	if Size(tr) != 1 {
		t.Fatalf("Size = %d, want 1", Size(tr))
	}
}

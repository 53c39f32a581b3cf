package book

import (
	"math/rand"
	"testing"
)

func TestTreeInsertFindDelete(t *testing.T) {
	tr := newLevelTree()
	l1 := tr.getOrCreate(100)
	if l1 == nil {
		t.Fatal("getOrCreate returned nil")
	}
	if l2 := tr.find(100); l2 != l1 {
		t.Error("find did not return the same level")
	}

	tr.getOrCreate(200)
	if tr.min().price != 100 {
		t.Error("expected min=100")
	}
	if tr.max().price != 200 {
		t.Error("expected max=200")
	}

	if !tr.delete(100) {
		t.Error("delete failed")
	}
	if tr.find(100) != nil {
		t.Error("expected level 100 to be gone")
	}
}

func TestTreeDeleteNonExistent(t *testing.T) {
	tr := newLevelTree()
	if tr.delete(123) {
		t.Error("expected false when deleting a missing price")
	}
}

func TestTreeEmptyMinMax(t *testing.T) {
	tr := newLevelTree()
	if tr.min() != nil || tr.max() != nil {
		t.Error("expected nil min/max on empty tree")
	}
}

func TestTreeGetOrCreateDuplicate(t *testing.T) {
	tr := newLevelTree()
	l1 := tr.getOrCreate(150)
	l2 := tr.getOrCreate(150)
	if l1 != l2 {
		t.Error("duplicate price must return the existing level")
	}
	if tr.len() != 1 {
		t.Errorf("len = %d, want 1", tr.len())
	}
}

func TestTreeOrderedWalks(t *testing.T) {
	tr := newLevelTree()
	prices := []int64{50, 10, 90, 30, 70, 20, 80}
	for _, p := range prices {
		tr.getOrCreate(p)
	}

	var asc []int64
	tr.ascend(func(l *priceLevel) bool {
		asc = append(asc, l.price)
		return true
	})
	for i := 1; i < len(asc); i++ {
		if asc[i-1] >= asc[i] {
			t.Fatalf("ascend out of order: %v", asc)
		}
	}

	var desc []int64
	tr.descend(func(l *priceLevel) bool {
		desc = append(desc, l.price)
		return true
	})
	for i := 1; i < len(desc); i++ {
		if desc[i-1] <= desc[i] {
			t.Fatalf("descend out of order: %v", desc)
		}
	}

	// early stop
	n := 0
	tr.ascend(func(l *priceLevel) bool {
		n++
		return n < 3
	})
	if n != 3 {
		t.Errorf("ascend visited %d levels after early stop, want 3", n)
	}
}

// Deleting a black leaf whose sibling has an inner red child forces
// the rotation-around-sibling rebalance path on the right-child side.
func TestTreeDeleteInnerRedSibling(t *testing.T) {
	tr := newLevelTree()
	for _, p := range []int64{10, 5, 15, 7} {
		tr.getOrCreate(p)
	}

	if !tr.delete(15) {
		t.Fatal("delete(15) failed")
	}

	if tr.len() != 3 {
		t.Fatalf("len = %d, want 3", tr.len())
	}
	if tr.min().price != 5 || tr.max().price != 10 {
		t.Errorf("min/max = %d/%d, want 5/10", tr.min().price, tr.max().price)
	}
	var got []int64
	tr.ascend(func(l *priceLevel) bool {
		got = append(got, l.price)
		return true
	})
	want := []int64{5, 7, 10}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("ascend = %v, want %v", got, want)
		}
	}

	// and the symmetric shape, deleting from the left
	tr2 := newLevelTree()
	for _, p := range []int64{10, 5, 15, 12} {
		tr2.getOrCreate(p)
	}
	if !tr2.delete(5) {
		t.Fatal("delete(5) failed")
	}
	if tr2.min().price != 10 || tr2.max().price != 15 {
		t.Errorf("min/max = %d/%d, want 10/15", tr2.min().price, tr2.max().price)
	}
}

func TestTreeRandomChurn(t *testing.T) {
	tr := newLevelTree()
	rng := rand.New(rand.NewSource(1))
	live := map[int64]bool{}

	for i := 0; i < 5000; i++ {
		p := int64(rng.Intn(500))
		if live[p] {
			if !tr.delete(p) {
				t.Fatalf("delete(%d) failed for live price", p)
			}
			delete(live, p)
		} else {
			tr.getOrCreate(p)
			live[p] = true
		}
	}

	if tr.len() != len(live) {
		t.Fatalf("len = %d, want %d", tr.len(), len(live))
	}
	var prev int64 = -1
	count := 0
	tr.ascend(func(l *priceLevel) bool {
		if l.price <= prev {
			t.Fatalf("order violated at %d after churn", l.price)
		}
		if !live[l.price] {
			t.Fatalf("price %d should not be present", l.price)
		}
		prev = l.price
		count++
		return true
	})
	if count != len(live) {
		t.Fatalf("walk visited %d, want %d", count, len(live))
	}
}

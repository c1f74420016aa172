package entity

import (
	"testing"

	"pgregory.net/rapid"
)

// TestIdArrayIndexIDBijection is the §8 universal property:
// IdArray.get_index_of(IdArray.get_id_of(i)) == i for every valid index i
// after any sequence of push_back and remove_at.
func TestIdArrayIndexIDBijection(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		arr := NewIdArray[int]()
		var live []ID

		ops := rapid.SliceOfN(rapid.IntRange(0, 1), 1, 60).Draw(t, "ops")
		for i, op := range ops {
			if op == 0 || len(live) == 0 {
				id := arr.PushBack(i)
				live = append(live, id)
			} else {
				pick := rapid.IntRange(0, len(live)-1).Draw(t, "pick")
				id := live[pick]
				idx := arr.IndexOf(id)
				if HasIndex(idx) {
					arr.RemoveAt(idx)
				}
				live = append(live[:pick], live[pick+1:]...)
			}

			for idx := 0; idx < arr.Len(); idx++ {
				id := arr.IDOf(uint32(idx))
				if got := arr.IndexOf(id); got != uint32(idx) {
					t.Fatalf("IndexOf(IDOf(%d)) = %d, want %d", idx, got, idx)
				}
			}
		}
	})
}

func TestIdArrayPushBackRemoveAt(t *testing.T) {
	arr := NewIdArray[string]()
	a := arr.PushBack("a")
	b := arr.PushBack("b")
	c := arr.PushBack("c")

	if arr.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", arr.Len())
	}

	arr.RemoveAt(arr.IndexOf(b))
	if arr.Has(b) {
		t.Errorf("b should have been removed")
	}
	if !arr.Has(a) || !arr.Has(c) {
		t.Errorf("a and c should still be present")
	}
	if got := *arr.GetByID(c); got != "c" {
		t.Errorf("GetByID(c) = %q, want \"c\"", got)
	}
}

func TestIdArrayRecyclesIDs(t *testing.T) {
	arr := NewIdArray[int]()
	a := arr.PushBack(1)
	arr.RemoveAt(arr.IndexOf(a))
	b := arr.PushBack(2)
	if b != a {
		t.Errorf("expected id %d to be recycled, got %d", a, b)
	}
}

func TestIdArrayIDsAscending(t *testing.T) {
	arr := NewIdArray[int]()
	arr.PushBack(1)
	second := arr.PushBack(2)
	arr.PushBack(3)
	arr.RemoveAt(arr.IndexOf(second))
	arr.PushBack(4)

	ids := arr.IDsAscending()
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("IDsAscending() not sorted: %v", ids)
		}
	}
}

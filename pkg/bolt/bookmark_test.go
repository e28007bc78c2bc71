package bolt

import "testing"

func TestBookmarkSetDedupesAndPreservesOrder(t *testing.T) {
	bs := NewBookmarkSet("bm-1", "bm-2")
	bs.Add("bm-2", "bm-3", "")

	got := bs.All()
	want := []string{"bm-1", "bm-2", "bm-3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FirstTransfer(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if got := bd.Check(WindowStats{WindowEndTick: 100, RightCount: 1000}); hasBookmark(got, BookmarkFirstTransfer) {
		t.Error("no transfers yet, expected no first_transfer bookmark")
	}

	got := bd.Check(WindowStats{WindowEndTick: 200, RightCount: 990, LeftCount: 10, Transfers: 10})
	if !hasBookmark(got, BookmarkFirstTransfer) {
		t.Error("expected first_transfer bookmark")
	}

	// Only the first transfer is bookmarked
	got = bd.Check(WindowStats{WindowEndTick: 300, RightCount: 980, LeftCount: 20, Transfers: 10})
	if hasBookmark(got, BookmarkFirstTransfer) {
		t.Error("first_transfer should trigger once")
	}
}

func TestBookmarkDetector_Balanced(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if got := bd.Check(WindowStats{LeftCount: 300, RightCount: 700}); hasBookmark(got, BookmarkBalanced) {
		t.Error("300/700 is not balanced")
	}

	got := bd.Check(WindowStats{WindowEndTick: 500, LeftCount: 490, RightCount: 510})
	if !hasBookmark(got, BookmarkBalanced) {
		t.Error("expected balanced bookmark for 490/510")
	}

	if got := bd.Check(WindowStats{LeftCount: 500, RightCount: 500}); hasBookmark(got, BookmarkBalanced) {
		t.Error("balanced should trigger once")
	}
}

func TestBookmarkDetector_NeighborSpike(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 100), NeighborMean: 20})
	}

	got := bd.Check(WindowStats{WindowEndTick: 600, NeighborMean: 55})
	if !hasBookmark(got, BookmarkNeighborSpike) {
		t.Error("expected neighbor_spike bookmark")
	}

	if got := bd.Check(WindowStats{WindowEndTick: 700, NeighborMean: 25}); hasBookmark(got, BookmarkNeighborSpike) {
		t.Error("25 is below twice the rolling average")
	}
}

func TestBookmarkDetector_Settled(t *testing.T) {
	bd := NewBookmarkDetector(10)

	bd.Check(WindowStats{WindowEndTick: 0, KineticEnergy: 100})

	triggered := 0
	for i := 1; i <= 10; i++ {
		got := bd.Check(WindowStats{WindowEndTick: int32(i * 100), KineticEnergy: 0.5})
		if hasBookmark(got, BookmarkSettled) {
			triggered++
			if i != 5 {
				t.Errorf("settled triggered at window %d, want 5", i)
			}
		}
	}
	if triggered != 1 {
		t.Errorf("settled triggered %d times, want 1", triggered)
	}
}

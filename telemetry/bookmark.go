package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFirstTransfer BookmarkType = "first_transfer"
	BookmarkBalanced      BookmarkType = "balanced"
	BookmarkNeighborSpike BookmarkType = "neighbor_spike"
	BookmarkSettled       BookmarkType = "settled"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	transferSeen        bool
	balancedSeen        bool
	peakKinetic         float64 // highest kinetic energy seen so far
	settledWindowsCount int     // consecutive windows below the settle threshold
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for settle detection
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkFirstTransfer(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkBalanced(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkNeighborSpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSettled(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkFirstTransfer(stats WindowStats) *Bookmark {
	if bd.transferSeen || stats.Transfers == 0 {
		return nil
	}
	bd.transferSeen = true

	return &Bookmark{
		Type:        BookmarkFirstTransfer,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d particles changed domain (left %d, right %d)", stats.Transfers, stats.LeftCount, stats.RightCount),
	}
}

func (bd *BookmarkDetector) checkBalanced(stats WindowStats) *Bookmark {
	total := stats.LeftCount + stats.RightCount
	if bd.balancedSeen || total == 0 {
		return nil
	}

	diff := stats.LeftCount - stats.RightCount
	if diff < 0 {
		diff = -diff
	}
	if float64(diff) > 0.05*float64(total) {
		return nil
	}
	bd.balancedSeen = true

	return &Bookmark{
		Type:        BookmarkBalanced,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Domains within 5%%: left %d, right %d", stats.LeftCount, stats.RightCount),
	}
}

func (bd *BookmarkDetector) checkNeighborSpike(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.NeighborMean
	}
	avg := total / float64(len(history))
	if avg == 0 {
		return nil
	}

	if stats.NeighborMean > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkNeighborSpike,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Mean candidates %.1f is %.1fx average (%.1f)", stats.NeighborMean, stats.NeighborMean/avg, avg),
		}
	}

	return nil
}

func (bd *BookmarkDetector) checkSettled(stats WindowStats) *Bookmark {
	if stats.KineticEnergy > bd.peakKinetic {
		bd.peakKinetic = stats.KineticEnergy
	}
	if bd.peakKinetic == 0 {
		return nil
	}

	if stats.KineticEnergy < 0.01*bd.peakKinetic {
		bd.settledWindowsCount++
	} else {
		bd.settledWindowsCount = 0
	}

	if bd.settledWindowsCount == 5 { // trigger exactly once at 5 windows
		return &Bookmark{
			Type:        BookmarkSettled,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Kinetic energy %.3g below 1%% of peak %.3g for 5 windows", stats.KineticEnergy, bd.peakKinetic),
		}
	}

	return nil
}

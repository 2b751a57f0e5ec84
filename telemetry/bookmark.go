package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/crush/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFirstCollapse BookmarkType = "first_collapse"
	BookmarkCollapseSurge BookmarkType = "collapse_surge"
	BookmarkHeatWave      BookmarkType = "heat_wave"
	BookmarkGridlock      BookmarkType = "gridlock"
	BookmarkSteadyFlow    BookmarkType = "steady_flow"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	SimTimeSec  float64      `csv:"sim_time"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"sim_time", b.SimTimeSec,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable moments in a crowd run.
type BookmarkDetector struct {
	th config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	sawCollapse   bool
	inHeatWave    bool
	inGridlock    bool
	steadyWindows int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, th config.BookmarksConfig) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3
	}
	return &BookmarkDetector{
		th:          th,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	for _, check := range []func(WindowStats) *Bookmark{
		bd.checkFirstCollapse,
		bd.checkCollapseSurge,
		bd.checkHeatWave,
		bd.checkGridlock,
		bd.checkSteadyFlow,
	} {
		if b := check(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
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

func newBookmark(t BookmarkType, stats WindowStats, format string, args ...any) *Bookmark {
	return &Bookmark{
		Type:        t,
		Tick:        stats.WindowEndTick,
		SimTimeSec:  stats.SimTimeSec,
		Description: fmt.Sprintf(format, args...),
	}
}

func (bd *BookmarkDetector) checkFirstCollapse(stats WindowStats) *Bookmark {
	if bd.sawCollapse || stats.Collapses() == 0 {
		return nil
	}
	bd.sawCollapse = true
	return newBookmark(BookmarkFirstCollapse, stats,
		"First collapse: %d collision, %d heat", stats.Collisions, stats.HeatCollapses)
}

func (bd *BookmarkDetector) checkCollapseSurge(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 || stats.Collapses() < bd.th.CollapseSurgeMin {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.Collapses()
	}
	avg := float64(total) / float64(len(history))

	// A quiet history makes any burst of CollapseSurgeMin a surge.
	if avg > 0 && float64(stats.Collapses()) <= avg*bd.th.CollapseSurgeFactor {
		return nil
	}
	return newBookmark(BookmarkCollapseSurge, stats,
		"%d collapses against a rolling average of %.1f", stats.Collapses(), avg)
}

func (bd *BookmarkDetector) checkHeatWave(stats WindowStats) *Bookmark {
	hot := stats.Active > 0 && stats.HeatStressMean >= bd.th.HeatWaveStress
	if !hot {
		bd.inHeatWave = false
		return nil
	}
	if bd.inHeatWave {
		return nil
	}
	bd.inHeatWave = true
	return newBookmark(BookmarkHeatWave, stats,
		"Mean heat stress %.1f across %d agents (mean temp %.1f)", stats.HeatStressMean, stats.Active, stats.TempMean)
}

func (bd *BookmarkDetector) checkGridlock(stats WindowStats) *Bookmark {
	stuck := stats.Active >= bd.th.GridlockMinAgents && stats.SpeedMean < bd.th.GridlockSpeed
	if !stuck {
		bd.inGridlock = false
		return nil
	}
	if bd.inGridlock {
		return nil
	}
	bd.inGridlock = true
	return newBookmark(BookmarkGridlock, stats,
		"%d agents moving at %.2f m/s on average", stats.Active, stats.SpeedMean)
}

func (bd *BookmarkDetector) checkSteadyFlow(stats WindowStats) *Bookmark {
	if stats.Collapses() > 0 || stats.Arrivals < bd.th.SteadyFlowMinArrived {
		bd.steadyWindows = 0
		return nil
	}
	bd.steadyWindows++

	// Trigger exactly once per streak.
	if bd.steadyWindows != bd.th.SteadyFlowWindows {
		return nil
	}
	return newBookmark(BookmarkSteadyFlow, stats,
		"%d windows of arrivals without collapse", bd.steadyWindows)
}

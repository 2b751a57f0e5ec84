package telemetry

import (
	"testing"

	"github.com/pthm-cable/crush/config"
)

func testThresholds() config.BookmarksConfig {
	return config.BookmarksConfig{
		CollapseSurgeFactor:  3,
		CollapseSurgeMin:     3,
		HeatWaveStress:       5,
		GridlockSpeed:        0.2,
		GridlockMinAgents:    10,
		SteadyFlowWindows:    3,
		SteadyFlowMinArrived: 5,
	}
}

func hasBookmark(bookmarks []Bookmark, t BookmarkType) bool {
	for _, b := range bookmarks {
		if b.Type == t {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FirstCollapse(t *testing.T) {
	bd := NewBookmarkDetector(10, testThresholds())

	if got := bd.Check(WindowStats{WindowEndTick: 200, Active: 20}); hasBookmark(got, BookmarkFirstCollapse) {
		t.Fatal("first_collapse before any collapse")
	}
	got := bd.Check(WindowStats{WindowEndTick: 400, Collisions: 1})
	if !hasBookmark(got, BookmarkFirstCollapse) {
		t.Fatal("expected first_collapse bookmark")
	}
	if got[0].Tick != 400 {
		t.Errorf("tick = %d, want 400", got[0].Tick)
	}
	if got := bd.Check(WindowStats{WindowEndTick: 600, HeatCollapses: 2}); hasBookmark(got, BookmarkFirstCollapse) {
		t.Error("first_collapse fired twice")
	}
}

func TestBookmarkDetector_CollapseSurge(t *testing.T) {
	bd := NewBookmarkDetector(10, testThresholds())

	for i := 0; i < 4; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 200), Collisions: 1})
	}

	if got := bd.Check(WindowStats{WindowEndTick: 1000, Collisions: 2}); hasBookmark(got, BookmarkCollapseSurge) {
		t.Error("surge below collapse_surge_min")
	}
	if got := bd.Check(WindowStats{WindowEndTick: 1200, Collisions: 4, HeatCollapses: 2}); !hasBookmark(got, BookmarkCollapseSurge) {
		t.Error("expected collapse_surge bookmark")
	}
}

func TestBookmarkDetector_HeatWaveEdgeTriggered(t *testing.T) {
	bd := NewBookmarkDetector(10, testThresholds())

	hot := WindowStats{Active: 20, HeatStressMean: 6, TempMean: 38}
	if got := bd.Check(hot); !hasBookmark(got, BookmarkHeatWave) {
		t.Fatal("expected heat_wave bookmark")
	}
	if got := bd.Check(hot); hasBookmark(got, BookmarkHeatWave) {
		t.Error("heat_wave fired again while still hot")
	}
	bd.Check(WindowStats{Active: 20, HeatStressMean: 1})
	if got := bd.Check(hot); !hasBookmark(got, BookmarkHeatWave) {
		t.Error("heat_wave did not re-arm after cooling")
	}
}

func TestBookmarkDetector_Gridlock(t *testing.T) {
	bd := NewBookmarkDetector(10, testThresholds())

	if got := bd.Check(WindowStats{Active: 5, SpeedMean: 0.05}); hasBookmark(got, BookmarkGridlock) {
		t.Error("gridlock with too few agents")
	}
	if got := bd.Check(WindowStats{Active: 30, SpeedMean: 0.05}); !hasBookmark(got, BookmarkGridlock) {
		t.Error("expected gridlock bookmark")
	}
}

func TestBookmarkDetector_SteadyFlow(t *testing.T) {
	bd := NewBookmarkDetector(10, testThresholds())

	flowing := WindowStats{Active: 20, Arrivals: 6}
	var fired int
	for i := 0; i < 6; i++ {
		if hasBookmark(bd.Check(flowing), BookmarkSteadyFlow) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("steady_flow fired %d times in one streak, want 1", fired)
	}

	// A collapse breaks the streak.
	bd.Check(WindowStats{Arrivals: 6, Collisions: 1})
	fired = 0
	for i := 0; i < 3; i++ {
		if hasBookmark(bd.Check(flowing), BookmarkSteadyFlow) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("steady_flow fired %d times after reset, want 1", fired)
	}
}

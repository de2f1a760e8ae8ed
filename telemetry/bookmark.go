package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkStressSaturated   BookmarkType = "stress_saturated"
	BookmarkCapacityExhausted BookmarkType = "capacity_exhausted"
	BookmarkSwellSurge        BookmarkType = "swell_surge"
	BookmarkSeaCalmed         BookmarkType = "sea_calmed"
	BookmarkSteadyState       BookmarkType = "steady_state"
)

// Bookmark marks a window where the sea or the scheduler changed regime.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogValue implements slog.LogValuer for structured logging.
func (b Bookmark) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", string(b.Type)),
		slog.Int("tick", int(b.Tick)),
		slog.String("description", b.Description),
	)
}

// BookmarkDetector detects interesting moments from successive windows.
type BookmarkDetector struct {
	stressMax float64

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	saturated          bool
	exhausted          bool
	recentPeak         int // peak particle count since the last calm bookmark
	steadyWindowsCount int
}

// NewBookmarkDetector creates a detector with the given history size.
// stressMax is the scheduler's stress ceiling.
func NewBookmarkDetector(historySize int, stressMax float64) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for steady state detection
	}
	return &BookmarkDetector{
		stressMax:   stressMax,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkStress(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCapacity(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSurge(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkCalm(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSteadyState(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	if stats.Particles > bd.recentPeak {
		bd.recentPeak = stats.Particles
	}
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n history entries, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	count := bd.historyIdx
	if bd.historyFull {
		count = bd.historySize
	}
	if n > count {
		n = count
	}
	out := make([]WindowStats, n)
	for i := 0; i < n; i++ {
		idx := (bd.historyIdx - n + i + bd.historySize) % bd.historySize
		out[i] = bd.history[idx]
	}
	return out
}

// checkStress fires once each time stress reaches 95% of its ceiling.
func (bd *BookmarkDetector) checkStress(stats WindowStats) *Bookmark {
	high := stats.Stress >= bd.stressMax*0.95
	if !high {
		bd.saturated = false
		return nil
	}
	if bd.saturated {
		return nil
	}
	bd.saturated = true
	return &Bookmark{
		Type:        BookmarkStressSaturated,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Stress %.1f near ceiling %.1f with %d particles", stats.Stress, bd.stressMax, stats.Particles),
	}
}

// checkCapacity fires when spawns start being rejected for lack of space.
func (bd *BookmarkDetector) checkCapacity(stats WindowStats) *Bookmark {
	if stats.SpawnRejected == 0 {
		bd.exhausted = false
		return nil
	}
	if bd.exhausted {
		return nil
	}
	bd.exhausted = true
	return &Bookmark{
		Type:        BookmarkCapacityExhausted,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d spawns rejected with %d free slots", stats.SpawnRejected, stats.FreeSpace),
	}
}

// checkSurge fires when the p90 amplitude exceeds twice its rolling average.
func (bd *BookmarkDetector) checkSurge(stats WindowStats) *Bookmark {
	history := bd.recent(bd.historySize)
	if len(history) < 3 {
		return nil
	}
	var sum float64
	for _, h := range history {
		sum += h.AmplitudeP90
	}
	avg := sum / float64(len(history))
	if avg == 0 {
		return nil
	}
	if stats.AmplitudeP90 > avg*2 {
		return &Bookmark{
			Type:        BookmarkSwellSurge,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("p90 amplitude %.2f is %.1fx average (%.2f)", stats.AmplitudeP90, stats.AmplitudeP90/avg, avg),
		}
	}
	return nil
}

// checkCalm fires when the particle count falls more than half from its peak.
func (bd *BookmarkDetector) checkCalm(stats WindowStats) *Bookmark {
	if bd.recentPeak < 20 {
		return nil
	}
	drop := 1 - float64(stats.Particles)/float64(bd.recentPeak)
	if drop <= 0.5 {
		return nil
	}
	oldPeak := bd.recentPeak
	bd.recentPeak = stats.Particles
	return &Bookmark{
		Type:        BookmarkSeaCalmed,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Particles fell %.0f%% from peak %d to %d", drop*100, oldPeak, stats.Particles),
	}
}

// checkSteadyState fires once the particle count has held within a 20%
// coefficient of variation for five consecutive windows.
func (bd *BookmarkDetector) checkSteadyState(stats WindowStats) *Bookmark {
	if stats.Particles == 0 {
		bd.steadyWindowsCount = 0
		return nil
	}
	history := bd.recent(4)
	if len(history) < 4 {
		return nil
	}

	var sum float64
	for _, h := range history {
		sum += float64(h.Particles)
	}
	mean := sum / 4
	var variance float64
	for _, h := range history {
		d := float64(h.Particles) - mean
		variance += d * d
	}
	variance /= 4

	if mean > 0 && variance/(mean*mean) < 0.04 {
		bd.steadyWindowsCount++
	} else {
		bd.steadyWindowsCount = 0
	}

	if bd.steadyWindowsCount == 5 {
		return &Bookmark{
			Type:        BookmarkSteadyState,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Steady sea with about %.0f particles over 5+ windows", mean),
		}
	}
	return nil
}

// Package telemetry collects per-window sea statistics, tick timing and
// regime bookmarks, and writes them as CSV.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window. Event counts
// cover the window only; the remaining fields are sampled at its end.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Tree occupancy
	Particles int     `csv:"particles"`
	Groups    int     `csv:"groups"`
	Leaves    int     `csv:"leaves"`
	FreeSpace int     `csv:"free_space"`
	Stress    float64 `csv:"stress"`

	// Events during window
	Spawned       int `csv:"spawned"`
	SpawnRejected int `csv:"spawn_rejected"`
	Rejected      int `csv:"rejected"`
	Destroyed     int `csv:"destroyed"`
	Relocated     int `csv:"relocated"`
	Subdivisions  int `csv:"subdivisions"`

	// Wave state distribution
	Breaking      int     `csv:"breaking"`
	AmplitudeMean float64 `csv:"amplitude_mean"`
	AmplitudeP50  float64 `csv:"amplitude_p50"`
	AmplitudeP90  float64 `csv:"amplitude_p90"`
	AmplitudeMax  float64 `csv:"amplitude_max"`
	SpeedMean     float64 `csv:"speed_mean"`
	SpeedStd      float64 `csv:"speed_std"`
}

// Summary describes a sample distribution.
type Summary struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Max           float64
}

// Summarize computes mean, spread and empirical quantiles of values.
// values is sorted in place. An empty slice yields a zero Summary.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sort.Float64s(values)
	mean, std := stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		std = 0
	}
	return Summary{
		Mean: mean,
		Std:  std,
		P10:  stat.Quantile(0.10, stat.Empirical, values, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, values, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, values, nil),
		Max:  floats.Max(values),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("particles", s.Particles),
		slog.Int("groups", s.Groups),
		slog.Int("leaves", s.Leaves),
		slog.Int("free_space", s.FreeSpace),
		slog.Float64("stress", s.Stress),
		slog.Int("spawned", s.Spawned),
		slog.Int("spawn_rejected", s.SpawnRejected),
		slog.Int("rejected", s.Rejected),
		slog.Int("destroyed", s.Destroyed),
		slog.Int("relocated", s.Relocated),
		slog.Int("subdivisions", s.Subdivisions),
		slog.Int("breaking", s.Breaking),
		slog.Float64("amplitude_mean", s.AmplitudeMean),
		slog.Float64("amplitude_p50", s.AmplitudeP50),
		slog.Float64("amplitude_p90", s.AmplitudeP90),
		slog.Float64("amplitude_max", s.AmplitudeMax),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
	)
}

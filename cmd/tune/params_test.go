package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/swell/config"
)

func TestNormalizeRoundtrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("%s: roundtrip %v, want %v", pv.Specs[i].Name, back[i], raw[i])
		}
	}
}

func TestClamp(t *testing.T) {
	pv := NewParamVector()
	v := make([]float64, pv.Dim())
	for i := range v {
		if i%2 == 0 {
			v[i] = -1
		} else {
			v[i] = 1e9
		}
	}
	for i, c := range pv.Clamp(v) {
		spec := pv.Specs[i]
		want := spec.Min
		if i%2 == 1 {
			want = spec.Max
		}
		if c != want {
			t.Errorf("%s: clamped %v, want %v", spec.Name, c, want)
		}
	}
}

func TestDefaultsMatchConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	got := pv.ExtractFromConfig(cfg)
	for i, want := range pv.DefaultVector() {
		if got[i] != want {
			t.Errorf("%s: config %v, default %v", pv.Specs[i].Path, got[i], want)
		}
	}
	if lag := pv.Lag(got); math.Abs(lag-1) > 1e-9 {
		t.Errorf("default lag = %v, want 1", lag)
	}
}

func TestApplyToConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	values := []float64{0.02, 0.8, 3, 12, 1e9}
	pv.ApplyToConfig(cfg, values)

	got := pv.ExtractFromConfig(cfg)
	want := []float64{0.02, 0.8, 3, 12, 50}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("%s = %v, want %v", pv.Specs[i].Path, got[i], want[i])
		}
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name                    string
		lag, stress, over, want float64
	}{
		{"stock", 1, 1, 0, 1},
		{"stressed", 1, 4, 0, 4},
		{"stress floor", 2, 0.5, 0, 2},
		{"over budget", 1, 1, 0.5, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.lag, tt.stress, tt.over); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

package timeline

import (
	"math"
	"testing"
)

func TestMapperRoundTrip(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	m := NewMapper(cfg, 1000, 9000)

	for _, tm := range []float64{1000, 1234.5, 5000, 8999.999, 9000} {
		x := m.TimeToX(tm)
		back := m.XToTime(x)
		if math.Abs(back-tm) > 1e-6 {
			t.Errorf("XToTime(TimeToX(%v)) = %v, want identity", tm, back)
		}
	}
}

func TestMapperEdges(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	m := NewMapper(cfg, 100, 200)

	if got := m.TimeToX(100); got != cfg.LeftMargin {
		t.Errorf("TimeToX(globalStart) = %v, want left margin %v", got, cfg.LeftMargin)
	}
	wantRight := cfg.WidthPx - cfg.RightGutter
	if got := m.TimeToX(200); math.Abs(got-wantRight) > 1e-9 {
		t.Errorf("TimeToX(globalEnd) = %v, want %v", got, wantRight)
	}
}

func TestMapperMonotonic(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	m := NewMapper(cfg, 0, 1000)

	prev := math.Inf(-1)
	for tm := 0.0; tm <= 1000; tm += 37.5 {
		x := m.TimeToX(tm)
		if x <= prev {
			t.Fatalf("TimeToX not strictly increasing at %v: %v <= %v", tm, x, prev)
		}
		prev = x
	}
}

func TestMapperDegenerateSpan(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	m := NewMapper(cfg, 500, 500)

	if m.Span() != 1 {
		t.Errorf("degenerate span widened to %v, want 1", m.Span())
	}
	// The mapping still works and does not produce NaN or Inf.
	x := m.TimeToX(500)
	if math.IsNaN(x) || math.IsInf(x, 0) {
		t.Errorf("TimeToX on degenerate range = %v", x)
	}
}

func TestDurationToWidth(t *testing.T) {
	cfg := Config{WidthPx: 1240, LeftMargin: 200, RightGutter: 40}
	cfg.SetDefaults()
	m := NewMapper(cfg, 0, 1000)

	// usable = 1240 - 200 - 40 = 1000, so one time unit is one pixel.
	if got := m.DurationToWidth(250); math.Abs(got-250) > 1e-9 {
		t.Errorf("DurationToWidth(250) = %v, want 250", got)
	}
	if got := m.DurationToWidth(0); got != 0 {
		t.Errorf("DurationToWidth(0) = %v, want 0", got)
	}
}

package sim

import (
	"errors"
	"testing"

	"github.com/abr-sim/abr-sim/sim/internal/testutil"
)

func TestPlaybackConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PlaybackConfig
		wantErr bool
	}{
		{"valid", PlaybackConfig{SegmentLength: 2.0, SmoothWindow: 3}, false},
		{"minimal window", PlaybackConfig{SegmentLength: 0.5, SmoothWindow: 1}, false},
		{"zero segment length", PlaybackConfig{SegmentLength: 0, SmoothWindow: 1}, true},
		{"negative segment length", PlaybackConfig{SegmentLength: -2.0, SmoothWindow: 1}, true},
		{"zero window", PlaybackConfig{SegmentLength: 2.0, SmoothWindow: 0}, true},
		{"negative window", PlaybackConfig{SegmentLength: 2.0, SmoothWindow: -3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrConfiguration) {
					t.Errorf("Validate() = %v, want ErrConfiguration", err)
				}
			} else if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestSimulate_SteadyThroughputNoStall(t *testing.T) {
	// Steady 1000 kbps channel, window 1: every download takes exactly one
	// segment length and the buffer covers it each time.
	trace := ThroughputTrace{1000, 1000, 1000, 1000}
	outcome, err := Simulate(trace, PlaybackConfig{SegmentLength: 2.0, SmoothWindow: 1})
	if err != nil {
		t.Fatalf("Simulate() error: %v", err)
	}
	testutil.AssertClose(t, "total stall", 0.0, outcome.TotalStall, 1e-12)
	testutil.AssertFloat64Equal(t, "avg bitrate", 1000, outcome.AvgBitrate, 1e-12)
}

func TestSimulate_QualityTracksChannelNoStall(t *testing.T) {
	// With window 1 the selected quality always equals the channel rate, so
	// every download takes exactly one segment length regardless of the rate.
	trace := ThroughputTrace{500, 2000}
	outcome, err := Simulate(trace, PlaybackConfig{SegmentLength: 2.0, SmoothWindow: 1})
	if err != nil {
		t.Fatalf("Simulate() error: %v", err)
	}
	testutil.AssertClose(t, "total stall", 0.0, outcome.TotalStall, 1e-12)
	testutil.AssertFloat64Equal(t, "avg bitrate", 1250, outcome.AvgBitrate, 1e-12)
}

func TestSimulate_SingleSegmentBoundary(t *testing.T) {
	// BDD: A single sample with quality == channel rate downloads in exactly
	// segment_length seconds; the initial buffer (2.0*1) covers it exactly.
	trace := ThroughputTrace{1000}
	outcome, err := Simulate(trace, PlaybackConfig{SegmentLength: 2.0, SmoothWindow: 1})
	if err != nil {
		t.Fatalf("Simulate() error: %v", err)
	}
	testutil.AssertClose(t, "total stall", 0.0, outcome.TotalStall, 1e-12)
	testutil.AssertFloat64Equal(t, "avg bitrate", 1000, outcome.AvgBitrate, 1e-12)
}

func TestSimulate_StallOnThroughputDrop(t *testing.T) {
	// Window 2 over a dropping channel: at index 1 the smoothed quality
	// (1250) exceeds the instantaneous rate (500), the download takes
	// 1250*2/500 = 5.0s against a 4.0s buffer, so playback stalls for 1.0s.
	trace := ThroughputTrace{2000, 500}
	outcome, err := Simulate(trace, PlaybackConfig{SegmentLength: 2.0, SmoothWindow: 2})
	if err != nil {
		t.Fatalf("Simulate() error: %v", err)
	}
	testutil.AssertFloat64Equal(t, "total stall", 1.0, outcome.TotalStall, 1e-12)
	// qualities: idx0 = 2000, idx1 = mean(2000,500) = 1250
	testutil.AssertFloat64Equal(t, "avg bitrate", 1625, outcome.AvgBitrate, 1e-12)
}

func TestSimulate_BufferDrainsToZeroOnStall(t *testing.T) {
	// After a stall the buffer restarts from exactly one segment, so a
	// second identical drop stalls for the full shortfall again.
	trace := ThroughputTrace{2000, 500, 500}
	outcome, err := Simulate(trace, PlaybackConfig{SegmentLength: 2.0, SmoothWindow: 2})
	if err != nil {
		t.Fatalf("Simulate() error: %v", err)
	}
	// idx0: q=2000, dt=2.0, buffer 4.0 -> 2.0 -> 4.0
	// idx1: q=1250, dt=5.0, buffer 4.0 -> stall 1.0 -> buffer 2.0
	// idx2: q=500,  dt=2.0, buffer 2.0 -> 0 -> 2.0, no stall
	testutil.AssertFloat64Equal(t, "total stall", 1.0, outcome.TotalStall, 1e-12)
}

func TestSimulate_SmootherWindowNeverStallsMoreOnRampUp(t *testing.T) {
	// BDD: On a non-decreasing trace a larger window selects a lower, safer
	// quality estimate, so stall time never exceeds the window-1 stall time.
	trace := ThroughputTrace{500, 800, 1000, 1500, 2000, 2000}

	base, err := Simulate(trace, PlaybackConfig{SegmentLength: 2.0, SmoothWindow: 1})
	if err != nil {
		t.Fatalf("Simulate(window=1) error: %v", err)
	}
	for _, window := range []int{2, 3, 4, 5} {
		outcome, err := Simulate(trace, PlaybackConfig{SegmentLength: 2.0, SmoothWindow: window})
		if err != nil {
			t.Fatalf("Simulate(window=%d) error: %v", window, err)
		}
		if outcome.TotalStall > base.TotalStall {
			t.Errorf("window %d stalled %v, more than window 1 (%v) on a ramp-up trace",
				window, outcome.TotalStall, base.TotalStall)
		}
	}
}

func TestSimulate_EmptyTrace(t *testing.T) {
	outcome, err := Simulate(ThroughputTrace{}, PlaybackConfig{SegmentLength: 2.0, SmoothWindow: 3})
	if err != nil {
		t.Fatalf("Simulate() error: %v", err)
	}
	if outcome.AvgBitrate != 0 || outcome.TotalStall != 0 {
		t.Errorf("Simulate(empty) = %+v, want zero outcome", outcome)
	}
}

func TestSimulate_ZeroThroughputSample(t *testing.T) {
	trace := ThroughputTrace{1000, 0, 1000}
	_, err := Simulate(trace, PlaybackConfig{SegmentLength: 2.0, SmoothWindow: 1})
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Simulate(zero sample) = %v, want ErrInvalidState", err)
	}
}

func TestSimulate_InvalidConfigRejectedBeforeTrace(t *testing.T) {
	// Config validation happens before any trace sample is touched.
	trace := ThroughputTrace{0}
	_, err := Simulate(trace, PlaybackConfig{SegmentLength: 0, SmoothWindow: 1})
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("Simulate(bad config) = %v, want ErrConfiguration", err)
	}
}

// === Benchmark ===

func BenchmarkSimulate(b *testing.B) {
	matrix, states := threeStateMatrix()
	trace, err := SampleTrace(150, matrix, states, NewPartitionedRNG(NewSimulationKey(42)).ForSubsystem(SubsystemTrial(0)))
	if err != nil {
		b.Fatal(err)
	}
	cfg := PlaybackConfig{SegmentLength: 2.0, SmoothWindow: 3}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Simulate(trace, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

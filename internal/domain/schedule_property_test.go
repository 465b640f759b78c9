package domain

import (
	"sort"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// A valid vesting schedule must be monotonic non-decreasing in time and never
// exceed its final cumulative value.
func TestProperty_VestingScheduleMonotonic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		n := rapid.IntRange(1, 6).Draw(t, "numPoints")
		points := make([]SchedulePoint, n)
		var offset, cum int64
		for i := 0; i < n; i++ {
			offset += rapid.Int64Range(1, 100_000).Draw(t, "gap")
			cum += rapid.Int64Range(0, 1_000_000).Draw(t, "grow")
			points[i] = SchedulePoint{At: base.Add(time.Duration(offset) * time.Second), Cumulative: cum}
		}
		s, err := NewVestingSchedule(points)
		if err != nil {
			t.Fatalf("schedule rejected: %v", err)
		}

		samples := make([]int64, rapid.IntRange(2, 30).Draw(t, "numSamples"))
		for i := range samples {
			samples[i] = rapid.Int64Range(-1000, offset+1000).Draw(t, "sample")
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

		last := points[n-1].Cumulative
		var prev int64
		for i, off := range samples {
			got := s.AmountToSellBy(base.Add(time.Duration(off) * time.Second))
			if got < 0 || got > last {
				t.Fatalf("AmountToSellBy out of range: %d not in [0, %d]", got, last)
			}
			if i > 0 && got < prev {
				t.Fatalf("schedule decreased: %d after %d", got, prev)
			}
			prev = got
		}
	})
}

package domain

import (
	"testing"
	"time"
)

var scheduleStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestZeroSchedule(t *testing.T) {
	var s ZeroSchedule
	if got := s.AmountToSellBy(scheduleStart.Add(1000 * time.Hour)); got != 0 {
		t.Errorf("AmountToSellBy = %d, want 0", got)
	}
}

func TestNewVestingSchedule_NoPoints(t *testing.T) {
	if _, err := NewVestingSchedule(nil); err == nil {
		t.Error("expected error for empty schedule")
	}
}

func TestNewVestingSchedule_TimeNotIncreasing(t *testing.T) {
	_, err := NewVestingSchedule([]SchedulePoint{
		{At: scheduleStart, Cumulative: 10},
		{At: scheduleStart, Cumulative: 20},
	})
	if err == nil {
		t.Error("expected error for non-increasing times")
	}
}

func TestNewVestingSchedule_AmountDecreasing(t *testing.T) {
	_, err := NewVestingSchedule([]SchedulePoint{
		{At: scheduleStart, Cumulative: 20},
		{At: scheduleStart.Add(time.Hour), Cumulative: 10},
	})
	if err == nil {
		t.Error("expected error for decreasing amounts")
	}
}

func TestNewVestingSchedule_NegativeAmount(t *testing.T) {
	_, err := NewVestingSchedule([]SchedulePoint{
		{At: scheduleStart, Cumulative: -1},
	})
	if err == nil {
		t.Error("expected error for negative amount")
	}
}

func TestVestingSchedule_Interpolation(t *testing.T) {
	s, err := NewVestingSchedule([]SchedulePoint{
		{At: scheduleStart, Cumulative: 100},
		{At: scheduleStart.Add(100 * time.Second), Cumulative: 200},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		at   time.Time
		want int64
	}{
		{scheduleStart.Add(-time.Second), 0},
		{scheduleStart, 100},
		{scheduleStart.Add(25 * time.Second), 125},
		{scheduleStart.Add(50 * time.Second), 150},
		{scheduleStart.Add(100 * time.Second), 200},
		{scheduleStart.Add(time.Hour), 200},
	}
	for _, c := range cases {
		if got := s.AmountToSellBy(c.at); got != c.want {
			t.Errorf("AmountToSellBy(%v) = %d, want %d", c.at, got, c.want)
		}
	}
}

func TestStandardSchedule_ReferencePoints(t *testing.T) {
	s := NewStandardSchedule(scheduleStart)

	cases := []struct {
		at   time.Time
		want int64
	}{
		{scheduleStart, 0},
		{scheduleStart.Add(2*24*time.Hour - time.Second), 0},
		{scheduleStart.Add(2 * 24 * time.Hour), 840_000_000},
		{scheduleStart.Add(30 * 24 * time.Hour), 4_200_000_000},
		{scheduleStart.Add(750 * 24 * time.Hour), 14_280_000_000},
		{scheduleStart.Add(10_000 * 24 * time.Hour), 14_280_000_000},
	}
	for _, c := range cases {
		if got := s.AmountToSellBy(c.at); got != c.want {
			t.Errorf("AmountToSellBy(%v) = %d, want %d", c.at, got, c.want)
		}
	}
}

func TestStandardSchedule_MidSegment(t *testing.T) {
	s := NewStandardSchedule(scheduleStart)
	// Halfway between day 2 and day 30: midpoint of 840M and 4.2B.
	at := scheduleStart.Add(16 * 24 * time.Hour)
	want := int64(840_000_000 + (4_200_000_000-840_000_000)/2)
	if got := s.AmountToSellBy(at); got != want {
		t.Errorf("AmountToSellBy(day 16) = %d, want %d", got, want)
	}
}

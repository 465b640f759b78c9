package domain

import (
	"fmt"
	"time"
)

// SupplySchedule yields the cumulative number of asset units that may have
// been sold by a given moment. Implementations must be monotonic
// non-decreasing in t.
type SupplySchedule interface {
	AmountToSellBy(t time.Time) int64
}

// ZeroSchedule is the schedule for manually staged deployments: no supply
// ever unlocks by time alone, only sellMore makes units available.
type ZeroSchedule struct{}

// AmountToSellBy always returns 0.
func (ZeroSchedule) AmountToSellBy(time.Time) int64 { return 0 }

// SchedulePoint is one breakpoint of a piecewise-linear vesting schedule.
type SchedulePoint struct {
	At         time.Time
	Cumulative int64
}

// VestingSchedule is a piecewise-linear cumulative supply curve: 0 before the
// first point, linear interpolation between consecutive points, flat at the
// last point's value afterwards.
type VestingSchedule struct {
	points []SchedulePoint
}

// NewVestingSchedule validates that points are strictly increasing in time
// and non-decreasing in cumulative amount.
func NewVestingSchedule(points []SchedulePoint) (*VestingSchedule, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("vesting schedule needs at least one point")
	}
	for i := 1; i < len(points); i++ {
		if !points[i].At.After(points[i-1].At) {
			return nil, fmt.Errorf("schedule points must be strictly increasing in time")
		}
		if points[i].Cumulative < points[i-1].Cumulative {
			return nil, fmt.Errorf("schedule points must be non-decreasing in amount")
		}
	}
	for _, p := range points {
		if p.Cumulative < 0 {
			return nil, fmt.Errorf("schedule amounts must be non-negative")
		}
	}
	return &VestingSchedule{points: points}, nil
}

// AmountToSellBy interpolates the cumulative sellable amount at t.
func (s *VestingSchedule) AmountToSellBy(t time.Time) int64 {
	first := s.points[0]
	if t.Before(first.At) {
		return 0
	}
	last := s.points[len(s.points)-1]
	if !t.Before(last.At) {
		return last.Cumulative
	}
	for i := 1; i < len(s.points); i++ {
		p := s.points[i]
		if t.Before(p.At) {
			prev := s.points[i-1]
			// Integer interpolation over whole seconds keeps the curve
			// deterministic and overflow-safe for the reference constants.
			span := int64(p.At.Sub(prev.At) / time.Second)
			into := int64(t.Sub(prev.At) / time.Second)
			grown := p.Cumulative - prev.Cumulative
			return prev.Cumulative + grown*into/span
		}
	}
	return last.Cumulative // unreachable
}

// Reference schedule constants for the standard sale.
const (
	standardCliff  = 2 * 24 * time.Hour
	standardKnee   = 30 * 24 * time.Hour
	standardEnd    = 750 * 24 * time.Hour
	standardFirst  = 840_000_000
	standardSecond = 4_200_000_000
	standardTotal  = 14_280_000_000
)

// NewStandardSchedule builds the reference sale curve: nothing sellable for
// the first two days, 840M at start+2d growing linearly to 4.2B at
// start+30d, then to 14.28B at start+750d, flat afterwards.
func NewStandardSchedule(start time.Time) *VestingSchedule {
	s, err := NewVestingSchedule([]SchedulePoint{
		{At: start.Add(standardCliff), Cumulative: standardFirst},
		{At: start.Add(standardKnee), Cumulative: standardSecond},
		{At: start.Add(standardEnd), Cumulative: standardTotal},
	})
	if err != nil {
		// The constants above are valid; this is a programming error.
		panic(err)
	}
	return s
}

package history

import (
	"context"
	"fmt"
	"time"
)

// TimeRange selects how far back a clear operation reaches.
type TimeRange string

const (
	RangeLastHour  TimeRange = "hour"
	RangeLastDay   TimeRange = "day"
	RangeLastWeek  TimeRange = "week"
	RangeLastMonth TimeRange = "month" // last 4 weeks
	RangeAllTime   TimeRange = "all"
)

// Start returns the inclusive lower bound of the range computed from
// now, or nil for all-time.
func (r TimeRange) Start(now time.Time) (*time.Time, error) {
	var d time.Duration
	switch r {
	case RangeLastHour:
		d = time.Hour
	case RangeLastDay:
		d = 24 * time.Hour
	case RangeLastWeek:
		d = 7 * 24 * time.Hour
	case RangeLastMonth:
		d = 28 * 24 * time.Hour
	case RangeAllTime, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown time range %q", r)
	}
	start := now.Add(-d)
	return &start, nil
}

// ClearInput selects what ClearHistory removes.
type ClearInput struct {
	// Range limits the clear to records captured since its start.
	// Empty or RangeAllTime clears everything.
	Range TimeRange

	// ToTrash moves matching records to the trash instead of removing
	// them permanently.
	ToTrash bool

	// KeepSaved skips records that are saved under a category.
	KeepSaved bool
}

// ClearHistory removes (or trashes) every non-trashed record captured
// inside the selected time range. Records already in the trash are left
// alone either way.
func (s *Service) ClearHistory(ctx context.Context, input ClearInput) error {
	start, err := input.Range.Start(s.now())
	if err != nil {
		return err
	}

	return s.update(ctx, func(c *collections) error {
		kept := c.records[:0:0]
		for _, record := range c.records {
			if record.Trashed {
				kept = append(kept, record)
				continue
			}
			inRange := start == nil || !record.Timestamp.Before(*start)
			if !inRange || (input.KeepSaved && record.Category != nil) {
				kept = append(kept, record)
				continue
			}
			if input.ToTrash {
				record.Trashed = true
				kept = append(kept, record)
			}
		}
		c.records = kept
		return nil
	})
}

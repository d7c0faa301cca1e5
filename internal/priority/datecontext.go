// Package priority orders task trees without any explicit user-assigned rank.
//
// Each task is placed in one of six categories derived from its planned and
// due dates relative to a DateContext, then ordered inside its category by
// category-specific keys (dates, points). Subtasks are ordered by manual
// position first and by points after that.
package priority

import (
	"time"
)

// DateContext is a frozen "now" at day granularity. Build one per sorting
// pass so that category boundaries cannot move while a list is being ordered.
type DateContext struct {
	Today    time.Time
	Tomorrow time.Time
	// DayAfter closes the two-day window in which a due date counts as urgent
	DayAfter time.Time
}

// NewDateContext derives the day boundaries from now's calendar date
func NewDateContext(now time.Time) DateContext {
	today := Day(now)
	return DateContext{
		Today:    today,
		Tomorrow: today.AddDate(0, 0, 1),
		DayAfter: today.AddDate(0, 0, 2),
	}
}

// Day truncates t to midnight of its calendar date. The result is expressed
// in UTC so that dates parsed without a zone and local clock readings compare
// by their civil date alone.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Ranker sorts task trees using a fresh DateContext for every call
type Ranker struct {
	now func() time.Time
}

// NewRanker creates a ranker reading the current instant from now.
// A nil now falls back to time.Now.
func NewRanker(now func() time.Time) *Ranker {
	if now == nil {
		now = time.Now
	}
	return &Ranker{now: now}
}

// DateContext snapshots the ranker's clock
func (r *Ranker) DateContext() DateContext {
	return NewDateContext(r.now())
}

package priority

import (
	"time"

	"github.com/dori/tasktree/internal/model"
)

// Category is the date-derived bucket a task falls into for one sorting pass
type Category int

const (
	Collected Category = iota
	Overdue
	Today
	Tomorrow
	NoDate
	Future
)

// Categories lists every category in rank order
var Categories = []Category{Collected, Overdue, Today, Tomorrow, NoDate, Future}

// Rank returns the global position of the category, lower sorts first
func (c Category) Rank() int {
	switch c {
	case Collected:
		return 0
	case Overdue:
		return 1
	case Today:
		return 2
	case Tomorrow:
		return 3
	case NoDate:
		return 4
	case Future:
		return 5
	default:
		return len(Categories)
	}
}

// String returns the display name for a category
func (c Category) String() string {
	switch c {
	case Collected:
		return "Collected"
	case Overdue:
		return "Overdue"
	case Today:
		return "Today"
	case Tomorrow:
		return "Tomorrow"
	case NoDate:
		return "No date"
	case Future:
		return "Future"
	default:
		return "Unknown"
	}
}

// Signal records which date put a task into its category
type Signal int

const (
	SignalNone Signal = iota
	SignalDue
	SignalPlanned
)

func (s Signal) String() string {
	switch s {
	case SignalDue:
		return "due"
	case SignalPlanned:
		return "planned"
	default:
		return "none"
	}
}

// Placement is the outcome of categorizing one task
type Placement struct {
	Category Category
	Signal   Signal
	// Date is the day that decided the category, zero for dateless buckets
	Date time.Time
}

// Categorize places a task in exactly one category. The first matching rule
// wins: Overdue, Today, Tomorrow (including a due date up to two days out),
// Collected, NoDate, Future.
func Categorize(t *model.Task, dc DateContext) Placement {
	due := dayOf(t.DueDate)
	planned := dayOf(t.PlannedDate)

	dueBefore := due != nil && due.Before(dc.Today)
	plannedBefore := planned != nil && planned.Before(dc.Today)
	if dueBefore || plannedBefore {
		p := Placement{Category: Overdue, Signal: SignalPlanned}
		if dueBefore {
			p.Signal = SignalDue
			p.Date = *due
		}
		if plannedBefore && (!dueBefore || planned.Before(*due)) {
			p.Date = *planned
		}
		return p
	}

	dueToday := due != nil && due.Equal(dc.Today)
	if dueToday || (planned != nil && planned.Equal(dc.Today)) {
		p := Placement{Category: Today, Signal: SignalPlanned, Date: dc.Today}
		if dueToday {
			p.Signal = SignalDue
		}
		return p
	}

	dueSoon := due != nil && (due.Equal(dc.Tomorrow) || due.Equal(dc.DayAfter))
	plannedTomorrow := planned != nil && planned.Equal(dc.Tomorrow)
	if dueSoon || plannedTomorrow {
		p := Placement{Category: Tomorrow, Signal: SignalPlanned, Date: dc.Tomorrow}
		if dueSoon {
			p.Signal = SignalDue
			if !plannedTomorrow {
				p.Date = *due
			}
		}
		return p
	}

	if planned == nil {
		if due == nil && t.Points == model.MaxPoints {
			return Placement{Category: Collected}
		}
		return Placement{Category: NoDate}
	}

	p := Placement{Category: Future, Signal: SignalPlanned, Date: *planned}
	if due != nil && due.Before(*planned) {
		p.Signal = SignalDue
		p.Date = *due
	}
	return p
}

func dayOf(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Day(*t)
	return &d
}

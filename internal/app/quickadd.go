package app

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dori/tasktree/internal/model"
)

// QuickAdd is a task described in one line of text
type QuickAdd struct {
	Name        string
	Importance  int
	Complexity  int
	PlannedDate *time.Time
	DueDate     *time.Time
	Tags        []string
	ParentName  string
}

// Default weights for quick-added tasks
const (
	DefaultImportance = 10
	DefaultComplexity = 3
)

// ParseQuickAdd extracts markers from text; every other word is the name.
//
//	!30           importance
//	~2            complexity
//	due:friday    due date
//	plan:today    planned date
//	@home         tag
//	^"Big thing"  parent task by name
//
// A marker that does not parse stays part of the name.
func ParseQuickAdd(text string, now time.Time) QuickAdd {
	q := QuickAdd{Importance: DefaultImportance, Complexity: DefaultComplexity}

	words := strings.Fields(text)
	var nameParts []string

	for i := 0; i < len(words); i++ {
		word := words[i]
		lower := strings.ToLower(word)

		switch {
		case strings.HasPrefix(word, "@") && len(word) > 1:
			q.Tags = append(q.Tags, strings.TrimPrefix(word, "@"))

		case strings.HasPrefix(word, "!"):
			n, err := strconv.Atoi(word[1:])
			if err != nil || !model.ValidImportance(n) {
				nameParts = append(nameParts, word)
				continue
			}
			q.Importance = n

		case strings.HasPrefix(word, "~"):
			n, err := strconv.Atoi(word[1:])
			if err != nil || !model.ValidComplexity(n) {
				nameParts = append(nameParts, word)
				continue
			}
			q.Complexity = n

		case strings.HasPrefix(lower, "due:"):
			if d := ParseNaturalDate(lower[len("due:"):], now); d != nil {
				q.DueDate = d
			} else {
				nameParts = append(nameParts, word)
			}

		case strings.HasPrefix(lower, "plan:"):
			if d := ParseNaturalDate(lower[len("plan:"):], now); d != nil {
				q.PlannedDate = d
			} else {
				nameParts = append(nameParts, word)
			}

		case strings.HasPrefix(word, "^") && len(word) > 1:
			parent, next := parentMarker(words, i)
			q.ParentName = parent
			i = next

		default:
			nameParts = append(nameParts, word)
		}
	}

	q.Name = strings.Join(nameParts, " ")
	return q
}

// parentMarker reads ^Name or ^"Several words" starting at words[i] and
// returns the name and the index of its last word
func parentMarker(words []string, i int) (string, int) {
	first := words[i][1:]
	if !strings.HasPrefix(first, `"`) {
		return first, i
	}

	parts := []string{strings.TrimPrefix(first, `"`)}
	if strings.HasSuffix(first, `"`) && len(first) > 1 {
		return strings.TrimSuffix(parts[0], `"`), i
	}
	for j := i + 1; j < len(words); j++ {
		if strings.HasSuffix(words[j], `"`) {
			parts = append(parts, strings.TrimSuffix(words[j], `"`))
			return strings.Join(parts, " "), j
		}
		parts = append(parts, words[j])
	}
	// Unterminated quote runs to the end of the line
	return strings.Join(parts, " "), len(words) - 1
}

// ParseNaturalDate understands today, tomorrow, weekday names, nextweek and
// a few explicit formats. The result is a calendar date.
func ParseNaturalDate(s string, now time.Time) *time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch strings.ToLower(s) {
	case "today":
		return &today
	case "tomorrow", "tom":
		t := today.AddDate(0, 0, 1)
		return &t
	case "monday", "mon":
		return nextWeekday(today, time.Monday)
	case "tuesday", "tue":
		return nextWeekday(today, time.Tuesday)
	case "wednesday", "wed":
		return nextWeekday(today, time.Wednesday)
	case "thursday", "thu":
		return nextWeekday(today, time.Thursday)
	case "friday", "fri":
		return nextWeekday(today, time.Friday)
	case "saturday", "sat":
		return nextWeekday(today, time.Saturday)
	case "sunday", "sun":
		return nextWeekday(today, time.Sunday)
	case "nextweek":
		t := today.AddDate(0, 0, 7)
		return &t
	}

	formats := []string{
		model.DateLayout,
		"01/02/2006",
		"01-02-2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}

	return nil
}

// nextWeekday returns the next day strictly after today falling on day
func nextWeekday(today time.Time, day time.Weekday) *time.Time {
	daysUntil := int(day - today.Weekday())
	if daysUntil <= 0 {
		daysUntil += 7
	}

	t := today.AddDate(0, 0, daysUntil)
	return &t
}

// String renders the parsed markers for confirmation output
func (q QuickAdd) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (importance %d, complexity %d, %d points)",
		q.Name, q.Importance, q.Complexity, model.CalculatePoints(q.Importance, q.Complexity))
	if q.PlannedDate != nil {
		fmt.Fprintf(&b, " plan:%s", model.FormatDate(q.PlannedDate))
	}
	if q.DueDate != nil {
		fmt.Fprintf(&b, " due:%s", model.FormatDate(q.DueDate))
	}
	for _, tag := range q.Tags {
		fmt.Fprintf(&b, " @%s", tag)
	}
	if q.ParentName != "" {
		fmt.Fprintf(&b, " under %q", q.ParentName)
	}
	return b.String()
}

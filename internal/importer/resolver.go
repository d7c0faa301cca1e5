// Package importer rebuilds a task tree from decoded CSV drafts.
//
// Drafts are ordered by their in-batch depth, then materialized one at a
// time. Row N can only link to tasks created by rows 1..N-1, which is why
// materialization is strictly sequential.
package importer

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sort"

	"github.com/dori/tasktree/internal/csvio"
	"github.com/dori/tasktree/internal/model"
)

// Store is the persistence the resolver needs. *db.DB implements it.
// Lookups that find nothing return nil, nil.
type Store interface {
	GetTagByName(ownerID, name string) (*model.Tag, error)
	CreateTag(ownerID, name, color string) (*model.Tag, error)
	UpdateTagColor(id, color string) error
	// CreateTask persists task together with its tag links and fills in
	// ID and timestamps.
	CreateTask(task *model.Task, tagIDs []string) error
}

// Reasons attached to warnings; they never reject a row
var (
	ErrUnresolvedParent = errors.New("parent not found, imported as a root task")
	ErrSelfParent       = errors.New("task names itself as parent, imported as a root task")
)

// DefaultTagColor is used for new tags when neither the row nor the options
// supply a color
const DefaultTagColor = "#88C0D0"

// Options tune a single import
type Options struct {
	DefaultTagColor string
	// ReportUnresolved lists missing and self-referencing parents as warnings
	ReportUnresolved bool
	Logger           *log.Logger
}

// Result summarises one import
type Result struct {
	Imported int
	Errors   []csvio.RowError
	Warnings []csvio.RowError
	// Tasks holds the materialized tasks in creation order
	Tasks []model.Task
}

// ErrorMessages renders Errors as "line N: ..." strings
func (r Result) ErrorMessages() []string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Error()
	}
	return msgs
}

// Resolver materializes depth-ordered drafts for one owner
type Resolver struct {
	store   Store
	ownerID string
	opts    Options
	log     *log.Logger

	// lower-cased name -> task ID of everything created so far in this batch
	ids map[string]string
}

// NewResolver creates a resolver for a single batch
func NewResolver(store Store, ownerID string, opts Options) *Resolver {
	if opts.DefaultTagColor == "" {
		opts.DefaultTagColor = DefaultTagColor
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{
		store:   store,
		ownerID: ownerID,
		opts:    opts,
		log:     logger,
		ids:     make(map[string]string),
	}
}

// Materialize creates one task per draft, in the given order. A failing row
// is recorded and skipped; it never stops the rows after it.
func (r *Resolver) Materialize(drafts []csvio.DraftRecord) Result {
	var res Result
	for i := range drafts {
		d := &drafts[i]

		if err := r.materialize(d, &res); err != nil {
			r.log.Printf("line %d: %v", d.Line, err)
			res.Errors = append(res.Errors, csvio.RowError{Line: d.Line, Err: err})
		}
	}
	return res
}

func (r *Resolver) materialize(d *csvio.DraftRecord, res *Result) error {
	tagIDs, err := r.ensureTags(d)
	if err != nil {
		return err
	}

	parentID, warning := r.resolveParent(d)

	task := &model.Task{
		OwnerID:     r.ownerID,
		Name:        d.Name,
		Link:        d.Link,
		Note:        d.Note,
		Importance:  d.Importance,
		Complexity:  d.Complexity,
		PlannedDate: d.PlannedDate,
		DueDate:     d.DueDate,
		ParentID:    parentID,
	}
	task.RecalculatePoints()

	if err := r.store.CreateTask(task, tagIDs); err != nil {
		return fmt.Errorf("create task %q: %w", d.Name, err)
	}

	r.ids[normalizeName(d.Name)] = task.ID
	r.log.Printf("line %d: created %q (%s)", d.Line, task.Name, task.ID)

	res.Imported++
	res.Tasks = append(res.Tasks, *task)
	if warning != nil && r.opts.ReportUnresolved {
		res.Warnings = append(res.Warnings, csvio.RowError{Line: d.Line, Err: warning})
	}
	return nil
}

// resolveParent maps ParentName to an already created task. Self references
// and unknown names degrade to a root task.
func (r *Resolver) resolveParent(d *csvio.DraftRecord) (*string, error) {
	parent := normalizeName(d.ParentName)
	if parent == "" {
		return nil, nil
	}
	if parent == normalizeName(d.Name) {
		return nil, fmt.Errorf("%w: %q", ErrSelfParent, d.ParentName)
	}
	id, ok := r.ids[parent]
	if !ok {
		r.log.Printf("line %d: parent %q not found", d.Line, d.ParentName)
		return nil, fmt.Errorf("%w: %q", ErrUnresolvedParent, d.ParentName)
	}
	return &id, nil
}

// ensureTags gets or creates every tag of the draft. A supplied color that
// differs from the stored one overwrites it.
func (r *Resolver) ensureTags(d *csvio.DraftRecord) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	for i, name := range d.Tags {
		color := ""
		if i < len(d.TagColors) {
			color = d.TagColors[i]
		}

		tag, err := r.store.GetTagByName(r.ownerID, name)
		if err != nil {
			return nil, fmt.Errorf("look up tag %q: %w", name, err)
		}

		switch {
		case tag == nil:
			if color == "" {
				color = r.opts.DefaultTagColor
			}
			tag, err = r.store.CreateTag(r.ownerID, name, color)
			if err != nil {
				return nil, fmt.Errorf("create tag %q: %w", name, err)
			}
		case color != "" && color != tag.Color:
			if err := r.store.UpdateTagColor(tag.ID, color); err != nil {
				return nil, fmt.Errorf("update tag %q color: %w", name, err)
			}
			tag.Color = color
		}

		if !seen[tag.ID] {
			seen[tag.ID] = true
			ids = append(ids, tag.ID)
		}
	}
	return ids, nil
}

// Import decodes r, orders the drafts by depth and materializes them for
// ownerID. Parse and materialization errors are merged, ordered by line.
func Import(r io.Reader, ownerID string, store Store, opts Options) Result {
	drafts, parseErrors := csvio.Decode(r)
	res := NewResolver(store, ownerID, opts).Materialize(OrderByDepth(drafts))

	res.Errors = append(parseErrors, res.Errors...)
	sort.SliceStable(res.Errors, func(i, j int) bool {
		return res.Errors[i].Line < res.Errors[j].Line
	})
	sort.SliceStable(res.Warnings, func(i, j int) bool {
		return res.Warnings[i].Line < res.Warnings[j].Line
	})
	return res
}

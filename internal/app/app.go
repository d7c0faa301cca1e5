package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dori/tasktree/internal/config"
	"github.com/dori/tasktree/internal/csvio"
	"github.com/dori/tasktree/internal/db"
	"github.com/dori/tasktree/internal/importer"
	"github.com/dori/tasktree/internal/model"
	"github.com/dori/tasktree/internal/notify"
	"github.com/dori/tasktree/internal/priority"
	"github.com/gofrs/flock"
)

var (
	// ErrLocked is returned when another writer holds the data directory
	ErrLocked = errors.New("another tasktree process is writing to this database")
	// ErrParentNotFound is returned when a quick-add parent name matches no task
	ErrParentNotFound = errors.New("parent task not found")
	// ErrTaskNotFound is returned when an ID prefix matches no task
	ErrTaskNotFound = errors.New("task not found")
)

// Options control how the application is opened
type Options struct {
	// Lock takes the single-writer lock on the data directory
	Lock bool
	// Logger receives diagnostics; nil discards them
	Logger *log.Logger
	// Now is the clock used for ranking; nil means time.Now
	Now func() time.Time
}

// App holds the application state and dependencies
type App struct {
	DB       *db.DB
	Notifier *notify.Notifier
	Ranker   *priority.Ranker
	Config   *config.Config

	log      *log.Logger
	lockFile *flock.Flock
}

// New creates a new application instance
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "tasktree.db")
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	notifier := notify.NewNotifier()
	notifier.SetEnabled(cfg.Notify.Enabled)
	notifier.SetTimeout(cfg.Notify.Timeout)

	app := &App{
		Config:   cfg,
		Notifier: notifier,
		Ranker:   priority.NewRanker(opts.Now),
		log:      logger,
	}

	if opts.Lock {
		if err := app.acquireLock(); err != nil {
			return nil, err
		}
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		app.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database
	logger.Printf("opened %s as owner %q", cfg.DBPath, cfg.Owner)

	return app, nil
}

// acquireLock acquires an exclusive file lock so only one process writes
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.Config.DataDir, "tasktree.lock")
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return ErrLocked
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// ListFilter selects the tasks shown by list, export and the TUI
type ListFilter struct {
	IncludeCompleted bool
	Tag              string
	Search           string
}

func (a *App) taskFilter(f ListFilter) db.TaskFilter {
	return db.TaskFilter{
		OwnerID:          a.Config.Owner,
		IncludeCompleted: f.IncludeCompleted,
		Tag:              f.Tag,
		Search:           f.Search,
	}
}

// OrderedTasks returns the owner's task tree in priority order
func (a *App) OrderedTasks(f ListFilter) ([]model.Task, error) {
	tree, err := a.DB.GetTaskTree(a.taskFilter(f))
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return a.Ranker.Sort(tree), nil
}

// Sections returns the ordered tree grouped by category
func (a *App) Sections(f ListFilter) ([]priority.Section, error) {
	dc := a.Ranker.DateContext()
	tree, err := a.DB.GetTaskTree(a.taskFilter(f))
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	return priority.Group(priority.SortTree(tree, dc), dc), nil
}

// AddTask creates a task from a quick-add description
func (a *App) AddTask(q QuickAdd) (*model.Task, error) {
	if strings.TrimSpace(q.Name) == "" {
		return nil, csvio.ErrMissingName
	}

	task := &model.Task{
		OwnerID:     a.Config.Owner,
		Name:        q.Name,
		Importance:  q.Importance,
		Complexity:  q.Complexity,
		PlannedDate: q.PlannedDate,
		DueDate:     q.DueDate,
	}

	if q.ParentName != "" {
		parent, err := a.findByName(q.ParentName)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("%w: %q", ErrParentNotFound, q.ParentName)
		}
		task.ParentID = &parent.ID
	}

	var tagIDs []string
	for _, name := range q.Tags {
		tag, err := a.DB.GetOrCreateTag(a.Config.Owner, name, a.Config.DefaultTagColor)
		if err != nil {
			return nil, fmt.Errorf("failed to get tag %q: %w", name, err)
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	if err := a.DB.CreateTask(task, tagIDs); err != nil {
		return nil, err
	}
	a.log.Printf("added %q (%s)", task.Name, task.ID)
	return task, nil
}

// findByName matches names the way the importer does, first created wins
func (a *App) findByName(name string) (*model.Task, error) {
	tasks, err := a.DB.GetTasks(db.TaskFilter{OwnerID: a.Config.Owner, IncludeCompleted: true})
	if err != nil {
		return nil, err
	}
	key := strings.ToLower(strings.TrimSpace(name))
	for i := range tasks {
		if strings.ToLower(strings.TrimSpace(tasks[i].Name)) == key {
			return &tasks[i], nil
		}
	}
	return nil, nil
}

// ToggleDone flips completion of the task matching an ID prefix
func (a *App) ToggleDone(idPrefix string) (*model.Task, error) {
	task, err := a.DB.FindTask(a.Config.Owner, idPrefix)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, idPrefix)
	}

	completed, err := a.DB.ToggleTaskCompleted(task.ID)
	if err != nil {
		return nil, err
	}
	task.Completed = completed
	return task, nil
}

// ImportCSV imports a CSV document for the configured owner
func (a *App) ImportCSV(r io.Reader) importer.Result {
	res := importer.Import(r, a.Config.Owner, a.DB, importer.Options{
		DefaultTagColor:  a.Config.DefaultTagColor,
		ReportUnresolved: a.Config.ReportUnresolved,
		Logger:           a.log,
	})
	a.log.Printf("import: %d imported, %d errors, %d warnings",
		res.Imported, len(res.Errors), len(res.Warnings))
	return res
}

// ExportCSV writes the ordered task tree as CSV
func (a *App) ExportCSV(w io.Writer, includeCompleted bool) error {
	tasks, err := a.OrderedTasks(ListFilter{IncludeCompleted: includeCompleted})
	if err != nil {
		return err
	}
	if err := csvio.Encode(w, tasks); err != nil {
		return fmt.Errorf("failed to export tasks: %w", err)
	}
	return nil
}

// Digest counts open tasks, subtasks included, that need attention soon
func (a *App) Digest() (notify.Digest, error) {
	tasks, err := a.DB.GetTasks(db.TaskFilter{OwnerID: a.Config.Owner})
	if err != nil {
		return notify.Digest{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	dc := a.Ranker.DateContext()
	var d notify.Digest
	var urgent []model.Task
	for i := range tasks {
		switch priority.Categorize(&tasks[i], dc).Category {
		case priority.Overdue:
			d.Overdue++
			urgent = append(urgent, tasks[i])
		case priority.Today:
			d.Today++
			urgent = append(urgent, tasks[i])
		case priority.Tomorrow:
			d.Tomorrow++
		}
	}

	for _, t := range priority.Sort(urgent, dc) {
		if len(d.Top) == 3 {
			break
		}
		d.Top = append(d.Top, t.Name)
	}
	return d, nil
}

// Remind sends the digest as a desktop notification
func (a *App) Remind() (notify.Digest, error) {
	d, err := a.Digest()
	if err != nil {
		return d, err
	}
	return d, a.Notifier.SendDigest(d)
}

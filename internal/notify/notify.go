package notify

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Urgency levels for notifications
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Notification represents a desktop notification
type Notification struct {
	Title   string
	Body    string
	Urgency Urgency
	Timeout time.Duration
	Icon    string // Optional icon name
}

// Runner executes an external command
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Notifier handles sending desktop notifications
type Notifier struct {
	enabled bool
	timeout time.Duration
	run     Runner
}

// NewNotifier creates a notifier backed by notify-send
func NewNotifier() *Notifier {
	return &Notifier{
		enabled: true,
		timeout: 10 * time.Second,
		run:     execRunner,
	}
}

// NewNotifierWithRunner creates a notifier that hands commands to run
func NewNotifierWithRunner(run Runner) *Notifier {
	n := NewNotifier()
	n.run = run
	return n
}

// SetEnabled enables or disables notifications
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled = enabled
}

// IsEnabled returns whether notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

// SetTimeout sets the display time used by digest notifications
func (n *Notifier) SetTimeout(d time.Duration) {
	n.timeout = d
}

// Send sends a desktop notification using notify-send
func (n *Notifier) Send(notification Notification) error {
	if !n.enabled {
		return nil
	}

	args := []string{}

	switch notification.Urgency {
	case UrgencyLow:
		args = append(args, "-u", "low")
	case UrgencyCritical:
		args = append(args, "-u", "critical")
	default:
		args = append(args, "-u", "normal")
	}

	// Timeout in milliseconds
	if notification.Timeout > 0 {
		args = append(args, "-t", strconv.Itoa(int(notification.Timeout.Milliseconds())))
	}

	if notification.Icon != "" {
		args = append(args, "-i", notification.Icon)
	}

	args = append(args, "-a", "tasktree")

	args = append(args, notification.Title)
	if notification.Body != "" {
		args = append(args, notification.Body)
	}

	if err := n.run("notify-send", args...); err != nil {
		return fmt.Errorf("failed to run notify-send: %w", err)
	}
	return nil
}

// Digest summarises what needs attention now
type Digest struct {
	Overdue  int
	Today    int
	Tomorrow int
	// Names of the most pressing tasks, best first
	Top []string
}

// Empty reports whether nothing is overdue or due today
func (d Digest) Empty() bool {
	return d.Overdue == 0 && d.Today == 0
}

// Summary renders the counts as one line
func (d Digest) Summary() string {
	return fmt.Sprintf("%d overdue, %d today, %d tomorrow", d.Overdue, d.Today, d.Tomorrow)
}

// SendDigest sends the daily reminder. Anything overdue makes it critical.
func (n *Notifier) SendDigest(d Digest) error {
	urgency := UrgencyNormal
	title := "Tasks for today"
	switch {
	case d.Overdue > 0:
		urgency = UrgencyCritical
		title = fmt.Sprintf("%d overdue task(s)", d.Overdue)
	case d.Empty():
		urgency = UrgencyLow
		title = "Nothing due today"
	}

	body := d.Summary()
	if len(d.Top) > 0 {
		body += "\n• " + strings.Join(d.Top, "\n• ")
	}

	return n.Send(Notification{
		Title:   title,
		Body:    body,
		Urgency: urgency,
		Timeout: n.timeout,
		Icon:    "emblem-important-symbolic",
	})
}

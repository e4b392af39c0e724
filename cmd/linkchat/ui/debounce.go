package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DebounceMsg is delivered when an armed Debouncer's quiet period elapses.
// Pass Seq to Fire to find out whether it is still the current arm.
type DebounceMsg struct {
	ID  string
	Seq uint64
}

// Debouncer holds at most one pending action. Arming it again replaces the
// pending action; Cancel drops it.
type Debouncer struct {
	mu       sync.Mutex
	id       string
	timer    *time.Timer
	stop     chan struct{}
	duration time.Duration
	seq      uint64
	armed    bool
}

// NewDebouncer creates a new debouncer with the specified duration. id tags
// the messages it produces so several debouncers can share one Update loop.
func NewDebouncer(id string, duration time.Duration) *Debouncer {
	return &Debouncer{
		id:       id,
		duration: duration,
	}
}

// Duration returns the quiet period.
func (d *Debouncer) Duration() time.Duration { return d.duration }

// Cmd arms the debouncer and returns a command that resolves to a
// DebounceMsg after the quiet period, or to nil when the arm is cancelled
// or replaced first. Each command goroutine exits either way.
func (d *Debouncer) Cmd() tea.Cmd {
	fired := make(chan struct{})

	d.mu.Lock()
	d.cancelLocked()
	d.seq++
	seq := d.seq
	stop := make(chan struct{})
	d.stop = stop
	d.armed = true
	d.timer = time.AfterFunc(d.duration, func() { close(fired) })
	d.mu.Unlock()

	id := d.id
	return func() tea.Msg {
		select {
		case <-fired:
			return DebounceMsg{ID: id, Seq: seq}
		case <-stop:
			return nil
		}
	}
}

// Fire consumes the pending arm if seq is still current. It returns false
// for stale messages (re-armed or cancelled since).
func (d *Debouncer) Fire(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.armed || seq != d.seq {
		return false
	}
	d.armed = false
	d.timer = nil
	d.stop = nil
	return true
}

// Cancel cancels any pending debounced action
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.stop != nil {
		close(d.stop)
		d.stop = nil
	}
	if d.armed {
		d.armed = false
		d.seq++
	}
}

// Pending reports whether an action is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

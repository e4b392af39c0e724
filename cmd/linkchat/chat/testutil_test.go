// Package chat provides test utilities for widget testing.
// This file contains the fake backend and helpers for driving Update.
package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"linkchat/internal/config"
	"linkchat/internal/ragclient"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// FAKE BACKEND
// =============================================================================

// fakeBackend records calls and answers with canned responses.
type fakeBackend struct {
	mu      sync.Mutex
	loads   []string
	queries []string
	clears  int

	loadErr  error
	queryErr error
	clearErr error
	summary  string
	answer   func(query string) string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		summary: "ok",
		answer:  func(q string) string { return "answer to " + q },
	}
}

func (f *fakeBackend) Load(ctx context.Context, link string) (*ragclient.LoadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads = append(f.loads, link)
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return &ragclient.LoadResponse{Status: "success", Message: f.summary}, nil
}

func (f *fakeBackend) Query(ctx context.Context, query string) (*ragclient.QueryResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &ragclient.QueryResponse{Status: "success", Response: f.answer(query)}, nil
}

func (f *fakeBackend) Clear(ctx context.Context) (*ragclient.ClearResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	if f.clearErr != nil {
		return nil, f.clearErr
	}
	return &ragclient.ClearResponse{Status: "success", Message: "Collection cleared"}, nil
}

func (f *fakeBackend) Loads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.loads...)
}

func (f *fakeBackend) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *fakeBackend) Clears() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clears
}

var (
	errRejected  = &ragclient.ServerRejectedError{Op: "load", StatusCode: 500, Detail: "boom"}
	errTransport = &ragclient.TransportError{Op: "load", Err: context.DeadlineExceeded}
)

// =============================================================================
// MODEL HELPERS
// =============================================================================

// newTestModel returns a sized widget with markdown off and a short debounce.
func newTestModel(t *testing.T, opts ...func(*config.Config)) (Model, *fakeBackend) {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.UI.Markdown = false
	cfg.UI.Theme = config.ThemeLight
	cfg.Chat.Debounce = "30ms"
	for _, opt := range opts {
		opt(cfg)
	}

	fb := newFakeBackend()
	m := New(fb, cfg)
	closeAndDrain(t, m)

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return newModel.(Model), fb
}

// send feeds one message to Update.
func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	newModel, cmd := m.Update(msg)
	return newModel.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyPress(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// cmdGoroutines counts command goroutines started by runCmd.
var cmdGoroutines sync.WaitGroup

// runCmd runs cmd the way the Bubble Tea runtime does: batches fan out and
// every message lands on out until done is closed.
func runCmd(cmd tea.Cmd, out chan<- tea.Msg, done <-chan struct{}) {
	if cmd == nil {
		return
	}
	cmdGoroutines.Add(1)
	go func() {
		defer cmdGoroutines.Done()
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			for _, sub := range batch {
				runCmd(sub, out, done)
			}
			return
		}
		select {
		case out <- msg:
		case <-done:
		}
	}()
}

// closeAndDrain closes m at the end of the test and then waits for every
// command goroutine to return.
func closeAndDrain(t *testing.T, m Model) {
	t.Helper()
	t.Cleanup(func() {
		m.Close()

		drained := make(chan struct{})
		go func() {
			cmdGoroutines.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(2 * time.Second):
			t.Errorf("command goroutines still running after Close")
		}
	})
}

// await runs cmd and returns the first message of type T. Other messages
// are discarded.
func await[T tea.Msg](t *testing.T, cmd tea.Cmd) T {
	t.Helper()

	var zero T
	if cmd == nil {
		t.Fatalf("expected a command producing %T, got nil", zero)
	}

	out := make(chan tea.Msg, 16)
	done := make(chan struct{})
	defer close(done)
	runCmd(cmd, out, done)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg := <-out:
			if want, ok := msg.(T); ok {
				return want
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

// loadLink types link into the focused link field and applies the ingestion
// result.
func loadLink(t *testing.T, m Model, link string) Model {
	t.Helper()

	m, cmd := send(m, runes(link))
	if m.Phase() != PhaseIngesting {
		t.Fatalf("expected PhaseIngesting after link edit, got %s", m.Phase())
	}
	done := await[ingestDoneMsg](t, cmd)
	m, _ = send(m, done)
	return m
}

// ask types query into the query field and submits it with Enter, applying
// the service's answer.
func ask(t *testing.T, m Model, query string) Model {
	t.Helper()

	m, _ = send(m, runes(query))
	m, cmd := send(m, keyPress(tea.KeyEnter))
	if m.Phase() != PhaseSubmittingQuery {
		t.Fatalf("expected PhaseSubmittingQuery after Enter, got %s", m.Phase())
	}
	done := await[queryDoneMsg](t, cmd)
	m, _ = send(m, done)
	return m
}

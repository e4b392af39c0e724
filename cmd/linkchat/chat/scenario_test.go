package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"linkchat/internal/config"
	"linkchat/internal/ragclient"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ignoreTime = cmpopts.IgnoreFields(Message{}, "Time")

// ragService is a stand-in for the RAG service speaking its JSON protocol.
type ragService struct {
	mu         sync.Mutex
	loadStatus int
	answers    map[string]string
	paths      []string
}

func (s *ragService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.paths = append(s.paths, r.URL.Path)
	loadStatus := s.loadStatus
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/load/":
		var req ragclient.LoadRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if loadStatus != 0 && loadStatus != http.StatusOK {
			w.WriteHeader(loadStatus)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "could not fetch " + req.URL})
			return
		}
		_ = json.NewEncoder(w).Encode(ragclient.LoadResponse{Status: "success", Message: "ok"})
	case "/query/":
		var req ragclient.QueryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		s.mu.Lock()
		answer := s.answers[req.Query]
		s.mu.Unlock()
		_ = json.NewEncoder(w).Encode(ragclient.QueryResponse{Status: "success", Response: answer})
	case "/clear/":
		_ = json.NewEncoder(w).Encode(ragclient.ClearResponse{Status: "success", Message: "Collection cleared"})
	default:
		http.NotFound(w, r)
	}
}

func (s *ragService) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

func newServiceModel(t *testing.T, svc *ragService) Model {
	t.Helper()

	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Server.BaseURL = srv.URL
	cfg.UI.Markdown = false
	cfg.Chat.Debounce = "30ms"

	hc := &http.Client{Timeout: cfg.GetTimeout(), Transport: &http.Transport{}}
	t.Cleanup(hc.CloseIdleConnections)

	client := ragclient.New(ragclient.Config{BaseURL: srv.URL, HTTPClient: hc})
	m := New(client, cfg)
	closeAndDrain(t, m)

	m, _ = send(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestScenario_LoadThenAsk(t *testing.T) {
	svc := &ragService{answers: map[string]string{"What is this about?": "It is about X."}}
	m := newServiceModel(t, svc)

	m = loadLink(t, m, "https://example.com/doc")

	require.Equal(t, PhaseAwaitingQuery, m.Phase())
	want := []Message{{Role: RoleAssistant, Text: GreetingText}}
	if diff := cmp.Diff(want, m.Transcript().Messages(), ignoreTime); diff != "" {
		t.Fatalf("transcript after load mismatch (-want +got):\n%s", diff)
	}

	m = ask(t, m, "What is this about?")

	want = append(want,
		Message{Role: RoleUser, Text: "What is this about?"},
		Message{Role: RoleAssistant, Text: "It is about X."},
	)
	if diff := cmp.Diff(want, m.Transcript().Messages(), ignoreTime); diff != "" {
		t.Errorf("transcript after query mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, PhaseAwaitingQuery, m.Phase())
	assert.Equal(t, []string{"/load/", "/query/"}, svc.Paths())
}

func TestScenario_LoadServerError(t *testing.T) {
	svc := &ragService{loadStatus: http.StatusInternalServerError}
	m := newServiceModel(t, svc)

	m = loadLink(t, m, "https://example.com/doc")

	require.NotNil(t, m.Notification())
	assert.Equal(t, ServerRejected, m.Notification().Kind)
	assert.Equal(t, LoadFailedText, m.Notification().Text)
	assert.Contains(t, m.Notification().Detail, "could not fetch https://example.com/doc")
	assert.Equal(t, PhaseAwaitingLink, m.Phase())
	assert.Zero(t, m.Transcript().Len())
}

func TestScenario_ServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := config.DefaultConfig()
	cfg.UI.Markdown = false
	m := New(ragclient.New(ragclient.Config{BaseURL: url}), cfg)
	closeAndDrain(t, m)
	m, _ = send(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m = loadLink(t, m, "https://example.com/doc")

	require.NotNil(t, m.Notification())
	assert.Equal(t, TransportFailed, m.Notification().Kind)
	assert.Equal(t, NetworkErrorText, m.Notification().Text)
	assert.Equal(t, PhaseAwaitingLink, m.Phase())
}

func TestScenario_ClearAndReload(t *testing.T) {
	svc := &ragService{answers: map[string]string{"one?": "1", "two?": "2"}}
	m := newServiceModel(t, svc)

	m = loadLink(t, m, "https://a.example")
	m = ask(t, m, "one?")

	m, cmd := send(m, keyPress(tea.KeyCtrlR))
	m, _ = send(m, await[clearDoneMsg](t, cmd))
	require.Equal(t, PhaseAwaitingLink, m.Phase())

	m = loadLink(t, m, "https://b.example")
	m = ask(t, m, "two?")

	want := []Message{
		{Role: RoleAssistant, Text: GreetingText},
		{Role: RoleUser, Text: "one?"},
		{Role: RoleAssistant, Text: "1"},
		{Role: RoleAssistant, Text: GreetingText},
		{Role: RoleUser, Text: "two?"},
		{Role: RoleAssistant, Text: "2"},
	}
	if diff := cmp.Diff(want, m.Transcript().Messages(), ignoreTime); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"/load/", "/query/", "/clear/", "/load/", "/query/"}, svc.Paths())
}

func TestTranscript_MessagesIsACopy(t *testing.T) {
	var tr Transcript
	tr.Append(Message{Role: RoleUser, Text: "a"})

	msgs := tr.Messages()
	msgs[0].Text = "changed"

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, "a", last.Text)

	_, ok = Transcript{}.Last()
	assert.False(t, ok)
}

func TestPhase_Busy(t *testing.T) {
	tests := []struct {
		phase Phase
		busy  bool
		name  string
	}{
		{PhaseAwaitingLink, false, "AwaitingLink"},
		{PhaseIngesting, true, "Ingesting"},
		{PhaseAwaitingQuery, false, "AwaitingQuery"},
		{PhaseSubmittingQuery, true, "SubmittingQuery"},
		{Phase(42), false, "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.busy, tt.phase.Busy(), tt.name)
		assert.Equal(t, tt.name, tt.phase.String())
	}
}

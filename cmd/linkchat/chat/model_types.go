package chat

import (
	"context"
	"sync"
	"time"

	"linkchat/cmd/linkchat/ui"
	"linkchat/internal/config"
	"linkchat/internal/logging"
	"linkchat/internal/ragclient"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
)

// User-facing texts.
const (
	GreetingText      = "Ready when you are, go ahead ask me questions about the contents of the link you just gave me."
	LoadFailedText    = "Failed to load content. Please try again."
	QueryFailedText   = "Failed to retrieve response. Please try again."
	ClearFailedText   = "Failed to clear content. Please try again."
	NetworkErrorText  = "Network error. Please try again."
	LoadingText       = "Loading..."
	ClearingText      = "Clearing..."
	queryDebounceID   = "query"
	linkPlaceholder   = "Paste your link here..."
	queryPlaceholder  = "Ask your query..."
	queryLockedText   = "Paste a link first..."
	inputCharLimit    = 4096
	assistantLabel    = "linkchat"
	userLabel         = "You"
	notificationTitle = "Something went wrong"
)

// Phase is the widget's interaction state.
type Phase int

const (
	PhaseAwaitingLink    Phase = iota // initial; only the link field is live
	PhaseIngesting                    // POST /load/ (or /clear/) in flight
	PhaseAwaitingQuery                // link indexed; query field live
	PhaseSubmittingQuery              // POST /query/ in flight
)

// String returns the display name for each phase
func (p Phase) String() string {
	switch p {
	case PhaseAwaitingLink:
		return "AwaitingLink"
	case PhaseIngesting:
		return "Ingesting"
	case PhaseAwaitingQuery:
		return "AwaitingQuery"
	case PhaseSubmittingQuery:
		return "SubmittingQuery"
	}
	return "Unknown"
}

// Busy reports whether a request is in flight. Both input fields are
// disabled while busy.
func (p Phase) Busy() bool {
	return p == PhaseIngesting || p == PhaseSubmittingQuery
}

// Field identifies one of the two input fields.
type Field int

const (
	FieldLink Field = iota
	FieldQuery
)

func (f Field) String() string {
	if f == FieldQuery {
		return "query"
	}
	return "link"
}

// Role is the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in the transcript
type Message struct {
	Role Role
	Text string
	Time time.Time
}

// Transcript is the append-only conversation history. Insertion order is
// display order.
type Transcript struct {
	messages []Message
}

// Append adds msg at the end.
func (t *Transcript) Append(msg Message) {
	t.messages = append(t.messages, msg)
}

// Messages returns a copy of the history.
func (t Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages.
func (t Transcript) Len() int { return len(t.messages) }

// Last returns the newest message, if any.
func (t Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// ErrorKind distinguishes the two failure kinds of a service call.
type ErrorKind int

const (
	ServerRejected  ErrorKind = iota // non-2xx answer
	TransportFailed                  // no usable answer
)

func (k ErrorKind) String() string {
	if k == ServerRejected {
		return "ServerRejected"
	}
	return "TransportFailed"
}

// Notification is a blocking error shown over the widget until dismissed.
type Notification struct {
	Kind   ErrorKind
	Title  string
	Text   string
	Detail string // underlying error, shown muted
}

// Backend is the RAG service as seen by the widget. *ragclient.Client
// implements it.
type Backend interface {
	Load(ctx context.Context, link string) (*ragclient.LoadResponse, error)
	Query(ctx context.Context, query string) (*ragclient.QueryResponse, error)
	Clear(ctx context.Context) (*ragclient.ClearResponse, error)
}

// Model is the Bubble Tea model for the chat widget. It owns all UI state.
type Model struct {
	// UI Components
	linkInput  textinput.Model
	queryInput textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	styles     ui.Styles
	renderer   *glamour.TermRenderer
	mdCache    *ui.RenderCache

	// State
	phase         Phase
	focus         Field
	transcript    Transcript
	summary       string // service message from the last successful ingestion
	statusMessage string // spinner label while busy
	phaseBefore   Phase  // phase to restore when a clear fails
	notification  *Notification
	debouncer     *ui.Debouncer
	width         int
	height        int
	ready         bool

	// Backend
	backend       Backend
	cfg           *config.Config
	readClipboard func() (string, error)

	// Session
	sessionID string
	log       *logging.Logger
	uiLog     *logging.Logger

	// Shutdown coordination (pointers so Model copies share them)
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce *sync.Once
}

// Messages for tea updates
type (
	ingestDoneMsg struct {
		link string
		resp *ragclient.LoadResponse
		err  error
	}

	queryDoneMsg struct {
		query string
		resp  *ragclient.QueryResponse
		err   error
	}

	clearDoneMsg struct {
		resp *ragclient.ClearResponse
		err  error
	}

	// pasteMsg carries clipboard text for the field that was focused when
	// ctrl+v was pressed.
	pasteMsg struct {
		field Field
		text  string
		err   error
	}
)

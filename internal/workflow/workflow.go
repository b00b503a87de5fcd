// Package workflow drives the notification panel actions against the ajax
// endpoints: saving the per-post settings, and saving them before sending
// the notification email with the values the server stored.
package workflow

import (
	"context"
	"errors"
	"sync"
)

// ErrBusy is returned when an action is started while the same action is
// still in flight.
var ErrBusy = errors.New("workflow: action already in progress")

// State is the state of a running action.
type State int

// States of an action.
const (
	StateIdle State = iota
	StateSaving
	StateSendingAfterSave
	StateDoneSuccess
	StateDoneError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSaving:
		return "saving"
	case StateSendingAfterSave:
		return "sending"
	case StateDoneSuccess:
		return "done"
	case StateDoneError:
		return "error"
	default:
		return "unknown"
	}
}

// Action names a button of the panel.
type Action string

// Actions.
const (
	ActionSave Action = "save"
	ActionSend Action = "send"
)

// Kind discriminates the outcome of one endpoint call.
type Kind int

// Result kinds.
const (
	// KindOK is an answer with success true.
	KindOK Kind = iota
	// KindLogical is an answer with success false.
	KindLogical
	// KindTransport means no well formed answer was received.
	KindTransport
)

// Result is the outcome of one endpoint call. Message is the server message
// or, for KindTransport, the failure detail. A successful save echoes the
// stored values.
type Result struct {
	Kind              Kind
	Message           string
	NotificationEmail *string
	CustomMessage     *string
}

// Fields are the panel inputs.
type Fields struct {
	PostID            uint64
	NotificationEmail string
	CustomMessage     string
}

// API is the server side of the panel.
type API interface {
	Save(ctx context.Context, f Fields) Result
	Send(ctx context.Context, f Fields) Result
}

// Update is a status change shown to the user.
type Update struct {
	Action  Action
	State   State
	Message string
	OK      bool
}

// Observer receives every status change.
type Observer func(Update)

// Workflow runs panel actions, one of each kind at a time.
type Workflow struct {
	api     API
	observe Observer

	mu   sync.Mutex
	busy map[Action]bool
}

// New returns a workflow over api. observe may be nil.
func New(api API, observe Observer) *Workflow {
	if observe == nil {
		observe = func(Update) {}
	}

	return &Workflow{
		api:     api,
		observe: observe,
		busy:    make(map[Action]bool, 2),
	}
}

// Busy reports whether action is in flight.
func (w *Workflow) Busy(action Action) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.busy[action]
}

func (w *Workflow) acquire(action Action) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.busy[action] {
		return false
	}

	w.busy[action] = true

	return true
}

func (w *Workflow) release(action Action) {
	w.mu.Lock()
	w.busy[action] = false
	w.mu.Unlock()

	w.observe(Update{Action: action, State: StateIdle, OK: true})
}

func (w *Workflow) emit(u Update) Update {
	w.observe(u)
	return u
}

func (w *Workflow) finish(action Action, ok bool, msg string) Update {
	state := StateDoneError
	if ok {
		state = StateDoneSuccess
	}

	return w.emit(Update{Action: action, State: state, Message: msg, OK: ok})
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}

	return msg
}

func detail(r Result) string {
	return messageOr(r.Message, "error")
}

// Save stores the panel fields and reports the server message.
func (w *Workflow) Save(ctx context.Context, f Fields) (Update, error) {
	if !w.acquire(ActionSave) {
		return Update{}, ErrBusy
	}
	defer w.release(ActionSave)

	w.emit(Update{Action: ActionSave, State: StateSaving, Message: "Saving...", OK: true})

	r := w.api.Save(ctx, f)

	switch r.Kind {
	case KindOK:
		return w.finish(ActionSave, true, messageOr(r.Message, "Operation successful.")), nil
	case KindLogical:
		return w.finish(ActionSave, false, messageOr(r.Message, "An error occurred.")), nil
	default:
		return w.finish(ActionSave, false, "Error: Could not save settings. "+detail(r)), nil
	}
}

// SaveAndSend stores the panel fields and, once stored, sends the
// notification with the values echoed by the save.
func (w *Workflow) SaveAndSend(ctx context.Context, f Fields) (Update, error) {
	if !w.acquire(ActionSend) {
		return Update{}, ErrBusy
	}
	defer w.release(ActionSend)

	w.emit(Update{Action: ActionSend, State: StateSaving, Message: "Saving settings...", OK: true})

	saved := w.api.Save(ctx, f)

	switch saved.Kind {
	case KindOK:
	case KindLogical:
		return w.finish(ActionSend, false, "Error: "+messageOr(saved.Message, "Could not save settings.")), nil
	default:
		return w.finish(ActionSend, false, "Error: Request failed. "+detail(saved)), nil
	}

	w.emit(Update{
		Action:  ActionSend,
		State:   StateSendingAfterSave,
		Message: messageOr(saved.Message, "Settings saved.") + " Sending email...",
		OK:      true,
	})

	next := f
	if saved.NotificationEmail != nil {
		next.NotificationEmail = *saved.NotificationEmail
	}

	if saved.CustomMessage != nil {
		next.CustomMessage = *saved.CustomMessage
	}

	sent := w.api.Send(ctx, next)

	switch sent.Kind {
	case KindOK:
		return w.finish(ActionSend, true, "Settings saved. "+messageOr(sent.Message, "Email sent successfully.")), nil
	case KindLogical:
		return w.finish(ActionSend, false, "Settings saved. Error: "+messageOr(sent.Message, "Could not send email.")), nil
	default:
		return w.finish(ActionSend, false, "Error: Request failed. "+detail(sent)), nil
	}
}

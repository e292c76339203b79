package notify

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Notifier is the user-facing notification collaborator. The store and the
// browser report domain outcomes through it instead of returning errors.
type Notifier interface {
	Success(title, message string)
	Info(title, message string)
	Warning(title, message string)
	Error(title, message string)
}

// LogNotifier emits notifications as structured log events.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Success(title, message string) {
	log.Info().Str("kind", string(KindSuccess)).Str("title", title).Msg(message)
}

func (n *LogNotifier) Info(title, message string) {
	log.Info().Str("kind", string(KindInfo)).Str("title", title).Msg(message)
}

func (n *LogNotifier) Warning(title, message string) {
	log.Warn().Str("kind", string(KindWarning)).Str("title", title).Msg(message)
}

func (n *LogNotifier) Error(title, message string) {
	log.Error().Str("kind", string(KindError)).Str("title", title).Msg(message)
}

// Notification is a recorded notification, used by Recorder.
type Notification struct {
	Kind    Kind
	Title   string
	Message string
}

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Notification
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) record(kind Kind, title, message string) {
	r.mu.Lock()
	r.events = append(r.events, Notification{Kind: kind, Title: title, Message: message})
	r.mu.Unlock()
}

func (r *Recorder) Success(title, message string) { r.record(KindSuccess, title, message) }
func (r *Recorder) Info(title, message string)    { r.record(KindInfo, title, message) }
func (r *Recorder) Warning(title, message string) { r.record(KindWarning, title, message) }
func (r *Recorder) Error(title, message string)   { r.record(KindError, title, message) }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.events))
	copy(out, r.events)
	return out
}

// Last returns the most recent notification of the given kind, if any.
func (r *Recorder) Last(kind Kind) (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return Notification{}, false
}

// Package notify is the user-facing notification channel: transient,
// stacked messages in a loading, success or error state, each addressable
// by the ID returned when it was created.
package notify

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the state of a notification.
type Kind int

const (
	KindLoading Kind = iota
	KindSuccess
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	}
	return "unknown"
}

// ID identifies a live notification.
type ID string

// AutoClose is how long settled notifications stay visible.
const AutoClose = 3 * time.Second

// Notifier is implemented by every notification surface.
type Notifier interface {
	Loading(msg string) ID
	Success(msg string) ID
	Error(msg string) ID
	// Update moves an existing notification to a new state and message.
	// Unknown IDs are ignored.
	Update(id ID, kind Kind, msg string)
	Dismiss(id ID)
}

// Toast is one notification as shown to the user.
type Toast struct {
	ID        ID
	Kind      Kind
	Message   string
	CreatedAt time.Time
	// ExpiresAt is zero while loading; loading toasts never auto-close.
	ExpiresAt time.Time
}

func newID() ID {
	return ID(uuid.NewString())
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Loading(string) ID       { return newID() }
func (Discard) Success(string) ID       { return newID() }
func (Discard) Error(string) ID         { return newID() }
func (Discard) Update(ID, Kind, string) {}
func (Discard) Dismiss(ID)              {}

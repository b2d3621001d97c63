package notify

import (
	"sync"
	"time"
)

// Event records one call made against a Stack.
type Event struct {
	Op      string // "create", "update" or "dismiss"
	ID      ID
	Kind    Kind
	Message string
}

// Stack keeps live toasts in creation order. It is safe for concurrent use
// and backs the TUI toast area.
type Stack struct {
	mu      sync.Mutex
	toasts  []Toast
	history []Event
	now     func() time.Time
	ttl     time.Duration
	onEvent func()
}

// NewStack returns an empty stack whose settled toasts expire after AutoClose.
func NewStack() *Stack {
	return &Stack{now: time.Now, ttl: AutoClose}
}

// OnChange registers fn to be called after every mutation, outside the lock.
func (s *Stack) OnChange(fn func()) {
	s.mu.Lock()
	s.onEvent = fn
	s.mu.Unlock()
}

func (s *Stack) Loading(msg string) ID { return s.push(KindLoading, msg) }
func (s *Stack) Success(msg string) ID { return s.push(KindSuccess, msg) }
func (s *Stack) Error(msg string) ID   { return s.push(KindError, msg) }

func (s *Stack) push(kind Kind, msg string) ID {
	id := newID()
	s.mu.Lock()
	t := Toast{ID: id, Kind: kind, Message: msg, CreatedAt: s.now()}
	if kind != KindLoading {
		t.ExpiresAt = t.CreatedAt.Add(s.ttl)
	}
	s.toasts = append(s.toasts, t)
	s.history = append(s.history, Event{Op: "create", ID: id, Kind: kind, Message: msg})
	fn := s.onEvent
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
	return id
}

// Update implements Notifier.
func (s *Stack) Update(id ID, kind Kind, msg string) {
	s.mu.Lock()
	found := false
	for i := range s.toasts {
		if s.toasts[i].ID != id {
			continue
		}
		s.toasts[i].Kind = kind
		s.toasts[i].Message = msg
		s.toasts[i].ExpiresAt = time.Time{}
		if kind != KindLoading {
			s.toasts[i].ExpiresAt = s.now().Add(s.ttl)
		}
		found = true
		break
	}
	if found {
		s.history = append(s.history, Event{Op: "update", ID: id, Kind: kind, Message: msg})
	}
	fn := s.onEvent
	s.mu.Unlock()

	if found && fn != nil {
		fn()
	}
}

// Dismiss implements Notifier.
func (s *Stack) Dismiss(id ID) {
	s.mu.Lock()
	found := false
	for i := range s.toasts {
		if s.toasts[i].ID == id {
			s.toasts = append(s.toasts[:i], s.toasts[i+1:]...)
			found = true
			break
		}
	}
	if found {
		s.history = append(s.history, Event{Op: "dismiss", ID: id})
	}
	fn := s.onEvent
	s.mu.Unlock()

	if found && fn != nil {
		fn()
	}
}

// Toasts returns the live toasts, oldest first, after dropping expired ones.
func (s *Stack) Toasts() []Toast {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	live := s.toasts[:0]
	for _, t := range s.toasts {
		if !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt) {
			continue
		}
		live = append(live, t)
	}
	s.toasts = live

	out := make([]Toast, len(live))
	copy(out, live)
	return out
}

// History returns every event recorded so far.
func (s *Stack) History() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.history))
	copy(out, s.history)
	return out
}

// Settled returns the final kind and message of every toast that reached
// success or error, in the order they settled.
func (s *Stack) Settled() []Event {
	var out []Event
	for _, ev := range s.History() {
		if ev.Op == "dismiss" || ev.Kind == KindLoading {
			continue
		}
		out = append(out, ev)
	}
	return out
}

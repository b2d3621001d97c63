// Package budget keeps a client-side collection of budgets in sync with the
// remote API and reports every operation's progress to a notifier.
package budget

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/theirongolddev/hbudget/internal/api"
	"github.com/theirongolddev/hbudget/internal/auth"
	"github.com/theirongolddev/hbudget/internal/model"
	"github.com/theirongolddev/hbudget/internal/notify"
)

// Remote is the subset of the API client the store depends on.
type Remote interface {
	ListBudgets(ctx context.Context, token string) ([]model.Budget, error)
	GetBudget(ctx context.Context, id string) (*model.Budget, error)
	CreateBudget(ctx context.Context, token string, fields model.Fields) (*model.Budget, error)
	UpdateBudget(ctx context.Context, token, id string, fields model.Fields) (*model.Budget, error)
	DeleteBudget(ctx context.Context, token, id string) error
	UploadImage(ctx context.Context, token, filename string, r io.Reader) (*api.UploadResult, error)
}

var _ Remote = (*api.Client)(nil)

// FileHandle is a file selected for upload. A nil handle, or one without a
// reader, means nothing was selected.
type FileHandle struct {
	Name   string
	Reader io.Reader
}

// Store is the client-side budget cache.
type Store struct {
	remote   Remote
	creds    auth.Source
	notifier notify.Notifier
	logger   zerolog.Logger

	staleGuard bool

	// seq tags every operation at issue time.
	seq atomic.Uint64

	mu sync.RWMutex
	st state
}

// state is everything a completed operation may change. Reducers run with
// the store's write lock held.
type state struct {
	budgets  []model.Budget
	imageURL string

	// Newest sequence applied by a list, per written record, and per
	// removed record.
	lastList  uint64
	lastWrite map[string]uint64
	removed   map[string]uint64
}

func (st *state) wrote(id string, seq uint64) {
	st.lastWrite[id] = seq
	delete(st.removed, id)
}

func (st *state) dropped(id string, seq uint64) {
	st.lastWrite[id] = seq
	st.removed[id] = seq
}

// merge applies a list snapshot issued at seq. Records written after seq
// keep their local version; records removed after seq stay removed.
func (st *state) merge(seq uint64, server []model.Budget) []model.Budget {
	local := make(map[string]model.Budget, len(st.budgets))
	for _, b := range st.budgets {
		local[b.ID] = b
	}

	out := make([]model.Budget, 0, len(server))
	seen := make(map[string]bool, len(server))
	for _, b := range server {
		seen[b.ID] = true
		if st.lastWrite[b.ID] <= seq {
			out = append(out, b)
			continue
		}
		if st.removed[b.ID] > seq {
			continue
		}
		if cur, ok := local[b.ID]; ok {
			out = append(out, cur)
		} else {
			out = append(out, b)
		}
	}
	// Created after the snapshot was requested.
	for _, b := range st.budgets {
		if !seen[b.ID] && st.lastWrite[b.ID] > seq {
			out = append(out, b)
		}
	}
	return out
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the developer-facing diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithStaleGuard controls whether completions older than an already
// applied write are dropped. It is on by default; turning it off applies
// completions strictly in arrival order.
func WithStaleGuard(on bool) Option {
	return func(s *Store) { s.staleGuard = on }
}

// New returns an empty store.
func New(remote Remote, creds auth.Source, n notify.Notifier, opts ...Option) *Store {
	if n == nil {
		n = notify.Discard{}
	}
	if creds == nil {
		creds = auth.Chain{}
	}
	s := &Store{
		remote:     remote,
		creds:      creds,
		notifier:   n,
		logger:     log.Logger.With().Str("component", "budget").Logger(),
		staleGuard: true,
		st:         state{lastWrite: make(map[string]uint64), removed: make(map[string]uint64)},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Budgets returns a copy of the cached collection in server order.
func (s *Store) Budgets() []model.Budget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Budget, len(s.st.budgets))
	copy(out, s.st.budgets)
	return out
}

// ImageURL returns the reference from the most recent successful upload.
func (s *Store) ImageURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.imageURL
}

// Initialize loads the collection in the background and returns at once.
// The outcome is only visible through the cache and the notifier.
func (s *Store) Initialize(ctx context.Context) {
	go func() {
		_, _ = s.List(ctx)
	}()
}

// List replaces the collection with the server's. It is silent on success.
func (s *Store) List(ctx context.Context) ([]model.Budget, error) {
	return perform(ctx, s, opList, func(ctx context.Context, token string) ([]model.Budget, error) {
		return s.remote.ListBudgets(ctx, token)
	}, func(st *state, seq uint64, budgets []model.Budget) bool {
		if !s.staleGuard {
			st.budgets = append([]model.Budget(nil), budgets...)
			return true
		}
		if seq < st.lastList {
			return false
		}
		st.lastList = seq
		st.budgets = st.merge(seq, budgets)
		return true
	})
}

// Get fetches one budget without touching the collection. It returns nil
// on any failure. No credential is sent; the endpoint is public.
func (s *Store) Get(ctx context.Context, id string) (*model.Budget, error) {
	return perform(ctx, s, opGet, func(ctx context.Context, _ string) (*model.Budget, error) {
		return s.remote.GetBudget(ctx, id)
	}, nil)
}

// Create adds a budget and appends the server's record to the collection.
func (s *Store) Create(ctx context.Context, fields model.Fields) error {
	_, err := perform(ctx, s, opCreate, func(ctx context.Context, token string) (*model.Budget, error) {
		return s.remote.CreateBudget(ctx, token, fields)
	}, func(st *state, seq uint64, b *model.Budget) bool {
		st.budgets = append(st.budgets, *b)
		st.wrote(b.ID, seq)
		return true
	})
	return err
}

// Update replaces the record with id in place with the server's version.
// Records with other ids are left untouched.
func (s *Store) Update(ctx context.Context, id string, fields model.Fields) error {
	_, err := perform(ctx, s, opUpdate, func(ctx context.Context, token string) (*model.Budget, error) {
		return s.remote.UpdateBudget(ctx, token, id, fields)
	}, func(st *state, seq uint64, b *model.Budget) bool {
		if s.staleGuard && seq < st.lastWrite[id] {
			return false
		}
		st.wrote(id, seq)
		next := make([]model.Budget, len(st.budgets))
		for i, cur := range st.budgets {
			if cur.ID == id {
				next[i] = *b
				continue
			}
			next[i] = cur
		}
		st.budgets = next
		return true
	})
	return err
}

// Remove deletes the record with id, preserving the order of the rest.
func (s *Store) Remove(ctx context.Context, id string) error {
	_, err := perform(ctx, s, opRemove, func(ctx context.Context, token string) (struct{}, error) {
		return struct{}{}, s.remote.DeleteBudget(ctx, token, id)
	}, func(st *state, seq uint64, _ struct{}) bool {
		st.dropped(id, seq)
		next := make([]model.Budget, 0, len(st.budgets))
		for _, cur := range st.budgets {
			if cur.ID != id {
				next = append(next, cur)
			}
		}
		st.budgets = next
		return true
	})
	return err
}

// UploadImage sends the selected file. With nothing selected it does
// nothing at all: no request, no notification, no error.
func (s *Store) UploadImage(ctx context.Context, file *FileHandle) error {
	if file == nil || file.Reader == nil {
		return nil
	}
	_, err := perform(ctx, s, opUpload, func(ctx context.Context, token string) (*api.UploadResult, error) {
		return s.remote.UploadImage(ctx, token, file.Name, file.Reader)
	}, func(st *state, _ uint64, res *api.UploadResult) bool {
		st.imageURL = res.ImageURL
		return true
	})
	return err
}

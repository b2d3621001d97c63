// Package watch provides the long-running budget monitor service.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/mitchellh/hashstructure/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"

	"github.com/theirongolddev/hbudget/internal/api"
	"github.com/theirongolddev/hbudget/internal/auth"
	"github.com/theirongolddev/hbudget/internal/cli"
	"github.com/theirongolddev/hbudget/internal/model"
)

// Lister is the part of the budget store the watcher polls.
type Lister interface {
	List(ctx context.Context) ([]model.Budget, error)
}

// Config controls the watcher runtime behavior.
type Config struct {
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	// Retries is how many extra attempts a failed poll gets within one tick.
	Retries   uint64
	RetryBase time.Duration
	Source    string // base URL, reported in status
}

// Snapshot is a compact collection state for status/event payloads.
type Snapshot struct {
	At       time.Time `json:"at"`
	Count    int       `json:"count"`
	Total    string    `json:"total"`
	Unpriced int       `json:"unpriced,omitempty"`
	Hash     uint64    `json:"hash"`
}

// Change captures what moved between two polls.
type Change struct {
	Added   []model.Budget `json:"added,omitempty"`
	Changed []model.Budget `json:"changed,omitempty"`
	Removed []string       `json:"removed,omitempty"`
}

func (c Change) isZero() bool {
	return len(c.Added) == 0 && len(c.Changed) == 0 && len(c.Removed) == 0
}

// Event is emitted whenever the collection changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Snapshot  Snapshot  `json:"snapshot"`
	Change    Change    `json:"change"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	LastPollAgo     string    `json:"last_poll_ago"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	Source          string    `json:"source,omitempty"`
	Summary         Snapshot  `json:"summary"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// Service provides the watcher runtime and HTTP API.
type Service struct {
	cfg    Config
	src    Lister
	logger zerolog.Logger

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	budgets     []model.Budget
	hashes      map[string]uint64
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new watch service polling src.
func New(src Lister, cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8788"
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}

	return &Service{
		cfg:       cfg,
		src:       src,
		logger:    log.With().Str("component", "watch").Logger(),
		startedAt: time.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	r := gin.New()
	r.Use(requestid.New(), gin.Recovery())
	r.GET("/healthz", s.handleHealth)
	v1 := r.Group("/v1")
	v1.GET("/status", s.handleStatus)
	v1.GET("/budgets", s.handleBudgets)
	v1.GET("/events", s.handleEvents)
	v1.GET("/stream", s.handleStream)
	return r
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce(ctx)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case <-ticker.C:
			s.pollOnce(ctx)
		case err := <-errCh:
			return fmt.Errorf("watch http server: %w", err)
		}
	}
}

func (s *Service) backoff() retry.Backoff {
	b := retry.NewExponential(s.cfg.RetryBase)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithCappedDuration(s.cfg.Interval/2, b)
	return retry.WithMaxRetries(s.cfg.Retries, b)
}

// fetch lists the collection, retrying transient failures. Missing or
// rejected credentials are not retried.
func (s *Service) fetch(ctx context.Context) ([]model.Budget, error) {
	var budgets []model.Budget
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		got, err := s.src.List(ctx)
		if err == nil {
			budgets = got
			return nil
		}
		if errors.Is(err, auth.ErrMissingCredential) || errors.Is(err, api.ErrUnauthorized) ||
			errors.Is(err, context.Canceled) {
			return err
		}
		s.logger.Debug().Err(err).Msg("poll attempt failed")
		return retry.RetryableError(err)
	})
	return budgets, err
}

func (s *Service) pollOnce(ctx context.Context) {
	budgets, err := s.fetch(ctx)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = time.Now()
		s.pollCount++
		s.mu.Unlock()
		s.logger.Warn().Err(err).Msg("poll failed")
		return
	}

	now := time.Now()
	hashes := hashAll(budgets)
	snap := snapshotOf(budgets, hashes, now)

	var (
		ev      Event
		publish bool
	)

	s.mu.Lock()
	prev := s.hashes
	prevExists := s.hasSnapshot

	s.hasSnapshot = true
	s.snapshot = snap
	s.budgets = budgets
	s.hashes = hashes
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	if !prevExists {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "snapshot",
			Timestamp: now,
			Snapshot:  snap,
		}
		publish = true
	} else if change := diffBudgets(prev, budgets, hashes); !change.isZero() {
		s.nextEventID++
		ev = Event{
			ID:        s.nextEventID,
			Type:      "budgets_changed",
			Timestamp: now,
			Snapshot:  snap,
			Change:    change,
		}
		publish = true
	}
	s.mu.Unlock()

	if publish {
		s.logger.Info().Int64("event", ev.ID).Str("type", ev.Type).Int("count", snap.Count).Msg("collection updated")
		s.publishEvent(ev)
	}
}

// hashAll hashes each record's fields, keyed by id.
func hashAll(budgets []model.Budget) map[string]uint64 {
	out := make(map[string]uint64, len(budgets))
	for _, b := range budgets {
		h, err := hashstructure.Hash(b.Fields, hashstructure.FormatV2, nil)
		if err != nil {
			// Unhashable payloads always compare as changed.
			h = uint64(time.Now().UnixNano())
		}
		out[b.ID] = h
	}
	return out
}

func snapshotOf(budgets []model.Budget, hashes map[string]uint64, at time.Time) Snapshot {
	total, counted := cli.Total(budgets)

	ids := make([]string, 0, len(hashes))
	for id := range hashes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	pairs := make([]uint64, 0, len(ids))
	for _, id := range ids {
		pairs = append(pairs, hashes[id])
	}
	sum, _ := hashstructure.Hash(struct {
		IDs    []string
		Hashes []uint64
	}{ids, pairs}, hashstructure.FormatV2, nil)

	return Snapshot{
		At:       at,
		Count:    len(budgets),
		Total:    total.StringFixed(2),
		Unpriced: len(budgets) - counted,
		Hash:     sum,
	}
}

func diffBudgets(prev map[string]uint64, curr []model.Budget, currHashes map[string]uint64) Change {
	var c Change
	for _, b := range curr {
		old, ok := prev[b.ID]
		switch {
		case !ok:
			c.Added = append(c.Added, b)
		case old != currHashes[b.ID]:
			c.Changed = append(c.Changed, b)
		}
	}
	for id := range prev {
		if _, ok := currHashes[id]; !ok {
			c.Removed = append(c.Removed, id)
		}
	}
	sort.Strings(c.Removed)
	return c
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		LastPollAgo:     cli.FormatAgo(s.lastPollAt),
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		Source:          s.cfg.Source,
		Summary:         s.snapshot,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok\n")
}

func (s *Service) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleBudgets(c *gin.Context) {
	s.mu.RLock()
	budgets := make([]model.Budget, len(s.budgets))
	copy(budgets, s.budgets)
	s.mu.RUnlock()

	c.JSON(http.StatusOK, budgets)
}

func (s *Service) handleEvents(c *gin.Context) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	c.JSON(http.StatusOK, events)
}

func (s *Service) handleStream(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	// Send current snapshot immediately.
	c.SSEvent("snapshot", Event{
		Type:      "snapshot",
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-ch:
			c.SSEvent(ev.Type, ev)
			return true
		}
	})
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// Describe renders a status for terminal output.
func Describe(st Status) string {
	out := fmt.Sprintf("  Source: %s\n  Last poll: %s\n  Poll count: %d\n  Budgets: %d\n  Total: %s\n",
		st.Source, st.LastPollAgo, st.PollCount, st.Summary.Count, st.Summary.Total)
	if st.LastError != "" {
		out += "  Last error: " + st.LastError + "\n"
	}
	out += "  Up since: " + humanize.Time(st.StartedAt) + "\n"
	return out
}

package watch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/theirongolddev/hbudget/internal/auth"
	"github.com/theirongolddev/hbudget/internal/model"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// scripted returns one result per call, repeating the last one.
type scripted struct {
	mu    sync.Mutex
	calls int
	steps []func() ([]model.Budget, error)
}

func (s *scripted) List(context.Context) ([]model.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	s.calls++
	return s.steps[i]()
}

func ok(budgets ...model.Budget) func() ([]model.Budget, error) {
	return func() ([]model.Budget, error) { return budgets, nil }
}

func fail(err error) func() ([]model.Budget, error) {
	return func() ([]model.Budget, error) { return nil, err }
}

func bud(id, name string, amount int) model.Budget {
	return model.Budget{ID: id, Fields: map[string]any{"name": name, "amount": json.Number(strconv.Itoa(amount))}}
}

func TestDiffBudgets(t *testing.T) {
	prev := []model.Budget{bud("1", "Rent", 1200), bud("2", "Food", 300), bud("3", "Fuel", 80)}
	curr := []model.Budget{bud("1", "Rent", 1250), bud("2", "Food", 300), bud("4", "Gym", 40)}

	c := diffBudgets(hashAll(prev), curr, hashAll(curr))
	if len(c.Added) != 1 || c.Added[0].ID != "4" {
		t.Fatalf("Added = %v, want [4]", c.Added)
	}
	if len(c.Changed) != 1 || c.Changed[0].ID != "1" {
		t.Fatalf("Changed = %v, want [1]", c.Changed)
	}
	if len(c.Removed) != 1 || c.Removed[0] != "3" {
		t.Fatalf("Removed = %v, want [3]", c.Removed)
	}
	if c.isZero() {
		t.Fatal("change unexpectedly reported as zero")
	}

	same := diffBudgets(hashAll(prev), prev, hashAll(prev))
	if !same.isZero() {
		t.Fatalf("identical polls produced %+v", same)
	}
}

func TestSnapshotOf(t *testing.T) {
	budgets := []model.Budget{bud("1", "Rent", 1200), {ID: "2", Fields: map[string]any{"name": "Misc"}}}
	a := snapshotOf(budgets, hashAll(budgets), time.Now())
	if a.Count != 2 || a.Total != "1200.00" || a.Unpriced != 1 {
		t.Fatalf("snapshot = %+v", a)
	}

	reversed := []model.Budget{budgets[1], budgets[0]}
	b := snapshotOf(reversed, hashAll(reversed), time.Now())
	if a.Hash != b.Hash {
		t.Fatal("collection hash depends on order")
	}
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(&scripted{}, Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestPollOnce_EmitsSnapshotThenChanges(t *testing.T) {
	src := &scripted{steps: []func() ([]model.Budget, error){
		ok(bud("1", "Rent", 1200)),
		ok(bud("1", "Rent", 1200)),
		ok(bud("1", "Rent", 1200), bud("2", "Food", 300)),
	}}
	s := New(src, Config{Interval: 10 * time.Second})
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx)
	s.pollOnce(ctx)

	st := s.snapshotStatus()
	if st.PollCount != 3 || st.EventCount != 2 {
		t.Fatalf("status = %+v, want 3 polls and 2 events", st)
	}
	if st.Summary.Count != 2 || st.Summary.Total != "1500.00" {
		t.Fatalf("summary = %+v", st.Summary)
	}
	if s.events[0].Type != "snapshot" || s.events[1].Type != "budgets_changed" {
		t.Fatalf("event types = %s, %s", s.events[0].Type, s.events[1].Type)
	}
	if len(s.events[1].Change.Added) != 1 {
		t.Fatalf("change = %+v", s.events[1].Change)
	}
}

func TestPollOnce_RetriesTransientFailures(t *testing.T) {
	src := &scripted{steps: []func() ([]model.Budget, error){
		fail(errors.New("connection reset")),
		fail(errors.New("connection reset")),
		ok(bud("1", "Rent", 1200)),
	}}
	s := New(src, Config{Interval: 10 * time.Second, Retries: 3, RetryBase: time.Millisecond})

	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.LastError != "" {
		t.Fatalf("LastError = %q, want recovered", st.LastError)
	}
	if src.calls != 3 {
		t.Fatalf("calls = %d, want 3", src.calls)
	}
}

func TestPollOnce_DoesNotRetryMissingCredential(t *testing.T) {
	src := &scripted{steps: []func() ([]model.Budget, error){fail(auth.ErrMissingCredential)}}
	s := New(src, Config{Interval: 10 * time.Second, Retries: 3, RetryBase: time.Millisecond})

	s.pollOnce(context.Background())

	st := s.snapshotStatus()
	if st.LastError == "" || src.calls != 1 {
		t.Fatalf("LastError = %q, calls = %d; want one failed call", st.LastError, src.calls)
	}
	if st.EventCount != 0 {
		t.Fatalf("failed poll published %d events", st.EventCount)
	}
}

func TestHTTPEndpoints(t *testing.T) {
	src := &scripted{steps: []func() ([]model.Budget, error){ok(bud("7", "Rent", 900))}}
	s := New(src, Config{Interval: 10 * time.Second, Source: "http://api"})
	s.pollOnce(context.Background())

	h := s.Handler()
	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s = %d", path, rec.Code)
		}
		return rec
	}

	if body := get("/healthz").Body.String(); body != "ok\n" {
		t.Fatalf("healthz body = %q", body)
	}

	rec := get("/v1/status")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}
	var st Status
	if err := json.Unmarshal(rec.Body.Bytes(), &st); err != nil {
		t.Fatal(err)
	}
	if st.Source != "http://api" || st.Summary.Count != 1 {
		t.Fatalf("status = %+v", st)
	}

	var budgets []model.Budget
	if err := json.Unmarshal(get("/v1/budgets").Body.Bytes(), &budgets); err != nil {
		t.Fatal(err)
	}
	if len(budgets) != 1 || budgets[0].ID != "7" {
		t.Fatalf("budgets = %v", budgets)
	}

	var events []Event
	if err := json.Unmarshal(get("/v1/events").Body.Bytes(), &events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
}

func TestStreamSendsCurrentSnapshot(t *testing.T) {
	src := &scripted{steps: []func() ([]model.Budget, error){ok(bud("1", "Rent", 1200))}}
	s := New(src, Config{Interval: 10 * time.Second})
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/stream", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("Content-Type = %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	var sawEvent bool
	for sc.Scan() {
		line := sc.Text()
		if line == "event:snapshot" || line == "event: snapshot" {
			sawEvent = true
		}
		if strings.HasPrefix(line, "data:") {
			var ev Event
			if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &ev); err != nil {
				t.Fatal(err)
			}
			if ev.Snapshot.Count != 1 {
				t.Fatalf("snapshot count = %d, want 1", ev.Snapshot.Count)
			}
			break
		}
	}
	if !sawEvent {
		t.Fatal("no snapshot event line")
	}
}

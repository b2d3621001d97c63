package tui

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/theirongolddev/hbudget/internal/budget"
	"github.com/theirongolddev/hbudget/internal/model"
	"github.com/theirongolddev/hbudget/internal/notify"
	"github.com/theirongolddev/hbudget/internal/tui/components"
)

type fakeStore struct {
	budgets  []model.Budget
	imageURL string
	created  []model.Fields
	updated  map[string]model.Fields
	removed  []string
}

func (f *fakeStore) Budgets() []model.Budget { return append([]model.Budget(nil), f.budgets...) }
func (f *fakeStore) ImageURL() string        { return f.imageURL }

func (f *fakeStore) List(context.Context) ([]model.Budget, error) { return f.Budgets(), nil }

func (f *fakeStore) Create(_ context.Context, fields model.Fields) error {
	f.created = append(f.created, fields)
	return nil
}

func (f *fakeStore) Update(_ context.Context, id string, fields model.Fields) error {
	if f.updated == nil {
		f.updated = make(map[string]model.Fields)
	}
	f.updated[id] = fields
	return nil
}

func (f *fakeStore) Remove(_ context.Context, id string) error {
	f.removed = append(f.removed, id)
	return nil
}

func (f *fakeStore) UploadImage(context.Context, *budget.FileHandle) error { return nil }

func bud(id, name, category string, amount string) model.Budget {
	fields := map[string]any{"name": name}
	if category != "" {
		fields["category"] = category
	}
	if amount != "" {
		fields["amount"] = json.Number(amount)
	}
	return model.Budget{ID: id, Fields: fields}
}

func keyPress(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// loadedApp returns an app that has finished its first list.
func loadedApp(t *testing.T, fs *fakeStore) App {
	t.Helper()
	a := NewApp(fs, notify.NewStack(), Options{Source: "http://api.test"})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.(App).Update(opDoneMsg{op: "list"})
	return m.(App)
}

func TestInitialListPopulatesView(t *testing.T) {
	fs := &fakeStore{budgets: []model.Budget{
		bud("1", "Rent", "Housing", "1200"),
		bud("2", "Groceries", "Food", "300.50"),
	}}
	a := NewApp(fs, notify.NewStack(), Options{})
	if a.busy != 1 {
		t.Fatalf("busy = %d before first list, want 1", a.busy)
	}

	a = loadedApp(t, fs)
	if !a.loaded || a.busy != 0 {
		t.Fatalf("loaded=%v busy=%d after list", a.loaded, a.busy)
	}
	if a.lastSync.IsZero() {
		t.Fatal("lastSync not set after a successful list")
	}

	view := a.View()
	for _, want := range []string{"Rent", "Groceries", "$1,500.50", "http://api.test"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTabKeysAndClicks(t *testing.T) {
	fs := &fakeStore{budgets: []model.Budget{bud("1", "Rent", "Housing", "1200")}}
	a := loadedApp(t, fs)

	m, _ := a.Update(keyPress("c"))
	a = m.(App)
	if a.activeTab != tabCategories {
		t.Fatalf("activeTab = %d after c, want categories", a.activeTab)
	}
	if !strings.Contains(a.View(), "Housing") {
		t.Error("categories view missing category name")
	}

	x := 1 + components.TabWidth(0, a.activeTab)/2
	m, _ = a.Update(tea.MouseMsg{X: x, Y: 0, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	a = m.(App)
	if a.activeTab != tabBudgets {
		t.Fatalf("activeTab = %d after click, want budgets", a.activeTab)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	fs := &fakeStore{budgets: []model.Budget{bud("1", "Rent", "", "1200"), bud("2", "Gym", "", "40")}}
	a := loadedApp(t, fs)

	m, _ := a.Update(keyPress("j"))
	m, _ = m.(App).Update(keyPress("d"))
	a = m.(App)
	if a.mode != modeConfirmDelete || a.deleteID != "2" {
		t.Fatalf("mode=%d deleteID=%q, want confirm on 2", a.mode, a.deleteID)
	}
	if !strings.Contains(a.View(), "Gym") {
		t.Error("confirm view missing budget name")
	}

	// Anything but y cancels.
	m, cmd := a.Update(keyPress("n"))
	if cmd != nil || m.(App).mode != modeBrowse {
		t.Fatal("n did not cancel the delete")
	}

	m, _ = m.(App).Update(keyPress("d"))
	m, cmd = m.(App).Update(keyPress("y"))
	if cmd == nil {
		t.Fatal("y returned no command")
	}
	if m.(App).busy != 1 {
		t.Fatalf("busy = %d while removing, want 1", m.(App).busy)
	}
	msg := cmd()
	if done, ok := msg.(opDoneMsg); !ok || done.op != "remove" {
		t.Fatalf("cmd returned %#v", msg)
	}
	if len(fs.removed) != 1 || fs.removed[0] != "2" {
		t.Fatalf("removed = %v, want [2]", fs.removed)
	}
}

func TestSyncKeepsCursorOnRecord(t *testing.T) {
	fs := &fakeStore{budgets: []model.Budget{bud("1", "A", "", "1"), bud("2", "B", "", "2"), bud("3", "C", "", "3")}}
	a := loadedApp(t, fs)
	a.table.SetCursor(2)

	fs.budgets = []model.Budget{bud("2", "B", "", "2"), bud("3", "C", "", "3")}
	m, _ := a.Update(opDoneMsg{op: "remove"})
	a = m.(App)
	if b, ok := a.selected(); !ok || b.ID != "3" {
		t.Fatalf("selected = %v, want 3", b)
	}

	fs.budgets = nil
	m, _ = a.Update(opDoneMsg{op: "remove"})
	if _, ok := m.(App).selected(); ok {
		t.Fatal("selection survived an empty collection")
	}
}

func TestUploadPrefillsAddForm(t *testing.T) {
	fs := &fakeStore{imageURL: "https://cdn.test/r.jpg"}
	a := loadedApp(t, fs)

	m, _ := a.Update(opDoneMsg{op: "upload"})
	a = m.(App)
	if a.lastImage != fs.imageURL {
		t.Fatalf("lastImage = %q", a.lastImage)
	}

	m, _ = a.Update(keyPress("a"))
	a = m.(App)
	if a.mode != modeForm || a.formVals == nil {
		t.Fatal("a did not open the form")
	}
	if a.formVals.imageURL != fs.imageURL {
		t.Fatalf("form image = %q, want last upload", a.formVals.imageURL)
	}

	m, _ = a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.(App).mode != modeBrowse || m.(App).form != nil {
		t.Fatal("esc did not close the form")
	}
}

func TestUploadEmptyPathDoesNothing(t *testing.T) {
	a := loadedApp(t, &fakeStore{})
	m, _ := a.Update(keyPress("u"))
	a = m.(App)
	if a.mode != modeUpload {
		t.Fatal("u did not open the upload prompt")
	}
	m, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.(App).busy != 0 || m.(App).mode != modeBrowse {
		t.Fatal("empty path started an upload")
	}
}

func TestFormFields(t *testing.T) {
	v := &formValues{name: " Rent ", amount: "1200.5", category: "Housing", imageURL: "https://x/y.png"}
	f, err := formFields(v, false)
	if err != nil {
		t.Fatal(err)
	}
	if f["name"] != "Rent" || f["amount"] != json.Number("1200.5") || f["image_url"] != "https://x/y.png" {
		t.Fatalf("fields = %v", f)
	}

	if _, err := formFields(&formValues{amount: "3"}, false); err == nil {
		t.Fatal("create without a name succeeded")
	}

	f, err = formFields(&formValues{name: "Gym", amount: "40"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := f["image_url"]; ok {
		t.Fatalf("edit sent an empty image url: %v", f)
	}
}

func TestCategorize(t *testing.T) {
	cats := categorize([]model.Budget{
		bud("1", "Rent", "Housing", "1200"),
		bud("2", "Power", "Housing", "80"),
		bud("3", "Food", "Food", "300"),
		bud("4", "Misc", "", ""),
	})
	if len(cats) != 3 {
		t.Fatalf("got %d categories, want 3", len(cats))
	}
	if cats[0].Name != "Housing" || cats[0].Count != 2 || cats[0].Amount.String() != "1280" {
		t.Fatalf("first = %+v", cats[0])
	}
	if cats[2].Name != uncategorized || cats[2].Count != 1 {
		t.Fatalf("last = %+v", cats[2])
	}
}

func TestTooNarrow(t *testing.T) {
	a := NewApp(&fakeStore{}, notify.NewStack(), Options{})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	if !strings.Contains(m.View(), "too narrow") {
		t.Fatal("narrow terminal not reported")
	}
}

package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/hbudget/internal/budget"
	"github.com/theirongolddev/hbudget/internal/cli"
	"github.com/theirongolddev/hbudget/internal/model"
	"github.com/theirongolddev/hbudget/internal/tui/components"
	"github.com/theirongolddev/hbudget/internal/tui/theme"
)

// formValues holds the add/edit form state. It lives behind a pointer so
// huh keeps writing to the same fields as the App value is copied.
type formValues struct {
	name     string
	amount   string
	category string
	imageURL string
}

func valuesFrom(b *model.Budget) *formValues {
	v := &formValues{}
	if b == nil {
		return v
	}
	v.name = b.Name()
	v.category = b.Category()
	v.imageURL = b.Text(model.FieldImageURL)
	if d, ok := b.Amount(); ok {
		v.amount = d.String()
	}
	return v
}

func newBudgetForm(title string, v *formValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&v.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Amount").
				Placeholder("0.00").
				Value(&v.amount).
				Validate(func(s string) error {
					if _, err := decimal.NewFromString(strings.TrimSpace(s)); err != nil {
						return errors.New("not a number")
					}
					return nil
				}),
			huh.NewInput().
				Title("Category").
				Value(&v.category),
			huh.NewInput().
				Title("Image URL").
				Description("Press u in the list to upload a receipt").
				Value(&v.imageURL),
		).Title(title),
	).WithShowHelp(true)
}

// openForm starts the add form, or the edit form when b is set.
func (a App) openForm(b *model.Budget) (tea.Model, tea.Cmd) {
	a.formVals = valuesFrom(b)
	title := "Add budget"
	a.editingID = ""
	if b != nil {
		title = fmt.Sprintf("Edit budget %s", b.ID)
		a.editingID = b.ID
	} else if a.lastImage != "" {
		a.formVals.imageURL = a.lastImage
	}

	a.form = newBudgetForm(title, a.formVals)
	if a.width > 0 {
		a.form = a.form.WithWidth(a.contentWidth())
	}
	a.mode = modeForm
	return a, a.form.Init()
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "esc" {
		a.closeForm()
		return a, nil
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		return a.submitForm()
	case huh.StateAborted:
		a.closeForm()
		return a, nil
	}
	return a, cmd
}

func (a *App) closeForm() {
	a.mode = modeBrowse
	a.form = nil
	a.formVals = nil
	a.editingID = ""
}

// submitForm turns the completed form into a create or update.
func (a App) submitForm() (tea.Model, tea.Cmd) {
	v := a.formVals
	id := a.editingID
	a.closeForm()

	fields, err := formFields(v, id != "")
	if err != nil {
		a.toasts.Error(err.Error())
		return a, nil
	}

	a.busy++
	if id != "" {
		return a, a.updateCmd(id, fields)
	}
	return a, a.createCmd(fields)
}

// formFields validates v the same way the add and edit commands do.
func formFields(v *formValues, editing bool) (model.Fields, error) {
	in := cli.BudgetInput{
		Name:     v.name,
		Amount:   v.amount,
		Category: v.category,
	}
	if url := strings.TrimSpace(v.imageURL); url != "" {
		in.Extra = []string{model.FieldImageURL + "=" + url}
	}
	if !editing {
		return in.FieldsForCreate()
	}
	in.Set = map[string]bool{"name": true, "amount": true, "category": true}
	return in.FieldsForUpdate()
}

// ─── Upload ─────────────────────────────────────────────────────

func newPathInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "~/receipts/march.jpg"
	ti.Prompt = "› "
	ti.CharLimit = 512
	return ti
}

func (a App) updateUpload(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = modeBrowse
		a.pathInput.Blur()
		return a, nil
	case "enter":
		path := expandHome(strings.TrimSpace(a.pathInput.Value()))
		a.mode = modeBrowse
		a.pathInput.Blur()
		if path == "" {
			return a, nil
		}
		a.busy++
		return a, a.uploadCmd(path)
	}

	var cmd tea.Cmd
	a.pathInput, cmd = a.pathInput.Update(msg)
	return a, cmd
}

func (a App) uploadCmd(path string) tea.Cmd {
	s := a.store
	n := a.toasts
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			n.Error(fmt.Sprintf("Cannot open %s", filepath.Base(path)))
			return opDoneMsg{op: "upload", err: err}
		}
		defer f.Close()
		err = s.UploadImage(context.Background(), &budget.FileHandle{Name: filepath.Base(path), Reader: f})
		return opDoneMsg{op: "upload", err: err}
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func (a App) viewUpload(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder
	b.WriteString(a.pathInput.View())
	b.WriteString("\n\n")
	b.WriteString(muted.Render("Enter to upload · Esc to cancel"))
	if a.lastImage != "" {
		b.WriteString("\n")
		b.WriteString(muted.Render("Last upload: " + cli.Truncate(a.lastImage, cw-20)))
	}
	return components.ContentCard("Upload receipt image", b.String(), cw, true)
}

func (a App) viewConfirmDelete(cw int) string {
	t := theme.Active
	name := a.deleteID
	if i := model.IndexOf(a.budgets, a.deleteID); i >= 0 && a.budgets[i].Name() != "" {
		name = a.budgets[i].Name()
	}

	warn := lipgloss.NewStyle().Foreground(t.Red).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	body := warn.Render(fmt.Sprintf("Delete %q?", name)) + "\n\n" + muted.Render("y to confirm · any other key to cancel")
	return components.ContentCard("Delete budget", body, cw, true)
}

// Package tui provides the interactive Bubble Tea client for hbudget.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/hbudget/internal/budget"
	"github.com/theirongolddev/hbudget/internal/cli"
	"github.com/theirongolddev/hbudget/internal/model"
	"github.com/theirongolddev/hbudget/internal/notify"
	"github.com/theirongolddev/hbudget/internal/tui/components"
	"github.com/theirongolddev/hbudget/internal/tui/theme"
)

// Store is the budget state the TUI drives.
type Store interface {
	Budgets() []model.Budget
	ImageURL() string
	List(ctx context.Context) ([]model.Budget, error)
	Create(ctx context.Context, fields model.Fields) error
	Update(ctx context.Context, id string, fields model.Fields) error
	Remove(ctx context.Context, id string) error
	UploadImage(ctx context.Context, file *budget.FileHandle) error
}

// Toasts is the notification surface the TUI draws.
type Toasts interface {
	Toasts() []notify.Toast
	Error(msg string) notify.ID
}

// Options tune the TUI.
type Options struct {
	Source          string        // API base URL shown in the status bar
	RefreshInterval time.Duration // auto-refresh period; 0 disables
}

// opDoneMsg is sent when a store operation settles.
type opDoneMsg struct {
	op  string
	err error
}

type tickMsg struct{}

type mode int

const (
	modeBrowse mode = iota
	modeForm
	modeUpload
	modeConfirmDelete
)

const (
	tabBudgets = iota
	tabCategories
)

const (
	minTerminalWidth = 60
	maxContentWidth  = 160
	minContentHeight = 5
)

// App is the root Bubble Tea model.
type App struct {
	store  Store
	toasts Toasts
	opts   Options

	// Data
	budgets   []model.Budget
	loaded    bool
	lastSync  time.Time
	lastImage string
	busy      int

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	mode      mode
	table     table.Model
	spinner   spinner.Model

	// Add/edit form (huh)
	form      *huh.Form
	formVals  *formValues
	editingID string

	// Upload path prompt
	pathInput textinput.Model

	// Pending delete
	deleteID string
}

// NewApp creates a new TUI app model over s, drawing toasts from n.
func NewApp(s Store, n Toasts, opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	return App{
		store:     s,
		toasts:    n,
		opts:      opts,
		busy:      1, // initial list
		spinner:   sp,
		table:     newBudgetTable(),
		pathInput: newPathInput(),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		tickCmd(),
		a.listCmd(),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(a.contentWidth())
		}
		a.layoutTable()
		return a, nil

	case tea.MouseMsg:
		if a.mode != modeBrowse || a.showHelp {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.table.MoveUp(1)
		case tea.MouseButtonWheelDown:
			a.table.MoveDown(1)
		case tea.MouseButtonLeft:
			// Tab bar is the first line.
			if msg.Y == 0 {
				if tab := components.TabAtX(msg.X, a.activeTab); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.mode {
		case modeForm:
			return a.updateForm(msg)
		case modeUpload:
			return a.updateUpload(msg)
		case modeConfirmDelete:
			return a.updateConfirmDelete(msg)
		}
		return a.updateBrowse(msg)

	case opDoneMsg:
		if a.busy > 0 {
			a.busy--
		}
		switch msg.op {
		case "list":
			a.loaded = true
			if msg.err == nil {
				a.lastSync = time.Now()
			}
		case "upload":
			if msg.err == nil {
				a.lastImage = a.store.ImageURL()
			}
		}
		a.syncBudgets()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.loaded && a.opts.RefreshInterval > 0 && a.busy == 0 &&
			time.Since(a.lastSync) >= a.opts.RefreshInterval {
			a.busy++
			cmds = append(cmds, a.listCmd())
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the active input (cursor blinks, etc.)
	switch a.mode {
	case modeForm:
		return a.updateForm(msg)
	case modeUpload:
		var cmd tea.Cmd
		a.pathInput, cmd = a.pathInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := msg.String()

	if k == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch k {
	case "q":
		return a, tea.Quit
	case "r":
		a.busy++
		return a, a.listCmd()
	case "a":
		return a.openForm(nil)
	case "e", "enter":
		if b, ok := a.selected(); ok {
			return a.openForm(&b)
		}
		return a, nil
	case "d", "delete":
		if b, ok := a.selected(); ok {
			a.mode = modeConfirmDelete
			a.deleteID = b.ID
		}
		return a, nil
	case "u":
		a.mode = modeUpload
		a.pathInput.SetValue("")
		a.pathInput.Focus()
		return a, textinput.Blink
	case "left", "shift+tab":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	}

	if len(k) == 1 {
		if tab := components.TabIdxByKey(rune(k[0])); tab >= 0 {
			a.activeTab = tab
			return a, nil
		}
	}

	if a.activeTab == tabBudgets {
		var cmd tea.Cmd
		a.table, cmd = a.table.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	id := a.deleteID
	a.mode = modeBrowse
	a.deleteID = ""
	switch msg.String() {
	case "y", "Y":
		a.busy++
		return a, a.removeCmd(id)
	}
	return a, nil
}

// selected returns the budget under the table cursor.
func (a App) selected() (model.Budget, bool) {
	i := a.table.Cursor()
	if i < 0 || i >= len(a.budgets) {
		return model.Budget{}, false
	}
	return a.budgets[i], true
}

// syncBudgets copies the store's collection into the view, keeping the
// cursor on the same record when it still exists.
func (a *App) syncBudgets() {
	var keep string
	if b, ok := a.selected(); ok {
		keep = b.ID
	}

	a.budgets = a.store.Budgets()
	a.table.SetRows(budgetRows(a.budgets))

	if i := model.IndexOf(a.budgets, keep); i >= 0 {
		a.table.SetCursor(i)
	} else if c := a.table.Cursor(); c >= len(a.budgets) {
		a.table.SetCursor(max(len(a.budgets)-1, 0))
	}
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	return fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  hbudget needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ hbudget"))
	b.WriteString(subtitleStyle.Render(" · Home Budget"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Fetching budgets..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim)

	section := func(b *strings.Builder, name string, binds []struct{ key, desc string }) {
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, bind := range binds {
			fmt.Fprintf(b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	section(&b, "Navigation", []struct{ key, desc string }{
		{"b c", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Move selection"},
		{"g G", "First / Last budget"},
	})
	b.WriteString("\n")
	section(&b, "Actions", []struct{ key, desc string }{
		{"a", "Add budget"},
		{"e Enter", "Edit selected budget"},
		{"d", "Delete selected budget"},
		{"u", "Upload receipt image"},
		{"r", "Refresh from server"},
		{"Esc", "Cancel form"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) viewMain() string {
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab) + "\n" + components.MetricRow(a.metrics(), cw)
	statusBar := components.RenderStatusBar(a.width, cli.FormatAgo(a.lastSync), a.opts.Source, a.busy)
	toasts := components.RenderToasts(a.toasts.Toasts(), a.spinner.View(), cw)

	contentH := a.height - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if toasts != "" {
		contentH -= lipgloss.Height(toasts)
	}
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	var content string
	switch {
	case a.mode == modeForm && a.form != nil:
		content = a.form.View()
	case a.mode == modeUpload:
		content = a.viewUpload(cw)
	case a.mode == modeConfirmDelete:
		content = a.viewConfirmDelete(cw)
	case a.activeTab == tabCategories:
		content = a.renderCategoriesTab(cw)
	default:
		content = a.renderBudgetsTab(cw)
	}
	content = padHeight(truncateHeight(content, contentH), contentH)

	parts := []string{header, content}
	if toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// metrics are the headline cards above every tab.
func (a App) metrics() []components.Metric {
	t := theme.Active
	total, counted := cli.Total(a.budgets)
	note := ""
	if missing := len(a.budgets) - counted; missing > 0 {
		note = fmt.Sprintf("%d without amount", missing)
	}
	return []components.Metric{
		{Label: "Budgets", Value: cli.FormatNumber(int64(len(a.budgets)))},
		{Label: "Total", Value: cli.FormatAmount(total), Note: note, Color: t.Green},
		{Label: "Categories", Value: cli.FormatNumber(int64(len(categorize(a.budgets))))},
	}
}

// ─── Commands ───────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (a App) listCmd() tea.Cmd {
	s := a.store
	return func() tea.Msg {
		_, err := s.List(context.Background())
		return opDoneMsg{op: "list", err: err}
	}
}

func (a App) createCmd(fields model.Fields) tea.Cmd {
	s := a.store
	return func() tea.Msg {
		return opDoneMsg{op: "create", err: s.Create(context.Background(), fields)}
	}
}

func (a App) updateCmd(id string, fields model.Fields) tea.Cmd {
	s := a.store
	return func() tea.Msg {
		return opDoneMsg{op: "update", err: s.Update(context.Background(), id, fields)}
	}
}

func (a App) removeCmd(id string) tea.Cmd {
	s := a.store
	return func() tea.Msg {
		return opDoneMsg{op: "remove", err: s.Remove(context.Background(), id)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// navKeys limits the table to navigation so action keys stay free.
func navKeys() table.KeyMap {
	return table.KeyMap{
		LineUp:       key.NewBinding(key.WithKeys("up", "k")),
		LineDown:     key.NewBinding(key.WithKeys("down", "j")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		GotoTop:      key.NewBinding(key.WithKeys("home", "g")),
		GotoBottom:   key.NewBinding(key.WithKeys("end", "G")),
	}
}

package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/theirongolddev/hbudget/internal/cli"
	"github.com/theirongolddev/hbudget/internal/model"
	"github.com/theirongolddev/hbudget/internal/tui/components"
	"github.com/theirongolddev/hbudget/internal/tui/theme"
)

const uncategorized = "Uncategorized"

func newBudgetTable() table.Model {
	tbl := table.New(
		table.WithColumns(budgetColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithKeyMap(navKeys()),
	)
	tbl.SetStyles(tableStyles())
	return tbl
}

func tableStyles() table.Styles {
	t := theme.Active
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(t.Border).
		BorderBottom(true).
		Foreground(t.Accent).
		Bold(true)
	s.Cell = s.Cell.Foreground(t.TextPrimary)
	s.Selected = s.Selected.
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true)
	return s
}

// budgetColumns sizes id, name, category and amount to fill width.
func budgetColumns(width int) []table.Column {
	const idW, amountW = 8, 14
	rest := width - idW - amountW - 8 // cell padding
	if rest < 20 {
		rest = 20
	}
	nameW := rest * 3 / 5
	return []table.Column{
		{Title: "ID", Width: idW},
		{Title: "Name", Width: nameW},
		{Title: "Category", Width: rest - nameW},
		{Title: "Amount", Width: amountW},
	}
}

func budgetRows(budgets []model.Budget) []table.Row {
	rows := make([]table.Row, 0, len(budgets))
	for _, r := range cli.BudgetRows(budgets) {
		rows = append(rows, table.Row(r))
	}
	return rows
}

// layoutTable fits the table to the space left by the header, toasts and
// status bar.
func (a *App) layoutTable() {
	cw := a.contentWidth()
	inner := components.CardInnerWidth(cw)
	a.table.SetColumns(budgetColumns(inner))
	a.table.SetWidth(inner)

	// tab bar + metric cards + card borders + footer + status bar
	h := a.height - 1 - 5 - 4 - 2 - 1
	if h < minContentHeight {
		h = minContentHeight
	}
	a.table.SetHeight(h)
}

func (a App) renderBudgetsTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)

	if len(a.budgets) == 0 {
		body := muted.Render("No budgets yet. Press a to add one, r to refresh.")
		return components.ContentCard("Budgets", body, cw, true)
	}

	footer := muted.Render(fmt.Sprintf("%d of %d · a add · e edit · d delete · u upload",
		a.table.Cursor()+1, len(a.budgets)))
	return components.ContentCard("Budgets", a.table.View()+"\n"+footer, cw, true)
}

// categoryTotal is one row of the categories tab.
type categoryTotal struct {
	Name   string
	Count  int
	Amount decimal.Decimal
}

// categorize sums amounts per category, largest first. Budgets without a
// category are grouped under uncategorized.
func categorize(budgets []model.Budget) []categoryTotal {
	idx := make(map[string]int)
	var out []categoryTotal
	for _, b := range budgets {
		name := strings.TrimSpace(b.Category())
		if name == "" {
			name = uncategorized
		}
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, categoryTotal{Name: name})
		}
		out[i].Count++
		if d, ok := b.Amount(); ok {
			out[i].Amount = out[i].Amount.Add(d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (a App) renderCategoriesTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	label := lipgloss.NewStyle().Foreground(t.TextPrimary)
	amount := lipgloss.NewStyle().Foreground(t.Green)

	cats := categorize(a.budgets)
	if len(cats) == 0 {
		return components.ContentCard("Categories", muted.Render("No budgets yet."), cw, false)
	}

	total, _ := cli.Total(a.budgets)
	inner := components.CardInnerWidth(cw)
	const nameW, countW, amountW = 20, 6, 14
	barW := inner - nameW - countW - amountW - 4
	if barW < 10 {
		barW = 10
	}

	var b strings.Builder
	for i, c := range cats {
		pct := 0.0
		if total.IsPositive() && c.Amount.IsPositive() {
			pct, _ = c.Amount.Div(total).Float64()
		}
		fmt.Fprintf(&b, "%s %s %s %s",
			label.Render(fmt.Sprintf("%-*s", nameW, cli.Truncate(c.Name, nameW))),
			muted.Render(fmt.Sprintf("%*d", countW, c.Count)),
			amount.Render(fmt.Sprintf("%*s", amountW, cli.FormatAmount(c.Amount))),
			components.ShareBar(pct, barW))
		if i < len(cats)-1 {
			b.WriteString("\n")
		}
	}
	return components.ContentCard("Categories", b.String(), cw, false)
}

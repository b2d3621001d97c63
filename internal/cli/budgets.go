package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/hbudget/internal/model"
)

// BudgetRows converts budgets into table rows: id, name, category, amount.
func BudgetRows(budgets []model.Budget) [][]string {
	rows := make([][]string, 0, len(budgets))
	for _, b := range budgets {
		amount := "-"
		if d, ok := b.Amount(); ok {
			amount = FormatAmount(d)
		}
		rows = append(rows, []string{
			b.ID,
			Truncate(b.Name(), 32),
			Truncate(b.Category(), 20),
			amount,
		})
	}
	return rows
}

// RenderBudgets renders the collection as a table with a total row.
func RenderBudgets(budgets []model.Budget) string {
	if len(budgets) == 0 {
		return mutedStyle.Render("  No budgets.") + "\n"
	}

	rows := BudgetRows(budgets)
	total, counted := Total(budgets)
	rows = append(rows, []string{"---"})
	rows = append(rows, []string{"", fmt.Sprintf("%d budgets", len(budgets)), "", FormatAmount(total)})
	if counted < len(budgets) {
		rows[len(rows)-1][2] = fmt.Sprintf("%d without amount", len(budgets)-counted)
	}

	return RenderTable(Table{
		Headers:  []string{"ID", "Name", "Category", "Amount"},
		Rows:     rows,
		LeftCols: 3,
	})
}

// RenderBudget renders a single budget as aligned key/value lines, well-known
// fields first.
func RenderBudget(b model.Budget) string {
	var sb strings.Builder
	line := func(k, v string) {
		fmt.Fprintf(&sb, "  %s %s\n", headerStyle.Render(fmt.Sprintf("%-10s", k)), valueStyle.Render(v))
	}

	line("id", b.ID)
	if name := b.Name(); name != "" {
		line("name", name)
	}
	if d, ok := b.Amount(); ok {
		fmt.Fprintf(&sb, "  %s %s\n", headerStyle.Render(fmt.Sprintf("%-10s", "amount")), amountStyle.Render(FormatAmount(d)))
	}
	if c := b.Category(); c != "" {
		line("category", c)
	}
	for _, k := range b.Extra() {
		line(k, b.Text(k))
	}
	return sb.String()
}

// Total sums the amounts that parse and reports how many did.
func Total(budgets []model.Budget) (sum decimal.Decimal, counted int) {
	for _, b := range budgets {
		if d, ok := b.Amount(); ok {
			sum = sum.Add(d)
			counted++
		}
	}
	return sum, counted
}

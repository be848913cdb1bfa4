package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"fintrack/internal/services"
	"fintrack/internal/views"
)

const barCells = 20

// Styles groups the terminal palette
type Styles struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Income  lipgloss.Style
	Expense lipgloss.Style
	Card    lipgloss.Style
	Status  map[views.Status]lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		Income:  lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
		Expense: lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		Card:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2),
		Status: map[views.Status]lipgloss.Style{
			views.StatusNormal:  lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1")),
			views.StatusCaution: lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af")),
			views.StatusHigh:    lipgloss.NewStyle().Foreground(lipgloss.Color("#fab387")),
			views.StatusOver:    lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8")),
		},
	}
}

func (s Styles) loadError(ls services.LoadState) string {
	if ls.Error == "" {
		return ""
	}
	return s.Error.Render(ls.Error) + "\n"
}

func (s Styles) signed(text string, income bool) string {
	if income {
		return s.Income.Render("+" + text)
	}
	return s.Expense.Render("-" + text)
}

// RenderCategories draws the forest with a colour swatch per category
func (s Styles) RenderCategories(st services.CategoryState) string {
	var b strings.Builder
	b.WriteString(s.loadError(st.LoadState))

	root := tree.New().Root(s.Title.Render("Categories"))
	for _, n := range st.Tree.Roots {
		root.Child(s.categoryNode(n))
	}
	b.WriteString(root.String())
	b.WriteString("\n")

	for _, d := range st.Tree.Dropped {
		b.WriteString(s.Muted.Render(fmt.Sprintf("skipped category %d (%s)", d.ID, d.Reason)))
		b.WriteString("\n")
	}
	return b.String()
}

func (s Styles) categoryNode(n *views.Node) any {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(n.Color)).Render("●") + " " + n.Name
	if n.IsSystem {
		label += s.Muted.Render(" (system)")
	}
	label += s.Muted.Render(fmt.Sprintf(" #%d", n.ID))
	if len(n.Children) == 0 {
		return label
	}
	sub := tree.New().Root(label)
	for _, c := range n.Children {
		sub.Child(s.categoryNode(c))
	}
	return sub
}

// Bar renders a progress bar for a 0..100 width
func (s Styles) Bar(width float64, status views.Status) string {
	filled := int(width/100*barCells + 0.5)
	if filled > barCells {
		filled = barCells
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barCells-filled)
	return s.Status[status].Render(bar)
}

func (s Styles) RenderBudgets(st services.BudgetState) string {
	var b strings.Builder
	b.WriteString(s.loadError(st.LoadState))
	title := "Budgets"
	if st.ShowArchived {
		title = "Archived budgets"
	}
	b.WriteString(s.Title.Render(title) + "\n")
	if len(st.Budgets) == 0 {
		b.WriteString(s.Muted.Render("No budgets yet.") + "\n")
		return b.String()
	}
	for _, v := range st.Budgets {
		fmt.Fprintf(&b, "%-20s %s %s / %s  %s\n",
			v.Budget.CategoryName, s.Bar(v.Width, v.Status), v.Spent, v.Limit, s.Status[v.Status].Render(v.Label))
	}
	return b.String()
}

func (s Styles) RenderTransactions(st services.TransactionState) string {
	var b strings.Builder
	b.WriteString(s.loadError(st.LoadState))
	b.WriteString(s.Title.Render("Transactions") + "\n")
	if len(st.Rows) == 0 {
		b.WriteString(s.Muted.Render("No transactions match the filter.") + "\n")
		return b.String()
	}
	for _, r := range st.Rows {
		line := fmt.Sprintf("%-12s %-16s %-30s %s", r.Date, r.Category, r.Transaction.Description, s.signed(r.Amount.Primary, r.Amount.Income))
		if r.Amount.HasSecondary {
			line += " " + s.Muted.Render(r.Amount.Secondary)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (s Styles) renderCharts(c views.Charts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Income %s  Expense %s  Balance %s\n",
		s.Income.Render(c.Totals.Income.StringFixed(2)),
		s.Expense.Render(c.Totals.Expense.StringFixed(2)),
		c.Totals.Balance.StringFixed(2))
	for _, p := range c.Bar {
		fmt.Fprintf(&b, "%-14s %s %s\n", p.Label, s.Income.Render(p.Income.StringFixed(2)), s.Expense.Render(p.Expense.StringFixed(2)))
	}
	for _, p := range c.Pie {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Render("■")
		fmt.Fprintf(&b, "%s %-16s %5.1f%%\n", swatch, p.Name, p.Share)
	}
	for _, r := range c.Recent {
		fmt.Fprintf(&b, "%-12s %-16s %-24s %s\n", r.Date, r.Category, r.Description, s.signed(r.Amount, r.Income))
	}
	return b.String()
}

func (s Styles) RenderAnalytics(st services.AnalyticsState) string {
	var b strings.Builder
	b.WriteString(s.loadError(st.LoadState))
	fmt.Fprintf(&b, "%s %s\n", s.Title.Render("Analytics"), s.Muted.Render(fmt.Sprintf("period=%s group_by=%s", st.Filter.Period, st.Filter.GroupBy)))
	if st.Charts != nil {
		b.WriteString(s.renderCharts(*st.Charts))
	}
	return b.String()
}

func (s Styles) RenderDashboard(st services.DashboardState) string {
	if st.Error != "" {
		out := s.Error.Render(st.Error) + "\n"
		if st.Retryable {
			out += s.Muted.Render("run `fintrack dashboard` again to retry") + "\n"
		}
		return out
	}
	if st.View == nil {
		return ""
	}
	cards := make([]string, 0, len(st.View.Cards))
	for _, c := range st.View.Cards {
		cards = append(cards, s.Card.Render(s.Muted.Render(c.Key)+"\n"+c.Value))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
		s.renderCharts(st.View.Charts),
	)
}

func (s Styles) RenderRates(st services.CurrencyState) string {
	var b strings.Builder
	b.WriteString(s.loadError(st.LoadState))
	header := s.Title.Render("Rates for " + st.Table.Base)
	if st.Table.Stale {
		header += s.Muted.Render(" (stale)")
	}
	b.WriteString(header + "\n")
	for _, r := range st.Table.Rows {
		fmt.Fprintf(&b, "%-4s %-3s %s\n", r.Code, r.Symbol, r.Text)
	}
	if len(st.History) > 0 {
		fmt.Fprintf(&b, "%s\n", s.Title.Render(st.Base+" → "+st.Target))
		for _, p := range st.History {
			fmt.Fprintf(&b, "%s %.4f\n", p.Date, p.Rate)
		}
	}
	return b.String()
}

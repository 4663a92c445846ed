package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sahanj/shopledger/internal/inventory"
)

// StockModel shows the current inventory in a scrollable table.
type StockModel struct {
	svc *inventory.Service

	table   table.Model
	loading bool
	status  string
}

func NewStockModel(svc *inventory.Service) StockModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Item", Width: 30},
			{Title: "Model", Width: 16},
			{Title: "Qty", Width: 6},
			{Title: "Cost", Width: 10},
			{Title: "Price", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(16),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("205")).Bold(true)
	t.SetStyles(styles)

	return StockModel{svc: svc, table: t, loading: true}
}

func (m StockModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m StockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadItemsMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		rows := make([]table.Row, len(msg.items))
		for i, item := range msg.items {
			rows[i] = table.Row{
				item.Name,
				item.ModelNumber,
				fmt.Sprintf("%d", item.Quantity),
				FormatMoney(item.PurchasePrice),
				FormatMoney(item.SellingPrice),
			}
		}

		m.table.SetRows(rows)

		if len(rows) == 0 {
			m.status = "No items in stock."
		}

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		}

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 6)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m StockModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading stock...")
	}

	statusLine := ""
	if m.status != "" {
		statusLine = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n"
	}

	help := lipgloss.NewStyle().Faint(true).Render("Esc: back | r: reload")

	return lipgloss.NewStyle().Padding(1).Render(statusLine + m.table.View() + "\n" + help)
}

type loadItemsMsg struct {
	items []*inventory.Item
	err   error
}

func (m StockModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		items, err := m.svc.List(ctx)

		return loadItemsMsg{items: items, err: err}
	}
}

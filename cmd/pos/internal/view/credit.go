package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sahanj/shopledger/internal/credit"
)

type creditState int

const (
	creditStateLoading creditState = iota
	creditStateList
	creditStatePaying
)

// CreditModel lists open credit records and takes payments against them.
type CreditModel struct {
	svc *credit.Service

	state   creditState
	table   table.Model
	form    *huh.Form
	records []*credit.Record
	status  string

	formAmount string
	formMethod string
}

func NewCreditModel(svc *credit.Service) CreditModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Customer", Width: 24},
			{Title: "Phone", Width: 14},
			{Title: "Total", Width: 10},
			{Title: "Paid", Width: 10},
			{Title: "Balance", Width: 10},
			{Title: "Date", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(14),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("205")).Bold(true)
	t.SetStyles(styles)

	return CreditModel{svc: svc, table: t, state: creditStateLoading}
}

func (m CreditModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m CreditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadRecordsMsg:
		m.state = creditStateList
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.records = msg.records
		m.refreshRows()

		if len(m.records) == 0 {
			m.status = "No outstanding credit."
		}

		return m, nil

	case paymentSavedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			m.state = creditStateList

			return m, nil
		}

		m.status = fmt.Sprintf("Payment of %s recorded.", FormatMoney(msg.payment.Amount))
		m.state = creditStateLoading

		return m, m.loadCmd()

	case tea.KeyMsg:
		switch m.state {
		case creditStateList:
			switch msg.String() {
			case "esc":
				return m, Back
			case "enter":
				return m.startPayment()
			case "r":
				m.state = creditStateLoading
				return m, m.loadCmd()
			}
		case creditStatePaying:
			if msg.Type == tea.KeyEsc {
				m.state = creditStateList
				m.form = nil

				return m, nil
			}
		}
	}

	switch m.state {
	case creditStateList:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)

		return m, cmd

	case creditStatePaying:
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State != huh.StateCompleted {
			return m, cmd
		}

		return m, m.saveCmd()
	}

	return m, nil
}

func (m CreditModel) startPayment() (tea.Model, tea.Cmd) {
	if m.table.Cursor() < 0 || m.table.Cursor() >= len(m.records) {
		return m, nil
	}

	rec := m.records[m.table.Cursor()]

	m.formAmount = ""
	m.formMethod = "Cash"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("Amount (balance %s)", FormatMoney(rec.Balance))).
				Value(&m.formAmount).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(s, 64)
					if err != nil || v <= 0 {
						return fmt.Errorf("amount must be a positive number")
					}
					if v > rec.Balance {
						return fmt.Errorf("amount exceeds balance")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Title("Payment Method").
				Options(
					huh.NewOption("Cash", "Cash"),
					huh.NewOption("Card", "Card"),
					huh.NewOption("Cheque", "Cheque"),
					huh.NewOption("Bank Transfer", "Bank Transfer"),
				).
				Value(&m.formMethod),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = creditStatePaying

	return m, m.form.Init()
}

func (m *CreditModel) refreshRows() {
	rows := make([]table.Row, len(m.records))
	for i, rec := range m.records {
		rows[i] = table.Row{
			rec.CustomerName,
			rec.PhoneNumber,
			FormatMoney(rec.TotalAmount),
			FormatMoney(rec.AmountPaid),
			FormatMoney(rec.Balance),
			FormatDate(rec.Date),
		}
	}

	m.table.SetRows(rows)
}

func (m CreditModel) View() string {
	switch m.state {
	case creditStateLoading:
		return lipgloss.NewStyle().Padding(2).Render("Loading credit records...")

	case creditStateList:
		statusLine := ""
		if m.status != "" {
			statusLine = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n"
		}

		help := lipgloss.NewStyle().Faint(true).Render("Esc: back | Enter: take payment | r: reload")

		return lipgloss.NewStyle().Padding(1).Render(statusLine + m.table.View() + "\n" + help)

	case creditStatePaying:
		if m.form == nil {
			return ""
		}

		return lipgloss.NewStyle().Padding(1).Render("Credit Payment\n\n" + m.form.View())
	}

	return ""
}

type loadRecordsMsg struct {
	records []*credit.Record
	err     error
}

func (m CreditModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		records, err := m.svc.Records(ctx)

		return loadRecordsMsg{records: records, err: err}
	}
}

type paymentSavedMsg struct {
	payment *credit.Payment
	err     error
}

func (m CreditModel) saveCmd() tea.Cmd {
	rec := m.records[m.table.Cursor()]
	amount, _ := strconv.ParseFloat(m.formAmount, 64)
	method := m.formMethod
	svc := m.svc

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		payment, err := svc.ApplyPayment(ctx, credit.PaymentParams{
			SaleID:        rec.SaleID,
			Amount:        amount,
			PaymentMethod: method,
		})

		return paymentSavedMsg{payment: payment, err: err}
	}
}

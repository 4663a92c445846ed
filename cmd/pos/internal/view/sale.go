package view

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sahanj/shopledger/internal/inventory"
	"github.com/sahanj/shopledger/internal/sale"
)

type saleState int

const (
	saleStateLoading saleState = iota
	saleStateForm
	saleStateDone
)

// SaleModel records a quick single-item counter sale.
type SaleModel struct {
	saleSvc *sale.Service
	invSvc  *inventory.Service

	state  saleState
	form   *huh.Form
	items  []*inventory.Item
	result *sale.Sale
	status string

	formCustomer string
	formPhone    string
	formMethod   string
	formItemID   string
	formQuantity string
	formPaid     string
}

func NewSaleModel(saleSvc *sale.Service, invSvc *inventory.Service) SaleModel {
	return SaleModel{saleSvc: saleSvc, invSvc: invSvc, state: saleStateLoading}
}

func (m SaleModel) Init() tea.Cmd {
	return m.loadItemsCmd()
}

func (m SaleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case saleItemsMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			m.state = saleStateDone

			return m, nil
		}

		m.items = msg.items
		m.buildForm()
		m.state = saleStateForm

		return m, m.form.Init()

	case saleSavedMsg:
		m.state = saleStateDone
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.result = msg.sale
		m.status = fmt.Sprintf("Sale recorded. Total %s, balance %s (%s).",
			FormatMoney(msg.sale.TotalAmount), FormatMoney(msg.sale.Balance), msg.sale.CreditStatus)

		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc || m.state == saleStateDone {
			return m, Back
		}
	}

	if m.state != saleStateForm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m *SaleModel) buildForm() {
	options := make([]huh.Option[string], 0, len(m.items))
	for _, item := range m.items {
		label := fmt.Sprintf("%s (%s) - %s, %d in stock",
			item.Name, item.ModelNumber, FormatMoney(item.SellingPrice), item.Quantity)
		options = append(options, huh.NewOption(label, item.ID))
	}

	m.formMethod = "Cash"
	m.formQuantity = "1"

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Customer Name").
				Value(&m.formCustomer).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("customer name cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Title("Phone Number").
				Value(&m.formPhone),

			huh.NewSelect[string]().
				Title("Payment Method").
				Options(
					huh.NewOption("Cash", "Cash"),
					huh.NewOption("Card", "Card"),
					huh.NewOption("Cheque", "Cheque"),
					huh.NewOption("Bank Transfer", "Bank Transfer"),
				).
				Value(&m.formMethod),

			huh.NewSelect[string]().
				Title("Item").
				Options(options...).
				Value(&m.formItemID),

			huh.NewInput().
				Title("Quantity").
				Value(&m.formQuantity).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n <= 0 {
						return fmt.Errorf("quantity must be a positive number")
					}
					return nil
				}),

			huh.NewInput().
				Title("Amount Paid (blank = full)").
				Value(&m.formPaid).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if _, err := strconv.ParseFloat(s, 64); err != nil {
						return fmt.Errorf("invalid amount")
					}
					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)
}

func (m SaleModel) View() string {
	switch m.state {
	case saleStateLoading:
		return lipgloss.NewStyle().Padding(2).Render("Loading items...")

	case saleStateForm:
		return lipgloss.NewStyle().Padding(1).Render("New Sale\n\n" + m.form.View())

	case saleStateDone:
		return lipgloss.NewStyle().Padding(1).Render(
			m.status + "\n\n" + lipgloss.NewStyle().Faint(true).Render("Press any key to return."),
		)
	}

	return ""
}

type saleItemsMsg struct {
	items []*inventory.Item
	err   error
}

func (m SaleModel) loadItemsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		items, err := m.invSvc.List(ctx)

		return saleItemsMsg{items: items, err: err}
	}
}

type saleSavedMsg struct {
	sale *sale.Sale
	err  error
}

func (m SaleModel) saveCmd() tea.Cmd {
	quantity, _ := strconv.Atoi(m.formQuantity)

	params := sale.CreateParams{
		CustomerName:  m.formCustomer,
		PhoneNumber:   m.formPhone,
		PaymentMethod: m.formMethod,
		Lines: []sale.LineParams{
			{ItemID: m.formItemID, QuantitySold: quantity},
		},
	}

	if s := strings.TrimSpace(m.formPaid); s != "" {
		if paid, err := strconv.ParseFloat(s, 64); err == nil {
			params.AmountPaid = &paid
		}
	}

	svc := m.saleSvc

	return func() tea.Msg {
		ctx, cancel := StoreCtx()
		defer cancel()

		created, err := svc.Create(ctx, params)

		return saleSavedMsg{sale: created, err: err}
	}
}

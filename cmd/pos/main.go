package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/sahanj/shopledger/cmd/pos/internal/view"
	"github.com/sahanj/shopledger/internal/config"
	"github.com/sahanj/shopledger/internal/credit"
	"github.com/sahanj/shopledger/internal/database"
	"github.com/sahanj/shopledger/internal/docstore"
	"github.com/sahanj/shopledger/internal/expense"
	"github.com/sahanj/shopledger/internal/inventory"
	"github.com/sahanj/shopledger/internal/sale"
)

type model struct {
	inventoryService *inventory.Service
	saleService      *sale.Service
	creditService    *credit.Service

	currentView View

	stockView  view.StockModel
	saleView   view.SaleModel
	creditView view.CreditModel
}

type View int

const (
	ViewMenu   View = 0
	ViewStock  View = 1
	ViewSale   View = 2
	ViewCredit View = 3
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	store, err := newStore(cfg)
	if err != nil {
		slog.Error("failed to open document store", "error", err)
		os.Exit(1)
	}

	expenseSvc := expense.NewService(store)
	inventorySvc := inventory.NewService(store, expenseSvc)
	creditSvc := credit.NewService(store)
	saleSvc := sale.NewService(store, creditSvc)

	return model{
		inventoryService: inventorySvc,
		saleService:      saleSvc,
		creditService:    creditSvc,
		currentView:      ViewMenu,
		stockView:        view.NewStockModel(inventorySvc),
		saleView:         view.NewSaleModel(saleSvc, inventorySvc),
		creditView:       view.NewCreditModel(creditSvc),
	}
}

func newStore(cfg *config.Config) (docstore.Store, error) {
	if cfg.Store.Backend == "memory" {
		return docstore.NewMemory(), nil
	}

	db, err := database.Open(context.Background(), cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	store := docstore.NewPostgres(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}

	return store, nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewStock
				m.stockView = view.NewStockModel(m.inventoryService)

				return m, m.stockView.Init()
			case "2":
				m.currentView = ViewSale
				m.saleView = view.NewSaleModel(m.saleService, m.inventoryService)

				return m, m.saleView.Init()
			case "3":
				m.currentView = ViewCredit
				m.creditView = view.NewCreditModel(m.creditService)

				return m, m.creditView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewStock:
		var newModel tea.Model
		newModel, cmd = m.stockView.Update(msg)
		m.stockView = newModel.(view.StockModel)
	case ViewSale:
		var newModel tea.Model
		newModel, cmd = m.saleView.Update(msg)
		m.saleView = newModel.(view.SaleModel)
	case ViewCredit:
		var newModel tea.Model
		newModel, cmd = m.creditView.Update(msg)
		m.creditView = newModel.(view.CreditModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"ShopLedger POS\n\n" +
				"1. View Stock\n" +
				"2. New Sale\n" +
				"3. Credit Payments\n\n" +
				"q. Quit",
		)
	case ViewStock:
		return m.stockView.View()
	case ViewSale:
		return m.saleView.View()
	case ViewCredit:
		return m.creditView.View()
	}

	return fmt.Sprintf("unknown view %d", m.currentView)
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run POS terminal", "error", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/sahanj/shopledger/internal/auth"
	"github.com/sahanj/shopledger/internal/config"
	"github.com/sahanj/shopledger/internal/credit"
	"github.com/sahanj/shopledger/internal/database"
	"github.com/sahanj/shopledger/internal/docstore"
	"github.com/sahanj/shopledger/internal/expense"
	shopHttp "github.com/sahanj/shopledger/internal/http"
	creditHandler "github.com/sahanj/shopledger/internal/http/credit"
	expenseHandler "github.com/sahanj/shopledger/internal/http/expense"
	inventoryHandler "github.com/sahanj/shopledger/internal/http/inventory"
	quotationHandler "github.com/sahanj/shopledger/internal/http/quotation"
	saleHandler "github.com/sahanj/shopledger/internal/http/sale"
	userHandler "github.com/sahanj/shopledger/internal/http/user"
	"github.com/sahanj/shopledger/internal/importer"
	"github.com/sahanj/shopledger/internal/inventory"
	"github.com/sahanj/shopledger/internal/quotation"
	"github.com/sahanj/shopledger/internal/sale"
	"github.com/sahanj/shopledger/internal/user"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	store, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open document store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var (
		expenseService   = expense.NewService(store)
		inventoryService = inventory.NewService(store, expenseService)
		creditService    = credit.NewService(store)
		saleService      = sale.NewService(store, creditService)
		quotationService = quotation.NewService(store, inventoryService)
		userService      = user.NewService(store)
	)

	authService := auth.New(cfg.Auth.Secret, cfg.Auth.TokenTTL)

	if err := ensureAdmin(ctx, cfg, userService); err != nil {
		slog.Error("failed to bootstrap admin user", "error", err)
		os.Exit(1)
	}

	router := shopHttp.New(authService, shopHttp.Handlers{
		Inventory: inventoryHandler.NewHandler(inventoryService, importer.New()),
		Expense:   expenseHandler.NewHandler(expenseService),
		Sale:      saleHandler.NewHandler(saleService),
		Credit:    creditHandler.NewHandler(creditService),
		Quotation: quotationHandler.NewHandler(quotationService),
		User:      userHandler.NewHandler(userService, authService),
	})

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port, "store", cfg.Store.Backend)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newStore(ctx context.Context, cfg *config.Config) (docstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		return docstore.NewMemory(), func() {}, nil
	case "postgres":
		db, err := database.Open(ctx, cfg.ConnectionString())
		if err != nil {
			return nil, nil, err
		}

		store := docstore.NewPostgres(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}

		return store, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// ensureAdmin creates the initial L2 account on first boot so the API is
// never locked out. Skipped when no admin password is configured or the
// username already exists.
func ensureAdmin(ctx context.Context, cfg *config.Config, users *user.Service) error {
	if cfg.Admin.Password == "" {
		return nil
	}

	_, err := users.Create(ctx, user.CreateParams{
		Username: cfg.Admin.Username,
		FullName: cfg.Admin.FullName,
		Level:    user.LevelTwo,
		Password: cfg.Admin.Password,
	})
	if errors.Is(err, user.ErrUsernameTaken) {
		return nil
	}

	return err
}

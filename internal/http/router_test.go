package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahanj/shopledger/internal/auth"
	"github.com/sahanj/shopledger/internal/credit"
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

type api struct {
	server *httptest.Server
	users  *user.Service

	adminToken string
	clerkToken string
}

func newAPI(t *testing.T) *api {
	t.Helper()

	store := docstore.NewMemory()
	expenseSvc := expense.NewService(store)
	inventorySvc := inventory.NewService(store, expenseSvc)
	creditSvc := credit.NewService(store)
	saleSvc := sale.NewService(store, creditSvc)
	quotationSvc := quotation.NewService(store, inventorySvc)
	userSvc := user.NewService(store)

	authSvc := auth.New("test-secret", time.Hour)

	router := shopHttp.New(authSvc, shopHttp.Handlers{
		Inventory: inventoryHandler.NewHandler(inventorySvc, importer.New()),
		Expense:   expenseHandler.NewHandler(expenseSvc),
		Sale:      saleHandler.NewHandler(saleSvc),
		Credit:    creditHandler.NewHandler(creditSvc),
		Quotation: quotationHandler.NewHandler(quotationSvc),
		User:      userHandler.NewHandler(userSvc, authSvc),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx := context.Background()

	admin, err := userSvc.Create(ctx, user.CreateParams{
		Username: "admin", FullName: "Admin", Level: user.LevelTwo, Password: "admin-pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, admin.ID)

	_, err = userSvc.Create(ctx, user.CreateParams{
		Username: "clerk", FullName: "Clerk", Level: user.LevelOne, Password: "clerk-pass",
	})
	require.NoError(t, err)

	a := &api{server: server, users: userSvc}
	a.adminToken = a.login(t, "admin", "admin-pass")
	a.clerkToken = a.login(t, "clerk", "clerk-pass")

	return a
}

func (a *api) login(t *testing.T, username, password string) string {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)

	resp, err := http.Post(a.server.URL+"/api/v1/users/login", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.AccessToken)

	return out.AccessToken
}

func (a *api) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	return out
}

func TestRequiresToken(t *testing.T) {
	a := newAPI(t)

	resp := a.do(t, http.MethodGet, "/api/v1/inventory/", "", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLevelOneCannotManageStock(t *testing.T) {
	a := newAPI(t)

	resp := a.do(t, http.MethodPost, "/api/v1/inventory/", a.clerkToken, map[string]any{
		"itemName": "Fan", "quantity": 5, "purchasePrice": 5.0, "sellingPrice": 8.0,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSaleAndCreditFlow(t *testing.T) {
	a := newAPI(t)

	// Admin stocks an item.
	resp := a.do(t, http.MethodPost, "/api/v1/inventory/", a.adminToken, map[string]any{
		"itemName": "Ceiling Fan", "modelNumber": "CF-100",
		"quantity": 20, "purchasePrice": 5.0, "sellingPrice": 8.0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	item := decode[struct {
		ID string `json:"id"`
	}](t, resp)
	require.NotEmpty(t, item.ID)

	// The clerk records a partially paid sale.
	resp = a.do(t, http.MethodPost, "/api/v1/sales/", a.clerkToken, map[string]any{
		"customerName":  "Nimal",
		"paymentMethod": "Cash",
		"items": []map[string]any{
			{"itemId": item.ID, "quantitySold": 5},
		},
		"amountPaid": 10.0,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[struct {
		ID           string  `json:"id"`
		TotalAmount  float64 `json:"totalAmount"`
		Balance      float64 `json:"balance"`
		CreditStatus string  `json:"creditStatus"`
	}](t, resp)
	assert.Equal(t, 40.0, created.TotalAmount)
	assert.Equal(t, 30.0, created.Balance)
	assert.Equal(t, "Partial", created.CreditStatus)

	// The clerk takes a credit payment.
	resp = a.do(t, http.MethodPost, "/api/v1/credit/", a.clerkToken, map[string]any{
		"saleId": created.ID, "amount": 30.0, "paymentMethod": "Cash",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	payment := decode[struct {
		ID string `json:"id"`
	}](t, resp)
	require.NotEmpty(t, payment.ID)

	// The sale is settled and the record soft-closed.
	resp = a.do(t, http.MethodGet, "/api/v1/sales/"+created.ID, a.clerkToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	settled := decode[struct {
		Balance      float64 `json:"balance"`
		CreditStatus string  `json:"creditStatus"`
	}](t, resp)
	assert.Equal(t, 0.0, settled.Balance)
	assert.Equal(t, "Paid", settled.CreditStatus)

	resp = a.do(t, http.MethodGet, "/api/v1/credit/record/"+created.ID, a.clerkToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	record := decode[struct {
		Status string `json:"status"`
	}](t, resp)
	assert.Equal(t, "Completed", record.Status)

	// Reversal is an admin operation; the clerk is refused.
	resp = a.do(t, http.MethodDelete, "/api/v1/credit/payment/"+payment.ID, a.clerkToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(t, http.MethodDelete, "/api/v1/credit/payment/"+payment.ID, a.adminToken, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestSaleValidationErrors(t *testing.T) {
	a := newAPI(t)

	// Unknown item.
	resp := a.do(t, http.MethodPost, "/api/v1/sales/", a.clerkToken, map[string]any{
		"customerName": "x",
		"items": []map[string]any{
			{"itemId": "nope", "quantitySold": 1},
		},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// No lines at all.
	resp = a.do(t, http.MethodPost, "/api/v1/sales/", a.clerkToken, map[string]any{
		"customerName": "x",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMe(t *testing.T) {
	a := newAPI(t)

	resp := a.do(t, http.MethodGet, "/api/v1/users/me", a.clerkToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	me := decode[struct {
		Username string `json:"username"`
		Level    string `json:"level"`
	}](t, resp)
	assert.Equal(t, "clerk", me.Username)
	assert.Equal(t, "L1", me.Level)
}

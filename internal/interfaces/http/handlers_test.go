package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-stock/internal/application/dto"
	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/application/purchasing"
	"github.com/jhoicas/retail-stock/internal/application/usecase"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
	"github.com/jhoicas/retail-stock/internal/infrastructure/access"
	"github.com/jhoicas/retail-stock/internal/infrastructure/pdf"
	"github.com/jhoicas/retail-stock/internal/infrastructure/sqlite"
	apphttp "github.com/jhoicas/retail-stock/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/retail-stock/pkg/jwt"
	"github.com/jhoicas/retail-stock/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// buildAPI levanta la API completa sobre SQLite en memoria.
// Tiendas s1 y s2 activas, producto p1. manager-1 accede a s1; seller-1 a s2.
func buildAPI(t *testing.T) *fiber.App {
	t.Helper()
	return buildAPIWithTx(t, nil)
}

// buildAPIWithTx como buildAPI; wrap, si no es nil, envuelve la unidad de trabajo.
func buildAPIWithTx(t *testing.T, wrap func(inventory.TxRunner) inventory.TxRunner) *fiber.App {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	stores := sqlite.NewStoreRepository(db)
	products := sqlite.NewProductRepository(db)
	accessRepo := sqlite.NewStoreAccessRepository(db)
	now := time.Now().UTC()
	for _, id := range []string{"s1", "s2"} {
		require.NoError(t, stores.Create(ctx, &entity.Store{ID: id, Name: "Tienda " + id, Active: true, CreatedAt: now, UpdatedAt: now}))
	}
	require.NoError(t, products.Create(ctx, &entity.Product{ID: "p1", SKU: "SKU-1", Name: "Camiseta", CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, accessRepo.Grant(ctx, "manager-1", "s1"))
	require.NoError(t, accessRepo.Grant(ctx, "seller-1", "s2"))

	var tx inventory.TxRunner = sqlite.NewTxRunner(db)
	if wrap != nil {
		tx = wrap(tx)
	}
	gate := access.NewStoreGate(stores, accessRepo)
	retry := inventory.RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}
	ledger := inventory.NewStockLedger(tx, gate, stores, products, inventory.LedgerConfig{Retry: retry}, logger.Nop())

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		Ledger:    ledger,
		Transfers: inventory.NewTransferCoordinator(ledger, pdf.NewSlipGenerator()),
		Purchases: purchasing.NewPurchaseOrderUseCase(tx, gate, stores, products, retry),
		Arrivals:  purchasing.NewArrivalReconciler(tx, gate, ledger, retry, logger.Nop()),
		StoreUC:   usecase.NewStoreUseCase(stores, accessRepo, gate),
		ProductUC: usecase.NewProductUseCase(products),
		JWTSecret: testJWTSecret,
	})
	return app
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, userID, role, testIssuer, testExpMin)
	require.NoError(t, err)
	return "Bearer " + tok
}

func call(t *testing.T, app *fiber.App, method, path, auth string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock
// ──────────────────────────────────────────────────────────────────────────────

func TestStockAPI_AdjustAndQuery(t *testing.T) {
	app := buildAPI(t)
	mgr := bearer(t, "manager-1", entity.RoleManager)

	resp, body := call(t, app, http.MethodPost, "/api/stock/adjustments", mgr, dto.AdjustStockRequest{
		StoreID: "s1", ProductID: "p1", Delta: 10, Type: "purchase", Reason: "stock inicial",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, int64(10), decode[dto.StockResponse](t, body).Quantity)

	resp, body = call(t, app, http.MethodPost, "/api/stock/adjustments", mgr, dto.AdjustStockRequest{
		StoreID: "s1", ProductID: "p1", Delta: -11, Type: "sale",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, body).Code)

	resp, body = call(t, app, http.MethodGet, "/api/stock/s1/p1/availability?required=10", mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.AvailabilityResponse](t, body).Available)

	resp, _ = call(t, app, http.MethodGet, "/api/stock/s1/p1/availability", mgr, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "required es obligatorio")

	resp, body = call(t, app, http.MethodGet, "/api/stock/s1/p1/history", mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	hist := decode[dto.HistoryResponse](t, body)
	require.Len(t, hist.Items, 1)
	assert.Equal(t, int64(10), hist.Items[0].Delta)

	resp, body = call(t, app, http.MethodGet, "/api/stock/s1/p1/verify", mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[dto.LedgerCheckResponse](t, body).Consistent)

	resp, body = call(t, app, http.MethodGet, "/api/stores/s1/stock", mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.StockListResponse](t, body).Items, 1)
}

func TestStockAPI_RejectsBadRequests(t *testing.T) {
	app := buildAPI(t)
	mgr := bearer(t, "manager-1", entity.RoleManager)
	sel := bearer(t, "seller-1", entity.RoleSeller)

	cases := []struct {
		name   string
		auth   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"delta cero", mgr, http.MethodPost, "/api/stock/adjustments",
			dto.AdjustStockRequest{StoreID: "s1", ProductID: "p1", Delta: 0, Type: "manual"}, http.StatusBadRequest, "VALIDATION"},
		{"tipo reservado", mgr, http.MethodPost, "/api/stock/adjustments",
			dto.AdjustStockRequest{StoreID: "s1", ProductID: "p1", Delta: 5, Type: "transfer_in"}, http.StatusBadRequest, "VALIDATION"},
		{"tienda sin acceso", mgr, http.MethodPost, "/api/stock/adjustments",
			dto.AdjustStockRequest{StoreID: "s2", ProductID: "p1", Delta: 5, Type: "purchase"}, http.StatusForbidden, "FORBIDDEN"},
		{"seller no recuenta", sel, http.MethodPost, "/api/stock/recounts",
			map[string]any{"store_id": "s2", "product_id": "p1", "counted": 3}, http.StatusForbidden, "FORBIDDEN"},
		{"conteo ausente", mgr, http.MethodPost, "/api/stock/recounts",
			map[string]any{"store_id": "s1", "product_id": "p1"}, http.StatusBadRequest, "VALIDATION"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := call(t, app, tc.method, tc.path, tc.auth, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
			assert.Equal(t, tc.code, decode[dto.ErrorResponse](t, body).Code)
		})
	}
}

func TestStockAPI_RequiresToken(t *testing.T) {
	app := buildAPI(t)
	resp, _ := call(t, app, http.MethodGet, "/api/stock/s1/p1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Traslados
// ──────────────────────────────────────────────────────────────────────────────

func TestTransferAPI_Lifecycle(t *testing.T) {
	app := buildAPI(t)
	adm := bearer(t, "admin-1", entity.RoleAdmin)
	mgr := bearer(t, "manager-1", entity.RoleManager)
	sel := bearer(t, "seller-1", entity.RoleSeller)

	resp, body := call(t, app, http.MethodPost, "/api/transfers", mgr, dto.CreateTransferRequest{
		SourceStoreID: "s1", DestinationStoreID: "s2", ProductID: "p1", Quantity: 4,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "origen sin stock")
	assert.Equal(t, "INSUFFICIENT_STOCK", decode[dto.ErrorResponse](t, body).Code)

	resp, _ = call(t, app, http.MethodPost, "/api/stock/adjustments", mgr, dto.AdjustStockRequest{
		StoreID: "s1", ProductID: "p1", Delta: 10, Type: "purchase",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body = call(t, app, http.MethodPost, "/api/transfers", mgr, dto.CreateTransferRequest{
		SourceStoreID: "s1", DestinationStoreID: "s2", ProductID: "p1", Quantity: 4, Notes: "vitrina",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	created := decode[dto.TransferResponse](t, body)
	assert.Equal(t, string(entity.TransferInTransit), created.Status)

	resp, body = call(t, app, http.MethodGet, "/api/transfers/"+created.ID+"/slip", mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, "%PDF", string(body[:4]))

	resp, _ = call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/receive", mgr,
		dto.ReceiveTransferRequest{ReceivedQuantity: 4})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "el origen no recibe")

	resp, body = call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/receive", sel,
		dto.ReceiveTransferRequest{ReceivedQuantity: 4})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, string(entity.TransferReceived), decode[dto.TransferResponse](t, body).Status)

	resp, body = call(t, app, http.MethodPost, "/api/transfers/"+created.ID+"/cancel", adm,
		dto.CancelTransferRequest{Reason: "tarde"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", decode[dto.ErrorResponse](t, body).Code)

	resp, body = call(t, app, http.MethodGet, "/api/stock/s2/p1", sel, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(4), decode[dto.StockResponse](t, body).Quantity)

	resp, body = call(t, app, http.MethodGet, "/api/transfers/"+created.ID, sel, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	detail := decode[dto.TransferResponse](t, body)
	require.Len(t, detail.Movements, 2)
	assert.Equal(t, string(entity.AdjustmentTransferOut), detail.Movements[0].Type)
	assert.Equal(t, string(entity.AdjustmentTransferIn), detail.Movements[1].Type)

	resp, body = call(t, app, http.MethodGet, "/api/transfers?store_id=s2&status=received", sel, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.TransferListResponse](t, body).Items, 1)

	resp, _ = call(t, app, http.MethodGet, "/api/transfers?status=lost", adm, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// inflatedTx hace que las lecturas de stock vean unidades que el UPDATE condicional no encuentra.
type inflatedTx struct{ inventory.TxRunner }

func (i inflatedTx) Run(ctx context.Context, fn func(repos inventory.Repositories) error) error {
	return i.TxRunner.Run(ctx, func(repos inventory.Repositories) error {
		return fn(inflatedRepos{repos})
	})
}

type inflatedRepos struct{ inventory.Repositories }

func (r inflatedRepos) Stock() repository.StockRepository {
	return inflatedStock{r.Repositories.Stock()}
}

type inflatedStock struct{ repository.StockRepository }

func (s inflatedStock) Get(ctx context.Context, storeID, productID string) (*entity.StockRecord, error) {
	rec, err := s.StockRepository.Get(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	out := *rec
	out.Quantity += 50
	return &out, nil
}

func TestTransferAPI_RejectedDebitReturnsCancelledTransfer(t *testing.T) {
	app := buildAPIWithTx(t, func(tx inventory.TxRunner) inventory.TxRunner { return inflatedTx{tx} })
	mgr := bearer(t, "manager-1", entity.RoleManager)

	resp, body := call(t, app, http.MethodPost, "/api/transfers", mgr, dto.CreateTransferRequest{
		SourceStoreID: "s1", DestinationStoreID: "s2", ProductID: "p1", Quantity: 2,
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode, string(body))
	rejected := decode[dto.TransferRejectedResponse](t, body)
	assert.Equal(t, "INSUFFICIENT_STOCK", rejected.Code)
	assert.NotEmpty(t, rejected.Message)
	require.NotEmpty(t, rejected.Transfer.ID)
	assert.Equal(t, string(entity.TransferCancelled), rejected.Transfer.Status)
	assert.NotEmpty(t, rejected.Transfer.CancelReason)

	resp, body = call(t, app, http.MethodGet, "/api/transfers/"+rejected.Transfer.ID, mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	detail := decode[dto.TransferResponse](t, body)
	assert.Equal(t, string(entity.TransferCancelled), detail.Status)
	assert.Empty(t, detail.Movements)
}

func TestListEndpoints_RejectOutOfRangePaging(t *testing.T) {
	app := buildAPI(t)
	adm := bearer(t, "admin-1", entity.RoleAdmin)

	for _, path := range []string{
		"/api/transfers?limit=500",
		"/api/transfers?offset=-1",
		"/api/purchases?store_id=s1&limit=101",
		"/api/stores?limit=-5",
		"/api/products?offset=-2",
		"/api/stores/s1/stock?limit=1000",
		"/api/stock/s1/p1/history?limit=abc",
	} {
		t.Run(path, func(t *testing.T) {
			resp, body := call(t, app, http.MethodGet, path, adm, nil)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, body).Code)
		})
	}

	resp, body := call(t, app, http.MethodGet, "/api/transfers?limit=100&offset=0", adm, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, 100, decode[dto.TransferListResponse](t, body).Page.Limit)

	resp, body = call(t, app, http.MethodGet, "/api/stores", adm, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, dto.DefaultPageLimit, decode[dto.StoreListResponse](t, body).Page.Limit)
}

func TestTransferAPI_SameStoreIsValidationError(t *testing.T) {
	app := buildAPI(t)
	resp, body := call(t, app, http.MethodPost, "/api/transfers", bearer(t, "manager-1", entity.RoleManager),
		dto.CreateTransferRequest{SourceStoreID: "s1", DestinationStoreID: "s1", ProductID: "p1", Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decode[dto.ErrorResponse](t, body).Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Compras
// ──────────────────────────────────────────────────────────────────────────────

func TestPurchaseAPI_ArrivalReconciliation(t *testing.T) {
	app := buildAPI(t)
	mgr := bearer(t, "manager-1", entity.RoleManager)

	resp, body := call(t, app, http.MethodPost, "/api/purchases", mgr, map[string]any{
		"store_id": "s1", "supplier_id": "prov-1", "product_id": "p1", "ordered_quantity": 12, "unit_price": "2500.50",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	po := decode[dto.PurchaseOrderResponse](t, body)
	assert.Equal(t, "30006", po.Total.String())

	resp, body = call(t, app, http.MethodPost, "/api/purchases/"+po.ID+"/arrivals", mgr,
		dto.SubmitArrivalRequest{ReceivedQuantity: 11})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
	mismatch := decode[dto.ArrivalMismatchResponse](t, body)
	assert.Equal(t, "QUANTITY_MISMATCH", mismatch.Code)
	assert.Equal(t, int64(12), mismatch.Ordered)
	assert.False(t, mismatch.Arrival.Accepted)

	resp, body = call(t, app, http.MethodPost, "/api/purchases/"+po.ID+"/arrivals", mgr,
		dto.SubmitArrivalRequest{ReceivedQuantity: 12})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.True(t, decode[dto.ArrivalResponse](t, body).Accepted)

	resp, body = call(t, app, http.MethodPost, "/api/purchases/"+po.ID+"/arrivals", mgr,
		dto.SubmitArrivalRequest{ReceivedQuantity: 12})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "ALREADY_VALIDATED", decode[dto.ErrorResponse](t, body).Code)

	resp, body = call(t, app, http.MethodGet, "/api/purchases/"+po.ID+"/arrivals", mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.ArrivalResponse](t, body), 2)

	resp, body = call(t, app, http.MethodGet, "/api/stock/s1/p1", mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(12), decode[dto.StockResponse](t, body).Quantity)

	resp, body = call(t, app, http.MethodGet, "/api/purchases?store_id=s1&validated=true", mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.PurchaseOrderListResponse](t, body).Items, 1)

	resp, body = call(t, app, http.MethodGet, "/api/purchases/"+po.ID, mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	detail := decode[dto.PurchaseOrderResponse](t, body)
	require.Len(t, detail.Movements, 1)
	assert.Equal(t, int64(12), detail.Movements[0].Delta)
	assert.Equal(t, po.ID, detail.Movements[0].ReferenceID)
}

func TestPurchaseAPI_SellerCannotValidate(t *testing.T) {
	app := buildAPI(t)
	adm := bearer(t, "admin-1", entity.RoleAdmin)

	resp, body := call(t, app, http.MethodPost, "/api/purchases", adm, map[string]any{
		"store_id": "s2", "supplier_id": "prov-1", "product_id": "p1", "ordered_quantity": 3, "unit_price": "10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	po := decode[dto.PurchaseOrderResponse](t, body)

	resp, _ = call(t, app, http.MethodPost, "/api/purchases/"+po.ID+"/arrivals", bearer(t, "seller-1", entity.RoleSeller),
		dto.SubmitArrivalRequest{ReceivedQuantity: 3})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tiendas y productos
// ──────────────────────────────────────────────────────────────────────────────

func TestStoreAPI_AdminOnlyWrites(t *testing.T) {
	app := buildAPI(t)
	adm := bearer(t, "admin-1", entity.RoleAdmin)
	mgr := bearer(t, "manager-1", entity.RoleManager)

	resp, _ := call(t, app, http.MethodPost, "/api/stores", mgr, dto.CreateStoreRequest{Name: "Sur"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := call(t, app, http.MethodPost, "/api/stores", adm, dto.CreateStoreRequest{Name: "Sur"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	sur := decode[dto.StoreResponse](t, body)

	inactive := false
	resp, body = call(t, app, http.MethodPatch, "/api/stores/"+sur.ID+"/active", adm, dto.SetStoreActiveRequest{Active: &inactive})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[dto.StoreResponse](t, body).Active)

	resp, body = call(t, app, http.MethodGet, "/api/stores", mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.StoreListResponse](t, body).Items, 1, "manager solo ve s1")

	resp, _ = call(t, app, http.MethodPut, "/api/stores/"+sur.ID+"/access/manager-1", adm, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = call(t, app, http.MethodPost, "/api/products", adm, dto.CreateProductRequest{SKU: "SKU-2", Name: "Gorra"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = call(t, app, http.MethodGet, "/api/products", mgr, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.ProductListResponse](t, body).Items, 2)
}

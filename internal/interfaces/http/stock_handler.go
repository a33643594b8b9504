package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-stock/internal/application/dto"
	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

// StockHandler maneja las peticiones HTTP del libro de stock (protegido).
type StockHandler struct {
	ledger *inventory.StockLedger
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.StockLedger) *StockHandler {
	return &StockHandler{ledger: ledger}
}

// Adjust godoc
// @Summary      Registrar ajuste de stock
// @Description  Aplica delta de forma atómica. Un débito que dejaría el stock negativo se rechaza
//
//	salvo que el tipo sea correction.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "store_id, product_id, delta, type"
// @Success      201   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	rec, err := h.ledger.AdjustStock(c.UserContext(), actorFrom(c), inventory.AdjustCommand{
		StoreID:   in.StoreID,
		ProductID: in.ProductID,
		Delta:     in.Delta,
		Type:      entity.AdjustmentType(in.Type),
		Reason:    in.Reason,
		Reference: entity.Reference{ID: in.ReferenceID, Type: in.ReferenceType},
		ActorID:   GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStockResponse(rec))
}

// Recount godoc
// @Summary      Registrar conteo físico
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecountRequest  true  "store_id, product_id, counted"
// @Success      200   {object}  dto.StockResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/stock/recounts [post]
func (h *StockHandler) Recount(c *fiber.Ctx) error {
	var in dto.RecountRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	rec, err := h.ledger.Recount(c.UserContext(), actorFrom(c), inventory.RecountCommand{
		StoreID:   in.StoreID,
		ProductID: in.ProductID,
		Counted:   *in.Counted,
		Reason:    in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(rec))
}

// Get godoc
// @Summary      Stock actual de un producto en una tienda
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        store_id    path  string  true  "ID de la tienda"
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/{store_id}/{product_id} [get]
func (h *StockHandler) Get(c *fiber.Ctx) error {
	rec, err := h.ledger.GetStock(c.UserContext(), actorFrom(c), c.Params("store_id"), c.Params("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toStockResponse(rec))
}

// Availability godoc
// @Summary      Verificar disponibilidad
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        store_id    path   string  true  "ID de la tienda"
// @Param        product_id  path   string  true  "ID del producto"
// @Param        required    query  int     true  "Unidades requeridas (>= 0)"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{store_id}/{product_id}/availability [get]
func (h *StockHandler) Availability(c *fiber.Ctx) error {
	required := c.QueryInt("required", -1)
	if required < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "required debe ser un entero >= 0"})
	}
	out, err := h.ledger.CheckStoreAvailability(c.UserContext(), actorFrom(c), c.Params("store_id"), c.Params("product_id"), int64(required))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toAvailabilityResponse(out))
}

// History godoc
// @Summary      Historial de ajustes
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        store_id    path   string  true   "ID de la tienda"
// @Param        product_id  path   string  true   "ID del producto"
// @Param        limit       query  int     false  "Límite"  default(20)
// @Param        offset      query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.HistoryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/{store_id}/{product_id}/history [get]
func (h *StockHandler) History(c *fiber.Ctx) error {
	storeID, productID := c.Params("store_id"), c.Params("product_id")
	page, ok, err := bindPage(c)
	if !ok {
		return err
	}
	list, err := h.ledger.History(c.UserContext(), actorFrom(c), storeID, productID, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.HistoryResponse{
		StoreID:   storeID,
		ProductID: productID,
		Items:     toAdjustmentResponses(list),
		Page:      page.Response(),
	})
}

// Verify godoc
// @Summary      Comparar stock con la suma del historial
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        store_id    path  string  true  "ID de la tienda"
// @Param        product_id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.LedgerCheckResponse
// @Router       /api/stock/{store_id}/{product_id}/verify [get]
func (h *StockHandler) Verify(c *fiber.Ctx) error {
	out, err := h.ledger.Verify(c.UserContext(), actorFrom(c), c.Params("store_id"), c.Params("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toLedgerCheckResponse(out))
}

// ListByStore godoc
// @Summary      Existencias de una tienda
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID de la tienda"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.StockListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/stock [get]
func (h *StockHandler) ListByStore(c *fiber.Ctx) error {
	page, ok, err := bindPage(c)
	if !ok {
		return err
	}
	list, err := h.ledger.ListStock(c.UserContext(), actorFrom(c), c.Params("id"), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.StockResponse, 0, len(list))
	for _, r := range list {
		items = append(items, toStockResponse(r))
	}
	return c.JSON(dto.StockListResponse{Items: items, Page: page.Response()})
}

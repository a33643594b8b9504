package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-stock/internal/application/dto"
	"github.com/jhoicas/retail-stock/internal/application/purchasing"
	"github.com/jhoicas/retail-stock/internal/domain"
)

// PurchaseHandler maneja órdenes de compra y llegadas de mercancía (protegido).
type PurchaseHandler struct {
	orders     *purchasing.PurchaseOrderUseCase
	reconciler *purchasing.ArrivalReconciler
}

// NewPurchaseHandler construye el handler.
func NewPurchaseHandler(orders *purchasing.PurchaseOrderUseCase, reconciler *purchasing.ArrivalReconciler) *PurchaseHandler {
	return &PurchaseHandler{orders: orders, reconciler: reconciler}
}

// Create godoc
// @Summary      Registrar orden de compra
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "Tienda, proveedor, producto, cantidad y precio"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/purchases [post]
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePurchaseOrderRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	po, err := h.orders.Create(c.UserContext(), actorFrom(c), purchasing.CreatePurchaseOrderCommand{
		StoreID:         in.StoreID,
		SupplierID:      in.SupplierID,
		ProductID:       in.ProductID,
		OrderedQuantity: in.OrderedQuantity,
		UnitPrice:       in.UnitPrice,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toPurchaseOrderResponse(po))
}

// GetByID godoc
// @Summary      Obtener orden de compra
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/purchases/{id} [get]
func (h *PurchaseHandler) GetByID(c *fiber.Ctx) error {
	po, err := h.orders.Get(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	movements, err := h.orders.Movements(c.UserContext(), actorFrom(c), po.ID)
	if err != nil {
		return writeError(c, err)
	}
	out := toPurchaseOrderResponse(po)
	out.Movements = toAdjustmentResponses(movements)
	return c.JSON(out)
}

// List godoc
// @Summary      Listar órdenes de una tienda
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        store_id   query  string  true   "ID de la tienda"
// @Param        validated  query  bool    false  "Filtrar por validación"
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.PurchaseOrderListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/purchases [get]
func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	var validated *bool
	if raw := c.Query("validated"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "validated debe ser true o false"})
		}
		validated = &v
	}
	page, ok, err := bindPage(c)
	if !ok {
		return err
	}
	list, err := h.orders.List(c.UserContext(), actorFrom(c), c.Query("store_id"), validated, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.PurchaseOrderResponse, 0, len(list))
	for _, po := range list {
		items = append(items, toPurchaseOrderResponse(po))
	}
	return c.JSON(dto.PurchaseOrderListResponse{Items: items, Page: page.Response()})
}

// SubmitArrival godoc
// @Summary      Registrar llegada de mercancía
// @Description  Si la cantidad coincide con lo pedido acredita el stock y valida la orden.
//
//	Si no coincide registra la llegada rechazada y responde 422.
//
// @Tags         purchases
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID de la orden"
// @Param        body  body  dto.SubmitArrivalRequest  true  "Cantidad recibida"
// @Success      201   {object}  dto.ArrivalResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ArrivalMismatchResponse
// @Router       /api/purchases/{id}/arrivals [post]
func (h *PurchaseHandler) SubmitArrival(c *fiber.Ctx) error {
	var in dto.SubmitArrivalRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	arrival, err := h.reconciler.SubmitArrival(c.UserContext(), actorFrom(c), purchasing.SubmitArrivalCommand{
		PurchaseID:       c.Params("id"),
		ReceivedQuantity: in.ReceivedQuantity,
		Notes:            in.Notes,
	})
	var mismatch *domain.QuantityMismatchError
	if errors.As(err, &mismatch) && arrival != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ArrivalMismatchResponse{
			ErrorResponse: dto.ErrorResponse{Code: "QUANTITY_MISMATCH", Message: mismatch.Error()},
			Ordered:       mismatch.Ordered,
			Received:      mismatch.Received,
			Arrival:       toArrivalResponse(arrival),
		})
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toArrivalResponse(arrival))
}

// ListArrivals godoc
// @Summary      Llegadas registradas contra la orden
// @Tags         purchases
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la orden"
// @Success      200  {array}  dto.ArrivalResponse
// @Router       /api/purchases/{id}/arrivals [get]
func (h *PurchaseHandler) ListArrivals(c *fiber.Ctx) error {
	list, err := h.orders.ListArrivals(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.ArrivalResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toArrivalResponse(a))
	}
	return c.JSON(out)
}

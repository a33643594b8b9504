package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-stock/internal/application/dto"
	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
	"github.com/jhoicas/retail-stock/internal/domain/repository"
)

// TransferHandler maneja las peticiones HTTP de traslados entre tiendas (protegido).
type TransferHandler struct {
	coordinator *inventory.TransferCoordinator
}

// NewTransferHandler construye el handler.
func NewTransferHandler(coordinator *inventory.TransferCoordinator) *TransferHandler {
	return &TransferHandler{coordinator: coordinator}
}

// Create godoc
// @Summary      Crear traslado
// @Description  Debita el origen en la misma transacción. Si el débito falla el traslado queda
//
//	cancelado y se devuelve 409 con el traslado.
//
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateTransferRequest  true  "Origen, destino, producto y cantidad"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.TransferRejectedResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateTransferRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	t, err := h.coordinator.Create(c.UserContext(), actorFrom(c), inventory.CreateTransferCommand{
		SourceStoreID:      in.SourceStoreID,
		DestinationStoreID: in.DestinationStoreID,
		ProductID:          in.ProductID,
		Quantity:           in.Quantity,
		Notes:              in.Notes,
	})
	if err != nil {
		if t != nil && errors.Is(err, domain.ErrInsufficientStock) {
			return c.Status(fiber.StatusConflict).JSON(dto.TransferRejectedResponse{
				ErrorResponse: dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()},
				Transfer:      toTransferResponse(t),
			})
		}
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTransferResponse(t))
}

// Receive godoc
// @Summary      Confirmar recepción
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID del traslado"
// @Param        body  body  dto.ReceiveTransferRequest  true  "Cantidad recibida"
// @Success      200   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/receive [post]
func (h *TransferHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveTransferRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	t, err := h.coordinator.Receive(c.UserContext(), actorFrom(c), inventory.ReceiveTransferCommand{
		TransferID:       c.Params("id"),
		ReceivedQuantity: in.ReceivedQuantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(t))
}

// Cancel godoc
// @Summary      Cancelar traslado en tránsito
// @Description  Reintegra la cantidad al origen. Solo admin o encargado con acceso al origen.
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID del traslado"
// @Param        body  body  dto.CancelTransferRequest  true  "Motivo"
// @Success      200   {object}  dto.TransferResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelTransferRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	t, err := h.coordinator.Cancel(c.UserContext(), actorFrom(c), inventory.CancelTransferCommand{
		TransferID: c.Params("id"),
		Reason:     in.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toTransferResponse(t))
}

// GetByID godoc
// @Summary      Obtener traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	t, err := h.coordinator.Get(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	movements, err := h.coordinator.Movements(c.UserContext(), actorFrom(c), t.ID)
	if err != nil {
		return writeError(c, err)
	}
	out := toTransferResponse(t)
	out.Movements = toAdjustmentResponses(movements)
	return c.JSON(out)
}

// List godoc
// @Summary      Listar traslados
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        store_id  query  string  false  "Origen o destino (obligatorio si no es admin)"
// @Param        status    query  string  false  "pending | in_transit | received | cancelled"
// @Param        limit     query  int     false  "Límite"  default(20)
// @Param        offset    query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.TransferListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/transfers [get]
func (h *TransferHandler) List(c *fiber.Ctx) error {
	status := entity.TransferStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "status inválido"})
	}
	page, ok, err := bindPage(c)
	if !ok {
		return err
	}
	filter := repository.TransferFilter{
		StoreID: c.Query("store_id"),
		Status:  status,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	list, err := h.coordinator.List(c.UserContext(), actorFrom(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	items := make([]dto.TransferResponse, 0, len(list))
	for _, t := range list {
		items = append(items, toTransferResponse(t))
	}
	return c.JSON(dto.TransferListResponse{
		Items: items,
		Page:  page.Response(),
	})
}

// Sources godoc
// @Summary      Tiendas activas desde las que el usuario puede enviar
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StoreResponse
// @Router       /api/transfers/sources [get]
func (h *TransferHandler) Sources(c *fiber.Ctx) error {
	stores, err := h.coordinator.SourceStores(c.UserContext(), actorFrom(c))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StoreResponse, 0, len(stores))
	for _, s := range stores {
		out = append(out, dto.StoreResponse{
			ID:        s.ID,
			Name:      s.Name,
			Address:   s.Address,
			Active:    s.Active,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
		})
	}
	return c.JSON(out)
}

// Slip godoc
// @Summary      Guía de despacho en PDF
// @Tags         transfers
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del traslado"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/slip [get]
func (h *TransferHandler) Slip(c *fiber.Ctx) error {
	id := c.Params("id")
	doc, err := h.coordinator.DispatchSlip(c.UserContext(), actorFrom(c), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="traslado-`+id+`.pdf"`)
	return c.Send(doc)
}

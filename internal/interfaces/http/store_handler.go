package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-stock/internal/application/dto"
	"github.com/jhoicas/retail-stock/internal/application/usecase"
)

// StoreHandler maneja las peticiones HTTP para tiendas (protegido).
type StoreHandler struct {
	uc *usecase.StoreUseCase
}

// NewStoreHandler construye el handler.
func NewStoreHandler(uc *usecase.StoreUseCase) *StoreHandler {
	return &StoreHandler{uc: uc}
}

// Create godoc
// @Summary      Crear tienda
// @Tags         stores
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStoreRequest  true  "Datos de la tienda"
// @Success      201   {object}  dto.StoreResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/stores [post]
func (h *StoreHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStoreRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.Create(c.UserContext(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener tienda por ID
// @Tags         stores
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la tienda"
// @Success      200  {object}  dto.StoreResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stores/{id} [get]
func (h *StoreHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar tiendas visibles
// @Tags         stores
// @Security     Bearer
// @Produce      json
// @Param        active  query  bool  false  "Solo activas"
// @Param        limit   query  int   false  "Límite"  default(20)
// @Param        offset  query  int   false  "Offset"  default(0)
// @Success      200     {object}  dto.StoreListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/stores [get]
func (h *StoreHandler) List(c *fiber.Ctx) error {
	page, ok, err := bindPage(c)
	if !ok {
		return err
	}
	out, err := h.uc.List(c.UserContext(), actorFrom(c), c.QueryBool("active", false), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// SetActive godoc
// @Summary      Activar o desactivar tienda
// @Tags         stores
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "ID de la tienda"
// @Param        body  body  dto.SetStoreActiveRequest  true  "active"
// @Success      200   {object}  dto.StoreResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/active [patch]
func (h *StoreHandler) SetActive(c *fiber.Ctx) error {
	var in dto.SetStoreActiveRequest
	if ok, err := bind(c, &in); !ok {
		return err
	}
	out, err := h.uc.SetActive(c.UserContext(), actorFrom(c), c.Params("id"), *in.Active)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GrantAccess godoc
// @Summary      Asignar tienda a un usuario
// @Tags         stores
// @Security     Bearer
// @Param        id       path  string  true  "ID de la tienda"
// @Param        user_id  path  string  true  "ID del usuario"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stores/{id}/access/{user_id} [put]
func (h *StoreHandler) GrantAccess(c *fiber.Ctx) error {
	if err := h.uc.GrantAccess(c.UserContext(), actorFrom(c), c.Params("user_id"), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

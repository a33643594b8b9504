package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrPermissionDenied  = errors.New("el usuario no tiene acceso a la tienda")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidTransfer   = errors.New("traslado inválido")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrQuantityMismatch  = errors.New("la cantidad recibida no coincide con la cantidad pedida")
	ErrAlreadyValidated  = errors.New("la orden de compra ya fue validada")

	// ErrConcurrentModification lo devuelven los adaptadores de persistencia ante un conflicto
	// de serialización o un bloqueo; es reintentable.
	ErrConcurrentModification = errors.New("modificación concurrente detectada")

	// ErrConcurrentModificationRetryExhausted se devuelve cuando el conflicto persiste después
	// de agotar los reintentos.
	ErrConcurrentModificationRetryExhausted = errors.New("modificación concurrente: reintentos agotados")
)

// InsufficientStockError detalla un débito rechazado. Unwrap devuelve ErrInsufficientStock.
type InsufficientStockError struct {
	StoreID   string
	ProductID string
	Current   int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente en tienda %s para producto %s: disponible %d, solicitado %d",
		e.StoreID, e.ProductID, e.Current, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// QuantityMismatchError detalla una llegada que no coincide con la orden de compra.
// El llamador debe verificar la mercancía y volver a registrar la llegada.
type QuantityMismatchError struct {
	PurchaseID string
	Ordered    int64
	Received   int64
}

func (e *QuantityMismatchError) Error() string {
	return fmt.Sprintf("orden %s: recibido %d, pedido %d; verifique y registre nuevamente la llegada",
		e.PurchaseID, e.Received, e.Ordered)
}

func (e *QuantityMismatchError) Unwrap() error { return ErrQuantityMismatch }

// IsRetryable indica si la operación puede tener éxito al reintentarla.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError indica si el error se debe a la entrada o al estado que el cliente puede corregir.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrInvalidTransfer) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrQuantityMismatch) ||
		errors.Is(err, ErrAlreadyValidated)
}

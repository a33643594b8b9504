package entity

import "time"

// Arrival registro inmutable de la recepción física de mercancía contra una orden de compra.
// Se crea uno por cada intento de validación, coincida o no con lo pedido.
type Arrival struct {
	ID               string
	PurchaseID       string
	ReceivedQuantity int64
	ValidatedBy      string
	Notes            string
	Accepted         bool // la cantidad coincidió y el stock fue acreditado
	CreatedAt        time.Time
}

package entity

import "time"

// StockRecord es la cantidad actual de un producto en una tienda.
// Solo la modifica el libro de stock (StockLedger); se crea con cantidad 0 en el primer ajuste.
type StockRecord struct {
	StoreID   string
	ProductID string
	Quantity  int64
	UpdatedAt time.Time
}

package entity

import "time"

// Store representa una tienda física con su propio inventario (multi-tienda).
// Una tienda inactiva no puede enviar ni recibir traslados.
type Store struct {
	ID        string
	Name      string
	Address   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

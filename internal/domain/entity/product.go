package entity

import "time"

// Product representa un producto del catálogo. El catálogo lo administra otro módulo;
// aquí solo se necesita para validar referencias y mostrar datos en documentos.
type Product struct {
	ID        string
	SKU       string // código único
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

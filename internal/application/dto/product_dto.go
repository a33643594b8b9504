package dto

import "time"

// CreateProductRequest entrada para registrar un producto en el catálogo local.
type CreateProductRequest struct {
	SKU  string `json:"sku" validate:"required,min=1,max=100"`
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID        string    `json:"id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

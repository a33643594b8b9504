package dto

// DefaultPageLimit límite aplicado cuando la consulta no trae limit.
const DefaultPageLimit = 20

// PageRequest parámetros ?limit=&offset= de los listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// WithDefaults completa el límite ausente. Valores negativos se dejan para que la validación los rechace.
func (p PageRequest) WithDefaults() PageRequest {
	if p.Limit == 0 {
		p.Limit = DefaultPageLimit
	}
	return p
}

// Response eco de la página pedida.
func (p PageRequest) Response() PageResponse {
	return PageResponse{Limit: p.Limit, Offset: p.Offset}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

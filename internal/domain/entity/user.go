package entity

// Roles válidos emitidos por el servicio de autenticación.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager" // encargado de tienda
	RoleSeller  = "seller"
)

// Actor usuario autenticado que ejecuta una operación.
type Actor struct {
	ID   string
	Role string
}

// CanValidateArrivals solo administradores y encargados validan llegadas de mercancía.
func (a Actor) CanValidateArrivals() bool {
	return a.Role == RoleAdmin || a.Role == RoleManager
}

// CanCancelTransfers cancelación administrativa de traslados en tránsito.
func (a Actor) CanCancelTransfers() bool {
	return a.Role == RoleAdmin || a.Role == RoleManager
}

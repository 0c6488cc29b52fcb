package entity

import "time"

// SalesPoint punto de venta habilitado ante AFIP. Forma parte de la clave de numeración.
type SalesPoint struct {
	ID        string
	Number    int // número de punto de venta AFIP (1–99998)
	Name      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

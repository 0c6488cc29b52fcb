package entity

import "time"

// Condiciones frente al IVA (códigos AFIP).
const (
	VATConditionResponsable = "1" // IVA Responsable Inscripto
	VATConditionExento      = "4" // IVA Sujeto Exento
	VATConditionFinal       = "5" // Consumidor Final
	VATConditionMonotributo = "6" // Responsable Monotributo
)

// Customer cliente o proveedor (contraparte del comprobante).
type Customer struct {
	ID               string
	Name             string
	TaxID            string // CUIT / DNI
	VATConditionCode string
	Exempt           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementReason motivo del movimiento de inventario.
type MovementReason string

const (
	ReasonCommit MovementReason = "Commit" // emisión del comprobante
	ReasonAnnul  MovementReason = "Annul"  // anulación (compensatorio)
)

// Tipos de movimiento persistidos.
const (
	MovementTypeIN  = "IN"  // entrada
	MovementTypeOUT = "OUT" // salida
)

// InventoryMovementIntent instrucción para el libro de inventario. Delta con signo.
type InventoryMovementIntent struct {
	ArticleID   string
	Delta       decimal.Decimal
	Reason      MovementReason
	DocumentRef string
}

// InventoryMovement movimiento de inventario ya aplicado.
type InventoryMovement struct {
	ID          string
	DocumentRef string
	ArticleID   string
	Type        string
	Reason      MovementReason
	Quantity    decimal.Decimal // positivo entrada, negativo salida
	Date        time.Time
	CreatedAt   time.Time
}

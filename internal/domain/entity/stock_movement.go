package entity

import "time"

// Tipos de movimiento de stock.
const (
	MovementTypeIn         = "in"         // entrada
	MovementTypeOut        = "out"        // salida
	MovementTypeAdjustment = "adjustment" // fija el stock a un valor absoluto
	MovementTypeExpired    = "expired"    // baja por vencimiento
	MovementTypeDamaged    = "damaged"    // baja por daño
	MovementTypeReturned   = "returned"   // devolución de cliente
)

// Códigos de motivo legibles por máquina. El texto para humanos va en Reason/Notes.
const (
	ReasonManual          = "manual"
	ReasonRestock         = "restock"
	ReasonCountCorrection = "count_correction"
	ReasonExpiry          = "expiry"
	ReasonDamage          = "damage"
	ReasonCustomerReturn  = "customer_return"
	ReasonOrderDelivered  = "order_delivered"
	ReasonOrderCancelled  = "order_cancelled"
	ReasonOrderReturned   = "order_returned"
)

// StockMovement es una entrada inmutable del kardex. PreviousStock y NewStock se capturan
// al escribir y son los anclajes de la conciliación.
type StockMovement struct {
	ID              string
	ProductID       string
	ProductName     string
	Type            string
	Quantity        int // tal como llegó; el signo lo decide Type
	ReasonCode      string
	Reason          string
	Reference       string // p. ej. ID del pedido
	Notes           string
	PerformedBy     string
	PerformedByName string
	PreviousStock   int
	NewStock        int
	Timestamp       time.Time
}

// IsValidMovementType indica si t pertenece al conjunto cerrado de tipos.
func IsValidMovementType(t string) bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment,
		MovementTypeExpired, MovementTypeDamaged, MovementTypeReturned:
		return true
	}
	return false
}

// IsValidReasonCode indica si c pertenece al conjunto cerrado de códigos de motivo.
func IsValidReasonCode(c string) bool {
	switch c {
	case ReasonManual, ReasonRestock, ReasonCountCorrection, ReasonExpiry, ReasonDamage,
		ReasonCustomerReturn, ReasonOrderDelivered, ReasonOrderCancelled, ReasonOrderReturned:
		return true
	}
	return false
}

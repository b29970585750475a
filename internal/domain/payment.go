package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethodKind discriminates the payment method variants. It maps
// directly to the storage discriminator column.
type PaymentMethodKind string

const (
	PaymentMethodGeneric PaymentMethodKind = "generic"
	PaymentMethodCard    PaymentMethodKind = "card"
)

// PaymentMethod is a wallet-like ledger account owned by an account.
// Card is set only when Kind is PaymentMethodCard.
type PaymentMethod struct {
	ID          uuid.UUID
	AccountID   uuid.UUID
	Kind        PaymentMethodKind
	DisplayName string
	Balance     decimal.Decimal
	Card        *CardDetails
}

type CardDetails struct {
	Number string
	Expiry string
	Name   string
	CVV    string
}

package model

import (
	"time"

	"tourbook/shared/model"
)

const (
	TableName  = "payments"
	EntityName = "payment"

	FieldID        = "id"
	FieldBookingID = "booking_id"
	FieldCode      = "code"
	FieldStatus    = "status"
	FieldPaidAt    = "paid_at"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

type Payment struct {
	ID           string     `db:"id"`
	BookingID    string     `db:"booking_id"`
	Code         string     `db:"code"`
	Amount       float64    `db:"amount"`
	Method       string     `db:"method"`
	Status       string     `db:"status"`
	GatewayTxnID string     `db:"gateway_txn_id"`
	PaidAt       *time.Time `db:"paid_at"`
	model.Metadata
}

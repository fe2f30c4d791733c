package dto

import (
	"tourbook/internal/domains/payment/model"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/timezone"
)

type PaymentResponse struct {
	ID           string  `json:"id"`
	BookingID    string  `json:"booking_id"`
	Code         string  `json:"code"`
	Amount       float64 `json:"amount"`
	Method       string  `json:"method"`
	Status       string  `json:"status"`
	GatewayTxnID string  `json:"gateway_txn_id,omitempty"`
	PaidAt       string  `json:"paid_at,omitempty"`
	gDto.Metadata
}

func (r *PaymentResponse) FromModel(mod model.Payment) {
	r.ID = mod.ID
	r.BookingID = mod.BookingID
	r.Code = mod.Code
	r.Amount = mod.Amount
	r.Method = mod.Method
	r.Status = mod.Status
	r.GatewayTxnID = mod.GatewayTxnID

	if mod.PaidAt != nil {
		r.PaidAt = timezone.Format(*mod.PaidAt, constant.DateFormat)
	}

	r.Metadata.FromModel(mod.Metadata)
}

// HandleReturnResponse is what the gateway redirect handler needs to finish
// the flow: which booking the payment belongs to and whether it succeeded.
type HandleReturnResponse struct {
	BookingID   string `json:"booking_id"`
	PaymentCode string `json:"payment_code"`
	Success     bool   `json:"success"`
}

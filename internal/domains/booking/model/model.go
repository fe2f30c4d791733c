package model

import (
	"time"

	"tourbook/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID          = "id"
	FieldTourID      = "tour_id"
	FieldUserID      = "user_id"
	FieldStatus      = "status"
	FieldTicketCode  = "ticket_code"
	FieldIsUsed      = "is_used"
	FieldCheckinAt   = "checkin_at"
	FieldConfirmedAt = "confirmed_at"
	FieldCancelledAt = "cancelled_at"
	FieldEndDate     = "end_date"
)

type Booking struct {
	ID             string        `db:"id"`
	TourID         string        `db:"tour_id"`
	UserID         string        `db:"user_id"`
	Guests         int           `db:"guests"`
	StartDate      time.Time     `db:"start_date"`
	EndDate        time.Time     `db:"end_date"`
	Status         BookingStatus `db:"status"`
	OriginalPrice  float64       `db:"original_price"`
	DiscountAmount float64       `db:"discount_amount"`
	TotalPrice     float64       `db:"total_price"`
	PromotionID    *string       `db:"promotion_id"`
	TicketCode     string        `db:"ticket_code"`
	IsUsed         bool          `db:"is_used"`
	CheckinAt      *time.Time    `db:"checkin_at"`
	ConfirmedAt    *time.Time    `db:"confirmed_at"`
	CancelledAt    *time.Time    `db:"cancelled_at"`
	model.Metadata
}

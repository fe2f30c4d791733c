package dto

import (
	"time"

	"github.com/google/uuid"

	"tourbook/internal/domains/booking/model"
	"tourbook/shared"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	gModel "tourbook/shared/model"
	"tourbook/shared/timezone"
)

type CreateBookingRequest struct {
	TourID        string `json:"tour_id"        validate:"required"`
	Guests        int    `json:"guests"         validate:"required,min=1"`
	StartDate     string `json:"start_date"     validate:"required,datetime=2006-01-02"`
	PromotionCode string `json:"promotion_code" validate:"omitempty,max=50"`
}

func (c *CreateBookingRequest) ToModel(user string, startDate, endDate time.Time, originalPrice, discount float64, promotionID *string) model.Booking {
	return model.Booking{
		ID:             uuid.NewString(),
		TourID:         c.TourID,
		UserID:         user,
		Guests:         c.Guests,
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         model.StatusPending,
		OriginalPrice:  originalPrice,
		DiscountAmount: discount,
		TotalPrice:     originalPrice - discount,
		PromotionID:    promotionID,
		Metadata:       gModel.NewMetadata(timezone.Now(), user),
	}
}

type VerifyTicketRequest struct {
	TicketCode string `json:"ticket_code" validate:"required"`
}

type BookingResponse struct {
	ID             string  `json:"id"`
	TourID         string  `json:"tour_id"`
	UserID         string  `json:"user_id"`
	Guests         int     `json:"guests"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	Status         string  `json:"status"`
	OriginalPrice  float64 `json:"original_price"`
	DiscountAmount float64 `json:"discount_amount"`
	TotalPrice     float64 `json:"total_price"`
	TicketCode     string  `json:"ticket_code,omitempty"`
	IsUsed         bool    `json:"is_used"`
	CheckinAt      string  `json:"checkin_at,omitempty"`
	ConfirmedAt    string  `json:"confirmed_at,omitempty"`
	CancelledAt    string  `json:"cancelled_at,omitempty"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(mod model.Booking) {
	r.ID = mod.ID
	r.TourID = mod.TourID
	r.UserID = mod.UserID
	r.Guests = mod.Guests
	r.StartDate = timezone.Format(mod.StartDate, constant.DateOnlyFormat)
	r.EndDate = timezone.Format(mod.EndDate, constant.DateOnlyFormat)
	r.Status = mod.Status.String()
	r.OriginalPrice = mod.OriginalPrice
	r.DiscountAmount = mod.DiscountAmount
	r.TotalPrice = mod.TotalPrice
	r.TicketCode = mod.TicketCode
	r.IsUsed = mod.IsUsed

	if mod.CheckinAt != nil {
		r.CheckinAt = timezone.Format(*mod.CheckinAt, constant.DateFormat)
	}

	if mod.ConfirmedAt != nil {
		r.ConfirmedAt = timezone.Format(*mod.ConfirmedAt, constant.DateFormat)
	}

	if mod.CancelledAt != nil {
		r.CancelledAt = timezone.Format(*mod.CancelledAt, constant.DateFormat)
	}

	r.Metadata.FromModel(mod.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

// BookingConfirmedEvent is published to Kafka after a booking is confirmed.
type BookingConfirmedEvent struct {
	BookingID   string `json:"booking_id"`
	TourID      string `json:"tour_id"`
	UserID      string `json:"user_id"`
	TicketCode  string `json:"ticket_code"`
	ConfirmedAt string `json:"confirmed_at"`
}

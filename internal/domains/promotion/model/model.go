package model

import (
	"time"

	"tourbook/shared/failure"
	"tourbook/shared/model"
)

const (
	TableName  = "promotions"
	EntityName = "promotion"

	FieldID         = "id"
	FieldCode       = "code"
	FieldType       = "type"
	FieldValue      = "value"
	FieldUsageCount = "usage_count"
	FieldActive     = "active"
)

const (
	TypePercentage = "percentage"
	TypeFixed      = "fixed"
)

type Promotion struct {
	ID              string    `db:"id"`
	Code            string    `db:"code"`
	Description     string    `db:"description"`
	Type            string    `db:"type"`
	Value           float64   `db:"value"`
	MaxDiscount     float64   `db:"max_discount"`
	MinBookingValue float64   `db:"min_booking_value"`
	UsageLimit      int       `db:"usage_limit"`
	UsageCount      int       `db:"usage_count"`
	ValidFrom       time.Time `db:"valid_from"`
	ValidUntil      time.Time `db:"valid_until"`
	Active          bool      `db:"active"`
	model.Metadata
}

// ComputeDiscount returns the discount amount for the given order total.
// Percentage discounts are capped by MaxDiscount when one is set; the
// discount never exceeds the total itself.
func (p *Promotion) ComputeDiscount(total float64) float64 {
	var discount float64

	switch p.Type {
	case TypePercentage:
		discount = total * p.Value / 100
		if p.MaxDiscount > 0 && discount > p.MaxDiscount {
			discount = p.MaxDiscount
		}
	case TypeFixed:
		discount = p.Value
	}

	if discount > total {
		discount = total
	}

	return discount
}

// ValidateForBooking checks whether the promotion can be applied to an
// order of the given total at the given moment. It does not reserve usage;
// that happens transactionally when the booking is created.
func (p *Promotion) ValidateForBooking(now time.Time, total float64) error {
	if !p.Active {
		return failure.Conflict("promotion is not active") //nolint:wrapcheck
	}

	if now.Before(p.ValidFrom) {
		return failure.Conflict("promotion is not valid yet") //nolint:wrapcheck
	}

	if now.After(p.ValidUntil) {
		return failure.Conflict("promotion has expired") //nolint:wrapcheck
	}

	if p.UsageLimit > 0 && p.UsageCount >= p.UsageLimit {
		return failure.Conflict("promotion usage limit reached") //nolint:wrapcheck
	}

	if p.MinBookingValue > 0 && total < p.MinBookingValue {
		return failure.Conflict("booking total is below the promotion minimum") //nolint:wrapcheck
	}

	return nil
}

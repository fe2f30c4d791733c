package model

import "tourbook/shared/model"

const (
	TableName  = "tours"
	EntityName = "tour"

	FieldID                 = "id"
	FieldName               = "name"
	FieldDescription        = "description"
	FieldDestination        = "destination"
	FieldPrice              = "price"
	FieldDurationDays       = "duration_days"
	FieldTotalSlots         = "total_slots"
	FieldAvailableSlots     = "available_slots"
	FieldBookedParticipants = "booked_participants"
	FieldImage              = "image"
	FieldActive             = "active"
)

type Tour struct {
	ID                 string  `db:"id"`
	Name               string  `db:"name"`
	Description        string  `db:"description"`
	Destination        string  `db:"destination"`
	Price              float64 `db:"price"`
	DurationDays       int     `db:"duration_days"`
	TotalSlots         int     `db:"total_slots"`
	AvailableSlots     int     `db:"available_slots"`
	BookedParticipants int     `db:"booked_participants"`
	Image              string  `db:"image"`
	Active             bool    `db:"active"`
	model.Metadata
	model.SoftDelete
}

// IsAvailable reports whether the tour can accept new bookings at all.
func (t *Tour) IsAvailable() bool {
	return t.Active && !t.IsDeleted
}

// HasCapacity reports whether the tour has enough open slots for the
// requested number of guests.
func (t *Tour) HasCapacity(guests int) bool {
	return t.AvailableSlots >= guests
}

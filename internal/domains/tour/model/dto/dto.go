package dto

import (
	"mime/multipart"

	"github.com/google/uuid"

	"tourbook/internal/domains/tour/model"
	"tourbook/shared"
	gDto "tourbook/shared/dto"
	gModel "tourbook/shared/model"
	"tourbook/shared/timezone"
)

type CreateTourRequest struct {
	Name         string                `json:"name"          validate:"required,max=150"`
	Description  string                `json:"description"   validate:"omitempty,max=2000"`
	Destination  string                `json:"destination"   validate:"required,max=150"`
	Price        float64               `json:"price"         validate:"required,gt=0"`
	DurationDays int                   `json:"duration_days" validate:"required,min=1"`
	TotalSlots   int                   `json:"total_slots"   validate:"required,min=1"`
	Image        *multipart.FileHeader `json:"image"         validate:"omitempty,mimetypes=image/png image/jpg image/jpeg,maxfilesize=1"`
	ImageFile    multipart.File        `json:"-"`
	Active       *bool                 `json:"active"        validate:"omitempty"`
}

func (c *CreateTourRequest) ToModel(user string, imageURL string) model.Tour {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Tour{
		ID:             uuid.NewString(),
		Name:           c.Name,
		Description:    c.Description,
		Destination:    c.Destination,
		Price:          c.Price,
		DurationDays:   c.DurationDays,
		TotalSlots:     c.TotalSlots,
		AvailableSlots: c.TotalSlots,
		Image:          imageURL,
		Active:         active,
		Metadata:       gModel.NewMetadata(timezone.Now(), user),
	}
}

type UpdateTourRequest struct {
	Name         string                `db:"name"          json:"name"          validate:"omitempty,max=150"`
	Description  string                `db:"description"   json:"description"   validate:"omitempty,max=2000"`
	Destination  string                `db:"destination"   json:"destination"   validate:"omitempty,max=150"`
	Price        *float64              `db:"price"         json:"price"         validate:"omitempty,gt=0"`
	DurationDays *int                  `db:"duration_days" json:"duration_days" validate:"omitempty,min=1"`
	TotalSlots   *int                  `db:"total_slots"   json:"total_slots"   validate:"omitempty,min=1"`
	Image        *multipart.FileHeader `json:"image"       validate:"omitempty,mimetypes=image/png image/jpg image/jpeg,maxfilesize=1"`
	ImageFile    multipart.File        `json:"-"`
	Active       *bool                 `db:"active"        json:"active"        validate:"omitempty"`
}

type TourResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	Destination        string  `json:"destination"`
	Price              float64 `json:"price"`
	DurationDays       int     `json:"duration_days"`
	TotalSlots         int     `json:"total_slots"`
	AvailableSlots     int     `json:"available_slots"`
	BookedParticipants int     `json:"booked_participants"`
	Image              string  `json:"image"`
	Active             bool    `json:"active"`
	gDto.Metadata
}

func (r *TourResponse) FromModel(model model.Tour) {
	r.ID = model.ID
	r.Name = model.Name
	r.Description = model.Description
	r.Destination = model.Destination
	r.Price = model.Price
	r.DurationDays = model.DurationDays
	r.TotalSlots = model.TotalSlots
	r.AvailableSlots = model.AvailableSlots
	r.BookedParticipants = model.BookedParticipants
	r.Image = model.Image
	r.Active = model.Active
	r.Metadata.FromModel(model.Metadata)
}

type GetToursResponse struct {
	Tours     []TourResponse `json:"tours"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetToursResponse) FromModels(models []model.Tour, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Tours = make([]TourResponse, len(models))
	for i, mod := range models {
		r.Tours[i].FromModel(mod)
	}
}

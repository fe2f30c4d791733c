package dto

import (
	"github.com/google/uuid"

	"tourbook/internal/domains/review/model"
	"tourbook/shared"
	gDto "tourbook/shared/dto"
	gModel "tourbook/shared/model"
	"tourbook/shared/timezone"
)

type CreateReviewRequest struct {
	TourID  string `json:"tour_id" validate:"required"`
	Rating  int    `json:"rating"  validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

func (c *CreateReviewRequest) ToModel(user string) model.Review {
	return model.Review{
		ID:       uuid.NewString(),
		TourID:   c.TourID,
		UserID:   user,
		Rating:   c.Rating,
		Comment:  c.Comment,
		Metadata: gModel.NewMetadata(timezone.Now(), user),
	}
}

type ReviewResponse struct {
	ID      string `json:"id"`
	TourID  string `json:"tour_id"`
	UserID  string `json:"user_id"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
	gDto.Metadata
}

func (r *ReviewResponse) FromModel(mod model.Review) {
	r.ID = mod.ID
	r.TourID = mod.TourID
	r.UserID = mod.UserID
	r.Rating = mod.Rating
	r.Comment = mod.Comment
	r.Metadata.FromModel(mod.Metadata)
}

type GetReviewsResponse struct {
	Reviews   []ReviewResponse `json:"reviews"`
	TotalPage int              `json:"total_page"`
	TotalData int              `json:"total_data"`
}

func (r *GetReviewsResponse) FromModels(models []model.Review, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Reviews = make([]ReviewResponse, len(models))
	for i, mod := range models {
		r.Reviews[i].FromModel(mod)
	}
}

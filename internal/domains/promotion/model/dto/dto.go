package dto

import (
	"time"

	"github.com/google/uuid"

	"tourbook/internal/domains/promotion/model"
	"tourbook/shared"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	gModel "tourbook/shared/model"
	"tourbook/shared/timezone"
)

type CreatePromotionRequest struct {
	Code            string  `json:"code"              validate:"required,max=50"`
	Description     string  `json:"description"       validate:"omitempty,max=500"`
	Type            string  `json:"type"              validate:"required,oneof=percentage fixed"`
	Value           float64 `json:"value"             validate:"required,gt=0"`
	MaxDiscount     float64 `json:"max_discount"      validate:"omitempty,gt=0"`
	MinBookingValue float64 `json:"min_booking_value" validate:"omitempty,gt=0"`
	UsageLimit      int     `json:"usage_limit"       validate:"omitempty,min=0"`
	ValidFrom       string  `json:"valid_from"        validate:"required,datetime=2006-01-02"`
	ValidUntil      string  `json:"valid_until"       validate:"required,datetime=2006-01-02"`
	Active          *bool   `json:"active"            validate:"omitempty"`
}

func (c *CreatePromotionRequest) ToModel(user string, validFrom, validUntil time.Time) model.Promotion {
	active := true
	if c.Active != nil {
		active = *c.Active
	}

	return model.Promotion{
		ID:              uuid.NewString(),
		Code:            c.Code,
		Description:     c.Description,
		Type:            c.Type,
		Value:           c.Value,
		MaxDiscount:     c.MaxDiscount,
		MinBookingValue: c.MinBookingValue,
		UsageLimit:      c.UsageLimit,
		ValidFrom:       validFrom,
		ValidUntil:      validUntil,
		Active:          active,
		Metadata:        gModel.NewMetadata(timezone.Now(), user),
	}
}

type ValidatePromotionRequest struct {
	Code  string  `json:"code"  validate:"required"`
	Total float64 `json:"total" validate:"required,gt=0"`
}

type ValidatePromotionResponse struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

type PromotionResponse struct {
	ID              string  `json:"id"`
	Code            string  `json:"code"`
	Description     string  `json:"description"`
	Type            string  `json:"type"`
	Value           float64 `json:"value"`
	MaxDiscount     float64 `json:"max_discount"`
	MinBookingValue float64 `json:"min_booking_value"`
	UsageLimit      int     `json:"usage_limit"`
	UsageCount      int     `json:"usage_count"`
	ValidFrom       string  `json:"valid_from"`
	ValidUntil      string  `json:"valid_until"`
	Active          bool    `json:"active"`
	gDto.Metadata
}

func (r *PromotionResponse) FromModel(mod model.Promotion) {
	r.ID = mod.ID
	r.Code = mod.Code
	r.Description = mod.Description
	r.Type = mod.Type
	r.Value = mod.Value
	r.MaxDiscount = mod.MaxDiscount
	r.MinBookingValue = mod.MinBookingValue
	r.UsageLimit = mod.UsageLimit
	r.UsageCount = mod.UsageCount
	r.ValidFrom = timezone.Format(mod.ValidFrom, constant.DateOnlyFormat)
	r.ValidUntil = timezone.Format(mod.ValidUntil, constant.DateOnlyFormat)
	r.Active = mod.Active
	r.Metadata.FromModel(mod.Metadata)
}

type GetPromotionsResponse struct {
	Promotions []PromotionResponse `json:"promotions"`
	TotalPage  int                 `json:"total_page"`
	TotalData  int                 `json:"total_data"`
}

func (r *GetPromotionsResponse) FromModels(models []model.Promotion, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Promotions = make([]PromotionResponse, len(models))
	for i, mod := range models {
		r.Promotions[i].FromModel(mod)
	}
}

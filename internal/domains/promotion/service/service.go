package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"tourbook/config"
	"tourbook/infras/otel"
	"tourbook/internal/domains/promotion/model"
	"tourbook/internal/domains/promotion/model/dto"
	"tourbook/internal/domains/promotion/repository"
	"tourbook/shared"
	"tourbook/shared/cache"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
	"tourbook/shared/timezone"
)

const (
	cacheGetAllPromotion = "promotion:gets"
	cacheCountPromotion  = "promotion:count"

	maxPercentageValue = 100
)

type Promotion interface {
	Create(ctx context.Context, req dto.CreatePromotionRequest) error
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetPromotionsResponse, error)
	GetByCode(ctx context.Context, code string) (model.Promotion, error)
	Validate(ctx context.Context, req dto.ValidatePromotionRequest) (dto.ValidatePromotionResponse, error)
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo  repository.Promotion
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.Promotion, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Promotion {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreatePromotionRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".promotion.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if req.Type == model.TypePercentage && req.Value > maxPercentageValue {
		return failure.BadRequestFromString("percentage value cannot exceed 100") //nolint:wrapcheck
	}

	// A fixed discount above the minimum order would make the promotion pay
	// for the booking; the minimum is what bounds it.
	if req.Type == model.TypeFixed && req.Value > req.MinBookingValue {
		return failure.BadRequestFromString("fixed discount cannot exceed min_booking_value") //nolint:wrapcheck
	}

	validFrom, err := timezone.Parse(constant.DateOnlyFormat, req.ValidFrom)
	if err != nil {
		return failure.BadRequestFromString("valid_from must be a valid date") //nolint:wrapcheck
	}

	validUntil, err := timezone.Parse(constant.DateOnlyFormat, req.ValidUntil)
	if err != nil {
		return failure.BadRequestFromString("valid_until must be a valid date") //nolint:wrapcheck
	}

	if !validFrom.Before(validUntil) {
		return failure.BadRequestFromString("valid_from must be before valid_until") //nolint:wrapcheck
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	req.Code = code

	exist, err := s.repo.Exist(ctx, shared.FilterByID(code, model.FieldCode, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check promotion code")

		return fmt.Errorf("failed to check promotion code: %w", err)
	}

	if exist {
		return failure.Conflict("promotion code already exists") //nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, req.ToModel(user, validFrom, validUntil)); err != nil {
		return err
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllPromotion)
		shared.InvalidateCaches(c, s.cache, cacheCountPromotion)
	}()

	return nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetPromotionsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".promotion.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllPromotion, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for promotions")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count promotions")

		return res, fmt.Errorf("failed to count promotions: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get promotions")

		return res, fmt.Errorf("failed to get promotions: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save promotions to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetByCode(ctx context.Context, code string) (res model.Promotion, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".promotion.GetByCode")
	defer scope.End()
	defer scope.TraceIfError(err)

	code = strings.ToUpper(strings.TrimSpace(code))

	res, err = s.repo.Get(ctx, shared.FilterByID(code, model.FieldCode, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get promotion")

		return res, fmt.Errorf("failed to get promotion: %w", err)
	}

	if res.ID == constant.Empty {
		return res, failure.NotFound("promotion not found") //nolint:wrapcheck
	}

	return res, nil
}

// Validate is the read-only precheck used before checkout. The authoritative
// check happens again inside the booking transaction.
func (s *serviceImpl) Validate(ctx context.Context, req dto.ValidatePromotionRequest) (res dto.ValidatePromotionResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".promotion.Validate")
	defer scope.End()
	defer scope.TraceIfError(err)

	promo, err := s.GetByCode(ctx, req.Code)
	if err != nil {
		return res, err
	}

	if err = promo.ValidateForBooking(timezone.Now(), req.Total); err != nil {
		return res, err
	}

	discount := promo.ComputeDiscount(req.Total)

	return dto.ValidatePromotionResponse{
		Code:     promo.Code,
		Discount: discount,
		Total:    req.Total - discount,
	}, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".promotion.Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	exist, err := s.repo.Exist(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to check if promotion exists")

		return fmt.Errorf("failed to check if promotion exists: %w", err)
	}

	if !exist {
		return failure.NotFound("promotion not found") //nolint:wrapcheck
	}

	if err := s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete promotion")

		return fmt.Errorf("failed to delete promotion: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllPromotion)
		shared.InvalidateCaches(c, s.cache, cacheCountPromotion)
	}()

	return nil
}

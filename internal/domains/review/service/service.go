package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"tourbook/config"
	"tourbook/infras/otel"
	bookingModel "tourbook/internal/domains/booking/model"
	bookingRepository "tourbook/internal/domains/booking/repository"
	"tourbook/internal/domains/review/model"
	"tourbook/internal/domains/review/model/dto"
	"tourbook/internal/domains/review/repository"
	"tourbook/permissions"
	"tourbook/shared"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
)

type Review interface {
	Create(ctx context.Context, req dto.CreateReviewRequest) error
	GetAllByTour(ctx context.Context, tourID string, req gDto.QueryParams) (dto.GetReviewsResponse, error)
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo        repository.Review
	bookingRepo bookingRepository.Booking
	cfg         *config.Config
	otel        otel.Otel
}

func New(repo repository.Review, bookingRepo bookingRepository.Booking, cfg *config.Config, otel otel.Otel) Review {
	return &serviceImpl{
		repo:        repo,
		bookingRepo: bookingRepo,
		cfg:         cfg,
		otel:        otel,
	}
}

// Create accepts a review only from a user who actually went on the tour:
// a completed booking, or a confirmed one whose ticket was checked in.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateReviewRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".review.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	attended, err := s.bookingRepo.Exist(ctx, attendedFilter(req.TourID, user))
	if err != nil {
		log.Error().Err(err).Msg("failed to check bookings for review")

		return fmt.Errorf("failed to check bookings for review: %w", err)
	}

	if !attended {
		return failure.BadRequestFromString("you can only review tours you have attended") //nolint:wrapcheck
	}

	reviewed, err := s.repo.Exist(ctx, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldTourID, Value: req.TourID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldUserID, Value: user, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to check existing review")

		return fmt.Errorf("failed to check existing review: %w", err)
	}

	if reviewed {
		return failure.Conflict("you have already reviewed this tour") //nolint:wrapcheck
	}

	if err = s.repo.Insert(ctx, req.ToModel(user)); err != nil {
		log.Error().Err(err).Msg("failed to create review")

		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

func attendedFilter(tourID, user string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    bookingModel.FieldTourID,
				Value:    tourID,
				Operator: gDto.FilterOperatorEq,
				Table:    bookingModel.TableName,
			},
			gDto.Filter{
				Field:    bookingModel.FieldUserID,
				Value:    user,
				Operator: gDto.FilterOperatorEq,
				Table:    bookingModel.TableName,
			},
			gDto.FilterGroup{
				Operator: gDto.FilterGroupOperatorOr,
				Filters: []any{
					gDto.Filter{
						ArgName:  "status_completed",
						Field:    bookingModel.FieldStatus,
						Value:    bookingModel.StatusCompleted,
						Operator: gDto.FilterOperatorEq,
						Table:    bookingModel.TableName,
					},
					gDto.Filter{
						Field:    bookingModel.FieldIsUsed,
						Value:    true,
						Operator: gDto.FilterOperatorEq,
						Table:    bookingModel.TableName,
					},
				},
			},
		},
	}
}

func (s *serviceImpl) GetAllByTour(ctx context.Context, tourID string, req gDto.QueryParams) (res dto.GetReviewsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".review.GetAllByTour")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldTourID,
				Value:    tourID,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reviews")

		return res, fmt.Errorf("failed to count reviews: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reviews")

		return res, fmt.Errorf("failed to get reviews: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	return res, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".review.Delete")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor := permissions.Actor{}
	actor.ID, _ = ctx.Value(constant.ContextKeyUserID).(string)
	actor.Role, _ = ctx.Value(constant.ContextKeyUserRole).(string)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	review, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get review")

		return fmt.Errorf("failed to get review: %w", err)
	}

	if review.ID == constant.Empty {
		return failure.NotFound("review not found") //nolint:wrapcheck
	}

	if !permissions.Can(actor, permissions.ActionDelete, permissions.ResourceReview, review.UserID) {
		return failure.ResourceRestrictedError
	}

	if err := s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete review")

		return fmt.Errorf("failed to delete review: %w", err)
	}

	return nil
}

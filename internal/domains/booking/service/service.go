package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=./mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"tourbook/config"
	"tourbook/infras/kafka"
	"tourbook/infras/otel"
	"tourbook/infras/postgres"
	"tourbook/internal/domains/booking/model"
	"tourbook/internal/domains/booking/model/dto"
	"tourbook/internal/domains/booking/repository"
	paymentModel "tourbook/internal/domains/payment/model"
	paymentRepository "tourbook/internal/domains/payment/repository"
	promotionModel "tourbook/internal/domains/promotion/model"
	promotionRepository "tourbook/internal/domains/promotion/repository"
	tourModel "tourbook/internal/domains/tour/model"
	tourRepository "tourbook/internal/domains/tour/repository"
	"tourbook/permissions"
	"tourbook/shared"
	"tourbook/shared/cache"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
	"tourbook/shared/lock"
	gModel "tourbook/shared/model"
	"tourbook/shared/timezone"
)

const (
	cacheGetBooking    = "booking:get"
	cacheGetAllBooking = "booking:gets"
	cacheCountBooking  = "booking:count"

	// One lock per tour serializes bookings competing for the same slots.
	lockKeyFormat = "lock:tour_booking_%s"

	paymentCodePrefix = "PAY"
)

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest) (dto.BookingResponse, error)
	Get(ctx context.Context, id string) (dto.BookingResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetBookingsResponse, error)
	Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (int, error)
	GetMine(ctx context.Context, req gDto.QueryParams) (dto.GetBookingsResponse, error)
	Confirm(ctx context.Context, id string) (dto.BookingResponse, error)
	Cancel(ctx context.Context, id string) error
	VerifyTicket(ctx context.Context, req dto.VerifyTicketRequest) (dto.BookingResponse, error)
	ExpireStale(ctx context.Context) (int, error)
}

type serviceImpl struct {
	repo          repository.Booking
	tourRepo      tourRepository.Tour
	paymentRepo   paymentRepository.Payment
	promotionRepo promotionRepository.Promotion
	transactor    postgres.Transactor
	locker        lock.Locker
	kafka         kafka.Client
	cfg           *config.Config
	cache         cache.RedisCache
	otel          otel.Otel
}

func New(
	repo repository.Booking,
	tourRepo tourRepository.Tour,
	paymentRepo paymentRepository.Payment,
	promotionRepo promotionRepository.Promotion,
	transactor postgres.Transactor,
	locker lock.Locker,
	kafka kafka.Client,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:          repo,
		tourRepo:      tourRepo,
		paymentRepo:   paymentRepo,
		promotionRepo: promotionRepo,
		transactor:    transactor,
		locker:        locker,
		kafka:         kafka,
		cfg:           cfg,
		cache:         cache,
		otel:          otel,
	}
}

// Create places a hold on tour capacity and opens a pending booking with its
// payment. The whole sequence runs under the per-tour lock and a single
// transaction, so capacity, promotion usage, booking and payment move
// together or not at all.
func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer scope.TraceIfError(err)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	startDate, err := timezone.Parse(constant.DateOnlyFormat, req.StartDate)
	if err != nil {
		return res, failure.BadRequestFromString("start_date must be a valid date") //nolint:wrapcheck
	}

	now := timezone.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if startDate.Before(today) {
		return res, failure.BadRequestFromString("start_date cannot be in the past") //nolint:wrapcheck
	}

	var booking model.Booking

	lockKey := fmt.Sprintf(lockKeyFormat, req.TourID)
	lockTTL := time.Duration(s.cfg.Booking.LockTTLSeconds) * time.Second

	err = s.locker.WithLock(ctx, lockKey, lockTTL, func(ctx context.Context) error {
		return s.transactor.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			booking, err = s.createInTx(ctx, tx, req, user, startDate)

			return err
		})
	})
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return res, failure.Locked("tour is being booked by another request, please retry") //nolint:wrapcheck
		}

		return res, err
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		shared.InvalidateCaches(c, s.cache, cacheCountBooking)
	}()

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) createInTx(ctx context.Context, tx *sqlx.Tx, req dto.CreateBookingRequest, user string, startDate time.Time) (model.Booking, error) {
	tour, err := s.tourRepo.GetTx(ctx, tx, shared.FilterByID(req.TourID, tourModel.FieldID, tourModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get tour for booking")

		return model.Booking{}, fmt.Errorf("failed to get tour for booking: %w", err)
	}

	if tour.ID == constant.Empty || tour.IsDeleted {
		return model.Booking{}, failure.NotFound("tour not found") //nolint:wrapcheck
	}

	if !tour.IsAvailable() {
		return model.Booking{}, failure.Conflict("tour is not open for booking") //nolint:wrapcheck
	}

	if !tour.HasCapacity(req.Guests) {
		return model.Booking{}, failure.Conflict("not enough available slots for this tour") //nolint:wrapcheck
	}

	originalPrice := tour.Price * float64(req.Guests)

	var discount float64
	var promotionID *string

	if req.PromotionCode != constant.Empty {
		promotion, err := s.applyPromotionTx(ctx, tx, req.PromotionCode, originalPrice)
		if err != nil {
			return model.Booking{}, err
		}

		discount = promotion.ComputeDiscount(originalPrice)
		promotionID = &promotion.ID
	}

	endDate := startDate.AddDate(0, 0, tour.DurationDays)
	booking := req.ToModel(user, startDate, endDate, originalPrice, discount, promotionID)

	if err := s.repo.InsertTx(ctx, tx, booking); err != nil {
		log.Error().Err(err).Msg("failed to insert booking")

		return model.Booking{}, fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := s.tourRepo.AdjustCapacityTx(ctx, tx, tour.ID, -req.Guests); err != nil {
		return model.Booking{}, err
	}

	payment := paymentModel.Payment{
		ID:        uuid.NewString(),
		BookingID: booking.ID,
		Code:      fmt.Sprintf("%s-%s", paymentCodePrefix, uuid.NewString()),
		Amount:    booking.TotalPrice,
		Method:    s.cfg.Payment.Provider,
		Status:    paymentModel.StatusPending,
		Metadata:  gModel.NewMetadata(timezone.Now(), user),
	}

	if err := s.paymentRepo.InsertTx(ctx, tx, payment); err != nil {
		log.Error().Err(err).Msg("failed to insert payment for booking")

		return model.Booking{}, fmt.Errorf("failed to insert payment for booking: %w", err)
	}

	return booking, nil
}

// applyPromotionTx validates the code and reserves one redemption inside the
// booking transaction. The guarded usage update is what makes the limit hold
// under concurrency; the validation before it only produces friendlier errors.
func (s *serviceImpl) applyPromotionTx(ctx context.Context, tx *sqlx.Tx, code string, total float64) (promotionModel.Promotion, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    promotionModel.FieldCode,
				Value:    normalized,
				Operator: gDto.FilterOperatorEq,
				Table:    promotionModel.TableName,
			},
		},
	}

	promotion, err := s.promotionRepo.GetTx(ctx, tx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get promotion for booking")

		return promotionModel.Promotion{}, fmt.Errorf("failed to get promotion for booking: %w", err)
	}

	if promotion.ID == constant.Empty {
		return promotionModel.Promotion{}, failure.NotFound("promotion not found") //nolint:wrapcheck
	}

	if err := promotion.ValidateForBooking(timezone.Now(), total); err != nil {
		return promotionModel.Promotion{}, err
	}

	if err := s.promotionRepo.UpdateUsageCountTx(ctx, tx, promotion.ID, 1); err != nil {
		return promotionModel.Promotion{}, err
	}

	return promotion, nil
}

// Confirm moves a pending booking to confirmed and issues its ticket.
// Confirming an already confirmed booking is a no-op; a cancelled or expired
// booking can no longer be confirmed, which is how a payment that settles
// after the hold expired is surfaced to the caller.
func (s *serviceImpl) Confirm(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Confirm")
	defer scope.End()
	defer scope.TraceIfError(err)

	var booking model.Booking
	var alreadyConfirmed bool

	err = s.transactor.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		booking, err = s.repo.GetTx(ctx, tx, shared.FilterByID(id, model.FieldID, model.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get booking for confirmation")

			return fmt.Errorf("failed to get booking for confirmation: %w", err)
		}

		if booking.ID == constant.Empty {
			return failure.NotFound("booking not found") //nolint:wrapcheck
		}

		if booking.Status == model.StatusConfirmed {
			alreadyConfirmed = true

			return nil
		}

		if !model.CanTransition(booking.Status, model.StatusConfirmed) {
			return failure.Conflict(fmt.Sprintf("booking in status %s can no longer be confirmed", booking.Status)) //nolint:wrapcheck
		}

		now := timezone.Now()
		ticketCode := uuid.NewString()

		moved, err := s.repo.UpdateStatusTx(ctx, tx, id, booking.Status, model.StatusConfirmed, map[string]any{
			model.FieldConfirmedAt: now,
			model.FieldTicketCode:  ticketCode,
		})
		if err != nil {
			return err
		}

		if !moved {
			return failure.Conflict("booking status changed concurrently") //nolint:wrapcheck
		}

		booking.Status = model.StatusConfirmed
		booking.ConfirmedAt = &now
		booking.TicketCode = ticketCode

		return nil
	})
	if err != nil {
		return res, err
	}

	if !alreadyConfirmed {
		s.publishConfirmed(ctx, booking)

		go func() {
			c := context.WithoutCancel(ctx)

			if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
				log.Error().Err(err).Msg("failed to delete booking cache")
			}

			shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
		}()
	}

	res.FromModel(booking)

	return res, nil
}

// publishConfirmed emits the confirmation event best effort. The booking is
// already committed; a broker outage must not fail the request.
func (s *serviceImpl) publishConfirmed(ctx context.Context, booking model.Booking) {
	go func() {
		c := context.WithoutCancel(ctx)

		event := dto.BookingConfirmedEvent{
			BookingID:  booking.ID,
			TourID:     booking.TourID,
			UserID:     booking.UserID,
			TicketCode: booking.TicketCode,
		}
		if booking.ConfirmedAt != nil {
			event.ConfirmedAt = timezone.Format(*booking.ConfirmedAt, constant.DateFormat)
		}

		err := s.kafka.SendMessages(c, s.cfg.Kafka.Topic.BookingConfirmed, kafka.Message{
			Key:   booking.ID,
			Value: event,
		})
		if err != nil {
			log.Error().Err(err).Str("bookingID", booking.ID).Msg("failed to publish booking confirmed event")
		}
	}()
}

// Cancel releases everything a booking holds: tour capacity, pending
// payments and, unlike expiry, the promotion redemption.
func (s *serviceImpl) Cancel(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor := actorFromContext(ctx)

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking for cancellation")

		return fmt.Errorf("failed to get booking for cancellation: %w", err)
	}

	if booking.ID == constant.Empty {
		return failure.NotFound("booking not found") //nolint:wrapcheck
	}

	if !permissions.Can(actor, permissions.ActionCancel, permissions.ResourceBooking, booking.UserID) {
		return failure.ResourceRestrictedError
	}

	if !model.CanTransition(booking.Status, model.StatusCancelled) {
		return failure.Conflict(fmt.Sprintf("booking in status %s cannot be cancelled", booking.Status)) //nolint:wrapcheck
	}

	err = s.transactor.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		moved, err := s.repo.UpdateStatusTx(ctx, tx, id, booking.Status, model.StatusCancelled, map[string]any{
			model.FieldCancelledAt: timezone.Now(),
		})
		if err != nil {
			return err
		}

		if !moved {
			return failure.Conflict("booking status changed concurrently") //nolint:wrapcheck
		}

		if err := s.tourRepo.AdjustCapacityTx(ctx, tx, booking.TourID, booking.Guests); err != nil {
			return err
		}

		if err := s.paymentRepo.FailPendingByBookingTx(ctx, tx, booking.ID); err != nil {
			return err
		}

		if booking.PromotionID != nil {
			if err := s.promotionRepo.UpdateUsageCountTx(ctx, tx, *booking.PromotionID, -1); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
	}()

	return nil
}

// VerifyTicket checks a ticket in at the venue. Each ticket is usable once
// and only while its booking is confirmed.
func (s *serviceImpl) VerifyTicket(ctx context.Context, req dto.VerifyTicketRequest) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.VerifyTicket")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldTicketCode,
				Value:    req.TicketCode,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}

	booking, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking by ticket code")

		return res, fmt.Errorf("failed to get booking by ticket code: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("ticket not found") //nolint:wrapcheck
	}

	if booking.Status != model.StatusConfirmed {
		return res, failure.Conflict("ticket is not valid for check-in") //nolint:wrapcheck
	}

	if booking.IsUsed {
		return res, failure.Conflict("ticket has already been used") //nolint:wrapcheck
	}

	now := timezone.Now()

	stamped, err := s.repo.MarkTicketUsed(ctx, booking.ID, now, actorFromContext(ctx).ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to mark ticket as used")

		return res, fmt.Errorf("failed to mark ticket as used: %w", err)
	}

	// A concurrent scan stamped the ticket between the read and the update.
	if !stamped {
		return res, failure.Conflict("ticket has already been used") //nolint:wrapcheck
	}

	booking.IsUsed = true
	booking.CheckinAt = &now

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, booking.ID)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
	}()

	res.FromModel(booking)

	return res, nil
}

// ExpireStale expires pending bookings whose hold timed out and returns how
// many were expired. Each booking runs in its own transaction so one bad row
// does not block the rest of the batch. Promotion redemptions are kept:
// abandoning a held booking is treated as consuming the code.
func (s *serviceImpl) ExpireStale(ctx context.Context) (expired int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.ExpireStale")
	defer scope.End()
	defer scope.TraceIfError(err)

	threshold := timezone.Now().Add(-time.Duration(s.cfg.Booking.HoldTimeoutMinutes) * time.Minute)

	stale, err := s.repo.FindStale(ctx, threshold, s.cfg.Booking.ReaperBatchSize)
	if err != nil {
		return 0, err
	}

	for _, booking := range stale {
		txErr := s.transactor.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			moved, err := s.repo.UpdateStatusTx(ctx, tx, booking.ID, model.StatusPending, model.StatusExpired, nil)
			if err != nil {
				return err
			}

			// Someone confirmed or cancelled it between the scan and now.
			if !moved {
				return nil
			}

			if err := s.tourRepo.AdjustCapacityTx(ctx, tx, booking.TourID, booking.Guests); err != nil {
				return err
			}

			if err := s.paymentRepo.FailPendingByBookingTx(ctx, tx, booking.ID); err != nil {
				return err
			}

			expired++

			return nil
		})
		if txErr != nil {
			log.Error().Err(txErr).Str("bookingID", booking.ID).Msg("failed to expire stale booking")
		}
	}

	if expired > 0 {
		go func() {
			c := context.WithoutCancel(ctx)

			shared.InvalidateCaches(c, s.cache, cacheGetBooking)
			shared.InvalidateCaches(c, s.cache, cacheGetAllBooking)
			shared.InvalidateCaches(c, s.cache, cacheCountBooking)
		}()
	}

	return expired, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	actor := actorFromContext(ctx)
	cacheKey := shared.BuildCacheKey(cacheGetBooking, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking")

		if !permissions.Can(actor, permissions.ActionRead, permissions.ResourceBooking, res.UserID) {
			return dto.BookingResponse{}, failure.ResourceRestrictedError
		}

		return res, nil
	}

	booking, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") //nolint:wrapcheck
	}

	if !permissions.Can(actor, permissions.ActionRead, permissions.ResourceBooking, booking.UserID) {
		return res, failure.ResourceRestrictedError
	}

	res.FromModel(booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for bookings")

		return res, nil
	}

	total, err := s.Count(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save bookings to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Count(ctx context.Context, req gDto.QueryParams, filter gDto.FilterGroup) (res int, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Count")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheCountBooking, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for booking count")

		return res, nil
	}

	res, err = s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking count to cache")
		}
	}()

	return res, nil
}

// GetMine lists the caller's own bookings.
func (s *serviceImpl) GetMine(ctx context.Context, req gDto.QueryParams) (dto.GetBookingsResponse, error) {
	actor := actorFromContext(ctx)

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldUserID,
				Value:    actor.ID,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}

	return s.GetAll(ctx, req, filter)
}

func actorFromContext(ctx context.Context) permissions.Actor {
	id, _ := ctx.Value(constant.ContextKeyUserID).(string)
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)

	return permissions.Actor{ID: id, Role: role}
}

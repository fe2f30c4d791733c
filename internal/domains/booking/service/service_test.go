package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tourbook/config"
	kafkaMocks "tourbook/infras/kafka/mocks"
	"tourbook/infras/otel/mocks"
	pgMocks "tourbook/infras/postgres/mocks"
	bookingMocks "tourbook/internal/domains/booking/mocks"
	"tourbook/internal/domains/booking/model"
	"tourbook/internal/domains/booking/model/dto"
	"tourbook/internal/domains/booking/service"
	payMocks "tourbook/internal/domains/payment/mocks"
	paymentModel "tourbook/internal/domains/payment/model"
	promoMocks "tourbook/internal/domains/promotion/mocks"
	promotionModel "tourbook/internal/domains/promotion/model"
	tourMocks "tourbook/internal/domains/tour/mocks"
	tourModel "tourbook/internal/domains/tour/model"
	cacheMocks "tourbook/shared/cache/mocks"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
	"tourbook/shared/lock"
	lockMocks "tourbook/shared/lock/mocks"
	"tourbook/shared/timezone"
)

type bookingMockSet struct {
	repo      *bookingMocks.MockBooking
	tour      *tourMocks.MockTour
	payment   *payMocks.MockPayment
	promotion *promoMocks.MockPromotion
	locker    *lockMocks.MockLocker
	kafka     *kafkaMocks.MockClient
}

func newBookingService(t *testing.T) (service.Booking, *bookingMockSet) {
	t.Helper()

	ctrl := gomock.NewController(t)

	set := &bookingMockSet{
		repo:      bookingMocks.NewMockBooking(ctrl),
		tour:      tourMocks.NewMockTour(ctrl),
		payment:   payMocks.NewMockPayment(ctrl),
		promotion: promoMocks.NewMockPromotion(ctrl),
		locker:    lockMocks.NewMockLocker(ctrl),
		kafka:     kafkaMocks.NewMockClient(ctrl),
	}

	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Booking.HoldTimeoutMinutes = 15
	cfg.Booking.ReaperBatchSize = 50
	cfg.Booking.LockTTLSeconds = 15
	cfg.Payment.Provider = "vnpay"
	cfg.Kafka.Topic.BookingConfirmed = "booking.confirmed"

	// Cache and event publishing run on detached goroutines.
	mockCache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss")).AnyTimes()
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	set.kafka.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(
		set.repo,
		set.tour,
		set.payment,
		set.promotion,
		pgMocks.NewTransactor(),
		set.locker,
		set.kafka,
		cfg,
		mockCache,
		mockOtel,
	)

	return svc, set
}

func ctxWithUser(id, role string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, id)

	return context.WithValue(ctx, constant.ContextKeyUserRole, role)
}

func passThroughLock(set *bookingMockSet) {
	set.locker.EXPECT().
		WithLock(gomock.Any(), "lock:tour_booking_tour-1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ time.Duration, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func availableTour() tourModel.Tour {
	return tourModel.Tour{
		ID:             "tour-1",
		Name:           "Ha Long Bay",
		Price:          500000,
		DurationDays:   3,
		TotalSlots:     20,
		AvailableSlots: 10,
		Active:         true,
	}
}

func TestBookingService_Create(t *testing.T) {
	startDate := timezone.Now().AddDate(0, 0, 7).Format(constant.DateOnlyFormat)

	t.Run("successful booking without promotion", func(t *testing.T) {
		svc, set := newBookingService(t)

		passThroughLock(set)
		set.tour.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(availableTour(), nil)
		set.repo.EXPECT().
			InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, booking model.Booking) error {
				assert.Equal(t, model.StatusPending, booking.Status)
				assert.InDelta(t, 1000000, booking.OriginalPrice, 0.001)
				assert.InDelta(t, 1000000, booking.TotalPrice, 0.001)
				assert.Equal(t, booking.StartDate.AddDate(0, 0, 3), booking.EndDate)
				return nil
			})
		set.tour.EXPECT().AdjustCapacityTx(gomock.Any(), gomock.Any(), "tour-1", -2).Return(nil)
		set.payment.EXPECT().
			InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, payment paymentModel.Payment) error {
				assert.Equal(t, paymentModel.StatusPending, payment.Status)
				assert.InDelta(t, 1000000, payment.Amount, 0.001)
				return nil
			})

		res, err := svc.Create(ctxWithUser("user-1", constant.RoleUser), dto.CreateBookingRequest{
			TourID:    "tour-1",
			Guests:    2,
			StartDate: startDate,
		})

		assert.NoError(t, err)
		assert.Equal(t, model.StatusPending.String(), res.Status)
		assert.Equal(t, "user-1", res.UserID)
	})

	t.Run("successful booking with capped promotion", func(t *testing.T) {
		svc, set := newBookingService(t)

		now := timezone.Now()
		promo := promotionModel.Promotion{
			ID:          "promo-1",
			Code:        "SAVE10",
			Type:        promotionModel.TypePercentage,
			Value:       10,
			MaxDiscount: 50000,
			ValidFrom:   now.AddDate(0, -1, 0),
			ValidUntil:  now.AddDate(0, 1, 0),
			Active:      true,
		}

		passThroughLock(set)
		set.tour.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(availableTour(), nil)
		set.promotion.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(promo, nil)
		set.promotion.EXPECT().UpdateUsageCountTx(gomock.Any(), gomock.Any(), "promo-1", 1).Return(nil)
		set.repo.EXPECT().
			InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, booking model.Booking) error {
				assert.InDelta(t, 50000, booking.DiscountAmount, 0.001)
				assert.InDelta(t, 950000, booking.TotalPrice, 0.001)
				return nil
			})
		set.tour.EXPECT().AdjustCapacityTx(gomock.Any(), gomock.Any(), "tour-1", -2).Return(nil)
		set.payment.EXPECT().InsertTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		res, err := svc.Create(ctxWithUser("user-1", constant.RoleUser), dto.CreateBookingRequest{
			TourID:        "tour-1",
			Guests:        2,
			StartDate:     startDate,
			PromotionCode: "save10",
		})

		assert.NoError(t, err)
		assert.InDelta(t, 950000, res.TotalPrice, 0.001)
	})

	t.Run("tour not found", func(t *testing.T) {
		svc, set := newBookingService(t)

		passThroughLock(set)
		set.tour.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(tourModel.Tour{}, nil)

		_, err := svc.Create(ctxWithUser("user-1", constant.RoleUser), dto.CreateBookingRequest{
			TourID:    "tour-1",
			Guests:    2,
			StartDate: startDate,
		})

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})

	t.Run("inactive tour refused", func(t *testing.T) {
		svc, set := newBookingService(t)

		inactive := availableTour()
		inactive.Active = false

		passThroughLock(set)
		set.tour.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(inactive, nil)

		_, err := svc.Create(ctxWithUser("user-1", constant.RoleUser), dto.CreateBookingRequest{
			TourID:    "tour-1",
			Guests:    2,
			StartDate: startDate,
		})

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("not enough slots", func(t *testing.T) {
		svc, set := newBookingService(t)

		passThroughLock(set)
		set.tour.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(availableTour(), nil)

		_, err := svc.Create(ctxWithUser("user-1", constant.RoleUser), dto.CreateBookingRequest{
			TourID:    "tour-1",
			Guests:    11,
			StartDate: startDate,
		})

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("exhausted promotion aborts booking", func(t *testing.T) {
		svc, set := newBookingService(t)

		now := timezone.Now()
		promo := promotionModel.Promotion{
			ID:         "promo-1",
			Code:       "SAVE10",
			Type:       promotionModel.TypeFixed,
			Value:      10000,
			ValidFrom:  now.AddDate(0, -1, 0),
			ValidUntil: now.AddDate(0, 1, 0),
			Active:     true,
		}

		passThroughLock(set)
		set.tour.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(availableTour(), nil)
		set.promotion.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(promo, nil)
		set.promotion.EXPECT().
			UpdateUsageCountTx(gomock.Any(), gomock.Any(), "promo-1", 1).
			Return(failure.Conflict("promotion usage limit reached"))

		_, err := svc.Create(ctxWithUser("user-1", constant.RoleUser), dto.CreateBookingRequest{
			TourID:        "tour-1",
			Guests:        2,
			StartDate:     startDate,
			PromotionCode: "SAVE10",
		})

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("order below promotion minimum aborts booking", func(t *testing.T) {
		svc, set := newBookingService(t)

		now := timezone.Now()
		promo := promotionModel.Promotion{
			ID:              "promo-1",
			Code:            "SAVE10",
			Type:            promotionModel.TypePercentage,
			Value:           10,
			MaxDiscount:     50000,
			MinBookingValue: 1500000,
			ValidFrom:       now.AddDate(0, -1, 0),
			ValidUntil:      now.AddDate(0, 1, 0),
			Active:          true,
		}

		passThroughLock(set)
		set.tour.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(availableTour(), nil)
		set.promotion.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(promo, nil)

		// 2 guests x 500000 = 1000000, below the 1500000 floor.
		_, err := svc.Create(ctxWithUser("user-1", constant.RoleUser), dto.CreateBookingRequest{
			TourID:        "tour-1",
			Guests:        2,
			StartDate:     startDate,
			PromotionCode: "SAVE10",
		})

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("lock contention surfaces as locked", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.locker.EXPECT().
			WithLock(gomock.Any(), "lock:tour_booking_tour-1", gomock.Any(), gomock.Any()).
			Return(lock.ErrNotAcquired)

		_, err := svc.Create(ctxWithUser("user-1", constant.RoleUser), dto.CreateBookingRequest{
			TourID:    "tour-1",
			Guests:    2,
			StartDate: startDate,
		})

		assert.Error(t, err)
		assert.Equal(t, 423, failure.GetCode(err))
	})

	t.Run("start date in the past", func(t *testing.T) {
		svc, _ := newBookingService(t)

		_, err := svc.Create(ctxWithUser("user-1", constant.RoleUser), dto.CreateBookingRequest{
			TourID:    "tour-1",
			Guests:    2,
			StartDate: "2020-01-01",
		})

		assert.Error(t, err)
		assert.Equal(t, 400, failure.GetCode(err))
	})
}

func TestBookingService_Confirm(t *testing.T) {
	t.Run("pending booking is confirmed with a ticket", func(t *testing.T) {
		svc, set := newBookingService(t)

		pending := model.Booking{
			ID:     "booking-1",
			TourID: "tour-1",
			UserID: "user-1",
			Status: model.StatusPending,
		}

		set.repo.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(pending, nil)
		set.repo.EXPECT().
			UpdateStatusTx(gomock.Any(), gomock.Any(), "booking-1", model.StatusPending, model.StatusConfirmed, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *sqlx.Tx, _ string, _, _ model.BookingStatus, fields map[string]any) (bool, error) {
				assert.NotEmpty(t, fields[model.FieldTicketCode])
				assert.NotNil(t, fields[model.FieldConfirmedAt])
				return true, nil
			})

		res, err := svc.Confirm(context.Background(), "booking-1")

		assert.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed.String(), res.Status)
		assert.NotEmpty(t, res.TicketCode)
	})

	t.Run("already confirmed is idempotent", func(t *testing.T) {
		svc, set := newBookingService(t)

		confirmed := model.Booking{
			ID:         "booking-1",
			Status:     model.StatusConfirmed,
			TicketCode: "ticket-1",
		}

		set.repo.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(confirmed, nil)

		res, err := svc.Confirm(context.Background(), "booking-1")

		assert.NoError(t, err)
		assert.Equal(t, "ticket-1", res.TicketCode)
	})

	t.Run("expired booking rejects late payment", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.Booking{
			ID:     "booking-1",
			Status: model.StatusExpired,
		}, nil)

		_, err := svc.Confirm(context.Background(), "booking-1")

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("cancelled booking cannot be confirmed", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.Booking{
			ID:     "booking-1",
			Status: model.StatusCancelled,
		}, nil)

		_, err := svc.Confirm(context.Background(), "booking-1")

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("unknown booking", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		_, err := svc.Confirm(context.Background(), "missing")

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})

	t.Run("concurrent transition loses", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().GetTx(gomock.Any(), gomock.Any(), gomock.Any()).Return(model.Booking{
			ID:     "booking-1",
			Status: model.StatusPending,
		}, nil)
		set.repo.EXPECT().
			UpdateStatusTx(gomock.Any(), gomock.Any(), "booking-1", model.StatusPending, model.StatusConfirmed, gomock.Any()).
			Return(false, nil)

		_, err := svc.Confirm(context.Background(), "booking-1")

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})
}

func TestBookingService_Cancel(t *testing.T) {
	promoID := "promo-1"

	pending := model.Booking{
		ID:     "booking-1",
		TourID: "tour-1",
		UserID: "user-1",
		Guests: 2,
		Status: model.StatusPending,
	}

	t.Run("owner cancels pending booking", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
		set.repo.EXPECT().
			UpdateStatusTx(gomock.Any(), gomock.Any(), "booking-1", model.StatusPending, model.StatusCancelled, gomock.Any()).
			Return(true, nil)
		set.tour.EXPECT().AdjustCapacityTx(gomock.Any(), gomock.Any(), "tour-1", 2).Return(nil)
		set.payment.EXPECT().FailPendingByBookingTx(gomock.Any(), gomock.Any(), "booking-1").Return(nil)

		assert.NoError(t, svc.Cancel(ctxWithUser("user-1", constant.RoleUser), "booking-1"))
	})

	t.Run("cancel restores promotion redemption", func(t *testing.T) {
		svc, set := newBookingService(t)

		withPromo := pending
		withPromo.PromotionID = &promoID

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(withPromo, nil)
		set.repo.EXPECT().
			UpdateStatusTx(gomock.Any(), gomock.Any(), "booking-1", model.StatusPending, model.StatusCancelled, gomock.Any()).
			Return(true, nil)
		set.tour.EXPECT().AdjustCapacityTx(gomock.Any(), gomock.Any(), "tour-1", 2).Return(nil)
		set.payment.EXPECT().FailPendingByBookingTx(gomock.Any(), gomock.Any(), "booking-1").Return(nil)
		set.promotion.EXPECT().UpdateUsageCountTx(gomock.Any(), gomock.Any(), "promo-1", -1).Return(nil)

		assert.NoError(t, svc.Cancel(ctxWithUser("user-1", constant.RoleUser), "booking-1"))
	})

	t.Run("someone else's booking is restricted", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)

		err := svc.Cancel(ctxWithUser("user-2", constant.RoleUser), "booking-1")

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("admin cancels any booking", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
		set.repo.EXPECT().
			UpdateStatusTx(gomock.Any(), gomock.Any(), "booking-1", model.StatusPending, model.StatusCancelled, gomock.Any()).
			Return(true, nil)
		set.tour.EXPECT().AdjustCapacityTx(gomock.Any(), gomock.Any(), "tour-1", 2).Return(nil)
		set.payment.EXPECT().FailPendingByBookingTx(gomock.Any(), gomock.Any(), "booking-1").Return(nil)

		assert.NoError(t, svc.Cancel(ctxWithUser("admin-1", constant.RoleAdmin), "booking-1"))
	})

	t.Run("completed booking cannot be cancelled", func(t *testing.T) {
		svc, set := newBookingService(t)

		completed := pending
		completed.Status = model.StatusCompleted

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(completed, nil)

		err := svc.Cancel(ctxWithUser("user-1", constant.RoleUser), "booking-1")

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("unknown booking", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		err := svc.Cancel(ctxWithUser("user-1", constant.RoleUser), "missing")

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestBookingService_VerifyTicket(t *testing.T) {
	confirmed := model.Booking{
		ID:         "booking-1",
		UserID:     "user-1",
		Status:     model.StatusConfirmed,
		TicketCode: "ticket-1",
	}

	t.Run("valid ticket checks in", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(confirmed, nil)
		set.repo.EXPECT().
			MarkTicketUsed(gomock.Any(), "booking-1", gomock.Any(), "admin-1").
			Return(true, nil)

		res, err := svc.VerifyTicket(ctxWithUser("admin-1", constant.RoleAdmin), dto.VerifyTicketRequest{TicketCode: "ticket-1"})

		assert.NoError(t, err)
		assert.True(t, res.IsUsed)
		assert.NotEmpty(t, res.CheckinAt)
	})

	t.Run("concurrent check-in loser gets conflict", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(confirmed, nil)
		set.repo.EXPECT().
			MarkTicketUsed(gomock.Any(), "booking-1", gomock.Any(), "admin-1").
			Return(false, nil)

		_, err := svc.VerifyTicket(ctxWithUser("admin-1", constant.RoleAdmin), dto.VerifyTicketRequest{TicketCode: "ticket-1"})

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("unknown ticket", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		_, err := svc.VerifyTicket(ctxWithUser("admin-1", constant.RoleAdmin), dto.VerifyTicketRequest{TicketCode: "nope"})

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})

	t.Run("pending booking ticket refused", func(t *testing.T) {
		svc, set := newBookingService(t)

		unpaid := confirmed
		unpaid.Status = model.StatusPending

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unpaid, nil)

		_, err := svc.VerifyTicket(ctxWithUser("admin-1", constant.RoleAdmin), dto.VerifyTicketRequest{TicketCode: "ticket-1"})

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})

	t.Run("reused ticket refused", func(t *testing.T) {
		svc, set := newBookingService(t)

		used := confirmed
		used.IsUsed = true

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(used, nil)

		_, err := svc.VerifyTicket(ctxWithUser("admin-1", constant.RoleAdmin), dto.VerifyTicketRequest{TicketCode: "ticket-1"})

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})
}

func TestBookingService_ExpireStale(t *testing.T) {
	stale := []model.Booking{
		{ID: "booking-1", TourID: "tour-1", Guests: 2, Status: model.StatusPending},
		{ID: "booking-2", TourID: "tour-2", Guests: 3, Status: model.StatusPending},
	}

	t.Run("expires the whole batch", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().FindStale(gomock.Any(), gomock.Any(), 50).Return(stale, nil)
		for _, booking := range stale {
			set.repo.EXPECT().
				UpdateStatusTx(gomock.Any(), gomock.Any(), booking.ID, model.StatusPending, model.StatusExpired, gomock.Any()).
				Return(true, nil)
			set.tour.EXPECT().AdjustCapacityTx(gomock.Any(), gomock.Any(), booking.TourID, booking.Guests).Return(nil)
			set.payment.EXPECT().FailPendingByBookingTx(gomock.Any(), gomock.Any(), booking.ID).Return(nil)
		}

		expired, err := svc.ExpireStale(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 2, expired)
	})

	t.Run("booking confirmed mid-scan is skipped", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().FindStale(gomock.Any(), gomock.Any(), 50).Return(stale, nil)
		set.repo.EXPECT().
			UpdateStatusTx(gomock.Any(), gomock.Any(), "booking-1", model.StatusPending, model.StatusExpired, gomock.Any()).
			Return(false, nil)
		set.repo.EXPECT().
			UpdateStatusTx(gomock.Any(), gomock.Any(), "booking-2", model.StatusPending, model.StatusExpired, gomock.Any()).
			Return(true, nil)
		set.tour.EXPECT().AdjustCapacityTx(gomock.Any(), gomock.Any(), "tour-2", 3).Return(nil)
		set.payment.EXPECT().FailPendingByBookingTx(gomock.Any(), gomock.Any(), "booking-2").Return(nil)

		expired, err := svc.ExpireStale(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 1, expired)
	})

	t.Run("one failing booking does not block the rest", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().FindStale(gomock.Any(), gomock.Any(), 50).Return(stale, nil)
		set.repo.EXPECT().
			UpdateStatusTx(gomock.Any(), gomock.Any(), "booking-1", model.StatusPending, model.StatusExpired, gomock.Any()).
			Return(false, errors.New("database error"))
		set.repo.EXPECT().
			UpdateStatusTx(gomock.Any(), gomock.Any(), "booking-2", model.StatusPending, model.StatusExpired, gomock.Any()).
			Return(true, nil)
		set.tour.EXPECT().AdjustCapacityTx(gomock.Any(), gomock.Any(), "tour-2", 3).Return(nil)
		set.payment.EXPECT().FailPendingByBookingTx(gomock.Any(), gomock.Any(), "booking-2").Return(nil)

		expired, err := svc.ExpireStale(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 1, expired)
	})

	t.Run("scan failure", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().FindStale(gomock.Any(), gomock.Any(), 50).Return(nil, errors.New("database error"))

		_, err := svc.ExpireStale(context.Background())

		assert.Error(t, err)
	})
}

func TestBookingService_Get(t *testing.T) {
	booking := model.Booking{
		ID:     "booking-1",
		UserID: "user-1",
		Status: model.StatusPending,
	}

	t.Run("owner reads own booking", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		res, err := svc.Get(ctxWithUser("user-1", constant.RoleUser), "booking-1")

		assert.NoError(t, err)
		assert.Equal(t, "booking-1", res.ID)
	})

	t.Run("other user is restricted", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		_, err := svc.Get(ctxWithUser("user-2", constant.RoleUser), "booking-1")

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("admin reads any booking", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(booking, nil)

		res, err := svc.Get(ctxWithUser("admin-1", constant.RoleAdmin), "booking-1")

		assert.NoError(t, err)
		assert.Equal(t, "booking-1", res.ID)
	})

	t.Run("unknown booking", func(t *testing.T) {
		svc, set := newBookingService(t)

		set.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		_, err := svc.Get(ctxWithUser("user-1", constant.RoleUser), "missing")

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestBookingService_GetMine(t *testing.T) {
	svc, set := newBookingService(t)

	set.repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)
	set.repo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Booking{{ID: "booking-1", UserID: "user-1"}}, nil)

	res, err := svc.GetMine(ctxWithUser("user-1", constant.RoleUser), gDto.QueryParams{Page: 1, Limit: 10})

	assert.NoError(t, err)
	assert.Len(t, res.Bookings, 1)
	assert.Equal(t, "booking-1", res.Bookings[0].ID)
}

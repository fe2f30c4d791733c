package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tourbook/config"
	"tourbook/infras/otel/mocks"
	bookingMocks "tourbook/internal/domains/booking/mocks"
	reviewMocks "tourbook/internal/domains/review/mocks"
	"tourbook/internal/domains/review/model"
	"tourbook/internal/domains/review/model/dto"
	"tourbook/internal/domains/review/service"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
)

func newReviewService(t *testing.T) (service.Review, *reviewMocks.MockReview, *bookingMocks.MockBooking) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := reviewMocks.NewMockReview(ctrl)
	mockBookingRepo := bookingMocks.NewMockBooking(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}

	return service.New(mockRepo, mockBookingRepo, cfg, mockOtel), mockRepo, mockBookingRepo
}

func userCtx(id string) context.Context {
	ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, id)

	return context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleUser)
}

func TestReviewService_Create(t *testing.T) {
	req := dto.CreateReviewRequest{
		TourID:  "tour-1",
		Rating:  5,
		Comment: "great trip",
	}

	t.Run("attendee can review", func(t *testing.T) {
		svc, mockRepo, mockBookingRepo := newReviewService(t)

		mockBookingRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
		mockRepo.EXPECT().
			Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, review model.Review) error {
				assert.Equal(t, "tour-1", review.TourID)
				assert.Equal(t, "user-1", review.UserID)
				assert.Equal(t, 5, review.Rating)
				return nil
			})

		assert.NoError(t, svc.Create(userCtx("user-1"), req))
	})

	t.Run("non-attendee rejected", func(t *testing.T) {
		svc, _, mockBookingRepo := newReviewService(t)

		mockBookingRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		err := svc.Create(userCtx("user-1"), req)

		assert.Error(t, err)
		assert.Equal(t, 400, failure.GetCode(err))
	})

	t.Run("second review rejected", func(t *testing.T) {
		svc, mockRepo, mockBookingRepo := newReviewService(t)

		mockBookingRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)

		err := svc.Create(userCtx("user-1"), req)

		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})
}

func TestReviewService_Delete(t *testing.T) {
	review := model.Review{
		ID:     "review-1",
		TourID: "tour-1",
		UserID: "user-1",
		Rating: 4,
	}

	t.Run("owner deletes own review", func(t *testing.T) {
		svc, mockRepo, _ := newReviewService(t)

		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(review, nil)
		mockRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		assert.NoError(t, svc.Delete(userCtx("user-1"), "review-1"))
	})

	t.Run("someone else's review is restricted", func(t *testing.T) {
		svc, mockRepo, _ := newReviewService(t)

		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(review, nil)

		err := svc.Delete(userCtx("user-2"), "review-1")

		assert.Error(t, err)
		assert.Equal(t, 403, failure.GetCode(err))
	})

	t.Run("admin deletes any review", func(t *testing.T) {
		svc, mockRepo, _ := newReviewService(t)

		ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")
		ctx = context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleAdmin)

		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(review, nil)
		mockRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		assert.NoError(t, svc.Delete(ctx, "review-1"))
	})

	t.Run("unknown review", func(t *testing.T) {
		svc, mockRepo, _ := newReviewService(t)

		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Review{}, nil)

		err := svc.Delete(userCtx("user-1"), "missing")

		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

func TestReviewService_GetAllByTour(t *testing.T) {
	svc, mockRepo, _ := newReviewService(t)

	mockRepo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(2, nil)
	mockRepo.EXPECT().
		GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]model.Review{
			{ID: "review-1", TourID: "tour-1", Rating: 5},
			{ID: "review-2", TourID: "tour-1", Rating: 3},
		}, nil)

	res, err := svc.GetAllByTour(context.Background(), "tour-1", gDto.QueryParams{Page: 1, Limit: 10})

	assert.NoError(t, err)
	assert.Len(t, res.Reviews, 2)
	assert.Equal(t, 2, res.TotalData)
}

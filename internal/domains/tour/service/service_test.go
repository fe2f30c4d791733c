package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tourbook/config"
	"tourbook/infras/otel/mocks"
	s3Mocks "tourbook/infras/s3/mocks"
	tourMocks "tourbook/internal/domains/tour/mocks"
	"tourbook/internal/domains/tour/model"
	"tourbook/internal/domains/tour/model/dto"
	"tourbook/internal/domains/tour/service"
	cacheMocks "tourbook/shared/cache/mocks"
	"tourbook/shared/constant"
	"tourbook/shared/failure"
	gModel "tourbook/shared/model"
	"tourbook/shared/timezone"
)

func newTourService(t *testing.T) (service.Tour, *tourMocks.MockTour, *cacheMocks.MockRedisCache, *s3Mocks.MockS3) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := tourMocks.NewMockTour(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockS3 := s3Mocks.NewMockS3(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	// Cache writes and invalidations run on detached goroutines.
	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return service.New(mockRepo, cfg, mockCache, mockOtel, mockS3), mockRepo, mockCache, mockS3
}

func TestTourService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreateTourRequest
		setupMock func(repo *tourMocks.MockTour)
		wantErr   bool
	}{
		{
			name: "successful creation",
			req: dto.CreateTourRequest{
				Name:         "Ha Long Bay Cruise",
				Destination:  "Ha Long",
				Price:        1000000,
				DurationDays: 2,
				TotalSlots:   20,
			},
			setupMock: func(repo *tourMocks.MockTour) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tour model.Tour) error {
						assert.Equal(t, 20, tour.AvailableSlots)
						assert.Equal(t, 0, tour.BookedParticipants)
						return nil
					})
			},
			wantErr: false,
		},
		{
			name: "repository error",
			req: dto.CreateTourRequest{
				Name:         "Ha Long Bay Cruise",
				Destination:  "Ha Long",
				Price:        1000000,
				DurationDays: 2,
				TotalSlots:   20,
			},
			setupMock: func(repo *tourMocks.MockTour) {
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					Return(errors.New("database error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, _, _ := newTourService(t)
			tt.setupMock(mockRepo)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "test-user-id")
			err := svc.Create(ctx, tt.req)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTourService_Get(t *testing.T) {
	existing := model.Tour{
		ID:             "tour-1",
		Name:           "Ha Long Bay Cruise",
		TotalSlots:     20,
		AvailableSlots: 15,
		Active:         true,
		Metadata:       gModel.NewMetadata(timezone.Now(), "admin"),
	}

	tests := []struct {
		name      string
		id        string
		setupMock func(repo *tourMocks.MockTour, cache *cacheMocks.MockRedisCache)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "found",
			id:   "tour-1",
			setupMock: func(repo *tourMocks.MockTour, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(existing, nil)
			},
		},
		{
			name: "not found",
			id:   "missing",
			setupMock: func(repo *tourMocks.MockTour, cache *cacheMocks.MockRedisCache) {
				cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Tour{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
		{
			name: "soft deleted tour is hidden",
			id:   "tour-1",
			setupMock: func(repo *tourMocks.MockTour, cache *cacheMocks.MockRedisCache) {
				deleted := existing
				deleted.IsDeleted = true

				cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("cache miss"))
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(deleted, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockCache, _ := newTourService(t)
			tt.setupMock(mockRepo, mockCache)

			res, err := svc.Get(context.Background(), tt.id)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, existing.ID, res.ID)
			}
		})
	}
}

func TestTourService_Update(t *testing.T) {
	existing := model.Tour{
		ID:                 "tour-1",
		Name:               "Ha Long Bay Cruise",
		TotalSlots:         20,
		AvailableSlots:     10,
		BookedParticipants: 10,
		Active:             true,
	}

	newTotal := 5

	tests := []struct {
		name      string
		req       dto.UpdateTourRequest
		setupMock func(repo *tourMocks.MockTour)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful update",
			req:  dto.UpdateTourRequest{Name: "Renamed"},
			setupMock: func(repo *tourMocks.MockTour) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(existing, nil)
				repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name: "total slots below booked participants rejected",
			req:  dto.UpdateTourRequest{TotalSlots: &newTotal},
			setupMock: func(repo *tourMocks.MockTour) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(existing, nil)
			},
			wantErr:  true,
			wantCode: 400,
		},
		{
			name: "tour not found",
			req:  dto.UpdateTourRequest{Name: "Renamed"},
			setupMock: func(repo *tourMocks.MockTour) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Tour{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, _, _ := newTourService(t)
			tt.setupMock(mockRepo)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "test-user-id")
			err := svc.Update(ctx, tt.req, "tour-1")

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTourService_Delete(t *testing.T) {
	existing := model.Tour{ID: "tour-1", Active: true}

	t.Run("soft delete marks the row", func(t *testing.T) {
		svc, mockRepo, _, _ := newTourService(t)

		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(existing, nil)
		mockRepo.EXPECT().
			Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
				assert.Equal(t, true, fields[constant.FieldIsDeleted])
				assert.Equal(t, false, fields[model.FieldActive])
				return nil
			})

		ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")
		assert.NoError(t, svc.Delete(ctx, "tour-1"))
	})

	t.Run("delete missing tour", func(t *testing.T) {
		svc, mockRepo, _, _ := newTourService(t)

		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Tour{}, nil)

		err := svc.Delete(context.Background(), "missing")
		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})
}

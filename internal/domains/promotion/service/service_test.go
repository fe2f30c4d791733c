package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tourbook/config"
	"tourbook/infras/otel/mocks"
	promoMocks "tourbook/internal/domains/promotion/mocks"
	"tourbook/internal/domains/promotion/model"
	"tourbook/internal/domains/promotion/model/dto"
	"tourbook/internal/domains/promotion/service"
	cacheMocks "tourbook/shared/cache/mocks"
	"tourbook/shared/constant"
	"tourbook/shared/failure"
	"tourbook/shared/timezone"
)

func newPromotionService(t *testing.T) (service.Promotion, *promoMocks.MockPromotion, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := promoMocks.NewMockPromotion(ctrl)
	mockCache := cacheMocks.NewMockRedisCache(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	mockCache.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	mockCache.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	return service.New(mockRepo, cfg, mockCache, mockOtel), mockRepo, mockCache
}

func TestPromotionService_Create(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.CreatePromotionRequest
		setupMock func(repo *promoMocks.MockPromotion)
		wantErr   bool
		wantCode  int
	}{
		{
			name: "successful creation uppercases code",
			req: dto.CreatePromotionRequest{
				Code:       "save10",
				Type:       model.TypePercentage,
				Value:      10,
				ValidFrom:  "2026-01-01",
				ValidUntil: "2026-12-31",
			},
			setupMock: func(repo *promoMocks.MockPromotion) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, promo model.Promotion) error {
						assert.Equal(t, "SAVE10", promo.Code)
						return nil
					})
			},
		},
		{
			name: "percentage above 100 rejected",
			req: dto.CreatePromotionRequest{
				Code:       "BIG",
				Type:       model.TypePercentage,
				Value:      150,
				ValidFrom:  "2026-01-01",
				ValidUntil: "2026-12-31",
			},
			setupMock: func(repo *promoMocks.MockPromotion) {},
			wantErr:   true,
			wantCode:  400,
		},
		{
			name: "valid_from after valid_until rejected",
			req: dto.CreatePromotionRequest{
				Code:            "BACKWARDS",
				Type:            model.TypeFixed,
				Value:           1000,
				MinBookingValue: 5000,
				ValidFrom:       "2026-12-31",
				ValidUntil:      "2026-01-01",
			},
			setupMock: func(repo *promoMocks.MockPromotion) {},
			wantErr:   true,
			wantCode:  400,
		},
		{
			name: "fixed discount above min booking value rejected",
			req: dto.CreatePromotionRequest{
				Code:            "TOOBIG",
				Type:            model.TypeFixed,
				Value:           150000,
				MinBookingValue: 100000,
				ValidFrom:       "2026-01-01",
				ValidUntil:      "2026-12-31",
			},
			setupMock: func(repo *promoMocks.MockPromotion) {},
			wantErr:   true,
			wantCode:  400,
		},
		{
			name: "duplicate code rejected",
			req: dto.CreatePromotionRequest{
				Code:       "SAVE10",
				Type:       model.TypePercentage,
				Value:      10,
				ValidFrom:  "2026-01-01",
				ValidUntil: "2026-12-31",
			},
			setupMock: func(repo *promoMocks.MockPromotion) {
				repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, _ := newPromotionService(t)
			tt.setupMock(mockRepo)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")
			err := svc.Create(ctx, tt.req)

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

func TestPromotionService_Validate(t *testing.T) {
	now := timezone.Now()

	promo := model.Promotion{
		ID:          "promo-1",
		Code:        "SAVE10",
		Type:        model.TypePercentage,
		Value:       10,
		MaxDiscount: 50000,
		UsageLimit:  100,
		UsageCount:  10,
		ValidFrom:   now.AddDate(0, -1, 0),
		ValidUntil:  now.AddDate(0, 1, 0),
		Active:      true,
	}

	tests := []struct {
		name         string
		req          dto.ValidatePromotionRequest
		setupMock    func(repo *promoMocks.MockPromotion)
		wantErr      bool
		wantCode     int
		wantDiscount float64
		wantTotal    float64
	}{
		{
			name: "percentage discount is capped",
			req:  dto.ValidatePromotionRequest{Code: "SAVE10", Total: 1000000},
			setupMock: func(repo *promoMocks.MockPromotion) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(promo, nil)
			},
			wantDiscount: 50000,
			wantTotal:    950000,
		},
		{
			name: "unknown code",
			req:  dto.ValidatePromotionRequest{Code: "NOPE", Total: 1000},
			setupMock: func(repo *promoMocks.MockPromotion) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Promotion{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
		{
			name: "expired promotion",
			req:  dto.ValidatePromotionRequest{Code: "SAVE10", Total: 1000},
			setupMock: func(repo *promoMocks.MockPromotion) {
				expired := promo
				expired.ValidUntil = now.AddDate(0, 0, -1)
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(expired, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name: "total below minimum booking value",
			req:  dto.ValidatePromotionRequest{Code: "SAVE10", Total: 50000},
			setupMock: func(repo *promoMocks.MockPromotion) {
				floored := promo
				floored.MinBookingValue = 100000
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(floored, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name: "exhausted promotion",
			req:  dto.ValidatePromotionRequest{Code: "SAVE10", Total: 1000},
			setupMock: func(repo *promoMocks.MockPromotion) {
				used := promo
				used.UsageCount = used.UsageLimit
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(used, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, _ := newPromotionService(t)
			tt.setupMock(mockRepo)

			res, err := svc.Validate(context.Background(), tt.req)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
				assert.InDelta(t, tt.wantDiscount, res.Discount, 0.001)
				assert.InDelta(t, tt.wantTotal, res.Total, 0.001)
			}
		})
	}
}

func TestPromotionService_Delete(t *testing.T) {
	t.Run("delete existing", func(t *testing.T) {
		svc, mockRepo, _ := newPromotionService(t)

		mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		mockRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		assert.NoError(t, svc.Delete(context.Background(), "promo-1"))
	})

	t.Run("delete missing", func(t *testing.T) {
		svc, mockRepo, _ := newPromotionService(t)

		mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		err := svc.Delete(context.Background(), "missing")
		assert.Error(t, err)
		assert.Equal(t, 404, failure.GetCode(err))
	})

	t.Run("exist check error", func(t *testing.T) {
		svc, mockRepo, _ := newPromotionService(t)

		mockRepo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, errors.New("database error"))

		assert.Error(t, svc.Delete(context.Background(), "promo-1"))
	})
}

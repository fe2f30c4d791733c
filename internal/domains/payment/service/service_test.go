package service_test

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"tourbook/config"
	"tourbook/infras/otel/mocks"
	gatewayMocks "tourbook/internal/domains/payment/gateway/mocks"
	"tourbook/internal/domains/payment/gateway"
	payMocks "tourbook/internal/domains/payment/mocks"
	"tourbook/internal/domains/payment/model"
	"tourbook/internal/domains/payment/service"
	"tourbook/shared/failure"
)

func newPaymentService(t *testing.T) (service.Payment, *payMocks.MockPayment, *gatewayMocks.MockGateway) {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockRepo := payMocks.NewMockPayment(ctrl)
	mockGateway := gatewayMocks.NewMockGateway(ctrl)
	mockOtel := mocks.NewOtel()

	cfg := &config.Config{}

	return service.New(mockRepo, cfg, mockOtel, mockGateway), mockRepo, mockGateway
}

func TestPaymentService_HandleReturn(t *testing.T) {
	pending := model.Payment{
		ID:        "pay-1",
		BookingID: "booking-1",
		Code:      "PAY-123",
		Amount:    950000,
		Status:    model.StatusPending,
	}

	params := url.Values{"vnp_TxnRef": {"PAY-123"}}

	tests := []struct {
		name        string
		setupMock   func(repo *payMocks.MockPayment, gw *gatewayMocks.MockGateway)
		wantErr     bool
		wantCode    int
		wantSuccess bool
	}{
		{
			name: "successful payment marks paid",
			setupMock: func(repo *payMocks.MockPayment, gw *gatewayMocks.MockGateway) {
				gw.EXPECT().VerifyReturn(params).Return(gateway.VerifyResult{
					PaymentCode: "PAY-123",
					TxnID:       "gw-txn-1",
					Amount:      950000,
					Success:     true,
				}, nil)
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
						assert.Equal(t, model.StatusPaid, fields[model.FieldStatus])
						return nil
					})
			},
			wantSuccess: true,
		},
		{
			name: "failed payment marks failed",
			setupMock: func(repo *payMocks.MockPayment, gw *gatewayMocks.MockGateway) {
				gw.EXPECT().VerifyReturn(params).Return(gateway.VerifyResult{
					PaymentCode: "PAY-123",
					Amount:      950000,
					Success:     false,
				}, nil)
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
				repo.EXPECT().
					Update(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
						assert.Equal(t, model.StatusFailed, fields[model.FieldStatus])
						return nil
					})
			},
			wantSuccess: false,
		},
		{
			name: "invalid signature",
			setupMock: func(repo *payMocks.MockPayment, gw *gatewayMocks.MockGateway) {
				gw.EXPECT().VerifyReturn(params).Return(gateway.VerifyResult{}, failure.BadRequestFromString("invalid gateway signature"))
			},
			wantErr:  true,
			wantCode: 400,
		},
		{
			name: "amount mismatch",
			setupMock: func(repo *payMocks.MockPayment, gw *gatewayMocks.MockGateway) {
				gw.EXPECT().VerifyReturn(params).Return(gateway.VerifyResult{
					PaymentCode: "PAY-123",
					Amount:      100,
					Success:     true,
				}, nil)
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(pending, nil)
			},
			wantErr:  true,
			wantCode: 409,
		},
		{
			name: "replayed redirect for settled payment is idempotent",
			setupMock: func(repo *payMocks.MockPayment, gw *gatewayMocks.MockGateway) {
				paid := pending
				paid.Status = model.StatusPaid

				gw.EXPECT().VerifyReturn(params).Return(gateway.VerifyResult{
					PaymentCode: "PAY-123",
					Amount:      950000,
					Success:     true,
				}, nil)
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(paid, nil)
			},
			wantSuccess: true,
		},
		{
			name: "unknown payment code",
			setupMock: func(repo *payMocks.MockPayment, gw *gatewayMocks.MockGateway) {
				gw.EXPECT().VerifyReturn(params).Return(gateway.VerifyResult{
					PaymentCode: "PAY-123",
					Amount:      950000,
					Success:     true,
				}, nil)
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{}, nil)
			},
			wantErr:  true,
			wantCode: 404,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mockRepo, mockGateway := newPaymentService(t)
			tt.setupMock(mockRepo, mockGateway)

			res, err := svc.HandleReturn(context.Background(), params)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "booking-1", res.BookingID)
				assert.Equal(t, tt.wantSuccess, res.Success)
			}
		})
	}
}

func TestPaymentService_PaymentURL(t *testing.T) {
	t.Run("pending payment", func(t *testing.T) {
		svc, mockRepo, mockGateway := newPaymentService(t)

		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{
			ID:     "pay-1",
			Code:   "PAY-123",
			Amount: 950000,
			Status: model.StatusPending,
		}, nil)
		mockGateway.EXPECT().BuildPaymentURL("PAY-123", 950000.0).Return("?signed", nil)

		url, err := svc.PaymentURL(context.Background(), "PAY-123")
		assert.NoError(t, err)
		assert.Equal(t, "?signed", url)
	})

	t.Run("settled payment refused", func(t *testing.T) {
		svc, mockRepo, _ := newPaymentService(t)

		mockRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Payment{
			ID:     "pay-1",
			Status: model.StatusPaid,
		}, nil)

		_, err := svc.PaymentURL(context.Background(), "PAY-123")
		assert.Error(t, err)
		assert.Equal(t, 409, failure.GetCode(err))
	})
}

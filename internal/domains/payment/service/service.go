package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"

	"tourbook/config"
	"tourbook/infras/otel"
	"tourbook/internal/domains/payment/gateway"
	"tourbook/internal/domains/payment/model"
	"tourbook/internal/domains/payment/model/dto"
	"tourbook/internal/domains/payment/repository"
	"tourbook/shared"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
	"tourbook/shared/timezone"
)

type Payment interface {
	GetByBooking(ctx context.Context, bookingID string) ([]dto.PaymentResponse, error)
	PaymentURL(ctx context.Context, paymentCode string) (string, error)
	HandleReturn(ctx context.Context, params url.Values) (dto.HandleReturnResponse, error)
}

type serviceImpl struct {
	repo    repository.Payment
	cfg     *config.Config
	otel    otel.Otel
	gateway gateway.Gateway
}

func New(repo repository.Payment, cfg *config.Config, otel otel.Otel, gateway gateway.Gateway) Payment {
	return &serviceImpl{
		repo:    repo,
		cfg:     cfg,
		otel:    otel,
		gateway: gateway,
	}
}

func (s *serviceImpl) GetByBooking(ctx context.Context, bookingID string) (res []dto.PaymentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.GetByBooking")
	defer scope.End()
	defer scope.TraceIfError(err)

	models, err := s.repo.GetAll(ctx,
		gDto.QueryParams{SortBy: constant.FieldCreatedAt, SortDir: gDto.SortDirDesc},
		shared.FilterByID(bookingID, model.FieldBookingID, model.TableName),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to get payments")

		return res, fmt.Errorf("failed to get payments: %w", err)
	}

	res = make([]dto.PaymentResponse, len(models))
	for i, mod := range models {
		res[i].FromModel(mod)
	}

	return res, nil
}

func (s *serviceImpl) PaymentURL(ctx context.Context, paymentCode string) (res string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.PaymentURL")
	defer scope.End()
	defer scope.TraceIfError(err)

	payment, err := s.repo.Get(ctx, shared.FilterByID(paymentCode, model.FieldCode, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get payment")

		return res, fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.ID == constant.Empty {
		return res, failure.NotFound("payment not found") //nolint:wrapcheck
	}

	if payment.Status != model.StatusPending {
		return res, failure.Conflict("payment is not pending") //nolint:wrapcheck
	}

	return s.gateway.BuildPaymentURL(payment.Code, payment.Amount)
}

// HandleReturn processes the gateway redirect. It verifies the signature,
// records the outcome on the payment row, and reports which booking should
// be confirmed. Booking confirmation itself is the caller's job.
func (s *serviceImpl) HandleReturn(ctx context.Context, params url.Values) (res dto.HandleReturnResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".payment.HandleReturn")
	defer scope.End()
	defer scope.TraceIfError(err)

	result, err := s.gateway.VerifyReturn(params)
	if err != nil {
		log.Error().Err(err).Msg("gateway return verification failed")

		return res, err
	}

	payment, err := s.repo.Get(ctx, shared.FilterByID(result.PaymentCode, model.FieldCode, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get payment")

		return res, fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.ID == constant.Empty {
		return res, failure.NotFound("payment not found") //nolint:wrapcheck
	}

	// Replayed redirects for an already settled payment are idempotent.
	if payment.Status != model.StatusPending {
		return dto.HandleReturnResponse{
			BookingID:   payment.BookingID,
			PaymentCode: payment.Code,
			Success:     payment.Status == model.StatusPaid,
		}, nil
	}

	if result.Amount != payment.Amount {
		return res, failure.Conflict("payment amount mismatch") //nolint:wrapcheck
	}

	now := timezone.Now()
	updatedFields := map[string]any{
		"gateway_txn_id":         result.TxnID,
		constant.FieldModifiedAt: now,
	}

	if result.Success {
		updatedFields[model.FieldStatus] = model.StatusPaid
		updatedFields[model.FieldPaidAt] = now
	} else {
		updatedFields[model.FieldStatus] = model.StatusFailed
	}

	filter := shared.FilterByID(payment.ID, model.FieldID, model.TableName)
	if err = s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update payment status")

		return res, fmt.Errorf("failed to update payment status: %w", err)
	}

	return dto.HandleReturnResponse{
		BookingID:   payment.BookingID,
		PaymentCode: payment.Code,
		Success:     result.Success,
	}, nil
}

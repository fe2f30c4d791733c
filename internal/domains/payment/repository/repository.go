package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tourbook/infras/otel"
	"tourbook/infras/postgres"
	"tourbook/internal/domains/payment/model"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/logger"
	gRepo "tourbook/shared/repository"
	"tourbook/shared/timezone"
)

type Payment interface {
	Insert(ctx context.Context, model model.Payment) error
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Payment) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Payment, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Payment, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	FailPendingByBookingTx(ctx context.Context, sqltx *sqlx.Tx, bookingID string) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Payment]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Payment {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Payment](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// FailPendingByBookingTx marks every still-pending payment of a booking as
// failed. Used when a booking is cancelled or expires; paid payments are
// deliberately left untouched for reconciliation.
func (repo *repositoryImpl) FailPendingByBookingTx(ctx context.Context, sqltx *sqlx.Tx, bookingID string) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".payment.FailPendingByBookingTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := `UPDATE payments
		SET status = :failed,
			modified_at = :modified_at
		WHERE booking_id = :booking_id
			AND status = :pending`

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	_, err = sqltx.NamedExecContext(ctx, query, map[string]any{
		"booking_id":  bookingID,
		"pending":     model.StatusPending,
		"failed":      model.StatusFailed,
		"modified_at": timezone.Now(),
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to fail pending payments: %w", err)
	}

	return nil
}

package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"tourbook/infras/otel"
	"tourbook/infras/postgres"
	"tourbook/internal/domains/booking/model"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/logger"
	gRepo "tourbook/shared/repository"
	"tourbook/shared/timezone"
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	UpdateTx(ctx context.Context, sqltx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) error
	UpdateStatusTx(ctx context.Context, sqltx *sqlx.Tx, bookingID string, from, to model.BookingStatus, fields map[string]any) (bool, error)
	MarkTicketUsed(ctx context.Context, bookingID string, checkinAt time.Time, actor string) (bool, error)
	FindStale(ctx context.Context, olderThan time.Time, limit int) ([]model.Booking, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// UpdateStatusTx performs a guarded status transition. The update only lands
// when the row is still in the expected source status, so two concurrent
// transitions on the same booking cannot both succeed. The extra fields are
// written in the same statement as the status change. Returns false when the
// guard rejected the transition.
func (repo *repositoryImpl) UpdateStatusTx(ctx context.Context, sqltx *sqlx.Tx, bookingID string, from, to model.BookingStatus, fields map[string]any) (moved bool, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.UpdateStatusTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := `UPDATE bookings SET status = :to_status, modified_at = :modified_at`
	args := map[string]any{
		"id":          bookingID,
		"from_status": from,
		"to_status":   to,
		"modified_at": timezone.Now(),
	}

	for field, value := range fields {
		query += fmt.Sprintf(", %s = :%s", field, field)
		args[field] = value
	}

	query += ` WHERE id = :id AND status = :from_status`

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := sqltx.NamedExecContext(ctx, query, args)
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to update booking status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return rows > 0, nil
}

// MarkTicketUsed stamps the booking's ticket as used. The is_used guard in
// the statement makes the loser of a concurrent double scan come back with
// false instead of silently re-stamping. Returns false when the guard
// rejected the update.
func (repo *repositoryImpl) MarkTicketUsed(ctx context.Context, bookingID string, checkinAt time.Time, actor string) (stamped bool, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.MarkTicketUsed")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := `UPDATE bookings
		SET is_used = TRUE, checkin_at = :checkin_at, modified_at = :modified_at, modified_by = :modified_by
		WHERE id = :id AND is_used = FALSE`

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := sqlx.NamedExecContext(ctx, repo.db.Write, query, map[string]any{
		"id":          bookingID,
		"checkin_at":  checkinAt,
		"modified_at": timezone.Now(),
		"modified_by": actor,
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to mark ticket as used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)

		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return rows > 0, nil
}

// FindStale returns pending bookings created before olderThan, oldest first.
func (repo *repositoryImpl) FindStale(ctx context.Context, olderThan time.Time, limit int) (bookings []model.Booking, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.FindStale")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := `SELECT * FROM bookings
		WHERE status = :status AND created_at < :older_than
		ORDER BY created_at ASC
		LIMIT :limit`

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	rows, err := sqlx.NamedQueryContext(ctx, repo.db.Read, query, map[string]any{
		"status":     model.StatusPending,
		"older_than": olderThan,
		"limit":      limit,
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to query stale bookings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var booking model.Booking
		if err = rows.StructScan(&booking); err != nil {
			logger.ErrorWithStack(err)

			return nil, fmt.Errorf("failed to scan stale booking: %w", err)
		}

		bookings = append(bookings, booking)
	}

	return bookings, nil
}

package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tourbook/infras/otel"
	"tourbook/infras/postgres"
	"tourbook/internal/domains/tour/model"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
	"tourbook/shared/logger"
	gRepo "tourbook/shared/repository"
	"tourbook/shared/timezone"
)

type Tour interface {
	Insert(ctx context.Context, model model.Tour) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Tour, error)
	GetTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup, columns ...string) (model.Tour, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Tour, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	AdjustCapacityTx(ctx context.Context, sqltx *sqlx.Tx, tourID string, delta int) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Tour]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Tour {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Tour](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// AdjustCapacityTx moves delta seats between available and booked in a single
// guarded update. Every capacity mutation in the system goes through here, so
// the bounds 0 <= available_slots <= total_slots can never be violated even
// under concurrent bookings. A zero row count means the guard rejected the
// change and the caller's transaction must abort.
func (repo *repositoryImpl) AdjustCapacityTx(ctx context.Context, sqltx *sqlx.Tx, tourID string, delta int) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".tour.AdjustCapacityTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := `UPDATE tours
		SET available_slots = available_slots + :delta,
			booked_participants = booked_participants - :delta,
			modified_at = :modified_at
		WHERE id = :id
			AND is_deleted = false
			AND available_slots + :delta >= 0
			AND available_slots + :delta <= total_slots`

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := sqltx.NamedExecContext(ctx, query, map[string]any{
		"id":          tourID,
		"delta":       delta,
		"modified_at": timezone.Now(),
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to adjust tour capacity: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if rows == 0 {
		return failure.Conflict("not enough available slots for this tour") //nolint:wrapcheck
	}

	return nil
}

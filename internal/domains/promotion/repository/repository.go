package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tourbook/infras/otel"
	"tourbook/infras/postgres"
	"tourbook/internal/domains/promotion/model"
	"tourbook/shared/constant"
	gDto "tourbook/shared/dto"
	"tourbook/shared/failure"
	"tourbook/shared/logger"
	gRepo "tourbook/shared/repository"
	"tourbook/shared/timezone"
)

type Promotion interface {
	Insert(ctx context.Context, model model.Promotion) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Promotion, error)
	GetTx(ctx context.Context, sqltx *sqlx.Tx, filter gDto.FilterGroup, columns ...string) (model.Promotion, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Promotion, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	UpdateUsageCountTx(ctx context.Context, sqltx *sqlx.Tx, promotionID string, delta int) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Promotion]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Promotion {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Promotion](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// UpdateUsageCountTx applies delta to usage_count with the limit enforced in
// the same statement. Concurrent bookings racing for the last redemption are
// serialized by the row lock; the loser sees zero affected rows.
func (repo *repositoryImpl) UpdateUsageCountTx(ctx context.Context, sqltx *sqlx.Tx, promotionID string, delta int) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".promotion.UpdateUsageCountTx")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := `UPDATE promotions
		SET usage_count = usage_count + :delta,
			modified_at = :modified_at
		WHERE id = :id
			AND usage_count + :delta >= 0
			AND (usage_limit = 0 OR usage_count + :delta <= usage_limit)`

	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := sqltx.NamedExecContext(ctx, query, map[string]any{
		"id":          promotionID,
		"delta":       delta,
		"modified_at": timezone.Now(),
	})
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to update promotion usage count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)

		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if rows == 0 {
		return failure.Conflict("promotion usage limit reached") //nolint:wrapcheck
	}

	return nil
}

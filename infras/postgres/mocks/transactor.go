package mocks

import (
	"context"

	"github.com/jmoiron/sqlx"

	"tourbook/infras/postgres"
)

type transactorImpl struct {
	beginErr  error
	commitErr error
}

// WithTransaction implements postgres.Transactor. The callback receives a nil
// transaction; repository mocks used alongside this fake accept any tx value.
func (t *transactorImpl) WithTransaction(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	if t.beginErr != nil {
		return t.beginErr
	}

	if err := fn(nil); err != nil {
		return err
	}

	return t.commitErr
}

func NewTransactor() postgres.Transactor {
	return &transactorImpl{}
}

func NewTransactorWithBeginError(err error) postgres.Transactor {
	return &transactorImpl{beginErr: err}
}

func NewTransactorWithCommitError(err error) postgres.Transactor {
	return &transactorImpl{commitErr: err}
}

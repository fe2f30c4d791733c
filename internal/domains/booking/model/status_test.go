package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tourbook/internal/domains/booking/model"
)

func TestCanTransition(t *testing.T) {
	statuses := []model.BookingStatus{
		model.StatusPending,
		model.StatusConfirmed,
		model.StatusCancelled,
		model.StatusCompleted,
		model.StatusExpired,
		model.StatusFailed,
	}

	allowed := map[model.BookingStatus]map[model.BookingStatus]bool{
		model.StatusPending: {
			model.StatusConfirmed: true,
			model.StatusCancelled: true,
			model.StatusExpired:   true,
		},
		model.StatusConfirmed: {
			model.StatusCompleted: true,
			model.StatusCancelled: true,
		},
	}

	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[from][to]
			got := model.CanTransition(from, to)
			assert.Equalf(t, want, got, "transition %s -> %s", from, to)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, model.StatusPending.IsTerminal())
	assert.False(t, model.StatusConfirmed.IsTerminal())
	assert.True(t, model.StatusCancelled.IsTerminal())
	assert.True(t, model.StatusCompleted.IsTerminal())
	assert.True(t, model.StatusExpired.IsTerminal())
	assert.True(t, model.StatusFailed.IsTerminal())
}

package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"tourbook/config"
	otelMocks "tourbook/infras/otel/mocks"
	serviceMocks "tourbook/internal/domains/booking/service/mocks"
)

func newReaper(t *testing.T) (*Reaper, *serviceMocks.MockBooking) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mockService := serviceMocks.NewMockBooking(ctrl)

	cfg := &config.Config{}
	cfg.Booking.ReaperIntervalSeconds = 1

	return NewReaper(mockService, cfg, otelMocks.NewOtel()), mockService
}

func TestReaper_Sweep(t *testing.T) {
	t.Run("logs expired count", func(t *testing.T) {
		reaper, mockService := newReaper(t)

		mockService.EXPECT().ExpireStale(gomock.Any()).Return(3, nil)

		reaper.sweep(context.Background())
	})

	t.Run("continues after service error", func(t *testing.T) {
		reaper, mockService := newReaper(t)

		mockService.EXPECT().ExpireStale(gomock.Any()).Return(0, errors.New("db down"))

		reaper.sweep(context.Background())
	})
}

func TestReaper_StartStopsOnCancel(t *testing.T) {
	reaper, mockService := newReaper(t)

	mockService.EXPECT().ExpireStale(gomock.Any()).Return(0, nil).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	go func() {
		reaper.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop after context cancellation")
	}
}

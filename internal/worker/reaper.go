package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"tourbook/config"
	"tourbook/infras/otel"
	bookingService "tourbook/internal/domains/booking/service"
	"tourbook/shared/constant"
)

// Reaper periodically expires pending bookings whose payment hold has
// lapsed, releasing their seats back to the tour.
type Reaper struct {
	bookingService bookingService.Booking
	cfg            *config.Config
	otel           otel.Otel
}

func NewReaper(bookingService bookingService.Booking, cfg *config.Config, otel otel.Otel) *Reaper {
	return &Reaper{
		bookingService: bookingService,
		cfg:            cfg,
		otel:           otel,
	}
}

// Start runs sweep cycles until the context is cancelled.
func (r *Reaper) Start(ctx context.Context) {
	interval := time.Duration(r.cfg.Booking.ReaperIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	log.Info().Dur("interval", interval).Msg("Starting booking expiry reaper.")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Booking expiry reaper stopped.")

			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelWorkerScopeName, constant.OtelWorkerScopeName+".reaper.sweep")
	defer scope.End()

	expired, err := r.bookingService.ExpireStale(ctx)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to expire stale bookings")

		return
	}

	if expired > 0 {
		log.Info().Int("expired", expired).Msg("Expired stale bookings")
	}

	scope.SetAttribute("reaper.expired_count", expired)
}

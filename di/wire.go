//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"tourbook/config"
	"tourbook/infras/jwt"
	"tourbook/infras/kafka"
	"tourbook/infras/otel"
	"tourbook/infras/postgres"
	"tourbook/infras/redis"
	"tourbook/infras/s3"
	"tourbook/internal/worker"
	"tourbook/permissions"
	"tourbook/shared/cache"
	"tourbook/shared/lock"
	"tourbook/transport/http"
	"tourbook/transport/http/middleware"
	"tourbook/transport/http/router"

	"tourbook/internal/domains/payment/gateway"

	authService "tourbook/internal/domains/auth/service"
	bookingRepository "tourbook/internal/domains/booking/repository"
	bookingService "tourbook/internal/domains/booking/service"
	paymentRepository "tourbook/internal/domains/payment/repository"
	paymentService "tourbook/internal/domains/payment/service"
	promotionRepository "tourbook/internal/domains/promotion/repository"
	promotionService "tourbook/internal/domains/promotion/service"
	reviewRepository "tourbook/internal/domains/review/repository"
	reviewService "tourbook/internal/domains/review/service"
	tourRepository "tourbook/internal/domains/tour/repository"
	tourService "tourbook/internal/domains/tour/service"
	userRepository "tourbook/internal/domains/user/repository"

	authHandler "tourbook/internal/handlers/auth"
	bookingHandler "tourbook/internal/handlers/booking"
	paymentHandler "tourbook/internal/handlers/payment"
	promotionHandler "tourbook/internal/handlers/promotion"
	reviewHandler "tourbook/internal/handlers/review"
	tourHandler "tourbook/internal/handlers/tour"
)

// App bundles the long-running components a process starts.
type App struct {
	HTTP   *http.HTTP
	Reaper *worker.Reaper
}

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	wire.Bind(new(postgres.Transactor), new(*postgres.Connection)),
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	lock.NewLocker,
)

var authDomain = wire.NewSet(
	userRepository.New,
	authService.New,
)

var tourDomain = wire.NewSet(
	tourRepository.New,
	tourService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var paymentDomain = wire.NewSet(
	paymentRepository.New,
	gateway.NewVNPay,
	paymentService.New,
)

var promotionDomain = wire.NewSet(
	promotionRepository.New,
	promotionService.New,
)

var reviewDomain = wire.NewSet(
	reviewRepository.New,
	reviewService.New,
)

var domains = wire.NewSet(
	authDomain,
	tourDomain,
	bookingDomain,
	paymentDomain,
	promotionDomain,
	reviewDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	tourHandler.New,
	bookingHandler.New,
	paymentHandler.New,
	promotionHandler.New,
	reviewHandler.New,
	router.New,
)

func InitializeApp() *App {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
		worker.NewReaper,
		wire.Struct(new(App), "*"),
	)

	return &App{}
}

//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"certslot/config"
	"certslot/infras/jwt"
	"certslot/infras/kafka"
	"certslot/infras/otel"
	"certslot/infras/postgres"
	"certslot/infras/redis"
	"certslot/infras/s3"
	"certslot/permissions"
	"certslot/shared/cache"
	"certslot/transport/http"
	"certslot/transport/http/middleware"
	"certslot/transport/http/router"

	authService "certslot/internal/domains/auth/service"
	bookingRepository "certslot/internal/domains/booking/repository"
	bookingService "certslot/internal/domains/booking/service"
	slotRepository "certslot/internal/domains/slot/repository"
	slotService "certslot/internal/domains/slot/service"
	userRepository "certslot/internal/domains/user/repository"

	authHandler "certslot/internal/handlers/auth"
	bookingHandler "certslot/internal/handlers/booking"
	slotHandler "certslot/internal/handlers/slot"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var authDomain = wire.NewSet(
	userRepository.New,
	authService.New,
)

var slotDomain = wire.NewSet(
	slotRepository.New,
	slotService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var domains = wire.NewSet(
	authDomain,
	slotDomain,
	bookingDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	slotHandler.New,
	bookingHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

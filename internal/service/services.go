package service

import (
	"github.com/skyfare/skyfare/internal/redisx"
	postgres "github.com/skyfare/skyfare/internal/repository/postgres"
	redis "github.com/skyfare/skyfare/internal/repository/redis"
	"github.com/skyfare/skyfare/internal/service/booking"
	"github.com/skyfare/skyfare/internal/service/flights"
	"github.com/skyfare/skyfare/internal/service/inventory"
	"github.com/skyfare/skyfare/internal/service/ledger"
	"github.com/skyfare/skyfare/internal/service/query"
)

type Services struct {
	Booking   *booking.Service
	Flights   *flights.Service
	Inventory *inventory.Service
	Ledger    *ledger.Service
	Query     *query.Service
}

type Config struct {
	Booking   booking.Config
	Inventory inventory.Config
	Query     query.Config
}

func NewServices(
	store *postgres.Store,
	cache *redis.Cache,
	pubsub *redisx.OrdersPubSub,
	limiter *redis.SlidingWindowLimiter,
	cfg Config,
) *Services {
	inv := inventory.New(store, cfg.Inventory)
	led := ledger.New(store)

	return &Services{
		Booking:   booking.New(store, cache, pubsub, limiter, inv, led, cfg.Booking),
		Flights:   flights.New(store, cache, inv),
		Inventory: inv,
		Ledger:    led,
		Query:     query.New(store, cache, inv, cfg.Query),
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/airreserve/api"
	"github.com/Domenick1991/airreserve/config"
	"github.com/Domenick1991/airreserve/internal/bootstrap"
	"github.com/Domenick1991/airreserve/internal/cache"
	"github.com/Domenick1991/airreserve/internal/kafka"
	"github.com/Domenick1991/airreserve/internal/logger"
	"github.com/Domenick1991/airreserve/internal/rabbitmq"
	"github.com/Domenick1991/airreserve/internal/randsrc"
	"github.com/Domenick1991/airreserve/internal/repository"
	"github.com/Domenick1991/airreserve/internal/service/booking"
	"github.com/Domenick1991/airreserve/internal/service/flights"
	"github.com/Domenick1991/airreserve/internal/service/inventory"
	"github.com/Domenick1991/airreserve/internal/service/pricing"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New(cfg.Log)
	if log.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	var store repository.Store
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err = pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		defer pool.Close()
		store = repository.NewStore(pool)
	default:
		mem := repository.NewMemoryStore()
		if cfg.Storage.SeedDemo {
			if err := seedDemoFlights(ctx, mem); err != nil {
				log.Fatalf("seed demo flights: %v", err)
			}
		}
		store = mem
	}

	var history repository.PriceHistoryRepository
	switch cfg.Pricing.HistoryBackend {
	case config.HistoryPostgres:
		history = repository.NewPriceHistoryRepository(pool)
	case config.HistoryMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI).SetTimeout(cfg.Mongo.Timeout()))
		if err != nil {
			log.Fatalf("connect mongo: %v", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		mongoHistory := repository.NewMongoPriceHistoryRepository(client.Database(cfg.Mongo.Database), cfg.Mongo.Collection, cfg.Mongo.Timeout())
		if err := mongoHistory.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Warn("price history indexes not created")
		}
		history = mongoHistory
	default:
		history = repository.NewMemoryPriceHistory()
	}

	rnd := randsrc.New(cfg.Pricing.RandomSeed)
	engine := pricing.NewEngine(store, history,
		pricing.NewCalculator(rnd, cfg.Pricing.Fluctuation()),
		pricing.WithLogger(log),
		pricing.WithTrendLookbackDays(cfg.Pricing.TrendLookbackDays),
	)

	bookingOpts := []booking.BookingServiceOption{
		booking.WithLogger(log),
		booking.WithRandSource(rnd),
		booking.WithIdentifierAttempts(cfg.Booking.IdentifierAttempts),
		booking.WithConflictAttempts(cfg.Booking.ConflictAttempts),
		booking.WithNotificationsTopic(cfg.Events.NotificationsTopic),
	}

	switch cfg.Events.Broker {
	case config.BrokerKafka:
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka unreachable, booking events will be dropped until it recovers")
		}
		bookingOpts = append(bookingOpts, booking.WithProducer(producer, cfg.Events.BookingTopic))
	case config.BrokerRabbitMQ:
		publisher := rabbitmq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		bookingOpts = append(bookingOpts, booking.WithProducer(publisher, cfg.Events.BookingTopic))
	}

	var flightCache flights.FlightCache
	if cfg.Redis.Enabled {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.FlightsCacheDuration())
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			log.WithError(err).Warn("redis unreachable, flight catalog served from the store")
		}
		flightCache = redisCache
		bookingOpts = append(bookingOpts, booking.WithCache(redisCache))
	}

	inventoryService := inventory.NewInventoryService(store, log)
	bookingService := booking.NewBookingService(store, inventoryService, engine, bookingOpts...)
	flightService := flights.NewFlightService(store, flightCache, log)

	router := api.NewRouter(cfg.HTTP, log, api.Handlers{
		Flights:  api.NewFlightHandler(flightService),
		Bookings: api.NewBookingHandler(bookingService),
		Pricing:  api.NewPricingHandler(engine),
		Admin:    api.NewAdminHandler(flightService, bookingService),
	})

	if err := bootstrap.Run(ctx, cfg.HTTP, router, log); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

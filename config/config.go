package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Events   EventsConfig   `yaml:"events"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Booking  BookingConfig  `yaml:"booking"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address           string   `yaml:"address"`
	SwaggerDir        string   `yaml:"swagger_dir"`
	AllowedOrigins    []string `yaml:"allowed_origins"`
	ShutdownTimeoutMS int      `yaml:"shutdown_timeout_ms"`
}

func (h HTTPConfig) ShutdownTimeout() time.Duration {
	return time.Duration(h.ShutdownTimeoutMS) * time.Millisecond
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	if d.MaxConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%d", d.MaxConns)
	}
	return dsn
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	HistoryPostgres = "postgres"
	HistoryMongo    = "mongo"
	HistoryMemory   = "memory"

	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
	BrokerNone     = "none"
)

type StorageConfig struct {
	Driver string `yaml:"driver"`
	// SeedDemo populates the memory store with a few flights on startup.
	SeedDemo bool `yaml:"seed_demo"`
}

type RedisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	DialTimeoutMS int    `yaml:"dial_timeout_ms"`
}

func (r RedisConfig) DialTimeout() time.Duration {
	return time.Duration(r.DialTimeoutMS) * time.Millisecond
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	TimeoutMS  int    `yaml:"timeout_ms"`
}

func (m MongoConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutMS) * time.Millisecond
}

// EventsConfig names the broker and the topics (Kafka) or routing keys
// (RabbitMQ) booking events are published to.
type EventsConfig struct {
	Broker             string `yaml:"broker"`
	BookingTopic       string `yaml:"booking_topic"`
	NotificationsTopic string `yaml:"notifications_topic"`
}

const DefaultDemandFluctuation = 0.3

type PricingConfig struct {
	HistoryBackend string `yaml:"history_backend"`
	// DemandFluctuation is nil when unset; an explicit 0 disables the jitter.
	DemandFluctuation *float64 `yaml:"demand_fluctuation"`
	TrendLookbackDays int      `yaml:"trend_lookback_days"`
	RandomSeed        uint64   `yaml:"random_seed"`
}

func (p PricingConfig) Fluctuation() float64 {
	if p.DemandFluctuation == nil {
		return DefaultDemandFluctuation
	}
	return *p.DemandFluctuation
}

type BookingConfig struct {
	IdentifierAttempts int `yaml:"identifier_attempts"`
	ConflictAttempts   int `yaml:"conflict_attempts"`
	FlightsCacheTTL    int `yaml:"flights_cache_ttl_seconds"`
}

func (b BookingConfig) FlightsCacheDuration() time.Duration {
	return time.Duration(b.FlightsCacheTTL) * time.Second
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads an optional .env file, the YAML file at path and then environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.HTTP.Address = getEnv("HTTP_ADDRESS", c.HTTP.Address)
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = getEnv("DB_NAME", c.Database.Name)

	c.Redis.Addr = getEnv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	c.Kafka.Brokers = getEnvAsSlice("KAFKA_BROKERS", c.Kafka.Brokers)
	c.RabbitMQ.URL = getEnv("RABBITMQ_URL", c.RabbitMQ.URL)
	c.Mongo.URI = getEnv("MONGO_URI", c.Mongo.URI)
	c.Events.Broker = getEnv("EVENTS_BROKER", c.Events.Broker)
	c.Pricing.HistoryBackend = getEnv("PRICE_HISTORY_BACKEND", c.Pricing.HistoryBackend)
	if raw := os.Getenv("PRICE_DEMAND_FLUCTUATION"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil {
			c.Pricing.DemandFluctuation = &value
		}
	}

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

func (c *Config) applyDefaults() {
	setDefault(&c.HTTP.Address, ":8080")
	setDefaultInt(&c.HTTP.ShutdownTimeoutMS, 10000)
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"*"}
	}

	setDefault(&c.Storage.Driver, StoragePostgres)
	setDefault(&c.Database.SSLMode, "disable")
	setDefaultInt(&c.Database.Port, 5432)

	setDefaultInt(&c.Redis.DialTimeoutMS, 2000)

	setDefault(&c.Kafka.GroupID, "airreserve-notifier")
	setDefault(&c.RabbitMQ.Exchange, "airreserve.bookings")

	setDefault(&c.Mongo.Database, "airreserve")
	setDefault(&c.Mongo.Collection, "price_history")
	setDefaultInt(&c.Mongo.TimeoutMS, 5000)

	setDefault(&c.Events.Broker, BrokerKafka)
	setDefault(&c.Events.BookingTopic, "booking-events")
	setDefault(&c.Events.NotificationsTopic, "booking-notifications")

	setDefault(&c.Pricing.HistoryBackend, HistoryPostgres)
	if c.Pricing.DemandFluctuation == nil {
		fluctuation := DefaultDemandFluctuation
		c.Pricing.DemandFluctuation = &fluctuation
	}
	setDefaultInt(&c.Pricing.TrendLookbackDays, 7)

	setDefaultInt(&c.Booking.IdentifierAttempts, 10)
	setDefaultInt(&c.Booking.ConflictAttempts, 3)
	setDefaultInt(&c.Booking.FlightsCacheTTL, 60)

	setDefault(&c.Log.Level, "info")
	setDefault(&c.Log.Format, "json")
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageMemory:
		if c.Pricing.HistoryBackend == HistoryPostgres {
			errs = append(errs, errors.New("pricing.history_backend postgres requires storage.driver postgres"))
		}
	case StoragePostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, errors.New("database.host and database.name are required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}

	switch c.Pricing.HistoryBackend {
	case HistoryPostgres, HistoryMemory:
	case HistoryMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("mongo.uri is required for mongo price history"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown pricing.history_backend %q", c.Pricing.HistoryBackend))
	}

	switch c.Events.Broker {
	case BrokerNone:
	case BrokerKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers is required when events.broker is kafka"))
		}
	case BrokerRabbitMQ:
		if c.RabbitMQ.URL == "" {
			errs = append(errs, errors.New("rabbitmq.url is required when events.broker is rabbitmq"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown events.broker %q", c.Events.Broker))
	}

	if f := c.Pricing.Fluctuation(); f < 0 || f >= 1 {
		errs = append(errs, fmt.Errorf("pricing.demand_fluctuation must be in [0, 1), got %v", f))
	}

	return errors.Join(errs...)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setDefaultInt(field *int, value int) {
	if *field <= 0 {
		*field = value
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsSlice(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}

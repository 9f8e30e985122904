package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Realtime  RealtimeConfig
	MinIO     MinIOConfig
	Kafka     KafkaConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	LogLevel  slog.Level
}

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URI      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns URI when set, otherwise a key/value DSN built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URI != "" {
		return d.URI
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	URI          string
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
}

type JWTConfig struct {
	Secret         string
	ExpirationTime time.Duration
}

type RealtimeConfig struct {
	SendBufferSize    int
	KeepAliveInterval time.Duration
	PingPeriod        time.Duration
	PongWait          time.Duration
	WriteWait         time.Duration
	// RedisRelay routes every event through redis pub/sub so all instances fan out.
	RedisRelay     bool
	InternalSecret string
	// PublishURL points at a separate realtime process; events are POSTed there.
	PublishURL string
}

// PublishMode names how list mutations reach subscribers.
type PublishMode string

const (
	PublishLocal  PublishMode = "local"
	PublishRelay  PublishMode = "relay"
	PublishRemote PublishMode = "remote"
)

// Mode picks the publisher. A remote URL wins over the redis relay.
func (r RealtimeConfig) Mode() PublishMode {
	switch {
	case r.PublishURL != "":
		return PublishRemote
	case r.RedisRelay:
		return PublishRelay
	default:
		return PublishLocal
	}
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether recipe image uploads are configured.
func (m MinIOConfig) Enabled() bool {
	return m.Endpoint != ""
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	Enabled        bool
	RequestsPerMin int
	AuthPerMin     int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SHOPLIST_HOST", "")
	v.SetDefault("SHOPLIST_PORT", "8080")
	v.SetDefault("SHOPLIST_READ_TIMEOUT", 30*time.Second)
	// Streams are long-lived; a write timeout would cut them off.
	v.SetDefault("SHOPLIST_WRITE_TIMEOUT", 0)
	v.SetDefault("SHOPLIST_IDLE_TIMEOUT", 120*time.Second)
	v.SetDefault("SHOPLIST_JWT_SECRET", "secret")
	v.SetDefault("SHOPLIST_JWT_EXPIRE", "168h")
	v.SetDefault("SHOPLIST_LOG_LEVEL", "info")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("POSTGRES_USER", "postgres")
	v.SetDefault("POSTGRES_PASSWORD", "password")
	v.SetDefault("POSTGRES_HOST", "localhost")
	v.SetDefault("POSTGRES_PORT", "5432")
	v.SetDefault("POSTGRES_DB", "shoplist")
	v.SetDefault("POSTGRES_SSLMODE", "disable")

	v.SetDefault("REDIS_URL", "redis://127.0.0.1:6379/0")
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 100)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 10)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)

	v.SetDefault("REALTIME_SEND_BUFFER", 64)
	v.SetDefault("REALTIME_KEEPALIVE", 25*time.Second)
	v.SetDefault("REALTIME_PONG_WAIT", 60*time.Second)
	v.SetDefault("REALTIME_PING_PERIOD", 54*time.Second)
	v.SetDefault("REALTIME_WRITE_WAIT", 10*time.Second)
	v.SetDefault("REALTIME_REDIS_RELAY", false)
	v.SetDefault("REALTIME_INTERNAL_SECRET", "")
	v.SetDefault("REALTIME_PUBLISH_URL", "")

	v.SetDefault("MINIO_ENDPOINT", "")
	v.SetDefault("MINIO_ACCESS_KEY", "")
	v.SetDefault("MINIO_SECRET_KEY", "")
	v.SetDefault("MINIO_BUCKET", "recipes")
	v.SetDefault("MINIO_USE_SSL", false)

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "shoplist.list-events")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_REQUESTS_PER_MIN", 200)
	v.SetDefault("RATE_LIMIT_AUTH_PER_MIN", 30)
}

// LoadConfig reads configuration from defaults, an optional .env file in the
// working directory and the environment, in increasing priority.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
		slog.Debug("No .env file found, using environment variables")
	}
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	jwtExpire, err := time.ParseDuration(v.GetString("SHOPLIST_JWT_EXPIRE"))
	if err != nil {
		return nil, fmt.Errorf("invalid SHOPLIST_JWT_EXPIRE: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString("SHOPLIST_LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid SHOPLIST_LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         v.GetString("SHOPLIST_HOST"),
			Port:         v.GetString("SHOPLIST_PORT"),
			ReadTimeout:  v.GetDuration("SHOPLIST_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SHOPLIST_WRITE_TIMEOUT"),
			IdleTimeout:  v.GetDuration("SHOPLIST_IDLE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			URI:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("POSTGRES_HOST"),
			Port:     v.GetString("POSTGRES_PORT"),
			User:     v.GetString("POSTGRES_USER"),
			Password: v.GetString("POSTGRES_PASSWORD"),
			DBName:   v.GetString("POSTGRES_DB"),
			SSLMode:  v.GetString("POSTGRES_SSLMODE"),
		},
		Redis: RedisConfig{
			URI:          v.GetString("REDIS_URL"),
			MaxRetries:   v.GetInt("REDIS_MAX_RETRIES"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("SHOPLIST_JWT_SECRET"),
			ExpirationTime: jwtExpire,
		},
		Realtime: RealtimeConfig{
			SendBufferSize:    v.GetInt("REALTIME_SEND_BUFFER"),
			KeepAliveInterval: v.GetDuration("REALTIME_KEEPALIVE"),
			PingPeriod:        v.GetDuration("REALTIME_PING_PERIOD"),
			PongWait:          v.GetDuration("REALTIME_PONG_WAIT"),
			WriteWait:         v.GetDuration("REALTIME_WRITE_WAIT"),
			RedisRelay:        v.GetBool("REALTIME_REDIS_RELAY"),
			InternalSecret:    v.GetString("REALTIME_INTERNAL_SECRET"),
			PublishURL:        strings.TrimRight(strings.TrimSpace(v.GetString("REALTIME_PUBLISH_URL")), "/"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		RateLimit: RateLimitConfig{
			Enabled:        v.GetBool("RATE_LIMIT_ENABLED"),
			RequestsPerMin: v.GetInt("RATE_LIMIT_REQUESTS_PER_MIN"),
			AuthPerMin:     v.GetInt("RATE_LIMIT_AUTH_PER_MIN"),
		},
		LogLevel: level,
	}

	if cfg.Realtime.PingPeriod >= cfg.Realtime.PongWait {
		return nil, fmt.Errorf("REALTIME_PING_PERIOD (%s) must be shorter than REALTIME_PONG_WAIT (%s)",
			cfg.Realtime.PingPeriod, cfg.Realtime.PongWait)
	}
	if cfg.Realtime.PublishURL != "" && cfg.Realtime.InternalSecret == "" {
		return nil, errors.New("REALTIME_PUBLISH_URL requires REALTIME_INTERNAL_SECRET")
	}

	return cfg, nil
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

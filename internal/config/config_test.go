package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := fromViper(v)
	if err != nil {
		t.Fatalf("fromViper: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.JWT.ExpirationTime != 168*time.Hour {
		t.Errorf("expected 168h JWT expiry, got %s", cfg.JWT.ExpirationTime)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("expected info level, got %s", cfg.LogLevel)
	}
	if cfg.Kafka.Enabled() {
		t.Error("kafka should be disabled without brokers")
	}
	if cfg.MinIO.Enabled() {
		t.Error("minio should be disabled without endpoint")
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("expected 2 default origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	v.Set("SHOPLIST_LOG_LEVEL", "debug")
	v.Set("DATABASE_URL", "postgres://u:p@db/shop")

	cfg, err := fromViper(v)
	if err != nil {
		t.Fatalf("fromViper: %v", err)
	}

	if got := cfg.Kafka.Brokers; len(got) != 2 || got[0] != "k1:9092" || got[1] != "k2:9092" {
		t.Errorf("unexpected brokers %v", got)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.LogLevel)
	}
	if cfg.Database.DSN() != "postgres://u:p@db/shop" {
		t.Errorf("expected DATABASE_URL to win, got %s", cfg.Database.DSN())
	}
}

func TestFromViperRejectsPingLongerThanPong(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("REALTIME_PING_PERIOD", 2*time.Minute)

	if _, err := fromViper(v); err == nil {
		t.Fatal("expected error when ping period exceeds pong wait")
	}
}

func TestFromViperPublishMode(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
		want   PublishMode
		url    string
	}{
		{name: "local by default", want: PublishLocal},
		{name: "redis relay", values: map[string]any{"REALTIME_REDIS_RELAY": true}, want: PublishRelay},
		{
			name: "remote url wins over relay",
			values: map[string]any{
				"REALTIME_REDIS_RELAY":     true,
				"REALTIME_PUBLISH_URL":     " http://realtime:8081/ ",
				"REALTIME_INTERNAL_SECRET": "s3cret",
			},
			want: PublishRemote,
			url:  "http://realtime:8081",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			setDefaults(v)
			for k, val := range tt.values {
				v.Set(k, val)
			}

			cfg, err := fromViper(v)
			if err != nil {
				t.Fatalf("fromViper: %v", err)
			}
			if got := cfg.Realtime.Mode(); got != tt.want {
				t.Errorf("expected mode %s, got %s", tt.want, got)
			}
			if cfg.Realtime.PublishURL != tt.url {
				t.Errorf("expected publish url %q, got %q", tt.url, cfg.Realtime.PublishURL)
			}
		})
	}
}

func TestFromViperRejectsPublishURLWithoutSecret(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("REALTIME_PUBLISH_URL", "http://realtime:8081")

	if _, err := fromViper(v); err == nil {
		t.Fatal("expected error when publish url has no internal secret")
	}
}

func TestDatabaseDSNFromParts(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	want := "host=h port=5432 user=u password=p dbname=d sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/vaxtrack/vaxtrack/internal/config"
	"github.com/vaxtrack/vaxtrack/internal/domain/reminder"
	"github.com/vaxtrack/vaxtrack/internal/domain/vaccination"
	"github.com/vaxtrack/vaxtrack/internal/platform/db"
)

// app holds the wired services and the connections they own.
type app struct {
	pool      *pgxpool.Pool
	redis     *redis.Client
	vaccines  *vaccination.Service
	reminders *reminder.Service
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// buildApp connects the backends selected in cfg and wires the services.
func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{}

	if cfg.NeedsPostgres() {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		logger.Info().Msg("connected to database")
	}

	if cfg.SettingsBackend == config.BackendRedis {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			a.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.redis = client
		logger.Info().Str("addr", opts.Addr).Msg("connected to redis")
	}

	generator, err := vaccination.NewGenerator(vaccination.DefaultTemplate)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.vaccines = vaccination.NewService(recordRepo(cfg, a.pool), generator, logger)
	a.reminders = reminder.NewService(settingsStore(cfg, a.pool, a.redis), a.vaccines, logger)
	return a, nil
}

func recordRepo(cfg *config.Config, pool *pgxpool.Pool) vaccination.RecordRepository {
	if cfg.StoreBackend == config.BackendPostgres && pool != nil {
		return vaccination.NewRecordRepoPG(pool)
	}
	return vaccination.NewMemoryRecordRepo()
}

func settingsStore(cfg *config.Config, pool *pgxpool.Pool, client *redis.Client) reminder.Store {
	switch {
	case cfg.SettingsBackend == config.BackendPostgres && pool != nil:
		return reminder.NewStorePG(pool)
	case cfg.SettingsBackend == config.BackendRedis && client != nil:
		return reminder.NewRedisStore(client, cfg.RedisKeyPrefix)
	default:
		return reminder.NewMemoryStore()
	}
}

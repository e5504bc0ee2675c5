package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"babelbye/backend/internal/config"
	"babelbye/backend/internal/storage/migrate"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenPostgres connects to DATABASE_URL, applies migrations and wraps the
// pool in gorm. The returned *sql.DB owns the connections; close it on exit.
func OpenPostgres(ctx context.Context, cfg config.Config, log *slog.Logger) (*gorm.DB, *sql.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("opening postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxConnections)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := migrate.Run(sqlDB, log); err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("initializing gorm: %w", err)
	}

	log.Info("postgres connected", "max_connections", cfg.DBMaxConnections)
	return db, sqlDB, nil
}

// OpenRedis connects to REDIS_ADDR. It returns a nil client when Redis is not
// configured, which disables the refusal cache and presence set.
func OpenRedis(ctx context.Context, cfg config.Config, log *slog.Logger) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured; refusal cache and presence disabled")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	log.Info("redis connected", "addr", cfg.RedisAddr)
	return rdb, nil
}

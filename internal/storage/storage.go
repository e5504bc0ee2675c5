package storage

import (
	"context"
	"errors"
	"log/slog"

	"babelbye/backend/internal/config"
	"babelbye/backend/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("storage: not found")

// qb builds statements with '?' placeholders; gorm rebinds them for postgres.
var qb = sq.StatementBuilder

type Storage interface {
	UpsertProfile(ctx context.Context, userID string, update models.ProfileUpdate) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error)
	UpdateQuota(ctx context.Context, userID string, delta int) (int, error)
	SpendQuota(ctx context.Context, userID string) (bool, error)

	RequestConnection(ctx context.Context, requesterID, addresseeID string) (*models.Connection, error)
	RespondConnection(ctx context.Context, requesterID, addresseeID string, status models.ConnectionStatus) (*models.Connection, error)
	ListConnections(ctx context.Context, userID string) ([]models.Connection, error)
	ListPending(ctx context.Context, userID string) ([]models.Connection, error)
	AcceptedPeers(ctx context.Context, userID string) ([]string, error)
	IsConnected(ctx context.Context, a, b string) (bool, error)

	RecordReceipt(ctx context.Context, receipt models.MessageReceipt) error
	DeleteHistory(ctx context.Context, userID string, peerID *string) (int64, error)

	MarkOnline(ctx context.Context, userID string) error
	MarkOffline(ctx context.Context, userID string) error
	OnlineUsers(ctx context.Context) ([]string, error)
}

// Service is the PostgreSQL + Redis implementation of Storage. Redis is
// optional: with a nil client the refusal cache and presence set are skipped.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Cache RefusalCache
	Log   *slog.Logger
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client, log *slog.Logger) *Service {
	s := &Service{
		DB:    db,
		Redis: rdb,
		Log:   log,
	}
	if rdb != nil {
		s.Cache = NewRedisRefusalCache(rdb, config.RefusalCacheTTL)
	}
	return s
}

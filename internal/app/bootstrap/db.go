// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/waffle/config"
	"github.com/munawwara-care/mcadmin/internal/app/system/indexes"
	"github.com/munawwara-care/mcadmin/internal/app/system/ratelimit"
	"github.com/munawwara-care/mcadmin/internal/app/system/timeouts"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client, verifies it with a ping, and builds the
// login rate limiter (Redis-backed when redis_url is set).
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	if appCfg.RedisURL == "" {
		deps.LoginLimiter = ratelimit.NewMemory(appCfg.LoginRateLimit, appCfg.LoginRateWindow)
		logger.Info("login rate limiting in process memory",
			zap.Int("limit", appCfg.LoginRateLimit), zap.Duration("window", appCfg.LoginRateWindow))
		return deps, nil
	}

	ropts, err := redis.ParseURL(appCfg.RedisURL)
	if err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return DBDeps{}, fmt.Errorf("invalid redis_url: %w", err)
	}
	deps.Redis = redis.NewClient(ropts)
	if err := deps.Redis.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis ping failed; login rate limiting will fail open until it recovers", zap.Error(err))
	}
	deps.LoginLimiter = ratelimit.NewRedis(deps.Redis, appCfg.LoginRateLimit, appCfg.LoginRateWindow)
	logger.Info("login rate limiting in Redis",
		zap.Int("limit", appCfg.LoginRateLimit), zap.Duration("window", appCfg.LoginRateWindow))

	return deps, nil
}

// EnsureSchema reconciles the indexes the admin backend relies on, including
// the unique email and sparse phone indexes and removal of legacy ones.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	logger.Info("indexes ensured")
	return nil
}

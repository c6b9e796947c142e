package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"lending-engine/internal/config"
	"lending-engine/internal/domain/loan"
)

// RedisLoanCache keeps loan snapshots in Redis as JSON under a TTL.
// All failures degrade to a cache miss so reads fall through to the database.
type RedisLoanCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ loan.Cache = (*RedisLoanCache)(nil)

func NewRedisLoanCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*RedisLoanCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return &RedisLoanCache{
		client: rdb,
		ttl:    cfg.TTL,
		logger: logger.With("component", "RedisLoanCache"),
	}, nil
}

func loanKey(loanID int64) string {
	return fmt.Sprintf("loan:%d", loanID)
}

func (c *RedisLoanCache) GetLoan(ctx context.Context, loanID int64) (*loan.Loan, bool) {
	payload, err := c.client.Get(ctx, loanKey(loanID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "Redis GET failed", "loan_id", loanID, "error", err)
		}
		return nil, false
	}

	var l loan.Loan
	if err := json.Unmarshal(payload, &l); err != nil {
		c.logger.WarnContext(ctx, "Stale or corrupt cached loan, invalidating", "loan_id", loanID, "error", err)
		c.InvalidateLoan(ctx, loanID)
		return nil, false
	}
	return &l, true
}

func (c *RedisLoanCache) SetLoan(ctx context.Context, l *loan.Loan) {
	if l == nil {
		return
	}
	payload, err := json.Marshal(l)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to marshal loan for cache", "loan_id", l.ID, "error", err)
		return
	}
	if err := c.client.Set(ctx, loanKey(l.ID), payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis SET failed", "loan_id", l.ID, "error", err)
	}
}

func (c *RedisLoanCache) InvalidateLoan(ctx context.Context, loanID int64) {
	if err := c.client.Del(ctx, loanKey(loanID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "Redis DEL failed", "loan_id", loanID, "error", err)
	}
}

func (c *RedisLoanCache) Close() error {
	return c.client.Close()
}

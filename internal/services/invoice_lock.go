package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"retail-backoffice/config"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrLockNotObtained = errors.New("invoice is locked by another run")

// InvoiceLocker serialises pipeline runs for a single invoice.
type InvoiceLocker interface {
	Acquire(ctx context.Context, invoiceID uuid.UUID) (release func(), err error)
}

type RedisInvoiceLocker struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewRedisInvoiceLocker builds a lock whose TTL must outlive a full pipeline run.
func NewRedisInvoiceLocker(client *redis.Client, ttl time.Duration) *RedisInvoiceLocker {
	return &RedisInvoiceLocker{locker: redislock.New(client), ttl: ttl}
}

func (l *RedisInvoiceLocker) Acquire(ctx context.Context, invoiceID uuid.UUID) (func(), error) {
	lockKey := fmt.Sprintf("invoice-pipeline:%s", invoiceID)
	lock, err := l.locker.Obtain(ctx, lockKey, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain invoice lock: %w", err)
	}

	return func() {
		// release must not inherit a cancelled request context
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.Logger.Warn("Failed to release invoice lock",
				zap.String("invoice_id", invoiceID.String()),
				zap.Error(err),
			)
		}
	}, nil
}

// LocalInvoiceLocker is used when redis is not configured; it only protects a single process.
type LocalInvoiceLocker struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

func NewLocalInvoiceLocker() *LocalInvoiceLocker {
	return &LocalInvoiceLocker{held: make(map[uuid.UUID]struct{})}
}

func (l *LocalInvoiceLocker) Acquire(_ context.Context, invoiceID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[invoiceID]; busy {
		return nil, ErrLockNotObtained
	}
	l.held[invoiceID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, invoiceID)
			l.mu.Unlock()
		})
	}, nil
}

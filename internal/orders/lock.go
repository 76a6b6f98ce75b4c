package orders

import (
	"context"
	"time"

	"modoo_back_end/internal/database"
)

// Locker — verrou consultatif par commande, le temps d'une confirmation.
// Réduit la fenêtre où deux confirmations simultanées appelleraient toutes
// deux le provider ; le portail atomique reste le CAS du store.
type Locker interface {
	Acquire(ctx context.Context, orderID string) (bool, error)
	Release(ctx context.Context, orderID string)
}

const confirmLockTTL = 30 * time.Second

// RedisLocker implémente Locker avec SET NX + TTL
type RedisLocker struct{}

func NewRedisLocker() *RedisLocker { return &RedisLocker{} }

func (l *RedisLocker) Acquire(ctx context.Context, orderID string) (bool, error) {
	return database.Redis.SetNX(ctx, "confirm_lock:"+orderID, "1", confirmLockTTL).Result()
}

func (l *RedisLocker) Release(ctx context.Context, orderID string) {
	database.Redis.Del(ctx, "confirm_lock:"+orderID)
}

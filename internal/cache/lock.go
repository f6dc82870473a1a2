package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"

	"ContactBook/storage/redis"
)

// 提交锁：同一会话同一时刻只允许一次提交
const (
	lockPrefix = "submit:lock"
)

// Locker 带持有者令牌的互斥锁，只有持有者能释放
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// NewLocker 启用 Redis 时使用分布式锁，否则退化为进程内锁
func NewLocker() Locker {
	if redis.Enabled() {
		return NewRedisLocker(redis.Client())
	}
	return NewLocalLocker()
}

// unlockScript 只删除自己持有的锁，避免过期后误删他人的锁
var unlockScript = redislib.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	client redislib.Cmdable
}

func NewRedisLocker(client redislib.Cmdable) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, redis.Key(lockPrefix, key), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	return unlockScript.Run(ctx, l.client, []string{redis.Key(lockPrefix, key)}, token).Err()
}

type localEntry struct {
	token     string
	expiresAt time.Time
}

// LocalLocker 单实例部署使用的进程内锁，过期语义与 Redis 版一致
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]localEntry
	now  func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		held: make(map[string]localEntry),
		now:  time.Now,
	}
}

func (l *LocalLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, exists := l.held[key]; exists && now.Before(entry.expiresAt) {
		return "", false, nil
	}

	token := uuid.NewString()
	l.held[key] = localEntry{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

func (l *LocalLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, exists := l.held[key]; exists && entry.token == token {
		delete(l.held, key)
	}
	return nil
}

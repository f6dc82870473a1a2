package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ContactBook/config"
	"ContactBook/pkg/errors"
	"ContactBook/pkg/logger"
	"ContactBook/pkg/response"
	"ContactBook/storage/redis"
)

// RateLimitConfig 提交限流：Window 内最多 Limit 次，超出后封禁 Block
type RateLimitConfig struct {
	Window time.Duration
	Limit  int
	Block  time.Duration
	Prefix string
	// 优先按会话计数，取不到 sid 时按客户端 IP
	BySession bool
}

// SubmitRateLimitConfig 新建、编辑、删除共用一个计数
func SubmitRateLimitConfig() RateLimitConfig {
	window := time.Duration(config.Cfg.RateLimitWindow) * time.Second
	return RateLimitConfig{
		Window:    window,
		Limit:     config.Cfg.RateLimitMax,
		Block:     2 * window,
		Prefix:    "submit:rate",
		BySession: true,
	}
}

// RateLimiter 基于 zset 的滑动窗口计数
type RateLimiter struct {
	cfg    RateLimitConfig
	client redislib.Cmdable
	now    func() time.Time
}

func NewRateLimiter(cfg RateLimitConfig, client redislib.Cmdable) *RateLimiter {
	return &RateLimiter{cfg: cfg, client: client, now: time.Now}
}

func (rl *RateLimiter) subject(c *app.RequestContext) string {
	if rl.cfg.BySession {
		if sid := SessionID(c); sid != "" {
			return redis.Key(rl.cfg.Prefix, "sid", sid)
		}
	}
	return redis.Key(rl.cfg.Prefix, "ip", c.ClientIP())
}

// Allow 记一次提交并返回窗口内的提交数
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	now := rl.now()
	cutoff := now.Add(-rl.cfg.Window).UnixNano()

	var card *redislib.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(p redislib.Pipeliner) error {
		p.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
		// 同一纳秒可能有多次提交，成员加随机后缀
		p.ZAdd(ctx, key, redislib.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
		card = p.ZCard(ctx, key)
		p.PExpire(ctx, key, rl.cfg.Window+time.Second)
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	n := int(card.Val())
	return n <= rl.cfg.Limit, n, nil
}

func (rl *RateLimiter) blockKey(key string) string {
	return redis.Key(rl.cfg.Prefix+":block", key)
}

func (rl *RateLimiter) Block(ctx context.Context, key string) error {
	return rl.client.Set(ctx, rl.blockKey(key), 1, rl.cfg.Block).Err()
}

func (rl *RateLimiter) IsBlocked(ctx context.Context, key string) (bool, error) {
	n, err := rl.client.Exists(ctx, rl.blockKey(key)).Result()
	return n > 0, err
}

// RateLimitMiddleware 只在启用 Redis 时生效，Redis 出错时放行
func RateLimitMiddleware(cfg RateLimitConfig) app.HandlerFunc {
	if !config.Cfg.RateLimitEnabled || !redis.Enabled() {
		return func(ctx context.Context, c *app.RequestContext) { c.Next(ctx) }
	}
	return rateLimitHandler(NewRateLimiter(cfg, redis.Client()))
}

func rateLimitHandler(rl *RateLimiter) app.HandlerFunc {
	limit := strconv.Itoa(rl.cfg.Limit)

	reject := func(ctx context.Context, c *app.RequestContext) {
		c.Response.Header.Set("Retry-After", strconv.Itoa(int(rl.cfg.Block.Seconds())))
		response.Error(ctx, c, errors.TooManyRequests)
		c.Abort()
	}

	return func(ctx context.Context, c *app.RequestContext) {
		key := rl.subject(c)

		blocked, err := rl.IsBlocked(ctx, key)
		if err != nil {
			logger.Logger.Error("Rate limit block lookup failed, letting request through", zap.Error(err))
			c.Next(ctx)
			return
		}
		if blocked {
			reject(ctx, c)
			return
		}

		allowed, n, err := rl.Allow(ctx, key)
		if err != nil {
			logger.Logger.Error("Rate limit count failed, letting request through", zap.Error(err))
			c.Next(ctx)
			return
		}

		c.Response.Header.Set("X-RateLimit-Limit", limit)
		c.Response.Header.Set("X-RateLimit-Remaining", strconv.Itoa(max(rl.cfg.Limit-n, 0)))

		if !allowed {
			if err := rl.Block(ctx, key); err != nil {
				logger.Logger.Error("Failed to block submitter", zap.Error(err))
			}
			logger.Logger.Warn("Submission rate limited",
				zap.Int("submissions", n),
				zap.Duration("window", rl.cfg.Window),
				zap.String("request_id", GetRequestID(c)),
			)
			reject(ctx, c)
			return
		}

		c.Next(ctx)
	}
}

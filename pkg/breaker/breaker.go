package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"ContactBook/pkg/logger"
)

// ErrOpen 熔断中，请求未发出
var ErrOpen = errors.New("circuit breaker is open")

// State 熔断器状态
type State int

const (
	StateClosed   State = iota // 关闭状态：正常工作
	StateOpen                  // 开启状态：熔断中
	StateHalfOpen              // 半开状态：尝试恢复
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker 后端调用熔断器
type CircuitBreaker struct {
	name             string
	maxFailures      int           // 最大连续失败次数
	resetTimeout     time.Duration // 熔断后多久进入半开
	halfOpenMaxCalls int           // 半开状态最大并发试探数

	// IsFailure 判断错误是否计入失败，nil 时所有错误都计入
	IsFailure func(error) bool

	now func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	lastFailTime  time.Time
	halfOpenCalls int
}

// New 创建熔断器
func New(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 1
	}
	return &CircuitBreaker{
		name:             name,
		maxFailures:      maxFailures,
		resetTimeout:     resetTimeout,
		halfOpenMaxCalls: 1,
		state:            StateClosed,
		now:              time.Now,
	}
}

// Call 执行带熔断保护的操作
func (cb *CircuitBreaker) Call(ctx context.Context, operation func(context.Context) error) error {
	if !cb.allowRequest() {
		return ErrOpen
	}

	err := operation(ctx)
	cb.recordResult(err)
	return err
}

// allowRequest 检查是否允许请求，半开时占用一个试探名额
func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && cb.now().Sub(cb.lastFailTime) >= cb.resetTimeout {
		cb.setState(StateHalfOpen)
	}

	switch cb.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.halfOpenCalls >= cb.halfOpenMaxCalls {
			return false
		}
		cb.halfOpenCalls++
		return true
	default:
		return false
	}
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil || (cb.IsFailure != nil && !cb.IsFailure(err)) {
		// 半开试探成功即恢复
		if cb.state == StateHalfOpen {
			cb.setState(StateClosed)
		}
		cb.failures = 0
		return
	}

	cb.failures++
	cb.lastFailTime = cb.now()
	logger.Logger.Warn("Backend call failed",
		zap.String("breaker", cb.name),
		zap.Int("failures", cb.failures),
		zap.Stringer("state", cb.state),
		zap.Error(err),
	)

	if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
		cb.setState(StateOpen)
	}
}

// setState 切换状态并清空试探计数，调用方持有锁
func (cb *CircuitBreaker) setState(next State) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	cb.halfOpenCalls = 0
	if next == StateClosed {
		cb.failures = 0
	}

	logger.Logger.Info("Circuit breaker state changed",
		zap.String("breaker", cb.name),
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
		zap.Int("failures", cb.failures),
		zap.Duration("reset_timeout", cb.resetTimeout),
	)
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

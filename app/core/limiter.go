package core

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type LimitConfig struct {
	Limit int // 每分钟允许的请求数
}

type LimitOption func(l *LimitConfig)

func WithLimit(limit int) LimitOption {
	return func(l *LimitConfig) {
		l.Limit = limit
	}
}

type Limiter interface {
	Allow() bool
}

var (
	limiterMu sync.Mutex
	limiters  = make(map[string]*rate.Limiter)
)

// UseLimiter 按 key 维护令牌桶，burst 为每分钟限额的两倍。
func (s *Core) UseLimiter(key string, opts ...LimitOption) Limiter {
	cfg := &LimitConfig{
		Limit: 60,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	limiterMu.Lock()
	defer limiterMu.Unlock()
	l, exist := limiters[key]
	if !exist {
		limit := rate.Every(time.Minute / time.Duration(cfg.Limit))
		l = rate.NewLimiter(limit, cfg.Limit*2)
		limiters[key] = l
	}
	return l
}

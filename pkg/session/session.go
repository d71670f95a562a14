package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/redis/go-redis/v9"

	"github.com/dashmart-ai/dashmart/pkg/safe"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

const (
	DefaultWindowSize = 12
	DefaultIdleTTL    = time.Hour

	sweepInterval = 10 * time.Minute
	persistPrefix = "dashmart:session:"
)

// Store 每个 session 的有界消息窗口。内存态是事实来源，
// redis 中的持久拷贝为 best-effort，仅用于空闲淘汰后的重建。
type Store struct {
	windowSize int
	idleTTL    time.Duration
	rds        *redis.Client
	sessions   cmap.ConcurrentMap[string, *types.SessionState]

	now    func() time.Time
	cancel context.CancelFunc
}

type Option func(*Store)

func WithWindowSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.windowSize = n
		}
	}
}

func WithIdleTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.idleTTL = d
		}
	}
}

// WithClock 注入时钟，测试用。
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(rds *redis.Client, opts ...Option) *Store {
	s := &Store{
		windowSize: DefaultWindowSize,
		idleTTL:    DefaultIdleTTL,
		rds:        rds,
		sessions:   cmap.New[*types.SessionState](),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start 启动空闲清理循环。
func (s *Store) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go safe.RunWithComponent(func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}, "session.sweep")
}

func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// AddMessage 追加一条消息，窗口超限时淘汰最旧的消息，
// 随后异步持久化整个窗口。
func (s *Store) AddMessage(sessionID, userID string, role types.MessageRole, content string) {
	state := s.getOrCreate(sessionID, userID)
	state.Messages = append(state.Messages, types.SessionMessage{
		Role:      role,
		Content:   content,
		Timestamp: s.now().Unix(),
	})
	if len(state.Messages) > s.windowSize {
		state.Messages = state.Messages[len(state.Messages)-s.windowSize:]
	}
	state.LastAccessedAt = s.now().Unix()
	s.sessions.Set(sessionID, state)

	s.persistAsync(sessionID, state)
}

// History 返回当前窗口内的消息，调用会刷新空闲时间。
func (s *Store) History(sessionID, userID string) []types.SessionMessage {
	state := s.getOrCreate(sessionID, userID)
	state.LastAccessedAt = s.now().Unix()
	s.sessions.Set(sessionID, state)

	out := make([]types.SessionMessage, len(state.Messages))
	copy(out, state.Messages)
	return out
}

// getOrCreate 优先取内存态，未命中时尝试从 redis 重建。
func (s *Store) getOrCreate(sessionID, userID string) *types.SessionState {
	if state, ok := s.sessions.Get(sessionID); ok {
		return state
	}

	if state := s.rehydrate(sessionID); state != nil {
		s.sessions.Set(sessionID, state)
		return state
	}

	state := &types.SessionState{
		SessionID:      sessionID,
		UserID:         userID,
		LastAccessedAt: s.now().Unix(),
	}
	s.sessions.Set(sessionID, state)
	return state
}

func (s *Store) rehydrate(sessionID string) *types.SessionState {
	if s.rds == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	raw, err := s.rds.Get(ctx, persistPrefix+sessionID).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Error("failed to load session from redis",
				slog.String("session_id", sessionID), slog.String("error", err.Error()))
		}
		return nil
	}

	var state types.SessionState
	if err = json.Unmarshal(raw, &state); err != nil {
		slog.Error("failed to decode persisted session",
			slog.String("session_id", sessionID), slog.String("error", err.Error()))
		return nil
	}
	return &state
}

// persistAsync fire-and-forget，失败只记日志，绝不向调用方传播。
func (s *Store) persistAsync(sessionID string, state *types.SessionState) {
	if s.rds == nil {
		return
	}

	raw, err := json.Marshal(state)
	if err != nil {
		slog.Error("failed to encode session", slog.String("session_id", sessionID), slog.String("error", err.Error()))
		return
	}

	go safe.RunWithComponent(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.rds.Set(ctx, persistPrefix+sessionID, raw, s.idleTTL*24).Err(); err != nil {
			slog.Error("failed to persist session",
				slog.String("session_id", sessionID), slog.String("error", err.Error()))
		}
	}, "session.persist")
}

// sweep 淘汰空闲超过 idleTTL 的内存态，durable 拷贝保留。
func (s *Store) sweep() {
	deadline := s.now().Add(-s.idleTTL).Unix()
	for item := range s.sessions.IterBuffered() {
		if item.Val.LastAccessedAt < deadline {
			s.sessions.Remove(item.Key)
		}
	}
}

// Sweep 立即执行一次清理，清理任务与测试共用。
func (s *Store) Sweep() {
	s.sweep()
}

// InMemoryCount 当前驻留内存的会话数。
func (s *Store) InMemoryCount() int {
	return s.sessions.Count()
}

// PurgeExpiredDurable 删除 redis 中过期 session 的持久拷贝，
// 由定时任务每日调用。依赖 redis 自身的 TTL 之外再做一次兜底扫描。
func (s *Store) PurgeExpiredDurable(ctx context.Context) (int, error) {
	if s.rds == nil {
		return 0, nil
	}

	var (
		cursor uint64
		purged int
	)
	deadline := s.now().Add(-s.idleTTL * 24).Unix()
	for {
		keys, next, err := s.rds.Scan(ctx, cursor, persistPrefix+"*", 200).Result()
		if err != nil {
			return purged, fmt.Errorf("failed to scan persisted sessions, %w", err)
		}
		for _, key := range keys {
			raw, err := s.rds.Get(ctx, key).Bytes()
			if err != nil {
				continue
			}
			var state types.SessionState
			if err = json.Unmarshal(raw, &state); err != nil || state.LastAccessedAt < deadline {
				if err := s.rds.Del(ctx, key).Err(); err == nil {
					purged++
				}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return purged, nil
}

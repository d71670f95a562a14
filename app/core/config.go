package core

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dashmart-ai/dashmart/app/core/srv"
	"github.com/dashmart-ai/dashmart/pkg/config"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	return c
}

type CoreConfig struct {
	Addr          string              `toml:"addr"`
	Log           Log                 `toml:"log"`
	Postgres      PGConfig            `toml:"postgres"`
	Redis         RedisConfig         `toml:"redis"`
	ObjectStorage ObjectStorageDriver `toml:"object_storage"`

	AI   srv.AIConfig `toml:"ai"`
	Chat ChatConfig   `toml:"chat"`
}

func (c *CoreConfig) FromENV() {
	c.Addr = config.Str("DASHMART_API_SERVICE_ADDRESS", ":8099")
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.Redis.FromENV()
}

type ObjectStorageDriver struct {
	StaticDomain string    `toml:"static_domain"`
	Driver       string    `toml:"driver"`
	S3           *S3Config `toml:"s3"`
}

type S3Config struct {
	Bucket       string `toml:"bucket"`
	Region       string `toml:"region"`
	Endpoint     string `toml:"endpoint"`
	AccessKey    string `toml:"access_key"`
	SecretKey    string `toml:"secret_key"`
	UsePathStyle bool   `toml:"use_path_style"`
}

// ChatConfig 支持聊天引擎的全部可调参数，零值由 Normalize 填默认。
type ChatConfig struct {
	ChunkSize         int   `toml:"chunk_size"`          // 切片窗口长度（rune）
	Overlap           int   `toml:"overlap"`             // 相邻切片重叠长度
	TopK              int   `toml:"top_k"`               // 检索返回的切片数
	HistoryWindow     int   `toml:"history_window"`      // session 消息窗口大小
	SessionIdleMinute int   `toml:"session_idle_minute"` // session 内存态空闲淘汰
	SLAMinute         int   `toml:"sla_minute"`          // 会话首响 SLA
	MaxUploadSizeMB   int   `toml:"max_upload_size_mb"`  // 知识文档大小上限
	HistoryTokenLimit int   `toml:"history_token_limit"` // 历史窗口 token 预算
	RagEnabled        *bool `toml:"rag_enabled"`         // 全局 RAG 开关
}

func (c *ChatConfig) Normalize() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 800
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		c.Overlap = c.ChunkSize / 8
	}
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.HistoryWindow <= 0 {
		c.HistoryWindow = 12
	}
	if c.SessionIdleMinute <= 0 {
		c.SessionIdleMinute = 60
	}
	if c.SLAMinute <= 0 {
		c.SLAMinute = 15
	}
	if c.MaxUploadSizeMB <= 0 {
		c.MaxUploadSizeMB = 20
	}
	if c.HistoryTokenLimit <= 0 {
		c.HistoryTokenLimit = 6000
	}
}

func (c ChatConfig) IsRagEnabled() bool {
	if c.RagEnabled == nil {
		return true
	}
	return *c.RagEnabled
}

func (c ChatConfig) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleMinute) * time.Minute
}

func (c ChatConfig) SLADuration() time.Duration {
	return time.Duration(c.SLAMinute) * time.Minute
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("DASHMART_API_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type RedisConfig struct {
	Addr     string `toml:"addr"`     // host:port
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

func (r *RedisConfig) FromENV() {
	r.Addr = os.Getenv("DASHMART_REDIS_ADDR")
	r.Password = os.Getenv("DASHMART_REDIS_PASSWORD")
	r.DB = config.Int("DASHMART_REDIS_DB", 0)
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("DASHMART_API_LOG_LEVEL")
	l.Path = os.Getenv("DASHMART_API_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

package core

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dashmart-ai/dashmart/app/core/srv"
	"github.com/dashmart-ai/dashmart/app/store/sqlstore"
	s3storage "github.com/dashmart-ai/dashmart/pkg/object-storage/s3"
	"github.com/dashmart-ai/dashmart/pkg/session"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

type Core struct {
	cfg CoreConfig
	srv *srv.Srv

	stores     func() *sqlstore.Provider
	httpClient *http.Client
	httpEngine *gin.Engine

	rds      *redis.Client
	sessions *session.Store
	storage  *s3storage.S3
	metrics  *Metrics
}

func MustSetupCore(cfg CoreConfig) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	cfg.Chat.Normalize()
	utils.SetupIDWorker(1)

	core := &Core{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Second * 3},
		httpEngine: gin.New(),
		metrics:    NewMetrics("dashmart", "core"),
	}

	setupSqlStore(core)

	if cfg.Redis.Addr != "" {
		core.rds = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	core.sessions = session.NewStore(core.rds,
		session.WithWindowSize(cfg.Chat.HistoryWindow),
		session.WithIdleTTL(cfg.Chat.SessionIdleTTL()),
	)
	core.sessions.Start()

	if cfg.ObjectStorage.Driver == "s3" && cfg.ObjectStorage.S3 != nil {
		s3cfg := cfg.ObjectStorage.S3
		core.storage = s3storage.NewS3Client(
			s3cfg.Endpoint, s3cfg.Region, s3cfg.Bucket,
			s3cfg.AccessKey, s3cfg.SecretKey,
			s3storage.WithPathStyle(s3cfg.UsePathStyle),
		)
	}

	core.srv = srv.SetupSrvs(
		srv.ApplyAI(cfg.AI),
		srv.ApplyTower(),
	)

	return core
}

func setupSqlStore(core *Core) {
	core.stores = sqlstore.MustSetup(core.cfg.Postgres)
	if err := core.stores().Install(); err != nil {
		panic(err)
	}
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Store() *sqlstore.Provider {
	return s.stores()
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}

func (s *Core) Session() *session.Store {
	return s.sessions
}

func (s *Core) Redis() *redis.Client {
	return s.rds
}

// FileStorage 未配置对象存储时返回 nil，上传入口自行拒绝。
func (s *Core) FileStorage() *s3storage.S3 {
	return s.storage
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

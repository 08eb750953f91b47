package app

import (
	"context"
	"log"
	"time"

	"smartstock/config"
	"smartstock/db"
	"smartstock/events"
	"smartstock/lending"
	"smartstock/session"
	"smartstock/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

// App 聚合各依赖
type App struct {
	Router  *gin.Engine
	DB      *gorm.DB
	RDB     *redis.Client
	Log     *zap.Logger
	Config  *config.Config
	Repo    *db.Repo
	Lending *lending.Engine
	// Objects 为 nil 时不接受证据照片
	Objects storage.ObjectStore
	Events  events.Publisher

	appSess *session.AppSessionStore
}

type Deps struct {
	Config  *config.Config
	Log     *zap.Logger
	DB      *gorm.DB
	RDB     *redis.Client
	Objects storage.ObjectStore
	Events  events.Publisher
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

// MustNew connects every backing service named in cfg and exits on failure.
// MinIO and RabbitMQ are optional.
func MustNew(cfg *config.Config) *App {
	logger, err := NewLogger(cfg.Log, cfg.Server.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	// --- DB ---
	dbConn, err := db.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	logger.Info("database connected", zap.String("driver", cfg.Database.Driver))

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	// --- Evidence photos ---
	var objects storage.ObjectStore
	if cfg.Minio.Endpoint != "" {
		ms, err := storage.NewMinioStore(ctx, cfg.Minio)
		if err != nil {
			logger.Fatal("minio", zap.String("endpoint", cfg.Minio.Endpoint), zap.Error(err))
		}
		objects = ms
	} else {
		logger.Warn("MINIO_ENDPOINT not set, evidence photo uploads are disabled")
	}

	// --- Events ---
	var pub events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		p, err := events.NewAMQPPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			// 事件是尽力而为，不影响启动
			logger.Error("rabbitmq unavailable, events disabled", zap.Error(err))
		} else {
			pub = p
		}
	}

	return NewWith(Deps{Config: cfg, Log: logger, DB: dbConn, RDB: rdb, Objects: objects, Events: pub})
}

// NewWith assembles the App and its router from ready dependencies.
func NewWith(d Deps) *App {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	if d.Config.Server.AppEnv == "prod" || d.Config.Server.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLog(d.Log))
	useCORS(r, d.Config.CORS.AllowOrigins)

	repo := db.NewRepo(d.DB)
	return &App{
		Router:  r,
		DB:      d.DB,
		RDB:     d.RDB,
		Log:     d.Log,
		Config:  d.Config,
		Repo:    repo,
		Lending: lending.NewEngine(repo, d.Events, d.Log),
		Objects: d.Objects,
		Events:  d.Events,
		appSess: session.NewAppSessionStore(d.RDB, d.Config.Session.TTL),
	}
}

func (a *App) Close() {
	_ = a.Events.Close()
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.Log.Sync()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"time-capsule/config"
	"time-capsule/internal/handler"
	"time-capsule/internal/model"
	"time-capsule/internal/repository"
	"time-capsule/internal/service"
	dbPkg "time-capsule/pkg/db"
	"time-capsule/pkg/jwt"
	"time-capsule/pkg/logger"
	"time-capsule/pkg/metrics"
	"time-capsule/pkg/ratelimit"
	"time-capsule/pkg/realtime"
	redisPkg "time-capsule/pkg/redis"
	"time-capsule/pkg/response"
	"time-capsule/pkg/storage"
	"time-capsule/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const version = "1.0.0"

func main() {
	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志系统
	log, err := logger.InitLogger(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("=== 时间胶囊服务启动 ===")
	log.Info("服务器配置信息",
		zap.String("port", cfg.Server.Port),
		zap.String("database_host", cfg.Database.Host),
		zap.Int("database_port", cfg.Database.Port),
		zap.String("database_name", cfg.Database.Database),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.String("storage_endpoint", cfg.Storage.Endpoint),
		zap.Duration("jwt_expire_time", cfg.JWT.ExpireTime),
		zap.String("log_level", cfg.Log.Level),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. 初始化数据库连接并迁移
	db, err := dbPkg.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.Close(db); err != nil {
			log.Error("关闭数据库连接失败", zap.Error(err))
		}
	}()
	if err := db.AutoMigrate(model.All()...); err != nil {
		log.Fatal("自动迁移失败", zap.Error(err))
	}
	log.Info("数据库连接成功，自动迁移完成")

	// 4. Redis（可选）：未读计数、在线状态与跨实例事件广播
	var store *redisPkg.Store
	if cfg.Redis.Enabled {
		store, err = redisPkg.New(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis不可用，实时事件仅在本实例分发", zap.Error(err))
			store = nil
		} else {
			defer func() { _ = store.Close() }()
			log.Info("Redis连接成功")
		}
	}

	// 5. 对象存储
	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal("对象存储初始化失败", zap.Error(err))
	}

	// 6. 指标与实时分发
	m := metrics.New()
	hub := realtime.NewHub()
	hub.OnDispatch(func(ev realtime.Event, delivered int) {
		m.RealtimeDispatched(ev.Table, ev.Type)
	})
	var publisher realtime.Publisher = hub
	if store != nil {
		b := redisPkg.NewBroadcaster(store, cfg.Realtime.Channel, hub)
		publisher = b
		go func() {
			err := b.Serve(ctx, redisPkg.DefaultMinBackoff, redisPkg.DefaultMaxBackoff, nil)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error("实时事件订阅退出", zap.Error(err))
			}
		}()
	}

	// 7. 业务服务与处理器
	app := wire(cfg, db, store, objects, publisher, m)
	wsHandler := websocket.NewHandler(websocket.Deps{
		Hub:      hub,
		Tokens:   app.jwt,
		Reads:    app.messages,
		Presence: presenceOf(store),
		Status:   app.profileRepo,
		Observer: m,
		Config:   cfg.WebSocket,
	})

	// 8. Gin路由
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(logger.RecoveryMiddleware())
	router.Use(logger.RequestLogger())
	router.Use(m.Middleware())

	setupBasicRoutes(router, db, store)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/ws", wsHandler.ServeWS)

	limiter := ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	handler.RegisterRoutes(router.Group("/api/v1"), app.handlers, app.jwt.AuthMiddleware(), limiter.Middleware())

	// 9. 创建HTTP服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP服务器启动", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	// 10. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP服务器关闭失败", zap.Error(err))
	}
	log.Info("服务器已安全关闭")
}

type application struct {
	jwt         *jwt.JWTService
	profileRepo *repository.ProfileRepository
	messages    *service.MessageService
	handlers    handler.Handlers
}

// wire 组装仓储、服务与处理器
func wire(cfg *config.Config, db *gorm.DB, store *redisPkg.Store, objects *storage.Store, publisher realtime.Publisher, m *metrics.Metrics) *application {
	jwtSvc := jwt.NewJWTService(cfg.JWT)
	buckets := service.Buckets{
		Avatar:  cfg.Storage.AvatarBucket,
		Capsule: cfg.Storage.CapsuleBucket,
		Voice:   cfg.Storage.VoiceBucket,
	}
	maxUpload := cfg.Server.MaxUploadMB << 20

	profileRepo := repository.NewProfileRepository(db)
	friendRepo := repository.NewFriendshipRepository(db)

	var svcPresence service.PresenceStore
	var unread service.UnreadCache
	if store != nil {
		svcPresence = store
		unread = store
	}

	authSvc := service.NewAuthService(profileRepo, jwtSvc, svcPresence, publisher)
	profileSvc := service.NewProfileService(profileRepo, objects, buckets, svcPresence)
	friendSvc := service.NewFriendshipService(friendRepo, profileRepo, publisher, m)
	messageSvc := service.NewMessageService(service.MessageDeps{
		Messages:    repository.NewMessageRepository(db),
		Profiles:    profileRepo,
		Gate:        friendSvc,
		Objects:     objects,
		VoiceBucket: buckets.Voice,
		Unread:      unread,
		Publisher:   publisher,
		Recorder:    m,
	})
	capsuleSvc := service.NewCapsuleService(repository.NewCapsuleRepository(db), objects, buckets.Capsule, publisher, m, nil)
	voiceSvc := service.NewVoiceService(repository.NewVoiceRepository(db), objects, buckets.Voice)
	gameSvc := service.NewGamificationService(repository.NewGamificationRepository(db), profileRepo, nil)
	settingsSvc := service.NewSettingsService(repository.NewSettingsRepository(db), profileRepo)

	return &application{
		jwt:         jwtSvc,
		profileRepo: profileRepo,
		messages:    messageSvc,
		handlers: handler.Handlers{
			Auth:         handler.NewAuthHandler(authSvc),
			Profile:      handler.NewProfileHandler(profileSvc, maxUpload),
			Friendship:   handler.NewFriendshipHandler(friendSvc),
			Message:      handler.NewMessageHandler(messageSvc, maxUpload),
			Capsule:      handler.NewCapsuleHandler(capsuleSvc, maxUpload),
			Voice:        handler.NewVoiceHandler(voiceSvc, maxUpload),
			Gamification: handler.NewGamificationHandler(gameSvc),
			Settings:     handler.NewSettingsHandler(settingsSvc),
		},
	}
}

// presenceOf 未启用Redis时返回 nil 接口，避免出现持有 nil 指针的非 nil 接口
func presenceOf(store *redisPkg.Store) websocket.Presence {
	if store == nil {
		return nil
	}
	return store
}

// setupBasicRoutes 设置基础路由
func setupBasicRoutes(router *gin.Engine, db *gorm.DB, store *redisPkg.Store) {
	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		checks := gin.H{"database": "ok", "redis": "disabled"}
		if err := dbPkg.HealthCheck(ctx, db); err != nil {
			status = "degraded"
			checks["database"] = err.Error()
		}
		if store != nil {
			checks["redis"] = "ok"
			if err := store.HealthCheck(ctx); err != nil {
				status = "degraded"
				checks["redis"] = err.Error()
			}
		}
		response.Success(c, gin.H{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/", func(c *gin.Context) {
		response.Success(c, gin.H{
			"message": "时间胶囊服务",
			"version": version,
		})
	})

	router.GET("/api/v1/status", func(c *gin.Context) {
		response.Success(c, gin.H{
			"version": version,
			"modules": []string{"auth", "profiles", "friendships", "messages", "capsules", "voice-posts", "gamification", "realtime"},
		})
	})
}

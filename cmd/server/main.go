package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/lovecourt/backend/internal/api"
	"github.com/lovecourt/backend/internal/api/controller"
	"github.com/lovecourt/backend/internal/config"
	"github.com/lovecourt/backend/internal/infrastructure/database"
	"github.com/lovecourt/backend/internal/infrastructure/dify"
	"github.com/lovecourt/backend/internal/repository"
	"github.com/lovecourt/backend/internal/service"
	"gorm.io/gorm"
)

func main() {
	// 1. 初始化 Logger
	// JSON 格式输出方便采集，AddSource 在日志里显示文件名和行号
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug, // 开发阶段设为 Debug，生产环境改为 Info
	}))
	slog.SetDefault(logger)

	slog.Info("爱情宇宙法庭启动中...")

	conf, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("无法加载配置: %v", err)
	}
	slog.Info("配置加载成功", "mock", conf.Mock.Enabled, "cloud_only", conf.Relay.CloudOnly)

	// 2. Infra Initialization
	// 云端镜像不是正确性关键路径：没配 DSN 或连不上都静默降级为空操作
	var db *gorm.DB
	if conf.Database.DSN != "" {
		db, err = database.NewMySQLConnection(conf.Database.DSN)
		if err != nil {
			slog.Warn("数据库不可用，云端镜像降级为空操作", "error", err)
			db = nil
		}
	}

	notifier := dify.NewLogNotifier()
	store := repository.NewSessionStore(conf.Storage.DataDir)
	mirror := repository.NewSessionMirror(db)

	var userRepo *repository.UserRepository
	if db != nil {
		userRepo = repository.NewUserRepository(db)
	}

	// 3. Layer Wiring (依赖注入)
	// 每个会话持有独立的 Provider，Mock 轮次等会话级状态由此隔离
	newProvider := func() dify.Provider {
		return dify.NewChain(conf, notifier)
	}

	identity := service.NewIdentityService(userRepo)
	sessions := service.NewSessionManager(newProvider, store, mirror)
	verdicts := service.NewVerdictService(mirror)
	authSvc := service.NewAuthService(userRepo, identity)

	// 4. Server Start
	if conf.Server.Port != ":8080" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	api.RegisterRoutes(r,
		controller.NewAuthController(authSvc),
		controller.NewChatController(sessions, identity),
		controller.NewVerdictController(verdicts, sessions, identity),
		controller.NewDiagnoseController(conf, dify.NewChain(conf, notifier)),
	)

	slog.Info("Web Server 启动中", "port", conf.Server.Port)
	if err := r.Run(conf.Server.Port); err != nil {
		slog.Error("服务器启动失败", "error", err)
	}
}

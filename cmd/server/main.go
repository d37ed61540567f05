package main

import (
	"flag"
	"os"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/xiuda-next/internal/app"
	"github.com/xiuda-next/internal/config"
	"github.com/xiuda-next/internal/logger"
	"github.com/xiuda-next/internal/models"
)

func main() {
	var configPath string
	var mode string
	flag.StringVar(&configPath, "config", "", "配置文件路径（缺省时按默认位置查找）")
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(err)
	}
	logger.Init(cfg.App.Mode, logger.Options{
		Dir:        cfg.Log.Dir,
		Filename:   cfg.Log.Filename,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	stdLog := logger.StdLogger()

	if cfg.App.Mode == "release" && isWeakSecret(cfg.JWT.Secret) {
		stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.MaxOpenConns,
		MaxIdleConns:           cfg.Database.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.ConnMaxLifetime,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	if cfg.App.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	return strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "your-secret-key")
}

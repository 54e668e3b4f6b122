package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	jwtSecret       []byte // loaded from config/env (fallback to dev default)
	jwtExpireHours  = 24
	defaultPageSize = 20
	appLogger       = zap.NewNop()
)

func main() {
	// ./.env feeds viper's env overrides; missing file is fine
	_ = godotenv.Load()

	cfg, err := loadConfig(os.Getenv("KASDANA_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	secret := cfg.JWT.Secret
	if secret == "" {
		secret = "dev-insecure-secret-change" // development fallback
	}
	jwtSecret = []byte(secret)
	if cfg.JWT.ExpireHours > 0 {
		jwtExpireHours = cfg.JWT.ExpireHours
	}
	if cfg.App.PageSize > 0 {
		defaultPageSize = cfg.App.PageSize
	}

	appLogger = newLogger(cfg.Server.Mode)
	defer appLogger.Sync()

	// Support a lightweight migrate command: `./kasdana migrate` runs
	// AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB(cfg)
		fmt.Println("migration and seeding completed")
		return
	}

	initDB(cfg)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(appLogger))

	setupRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port)
	appLogger.Info("kasdana listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		appLogger.Fatal("server stopped", zap.Error(err))
	}
}

// newLogger builds a console logger in debug mode and a JSON logger otherwise.
func newLogger(mode string) *zap.Logger {
	var config zap.Config
	if mode == "release" {
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	return logger
}

// requestLogger logs each request with its status and cost.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("http request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Duration("cost", time.Since(start)),
		)
	}
}

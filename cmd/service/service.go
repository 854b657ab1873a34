// @title        Library Hub API
// @version      1.0
// @description  書籍、作者、圖書館、部落格與帳號管理的後端 API 文件
// @host         localhost:8080
// @BasePath     /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"library-hub/internal/apperrors"
	"library-hub/internal/cache"
	"library-hub/internal/config"
	"library-hub/internal/database"
	"library-hub/internal/filestorage"
	"library-hub/internal/handler"
	"library-hub/internal/logger"
	"library-hub/internal/router"
	"library-hub/internal/service"
	"library-hub/internal/validation"
	"library-hub/internal/web"
	"library-hub/internal/worker"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "library-hub/docs" // 引入 swag 產出的 docs

	echoSwagger "github.com/swaggo/echo-swagger"
)

// workerTimeout 單一背景工作的執行上限
const workerTimeout = 30 * time.Second

// CustomValidator wraps go-playground/validator for Echo
// swagger:ignore
type CustomValidator struct {
	validator *validator.Validate
}

// Validate calls the underlying validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func newValidator() *CustomValidator {
	return &CustomValidator{validator: validation.New()}
}

var (
	loadConfig      = config.Load
	newPgxPool      = database.NewPgxPool
	newRedisClient  = cache.NewRedisClient
	runMigrationsFn = database.RunMigrations
	newStorage      = func(root string) (filestorage.Storage, error) { return filestorage.NewLocalStorage(root) }
	startServer     = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	newWorkerPool   = worker.NewPool
	exitFunc        = os.Exit
	setJWTSecret    = service.SetJWTSecret
)

func newEcho() (*echo.Echo, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}
	e := echo.New()
	e.HideBanner = true
	e.Validator = newValidator()
	e.Renderer = renderer
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler
	e.Use(logger.RequestLogger())
	e.Use(middleware.Recover())
	return e, nil
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Configure(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	setJWTSecret(cfg.JWTSecret)

	db, err := newPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %v", err)
	}
	defer db.Close()

	rdb, err := newRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("Redis 連線失敗: %v", err)
	}
	defer rdb.Close()

	if err := runMigrationsFn(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("Migration 執行失敗: %v", err)
	}

	storage, err := newStorage(cfg.MediaRoot)
	if err != nil {
		return fmt.Errorf("MEDIA_ROOT 無法使用: %v", err)
	}

	wp := newWorkerPool(cfg.WorkerCount, workerTimeout)
	defer wp.Stop()

	e, err := newEcho()
	if err != nil {
		return err
	}
	router.Setup(e, db, rdb, handler.Options{
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
		Workers:    wp,
		Storage:    storage,
		MediaRoot:  cfg.MediaRoot,
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	logger.Info().Str("addr", cfg.HTTPAddr).Int("workers", cfg.WorkerCount).Msg("starting server")
	return startServer(e, cfg.HTTPAddr)
}

func main() {
	if err := run(); err != nil {
		logger.Error().Err(err).Msg("service stopped")
		exitFunc(1)
	}
}

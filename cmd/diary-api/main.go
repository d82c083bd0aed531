package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geodiary/diary-backend/internal/config"
	"github.com/geodiary/diary-backend/internal/diary"
	"github.com/geodiary/diary-backend/internal/filter"
	"github.com/geodiary/diary-backend/internal/handler"
	"github.com/geodiary/diary-backend/internal/repository"
	"github.com/geodiary/diary-backend/internal/service"
	"github.com/geodiary/diary-backend/pkg/utils"
)

var (
	// Version будет установлен при сборке через ldflags
	Version = "dev"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализируем логирование
	logger := utils.NewLogger(cfg.Monitoring.LogLevel, cfg.Monitoring.LogFormat)
	logger.WithField("version", Version).Info("Starting Diary Backend")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем MySQL репозиторий
	mysqlRepo, err := repository.NewMySQLRepository(&cfg.MySQL, logger)
	if err != nil {
		logger.WithField("error", err).Fatal("Failed to initialize MySQL repository")
	}
	defer mysqlRepo.Close()

	if err := mysqlRepo.Ping(ctx); err != nil {
		logger.WithField("error", err).Fatal("Failed to connect to MySQL")
	}
	logger.Info("Connected to MySQL")

	// Инициализируем Redis кэш (опционально)
	var cache repository.DiaryCache
	redisCache, err := repository.NewRedisCache(&cfg.Redis)
	if err != nil {
		logger.WithField("error", err).Warn("Failed to initialize Redis cache")
	} else {
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			logger.WithField("error", err).Warn("Failed to connect to Redis, cache disabled")
		} else {
			logger.Info("Connected to Redis")
			cache = redisCache
		}
	}

	// Собираем конвейер дневников
	filterConfig := &filter.Config{
		MaxAccuracyM: cfg.Engine.MaxAccuracyM,
		MedianWindow: filter.DefaultConfig().MedianWindow,
	}

	var injector *diary.SyntheticInjector
	if cfg.Features.SyntheticEntries {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		injector = diary.NewSyntheticInjector(rng, cfg.Engine.DayWindowStartHour, cfg.Engine.DayWindowEndHour)
	} else {
		logger.Info("Synthetic entries disabled")
	}

	builder := diary.NewBuilder(filterConfig, injector, logger)
	diaryService := service.NewDiaryService(mysqlRepo, mysqlRepo, cache, builder, logger)

	// Создаем HTTP сервер
	server := handler.NewServer(cfg, diaryService, mysqlRepo, cache, logger)

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithField("error", err).Fatal("Failed to start HTTP server")
		}
	}()

	// Ждем сигнала остановки
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.WithField("signal", sig).Info("Received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithField("error", err).Error("HTTP server shutdown error")
	}

	logger.Info("Server stopped gracefully")
}

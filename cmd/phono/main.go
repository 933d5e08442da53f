package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hazadus/go-phono/internal/config"
	"github.com/hazadus/go-phono/internal/handle"
	"github.com/hazadus/go-phono/internal/library"
	"github.com/hazadus/go-phono/internal/logger"
	"github.com/hazadus/go-phono/internal/playback"
	"github.com/hazadus/go-phono/internal/store"
)

const (
	defaultConfigPath = "~/.phono/config.yml"
)

// Application содержит зависимости приложения
type Application struct {
	Config      *config.Config
	Logger      *zap.Logger
	Store       *store.Store
	Library     *library.Library
	Handles     *handle.Manager
	Coordinator *playback.Coordinator
}

// newApplication собирает приложение: конфигурация, лог, хранилище,
// библиотека и координатор воспроизведения
func newApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.LoadConfig(defaultConfigPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	appLogger, err := logger.New(cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания лога: %w", err)
	}

	s, err := store.Open(cfg.LibraryDir)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия хранилища: %w", err)
	}

	lib := library.New(s, appLogger)
	if err := lib.Load(ctx); err != nil {
		return nil, fmt.Errorf("ошибка загрузки библиотеки: %w", err)
	}

	handles := handle.NewManager()
	coordinator := playback.NewCoordinator(lib, handles, playback.NewSpeakerSink(), appLogger)

	return &Application{
		Config:      cfg,
		Logger:      appLogger,
		Store:       s,
		Library:     lib,
		Handles:     handles,
		Coordinator: coordinator,
	}, nil
}

// Close освобождает ресурсы приложения
func (app *Application) Close() {
	_ = app.Coordinator.Close()
	app.Handles.ReleaseAll()
	_ = app.Logger.Sync()
}

func main() {
	// Контекст отменяется по Ctrl+C или SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := newApplication(ctx)
	if err != nil {
		log.Fatalf("Ошибка инициализации приложения: %v", err)
	}
	defer app.Close()

	rootCmd := app.createRootCommand(ctx)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

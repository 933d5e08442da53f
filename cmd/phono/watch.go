package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-phono/internal/importer"
)

// createWatchCommand создает команду watch с привязкой к экземпляру приложения
func (app *Application) createWatchCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch a folder and import dropped mp3 files",
		Long:  `Watch the configured folder and add every mp3 file dropped into it to the library.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.watchFolder(ctx)
		},
	}
}

// watchFolder наблюдает за каталогом импорта до прерывания
func (app *Application) watchFolder(ctx context.Context) error {
	if app.Config.WatchDir == "" {
		return fmt.Errorf("каталог импорта не настроен: задайте watch_dir в %s", defaultConfigPath)
	}

	watcher := importer.NewWatcher(app.Library, app.Config.WatchDir, app.Logger)

	fmt.Printf("👀 Наблюдаем за каталогом: %s\n", app.Config.WatchDir)
	fmt.Println("   Скопируйте mp3 файлы в каталог, чтобы добавить их в библиотеку.")
	fmt.Println("   [Ctrl+C] - остановить")
	fmt.Println()

	// Выводим уведомления об импортированных треках
	go func() {
		for rec := range watcher.Added() {
			fmt.Printf("✅ Добавлен трек #%d: %s - %s\n", rec.ID, rec.Artist, rec.Name)
		}
	}()

	err := watcher.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Println("\n⏹️  Наблюдение остановлено")
		return nil
	}
	return err
}

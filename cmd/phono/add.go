package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-phono/internal/utils"
)

// createAddCommand создает команду add с привязкой к экземпляру приложения
func (app *Application) createAddCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "add [file path...]",
		Short: "Add mp3 files to the library",
		Long:  `Copy one or more mp3 files into the library with metadata extracted from tags.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.addTracks(ctx, args)
		},
	}
}

// addTracks добавляет файлы в библиотеку. Ошибка одного файла не мешает
// добавлению остальных.
func (app *Application) addTracks(ctx context.Context, paths []string) error {
	added, err := app.Library.IngestBatch(ctx, paths)

	for _, rec := range added {
		fmt.Printf("✅ Добавлен трек #%d: %s - %s (%s)\n",
			rec.ID,
			rec.Artist,
			rec.Name,
			utils.FormatFileSize(rec.FileSize))
	}

	if err != nil {
		fmt.Printf("⚠️  Часть файлов не добавлена:\n%v\n", err)
	}

	fmt.Printf("\n📦 Добавлено треков: %d из %d\n", len(added), len(paths))

	if len(added) == 0 && err != nil {
		return fmt.Errorf("ни один файл не был добавлен")
	}
	return nil
}

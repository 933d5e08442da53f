package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-phono/internal/utils"
)

// createListCommand создает команду list с привязкой к экземпляру приложения
func (app *Application) createListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tracks from the library",
		Long:  `Display a list of all tracks stored in the library.`,
		Run: func(_ *cobra.Command, _ []string) {
			app.listTracks()
		},
	}
}

func (app *Application) listTracks() {
	tracks := app.Library.Tracks()

	if len(tracks) == 0 {
		fmt.Println("📚 Библиотека пуста. Добавьте треки с помощью команды 'add'.")
		return
	}

	fmt.Printf("📚 Найдено треков: %d\n\n", len(tracks))

	// Выводим заголовок таблицы
	fmt.Printf("%-4s %-30s %-30s %-20s %-12s %-12s\n",
		"ID", "Исполнитель", "Название", "Альбом", "Длительность", "Размер")
	fmt.Println(strings.Repeat("-", 120))

	// Выводим каждый трек
	for _, track := range tracks {
		// Форматируем длительность
		duration := utils.FormatDurationFromSeconds(track.Length)
		if track.Length == 0 {
			duration = "N/A"
		}

		// Обрезаем длинные строки для красивого отображения
		artist := utils.TruncateString(track.Artist, 28)
		name := utils.TruncateString(track.Name, 28)
		album := utils.TruncateString(track.Album, 18)

		fmt.Printf("%-4d %-30s %-30s %-20s %-12s %-12s\n",
			track.ID, artist, name, album, duration, utils.FormatFileSize(track.FileSize))
	}

	fmt.Println()
	fmt.Println("💡 Используйте 'phono play [ID]' для воспроизведения трека")
}

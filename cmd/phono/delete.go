package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// createDeleteCommand создает команду delete с привязкой к экземпляру приложения
func (app *Application) createDeleteCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a track by ID",
		Long:  `Delete a track and its stored content from the library by its ID.`,
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Printf("❌ Ошибка: неверный ID '%s'. ID должен быть числом.\n", args[0])
				return
			}
			app.deleteTrack(ctx, id)
		},
	}
}

func (app *Application) deleteTrack(ctx context.Context, id int) {
	// Находим трек по ID
	track, err := app.Library.TrackByID(id)
	if err != nil {
		fmt.Printf("❌ Ошибка: %v\n", err)
		return
	}

	fmt.Printf("🗑️  Удаляем трек: %s - %s\n", track.Artist, track.Name)

	// Удаляем трек из библиотеки вместе с содержимым
	if err := app.Library.Remove(ctx, id); err != nil {
		fmt.Printf("❌ Ошибка удаления трека: %v\n", err)
		return
	}

	// Если трек был активным, останавливаем воспроизведение
	app.Coordinator.HandleRemoval(id)

	fmt.Println("✅ Трек успешно удален из библиотеки")
}

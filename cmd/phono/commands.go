package main

import (
	"context"

	"github.com/spf13/cobra"
)

// createRootCommand создает корневую команду с настроенными подкомандами
func (app *Application) createRootCommand(ctx context.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "phono",
		Short: "A local music library with playback",
		Long:  `A command line tool to manage a local music library and play tracks from it.`,
	}

	// Добавляем команды, передавая в них экземпляр приложения и контекст
	rootCmd.AddCommand(app.createAddCommand(ctx))
	rootCmd.AddCommand(app.createListCommand())
	rootCmd.AddCommand(app.createPlayCommand(ctx))
	rootCmd.AddCommand(app.createDeleteCommand(ctx))
	rootCmd.AddCommand(app.createExportCommand(ctx))
	rootCmd.AddCommand(app.createSnatchCommand(ctx))
	rootCmd.AddCommand(app.createWatchCommand(ctx))
	rootCmd.AddCommand(app.createBluetoothCommand(ctx))
	rootCmd.AddCommand(app.createTUICommand())

	return rootCmd
}

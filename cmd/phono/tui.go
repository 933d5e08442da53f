package main

import (
	"github.com/spf13/cobra"

	"github.com/hazadus/go-phono/internal/lyrics"
	"github.com/hazadus/go-phono/internal/tui"
)

// createTUICommand создает команду tui с привязкой к экземпляру приложения
func (app *Application) createTUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch TUI (Terminal User Interface)",
		Long:  `Launch interactive terminal user interface for managing and playing tracks.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.launchTUI()
		},
	}
}

func (app *Application) launchTUI() error {
	// Тексты песен показываются только при настроенном источнике
	var lyricsClient *lyrics.Client
	if app.Config.LyricsEndpoint != "" {
		lyricsClient = lyrics.NewClient(app.Config.LyricsEndpoint)
	}

	tuiApp := tui.NewApp(app.Library, app.Coordinator, lyricsClient)
	return tuiApp.Run()
}

// Package tui содержит компоненты для текстового пользовательского интерфейса
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-phono/internal/library"
	"github.com/hazadus/go-phono/internal/lyrics"
	"github.com/hazadus/go-phono/internal/playback"
	"github.com/hazadus/go-phono/internal/tui/app"
)

// App представляет основное TUI приложение
type App struct {
	library      *library.Library
	coordinator  *playback.Coordinator
	lyricsClient *lyrics.Client
}

// NewApp создает новый экземпляр TUI приложения. lyricsClient может быть nil,
// тогда тексты песен не отображаются.
func NewApp(lib *library.Library, coordinator *playback.Coordinator, lyricsClient *lyrics.Client) *App {
	return &App{
		library:      lib,
		coordinator:  coordinator,
		lyricsClient: lyricsClient,
	}
}

// Run запускает TUI приложение
func (tuiApp *App) Run() error {
	// Создаем модель для Bubble Tea
	model := app.NewMainModel(tuiApp.library, tuiApp.coordinator, tuiApp.lyricsClient)

	// Создаем программу Bubble Tea
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Запускаем программу
	_, err := p.Run()

	return err
}

// Package app содержит основную логику TUI приложения
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hazadus/go-phono/internal/library"
	"github.com/hazadus/go-phono/internal/lyrics"
	"github.com/hazadus/go-phono/internal/playback"
	"github.com/hazadus/go-phono/internal/tui/editor"
	tuiPlayer "github.com/hazadus/go-phono/internal/tui/player"
	"github.com/hazadus/go-phono/internal/tui/tracklist"
)

// ScreenType определяет тип текущего экрана
type ScreenType int

// Константы для типов экранов
const (
	// TracklistScreen - экран списка треков
	TracklistScreen ScreenType = iota
	// PlayerScreen - экран плеера
	PlayerScreen
	// EditorScreen - экран редактирования
	EditorScreen
)

// MainModel представляет главную модель TUI
type MainModel struct {
	library        *library.Library
	coordinator    *playback.Coordinator
	lyricsClient   *lyrics.Client // nil, если источник текстов не настроен
	currentScreen  ScreenType
	tracklistModel *tracklist.Model
	playerModel    *tuiPlayer.Model
	editorModel    *editor.Model
}

// NewMainModel создает новую главную модель
func NewMainModel(lib *library.Library, coordinator *playback.Coordinator, lyricsClient *lyrics.Client) *MainModel {
	m := &MainModel{
		library:       lib,
		coordinator:   coordinator,
		lyricsClient:  lyricsClient,
		currentScreen: TracklistScreen,
		playerModel:   nil, // Будет создана при выборе трека
		editorModel:   nil, // Будет создана при редактировании трека
	}

	// Удаление трека согласуется с координатором: удаление активного трека
	// останавливает воспроизведение
	m.tracklistModel = tracklist.NewModel(lib, func(ctx context.Context, id int) error {
		if err := lib.Remove(ctx, id); err != nil {
			return err
		}
		coordinator.HandleRemoval(id)
		return nil
	})

	return m
}

// Init инициализирует модель
func (m *MainModel) Init() tea.Cmd {
	// Инициализируем модель списка треков
	return m.tracklistModel.Init()
}

// Update обрабатывает сообщения
func (m *MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Глобальные горячие клавиши
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}

	case tracklist.TrackSelectedMsg:
		// Переключаемся на экран плеера с выбранным треком
		m.currentScreen = PlayerScreen
		m.playerModel = tuiPlayer.NewModel(msg.Track, m.coordinator, m.lyricsClient)
		return m, m.playerModel.Init()

	case tracklist.TrackEditMsg:
		// Переключаемся на экран редактирования с выбранным треком
		m.currentScreen = EditorScreen
		m.editorModel = editor.NewModel(m.library, msg.Track)
		return m, m.editorModel.Init()

	case tuiPlayer.GoBackMsg:
		// Возвращаемся к списку треков; воспроизведение продолжается
		m.currentScreen = TracklistScreen
		m.playerModel = nil
		return m, nil

	case editor.GoBackMsg:
		// Возвращаемся к списку треков из редактора
		m.currentScreen = TracklistScreen
		m.editorModel = nil
		// Обновляем данные в существующей модели списка треков
		m.tracklistModel.RefreshData()
		return m, nil

	case editor.TrackSavedMsg:
		// Трек сохранен - остаемся в редакторе
		return m, nil

	case tea.WindowSizeMsg:
		// Передаем размеры окна активной модели
		switch m.currentScreen {
		case TracklistScreen:
			var tracklistCmd tea.Cmd
			m.tracklistModel, tracklistCmd = m.tracklistModel.Update(msg)
			return m, tracklistCmd
		case PlayerScreen:
			if m.playerModel != nil {
				var playerCmd tea.Cmd
				updatedModel, playerCmd := m.playerModel.Update(msg)
				if playerModel, ok := updatedModel.(*tuiPlayer.Model); ok {
					m.playerModel = playerModel
				}
				return m, playerCmd
			}
		case EditorScreen:
			if m.editorModel != nil {
				var editorCmd tea.Cmd
				m.editorModel, editorCmd = m.editorModel.Update(msg)
				return m, editorCmd
			}
		}
		return m, nil
	}

	// Передаем сообщение активной модели
	switch m.currentScreen {
	case TracklistScreen:
		var tracklistCmd tea.Cmd
		m.tracklistModel, tracklistCmd = m.tracklistModel.Update(msg)
		cmd = tracklistCmd

	case PlayerScreen:
		if m.playerModel != nil {
			var playerCmd tea.Cmd
			updatedModel, playerCmd := m.playerModel.Update(msg)
			if playerModel, ok := updatedModel.(*tuiPlayer.Model); ok {
				m.playerModel = playerModel
			}
			cmd = playerCmd
		}

	case EditorScreen:
		if m.editorModel != nil {
			var editorCmd tea.Cmd
			m.editorModel, editorCmd = m.editorModel.Update(msg)
			cmd = editorCmd
		}
	}

	return m, cmd
}

// View отображает интерфейс
func (m *MainModel) View() string {
	switch m.currentScreen {
	case TracklistScreen:
		return m.tracklistModel.View()

	case PlayerScreen:
		if m.playerModel != nil {
			return m.playerModel.View()
		}
		return "Ошибка: модель плеера не инициализирована"

	case EditorScreen:
		if m.editorModel != nil {
			return m.editorModel.View()
		}
		return "Ошибка: модель редактора не инициализирована"

	default:
		return "Неизвестный экран"
	}
}

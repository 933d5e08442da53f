// Package player содержит модель экрана воспроизведения для TUI
package player

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-phono/internal/lyrics"
	"github.com/hazadus/go-phono/internal/playback"
	"github.com/hazadus/go-phono/internal/store"
	"github.com/hazadus/go-phono/internal/utils"
)

// seekStep — шаг перемотки стрелками
const seekStep = 5 * time.Second

// volumeStep — шаг изменения громкости
const volumeStep = 0.05

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0000ff")).
			MarginBottom(1)

	trackInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1).
			MarginBottom(1)

	lyricsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	activeLineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff0000")).
			Bold(true)
)

// GoBackMsg отправляется для возврата к списку треков
type GoBackMsg struct{}

// SnapshotMsg содержит снимок состояния воспроизведения
type SnapshotMsg struct {
	Snapshot playback.Snapshot
}

// PlaybackErrorMsg отправляется при ошибке воспроизведения
type PlaybackErrorMsg struct {
	Error error
}

// LyricsMsg содержит загруженный текст песни
type LyricsMsg struct {
	Lines []lyrics.Line
}

// Model представляет модель экрана воспроизведения
type Model struct {
	track       store.Record
	coordinator *playback.Coordinator
	lyricsFetch *lyrics.Client // nil, если источник текстов не настроен
	progressBar progress.Model
	snapshot    playback.Snapshot
	lyricsLines []lyrics.Line
	error       error
	width       int
	height      int
}

// NewModel создает новую модель плеера для выбранного трека
func NewModel(track store.Record, coordinator *playback.Coordinator, lyricsFetch *lyrics.Client) *Model {
	// Создаем прогресс-бар
	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	return &Model{
		track:       track,
		coordinator: coordinator,
		lyricsFetch: lyricsFetch,
		progressBar: prog,
	}
}

// Init инициализирует модель и запускает воспроизведение
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.startPlayback(),
		m.listenForUpdates(),
		m.fetchLyrics(),
	)
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Обновляем ширину прогресс-бара
		m.progressBar.Width = min(60, msg.Width-10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			// Возвращаемся к списку; воспроизведение продолжается
			return m, func() tea.Msg {
				return GoBackMsg{}
			}

		case " ":
			// Пауза/воспроизведение
			m.coordinator.TogglePlayPause()
			return m, nil

		case "n":
			// Следующий трек
			return m, m.advance(+1)

		case "b":
			// Предыдущий трек
			return m, m.advance(-1)

		case "right":
			return m, m.seek(m.snapshot.Position + seekStep)

		case "left":
			return m, m.seek(m.snapshot.Position - seekStep)

		case "+", "=":
			m.coordinator.SetVolume(m.coordinator.Volume() + volumeStep)
			return m, nil

		case "-":
			m.coordinator.SetVolume(m.coordinator.Volume() - volumeStep)
			return m, nil
		}

	case SnapshotMsg:
		m.snapshot = msg.Snapshot

		// Координатор мог переключить трек (переход по кругу, конец трека)
		if msg.Snapshot.ActiveTrackID != 0 && msg.Snapshot.ActiveTrackID != m.track.ID {
			m.track = msg.Snapshot.Track
			m.lyricsLines = nil
			return m, tea.Batch(
				m.updateProgress(),
				m.listenForUpdates(),
				m.fetchLyrics(),
			)
		}

		return m, tea.Batch(
			m.updateProgress(),
			m.listenForUpdates(),
		)

	case LyricsMsg:
		m.lyricsLines = msg.Lines
		return m, nil

	case PlaybackErrorMsg:
		m.error = msg.Error
		return m, nil

	case progress.FrameMsg:
		// Обновляем прогресс-бар
		progressModel, cmd := m.progressBar.Update(msg)
		m.progressBar = progressModel.(progress.Model)
		return m, cmd
	}

	return m, nil
}

// View отображает модель
func (m *Model) View() string {
	if m.error != nil {
		return fmt.Sprintf(
			"%s\n\n%s\n\n%s",
			titleStyle.Render("❌ Ошибка воспроизведения"),
			errorStyle.Render(m.error.Error()),
			controlsStyle.Render("Нажмите 'q' или 'esc' для возврата"),
		)
	}

	// Заголовок
	title := titleStyle.Render("🎵 Воспроизведение")

	// Информация о треке
	trackInfo := trackInfoStyle.Render(fmt.Sprintf(
		"🎤 %s\n🎵 %s\n💿 %s",
		m.track.Artist,
		m.track.Name,
		m.track.Album,
	))

	// Статус воспроизведения
	var statusIcon string
	if m.snapshot.IsPlaying() {
		statusIcon = "▶️"
	} else {
		statusIcon = "⏸️"
	}

	statusText := statusStyle.Render(fmt.Sprintf("%s %s", statusIcon, m.snapshot.State))

	// Прогресс-бар
	progressView := m.progressBar.View()

	// Время и громкость
	timeText := fmt.Sprintf(
		"%s / %s  🔊 %d%%",
		utils.FormatDuration(m.snapshot.Position),
		utils.FormatDuration(m.snapshot.Duration),
		int(m.snapshot.Volume*100),
	)

	// Элементы управления
	controls := controlsStyle.Render(
		"Пробел: пауза • n/b: след/пред • ←/→: перемотка • +/-: громкость • q/esc: назад",
	)

	return fmt.Sprintf(
		"%s\n\n%s\n\n%s\n\n%s\n%s\n%s\n%s",
		title,
		trackInfo,
		statusText,
		progressView,
		timeText,
		m.lyricsView(),
		controls,
	)
}

// lyricsView отображает строку текста песни, соответствующую текущей позиции
func (m *Model) lyricsView() string {
	if len(m.lyricsLines) == 0 {
		return ""
	}

	idx := lyrics.ActiveIndex(m.lyricsLines, m.snapshot.Position.Seconds())
	if idx < 0 {
		return lyricsStyle.Render("♪ …")
	}

	view := activeLineStyle.Render("♪ " + m.lyricsLines[idx].Text)
	if idx+1 < len(m.lyricsLines) {
		view += "\n" + lyricsStyle.Render("  "+m.lyricsLines[idx+1].Text)
	}
	return view
}

// startPlayback делает трек активным в координаторе
func (m *Model) startPlayback() tea.Cmd {
	return func() tea.Msg {
		if err := m.coordinator.Select(context.Background(), m.track.ID); err != nil {
			return PlaybackErrorMsg{Error: err}
		}
		return SnapshotMsg{Snapshot: m.coordinator.Snapshot()}
	}
}

// advance переключает трек по кругу
func (m *Model) advance(direction int) tea.Cmd {
	return func() tea.Msg {
		if err := m.coordinator.Advance(context.Background(), direction); err != nil {
			return PlaybackErrorMsg{Error: err}
		}
		return SnapshotMsg{Snapshot: m.coordinator.Snapshot()}
	}
}

// seek перематывает активный трек
func (m *Model) seek(pos time.Duration) tea.Cmd {
	return func() tea.Msg {
		if err := m.coordinator.Seek(pos); err != nil {
			return PlaybackErrorMsg{Error: err}
		}
		return SnapshotMsg{Snapshot: m.coordinator.Snapshot()}
	}
}

// listenForUpdates слушает снимки состояния от координатора
func (m *Model) listenForUpdates() tea.Cmd {
	return func() tea.Msg {
		snapshot, ok := <-m.coordinator.Updates()
		if !ok {
			return GoBackMsg{}
		}
		return SnapshotMsg{Snapshot: snapshot}
	}
}

// updateProgress пересчитывает прогресс-бар по текущему снимку
func (m *Model) updateProgress() tea.Cmd {
	var percent float64
	if m.snapshot.Duration > 0 {
		percent = float64(m.snapshot.Position) / float64(m.snapshot.Duration)
	}
	return m.progressBar.SetPercent(percent)
}

// fetchLyrics загружает текст песни, если источник настроен
func (m *Model) fetchLyrics() tea.Cmd {
	if m.lyricsFetch == nil {
		return nil
	}
	trackName := fmt.Sprintf("%s - %s", m.track.Artist, m.track.Name)
	return func() tea.Msg {
		stream, err := m.lyricsFetch.Fetch(context.Background(), trackName)
		if err != nil {
			// Отсутствие текста не мешает воспроизведению
			return LyricsMsg{}
		}
		defer stream.Close()
		return LyricsMsg{Lines: stream.All()}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

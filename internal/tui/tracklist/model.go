// Package tracklist содержит модель экрана списка треков для TUI
package tracklist

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hazadus/go-phono/internal/library"
	"github.com/hazadus/go-phono/internal/store"
	"github.com/hazadus/go-phono/internal/utils"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).MarginLeft(4)
)

// TrackSelectedMsg отправляется при выборе трека для воспроизведения
type TrackSelectedMsg struct {
	Track store.Record
}

// TrackEditMsg отправляется при выборе трека для редактирования
type TrackEditMsg struct {
	Track store.Record
}

// trackItem реализует интерфейс list.Item для трека
type trackItem struct {
	track store.Record
}

func (i trackItem) FilterValue() string {
	return fmt.Sprintf("%s %s", i.track.Artist, i.track.Name)
}

// trackItemDelegate реализует отображение элементов списка
type trackItemDelegate struct{}

func (d trackItemDelegate) Height() int                             { return 1 }
func (d trackItemDelegate) Spacing() int                            { return 0 }
func (d trackItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d trackItemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(trackItem)
	if !ok {
		return
	}

	// Форматируем строку в виде таблицы: ID | Исполнитель | Название | Продолжительность
	duration := utils.FormatDurationFromSeconds(i.track.Length)
	str := fmt.Sprintf("%-4d %-20s %-50s %s",
		i.track.ID,
		utils.TruncateString(i.track.Artist, 20),
		utils.TruncateString(i.track.Name, 50),
		duration)

	fn := itemStyle.Render
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}

// Model представляет модель экрана списка треков
type Model struct {
	list       list.Model
	library    *library.Library
	removeFunc func(ctx context.Context, id int) error
	errMessage string
	quitting   bool
}

// NewModel создает новую модель списка треков. removeFunc удаляет трек
// из библиотеки и согласует удаление с координатором воспроизведения.
func NewModel(lib *library.Library, removeFunc func(ctx context.Context, id int) error) *Model {
	// Создаем список
	l := list.New(buildItems(lib), trackItemDelegate{}, 0, 0)
	l.Title = "Треки"
	l.SetShowStatusBar(false)
	l.SetShowTitle(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle

	return &Model{
		list:       l,
		library:    lib,
		removeFunc: removeFunc,
	}
}

// buildItems преобразует треки библиотеки в элементы списка
func buildItems(lib *library.Library) []list.Item {
	tracks := lib.Tracks()
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

// Init инициализирует модель
func (m *Model) Init() tea.Cmd {
	return nil
}

// RefreshData обновляет данные модели без пересоздания
func (m *Model) RefreshData() {
	m.list.SetItems(buildItems(m.library))
}

// Update обрабатывает сообщения и обновляет модель
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		m.list.SetHeight(msg.Height - 4) // Оставляем место для заголовка и справки
		return m, nil

	case tea.KeyMsg:
		// Во время фильтрации клавиши уходят в строку поиска
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			// Получаем выбранный элемент
			if item, ok := m.list.SelectedItem().(trackItem); ok {
				// Отправляем сообщение о выборе трека
				return m, func() tea.Msg {
					return TrackSelectedMsg{Track: item.track}
				}
			}

		case "e":
			// Редактирование выбранного трека
			if item, ok := m.list.SelectedItem().(trackItem); ok {
				return m, func() tea.Msg {
					return TrackEditMsg{Track: item.track}
				}
			}

		case "d":
			// Удаление выбранного трека
			if item, ok := m.list.SelectedItem().(trackItem); ok {
				if err := m.removeFunc(context.Background(), item.track.ID); err != nil {
					m.errMessage = fmt.Sprintf("Ошибка удаления: %v", err)
				} else {
					m.errMessage = ""
					m.RefreshData()
				}
			}
			return m, nil
		}
	}

	// Обновляем список
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View отображает модель
func (m *Model) View() string {
	if m.quitting {
		return quitTextStyle.Render("До свидания!")
	}

	view := m.list.View()
	if m.errMessage != "" {
		view += "\n" + errorStyle.Render(m.errMessage)
	}

	// Добавляем дополнительную справку
	extraHelp := helpStyle.Render("Enter: воспроизвести • e: редактировать • d: удалить • q: выход")
	return view + "\n" + extraHelp
}

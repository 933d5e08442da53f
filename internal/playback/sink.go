// Package playback содержит координатор воспроизведения — единственный
// владелец аудио выхода и активной ссылки на содержимое трека.
package playback

import (
	"time"

	"github.com/hazadus/go-phono/internal/handle"
)

// Progress содержит позицию и длительность, сообщаемые выходом. Координатор
// не вычисляет их сам: значения выхода — единственный источник истины.
type Progress struct {
	Position time.Duration
	Duration time.Duration
}

// Sink представляет внешний аудио выход. Реализация на beep живет в
// speaker.go; тесты подставляют свою.
type Sink interface {
	// Load привязывает ссылку на аудио содержимое к выходу, не начиная
	// воспроизведение. Закрытие ссылки после привязки — забота выхода.
	Load(h *handle.Handle) error
	// Play начинает (или возобновляет с текущей позиции) воспроизведение
	Play() error
	// Pause ставит выход на паузу или снимает с нее
	Pause(paused bool)
	// Seek перематывает на указанную позицию
	Seek(pos time.Duration) error
	// SetVolume применяет громкость в диапазоне [0, 1]
	SetVolume(v float64)
	// Clear отвязывает источник и останавливает вывод
	Clear()
	// Progress возвращает канал обновлений позиции от выхода
	Progress() <-chan Progress
	// Done возвращает канал сигналов о достижении конца содержимого
	Done() <-chan struct{}
	// Close освобождает ресурсы выхода
	Close() error
}

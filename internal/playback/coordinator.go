package playback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hazadus/go-phono/internal/handle"
	"github.com/hazadus/go-phono/internal/library"
	"github.com/hazadus/go-phono/internal/store"
)

// State определяет состояние координатора воспроизведения
type State int

// Состояния координатора
const (
	// Idle - нет активного трека
	Idle State = iota
	// Loading - ссылка привязана, выход готовится
	Loading
	// Playing - идет воспроизведение
	Playing
	// Paused - воспроизведение на паузе
	Paused
)

// String возвращает человекочитаемое имя состояния
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Loading:
		return "Loading"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	}
	return "Unknown"
}

// Snapshot представляет снимок состояния воспроизведения для отображения
type Snapshot struct {
	State         State
	ActiveTrackID int // 0, если активного трека нет
	Track         store.Record
	Position      time.Duration
	Duration      time.Duration
	Volume        float64
}

// IsPlaying возвращает true, если трек воспроизводится
func (s Snapshot) IsPlaying() bool {
	return s.State == Playing
}

// Coordinator — единственный источник истины о том, что играет и где.
// Только он привязывает и отвязывает аудио выход.
type Coordinator struct {
	library *library.Library
	handles *handle.Manager
	sink    Sink
	logger  *zap.Logger

	updatesChan chan Snapshot
	stopChan    chan struct{}
	stopOnce    sync.Once

	mutex    sync.Mutex
	state    State
	activeID int
	active   *handle.Handle
	track    store.Record
	position time.Duration
	duration time.Duration
	volume   float64
}

// NewCoordinator создает координатор и запускает обработку событий выхода
func NewCoordinator(lib *library.Library, handles *handle.Manager, sink Sink, logger *zap.Logger) *Coordinator {
	c := &Coordinator{
		library:     lib,
		handles:     handles,
		sink:        sink,
		logger:      logger,
		updatesChan: make(chan Snapshot, 1),
		stopChan:    make(chan struct{}),
		state:       Idle,
		volume:      1.0,
	}
	go c.run()
	return c
}

// Updates возвращает канал снимков состояния для презентационного слоя
func (c *Coordinator) Updates() <-chan Snapshot {
	return c.updatesChan
}

// Snapshot возвращает текущий снимок состояния воспроизведения
func (c *Coordinator) Snapshot() Snapshot {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.snapshotLocked()
}

// Select делает трек активным и запускает его воспроизведение. Повторный
// выбор уже активного трека равносилен переключению пауза/воспроизведение:
// ссылка не пересоздается.
func (c *Coordinator) Select(ctx context.Context, id int) error {
	c.mutex.Lock()
	if id == c.activeID && c.active != nil {
		c.mutex.Unlock()
		c.TogglePlayPause()
		return nil
	}
	c.mutex.Unlock()

	rec, err := c.library.TrackByID(id)
	if err != nil {
		return err
	}
	blob, ok := c.library.Blob(rec, store.KindAudio)
	if !ok {
		return fmt.Errorf("у трека %d отсутствует аудио содержимое", id)
	}

	c.mutex.Lock()
	// Сначала освобождаем старую ссылку: двух живых аудио ссылок не бывает
	c.releaseActiveLocked()

	h, err := c.handles.Materialize(blob)
	if err != nil {
		// Старая ссылка уже освобождена, играть больше нечем: выход
		// останавливается, координатор уходит в Idle, а не остается
		// в Playing без активного трека
		c.sink.Clear()
		c.state = Idle
		c.position = 0
		c.duration = 0
		c.notifyLocked()
		c.mutex.Unlock()
		return fmt.Errorf("ошибка материализации ссылки: %w", err)
	}

	c.active = h
	c.activeID = rec.ID
	c.track = rec
	c.position = 0
	c.duration = time.Duration(rec.Length) * time.Second
	c.state = Loading
	boundID := h.ID()
	c.mutex.Unlock()

	// Привязка выхода идет без мьютекса: пока декодер читает заголовки,
	// могут прийти другие намерения (например, удаление активного трека)
	loadErr := c.sink.Load(h)

	c.mutex.Lock()
	defer c.mutex.Unlock()

	// Пока выход готовился, активная ссылка могла смениться или исчезнуть
	if c.active == nil || c.active.ID() != boundID {
		// Выход останавливается только если активного трека больше нет
		// (удаление во время загрузки). Если ссылка сменилась, выходом
		// владеет более поздний выбор, и трогать его нельзя.
		if c.active == nil {
			c.sink.Clear()
		}
		h.Release()
		return ctx.Err()
	}

	if loadErr != nil {
		// Неудавшаяся привязка не оставляет активный трек без ссылки
		c.releaseActiveLocked()
		c.state = Idle
		return loadErr
	}

	c.sink.SetVolume(c.volume)
	if err := c.sink.Play(); err != nil {
		// Отказ выхода считаем авторитетным: намерение "играет"
		// сбрасывается, ссылка остается привязанной для повторной попытки
		c.logger.Warn("выход отказал в запуске воспроизведения",
			zap.Int("track_id", rec.ID),
			zap.Error(err))
		c.state = Paused
		c.notifyLocked()
		return nil
	}

	c.state = Playing
	c.notifyLocked()
	return nil
}

// TogglePlayPause переключает паузу. Без активного трека ничего не делает.
func (c *Coordinator) TogglePlayPause() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	switch c.state {
	case Playing:
		c.sink.Pause(true)
		c.state = Paused
	case Paused:
		c.sink.Pause(false)
		c.state = Playing
	default:
		return
	}
	c.notifyLocked()
}

// Advance переключает активный трек на следующий (+1) или предыдущий (-1)
// в текущем порядке библиотеки, с переходом через край в обе стороны.
func (c *Coordinator) Advance(ctx context.Context, direction int) error {
	c.mutex.Lock()
	activeID := c.activeID
	hasActive := c.active != nil
	c.mutex.Unlock()

	// Единый снимок списка: количество и позиция считаются по нему же,
	// параллельное удаление не сдвинет индексы под вычислением
	tracks := c.library.Tracks()
	count := len(tracks)
	if count == 0 {
		return nil
	}

	if !hasActive {
		// Без активного трека начинаем с первого
		return c.Select(ctx, tracks[0].ID)
	}

	if count == 1 {
		if tracks[0].ID != activeID {
			// Активный трек исчез из библиотеки, остался один другой
			return c.Select(ctx, tracks[0].ID)
		}
		if direction > 0 {
			// Библиотека из одного трека зацикливается на себе
			return c.restartActive()
		}
		return nil
	}

	idx := -1
	for i, t := range tracks {
		if t.ID == activeID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return c.Select(ctx, tracks[0].ID)
	}

	next := (idx + direction + count) % count
	return c.Select(ctx, tracks[next].ID)
}

// Seek перематывает выход и сразу обновляет отслеживаемую позицию,
// не дожидаясь события от выхода
func (c *Coordinator) Seek(pos time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.active == nil {
		return nil
	}
	if pos < 0 {
		pos = 0
	}
	if err := c.sink.Seek(pos); err != nil {
		return err
	}
	c.position = pos
	c.notifyLocked()
	return nil
}

// SetVolume применяет громкость, ограниченную диапазоном [0, 1]
func (c *Coordinator) SetVolume(v float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	c.volume = v
	c.sink.SetVolume(v)
	c.notifyLocked()
}

// Volume возвращает текущую громкость
func (c *Coordinator) Volume() float64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.volume
}

// HandleRemoval приводит координатор в Idle, если удален активный трек.
// Вызывается после Library.Remove; удаление неактивного трека игнорируется.
func (c *Coordinator) HandleRemoval(id int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if id != c.activeID {
		return
	}

	c.sink.Clear()
	c.releaseActiveLocked()
	c.state = Idle
	c.position = 0
	c.duration = 0
	c.notifyLocked()
}

// Close останавливает координатор и освобождает ресурсы
func (c *Coordinator) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.sink.Clear()
	c.releaseActiveLocked()
	c.state = Idle
	return nil
}

// run обрабатывает события выхода: обновления позиции и сигнал конца трека
func (c *Coordinator) run() {
	for {
		select {
		case <-c.stopChan:
			return
		case progress := <-c.sink.Progress():
			c.mutex.Lock()
			if c.active != nil {
				c.position = progress.Position
				if progress.Duration > 0 {
					c.duration = progress.Duration
				}
				c.notifyLocked()
			}
			c.mutex.Unlock()
		case <-c.sink.Done():
			c.onTrackEnd()
		}
	}
}

// onTrackEnd обрабатывает достижение конца трека: библиотека из одного
// трека перезапускается на месте, иначе идет переход к следующему треку
func (c *Coordinator) onTrackEnd() {
	c.mutex.Lock()
	hasActive := c.active != nil
	c.mutex.Unlock()

	if !hasActive {
		return
	}

	if c.library.Count() == 1 {
		if err := c.restartActive(); err != nil {
			c.logger.Warn("ошибка перезапуска трека", zap.Error(err))
		}
		return
	}

	if err := c.Advance(context.Background(), +1); err != nil {
		c.logger.Warn("ошибка перехода к следующему треку", zap.Error(err))
	}
}

// restartActive перематывает активный трек в начало и продолжает
// воспроизведение без пересоздания ссылки
func (c *Coordinator) restartActive() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.active == nil {
		return nil
	}
	if err := c.sink.Seek(0); err != nil {
		return err
	}
	c.position = 0
	if err := c.sink.Play(); err != nil {
		c.logger.Warn("выход отказал в перезапуске воспроизведения", zap.Error(err))
		c.state = Paused
		c.notifyLocked()
		return nil
	}
	c.state = Playing
	c.notifyLocked()
	return nil
}

// releaseActiveLocked освобождает активную ссылку и сбрасывает привязку
// (должен вызываться под мьютексом)
func (c *Coordinator) releaseActiveLocked() {
	if c.active != nil {
		c.active.Release()
		c.active = nil
	}
	c.activeID = 0
	c.track = store.Record{}
}

// snapshotLocked собирает снимок состояния (должен вызываться под мьютексом)
func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{
		State:         c.state,
		ActiveTrackID: c.activeID,
		Track:         c.track,
		Position:      c.position,
		Duration:      c.duration,
		Volume:        c.volume,
	}
}

// notifyLocked отправляет снимок подписчику, не блокируясь
// (должен вызываться под мьютексом)
func (c *Coordinator) notifyLocked() {
	select {
	case c.updatesChan <- c.snapshotLocked():
	default:
	}
}

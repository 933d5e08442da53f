package playback

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"

	"github.com/hazadus/go-phono/internal/handle"
)

// SpeakerSink реализует Sink поверх динамиков через beep
type SpeakerSink struct {
	progressChan chan Progress
	doneChan     chan struct{}

	mutex         sync.Mutex
	isInitialized bool
	vol           float64

	// Компоненты текущего привязанного источника
	streamer    beep.StreamSeekCloser
	format      beep.Format
	ctrl        *beep.Ctrl
	volume      *effects.Volume
	stopMonitor chan struct{}
}

// NewSpeakerSink создает новый выход на динамики
func NewSpeakerSink() *SpeakerSink {
	return &SpeakerSink{
		progressChan: make(chan Progress, 1),
		doneChan:     make(chan struct{}, 1),
		vol:          1.0,
	}
}

// Load декодирует содержимое ссылки и привязывает его к выходу
func (s *SpeakerSink) Load(h *handle.Handle) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.clearInternal()

	// Декодер закрывает handle при закрытии стримера; освобождение
	// идемпотентно, поэтому внешний Release не конфликтует с ним
	streamer, format, err := mp3.Decode(h)
	if err != nil {
		return fmt.Errorf("ошибка декодирования MP3: %w", err)
	}

	// Инициализируем speaker только один раз за время жизни процесса
	if !s.isInitialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/5)); err != nil {
			streamer.Close()
			return fmt.Errorf("ошибка инициализации динамиков: %w", err)
		}
		s.isInitialized = true
	}

	s.streamer = streamer
	s.format = format
	s.ctrl = &beep.Ctrl{Streamer: streamer}
	s.volume = &effects.Volume{
		Streamer: s.ctrl,
		Base:     2,
	}
	s.applyVolume()

	// Запускаем мониторинг прогресса для привязанного источника
	s.stopMonitor = make(chan struct{})
	go s.monitorProgress(streamer, format, s.stopMonitor)

	return nil
}

// Play начинает воспроизведение привязанного источника с текущей позиции
func (s *SpeakerSink) Play() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.volume == nil {
		return fmt.Errorf("источник не привязан к выходу")
	}

	speaker.Clear()
	speaker.Play(beep.Seq(s.volume, beep.Callback(func() {
		select {
		case s.doneChan <- struct{}{}:
		default:
		}
	})))
	return nil
}

// Pause ставит вывод на паузу или снимает с нее
func (s *SpeakerSink) Pause(paused bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = paused
	speaker.Unlock()
}

// Seek перематывает источник на указанную позицию
func (s *SpeakerSink) Seek(pos time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.streamer == nil {
		return fmt.Errorf("источник не привязан к выходу")
	}

	speaker.Lock()
	defer speaker.Unlock()

	n := s.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if total := s.streamer.Len(); n > total {
		n = total
	}
	if err := s.streamer.Seek(n); err != nil {
		return fmt.Errorf("ошибка перемотки: %w", err)
	}
	return nil
}

// SetVolume применяет громкость в диапазоне [0, 1]. Шкала beep
// логарифмическая, поэтому линейное значение переводится через log2.
func (s *SpeakerSink) SetVolume(v float64) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.vol = v
	if s.volume == nil {
		return
	}
	speaker.Lock()
	s.applyVolume()
	speaker.Unlock()
}

// Clear отвязывает источник и останавливает вывод
func (s *SpeakerSink) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.clearInternal()
}

// Progress возвращает канал обновлений позиции
func (s *SpeakerSink) Progress() <-chan Progress {
	return s.progressChan
}

// Done возвращает канал сигналов о конце содержимого
func (s *SpeakerSink) Done() <-chan struct{} {
	return s.doneChan
}

// Close освобождает ресурсы выхода
func (s *SpeakerSink) Close() error {
	s.Clear()
	return nil
}

// clearInternal останавливает вывод и закрывает стример
// (должен вызываться под мьютексом)
func (s *SpeakerSink) clearInternal() {
	if s.stopMonitor != nil {
		close(s.stopMonitor)
		s.stopMonitor = nil
	}
	if s.ctrl != nil {
		speaker.Clear()
		s.ctrl = nil
		s.volume = nil
	}
	if s.streamer != nil {
		// Закрытие стримера закрывает и handle под ним
		_ = s.streamer.Close()
		s.streamer = nil
	}
}

// applyVolume переводит линейную громкость в шкалу beep
// (должен вызываться под мьютексом)
func (s *SpeakerSink) applyVolume() {
	if s.vol <= 0 {
		s.volume.Silent = true
		return
	}
	s.volume.Silent = false
	s.volume.Volume = math.Log2(s.vol)
}

// monitorProgress периодически сообщает позицию и длительность источника
func (s *SpeakerSink) monitorProgress(streamer beep.StreamSeekCloser, format beep.Format, stop chan struct{}) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			speaker.Lock()
			position := format.SampleRate.D(streamer.Position())
			duration := format.SampleRate.D(streamer.Len())
			speaker.Unlock()

			select {
			case s.progressChan <- Progress{Position: position, Duration: duration}:
			default:
				// Если канал занят, пропускаем обновление
			}
		}
	}
}

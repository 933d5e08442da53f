package playback

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hazadus/go-phono/internal/handle"
	"github.com/hazadus/go-phono/internal/library"
	"github.com/hazadus/go-phono/internal/store"
)

// fakeSink реализует Sink для тестов координатора без реальных динамиков
type fakeSink struct {
	progressChan chan Progress
	doneChan     chan struct{}

	mutex      sync.Mutex
	loaded     *handle.Handle
	playErr    error
	loadCount  int
	playCount  int
	clearCount int
	paused     bool
	lastSeek   time.Duration
	volume     float64

	// Одноразовые ворота для имитации долгой привязки: Load сигналит
	// в gateEntered и ждет закрытия loadGate, удерживая мьютекс выхода,
	// как это делает реальный декодер
	loadGate    chan struct{}
	gateEntered chan struct{}
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		progressChan: make(chan Progress, 1),
		doneChan:     make(chan struct{}, 1),
	}
}

func (f *fakeSink) Load(h *handle.Handle) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.loadGate != nil {
		gate := f.loadGate
		f.loadGate = nil
		close(f.gateEntered)
		<-gate
	}
	f.loaded = h
	f.loadCount++
	return nil
}

func (f *fakeSink) Play() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if f.playErr != nil {
		return f.playErr
	}
	f.playCount++
	f.paused = false
	return nil
}

func (f *fakeSink) Pause(paused bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.paused = paused
}

func (f *fakeSink) Seek(pos time.Duration) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.lastSeek = pos
	return nil
}

func (f *fakeSink) SetVolume(v float64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.volume = v
}

func (f *fakeSink) Clear() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.loaded = nil
	f.clearCount++
}

func (f *fakeSink) Progress() <-chan Progress { return f.progressChan }
func (f *fakeSink) Done() <-chan struct{}     { return f.doneChan }
func (f *fakeSink) Close() error              { return nil }

func (f *fakeSink) loads() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.loadCount
}

func (f *fakeSink) plays() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.playCount
}

func (f *fakeSink) clears() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.clearCount
}

func (f *fakeSink) loadedHandle() *handle.Handle {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.loaded
}

// testPlayer собирает библиотеку, менеджер ссылок и координатор для тестов
type testPlayer struct {
	lib     *library.Library
	handles *handle.Manager
	sink    *fakeSink
	coord   *Coordinator
}

func newTestPlayer(t *testing.T, trackCount int) (*testPlayer, []int) {
	t.Helper()

	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка открытия хранилища: %v", err)
	}
	lib := library.New(s, zap.NewNop())

	var ids []int
	for i := 0; i < trackCount; i++ {
		path := filepath.Join(t.TempDir(), "track.mp3")
		if err := os.WriteFile(path, []byte("fake-audio"), 0644); err != nil {
			t.Fatalf("Ошибка создания тестового файла: %v", err)
		}
		rec, err := lib.Ingest(context.Background(), path)
		if err != nil {
			t.Fatalf("Ошибка добавления трека: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	handles := handle.NewManager()
	sink := newFakeSink()
	coord := NewCoordinator(lib, handles, sink, zap.NewNop())
	t.Cleanup(func() { coord.Close() })

	return &testPlayer{lib: lib, handles: handles, sink: sink, coord: coord}, ids
}

// waitFor ждет выполнения условия, обновляемого горутиной координатора
func waitFor(t *testing.T, cond func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(message)
}

func TestSelectStartsPlayback(t *testing.T) {
	p, ids := newTestPlayer(t, 2)
	ctx := context.Background()

	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}

	snap := p.coord.Snapshot()
	if snap.State != Playing {
		t.Errorf("Ожидалось состояние Playing, получено %s", snap.State)
	}
	if snap.ActiveTrackID != ids[0] {
		t.Errorf("Ожидался активный трек %d, получено %d", ids[0], snap.ActiveTrackID)
	}
	if p.handles.Live() != 1 {
		t.Errorf("Ожидалась 1 живая ссылка, получено %d", p.handles.Live())
	}
}

func TestSelectSameTrackTogglesWithoutReload(t *testing.T) {
	p, ids := newTestPlayer(t, 2)
	ctx := context.Background()

	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}
	if p.sink.loads() != 1 {
		t.Fatalf("Ожидалась 1 привязка, получено %d", p.sink.loads())
	}

	// Повторный выбор того же трека — это пауза, а не перепривязка
	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка повторного выбора: %v", err)
	}
	if p.sink.loads() != 1 {
		t.Errorf("Повторный выбор не должен пересоздавать ссылку, привязок: %d", p.sink.loads())
	}
	if snap := p.coord.Snapshot(); snap.State != Paused {
		t.Errorf("Ожидалось состояние Paused, получено %s", snap.State)
	}

	// И еще раз — снова воспроизведение
	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка третьего выбора: %v", err)
	}
	if snap := p.coord.Snapshot(); snap.State != Playing {
		t.Errorf("Ожидалось состояние Playing, получено %s", snap.State)
	}
}

func TestSelectMaterializeFailureResetsToIdle(t *testing.T) {
	p, ids := newTestPlayer(t, 2)
	ctx := context.Background()

	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}

	// Делаем блоб второго трека неоткрываемым: заменяем файл сокетом,
	// который проходит stat, но не открывается как обычный файл
	rec, err := p.lib.TrackByID(ids[1])
	if err != nil {
		t.Fatalf("Ошибка поиска трека: %v", err)
	}
	blob, ok := p.lib.Blob(rec, store.KindAudio)
	if !ok {
		t.Fatal("У трека должен быть аудио блоб")
	}
	if err := os.Remove(blob.Path); err != nil {
		t.Fatalf("Ошибка удаления блоба: %v", err)
	}
	listener, err := net.Listen("unix", blob.Path)
	if err != nil {
		t.Fatalf("Ошибка создания сокета: %v", err)
	}
	defer listener.Close()

	if err := p.coord.Select(ctx, ids[1]); err == nil {
		t.Fatal("Выбор трека с неоткрываемым блобом должен вернуть ошибку")
	}

	// Старая ссылка уже освобождена, поэтому координатор обязан уйти
	// в Idle, а не остаться в Playing без активного трека
	snap := p.coord.Snapshot()
	if snap.State != Idle {
		t.Errorf("Ожидалось состояние Idle, получено %s", snap.State)
	}
	if snap.ActiveTrackID != 0 {
		t.Errorf("Активного трека быть не должно, получено %d", snap.ActiveTrackID)
	}
	if p.handles.Live() != 0 {
		t.Errorf("Живых ссылок быть не должно, получено %d", p.handles.Live())
	}
	if p.sink.clears() == 0 || p.sink.loadedHandle() != nil {
		t.Error("Выход должен быть остановлен после неудавшегося выбора")
	}
}

func TestStaleBindDoesNotClearNewerSelection(t *testing.T) {
	p, ids := newTestPlayer(t, 2)
	ctx := context.Background()

	gate := make(chan struct{})
	entered := make(chan struct{})
	p.sink.mutex.Lock()
	p.sink.loadGate = gate
	p.sink.gateEntered = entered
	p.sink.mutex.Unlock()

	// Первый выбор застревает в привязке выхода
	firstDone := make(chan error, 1)
	go func() { firstDone <- p.coord.Select(ctx, ids[0]) }()
	<-entered

	// Второй выбор успевает стать активным, пока первый еще привязывается
	secondDone := make(chan error, 1)
	go func() { secondDone <- p.coord.Select(ctx, ids[1]) }()
	waitFor(t, func() bool { return p.coord.Snapshot().ActiveTrackID == ids[1] },
		"Второй выбор должен стать активным")

	close(gate)

	if err := <-firstDone; err != nil {
		t.Fatalf("Устаревший выбор не должен возвращать ошибку: %v", err)
	}
	if err := <-secondDone; err != nil {
		t.Fatalf("Ошибка второго выбора: %v", err)
	}

	// Выходом владеет более поздний выбор: устаревшее продолжение
	// не останавливает его и не трогает привязку
	snap := p.coord.Snapshot()
	if snap.State != Playing || snap.ActiveTrackID != ids[1] {
		t.Errorf("Ожидалось воспроизведение трека %d, получено %s (трек %d)",
			ids[1], snap.State, snap.ActiveTrackID)
	}
	if p.sink.clears() != 0 {
		t.Errorf("Устаревшее продолжение не должно останавливать выход, остановок: %d", p.sink.clears())
	}
	loaded := p.sink.loadedHandle()
	if loaded == nil || loaded.Released() {
		t.Error("Выход должен остаться привязанным к живой ссылке второго выбора")
	}
	if p.handles.Live() != 1 {
		t.Errorf("Ожидалась 1 живая ссылка, получено %d", p.handles.Live())
	}
}

func TestAtMostOneLiveHandle(t *testing.T) {
	p, ids := newTestPlayer(t, 3)
	ctx := context.Background()

	// Перебираем треки в произвольном порядке; живая ссылка всегда одна
	order := []int{ids[0], ids[2], ids[1], ids[0], ids[2]}
	for _, id := range order {
		if err := p.coord.Select(ctx, id); err != nil {
			t.Fatalf("Ошибка выбора трека %d: %v", id, err)
		}
		if live := p.handles.Live(); live != 1 {
			t.Fatalf("После выбора %d ожидалась 1 живая ссылка, получено %d", id, live)
		}
	}
}

func TestActiveHandleConsistency(t *testing.T) {
	p, ids := newTestPlayer(t, 1)
	ctx := context.Background()

	// До выбора: нет ни трека, ни ссылки
	if snap := p.coord.Snapshot(); snap.ActiveTrackID != 0 || p.handles.Live() != 0 {
		t.Error("До выбора не должно быть ни активного трека, ни живой ссылки")
	}

	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}
	if snap := p.coord.Snapshot(); snap.ActiveTrackID == 0 || p.handles.Live() != 1 {
		t.Error("После выбора активный трек и живая ссылка должны существовать вместе")
	}

	p.coord.HandleRemoval(ids[0])
	if snap := p.coord.Snapshot(); snap.ActiveTrackID != 0 || p.handles.Live() != 0 {
		t.Error("После удаления не должно остаться ни активного трека, ни живой ссылки")
	}
}

func TestCircularAdvance(t *testing.T) {
	p, ids := newTestPlayer(t, 3)
	ctx := context.Background()

	// Активен средний трек B
	if err := p.coord.Select(ctx, ids[1]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}

	// B -> C
	if err := p.coord.Advance(ctx, +1); err != nil {
		t.Fatalf("Ошибка перехода вперед: %v", err)
	}
	if snap := p.coord.Snapshot(); snap.ActiveTrackID != ids[2] {
		t.Errorf("Ожидался трек %d, получено %d", ids[2], snap.ActiveTrackID)
	}

	// C -> A (переход через край)
	if err := p.coord.Advance(ctx, +1); err != nil {
		t.Fatalf("Ошибка перехода вперед: %v", err)
	}
	if snap := p.coord.Snapshot(); snap.ActiveTrackID != ids[0] {
		t.Errorf("Ожидался трек %d после перехода через край, получено %d", ids[0], snap.ActiveTrackID)
	}

	// A -> C (назад через край)
	if err := p.coord.Advance(ctx, -1); err != nil {
		t.Fatalf("Ошибка перехода назад: %v", err)
	}
	if snap := p.coord.Snapshot(); snap.ActiveTrackID != ids[2] {
		t.Errorf("Ожидался трек %d после перехода назад, получено %d", ids[2], snap.ActiveTrackID)
	}
}

func TestAdvanceAfterActiveTrackRemoved(t *testing.T) {
	p, ids := newTestPlayer(t, 3)
	ctx := context.Background()

	if err := p.coord.Select(ctx, ids[1]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}

	// Активный трек исчезает из библиотеки, пока координатор еще держит
	// его ссылку; переход должен выбрать первый из оставшихся, а не
	// считать позицию по уже несуществующему списку
	if err := p.lib.Remove(ctx, ids[1]); err != nil {
		t.Fatalf("Ошибка удаления трека: %v", err)
	}
	if err := p.coord.Advance(ctx, +1); err != nil {
		t.Fatalf("Ошибка перехода после удаления: %v", err)
	}
	if snap := p.coord.Snapshot(); snap.ActiveTrackID != ids[0] {
		t.Errorf("Ожидался первый оставшийся трек %d, получено %d", ids[0], snap.ActiveTrackID)
	}

	// То же, когда в библиотеке остается единственный другой трек
	if err := p.lib.Remove(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка удаления трека: %v", err)
	}
	if err := p.coord.Advance(ctx, +1); err != nil {
		t.Fatalf("Ошибка перехода после удаления: %v", err)
	}
	if snap := p.coord.Snapshot(); snap.ActiveTrackID != ids[2] {
		t.Errorf("Ожидался последний оставшийся трек %d, получено %d", ids[2], snap.ActiveTrackID)
	}
}

func TestAdvanceEmptyLibrary(t *testing.T) {
	p, _ := newTestPlayer(t, 0)

	if err := p.coord.Advance(context.Background(), +1); err != nil {
		t.Errorf("Переход в пустой библиотеке должен быть no-op: %v", err)
	}
	if snap := p.coord.Snapshot(); snap.State != Idle {
		t.Errorf("Ожидалось состояние Idle, получено %s", snap.State)
	}
}

func TestLoopOfOne(t *testing.T) {
	p, ids := newTestPlayer(t, 1)
	ctx := context.Background()

	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}
	if p.sink.plays() != 1 {
		t.Fatalf("Ожидался 1 запуск, получено %d", p.sink.plays())
	}

	// Сигнал конца трека: библиотека из одного трека зацикливается на месте
	p.sink.doneChan <- struct{}{}

	waitFor(t, func() bool { return p.sink.plays() == 2 },
		"Воспроизведение должно перезапуститься после конца трека")

	snap := p.coord.Snapshot()
	if snap.ActiveTrackID != ids[0] {
		t.Errorf("Активный трек не должен смениться, получено %d", snap.ActiveTrackID)
	}
	if snap.Position != 0 {
		t.Errorf("Позиция должна сброситься в 0, получено %v", snap.Position)
	}
	if p.sink.loads() != 1 {
		t.Errorf("Перезапуск не должен пересоздавать ссылку, привязок: %d", p.sink.loads())
	}
	if p.handles.Live() != 1 {
		t.Errorf("Ожидалась 1 живая ссылка, получено %d", p.handles.Live())
	}
}

func TestTrackEndAdvancesToNext(t *testing.T) {
	p, ids := newTestPlayer(t, 2)
	ctx := context.Background()

	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}

	p.sink.doneChan <- struct{}{}

	waitFor(t, func() bool { return p.coord.Snapshot().ActiveTrackID == ids[1] },
		"После конца трека должен стать активным следующий")
}

func TestDeleteActiveResetsToIdle(t *testing.T) {
	p, ids := newTestPlayer(t, 2)
	ctx := context.Background()

	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}

	// Удаление активного трека: библиотека, затем координатор
	if err := p.lib.Remove(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка удаления трека: %v", err)
	}
	p.coord.HandleRemoval(ids[0])

	snap := p.coord.Snapshot()
	if snap.State != Idle {
		t.Errorf("Ожидалось состояние Idle, получено %s", snap.State)
	}
	if snap.ActiveTrackID != 0 {
		t.Errorf("Активного трека быть не должно, получено %d", snap.ActiveTrackID)
	}
	if p.handles.Live() != 0 {
		t.Errorf("Живых ссылок быть не должно, получено %d", p.handles.Live())
	}
	if _, err := p.lib.TrackByID(ids[0]); err == nil {
		t.Error("Трек не должен находиться в библиотеке после удаления")
	}
}

func TestRemovalOfInactiveTrackIgnored(t *testing.T) {
	p, ids := newTestPlayer(t, 2)
	ctx := context.Background()

	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}

	p.coord.HandleRemoval(ids[1])

	snap := p.coord.Snapshot()
	if snap.State != Playing || snap.ActiveTrackID != ids[0] {
		t.Errorf("Удаление неактивного трека не должно влиять на воспроизведение: %+v", snap)
	}
}

func TestSinkPlayRejectionFlipsIntent(t *testing.T) {
	p, ids := newTestPlayer(t, 1)

	// Выход отказывает в запуске (например, платформа запрещает autoplay)
	p.sink.playErr = errors.New("autoplay запрещен")

	if err := p.coord.Select(context.Background(), ids[0]); err != nil {
		t.Fatalf("Отказ выхода не должен становиться ошибкой операции: %v", err)
	}

	snap := p.coord.Snapshot()
	if snap.IsPlaying() {
		t.Error("После отказа выхода намерение 'играет' должно быть сброшено")
	}
	if snap.State != Paused {
		t.Errorf("Ожидалось состояние Paused, получено %s", snap.State)
	}
	// Ссылка остается привязанной для повторной попытки
	if snap.ActiveTrackID != ids[0] || p.handles.Live() != 1 {
		t.Error("Активный трек и ссылка должны сохраниться для повторной попытки")
	}
}

func TestSeekUpdatesPositionImmediately(t *testing.T) {
	p, ids := newTestPlayer(t, 1)
	ctx := context.Background()

	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}

	target := 42 * time.Second
	if err := p.coord.Seek(target); err != nil {
		t.Fatalf("Ошибка перемотки: %v", err)
	}

	// Позиция обновляется сразу, не дожидаясь события от выхода
	if snap := p.coord.Snapshot(); snap.Position != target {
		t.Errorf("Ожидалась позиция %v, получено %v", target, snap.Position)
	}
	if p.sink.lastSeek != target {
		t.Errorf("Выход должен получить команду перемотки на %v, получено %v", target, p.sink.lastSeek)
	}
}

func TestSeekWithoutActiveTrack(t *testing.T) {
	p, _ := newTestPlayer(t, 1)

	if err := p.coord.Seek(10 * time.Second); err != nil {
		t.Errorf("Перемотка без активного трека должна быть no-op: %v", err)
	}
}

func TestSetVolumeClamped(t *testing.T) {
	p, _ := newTestPlayer(t, 1)

	p.coord.SetVolume(1.5)
	if v := p.coord.Volume(); v != 1.0 {
		t.Errorf("Громкость должна быть ограничена 1.0, получено %v", v)
	}

	p.coord.SetVolume(-0.5)
	if v := p.coord.Volume(); v != 0.0 {
		t.Errorf("Громкость должна быть ограничена 0.0, получено %v", v)
	}

	p.coord.SetVolume(0.7)
	if v := p.coord.Volume(); v != 0.7 {
		t.Errorf("Ожидалась громкость 0.7, получено %v", v)
	}
}

func TestTogglePlayPauseWithoutTrack(t *testing.T) {
	p, _ := newTestPlayer(t, 1)

	// Переключение без активного трека ничего не делает
	p.coord.TogglePlayPause()

	if snap := p.coord.Snapshot(); snap.State != Idle {
		t.Errorf("Ожидалось состояние Idle, получено %s", snap.State)
	}
}

func TestProgressEventsUpdateSnapshot(t *testing.T) {
	p, ids := newTestPlayer(t, 1)
	ctx := context.Background()

	if err := p.coord.Select(ctx, ids[0]); err != nil {
		t.Fatalf("Ошибка выбора трека: %v", err)
	}

	p.sink.progressChan <- Progress{Position: 10 * time.Second, Duration: 90 * time.Second}

	waitFor(t, func() bool {
		snap := p.coord.Snapshot()
		return snap.Position == 10*time.Second && snap.Duration == 90*time.Second
	}, "Снимок должен отражать позицию и длительность, сообщенные выходом")
}

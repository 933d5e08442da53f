// Package importer содержит наблюдатель за каталогом импорта: аудио файлы,
// появившиеся в каталоге, добавляются в библиотеку и убираются из каталога.
package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/hazadus/go-phono/internal/library"
	"github.com/hazadus/go-phono/internal/store"
)

// settleDelay — пауза между появлением файла и импортом, чтобы не читать
// файл, который еще дописывается
const settleDelay = 500 * time.Millisecond

// Watcher наблюдает за каталогом импорта
type Watcher struct {
	library *library.Library
	dir     string
	logger  *zap.Logger

	// Канал уведомлений об импортированных треках (для TUI и тестов)
	addedChan chan store.Record
}

// NewWatcher создает наблюдатель для каталога
func NewWatcher(lib *library.Library, dir string, logger *zap.Logger) *Watcher {
	return &Watcher{
		library:   lib,
		dir:       dir,
		logger:    logger,
		addedChan: make(chan store.Record, 8),
	}
}

// Added возвращает канал уведомлений об импортированных треках
func (w *Watcher) Added() <-chan store.Record {
	return w.addedChan
}

// Run запускает цикл наблюдения; блокируется до отмены контекста
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}
	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	// Подхватываем файлы, лежавшие в каталоге до запуска
	w.importExisting(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !isAudioFile(event.Name) {
				continue
			}
			// Даем файлу дозаписаться перед импортом
			time.Sleep(settleDelay)
			w.importFile(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("ошибка наблюдателя каталога", zap.Error(err))
		}
	}
}

// importExisting импортирует файлы, уже лежащие в каталоге
func (w *Watcher) importExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("ошибка чтения каталога импорта", zap.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !isAudioFile(entry.Name()) {
			continue
		}
		w.importFile(ctx, filepath.Join(w.dir, entry.Name()))
	}
}

// importFile добавляет файл в библиотеку и убирает его из каталога импорта
func (w *Watcher) importFile(ctx context.Context, path string) {
	rec, err := w.library.Ingest(ctx, path)
	if err != nil {
		w.logger.Warn("ошибка импорта файла",
			zap.String("path", path),
			zap.Error(err))
		return
	}

	// Файл скопирован в хранилище; исходник больше не нужен
	if err := os.Remove(path); err != nil {
		w.logger.Warn("ошибка удаления импортированного файла",
			zap.String("path", path),
			zap.Error(err))
	}

	select {
	case w.addedChan <- rec:
	default:
	}
}

// isAudioFile проверяет расширение файла
func isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".mp3"
}

// Package library содержит состояние библиотеки в памяти — авторитетную проекцию
// хранилища. Все мутации проходят через этот слой, поэтому память и хранилище
// не расходятся дольше, чем на одну операцию.
package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/hazadus/go-phono/internal/metadata"
	"github.com/hazadus/go-phono/internal/store"
)

// NotFoundError означает, что трека с запрошенным ID нет в памяти библиотеки.
// Проверка выполняется до обращения к хранилищу.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("трека с ID %d не найдено", e.ID)
}

// Patch описывает изменения трека. Нулевой указатель означает
// «поле не трогать».
type Patch struct {
	Name      *string
	Artist    *string
	Album     *string
	CoverPath *string // Путь к файлу новой обложки
	VideoPath *string // Путь к файлу фонового видео
}

// Library управляет треками приложения поверх хранилища
type Library struct {
	store     *store.Store
	extractor *metadata.Extractor
	logger    *zap.Logger

	// Мьютекс удерживается на время всей мутации, включая запись в хранилище:
	// мутации сериализованы, устаревшая перезапись исключена
	mutex  sync.Mutex
	tracks []store.Record
}

// New создает новую библиотеку поверх открытого хранилища
func New(s *store.Store, logger *zap.Logger) *Library {
	return &Library{
		store:     s,
		extractor: metadata.NewExtractor(),
		logger:    logger,
	}
}

// Load загружает все записи из хранилища, заменяя состояние в памяти.
// Вызывается один раз при старте приложения.
func (l *Library) Load(ctx context.Context) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	records, err := l.store.GetAll(ctx)
	if err != nil {
		return err
	}
	l.tracks = records
	return nil
}

// Tracks возвращает снимок списка треков в порядке отображения
func (l *Library) Tracks() []store.Record {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	snapshot := make([]store.Record, len(l.tracks))
	copy(snapshot, l.tracks)
	return snapshot
}

// Count возвращает количество треков в библиотеке
func (l *Library) Count() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.tracks)
}

// TrackByID возвращает трек по ID
func (l *Library) TrackByID(id int) (store.Record, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	rec, ok := lo.Find(l.tracks, func(t store.Record) bool { return t.ID == id })
	if !ok {
		return store.Record{}, &NotFoundError{ID: id}
	}
	return rec, nil
}

// IndexOf возвращает позицию трека в текущем порядке отображения, либо -1
func (l *Library) IndexOf(id int) int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	_, idx, _ := lo.FindIndexOf(l.tracks, func(t store.Record) bool { return t.ID == id })
	return idx
}

// Ingest добавляет аудио файл в библиотеку: извлекает метаданные, сохраняет
// запись с блобом в хранилище и только после успешной записи добавляет
// запись в память. При ошибке память остается неизменной.
func (l *Library) Ingest(ctx context.Context, filePath string) (store.Record, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	info := l.extractor.Extract(filePath)

	audio, err := os.Open(filePath)
	if err != nil {
		return store.Record{}, fmt.Errorf("ошибка открытия файла %s: %w", filePath, err)
	}
	defer audio.Close()

	rec, err := l.store.Insert(ctx, store.Record{
		Name:   info.Name,
		Artist: info.Artist,
		Album:  info.Album,
		Length: info.Length,
	}, audio)
	if err != nil {
		return store.Record{}, err
	}

	l.tracks = append(l.tracks, rec)
	l.logger.Info("трек добавлен в библиотеку",
		zap.Int("id", rec.ID),
		zap.String("name", rec.Name))
	return rec, nil
}

// IngestBatch добавляет несколько файлов. Каждый файл — независимая операция:
// ошибка одного не откатывает остальные. Возвращаются успешно добавленные
// записи и объединенная ошибка по неудавшимся файлам.
func (l *Library) IngestBatch(ctx context.Context, paths []string) ([]store.Record, error) {
	var added []store.Record
	var errs []error

	for _, path := range paths {
		rec, err := l.Ingest(ctx, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		added = append(added, rec)
	}

	return added, errors.Join(errs...)
}

// ApplyEdit накладывает изменения на трек, сохраняя нетронутые поля,
// записывает полную обновленную запись в хранилище и затем заменяет
// запись в памяти.
func (l *Library) ApplyEdit(ctx context.Context, id int, patch Patch) (store.Record, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	pos := -1
	for i := range l.tracks {
		if l.tracks[i].ID == id {
			pos = i
			break
		}
	}
	if pos == -1 {
		return store.Record{}, &NotFoundError{ID: id}
	}

	// Слияние: начинаем с текущей записи, меняем только заданные поля
	merged := l.tracks[pos]
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Artist != nil {
		merged.Artist = *patch.Artist
	}
	if patch.Album != nil {
		merged.Album = *patch.Album
	}

	if patch.CoverPath != nil {
		name, err := l.putBlobFromFile(ctx, id, store.KindCover, *patch.CoverPath)
		if err != nil {
			return store.Record{}, err
		}
		merged.CoverFile = name
	}
	if patch.VideoPath != nil {
		name, err := l.putBlobFromFile(ctx, id, store.KindVideo, *patch.VideoPath)
		if err != nil {
			return store.Record{}, err
		}
		merged.VideoFile = name
	}

	if err := l.store.Update(ctx, merged); err != nil {
		return store.Record{}, err
	}

	l.tracks[pos] = merged
	return merged, nil
}

// Remove удаляет трек из хранилища и затем из памяти. Координатор
// воспроизведения уведомляется отдельно вызывающей стороной.
func (l *Library) Remove(ctx context.Context, id int) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if err := l.store.Delete(ctx, id); err != nil {
		return err
	}

	l.tracks = lo.Reject(l.tracks, func(t store.Record, _ int) bool { return t.ID == id })
	l.logger.Info("трек удален из библиотеки", zap.Int("id", id))
	return nil
}

// Blob возвращает ссылку на бинарное содержимое трека
func (l *Library) Blob(rec store.Record, kind store.BlobKind) (store.Blob, bool) {
	return l.store.Blob(rec, kind)
}

// putBlobFromFile копирует файл с диска в хранилище как блоб трека
func (l *Library) putBlobFromFile(ctx context.Context, id int, kind store.BlobKind, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("ошибка открытия файла %s: %w", path, err)
	}
	defer file.Close()

	return l.store.PutBlob(ctx, id, kind, file)
}

// Package store содержит долговременное хранилище треков: YAML-индекс с метаданными
// и бинарные блобы (аудио, обложка, видео) в виде файлов внутри каталога библиотеки.
package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	indexFileName = "index.yaml"
	blobsDirName  = "blobs"
)

// BlobKind определяет тип бинарного содержимого трека
type BlobKind string

// Виды блобов, хранимых для одного трека
const (
	KindAudio BlobKind = "audio"
	KindCover BlobKind = "cover"
	KindVideo BlobKind = "video"
)

// Record представляет запись трека в хранилище
type Record struct {
	ID        int    `yaml:"id"`
	Name      string `yaml:"name"`
	Artist    string `yaml:"artist,omitempty"`
	Album     string `yaml:"album,omitempty"`
	Length    int    `yaml:"length,omitempty"`    // Длина трека в секундах
	FileSize  int64  `yaml:"file_size,omitempty"` // Размер аудио файла в байтах
	AudioFile string `yaml:"audio_file"`
	CoverFile string `yaml:"cover_file,omitempty"`
	VideoFile string `yaml:"video_file,omitempty"`
}

// Blob представляет ссылку на бинарное содержимое в хранилище
type Blob struct {
	Path string
	Size int64
}

// StorageError оборачивает любую ошибку долговременного хранилища
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ошибка хранилища (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// index описывает содержимое индексного файла. NextID — счетчик
// выдачи идентификаторов; он только растет, поэтому ID удаленного
// трека никогда не достается новому.
type index struct {
	NextID int      `yaml:"next_id,omitempty"`
	Tracks []Record `yaml:"tracks"`
}

// Store управляет каталогом библиотеки. Открывается один раз при старте
// приложения и переиспользуется всеми операциями.
type Store struct {
	dir   string
	mutex sync.Mutex
}

// Open открывает (при необходимости создавая) каталог библиотеки
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, blobsDirName), 0755); err != nil {
		return nil, storageErr("open", err)
	}
	return &Store{dir: dir}, nil
}

// Dir возвращает путь к каталогу библиотеки
func (s *Store) Dir() string {
	return s.dir
}

// Insert сохраняет новый трек: записывает аудио блоб, присваивает свежий ID
// и добавляет запись в индекс. Необязательные поля остаются пустыми.
func (s *Store) Insert(ctx context.Context, rec Record, audio io.Reader) (Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return Record{}, storageErr("insert", err)
	}

	idx, err := s.loadIndex()
	if err != nil {
		return Record{}, storageErr("insert", err)
	}

	// Присваиваем ID из персистентного счетчика: удаление записи с
	// максимальным ID не возвращает его в оборот. Для индексов без
	// счетчика (старый формат) поднимаем его по существующим записям.
	id := idx.NextID
	if id == 0 {
		id = 1
	}
	for _, t := range idx.Tracks {
		if t.ID >= id {
			id = t.ID + 1
		}
	}
	rec.ID = id
	idx.NextID = id + 1
	rec.AudioFile = blobFileName(rec.ID, KindAudio)
	rec.CoverFile = ""
	rec.VideoFile = ""

	// Сначала блоб, затем индекс: упавшая запись блоба не оставляет
	// в индексе записи без содержимого
	size, err := s.writeBlob(rec.AudioFile, audio)
	if err != nil {
		return Record{}, storageErr("insert", err)
	}
	rec.FileSize = size

	idx.Tracks = append(idx.Tracks, rec)
	if err := s.saveIndex(idx); err != nil {
		// Убираем осиротевший блоб, чтобы не копить мусор в каталоге
		_ = os.Remove(filepath.Join(s.dir, blobsDirName, rec.AudioFile))
		return Record{}, storageErr("insert", err)
	}

	return rec, nil
}

// GetAll возвращает все записи в порядке их добавления
func (s *Store) GetAll(ctx context.Context) ([]Record, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, storageErr("get_all", err)
	}

	idx, err := s.loadIndex()
	if err != nil {
		return nil, storageErr("get_all", err)
	}
	return idx.Tracks, nil
}

// Update полностью заменяет запись с совпадающим ID. Если записи с таким ID
// нет, она добавляется (семантика put, как в key-value хранилище).
func (s *Store) Update(ctx context.Context, rec Record) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return storageErr("update", err)
	}

	idx, err := s.loadIndex()
	if err != nil {
		return storageErr("update", err)
	}

	found := false
	for i := range idx.Tracks {
		if idx.Tracks[i].ID == rec.ID {
			idx.Tracks[i] = rec
			found = true
			break
		}
	}
	if !found {
		idx.Tracks = append(idx.Tracks, rec)
	}

	if err := s.saveIndex(idx); err != nil {
		return storageErr("update", err)
	}
	return nil
}

// Delete удаляет запись и её блобы. Отсутствующий ID не считается ошибкой.
func (s *Store) Delete(ctx context.Context, id int) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return storageErr("delete", err)
	}

	idx, err := s.loadIndex()
	if err != nil {
		return storageErr("delete", err)
	}

	kept := idx.Tracks[:0]
	for _, t := range idx.Tracks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	idx.Tracks = kept

	if err := s.saveIndex(idx); err != nil {
		return storageErr("delete", err)
	}

	// Блобы удаляем после индекса; открытые дескрипторы (активный handle)
	// продолжают читать содержимое до своего закрытия
	for _, kind := range []BlobKind{KindAudio, KindCover, KindVideo} {
		err := os.Remove(filepath.Join(s.dir, blobsDirName, blobFileName(id, kind)))
		if err != nil && !os.IsNotExist(err) {
			return storageErr("delete", err)
		}
	}
	return nil
}

// PutBlob записывает (или заменяет) необязательный блоб трека и возвращает
// имя файла для сохранения в записи. Аудио блоб неизменяем после создания.
func (s *Store) PutBlob(ctx context.Context, id int, kind BlobKind, r io.Reader) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := ctx.Err(); err != nil {
		return "", storageErr("put_blob", err)
	}
	if kind == KindAudio {
		return "", storageErr("put_blob", fmt.Errorf("аудио содержимое трека неизменяемо"))
	}

	name := blobFileName(id, kind)
	if _, err := s.writeBlob(name, r); err != nil {
		return "", storageErr("put_blob", err)
	}
	return name, nil
}

// Blob возвращает ссылку на бинарное содержимое записи
func (s *Store) Blob(rec Record, kind BlobKind) (Blob, bool) {
	var name string
	switch kind {
	case KindAudio:
		name = rec.AudioFile
	case KindCover:
		name = rec.CoverFile
	case KindVideo:
		name = rec.VideoFile
	}
	if name == "" {
		return Blob{}, false
	}

	path := filepath.Join(s.dir, blobsDirName, name)
	info, err := os.Stat(path)
	if err != nil {
		return Blob{}, false
	}
	return Blob{Path: path, Size: info.Size()}, true
}

// loadIndex читает индексный файл; отсутствующий или пустой файл означает
// пустую библиотеку
func (s *Store) loadIndex() (*index, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, indexFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return &index{}, nil
		}
		return nil, fmt.Errorf("ошибка чтения индекса: %w", err)
	}
	if len(data) == 0 {
		return &index{}, nil
	}

	idx := &index{}
	if err := yaml.Unmarshal(data, idx); err != nil {
		return nil, fmt.Errorf("ошибка разбора индекса: %w", err)
	}
	return idx, nil
}

// saveIndex атомарно переписывает индексный файл (запись во временный файл
// и переименование), чтобы частичная запись не была наблюдаема
func (s *Store) saveIndex(idx *index) error {
	data, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("ошибка сериализации индекса: %w", err)
	}

	path := filepath.Join(s.dir, indexFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи индекса: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("ошибка замены индекса: %w", err)
	}
	return nil
}

// writeBlob атомарно записывает блоб в каталог blobs
func (s *Store) writeBlob(name string, r io.Reader) (int64, error) {
	path := filepath.Join(s.dir, blobsDirName, name)
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания файла блоба: %w", err)
	}

	size, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("ошибка записи блоба: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("ошибка закрытия файла блоба: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return 0, fmt.Errorf("ошибка замены файла блоба: %w", err)
	}
	return size, nil
}

func blobFileName(id int, kind BlobKind) string {
	return fmt.Sprintf("%d.%s", id, kind)
}

// Package metadata предоставляет функционал для извлечения метаданных из аудио файлов
package metadata

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/gopxl/beep/mp3"
)

// Info хранит извлеченные метаданные трека
type Info struct {
	Name     string // Отображаемое имя (название трека или имя файла)
	Artist   string
	Album    string
	Length   int // Длительность в секундах
	FileSize int64
}

// Extractor извлекает метаданные из аудио файлов
type Extractor struct{}

// NewExtractor создает новый экстрактор метаданных
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract извлекает метаданные из файла. Извлечение — лучшее из возможного:
// файл без тегов или в неизвестном формате дает имя из имени файла и нулевую
// длительность, но не ошибку.
func (e *Extractor) Extract(filePath string) Info {
	info := Info{
		Name: fileNameWithoutExt(filePath),
	}

	if stat, err := os.Stat(filePath); err == nil {
		info.FileSize = stat.Size()
	}

	file, err := os.Open(filePath)
	if err != nil {
		return info
	}
	defer file.Close()

	if meta, err := tag.ReadFrom(file); err == nil {
		if title := meta.Title(); title != "" {
			info.Name = title
		}
		info.Artist = meta.Artist()
		info.Album = meta.Album()
	}

	if duration, err := e.duration(filePath); err == nil {
		info.Length = int(duration / time.Second)
	}

	return info
}

// duration получает длительность MP3 файла через декодер
func (e *Extractor) duration(filePath string) (time.Duration, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	streamer, format, err := mp3.Decode(file)
	if err != nil {
		return 0, err
	}
	defer streamer.Close()

	return format.SampleRate.D(streamer.Len()), nil
}

// fileNameWithoutExt возвращает имя файла без расширения
func fileNameWithoutExt(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

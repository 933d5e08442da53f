// Package export предоставляет выгрузку аудио содержимого трека из локального
// хранилища во внешнее S3 хранилище. Это разовая копия, не синхронизация.
package export

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/hazadus/go-phono/internal/handle"
	"github.com/hazadus/go-phono/internal/library"
	"github.com/hazadus/go-phono/internal/s3"
	"github.com/hazadus/go-phono/internal/store"
)

// Service управляет выгрузкой треков
type Service struct {
	uploader *s3.Uploader
	library  *library.Library
	handles  *handle.Manager
}

// NewService создает новый сервис выгрузки
func NewService(uploader *s3.Uploader, lib *library.Library, handles *handle.Manager) *Service {
	return &Service{
		uploader: uploader,
		library:  lib,
		handles:  handles,
	}
}

// Result содержит результат выгрузки
type Result struct {
	URL    string
	Key    string
	Record store.Record
}

// Export выгружает аудио содержимое трека в S3. Содержимое читается через
// эфемерную ссылку, которая освобождается по завершении.
func (s *Service) Export(ctx context.Context, id int, progressCallback func(int64)) (*Result, error) {
	rec, err := s.library.TrackByID(id)
	if err != nil {
		return nil, err
	}

	blob, ok := s.library.Blob(rec, store.KindAudio)
	if !ok {
		return nil, fmt.Errorf("у трека %d отсутствует аудио содержимое", id)
	}

	h, err := s.handles.Materialize(blob)
	if err != nil {
		return nil, fmt.Errorf("ошибка материализации ссылки: %w", err)
	}
	defer h.Release()

	var reader io.Reader = h
	if progressCallback != nil {
		reader = &ProgressReader{
			Reader:     h,
			Size:       blob.Size,
			OnProgress: progressCallback,
		}
	}

	key := ExportKey(rec)
	url, err := s.uploader.UploadFile(ctx, reader, key)
	if err != nil {
		return nil, fmt.Errorf("ошибка выгрузки в S3: %w", err)
	}

	return &Result{URL: url, Key: key, Record: rec}, nil
}

// ProgressReader структура для отслеживания прогресса чтения
type ProgressReader struct {
	io.Reader
	Size       int64
	OnProgress func(int64)
	bytesRead  int64
}

func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.Reader.Read(p)
	pr.bytesRead += int64(n)
	if pr.OnProgress != nil {
		pr.OnProgress(pr.bytesRead)
	}
	return n, err
}

// keyRe вырезает символы, недопустимые в ключе объекта
var keyRe = regexp.MustCompile(`[^\w\-. ]`)

// ExportKey формирует ключ объекта в S3 из записи трека
func ExportKey(rec store.Record) string {
	name := keyRe.ReplaceAllString(rec.Name, "_")
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("track-%d", rec.ID)
	}
	return name + ".mp3"
}

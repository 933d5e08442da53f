package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-phono/internal/export"
	"github.com/hazadus/go-phono/internal/s3"
	"github.com/hazadus/go-phono/internal/utils"
)

// createExportCommand создает команду export с привязкой к экземпляру приложения
func (app *Application) createExportCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "export [id]",
		Short: "Export a track's audio to S3 storage",
		Long:  `Upload a track's audio content from the library to S3 storage with progress tracking.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("неверный ID трека: %s", args[0])
			}

			// Создаем контекст с таймаутом для выгрузки (10 минут)
			exportCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()
			return app.exportTrack(exportCtx, id)
		},
	}
}

// exportTrack выгружает аудио содержимое трека в S3 с отображением прогресса
func (app *Application) exportTrack(ctx context.Context, id int) error {
	track, err := app.Library.TrackByID(id)
	if err != nil {
		return fmt.Errorf("ошибка поиска трека: %w", err)
	}

	// Создаем S3 uploader
	s3Config := &s3.Config{
		Region:     app.Config.AwsRegion,
		AccessKey:  app.Config.AwsAccessKey,
		SecretKey:  app.Config.AwsSecretKey,
		Endpoint:   app.Config.AwsEndpoint,
		BucketName: app.Config.AwsBucketName,
	}

	s3Uploader, err := s3.NewUploader(s3Config)
	if err != nil {
		return fmt.Errorf("ошибка создания S3 uploader: %w", err)
	}

	// Создаем сервис выгрузки
	exportService := export.NewService(s3Uploader, app.Library, app.Handles)

	// Отображаем информацию о выгрузке
	fmt.Printf("📤 Выгружаем трек в S3:\n")
	fmt.Printf("   Трек: %s - %s\n", track.Artist, track.Name)
	fmt.Printf("   Размер: %s\n", utils.FormatFileSize(track.FileSize))
	fmt.Printf("   Бакет: %s\n", app.Config.AwsBucketName)
	fmt.Println()

	// Создаем канал для отслеживания прогресса
	progressChan := make(chan int64)

	// Запускаем горутину для отображения прогресса
	go func() {
		startTime := time.Now()

		for {
			select {
			case progress, ok := <-progressChan:
				if !ok {
					return // Канал закрыт
				}
				if progress > 0 && track.FileSize > 0 {
					elapsed := time.Since(startTime)
					percentage := float64(progress) / float64(track.FileSize) * 100

					// Вычисляем скорость выгрузки
					speed := float64(progress) / elapsed.Seconds()

					fmt.Printf("\r📊 Прогресс: %.1f%% | Скорость: %s/s | Прошло: %s",
						percentage,
						utils.FormatFileSize(int64(speed)),
						utils.FormatDuration(elapsed))
				}
			case <-ctx.Done():
				fmt.Printf("\n🚫 Выгрузка отменена\n")
				return
			}
		}
	}()

	// Выполняем выгрузку с контекстом
	result, err := exportService.Export(ctx, id, func(bytesRead int64) {
		progressChan <- bytesRead
	})

	// Закрываем канал прогресса
	close(progressChan)

	if err != nil {
		return fmt.Errorf("ошибка выгрузки трека: %w", err)
	}

	fmt.Printf("\n✅ Трек успешно выгружен в S3!\n")
	fmt.Printf("   URL: %s\n", result.URL)
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-phono/internal/playback"
	"github.com/hazadus/go-phono/internal/utils"
)

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [trackid]",
		Short: "Play a track by its ID",
		Long:  `Play a track from the library by its ID.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			trackID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("неверный ID трека: %s", args[0])
			}
			return app.playByID(ctx, trackID)
		},
	}
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

// readSingleChar читает одиночный символ без ожидания Enter
func readSingleChar() (byte, error) {
	buffer := make([]byte, 1)
	_, err := os.Stdin.Read(buffer)
	return buffer[0], err
}

func (app *Application) playByID(ctx context.Context, trackID int) error {
	track, err := app.Library.TrackByID(trackID)
	if err != nil {
		return fmt.Errorf("ошибка поиска трека: %w", err)
	}

	fmt.Printf("🎵 Сейчас играет:\n")
	fmt.Printf("   ID: %d\n", track.ID)
	fmt.Printf("   Исполнитель: %s\n", track.Artist)
	fmt.Printf("   Название: %s\n", track.Name)
	fmt.Printf("   Альбом: %s\n", track.Album)
	if track.Length > 0 {
		duration := utils.FormatDuration(time.Duration(track.Length) * time.Second)
		fmt.Printf("   Продолжительность: %s\n", duration)
	}
	fmt.Println()

	// Запускаем воспроизведение
	if err := app.Coordinator.Select(ctx, trackID); err != nil {
		return fmt.Errorf("ошибка запуска воспроизведения: %w", err)
	}

	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] - пауза/воспроизведение\n")
	fmt.Printf("   [n] - следующий трек, [b] - предыдущий\n")
	fmt.Printf("   [+/-] - громкость\n")
	fmt.Printf("   [q] или [Ctrl+C] - остановить и выйти\n")
	fmt.Println()

	// Включаем raw режим для чтения одиночных клавиш
	enableRawMode()
	defer disableRawMode()

	quitChan := make(chan struct{})

	// Запускаем горутину для обработки клавиш
	go func() {
		for {
			char, err := readSingleChar()
			if err != nil {
				continue
			}

			switch char {
			case ' ', '\n', '\r':
				app.Coordinator.TogglePlayPause()
			case 'n':
				if err := app.Coordinator.Advance(ctx, +1); err != nil {
					fmt.Printf("\n❌ Ошибка перехода: %v\n", err)
				}
			case 'b':
				if err := app.Coordinator.Advance(ctx, -1); err != nil {
					fmt.Printf("\n❌ Ошибка перехода: %v\n", err)
				}
			case '+', '=':
				app.Coordinator.SetVolume(app.Coordinator.Volume() + 0.05)
			case '-':
				app.Coordinator.SetVolume(app.Coordinator.Volume() - 0.05)
			case 'q':
				close(quitChan)
				return
			}
		}
	}()

	// Главный цикл обработки событий
	for {
		select {
		case snapshot := <-app.Coordinator.Updates():
			displayProgress(snapshot)
		case <-quitChan:
			fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
			return nil
		case <-ctx.Done():
			fmt.Println("\n🚫 Операция отменена")
			return nil
		}
	}
}

// displayProgress отображает прогресс воспроизведения
func displayProgress(snapshot playback.Snapshot) {
	// Определяем процент завершения
	var progress string
	if snapshot.Duration > 0 {
		percent := float64(snapshot.Position) / float64(snapshot.Duration) * 100
		progress = fmt.Sprintf("%.1f%%", percent)
	} else {
		progress = "??%"
	}

	// Выбираем иконку статуса
	statusIcon := "▶️"
	if !snapshot.IsPlaying() {
		statusIcon = "⏸️"
	}

	fmt.Printf("\r%s  %s | %s / %s | %s - %s | 🔊 %d%%  ",
		statusIcon,
		progress,
		utils.FormatDuration(snapshot.Position),
		utils.FormatDuration(snapshot.Duration),
		snapshot.Track.Artist,
		snapshot.Track.Name,
		int(snapshot.Volume*100))
}

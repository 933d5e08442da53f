package tracklist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hazadus/go-phono/internal/library"
	"github.com/hazadus/go-phono/internal/store"
)

// newTestLibrary создает библиотеку с двумя треками
func newTestLibrary(t *testing.T) *library.Library {
	t.Helper()

	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Ошибка открытия хранилища: %v", err)
	}

	lib := library.New(s, zap.NewNop())
	if err := lib.Load(context.Background()); err != nil {
		t.Fatalf("Ошибка загрузки библиотеки: %v", err)
	}

	srcDir := t.TempDir()
	for _, name := range []string{"first.mp3", "second.mp3"} {
		path := filepath.Join(srcDir, name)
		if err := os.WriteFile(path, []byte("аудио содержимое"), 0644); err != nil {
			t.Fatalf("Ошибка записи файла: %v", err)
		}
		if _, err := lib.Ingest(context.Background(), path); err != nil {
			t.Fatalf("Ошибка добавления трека: %v", err)
		}
	}

	return lib
}

func TestNewModel(t *testing.T) {
	lib := newTestLibrary(t)

	model := NewModel(lib, func(ctx context.Context, id int) error {
		return lib.Remove(ctx, id)
	})

	// Проверяем, что модель создалась корректно
	if model == nil {
		t.Fatal("NewModel returned nil")
	}

	if model.list.Items() == nil {
		t.Fatal("list items is nil")
	}

	// Проверяем количество элементов в списке
	if len(model.list.Items()) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(model.list.Items()))
	}
}

func TestRefreshDataAfterRemove(t *testing.T) {
	lib := newTestLibrary(t)

	model := NewModel(lib, func(ctx context.Context, id int) error {
		return lib.Remove(ctx, id)
	})

	tracks := lib.Tracks()
	if err := lib.Remove(context.Background(), tracks[0].ID); err != nil {
		t.Fatalf("Ошибка удаления трека: %v", err)
	}

	model.RefreshData()

	if len(model.list.Items()) != 1 {
		t.Fatalf("Expected 1 item after removal, got %d", len(model.list.Items()))
	}
}

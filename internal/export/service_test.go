package export

import (
	"strings"
	"testing"

	"github.com/hazadus/go-phono/internal/store"
)

func TestExportKey(t *testing.T) {
	cases := []struct {
		rec      store.Record
		expected string
	}{
		{store.Record{ID: 1, Name: "My Song"}, "My Song.mp3"},
		{store.Record{ID: 2, Name: "weird/name:here"}, "weird_name_here.mp3"},
		{store.Record{ID: 3, Name: ""}, "track-3.mp3"},
	}

	for _, c := range cases {
		if got := ExportKey(c.rec); got != c.expected {
			t.Errorf("ExportKey(%q): ожидалось %s, получено %s", c.rec.Name, c.expected, got)
		}
	}
}

func TestProgressReader(t *testing.T) {
	content := "0123456789"
	var lastReported int64

	pr := &ProgressReader{
		Reader: strings.NewReader(content),
		Size:   int64(len(content)),
		OnProgress: func(bytesRead int64) {
			lastReported = bytesRead
		},
	}

	buf := make([]byte, 4)
	if _, err := pr.Read(buf); err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if lastReported != 4 {
		t.Errorf("Ожидался прогресс 4, получено %d", lastReported)
	}

	if _, err := pr.Read(buf); err != nil {
		t.Fatalf("Ошибка чтения: %v", err)
	}
	if lastReported != 8 {
		t.Errorf("Ожидался прогресс 8, получено %d", lastReported)
	}
}

package player

import (
	"strings"
	"testing"
	"time"

	"github.com/hazadus/go-phono/internal/lyrics"
	"github.com/hazadus/go-phono/internal/playback"
	"github.com/hazadus/go-phono/internal/store"
)

func TestViewShowsTrackInfo(t *testing.T) {
	track := store.Record{
		ID:     1,
		Name:   "Test Track",
		Artist: "Test Artist",
		Album:  "Test Album",
	}

	model := NewModel(track, nil, nil)

	view := model.View()
	if !strings.Contains(view, "Test Track") {
		t.Error("Expected view to contain track name")
	}
	if !strings.Contains(view, "Test Artist") {
		t.Error("Expected view to contain artist name")
	}
}

func TestLyricsViewHighlightsActiveLine(t *testing.T) {
	model := NewModel(store.Record{ID: 1, Name: "Track"}, nil, nil)
	model.lyricsLines = []lyrics.Line{
		{Offset: 0, Text: "первая строка"},
		{Offset: 10, Text: "вторая строка"},
		{Offset: 20, Text: "третья строка"},
	}
	model.snapshot = playback.Snapshot{Position: 12 * time.Second}

	view := model.lyricsView()
	if !strings.Contains(view, "вторая строка") {
		t.Errorf("Ожидалась активная вторая строка, получено: %s", view)
	}
	if !strings.Contains(view, "третья строка") {
		t.Errorf("Ожидалась следующая третья строка, получено: %s", view)
	}
	if strings.Contains(view, "первая строка") {
		t.Errorf("Прошедшая строка не должна отображаться, получено: %s", view)
	}
}

func TestLyricsViewBeforeFirstLine(t *testing.T) {
	model := NewModel(store.Record{ID: 1, Name: "Track"}, nil, nil)
	model.lyricsLines = []lyrics.Line{
		{Offset: 5, Text: "первая строка"},
	}
	model.snapshot = playback.Snapshot{Position: time.Second}

	view := model.lyricsView()
	if strings.Contains(view, "первая строка") {
		t.Errorf("До первой метки строки не отображаются, получено: %s", view)
	}
}

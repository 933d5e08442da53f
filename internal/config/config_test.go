package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLoadConfigFromFile(t *testing.T) {
	// Создаем временный файл конфигурации
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	testConfig := Config{
		LibraryDir:     "/music/library",
		WatchDir:       "/music/incoming",
		LogFile:        "/var/log/phono.log",
		LyricsEndpoint: "https://lyrics.example.com/generate",
		Bluetooth:      true,
		AwsBucketName:  "test-bucket",
		AwsRegion:      "us-east-1",
	}

	data, err := yaml.Marshal(testConfig)
	if err != nil {
		t.Fatalf("Ошибка сериализации конфигурации: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		t.Fatalf("Ошибка записи файла конфигурации: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	if loaded.LibraryDir != testConfig.LibraryDir {
		t.Errorf("Ожидался LibraryDir: %s, получено: %s", testConfig.LibraryDir, loaded.LibraryDir)
	}
	if loaded.WatchDir != testConfig.WatchDir {
		t.Errorf("Ожидался WatchDir: %s, получено: %s", testConfig.WatchDir, loaded.WatchDir)
	}
	if loaded.LyricsEndpoint != testConfig.LyricsEndpoint {
		t.Errorf("Ожидался LyricsEndpoint: %s, получено: %s", testConfig.LyricsEndpoint, loaded.LyricsEndpoint)
	}
	if !loaded.Bluetooth {
		t.Error("Ожидался включенный Bluetooth")
	}
	if loaded.AwsBucketName != testConfig.AwsBucketName {
		t.Errorf("Ожидался AwsBucketName: %s, получено: %s", testConfig.AwsBucketName, loaded.AwsBucketName)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yaml")

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("Отсутствующий файл конфигурации не должен быть ошибкой: %v", err)
	}

	if loaded.LibraryDir == "" {
		t.Error("LibraryDir должен получить значение по умолчанию")
	}
	if loaded.LogFile == "" {
		t.Error("LogFile должен получить значение по умолчанию")
	}
}

func TestLoadConfigExpandsTilde(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	content := []byte("library_dir: ~/music\n")
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		t.Fatalf("Ошибка записи файла конфигурации: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, "music")
	if loaded.LibraryDir != expected {
		t.Errorf("Ожидался раскрытый путь %s, получено: %s", expected, loaded.LibraryDir)
	}
}

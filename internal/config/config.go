// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config структура для хранения конфигурации приложения
type Config struct {
	LibraryDir     string `yaml:"library_dir"`     // Каталог библиотеки (индекс и блобы)
	WatchDir       string `yaml:"watch_dir"`       // Каталог, из которого подхватываются новые файлы
	LogFile        string `yaml:"log_file"`        // Путь к файлу диагностического лога
	LyricsEndpoint string `yaml:"lyrics_endpoint"` // Адрес сервиса генерации текстов
	Bluetooth      bool   `yaml:"bluetooth"`       // Разрешить вывод через Bluetooth устройство
	AwsBucketName  string `yaml:"aws_bucket_name"`
	AwsAccessKey   string `yaml:"aws_access_key"`
	AwsSecretKey   string `yaml:"aws_secret_key"`
	AwsRegion      string `yaml:"aws_region"`
	AwsEndpoint    string `yaml:"aws_endpoint"`
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл — не ошибка: используются значения по умолчанию.
func LoadConfig(filePath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	path := expandTilde(filePath, home)

	config := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	// Устанавливаем значения по умолчанию, если они не заданы
	if config.LibraryDir == "" {
		config.LibraryDir = "~/.phono/library"
	}
	if config.LogFile == "" {
		config.LogFile = "~/.phono/phono.log"
	}

	// Раскрываем тильду в путях
	config.LibraryDir = expandTilde(config.LibraryDir, home)
	config.WatchDir = expandTilde(config.WatchDir, home)
	config.LogFile = expandTilde(config.LogFile, home)

	return config, nil
}

// expandTilde заменяет ведущую тильду на домашний каталог
func expandTilde(path, home string) string {
	return strings.Replace(path, "~", home, 1)
}

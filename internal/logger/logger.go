// Package logger настраивает диагностический лог приложения. Пользовательский
// вывод идет в терминал, а диагностика (ошибки хранилища, отказы аудио выхода)
// пишется в ротируемый файл, чтобы не мешать TUI.
package logger

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New создает логгер, пишущий JSON в ротируемый файл. Пустой путь дает
// логгер-заглушку (полезно в тестах и при отладке).
func New(outputPath string) (*zap.Logger, error) {
	if outputPath == "" {
		return zap.NewNop(), nil
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, err
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   outputPath,
		MaxSize:    10, // Мегабайты
		MaxBackups: 3,
		MaxAge:     30, // Дни
	})

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		fileWriter,
		zapcore.InfoLevel,
	)

	return zap.New(core, zap.AddCaller()), nil
}

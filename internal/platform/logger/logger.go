// Package logger настраивает структурное логирование приложения.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	gormlogger "gorm.io/gorm/logger"
)

// ParseLevel разбирает уровень логирования без учёта регистра.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// Setup создаёт JSON-логгер в w и делает его логгером по умолчанию.
func Setup(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	l := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(l)
	return l, nil
}

// GormLevel переводит уровень приложения в уровень логгера GORM.
// SQL-запросы попадают в лог только на debug.
func GormLevel(level string) gormlogger.LogLevel {
	lvl, _ := ParseLevel(level)
	switch {
	case lvl <= slog.LevelDebug:
		return gormlogger.Info
	case lvl <= slog.LevelWarn:
		return gormlogger.Warn
	default:
		return gormlogger.Error
	}
}

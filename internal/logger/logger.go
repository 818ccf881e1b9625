// Package logger настраивает общий структурированный логгер сервиса.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New создает логгер с отметками времени, пишущий в w (по умолчанию os.Stderr).
// Неизвестный уровень трактуется как info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{ReportTimestamp: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Component возвращает дочерний логгер с полем component.
func Component(l *log.Logger, name string) *log.Logger {
	return l.With("component", name)
}

// Discard логгер для тестов.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New reads LOG_LEVEL (default info) and LOG_FORMAT (json or text, default
// json). An unknown level falls back to info.
func New() *logrus.Logger {
	return Configure(logrus.New(), os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

func Configure(l *logrus.Logger, level, format string) *logrus.Logger {
	l.SetOutput(os.Stdout)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	}

	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil || level == "" {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

package logging

import (
	"io"
	"os"
	"strings"

	"todo-api/internal/config"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Production and LOG_FORMAT=json log JSON,
// anything else logs text.
func New(cfg *config.Config, out io.Writer) *logrus.Logger {
	if out == nil {
		out = os.Stdout
	}

	log := logrus.New()
	log.SetOutput(out)
	log.SetLevel(ParseLevel(cfg.Log.Level))

	if cfg.IsProduction() || strings.EqualFold(cfg.Log.Format, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return log
}

// ParseLevel falls back to info for unknown levels.
func ParseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// Package logging builds the structured logger shared by the server and its services.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// New returns a configured logrus.Logger writing JSON to stdout.
// An explicit level wins over the environment-derived default.
func New(env, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetLevel(parseLevel(env, level))
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	return log
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func parseLevel(env, level string) logrus.Level {
	if level != "" {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			return lvl
		}
	}
	if strings.ToLower(env) == "local" || strings.ToLower(env) == "dev" {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

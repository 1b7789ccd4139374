package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New creates a logger with the specified log level. Unknown levels fall
// back to info rather than failing startup.
func New(level string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)

	return logger
}

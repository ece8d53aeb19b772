package emulator

import (
	"github.com/sirupsen/logrus"
)

// NewLogger builds the emulator's structured logger: JSON-formatted
// logrus with the service identity attached to every entry.
func NewLogger(cfg *Config) *logrus.Entry {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "@timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	return logger.WithFields(logrus.Fields{
		"service.name": "featherd",
		"store":        cfg.Store,
	})
}

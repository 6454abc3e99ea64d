package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/config"
)

// Setup configures the logrus standard logger, which the rest of the
// process logs through, and returns it.
func Setup(cfg *config.Config) *logrus.Logger {
	logger := logrus.StandardLogger()
	configure(logger, cfg)
	return logger
}

// New builds a standalone logger with the same settings as Setup.
func New(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	configure(logger, cfg)
	return logger
}

func configure(logger *logrus.Logger, cfg *config.Config) {
	logger.SetOutput(os.Stdout)

	// Production emits JSON for the log shipper
	if cfg.Environment.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.WithField("log_level", cfg.LogLevel).Warn("unknown log level, falling back to info")
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

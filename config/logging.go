package config

import (
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds a logrus logger from LogConfig and also installs the same
// settings on the standard logrus logger used by package-level calls. Both
// share one writer: lumberjack must own its file alone.
func NewLogger(conf LogConfig) *log.Logger {
	out := output(conf)
	logger := log.New()
	configure(logger, out, conf)
	configure(log.StandardLogger(), out, conf)
	return logger
}

func output(conf LogConfig) io.Writer {
	if conf.File == "" {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   conf.File,
		MaxSize:    32, // megabytes
		MaxBackups: 2,
		MaxAge:     28, //days
		Compress:   true,
	}
}

func configure(logger *log.Logger, out io.Writer, conf LogConfig) {
	logger.SetOutput(out)
	logger.SetLevel(parseLevel(conf.Level))

	switch conf.Format {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	default:
		logger.SetFormatter(&log.TextFormatter{
			PadLevelText:    true,
			DisableColors:   conf.File != "",
			FullTimestamp:   true,
			TimestampFormat: time.DateTime,
		})
	}
}

func parseLevel(level string) log.Level {
	switch level {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes leveled log lines to stdout and, when a directory is configured, to a rotating file.
type Logger struct {
	*logrus.Logger
	file *lumberjack.Logger
}

// New creates a Logger. An empty dir disables the log file; an unknown level falls back to info.
func New(dir, level string) (*Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	logger := &Logger{Logger: l}
	if dir == "" {
		l.SetOutput(os.Stdout)
		return logger, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create logs folder failed: %w", err)
	}
	logger.file = &lumberjack.Logger{
		Filename:   filepath.Join(dir, "fuelbot.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	// Output to both file and console
	l.SetOutput(io.MultiWriter(os.Stdout, logger.file))
	return logger, nil
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}

// WithRun tags entries with the run they belong to.
func (l *Logger) WithRun(runID string) *logrus.Entry {
	return l.WithField("run_id", runID)
}

func (l *Logger) Close() {
	if l.file == nil {
		return
	}
	_ = l.file.Close()
}

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout, charmlog.InfoLevel)
)

func newLogger(w io.Writer, level charmlog.Level) *charmlog.Logger {
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "2006-01-02 15:04:05",
	})
}

// Init configures a logger that writes to stdout and a rotating file.
func Init(logPath, level string) (io.Closer, error) {
	if logPath == "" {
		return nil, fmt.Errorf("log path is empty")
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    25, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}

	l := newLogger(io.MultiWriter(os.Stdout, rotator), lvl)

	mu.Lock()
	logger = l
	mu.Unlock()

	l.Info("logging initialized", "path", logPath, "level", lvl)
	return rotator, nil
}

// ParseLevel maps a config string to a log level. Empty means info.
func ParseLevel(level string) (charmlog.Level, error) {
	if strings.TrimSpace(level) == "" {
		return charmlog.InfoLevel, nil
	}
	lvl, err := charmlog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return charmlog.InfoLevel, fmt.Errorf("invalid log level %q", level)
	}
	return lvl, nil
}

// SetOutput replaces the logger with one writing to w. Used by tests and the
// offline CLI commands.
func SetOutput(w io.Writer, level charmlog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w, level)
}

// L returns the process logger.
func L() *charmlog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

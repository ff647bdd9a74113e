package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kingrea/cyan-fleet-control/internal/config"
)

// FileName is the diagnostic log written under .cyanfleet/logs.
const FileName = "cyanfleet.log"

// Logger writes JSON lines to .cyanfleet/logs/cyanfleet.log so failures can be
// inspected after the TUI has taken over the terminal.
type Logger struct {
	zap  *zap.Logger
	path string
}

// New creates (or reuses) the log file for the current project directory.
func New(projectDir string, verbose bool) (*Logger, error) {
	logDir := filepath.Join(projectDir, config.StateDirName, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	path := filepath.Join(logDir, FileName)

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return &Logger{zap: logger, path: path}, nil
}

// Path returns the log file location.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Zap exposes the structured logger. A nil Logger yields a no-op logger.
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.zap == nil {
		return zap.NewNop()
	}
	return l.zap
}

// Close flushes buffered entries.
func (l *Logger) Close() error {
	if l == nil || l.zap == nil {
		return nil
	}
	// Sync on a regular file only fails for unsupported fds; nothing to report.
	_ = l.zap.Sync()
	return nil
}

// Infof logs at info level.
func (l *Logger) Infof(format string, args ...any) {
	if l == nil || l.zap == nil {
		return
	}
	l.zap.Sugar().Infof(trimNewline(format), args...)
}

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil || l.zap == nil {
		return
	}
	l.zap.Sugar().Warnf(trimNewline(format), args...)
}

// Errorf logs at error level.
func (l *Logger) Errorf(format string, args ...any) {
	if l == nil || l.zap == nil {
		return
	}
	l.zap.Sugar().Errorf(trimNewline(format), args...)
}

func trimNewline(format string) string {
	return strings.TrimRight(format, "\n")
}

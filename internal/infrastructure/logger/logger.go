// Package logger builds the zap-backed ports.Logger used by every component.
// Entries go as JSON lines to log/<timestamp>_<task>.log and, optionally, as
// console lines to stderr.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"autolike/internal/domain/ports"
)

type Config struct {
	// Task names the log file.
	Task  string
	Level string
	// Dir defaults to "log". An empty Dir with NoFile writes nowhere but the console.
	Dir     string
	NoFile  bool
	Console io.Writer
}

// New opens the log file and returns a logger writing to it.
func New(cfg Config) (ports.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	atom := zap.NewAtomicLevelAt(level)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var (
		cores []zapcore.Core
		file  *os.File
	)
	if !cfg.NoFile {
		file, err = openLogFile(cfg.Dir, cfg.Task)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), atom))
	}
	if cfg.Console != nil {
		consoleCfg := encCfg
		consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(cfg.Console), atom))
	}

	z := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return &Adapter{sugar: z.Sugar(), level: atom, file: file}, nil
}

// NewNop returns a logger that drops everything but still tracks its level.
func NewNop() ports.Logger {
	return &Adapter{sugar: zap.NewNop().Sugar(), level: zap.NewAtomicLevel()}
}

// ParseLevel accepts ERROR, WARN, INFO and DEBUG in any case.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel, nil
	case "INFO", "":
		return zapcore.InfoLevel, nil
	case "WARN", "WARNING":
		return zapcore.WarnLevel, nil
	case "ERROR":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

func openLogFile(dir, task string) (*os.File, error) {
	if dir == "" {
		dir = "log"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02_15-04-05"), sanitize(task))
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	return file, nil
}

// sanitize makes a task name safe for the file system.
func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "task"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}

package logger

import (
	"errors"
	"os"
	"syscall"

	"go.uber.org/zap"

	"autolike/internal/domain/ports"
)

var _ ports.Logger = (*Adapter)(nil)

// Adapter implements ports.Logger over a sugared zap logger. Loggers derived
// with With share the level and the file.
type Adapter struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
	file  *os.File
}

func (l *Adapter) Debug(msg string, args ...any) { l.sugar.Debugw(msg, args...) }

func (l *Adapter) Info(msg string, args ...any) { l.sugar.Infow(msg, args...) }

func (l *Adapter) Warn(msg string, args ...any) { l.sugar.Warnw(msg, args...) }

func (l *Adapter) Error(msg string, args ...any) { l.sugar.Errorw(msg, args...) }

func (l *Adapter) With(args ...any) ports.Logger {
	return &Adapter{sugar: l.sugar.With(args...), level: l.level}
}

// SetLevel changes the level of this logger and every logger derived from it.
func (l *Adapter) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.SetLevel(lvl)
	return nil
}

// Level returns the current level name.
func (l *Adapter) Level() string {
	return l.level.Level().CapitalString()
}

func (l *Adapter) Close() error {
	err := l.sugar.Sync()
	// Syncing a terminal fails on some platforms; that is not a write error.
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		err = nil
	}
	if l.file == nil {
		return err
	}
	return errors.Join(err, l.file.Close())
}

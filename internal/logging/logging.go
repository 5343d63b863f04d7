// Package logging builds the application logger: a console writer on stderr
// and, optionally, a rotating JSON log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file inside the log directory.
const FileName = "focusdeck.log"

// Options configure New.
type Options struct {
	Level      string
	Dir        string
	File       bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Console overrides stderr, mainly for tests.
	Console io.Writer
}

// Logger is the root logger plus the file it writes to, if any.
type Logger struct {
	zerolog.Logger
	file io.WriteCloser
}

// New creates the root logger. A log file that cannot be created is reported
// and logging continues on the console only.
func New(options Options) (*Logger, error) {
	level, err := ParseLevel(options.Level)
	if err != nil {
		return nil, err
	}

	console := options.Console
	if console == nil {
		console = consoleWriter()
	}

	logger := &Logger{}
	writer := console
	var fileErr error
	if options.File && options.Dir != "" {
		if err := os.MkdirAll(options.Dir, 0o750); err != nil {
			fileErr = fmt.Errorf("create log directory: %w", err)
		} else {
			logger.file = &lumberjack.Logger{
				Filename:   filepath.Join(options.Dir, FileName),
				MaxSize:    options.MaxSizeMB,
				MaxBackups: options.MaxBackups,
				MaxAge:     options.MaxAgeDays,
				Compress:   true,
			}
			writer = zerolog.MultiLevelWriter(console, logger.file)
		}
	}

	logger.Logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, fileErr
}

// Close closes the log file.
func (logger *Logger) Close() error {
	if logger == nil || logger.file == nil {
		return nil
	}
	return logger.file.Close()
}

// ParseLevel maps a level name to a zerolog level. Empty means info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("parse log level %q: %w", name, err)
	}
	return level, nil
}

func consoleWriter() io.Writer {
	if term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("NO_COLOR") == "" {
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return os.Stderr
}

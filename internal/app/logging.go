package app

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/nhle/bizdash/internal/model"
)

// NewLogger builds the process logger. With cfg.File set, logs go to a
// rotating file; otherwise a console writer on stderr is used. The
// returned closer releases the file and is never nil.
func NewLogger(cfg model.LogConfig, stderr io.Writer) (zerolog.Logger, io.Closer) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	console := func() zerolog.Logger {
		out := zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.Kitchen}
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}
	if cfg.File == "" {
		return console(), nopCloser{}
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o700); err != nil {
		l := console()
		l.Warn().Err(err).Str("file", cfg.File).Msg("log file unavailable, logging to stderr")
		return l, nopCloser{}
	}
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	l := zerolog.New(file).Level(level).With().Timestamp().Caller().Logger()
	return l, file
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

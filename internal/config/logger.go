package config

import (
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger zerolog.Logger

func init() {
	// Human-readable console output until the configuration is known
	logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: !IsTerminal(os.Stderr),
	}).With().Timestamp().Logger()
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// GetLogger returns the process logger.
func GetLogger() zerolog.Logger {
	return logger
}

// SetLogger replaces the process logger, e.g. to attach a run ID.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// ConfigureLogger applies the configured level and optional rotating log file.
// The returned closer flushes the log file, if any.
func ConfigureLogger(cfg *Config) io.Closer {
	level := zerolog.InfoLevel
	invalidLevel := ""
	if cfg.LogLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			level = parsedLevel
		} else {
			invalidLevel = cfg.LogLevel
		}
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !IsTerminal(os.Stderr)}
	var writer io.Writer = console
	var closer io.Closer = nopCloser{}

	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			logger.Warn().Err(err).Str("file", cfg.Log.File).Msg("Could not create log directory, logging to console only")
		} else {
			fileWriter := &lumberjack.Logger{
				Filename:   cfg.Log.File,
				MaxSize:    cfg.Log.MaxSizeMB,
				MaxBackups: cfg.Log.MaxBackups,
				MaxAge:     cfg.Log.MaxAgeDays,
				Compress:   cfg.Log.Compress,
			}
			writer = zerolog.MultiLevelWriter(console, fileWriter)
			closer = fileWriter
		}
	}

	logger = zerolog.New(writer).Level(level).With().Timestamp().Logger()
	if invalidLevel != "" {
		logger.Warn().Str("invalid_level", invalidLevel).Msg("Invalid log level, using default 'info'")
	}
	logger.Debug().Str("level", level.String()).Msg("Logging configured")
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

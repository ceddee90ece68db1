package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultMaxSizeMB  = 50
	DefaultMaxBackups = 5
	DefaultMaxAgeDays = 30
	DefaultCompress   = true

	timeFormat = "2006-01-02 15:04:05"
)

// Apply sets the global log level and writers. Logs always go to stderr;
// when logFilePath is set they are also written to a rotating file.
func Apply(level, logFilePath string) {
	applyLevel(level)
	log.Logger = zerolog.New(writer(os.Stderr, logFilePath)).With().Timestamp().Logger()
}

func applyLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func writer(console io.Writer, logFilePath string) io.Writer {
	consoleOutput := zerolog.ConsoleWriter{Out: console, TimeFormat: timeFormat}
	if logFilePath == "" {
		return consoleOutput
	}

	if err := ensureLogDir(logFilePath); err != nil {
		l := zerolog.New(consoleOutput).With().Timestamp().Logger()
		l.Error().Err(err).Str("path", logFilePath).Msg("Failed to prepare log directory; logging to console only")
		return consoleOutput
	}

	fileConsole := zerolog.ConsoleWriter{
		Out: &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    DefaultMaxSizeMB,
			MaxBackups: DefaultMaxBackups,
			MaxAge:     DefaultMaxAgeDays,
			Compress:   DefaultCompress,
		},
		TimeFormat: timeFormat,
		NoColor:    true,
	}

	return zerolog.MultiLevelWriter(consoleOutput, fileConsole)
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

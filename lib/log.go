package lib

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-colorable"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	LogTimeFormat = "2006-01-02T15:04:05.000"
)

// LogOptions controls where and how the global logger writes.
type LogOptions struct {
	Level    string
	Pretty   bool
	FilePath string
	// Console defaults to stderr so stdout stays reserved for command output.
	Console io.Writer
}

// SetupLogging configures the global zerolog logger. The returned closer releases
// the log file, if any.
func SetupLogging(opts LogOptions) (io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var writers []io.Writer
	if opts.Pretty {
		out := console
		if runtime.GOOS == "windows" && console == os.Stderr {
			out = colorable.NewColorableStderr()
		}
		writers = append(writers, zerolog.ConsoleWriter{Out: out, NoColor: false, TimeFormat: LogTimeFormat})
	} else {
		writers = append(writers, console)
	}

	var closer io.Closer = nopCloser{}
	if opts.FilePath != "" {
		logFile, err := os.OpenFile(opts.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
			return closer, fmt.Errorf("opening log file %s: %w", opts.FilePath, err)
		}
		writers = append(writers, logFile)
		closer = logFile
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

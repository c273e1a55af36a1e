package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a zerolog logger bound to one component name.
// Console lines look like "[Downloader] Found 12 images".
type Logger struct {
	*zerolog.Logger
	component string
}

// Options controls the process-wide log setup.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// Console receives the human readable output. Nil means stderr.
	Console io.Writer
	// DebugDir enables the rotating debug log file in that directory.
	DebugDir string
	// NoColor disables ANSI colors on the console.
	NoColor bool
}

var (
	mu       sync.RWMutex
	level    = zerolog.InfoLevel
	console  io.Writer
	noColor  bool
	debugLog *RotatingFile
)

// Init configures output shared by every logger created afterwards.
// It is safe to call more than once; a previously opened debug file is closed.
func Init(opts Options) error {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	if debugLog != nil {
		debugLog.Close()
		debugLog = nil
	}
	if opts.DebugDir != "" {
		f, err := OpenRotatingFile(opts.DebugDir, DebugLogFileName)
		if err != nil {
			return fmt.Errorf("failed to open debug log: %w", err)
		}
		debugLog = f
	}

	level = lvl
	console = opts.Console
	noColor = opts.NoColor
	return nil
}

// Close releases the debug log file, if any.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if debugLog != nil {
		debugLog.Close()
		debugLog = nil
	}
}

// DebugLogPath returns the path of the active debug log, or "" when disabled.
func DebugLogPath() string {
	mu.RLock()
	defer mu.RUnlock()
	if debugLog == nil {
		return ""
	}
	return debugLog.Path()
}

// ParseLevel maps a config string onto a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// New creates a logger for a specific component. Loggers may be created at
// package init; output settings from Init apply to them on every write.
func New(component string) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	l := zerolog.New(sink{component: component}).
		Level(zerolog.DebugLevel).
		With().Timestamp().Str("component", component).Logger()
	return &Logger{Logger: &l, component: component}
}

// Nop returns a logger that discards everything. Handy in tests.
func Nop() *Logger {
	l := zerolog.Nop()
	return &Logger{Logger: &l, component: "nop"}
}

// Component returns the name the logger was created with.
func (l *Logger) Component() string { return l.component }

func (l *Logger) Debugf(format string, v ...interface{}) { l.Debug().Msgf(format, v...) }
func (l *Logger) Infof(format string, v ...interface{})  { l.Info().Msgf(format, v...) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.Warn().Msgf(format, v...) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.Error().Msgf(format, v...) }

// sink routes one component's events: the console gets the events at or above
// the configured level, the debug file (when open) gets everything.
type sink struct {
	component string
}

func (s sink) Write(p []byte) (int, error) { return s.WriteLevel(zerolog.NoLevel, p) }

func (s sink) WriteLevel(lvl zerolog.Level, p []byte) (int, error) {
	mu.RLock()
	defer mu.RUnlock()

	if lvl >= level || lvl == zerolog.NoLevel {
		out := console
		if out == nil {
			out = os.Stderr
		}
		cw := zerolog.ConsoleWriter{
			Out:           out,
			NoColor:       noColor,
			TimeFormat:    "15:04:05",
			FieldsExclude: []string{"component"},
			FormatMessage: func(i interface{}) string {
				return fmt.Sprintf("[%s] %s", s.component, i)
			},
		}
		if _, err := cw.Write(p); err != nil {
			return 0, err
		}
	}
	if debugLog != nil {
		if _, err := debugLog.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

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

// Leveled logger shared by the guest post service.
// - package-level Debugf/Infof/Warnf/Errorf/Fatalf, Init(level)
// - zerolog underneath: console output by default, JSON when SetFormat("json")
// - With(component) for per-package entries

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
	asJSON bool
	level  Level = LevelInfo
	zl     zerolog.Logger
)

func init() {
	rebuild()
}

// rebuild recreates the zerolog instance from output/format/level. Caller holds mu or runs at init.
func rebuild() {
	var w io.Writer = output
	if !asJSON {
		w = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339, NoColor: true}
	}
	zl = zerolog.New(w).With().Timestamp().Logger().Level(toZerolog(level))
}

func toZerolog(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	case LevelFatal:
		return zerolog.FatalLevel
	}
	return zerolog.InfoLevel
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
	rebuild()
}

// SetOutput redirects log output. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	rebuild()
}

// SetFormat switches between "console" (default) and "json".
func SetFormat(f string) {
	mu.Lock()
	defer mu.Unlock()
	asJSON = strings.EqualFold(strings.TrimSpace(f), "json")
	rebuild()
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return zl
}

func Debugf(format string, v ...interface{}) {
	l := current()
	l.Debug().Msgf(format, v...)
}

func Infof(format string, v ...interface{}) {
	l := current()
	l.Info().Msgf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	l := current()
	l.Warn().Msgf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	l := current()
	l.Error().Msgf(format, v...)
}

// Fatalf logs regardless of level and exits.
func Fatalf(format string, v ...interface{}) {
	l := current()
	l.WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	os.Exit(1)
}

// Println kept for brief messages (maps to Info)
func Println(v ...interface{}) {
	l := current()
	l.Info().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	switch level {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}

// Entry is a component-scoped logger. It reads the global level and output at
// call time, so entries created before Init still honour it.
type Entry struct {
	component string
	fields    map[string]interface{}
}

// With returns an Entry tagged with the given component name.
func With(component string) *Entry {
	return &Entry{component: component}
}

// Field returns a copy of the entry carrying an extra key/value pair.
func (e *Entry) Field(key string, value interface{}) *Entry {
	f := make(map[string]interface{}, len(e.fields)+1)
	for k, v := range e.fields {
		f[k] = v
	}
	f[key] = value
	return &Entry{component: e.component, fields: f}
}

func (e *Entry) event(ev *zerolog.Event) *zerolog.Event {
	ev = ev.Str("component", e.component)
	if len(e.fields) > 0 {
		ev = ev.Fields(e.fields)
	}
	return ev
}

func (e *Entry) Debugf(format string, v ...interface{}) {
	l := current()
	e.event(l.Debug()).Msgf(format, v...)
}

func (e *Entry) Infof(format string, v ...interface{}) {
	l := current()
	e.event(l.Info()).Msgf(format, v...)
}

func (e *Entry) Warnf(format string, v ...interface{}) {
	l := current()
	e.event(l.Warn()).Msgf(format, v...)
}

func (e *Entry) Errorf(format string, v ...interface{}) {
	l := current()
	e.event(l.Error()).Msgf(format, v...)
}

package provisioning

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
)

// Logger is the minimal printf-style narrative sink.
type Logger interface {
	Printf(format string, v ...any)
}

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	Logger

	// Event emits a structured event
	Event(event Event)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Level is the severity of an event.
type Level string

const (
	// LevelInfo is ordinary narrative.
	LevelInfo Level = "info"
	// LevelSuccess marks a completed step.
	LevelSuccess Level = "success"
	// LevelWarn marks a tolerated problem, such as a skipped no-op.
	LevelWarn Level = "warn"
	// LevelError marks a failure that is about to be returned.
	LevelError Level = "error"
)

// Event represents a structured provisioning event.
type Event struct {
	Level     Level             // Severity
	Component string            // Emitting component (e.g., "compute", "remote")
	Message   string            // Human-readable message
	Resource  string            // Machine name or instance ID if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

func mergeFields(base, extra map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// ConsoleObserver writes events as "component: message" lines, coloured by
// level when the destination is a terminal.
type ConsoleObserver struct {
	mu            *sync.Mutex
	out           io.Writer
	color         bool
	contextFields map[string]string
}

var (
	componentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
)

// NewConsoleObserver creates a console observer writing to out. Colour is
// enabled only when out is a terminal.
func NewConsoleObserver(out io.Writer) *ConsoleObserver {
	return &ConsoleObserver{
		mu:            &sync.Mutex{},
		out:           out,
		color:         isTerminal(out),
		contextFields: make(map[string]string),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...any) {
	o.Event(Event{Level: LevelInfo, Message: fmt.Sprintf(format, v...)})
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	event.Fields = mergeFields(o.contextFields, event.Fields)

	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = fmt.Fprintln(o.out, o.formatEvent(event))
}

// WithFields implements Observer.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	return &ConsoleObserver{
		mu:            o.mu,
		out:           o.out,
		color:         o.color,
		contextFields: mergeFields(o.contextFields, fields),
	}
}

func (o *ConsoleObserver) render(style lipgloss.Style, s string) string {
	if !o.color {
		return s
	}
	return style.Render(s)
}

// formatEvent formats an event for console output.
func (o *ConsoleObserver) formatEvent(event Event) string {
	msg := event.Message
	if event.Resource != "" {
		msg = fmt.Sprintf("[%s] %s", event.Resource, msg)
	}
	if len(event.Fields) > 0 {
		keys := make([]string, 0, len(event.Fields))
		for k := range event.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, event.Fields[k]))
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, ", "))
	}

	prefix := ""
	if event.Component != "" {
		prefix = event.Component + ": "
	}

	switch event.Level {
	case LevelWarn:
		return o.render(warnStyle, prefix+"WARN: "+msg)
	case LevelError:
		return o.render(errorStyle, prefix+"ERROR: "+msg)
	case LevelSuccess:
		return o.render(successStyle, prefix+msg)
	default:
		return o.render(componentStyle, prefix) + msg
	}
}

// LogrObserver forwards events to a logr.Logger as key/value records.
type LogrObserver struct {
	log           logr.Logger
	contextFields map[string]string
}

// NewLogrObserver creates an observer backed by log.
func NewLogrObserver(log logr.Logger) *LogrObserver {
	return &LogrObserver{log: log, contextFields: make(map[string]string)}
}

// Printf implements Logger.
func (o *LogrObserver) Printf(format string, v ...any) {
	o.Event(Event{Level: LevelInfo, Message: fmt.Sprintf(format, v...)})
}

// Event implements Observer.
func (o *LogrObserver) Event(event Event) {
	fields := mergeFields(o.contextFields, event.Fields)
	kv := []any{"level", string(event.Level)}
	if event.Component != "" {
		kv = append(kv, "component", event.Component)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}

	if event.Level == LevelError {
		o.log.Error(nil, event.Message, kv...)
		return
	}
	o.log.Info(event.Message, kv...)
}

// WithFields implements Observer.
func (o *LogrObserver) WithFields(fields map[string]string) Observer {
	return &LogrObserver{log: o.log, contextFields: mergeFields(o.contextFields, fields)}
}

// NopObserver discards every event.
type NopObserver struct{}

// Printf implements Logger.
func (NopObserver) Printf(string, ...any) {}

// Event implements Observer.
func (NopObserver) Event(Event) {}

// WithFields implements Observer.
func (n NopObserver) WithFields(map[string]string) Observer { return n }

// Helper functions for common events

// Info emits an info event for component.
func Info(o Observer, component, resource, format string, v ...any) {
	emit(o, LevelInfo, component, resource, format, v...)
}

// Success emits a success event for component.
func Success(o Observer, component, resource, format string, v ...any) {
	emit(o, LevelSuccess, component, resource, format, v...)
}

// Warn emits a warning event for component.
func Warn(o Observer, component, resource, format string, v ...any) {
	emit(o, LevelWarn, component, resource, format, v...)
}

// reportedError marks an error whose event Fail has already emitted.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Fail emits an error event for component and returns err marked as
// reported, so a failure is printed once before it propagates. An error
// that already passed through Fail is returned without a second event.
func Fail(o Observer, component, resource string, err error) error {
	if err == nil || Reported(err) {
		return err
	}
	emit(o, LevelError, component, resource, "%v", err)
	return &reportedError{err: err}
}

// Reported reports whether err, or an error it wraps, went through Fail.
func Reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

func emit(o Observer, level Level, component, resource, format string, v ...any) {
	if o == nil {
		return
	}
	o.Event(Event{
		Level:     level,
		Component: component,
		Resource:  resource,
		Message:   fmt.Sprintf(format, v...),
		Timestamp: time.Now(),
	})
}

// Package logging provides structured, leveled logging.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Logger provides structured logging to stderr.
type Logger struct {
	mu        sync.Mutex
	output    io.Writer
	minLevel  Level
	component string
	sessionID string
}

// levelPriority maps levels to numeric priority for filtering.
var levelPriority = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel converts a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// New creates a new Logger.
func New() *Logger {
	return &Logger{
		output:   os.Stderr,
		minLevel: LevelInfo,
	}
}

// WithComponent returns a new logger with the given component name.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: component,
		sessionID: l.sessionID,
	}
}

// WithSession returns a new logger scoped to the given negotiation session.
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{
		output:    l.output,
		minLevel:  l.minLevel,
		component: l.component,
		sessionID: sessionID,
	}
}

// SetLevel sets the minimum log level.
func (l *Logger) SetLevel(level Level) {
	l.minLevel = level
}

// SetOutput sets the output writer (default: stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	l.log(LevelDebug, msg, fields...)
}

// Info logs an info message.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	l.log(LevelInfo, msg, fields...)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	l.log(LevelWarn, msg, fields...)
}

// Error logs an error message.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	l.log(LevelError, msg, fields...)
}

// formatFields formats a map of fields as key=value pairs.
func formatFields(fields map[string]interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var parts []string
	for k, v := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return " " + strings.Join(parts, " ")
}

// log writes a log entry in traditional format: LEVEL TIMESTAMP [component] message key=value ...
func (l *Logger) log(level Level, msg string, fields ...map[string]interface{}) {
	if levelPriority[level] < levelPriority[l.minLevel] {
		return
	}

	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	var fieldStr string
	if len(fields) > 0 && fields[0] != nil {
		f := fields[0]
		if l.sessionID != "" {
			f["session"] = l.sessionID
		}
		fieldStr = formatFields(f)
	} else if l.sessionID != "" {
		fieldStr = formatFields(map[string]interface{}{"session": l.sessionID})
	}

	var line string
	if l.component != "" {
		line = fmt.Sprintf("%-5s %s [%s] %s%s\n", level, timestamp, l.component, msg, fieldStr)
	} else {
		line = fmt.Sprintf("%-5s %s %s%s\n", level, timestamp, msg, fieldStr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write([]byte(line))
}

// Transition logs a negotiation phase transition.
func (l *Logger) Transition(from, to string) {
	l.Info("phase_transition", map[string]interface{}{
		"from": from,
		"to":   to,
	})
}

// IntentResolved logs the classification of a user utterance.
func (l *Logger) IntentResolved(kind string) {
	l.Debug("intent_resolved", map[string]interface{}{
		"intent": kind,
	})
}

// TaskInterpreted logs a freshly interpreted task.
func (l *Logger) TaskInterpreted(taskType string, count int) {
	l.Info("task_interpreted", map[string]interface{}{
		"type":  taskType,
		"count": count,
	})
}

// OptionsSynthesized logs the outcome of an option synthesis round.
func (l *Logger) OptionsSynthesized(n int, recommended string) {
	l.Info("options_synthesized", map[string]interface{}{
		"count":       n,
		"recommended": recommended,
	})
}

// ExecutionStart logs the start of strategy execution.
func (l *Logger) ExecutionStart(strategy string) {
	l.Info("execution_start", map[string]interface{}{
		"strategy": strategy,
	})
}

// ExecutionComplete logs the completion of strategy execution.
func (l *Logger) ExecutionComplete(strategy string, duration time.Duration, status string) {
	l.Info("execution_complete", map[string]interface{}{
		"strategy": strategy,
		"duration": duration.String(),
		"status":   status,
	})
}

// PreferenceRecorded logs an appended preference record.
func (l *Logger) PreferenceRecorded(taskType, relaxed string) {
	l.Debug("preference_recorded", map[string]interface{}{
		"task_type": taskType,
		"relaxed":   relaxed,
	})
}

// CatalogReloaded logs a tool catalog reload.
func (l *Logger) CatalogReloaded(path string, tools int) {
	l.Info("catalog_reloaded", map[string]interface{}{
		"path":  path,
		"tools": tools,
	})
}

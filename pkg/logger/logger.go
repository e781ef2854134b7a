package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	return [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}[l]
}

// ParseLevel maps a level name to a LogLevel. Unknown names fall back to INFO.
func ParseLevel(name string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// Logger is a structured logger
type Logger struct {
	mu         sync.Mutex
	level      LogLevel
	writer     io.Writer
	structured bool // JSON output if true
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

var defaultLogger *Logger

func init() {
	defaultLogger = NewLogger(INFO, os.Stdout, false)
}

// NewLogger creates a new logger instance
func NewLogger(level LogLevel, writer io.Writer, structured bool) *Logger {
	return &Logger{
		level:      level,
		writer:     writer,
		structured: structured,
	}
}

// SetDefault sets the default logger
func SetDefault(logger *Logger) {
	defaultLogger = logger
}

// Default returns the logger used by the package-level helpers
func Default() *Logger {
	return defaultLogger
}

// Log logs a message with the given level and fields
func (l *Logger) Log(level LogLevel, message string, fields map[string]interface{}) {
	l.LogError(level, message, nil, fields)
}

// LogError logs an error message
func (l *Logger) LogError(level LogLevel, message string, err error, fields map[string]interface{}) {
	if level < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		Fields:    fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.structured {
		l.logJSON(entry)
	} else {
		l.logText(entry)
	}
}

func (l *Logger) logJSON(entry LogEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		// unmarshalable field values; keep the message
		entry.Fields = map[string]interface{}{"fields_error": err.Error()}
		data, _ = json.Marshal(entry)
	}
	fmt.Fprintln(l.writer, string(data))
}

func (l *Logger) logText(entry LogEntry) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", entry.Timestamp, entry.Level, entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Fields[k])
		}
	}

	if entry.Error != "" {
		fmt.Fprintf(&b, " error=%s", entry.Error)
	}

	fmt.Fprintln(l.writer, b.String())
}

// Convenience methods for default logger

func Debug(message string, fields map[string]interface{}) {
	defaultLogger.Log(DEBUG, message, fields)
}

func Info(message string, fields map[string]interface{}) {
	defaultLogger.Log(INFO, message, fields)
}

func Warn(message string, fields map[string]interface{}) {
	defaultLogger.Log(WARN, message, fields)
}

func Error(message string, err error, fields map[string]interface{}) {
	defaultLogger.LogError(ERROR, message, err, fields)
}

func Fatal(message string, err error, fields map[string]interface{}) {
	defaultLogger.LogError(FATAL, message, err, fields)
	os.Exit(1)
}

// FieldLogger carries a fixed set of fields into every entry
type FieldLogger struct {
	logger *Logger
	fields map[string]interface{}
}

func WithFields(fields map[string]interface{}) *FieldLogger {
	return &FieldLogger{
		logger: defaultLogger,
		fields: fields,
	}
}

// With returns a copy carrying additional fields
func (f *FieldLogger) With(fields map[string]interface{}) *FieldLogger {
	merged := make(map[string]interface{}, len(f.fields)+len(fields))
	for k, v := range f.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &FieldLogger{logger: f.logger, fields: merged}
}

func (f *FieldLogger) Debug(message string) {
	f.logger.Log(DEBUG, message, f.fields)
}

func (f *FieldLogger) Info(message string) {
	f.logger.Log(INFO, message, f.fields)
}

func (f *FieldLogger) Warn(message string) {
	f.logger.Log(WARN, message, f.fields)
}

func (f *FieldLogger) Error(message string, err error) {
	f.logger.LogError(ERROR, message, err, f.fields)
}

func (f *FieldLogger) Fatal(message string, err error) {
	f.logger.LogError(FATAL, message, err, f.fields)
	os.Exit(1)
}

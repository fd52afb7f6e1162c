// Package logutil emits single-line JSON log records through the standard
// logger so they interleave cleanly with gin's own output.
package logutil

import (
	"encoding/json"
	"log"
	"strings"
	"sync/atomic"
	"time"
)

const (
	levelDebug int32 = iota
	levelInfo
	levelWarn
	levelError
)

var minLevel atomic.Int32

func init() {
	minLevel.Store(levelInfo)
}

// SetLevel sets the minimum level that is written. Unknown names fall back to info.
func SetLevel(name string) {
	minLevel.Store(parseLevel(name))
}

func parseLevel(name string) int32 {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return levelDebug
	case "warn", "warning":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// Debug logs a structured debug message.
func Debug(msg string, fields map[string]interface{}) {
	logJSON(levelDebug, "debug", msg, fields)
}

// Info logs a structured info message.
func Info(msg string, fields map[string]interface{}) {
	logJSON(levelInfo, "info", msg, fields)
}

// Warn logs a structured warning.
func Warn(msg string, fields map[string]interface{}) {
	logJSON(levelWarn, "warn", msg, fields)
}

// Error logs a structured error message including the error string.
func Error(msg string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	logJSON(levelError, "error", msg, fields)
}

func logJSON(level int32, name, msg string, fields map[string]interface{}) {
	if level < minLevel.Load() {
		return
	}
	payload, err := json.Marshal(buildEntry(name, msg, fields))
	if err != nil {
		log.Printf("%s: %+v", msg, fields)
		return
	}
	log.Printf("%s", payload)
}

func buildEntry(level, msg string, fields map[string]interface{}) map[string]interface{} {
	entry := map[string]interface{}{
		"level":     level,
		"message":   msg,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range fields {
		switch k {
		case "level", "message", "timestamp":
			entry["field_"+k] = v
		default:
			entry[k] = v
		}
	}
	return entry
}

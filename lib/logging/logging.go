// Package logging provides the console logging facility for the application.
package logging

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// --------------------------------------------------------------------------
// Console Formatter (implements logrus.Formatter)
// --------------------------------------------------------------------------

// consoleFormatter renders log lines in a fixed-width console format:
//
//	2026-01-02 15:04:05 | INFO  | fstore     | message key=value
type consoleFormatter struct{}

func (f *consoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var sb strings.Builder

	sb.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
	sb.WriteString(fmt.Sprintf(" | %-5s", strings.ToUpper(entry.Level.String())))

	// Component name (set by GetLogger)
	component := ""
	if v, ok := entry.Data[componentField].(string); ok {
		component = v
	}
	sb.WriteString(fmt.Sprintf(" | %-10s | ", component))

	sb.WriteString(entry.Message)

	// Remaining fields as key=value, sorted for stable output
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == componentField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf(" %s=%v", k, entry.Data[k]))
	}

	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

const componentField = "component"

var root = newRoot()

func newRoot() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&consoleFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// GetLogger returns a logger scoped to the given component name.
// The component is rendered as its own column by the console formatter.
func GetLogger(component string) *logrus.Entry {
	return root.WithField(componentField, component)
}

// --------------------------------------------------------------------------
// Level Configuration
// --------------------------------------------------------------------------

// SetLevel configures the global log level from a string.
// Accepted levels are debug, info, warn and error.
func SetLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug":
		root.SetLevel(logrus.DebugLevel)
	case "info":
		root.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		root.SetLevel(logrus.WarnLevel)
	case "error":
		root.SetLevel(logrus.ErrorLevel)
	default:
		return fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
	return nil
}

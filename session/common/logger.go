package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
)

// --------------------------------------------------------------------------
// Logging Facade
// --------------------------------------------------------------------------

// sessionPackages are the logger names InitLoggers configures.
var sessionPackages = []string{"conn", "wire", "router", "transport", "codec", "cmd"}

// sessionLogger adapts the standard library logger to the ILogger facade, so
// every package logs through a named, levelled logger with one shared format.
type sessionLogger struct {
	name  string
	level logger.LogLevel
	out   *log.Logger
}

func (l *sessionLogger) SetLevel(level logger.LogLevel) { l.level = level }

func (l *sessionLogger) Debugf(format string, args ...interface{}) {
	l.write(logger.DEBUG, "DBG", format, args...)
}

func (l *sessionLogger) Infof(format string, args ...interface{}) {
	l.write(logger.INFO, "INF", format, args...)
}

func (l *sessionLogger) Warningf(format string, args ...interface{}) {
	l.write(logger.WARNING, "WRN", format, args...)
}

func (l *sessionLogger) Errorf(format string, args ...interface{}) {
	l.write(logger.ERROR, "ERR", format, args...)
}

// Panicf always fires regardless of the configured level
func (l *sessionLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.out.Printf("PNC %-9s %s", l.name, msg)
	panic(msg)
}

func (l *sessionLogger) write(level logger.LogLevel, tag, format string, args ...interface{}) {
	if l.level < level {
		return
	}
	l.out.Printf("%s %-9s %s", tag, l.name, fmt.Sprintf(format, args...))
}

// newSessionLogger creates a named logger writing to w at the default level.
func newSessionLogger(name string, w io.Writer) *sessionLogger {
	return &sessionLogger{
		name:  name,
		level: logger.INFO,
		out:   log.New(w, "", log.Ldate|log.Ltime),
	}
}

// CreateLogger is the logger factory registered with the facade.
func CreateLogger(pkgName string) logger.ILogger {
	return newSessionLogger(pkgName, os.Stderr)
}

// --------------------------------------------------------------------------
// Initialization
// --------------------------------------------------------------------------

// ParseLogLevel converts a level name into the facade's level type. An empty
// name means the default (info).
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	}
	return 0, fmt.Errorf("unknown log level %q (expected debug, info, warn or error)", level)
}

// InitLoggers registers the logger factory and applies the level to every
// session package logger.
func InitLoggers(level string) error {
	parsed, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)
	for _, pkg := range sessionPackages {
		logger.GetLogger(pkg).SetLevel(parsed)
	}
	return nil
}

package logsvc

import (
	"log"

	"github.com/medtrackhq/medtrack/core"
)

// StdLogger writes everything to a standard library logger. It is the
// development and test stand-in for RollbarLogger.
type StdLogger struct {
	std *log.Logger
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger) *StdLogger {
	return &StdLogger{std: std}
}

func (l StdLogger) Enable(bool) {}

func (l StdLogger) log(level, msg string, args []interface{}) {
	l.std.Printf("%s: %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l StdLogger) Debug(msg string, args ...interface{}) {
	l.log("DEBUG", msg, args)
}

func (l StdLogger) Info(msg string, args ...interface{}) {
	l.log("INFO", msg, args)
}

func (l StdLogger) Warning(msg string, args ...interface{}) {
	l.log("WARNING", msg, args)
}

func (l StdLogger) Error(msg string, args ...interface{}) {
	l.log("ERROR", msg, args)
}

func (l StdLogger) Critical(msg string, args ...interface{}) {
	l.log("CRITICAL", msg, args)
}

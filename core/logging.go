package core

// Logger is any service that can report application errors.
// Error args may carry an error, a map[string]interface{} of extra
// context or the acting user; implementations decide what to do with each.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warning(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Critical(msg string, args ...interface{})
}

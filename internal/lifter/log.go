package lifter

import "github.com/cjrh/lifter/internal/config"

// fieldLogger prefixes every call with fixed key-value pairs.
type fieldLogger struct {
	base   config.Logger
	fields []interface{}
}

func withFields(base config.Logger, keysAndValues ...interface{}) config.Logger {
	return &fieldLogger{base: config.OrNop(base), fields: keysAndValues}
}

func (l *fieldLogger) with(keysAndValues []interface{}) []interface{} {
	out := make([]interface{}, 0, len(l.fields)+len(keysAndValues))
	out = append(out, l.fields...)
	return append(out, keysAndValues...)
}

func (l *fieldLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.base.Debug(msg, l.with(keysAndValues)...)
}

func (l *fieldLogger) Info(msg string, keysAndValues ...interface{}) {
	l.base.Info(msg, l.with(keysAndValues)...)
}

func (l *fieldLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.base.Warn(msg, l.with(keysAndValues)...)
}

func (l *fieldLogger) Error(msg string, keysAndValues ...interface{}) {
	l.base.Error(msg, l.with(keysAndValues)...)
}

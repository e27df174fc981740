package logger

import "go.uber.org/zap"

// KV is the key/value logging contract used by application packages
type KV interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Adapter adapts zap.Logger to KV
type Adapter struct {
	logger *zap.Logger
}

// NewAdapter wraps a zap logger; nil yields a no-op logger
func NewAdapter(l *zap.Logger) *Adapter {
	if l == nil {
		l = zap.NewNop()
	}
	return &Adapter{logger: l.WithOptions(zap.AddCallerSkip(1))}
}

func (a *Adapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, Fields(keysAndValues...)...)
}

func (a *Adapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, Fields(keysAndValues...)...)
}

// Fields converts key-value pairs to zap fields; non-string keys and a trailing odd key are dropped
func Fields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr && key == "error" {
			fields = append(fields, zap.Error(err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

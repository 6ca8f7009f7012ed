package logger

// NoOpLogger is a Logger implementation that discards all log entries.
// Useful as a default in tests.
type NoOpLogger struct{}

// NewNop returns a logger that discards everything.
func NewNop() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) Debug(_ string, _ ...Field) {}
func (n *NoOpLogger) Info(_ string, _ ...Field)  {}
func (n *NoOpLogger) Warn(_ string, _ ...Field)  {}
func (n *NoOpLogger) Error(_ string, _ ...Field) {}
func (n *NoOpLogger) Fatal(_ string, _ ...Field) {}

// With returns the same no-op logger.
func (n *NoOpLogger) With(_ ...Field) Logger { return n }

// Sync is a no-op.
func (n *NoOpLogger) Sync() error { return nil }

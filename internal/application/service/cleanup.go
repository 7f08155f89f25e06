package service

// bestEffort runs a cleanup step whose failure must not fail the request
func bestEffort(logger Logger, op string, fn func() error, keysAndValues ...interface{}) {
	if err := fn(); err != nil {
		logger.Error("Cleanup failed", append([]interface{}{"op", op, "error", err}, keysAndValues...)...)
	}
}

package sweep

import "errors"

// ErrAlreadyRunning is returned when a generator is started twice.
var ErrAlreadyRunning = errors.New("generator is already running")

// ConfigError is a custom error type for pattern and model configuration errors
type ConfigError struct {
	msg string
}

func NewConfigError(msg string) *ConfigError {
	return &ConfigError{msg}
}

func (e *ConfigError) Error() string {
	return e.msg
}

// Package errors defines the configuration error codes reported by
// tensorcheck generators.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a generator configuration error.
type ErrorCode string

const (
	// ErrDTypeEmpty indicates the resolved dtype set is empty.
	ErrDTypeEmpty ErrorCode = "dtype-empty"
	// ErrDTypeWidth indicates an unsupported dtype bit width.
	ErrDTypeWidth ErrorCode = "dtype-width"
	// ErrDTypeClass indicates an unknown dtype class.
	ErrDTypeClass ErrorCode = "dtype-class"

	// ErrShapeRange indicates an inverted rank or dimension range.
	ErrShapeRange ErrorCode = "shape-range"
	// ErrShapeElements indicates the element cap cannot fit the minimal shape.
	ErrShapeElements ErrorCode = "shape-elements"

	// ErrElementRange indicates inverted element bounds.
	ErrElementRange ErrorCode = "element-range"
	// ErrElementUnique indicates the element domain cannot yield enough distinct values.
	ErrElementUnique ErrorCode = "element-unique"

	// ErrDevicePoolEmpty indicates an empty device pool.
	ErrDevicePoolEmpty ErrorCode = "device-pool-empty"
	// ErrDeviceUnavailable indicates a device that is not registered as available.
	ErrDeviceUnavailable ErrorCode = "device-unavailable"
	// ErrDeviceMeta indicates the meta device was used where a physical device is required.
	ErrDeviceMeta ErrorCode = "device-meta"

	// ErrModuleDims indicates invalid module dimensions.
	ErrModuleDims ErrorCode = "module-dims"
	// ErrModuleDType indicates a dtype a module cannot carry.
	ErrModuleDType ErrorCode = "module-dtype"
	// ErrModuleInput indicates a forward input that does not conform to the module.
	ErrModuleInput ErrorCode = "module-input"
	// ErrModuleMetaForward indicates a forward pass on a meta-device module.
	ErrModuleMetaForward ErrorCode = "module-meta-forward"

	// ErrConfigInvalid indicates a transformer config violating a cross-field constraint.
	ErrConfigInvalid ErrorCode = "config-invalid"
)

// Config describes an invalid generator configuration.
//
//nolint:errname // public API name uses the domain term.
type Config struct {
	Code    ErrorCode
	Message string
	Field   string
}

// Error formats the error for display, including code, message, and field.
func (c *Config) Error() string {
	if c == nil {
		return "config <nil>"
	}
	if c.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", c.Code, c.Message, c.Field)
	}
	return fmt.Sprintf("[%s] %s", c.Code, c.Message)
}

// NewConfig builds a Config error with a code, message, and optional field.
func NewConfig(code ErrorCode, msg, field string) *Config {
	return &Config{Code: code, Message: msg, Field: field}
}

// NewConfigf formats a message and builds a Config error.
func NewConfigf(code ErrorCode, field, format string, args ...any) *Config {
	return NewConfig(code, fmt.Sprintf(format, args...), field)
}

// CodeOf extracts the error code from an error, or "" when the error does not
// carry one.
func CodeOf(err error) ErrorCode {
	var cfg *Config
	if errors.As(err, &cfg) && cfg != nil {
		return cfg.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

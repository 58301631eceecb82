package validation

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"
)

// FieldError is one failed configuration check
type FieldError struct {
	Section string
	Field   string
	Problem string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Section, e.Field, e.Problem)
}

// ConfigValidator chains checks over one configuration section and keeps
// every failure, so a bad file reports all of its problems at once.
type ConfigValidator struct {
	section  string
	failures []error
}

// NewConfigValidator starts a chain for section
func NewConfigValidator(section string) *ConfigValidator {
	return &ConfigValidator{section: section}
}

func (cv *ConfigValidator) fail(field, format string, args ...any) *ConfigValidator {
	cv.failures = append(cv.failures, &FieldError{
		Section: cv.section,
		Field:   field,
		Problem: fmt.Sprintf(format, args...),
	})
	return cv
}

// Required fails on an empty value
func (cv *ConfigValidator) Required(field, value string) *ConfigValidator {
	if strings.TrimSpace(value) == "" {
		return cv.fail(field, "required field is empty")
	}
	return cv
}

// OneOf fails unless value is in allowed
func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	if !slices.Contains(allowed, value) {
		return cv.fail(field, "value %q must be one of %s", value, strings.Join(allowed, ", "))
	}
	return cv
}

// MinDuration fails when value is below floor
func (cv *ConfigValidator) MinDuration(field string, value, floor time.Duration) *ConfigValidator {
	if value < floor {
		return cv.fail(field, "duration %v is below minimum %v", value, floor)
	}
	return cv
}

// HostPort fails unless a non-empty value splits as host:port
func (cv *ConfigValidator) HostPort(field, value string) *ConfigValidator {
	if value == "" {
		return cv
	}
	if _, port, err := net.SplitHostPort(value); err != nil || port == "" {
		return cv.fail(field, "%q is not a host:port address", value)
	}
	return cv
}

// SocketURL fails unless value is a tcp://, ipc:// or inproc:// address
func (cv *ConfigValidator) SocketURL(field, value string) *ConfigValidator {
	scheme, rest, ok := strings.Cut(value, "://")
	if !ok || rest == "" || !slices.Contains([]string{"tcp", "ipc", "inproc"}, scheme) {
		return cv.fail(field, "%q is not a tcp://, ipc:// or inproc:// address", value)
	}
	return cv
}

// When runs checks only if condition holds
func (cv *ConfigValidator) When(condition bool, checks func(*ConfigValidator)) *ConfigValidator {
	if condition {
		checks(cv)
	}
	return cv
}

// Struct runs the tag-based validator over a section struct
func (cv *ConfigValidator) Struct(v any) *ConfigValidator {
	if err := validate.Struct(v); err != nil {
		cv.failures = append(cv.failures, fmt.Errorf("%s: %w", cv.section, formatValidationError(err)))
	}
	return cv
}

// Errors returns the failures so far
func (cv *ConfigValidator) Errors() []error {
	return cv.failures
}

// Validate joins the failures, nil when there are none
func (cv *ConfigValidator) Validate() error {
	return errors.Join(cv.failures...)
}

package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned, wrapped, for any problem found while loading a config file: unknown option names,
// values outside of an option's range and patterns which fail to compile.
var ErrInvalidConfig = errors.New("invalid config")

// InvalidConfigError describes the offending field and value, and the file in which they appeared.
type InvalidConfigError struct {
	File   string
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *InvalidConfigError) Error() string {
	msg := ErrInvalidConfig.Error()

	if e.File != "" {
		msg = fmt.Sprintf("%s %s", msg, e.File)
	}

	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
		if e.Value != nil {
			msg = fmt.Sprintf("%s = %#v", msg, e.Value)
		}
	}

	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *InvalidConfigError) Is(target error) bool {
	return target == ErrInvalidConfig //nolint:errorlint
}

func (e *InvalidConfigError) Unwrap() error {
	return e.Err
}

func invalid(field string, value any, reason string) *InvalidConfigError {
	return &InvalidConfigError{Field: field, Value: value, Reason: reason}
}

// withFile records file on err if it is an *InvalidConfigError, or wraps err into one otherwise.
func withFile(err error, file string) error {
	if err == nil {
		return nil
	}

	var invalidErr *InvalidConfigError
	if errors.As(err, &invalidErr) {
		invalidErr.File = file

		return invalidErr
	}

	return &InvalidConfigError{File: file, Err: err}
}

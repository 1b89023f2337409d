package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidValue indicates a setting whose value cannot be used.
	ErrInvalidValue = errors.New("invalid value")

	// ErrWatcherClosed is returned by operations on a closed Watcher.
	ErrWatcherClosed = errors.New("watcher closed")
)

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	// Path is the file that failed to parse.
	Path string
	// Line and Column locate the error when the decoder reports it.
	Line   int
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValueError describes a setting that failed validation at load time.
type ValueError struct {
	Key   string
	Value any
	Err   error
}

// Error implements the error interface.
func (e *ValueError) Error() string {
	return fmt.Sprintf("setting %s=%v: %v", e.Key, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValueError) Unwrap() error {
	return e.Err
}

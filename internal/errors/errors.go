// Package errors provides standardized error handling for Galleria.
// It defines common error types, constants, and helper functions for
// consistent error creation, wrapping, and handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors package functions re-exported for convenience
var (
	// Unwrap unwraps an error to access the underlying error
	Unwrap = errors.Unwrap
	// Is reports whether any error in err's chain matches target
	Is = errors.Is
	// As finds the first error in err's chain that matches target
	As = errors.As
)

// ErrorKind represents the kind of error
type ErrorKind int

// Error kinds
const (
	Unknown ErrorKind = iota
	// Image error kinds
	ImageNotFound
	ImageLoadFailed
	InvalidPath
	DeleteFailed
	// Config error kinds
	InvalidConfig
	ConfigNotFound
	SaveFailed
	// Category error kinds
	CategoryNotFound
	DuplicateCategory
	// Sort error kinds
	SortFailed
)

// Common error constants for frequently occurring errors
var (
	ErrImageNotFound    = NewImageError("image not found", "", ImageNotFound, nil)
	ErrInvalidPath      = NewImageError("invalid image path", "", InvalidPath, nil)
	ErrInvalidConfig    = NewConfigError("invalid configuration", "", InvalidConfig, nil)
	ErrCategoryNotFound = NewCategoryError("category not found", "", CategoryNotFound, nil)
)

// ApplicationError is the base error type for all application errors
type ApplicationError struct {
	msg  string
	err  error
	kind ErrorKind
}

// Error returns the error message
func (e *ApplicationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

// Unwrap returns the wrapped error
func (e *ApplicationError) Unwrap() error {
	return e.err
}

// Kind returns the kind of error
func (e *ApplicationError) Kind() ErrorKind {
	return e.kind
}

// ImageError represents errors related to image operations
type ImageError struct {
	ApplicationError
	path string
}

// NewImageError creates a new image error
func NewImageError(msg string, path string, kind ErrorKind, err error) *ImageError {
	return &ImageError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		path: path,
	}
}

// Error returns the image error message
func (e *ImageError) Error() string {
	if e.path != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.path, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.path)
	}
	return e.ApplicationError.Error()
}

// Path returns the image path associated with the error
func (e *ImageError) Path() string {
	return e.path
}

// ConfigError represents errors related to the persisted gallery state
type ConfigError struct {
	ApplicationError
	param string
}

// NewConfigError creates a new configuration error
func NewConfigError(msg string, param string, kind ErrorKind, err error) *ConfigError {
	return &ConfigError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		param: param,
	}
}

// Error returns the config error message
func (e *ConfigError) Error() string {
	if e.param != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.param, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.param)
	}
	return e.ApplicationError.Error()
}

// Param returns the configuration parameter associated with the error
func (e *ConfigError) Param() string {
	return e.param
}

// CategoryError represents errors related to category operations
type CategoryError struct {
	ApplicationError
	categoryID string
}

// NewCategoryError creates a new category error
func NewCategoryError(msg string, categoryID string, kind ErrorKind, err error) *CategoryError {
	return &CategoryError{
		ApplicationError: ApplicationError{
			msg:  msg,
			err:  err,
			kind: kind,
		},
		categoryID: categoryID,
	}
}

// Error returns the category error message
func (e *CategoryError) Error() string {
	if e.categoryID != "" {
		if e.err != nil {
			return fmt.Sprintf("%s: %s: %v", e.msg, e.categoryID, e.err)
		}
		return fmt.Sprintf("%s: %s", e.msg, e.categoryID)
	}
	return e.ApplicationError.Error()
}

// CategoryID returns the category id associated with the error
func (e *CategoryError) CategoryID() string {
	return e.categoryID
}

// New creates a new error with a message
func New(msg string) error {
	return &ApplicationError{
		msg:  msg,
		kind: Unknown,
	}
}

// Newf creates a new error with a formatted message
func Newf(format string, args ...interface{}) error {
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		kind: Unknown,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  msg,
		err:  err,
		kind: Unknown,
	}
}

// Wrapf wraps an existing error with additional formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &ApplicationError{
		msg:  fmt.Sprintf(format, args...),
		err:  err,
		kind: Unknown,
	}
}

// IsImageNotFound checks if the error is an image not found error
func IsImageNotFound(err error) bool {
	var imgErr *ImageError
	if errors.As(err, &imgErr) {
		return imgErr.Kind() == ImageNotFound
	}
	return false
}

// IsLoadFailed checks if the error is an image load failure
func IsLoadFailed(err error) bool {
	var imgErr *ImageError
	if errors.As(err, &imgErr) {
		return imgErr.Kind() == ImageLoadFailed
	}
	return false
}

// IsDeleteFailed checks if the error is a delete failure
func IsDeleteFailed(err error) bool {
	var imgErr *ImageError
	if errors.As(err, &imgErr) {
		return imgErr.Kind() == DeleteFailed
	}
	return false
}

// IsInvalidConfig checks if the error is an invalid configuration error
func IsInvalidConfig(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == InvalidConfig
	}
	return false
}

// IsSaveFailed checks if the error is a persistence failure
func IsSaveFailed(err error) bool {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr.Kind() == SaveFailed
	}
	return false
}

// IsCategoryNotFound checks if the error is a category not found error
func IsCategoryNotFound(err error) bool {
	var catErr *CategoryError
	if errors.As(err, &catErr) {
		return catErr.Kind() == CategoryNotFound
	}
	return false
}

package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeConfiguration represents missing or invalid startup configuration
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeFetch represents network or non-success status errors for a page
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeExtraction represents a catalog entry that could not be extracted at all
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeExport represents errors writing the export file
	ErrorTypeExport ErrorType = "export"
	// ErrorTypeNotification represents notification delivery errors
	ErrorTypeNotification ErrorType = "notification"
	// ErrorTypePublisher represents record stream errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeCache represents page cache errors
	ErrorTypeCache ErrorType = "cache"
)

// AppError represents an error raised at one of the component boundaries
type AppError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsFatal returns true if the error must stop the process
func (e *AppError) IsFatal() bool {
	return e.Type == ErrorTypeConfiguration
}

// New creates a new AppError
func New(errType ErrorType, component, message string, err error) *AppError {
	return &AppError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// Is reports whether err is an AppError of the given type
func Is(err error, errType ErrorType) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Type == errType {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *AppError {
	return New(ErrorTypeConfiguration, "config", message, err)
}

// NewFetch creates a new fetch error
func NewFetch(component, message string, err error) *AppError {
	return New(ErrorTypeFetch, component, message, err)
}

// NewExtraction creates a new extraction error
func NewExtraction(component, message string, err error) *AppError {
	return New(ErrorTypeExtraction, component, message, err)
}

// NewExport creates a new export error
func NewExport(component, message string, err error) *AppError {
	return New(ErrorTypeExport, component, message, err)
}

// NewNotification creates a new notification error
func NewNotification(component, message string, err error) *AppError {
	return New(ErrorTypeNotification, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *AppError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewCache creates a new cache error
func NewCache(component, message string, err error) *AppError {
	return New(ErrorTypeCache, component, message, err)
}

package domain

import "errors"

var (
	// ErrNetwork marks a failed fetch; callers skip the page or article and continue.
	ErrNetwork = errors.New("network error")
	// ErrParse marks HTML that lacks a required field.
	ErrParse = errors.New("parse error")
	// ErrSchema marks a CSV file without the expected columns.
	ErrSchema = errors.New("schema error")
	// ErrServiceUnavailable marks an unreachable or unauthenticated sentiment service.
	ErrServiceUnavailable = errors.New("sentiment service unavailable")
)

package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrTimeout is returned when an operation did not complete within its deadline.
	ErrTimeout = errors.New("timeout exceeded")
	// ErrImagePull is returned when a container image could not be pulled.
	ErrImagePull = errors.New("image pull failed")
	// ErrLogWaitTimeout is returned when a container did not emit the expected
	// log line within the wait timeout.
	ErrLogWaitTimeout = errors.New("log wait timeout")
	// ErrStreamClosed is returned when a container log stream ended before the
	// expected log line appeared.
	ErrStreamClosed = errors.New("log stream closed unexpectedly")
)

package models

import "fmt"

// ErrorKind distinguishes why a scan produced no analysis.
type ErrorKind string

const (
	// DetectionFailure means no language could be determined for the input.
	DetectionFailure ErrorKind = "detection_failure"
	// ExecutionFailure means analysis faulted internally.
	ExecutionFailure ErrorKind = "execution_failure"
	// ResourceAccessFailure means the input could not be loaded.
	ResourceAccessFailure ErrorKind = "resource_access_failure"
)

// ScanError is the error carried on a ScanResult.
type ScanError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ScanError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

func NewDetectionFailure(msg string) *ScanError {
	return &ScanError{Kind: DetectionFailure, Message: msg}
}

func NewExecutionFailure(msg string, err error) *ScanError {
	return &ScanError{Kind: ExecutionFailure, Message: msg, Err: err}
}

func NewResourceAccessFailure(path string, err error) *ScanError {
	return &ScanError{Kind: ResourceAccessFailure, Message: "cannot read " + path, Err: err}
}

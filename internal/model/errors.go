package model

import (
	"errors"
	"fmt"
)

// User-facing messages. Validation messages carry the warning prefix, every
// other failure the error prefix.
const (
	MissingInputMessage = "⚠️ Please upload a resume (PDF) and paste the job description."
	NotPDFMessage       = "⚠️ Only PDF files are supported for the resume."
	ErrorPrefix         = "❌ Error: "
	FallbackDetail      = "Failed to generate email due to an unknown error."
	FallbackMessage     = ErrorPrefix + FallbackDetail
)

// ValidationError is reported before any network activity.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	// ErrMissingInput means no résumé is selected or the job description is empty.
	ErrMissingInput = &ValidationError{Message: MissingInputMessage}
	// ErrNotPDF means the selected résumé's declared media type is not application/pdf.
	ErrNotPDF = &ValidationError{Message: NotPDFMessage}
)

// TransportError wraps a request that never produced a response.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError is a non-2xx response from the generation service.
// Detail is empty when the payload carried no usable detail string.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// MalformedResponseError is a 2xx response without a usable email field.
type MalformedResponseError struct {
	StatusCode int
	Err        error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("malformed response (HTTP %d)", e.StatusCode)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// DisplayMessage maps err to the string shown to the user. It returns "" for nil.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}

	var se *ServiceError
	if errors.As(err, &se) && se.Detail != "" {
		return ErrorPrefix + se.Detail
	}

	return FallbackMessage
}

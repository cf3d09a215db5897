package model

import (
	"context"
)

// PDFMediaType is the only résumé media type the service accepts.
const PDFMediaType = "application/pdf"

// Status is the phase of a submission attempt.
type Status int

const (
	StatusIdle Status = iota
	StatusValidating
	StatusInFlight
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusValidating:
		return "validating"
	case StatusInFlight:
		return "in_flight"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Resume is a selected résumé file held in memory.
type Resume struct {
	Name      string // base file name sent as the part filename
	MediaType string // declared media type, compared verbatim against PDFMediaType
	Data      []byte
}

// Size returns the résumé length in bytes.
func (r Resume) Size() int64 {
	return int64(len(r.Data))
}

// IsPDF reports whether the declared media type is exactly application/pdf.
func (r Resume) IsPDF() bool {
	return r.MediaType == PDFMediaType
}

// EmailGenerator sends a résumé and job description to the generation service
// and returns the drafted email.
type EmailGenerator interface {
	GenerateEmail(ctx context.Context, resume Resume, jobDescription string) (string, error)
}

package chat

import (
	"errors"
	"fmt"
)

// Kind classifies a failure at its origin. Downstream code switches on the
// kind; it never infers a category from error text.
type Kind int

const (
	KindUnknown Kind = iota
	// KindContextCapture: page probe or screenshot capability failed after
	// the single retry-with-reinjection attempt.
	KindContextCapture
	// KindContextInvalidated: the host side (browser bridge or background
	// worker) went away while a request was pending.
	KindContextInvalidated
	// KindQuota: remote API rate limit reached.
	KindQuota
	// KindConnectivity: transport-level failure reaching the remote API.
	KindConnectivity
	// KindProtocol: remote API answered with an unexpected shape or status.
	KindProtocol
	KindFileTooLarge
	KindUnsupportedFileType
	KindFileProcessing
)

// Error tags a failure with its Kind at the point where the failure is
// understood best.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: kind=%d", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E builds a kind-tagged error.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// UserFacingMessage renders the text shown to the user for a failed
// operation. Remote-call failures become a model-role turn in the
// conversation; ingestion failures block the upload.
func UserFacingMessage(err error) string {
	switch KindOf(err) {
	case KindQuota:
		return "⚠️ **Quota Exceeded**: The free API limit has been reached. Please wait a minute and try again."
	case KindConnectivity:
		return "⚠️ **Connection Error**: Please check your internet connection."
	case KindContextCapture:
		return "Failed to capture page context. Try reloading the page."
	case KindContextInvalidated:
		return "⚠️ Extension was reloaded. Please **reload this page** and try again."
	case KindFileTooLarge:
		return "File size must be less than 10MB"
	case KindUnsupportedFileType:
		return "Unsupported file type. Please upload PDF, TXT, MD, DOC, or DOCX files."
	case KindFileProcessing:
		return "Failed to process file. Please try again."
	default:
		msg := "Sorry, I encountered an error. Please try again."
		if err != nil {
			msg += " " + err.Error()
		}
		return msg
	}
}

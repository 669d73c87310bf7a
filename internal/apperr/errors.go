package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can decide whether to retry, reject, or report it.
type Kind string

const (
	// LockTimeout means exclusion could not be acquired in time. Retryable.
	LockTimeout Kind = "LockTimeout"
	// DocumentNotFound means the backing file of a document could not be read.
	DocumentNotFound Kind = "DocumentNotFound"
	// DocumentCorrupt means the backing file exists but does not decode.
	DocumentCorrupt Kind = "DocumentCorrupt"
	// UnknownType means the uploaded bytes match no known signature.
	UnknownType Kind = "UnknownType"
	// NoVideoStream means a container was probed but holds no video stream.
	NoVideoStream Kind = "NoVideoStream"
	// CodecToolError means an external codec tool failed or timed out.
	CodecToolError Kind = "CodecToolError"
	// GeocodeError means the reverse-geocoding lookup failed.
	GeocodeError Kind = "GeocodeError"
	// InvalidRequest means the caller supplied unusable input.
	InvalidRequest Kind = "InvalidRequest"
	// Internal covers everything else (filesystem errors outside the store, encoding, ...).
	Internal Kind = "Internal"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrLockTimeout      = &Error{Kind: LockTimeout}
	ErrDocumentNotFound = &Error{Kind: DocumentNotFound}
	ErrDocumentCorrupt  = &Error{Kind: DocumentCorrupt}
	ErrUnknownType      = &Error{Kind: UnknownType}
	ErrNoVideoStream    = &Error{Kind: NoVideoStream}
	ErrCodecTool        = &Error{Kind: CodecToolError}
	ErrGeocode          = &Error{Kind: GeocodeError}
	ErrInvalidRequest   = &Error{Kind: InvalidRequest}
)

// Error is a structured failure: a kind, the operation that failed, a message, and an
// optional cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// E builds an Error from a cause. The message defaults to the cause's text.
func E(kind Kind, op string, err error) *Error {
	e := &Error{Kind: kind, Op: op, Err: err}
	if err != nil {
		e.Message = err.Error()
	}
	return e
}

// Errorf builds an Error with a formatted message. A %w verb in format is kept as the cause.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	wrapped := fmt.Errorf(format, args...)
	return &Error{Kind: kind, Op: op, Message: wrapped.Error(), Err: errors.Unwrap(wrapped)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Message != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. Sentinels only carry a kind,
// so errors.Is(err, ErrLockTimeout) matches any LockTimeout regardless of op or message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the message of the outermost *Error in err's chain, or err's text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus maps a kind to the status code used at the HTTP boundary.
func HTTPStatus(kind Kind) int {
	switch kind {
	case LockTimeout:
		return http.StatusServiceUnavailable
	case DocumentNotFound:
		return http.StatusNotFound
	case UnknownType:
		return http.StatusUnsupportedMediaType
	case NoVideoStream:
		return http.StatusUnprocessableEntity
	case CodecToolError, GeocodeError:
		return http.StatusBadGateway
	case InvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether a caller may reasonably retry the same request.
func Retryable(err error) bool {
	switch KindOf(err) {
	case LockTimeout, GeocodeError, CodecToolError:
		return true
	}
	return false
}

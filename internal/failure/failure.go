// Package failure classifies errors raised while producing a video so that
// callers can react per kind (retry a download, reject a bad offset, ...).
package failure

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Kind is the category of a failure.
type Kind string

const (
	KindAsset       Kind = "asset"       // undecodable or missing image, font or static asset
	KindRange       Kind = "range"       // audio offset negative or beyond the source duration
	KindEnvironment Kind = "environment" // ffmpeg, ffprobe or yt-dlp unavailable
	KindDownload    Kind = "download"    // network or audio extraction failure
	KindIO          Kind = "io"          // encoding or output write failure
	KindInput       Kind = "input"       // malformed request fields
	KindUnknown     Kind = "unknown"
)

// Error carries a Kind, the operation that failed and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString(string(e.Kind))
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, failure.Range) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && e.Kind == t.Kind
}

// Sentinels for errors.Is.
var (
	Asset       = &Error{Kind: KindAsset}
	Range       = &Error{Kind: KindRange}
	Environment = &Error{Kind: KindEnvironment}
	Download    = &Error{Kind: KindDownload}
	IO          = &Error{Kind: KindIO}
	Input       = &Error{Kind: KindInput}
)

// New creates a failure with a formatted message and a captured stack.
func New(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(fmt.Sprintf(format, args...))}
}

// Wrap classifies err. A nil err yields nil. An err that already carries a
// kind keeps it; the outer op is prepended.
func Wrap(err error, kind Kind, op, message string) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if stderrors.As(err, &fe) {
		kind = fe.Kind
	}
	return &Error{Kind: kind, Op: op, Err: errors.Wrap(err, message)}
}

// KindOf reports the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if stderrors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Retryable reports whether repeating the same request may succeed.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindDownload, KindIO:
		return true
	default:
		return false
	}
}

// HTTPStatus maps a kind to the status code returned by the API.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInput:
		return http.StatusBadRequest
	case KindAsset, KindRange:
		return http.StatusUnprocessableEntity
	case KindDownload:
		return http.StatusBadGateway
	case KindEnvironment:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

package protocol

import (
	"errors"
	"fmt"
)

// Kind classifies a failed conversion.
type Kind string

const (
	KindInit           Kind = "init"
	KindUnsupported    Kind = "unsupported_conversion"
	KindDecode         Kind = "decode"
	KindEncode         Kind = "encode"
	KindIO             Kind = "io"
	KindInvalidRequest Kind = "invalid_request"
	KindInternal       Kind = "internal"
)

// Error is the typed failure carried by an ERROR envelope.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return e.Detail
}

// Retryable reports whether the same request may succeed if sent again.
// Only initialization failures are retried; the worker re-runs init on the
// next request.
func (e *Error) Retryable() bool {
	return e.Kind == KindInit
}

// NewErrorf builds an *Error with a formatted detail message.
func NewErrorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Classifier maps an error to a Kind. It returns false if it does not
// recognise err.
type Classifier func(err error) (Kind, bool)

// Classify turns err into an *Error. An err that already is (or wraps) an
// *Error keeps its kind; otherwise each classifier is tried in order and
// fallback is used if none matches.
func Classify(err error, fallback Kind, classifiers ...Classifier) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	for _, c := range classifiers {
		if kind, ok := c(err); ok {
			return &Error{Kind: kind, Detail: err.Error()}
		}
	}
	return &Error{Kind: fallback, Detail: err.Error()}
}

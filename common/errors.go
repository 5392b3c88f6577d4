package common

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// ErrorKind classifies a renderer failure. Every failure surfaced by the engine carries exactly one kind.
type ErrorKind int

const (
	// KindDeviceInit is returned when no compatible adapter, device, queue or swap chain could be created.
	KindDeviceInit ErrorKind = iota + 1

	// KindAssetLoad is returned for a missing mesh/material file or a parse failure.
	KindAssetLoad

	// KindPipelineCompile is returned when shader stages and layouts are incompatible.
	KindPipelineCompile

	// KindSync is returned when a fence or wait primitive cannot be created, signaled or waited on,
	// or when a frame is driven through an illegal state transition.
	KindSync

	// KindSubmit is returned when queue submission, presentation or back buffer acquisition fails.
	KindSubmit

	// KindResizeUnsupported is returned when an operation is given surface dimensions that differ
	// from the ones the swap chain was created with.
	KindResizeUnsupported
)

func (k ErrorKind) String() string {
	switch k {
	case KindDeviceInit:
		return "device init error"
	case KindAssetLoad:
		return "asset load error"
	case KindPipelineCompile:
		return "pipeline compile error"
	case KindSync:
		return "sync error"
	case KindSubmit:
		return "submit error"
	case KindResizeUnsupported:
		return "resize unsupported"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// Sentinels for errors.Is. An *Error matches the sentinel of its kind regardless of Op or cause.
var (
	ErrDeviceInit        = &Error{Kind: KindDeviceInit}
	ErrAssetLoad         = &Error{Kind: KindAssetLoad}
	ErrPipelineCompile   = &Error{Kind: KindPipelineCompile}
	ErrSync              = &Error{Kind: KindSync}
	ErrSubmit            = &Error{Kind: KindSubmit}
	ErrResizeUnsupported = &Error{Kind: KindResizeUnsupported}
)

// Error is the typed error returned across the engine.
type Error struct {
	// Kind is the failure category.
	Kind ErrorKind
	// Op names the operation that failed, e.g. "renderer.Render".
	Op string
	// Err is the underlying cause, usually carrying a stack trace from github.com/pkg/errors.
	Err error
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// NewError wraps err with the given kind and operation name.
// A stack trace is attached to the cause when it does not already carry one.
//
// Parameters:
//   - kind: the failure category
//   - op: the operation that failed
//   - err: the underlying cause, may be nil
//
// Returns:
//   - error: the wrapped *Error
func NewError(kind ErrorKind, op string, err error) error {
	if err != nil {
		var st stackTracer
		if !errors.As(err, &st) {
			err = errors.WithStack(err)
		}
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf builds an *Error of the given kind whose cause is a formatted message with a stack trace.
//
// Parameters:
//   - kind: the failure category
//   - op: the operation that failed
//   - format: fmt-style format string for the cause
//   - args: format arguments
//
// Returns:
//   - error: the new *Error
func Errorf(kind ErrorKind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// Format implements fmt.Formatter. %+v prints the cause with its stack trace.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			if e.Op != "" {
				io.WriteString(s, e.Op+": ")
			}
			io.WriteString(s, e.Kind.String())
			if e.Err != nil {
				fmt.Fprintf(s, ": %+v", e.Err)
			}
			return
		}
		fallthrough
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// KindOf returns the kind of the first *Error in err's chain, or 0 if there is none.
//
// Parameters:
//   - err: the error to inspect
//
// Returns:
//   - ErrorKind: the kind, or 0
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

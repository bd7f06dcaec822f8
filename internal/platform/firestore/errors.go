package firestore

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies a Firestore failure for the service layer.
type Kind int

const (
	KindOther Kind = iota
	KindNotFound
	KindUnavailable
)

// Error implements repositories.RepositoryError for Firestore backed repositories.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether the document or query target is missing.
func (e *Error) IsNotFound() bool { return e != nil && e.Kind == KindNotFound }

// IsUnavailable reports a transient backend failure worth retrying.
func (e *Error) IsUnavailable() bool { return e != nil && e.Kind == KindUnavailable }

func kindOf(code codes.Code) Kind {
	switch code {
	case codes.NotFound:
		return KindNotFound
	case codes.Unavailable, codes.ResourceExhausted, codes.Internal, codes.DeadlineExceeded, codes.Aborted:
		return KindUnavailable
	default:
		return KindOther
	}
}

// WrapError classifies err by its gRPC status. Context errors are returned
// unchanged so callers can tell a cancelled request from a store outage.
func WrapError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case status.Code(err) == codes.Canceled:
		return context.Canceled
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.Op == "" {
			existing.Op = op
		}
		return existing
	}
	return &Error{Op: op, Kind: kindOf(status.Code(err)), Err: err}
}

// NotFound builds a not-found error for lookups that cannot match a document.
func NotFound(op, format string, args ...any) error {
	return &Error{Op: op, Kind: KindNotFound, Err: fmt.Errorf(format, args...)}
}

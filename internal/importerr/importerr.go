package importerr

import (
	"errors"
	"fmt"
)

// Kind classifies why an import failed. The set is closed.
type Kind int

const (
	UnsafeArchive Kind = iota + 1
	MalformedArchive
	UnresolvedReference
	InvalidPackage
	StorageFailure
)

func (k Kind) String() string {
	switch k {
	case UnsafeArchive:
		return "unsafe archive"
	case MalformedArchive:
		return "malformed archive"
	case UnresolvedReference:
		return "unresolved reference"
	case InvalidPackage:
		return "invalid package"
	case StorageFailure:
		return "storage failure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error lets errors.Is(err, importerr.MalformedArchive) match any wrapped *Error of that kind.
func (k Kind) Error() string { return k.String() }

// Error carries the kind, the operation that failed and the cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New wraps err with kind and op. A nil err still yields an error.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Errorf is New with a formatted cause.
func Errorf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Notice is the user-facing failure text for err.
func Notice(err error) string {
	switch KindOf(err) {
	case UnsafeArchive:
		return "Unsafe files detected."
	case MalformedArchive:
		return "Incorrect archive structure."
	case UnresolvedReference:
		return "The archive references content that could not be found."
	case InvalidPackage:
		return "The interactive content package is invalid."
	case StorageFailure:
		return "The course could not be saved."
	}
	return "The course could not be imported."
}

package resampler

import "github.com/pkg/errors"

// ErrorKind classifies an op failure.
type ErrorKind int

// Failure classes surfaced by the resampler ops. All of them are detected
// synchronously, before any parallel computation starts; no error can
// occur mid-computation.
const (
	// InvalidArgument: shape/rank/dimension mismatches, or an unrecognized
	// kernel name at construction time.
	InvalidArgument ErrorKind = iota
	// Unimplemented: input rank or warp trailing dimension outside the
	// supported 4D-image / 2D-warp case.
	Unimplemented
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid argument"
	case Unimplemented:
		return "unimplemented"
	default:
		return "unknown"
	}
}

// Error is a structured op failure naming what was violated.
type Error struct {
	Kind ErrorKind
	err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.err.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

func invalidArgumentf(format string, args ...any) error {
	return &Error{Kind: InvalidArgument, err: errors.Errorf(format, args...)}
}

func unimplementedf(format string, args ...any) error {
	return &Error{Kind: Unimplemented, err: errors.Errorf(format, args...)}
}

// IsInvalidArgument reports whether err is an InvalidArgument op error.
func IsInvalidArgument(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == InvalidArgument
}

// IsUnimplemented reports whether err is an Unimplemented op error.
func IsUnimplemented(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == Unimplemented
}

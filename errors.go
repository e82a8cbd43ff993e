package rescale

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedFormat is matched by every *UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrInvalidSourceDimension is returned when the source image reports a zero width or height.
	ErrInvalidSourceDimension = errors.New("source image has an invalid dimension")

	// ErrInvalidRequest is returned when neither axis of a resize request is
	// constrained, or when a constrained axis is not positive.
	ErrInvalidRequest = errors.New("invalid resize request")

	// ErrDegenerateSize is returned together with the computed size when
	// integer truncation drives one of the target dimensions to zero.
	ErrDegenerateSize = errors.New("resize produces a zero dimension")

	// ErrEncode wraps failures reported by the encoder of the output format.
	ErrEncode = errors.New("could not encode the image")
)

// UnsupportedFormatError carries the name of the rejected image type or file extension.
type UnsupportedFormatError struct {
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s is unsupported file type", e.Name)
}

// Is reports ErrUnsupportedFormat as the kind of this error.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// encodeError keeps the codec failure reachable through errors.Cause
// while errors.Is(err, ErrEncode) still holds.
type encodeError struct {
	format Format
	cause  error
}

func (e *encodeError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrEncode, e.format, e.cause)
}

func (e *encodeError) Is(target error) bool { return target == ErrEncode }

func (e *encodeError) Cause() error { return e.cause }

func (e *encodeError) Unwrap() error { return e.cause }

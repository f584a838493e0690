package normalize

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/handiism/audio-normalizer/internal/model"
)

var (
	// ErrDecode matches any *DecodeError.
	ErrDecode = errors.New("decode failure")

	// ErrEncode matches any *EncodeError.
	ErrEncode = errors.New("encode failure")

	// ErrOutputIsInput is returned when the output would overwrite the source.
	ErrOutputIsInput = errors.New("output path is the input file")
)

// DecodeError reports an input that could not be read as audio. Nothing is
// written for it.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// EncodeError reports an output that could not be written. Any partial
// output has been removed.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *EncodeError) Unwrap() []error {
	return []error{ErrEncode, e.Err}
}

// Kind classifies an error returned by Engine.Normalize for reporting at a
// boundary: "decode_failure", "encode_failure", "invalid_spec" or
// "internal".
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrDecode):
		return "decode_failure"
	case errors.Is(err, ErrEncode):
		return "encode_failure"
	case errors.Is(err, model.ErrInvalidSpec):
		return "invalid_spec"
	default:
		return "internal"
	}
}

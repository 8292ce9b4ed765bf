// Package errs defines the sentinel errors shared across apitrace packages.
//
// Decode paths wrap these with positional context using fmt.Errorf and %w,
// so callers can match them with errors.Is regardless of the added offset
// information.
package errs

import "errors"

var (
	// ErrUnsupportedVersion indicates the trace header carries a version this
	// build does not understand.
	ErrUnsupportedVersion = errors.New("unsupported trace version")

	// ErrBadMagic indicates a container file whose magic bytes are malformed.
	ErrBadMagic = errors.New("invalid container magic")

	// ErrUnknownCompression indicates a container codec byte outside the
	// known compression types.
	ErrUnknownCompression = errors.New("unknown container compression")

	// ErrUnknownEvent indicates an event tag outside the defined set.
	ErrUnknownEvent = errors.New("unknown event type")

	// ErrUnknownDetail indicates a call detail tag outside the defined set.
	ErrUnknownDetail = errors.New("unknown call detail type")

	// ErrUnknownValue indicates a value tag outside the defined set.
	ErrUnknownValue = errors.New("unknown value type")

	// ErrDanglingSignature indicates a reference to a signature id that was
	// never registered and has no definition at the current offset.
	ErrDanglingSignature = errors.New("dangling signature reference")

	// ErrTruncated indicates the stream ended inside a record.
	ErrTruncated = errors.New("truncated trace stream")

	// ErrBadLeaveIndex indicates a leave event referencing a call that is not
	// pending.
	ErrBadLeaveIndex = errors.New("leave event references unknown call")

	// ErrReplayOnly indicates an operation that is meaningless on a cached
	// replayer, such as opening it as a file-backed parser.
	ErrReplayOnly = errors.New("operation not supported on cached replay")
)

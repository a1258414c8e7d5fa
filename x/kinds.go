package x

import "github.com/pkg/errors"

// Error kinds named in the error handling design. Each is a sentinel that
// lets callers distinguish failure classes with errors.Is, while the wrapped
// message carries the specific detail.
var (
	// ErrInvalidIndex marks a header/trailer mismatch or truncated section
	// encountered while decoding an on-disk index file.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrSpawnFailed marks a failure to launch an external indexer or
	// searcher process.
	ErrSpawnFailed = errors.New("failed to spawn process")
)

// WrapInvalid annotates ErrInvalidIndex with a formatted reason.
func WrapInvalid(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidIndex, format, args...)
}

// WrapSpawn annotates ErrSpawnFailed with the underlying spawn error.
func WrapSpawn(err error, format string, args ...interface{}) error {
	reason := errors.Wrapf(ErrSpawnFailed, format, args...)
	return errors.Wrapf(reason, "%v", err)
}

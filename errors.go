package yamlsplice

import "errors"

var (
	// ErrInvalidPointer is returned when a pointer is malformed or does not resolve.
	ErrInvalidPointer = errors.New("yamlsplice: invalid pointer")
	// ErrNotAContainer is returned when an insert targets a scalar.
	ErrNotAContainer = errors.New("yamlsplice: not a container")
	// ErrUnsupportedStyle is returned for source formatting the engine cannot replay.
	ErrUnsupportedStyle = errors.New("yamlsplice: unsupported style")
	// ErrSerialization is returned when a fix payload cannot be rendered.
	ErrSerialization = errors.New("yamlsplice: serialization error")
	// ErrConflictingEdits is returned when edits of one batch overlap without being identical.
	ErrConflictingEdits = errors.New("yamlsplice: conflicting edits")
	// ErrUnsupportedOperation is returned for JSON Patch ops other than add, replace and test.
	ErrUnsupportedOperation = errors.New("yamlsplice: unsupported operation")
	// ErrTestFailed is returned when a JSON Patch "test" op does not match.
	ErrTestFailed = errors.New("yamlsplice: test operation failed")
	// ErrParse is returned when the source document cannot be parsed.
	ErrParse = errors.New("yamlsplice: parse error")
)

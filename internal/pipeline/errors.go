package pipeline

import "errors"

// Fatal errors abort a Run before any Report is produced, per spec.md §7.
var (
	ErrRootNotFound     = errors.New("root does not exist")
	ErrRootNotDirectory = errors.New("root is not a directory")
	ErrRootUnreadable   = errors.New("root is not readable")
	ErrCancelled        = errors.New("run cancelled")
)

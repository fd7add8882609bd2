package hub

import "errors"

var (
	// ErrNotFound signals an operation on a never-registered integration id.
	// It is the one structural-misuse case surfaced as an error from sync.
	ErrNotFound = errors.New("integration not found")

	// ErrDuplicateID is returned when registering an id that already exists.
	ErrDuplicateID = errors.New("integration id already registered")

	// ErrUnsupportedType is returned when a declared type resolves to no
	// registered manager.
	ErrUnsupportedType = errors.New("unsupported integration type")

	// ErrDisabled is returned when syncing a disabled integration.
	ErrDisabled = errors.New("integration is disabled")

	// ErrDuplicateManager is returned when two managers claim the same type.
	ErrDuplicateManager = errors.New("manager type already registered")
)

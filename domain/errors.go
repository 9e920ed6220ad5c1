package domain

import "errors"

var (
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound = errors.New("Your requested Item is not found")
	// ErrBadParamInput will throw if the given request-body or params is not valid
	ErrBadParamInput = errors.New("Given Param is not valid")

	ErrUnsupportedSchema   = errors.New("Unsupported schema")
	ErrInvalidJsonFormat   = errors.New("invalid JSON format")
	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidAddress      = errors.New("Invalid address")

	// ErrTerminalConfiguration indicates a collaborator is missing required
	// credentials or addresses; fatal at startup, never retried
	ErrTerminalConfiguration = errors.New("terminal configuration error")

	// ErrRefreshFailed indicates a whole synchronization cycle failed; the
	// previous catalog snapshot stays in place
	ErrRefreshFailed = errors.New("catalog refresh failed")
)

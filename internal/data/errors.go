package data

import "github.com/target/creditfeed/internal/core"

// Repository sentinels, shared with the in-memory stores through core.
var (
	ErrUserNotFound    = core.ErrUserNotFound
	ErrUserEmailExists = core.ErrUserEmailExists
)

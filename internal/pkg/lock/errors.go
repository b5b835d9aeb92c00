package lock

import "errors"

// ErrLockTimeout means another balance operation for the same user held the
// lock for the whole wait.
var ErrLockTimeout = errors.New("user lock wait timed out")

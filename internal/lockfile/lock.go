// Package lockfile provides the advisory file lock guarding a
// snapshot during apply (spec §4.9, §5): the Planner owns the
// snapshot file exclusively for the duration of one apply, and a
// concurrent invocation must fail fast rather than interleave writes.
package lockfile

import "errors"

// ErrLockBusy is returned when a non-blocking lock cannot be acquired
// because another process already holds it.
var ErrLockBusy = errors.New("snapshot lock busy: held by another process")

// Package testutil contains fluent builders for assembling experiments and
// exposure batches in tests. Internal: not part of the public API surface
// and free to change without notice.
package testutil

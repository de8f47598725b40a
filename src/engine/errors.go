package engine

// Add custom error definitions here
import "errors"

// ErrFileIDRequired is returned by Save when the document carries no id.
var ErrFileIDRequired = errors.New("document id is required")

// ErrFileNotFound is returned by Get for an absent id. Exists and
// Remove never return it: absence is a normal result for those.
var ErrFileNotFound = errors.New("file not found")

// ErrCorruptSnapshot is wrapped by every structural decode failure in
// the snapshot codec. Fatal at startup, logged and swallowed during
// checkpointing.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

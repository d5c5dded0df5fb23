package value

import "errors"

// Sentinel errors returned by Form.CheckHeapPtrs, the debug-only whole-heap
// invariant audit.
var (
	errBadOwner    = errors.New("value: slice owner handle does not resolve")
	errOutOfBounds = errors.New("value: origin/length out of bounds for owner")
)

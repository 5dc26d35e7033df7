package reservoir

import "errors"

// Precondition violations: programmer errors reported as errors rather
// than assertions, so a caller can choose how to surface them.
var (
	// ErrCapacityTooSmall is returned when a sampler is constructed with k < 1.
	ErrCapacityTooSmall = errors.New("reservoir: capacity k must be at least 1")

	// ErrWouldBeConsidered is returned by SkipNext when the next offered
	// element would actually be examined, violating SkipNext's precondition.
	ErrWouldBeConsidered = errors.New("reservoir: SkipNext called when the next element would be considered")

	// ErrJumpExceedsSkip is returned by JumpAhead when asked to advance
	// further than the remaining skip count allows.
	ErrJumpExceedsSkip = errors.New("reservoir: JumpAhead exceeds the remaining skip count")

	// ErrAlreadyAllocated is returned by Allocate when the reservoir backing
	// storage has already been allocated.
	ErrAlreadyAllocated = errors.New("reservoir: Allocate called on an already-allocated sampler")

	// ErrStaticBufferNotEmpty is returned by the static constructors when the
	// caller-supplied backing slice is non-empty or has no spare capacity.
	ErrStaticBufferNotEmpty = errors.New("reservoir: static backing slice must have length 0 and capacity >= 1")
)

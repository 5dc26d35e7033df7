package reservoir

import "golang.org/x/exp/constraints"

// Weight is the numeric constraint for the weighted samplers'
// caller-supplied weight type: any arithmetic scalar, promoted to a
// floating-point key type for the sampling arithmetic.
type Weight interface {
	constraints.Integer | constraints.Float
}

// UnsignedWeight is the narrower constraint required by
// LinearWeightedSampler, whose replacement rule does no floating-point
// math and so needs an unsigned integer weight it can compare directly.
type UnsignedWeight interface {
	constraints.Unsigned
}

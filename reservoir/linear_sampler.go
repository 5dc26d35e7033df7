package reservoir

// LinearWeightedSampler is a k=1 weighted reservoir-of-one: cheaper per
// element than WeightedSampler for the regime it targets (small streams,
// integer weights) because it carries no skip protocol and no heap.
//
// The caller is responsible for ensuring the running weight sum fits in W;
// this is documented precondition territory, not something the sampler
// enforces.
type LinearWeightedSampler[T any, W UnsignedWeight] struct {
	weightSum W
	current   *T
	rng       Source
}

// NewLinearWeightedSampler creates an empty sampler. rng may be nil, in
// which case the sampler owns a private, nondeterministically seeded
// generator.
func NewLinearWeightedSampler[T any, W UnsignedWeight](rng Source) *LinearWeightedSampler[T, W] {
	return &LinearWeightedSampler[T, W]{rng: sourceOrDefault(rng)}
}

// Sample offers one (weight, element) pair. weight == 0 is domain-benign
// and leaves the sampler untouched. The very first positively-weighted
// element is always retained, without consuming an RNG draw; every
// subsequent one replaces the incumbent with probability weight/weightSum.
func (s *LinearWeightedSampler[T, W]) Sample(weight W, item T) {
	if weight == 0 {
		return
	}
	s.weightSum += weight

	if s.current == nil {
		v := item
		s.current = &v
		return
	}

	// Draw in uint64 space: weightSum is only guaranteed to fit in W (which
	// may itself be uint64), not in int. The draw is below weightSum, so it
	// converts back to W without loss for the comparison.
	r := W(uniformUint64n(s.rng, uint64(s.weightSum)))
	if r < weight {
		*s.current = item
	}
}

// Current returns the retained element and true, or the zero value and
// false if nothing has been sampled yet.
func (s *LinearWeightedSampler[T, W]) Current() (T, bool) {
	if s.current == nil {
		var zero T
		return zero, false
	}
	return *s.current, true
}

// WeightSum returns the running total of all positive weights offered.
func (s *LinearWeightedSampler[T, W]) WeightSum() W { return s.weightSum }

// IsEmpty returns true if no positively-weighted element has been offered.
func (s *LinearWeightedSampler[T, W]) IsEmpty() bool { return s.current == nil }

// Reset clears the sampler back to its empty state.
func (s *LinearWeightedSampler[T, W]) Reset() {
	s.weightSum = 0
	s.current = nil
}

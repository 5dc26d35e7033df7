package reservoir

import (
	"fmt"
	"strings"
)

// Union merges independent UniformSampler instances into one statistically
// valid sample of their combined stream — useful when, for example, each
// shard of a distributed stream maintains its own local sampler and the
// shards' results must be combined into a single uniform sample of the
// whole.
//
// Merging dispatches on the fill state of both sides: two still-filling
// samplers merge item by item, a still-filling sampler merged into a full
// one swaps roles and replays the smaller one through the larger, and two
// full samplers merge via a weighted coin flip keyed on each one's implicit
// per-item weight (N/K), always folding the "lighter" sampler into the
// "heavier" one.
type Union[T any] struct {
	maxK   int
	gadget *UniformSampler[T]
	rng    Source
}

// NewUnion creates a union that produces a combined sample of at most maxK
// elements.
func NewUnion[T any](maxK int, rng Source) (*Union[T], error) {
	if maxK < 1 {
		return nil, ErrCapacityTooSmall
	}
	return &Union[T]{
		maxK: maxK,
		rng:  sourceOrDefault(rng),
	}, nil
}

// Update offers a single element directly to the union's running sample.
func (u *Union[T]) Update(item T) {
	if u.gadget == nil {
		u.gadget, _ = NewUniformSamplerDynamic[T](u.maxK, u.rng)
	}
	u.gadget.Sample(item)
}

// UpdateSampler merges another sampler's current sample into this union.
// The source sampler is read-only here: its own state is never mutated
// (its retained elements are copied into the union's gadget).
func (u *Union[T]) UpdateSampler(source *UniformSampler[T]) error {
	if source == nil || source.IsEmpty() {
		return nil
	}

	src := source
	if source.K() > u.maxK {
		downsampled, err := downsampleUniform(source, u.maxK, u.rng)
		if err != nil {
			return err
		}
		src = downsampled
	}

	if u.gadget == nil || u.gadget.IsEmpty() {
		return u.createGadget(src)
	}

	u.mergeInto(src)
	return nil
}

// downsampleUniform produces an independent UniformSampler of capacity
// newK whose sample is a valid further down-sampling of source's current
// reservoir, preserving source's implicit N for correct downstream
// weighting.
func downsampleUniform[T any](source *UniformSampler[T], newK int, rng Source) (*UniformSampler[T], error) {
	result, err := NewUniformSamplerDynamic[T](newK, rng)
	if err != nil {
		return nil, err
	}
	for _, item := range source.PeekResult() {
		result.Sample(item)
	}
	if result.n < source.n {
		result.forceIncrementSeen(source.n - result.n)
	}
	return result, nil
}

func (u *Union[T]) createGadget(source *UniformSampler[T]) error {
	if source.K() < u.maxK && source.N() <= int64(source.K()) {
		var err error
		u.gadget, err = NewUniformSamplerDynamic[T](u.maxK, u.rng)
		if err != nil {
			return err
		}
		u.mergeExactInto(source)
		return nil
	}
	u.gadget = source.Copy()
	return nil
}

// mergeInto dispatches on the fill state of both sides.
func (u *Union[T]) mergeInto(source *UniformSampler[T]) {
	switch {
	case source.N() <= int64(source.K()):
		// source is exact (has retained every item it saw, N <= K): merge
		// item by item.
		u.mergeExactInto(source)
	case u.gadget.N() < int64(u.gadget.K()):
		// gadget is exact, source is sampling: source becomes the new
		// gadget, and the old gadget's items are merged into it instead.
		old := u.gadget
		u.gadget = source.Copy()
		u.mergeExactInto(old)
	case source.implicitSampleWeight() < float64(u.gadget.N())/float64(u.gadget.K()-1):
		// both sampling, source is the "lighter" one: merge it into gadget.
		u.mergeWeightedInto(source)
	default:
		// both sampling, gadget is the "lighter" one: swap roles.
		old := u.gadget
		u.gadget = source.Copy()
		u.mergeWeightedInto(old)
	}
}

func (u *Union[T]) mergeExactInto(source *UniformSampler[T]) {
	for _, item := range source.PeekResult() {
		u.gadget.Sample(item)
	}
}

// mergeWeightedInto merges a "lighter" sampler into gadget with the
// weighted-coin-flip rule p(keep) = (k * w) / runningTotal, where w is the
// source's per-retained-item implicit weight.
func (u *Union[T]) mergeWeightedInto(source *UniformSampler[T]) {
	numSourceSamples := source.K()
	sourceItemWeight := float64(source.N()) / float64(numSourceSamples)
	rescaledProb := float64(u.gadget.K()) * sourceItemWeight
	runningTotal := float64(u.gadget.N())
	tgtK := u.gadget.K()

	for i := 0; i < numSourceSamples; i++ {
		runningTotal += sourceItemWeight
		if runningTotal*u.rng.Float64() < rescaledProb {
			slot := uniformIntn(u.rng, tgtK)
			u.gadget.setValueAt(slot, source.valueAt(i))
		}
	}

	u.gadget.forceIncrementSeen(source.N())
}

// Result returns a deep copy of the union's combined sample.
func (u *Union[T]) Result() (*UniformSampler[T], error) {
	if u.gadget == nil {
		return NewUniformSamplerDynamic[T](u.maxK, u.rng)
	}
	return u.gadget.Copy(), nil
}

// MaxK returns the maximum combined sample size.
func (u *Union[T]) MaxK() int { return u.maxK }

// Reset clears the union back to its empty state.
func (u *Union[T]) Reset() { u.gadget = nil }

// String returns a human-readable summary of the union, without items.
func (u *Union[T]) String() string {
	var sb strings.Builder
	sb.WriteString("### Union SUMMARY:\n")
	sb.WriteString(fmt.Sprintf("   max k: %d\n", u.maxK))
	if u.gadget == nil {
		sb.WriteString("   gadget is empty\n")
	} else {
		sb.WriteString(fmt.Sprintf("   gadget n      : %d\n", u.gadget.N()))
		sb.WriteString(fmt.Sprintf("   gadget k      : %d\n", u.gadget.K()))
		sb.WriteString(fmt.Sprintf("   gadget filled : %d\n", u.gadget.Filled()))
	}
	sb.WriteString("### END UNION SUMMARY\n")
	return sb.String()
}

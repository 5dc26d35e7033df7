package reservoir

import (
	"container/heap"
	"fmt"
	"math"
	"strings"
)

// WeightedSampler maintains a weight-proportional random subset of size up
// to k drawn from a stream of unknown length, using Algorithm A-ExpJ
// (Efraimidis & Spirakis, 2006): a min-heap of keys r_i = u_i^(1/w_i) keeps
// the k largest keys seen, which is exactly the set whose inclusion
// probability is proportional to weight; a weight budget drawn in
// log-space lets the sampler skip ahead past elements that cannot possibly
// displace the current weakest incumbent.
//
// The same type backs both the dynamic-capacity and static-capacity
// variants; see NewWeightedSamplerDynamic and NewWeightedSamplerStatic.
type WeightedSampler[T any, W Weight] struct {
	k         int
	n         int64
	filled    int
	data      []T
	heap      keyHeap
	allocated bool
	static    bool
	rng       Source

	weightBudget float64 // meaningful only once filled == k
}

// WeightedOption configures a WeightedSampler at construction time.
type WeightedOption func(*weightedConfig)

type weightedConfig struct {
	eagerAllocate bool
}

// WithWeightedEagerAllocation allocates the dynamic reservoir immediately
// at construction instead of lazily on the first Sample/SampleFunc call.
func WithWeightedEagerAllocation() WeightedOption {
	return func(c *weightedConfig) {
		c.eagerAllocate = true
	}
}

// NewWeightedSamplerDynamic creates a weighted sampler with runtime
// capacity k. rng may be nil, in which case the sampler owns a private,
// nondeterministically seeded generator.
func NewWeightedSamplerDynamic[T any, W Weight](k int, rng Source, opts ...WeightedOption) (*WeightedSampler[T, W], error) {
	if k < 1 {
		return nil, ErrCapacityTooSmall
	}
	cfg := &weightedConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	s := &WeightedSampler[T, W]{
		k:   k,
		rng: sourceOrDefault(rng),
	}
	if cfg.eagerAllocate {
		if err := s.Allocate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewWeightedSamplerStatic creates a weighted sampler whose reservoir
// storage is the caller-supplied slice buf (see NewUniformSamplerStatic for
// the same convention). cap(buf) becomes k.
func NewWeightedSamplerStatic[T any, W Weight](buf []T, rng Source, opts ...WeightedOption) (*WeightedSampler[T, W], error) {
	if len(buf) != 0 || cap(buf) < 1 {
		return nil, ErrStaticBufferNotEmpty
	}
	_ = opts
	k := cap(buf)
	return &WeightedSampler[T, W]{
		k:         k,
		data:      buf,
		heap:      make(keyHeap, 0, k),
		allocated: true,
		static:    true,
		rng:       sourceOrDefault(rng),
	}, nil
}

// K returns the reservoir capacity.
func (s *WeightedSampler[T, W]) K() int { return s.k }

// N returns the total number of positively-weighted elements offered.
// Zero- and negative-weight elements leave the sampler untouched and do
// not count here.
func (s *WeightedSampler[T, W]) N() int64 { return s.n }

// Filled returns the number of elements currently retained, min(n, k).
func (s *WeightedSampler[T, W]) Filled() int { return s.filled }

// IsEmpty returns true if no positively-weighted element has been offered.
func (s *WeightedSampler[T, W]) IsEmpty() bool { return s.n == 0 }

// Allocate eagerly allocates the dynamic reservoir's backing storage.
// Calling it twice, including on a statically-constructed sampler, is a
// precondition violation (ErrAlreadyAllocated).
func (s *WeightedSampler[T, W]) Allocate() error {
	if s.allocated {
		return ErrAlreadyAllocated
	}
	s.data = make([]T, 0, s.k)
	s.heap = make(keyHeap, 0, s.k)
	s.allocated = true
	return nil
}

func (s *WeightedSampler[T, W]) ensureAllocated() {
	if !s.allocated {
		s.data = make([]T, 0, s.k)
		s.heap = make(keyHeap, 0, s.k)
		s.allocated = true
	}
}

// WillNextBeConsidered reports whether offering weight w next would cause
// the sampler to actually examine its paired element. During the filling
// phase every positively-weighted element is considered, so this is
// unconditionally true there. Once full, it is true iff
// weightBudget - w <= 0, i.e. offering w would
// exhaust the budget.
func (s *WeightedSampler[T, W]) WillNextBeConsidered(w W) bool {
	if s.filled < s.k {
		return true
	}
	return s.weightBudget-float64(w) <= 0
}

// SkipNext declares that an element of weight w has passed without being
// materialized. Precondition: WillNextBeConsidered(w) is false; violating
// it returns ErrWouldBeConsidered and leaves state unchanged. w <= 0 is a
// no-op (nothing to skip).
func (s *WeightedSampler[T, W]) SkipNext(w W) error {
	if w <= 0 {
		return nil
	}
	if s.WillNextBeConsidered(w) {
		return ErrWouldBeConsidered
	}
	s.weightBudget -= float64(w)
	s.n++
	return nil
}

// Sample offers one (weight, element) pair. weight <= 0 is domain-benign:
// the element is treated as absent from the stream and the sampler's state
// does not change at all.
func (s *WeightedSampler[T, W]) Sample(weight W, item T) {
	if weight <= 0 {
		return
	}
	w := float64(weight)
	s.ensureAllocated()
	s.n++

	if s.filled < s.k {
		u := uniformOpen01(s.rng)
		r := math.Pow(u, 1/w)
		heap.Push(&s.heap, heapEntry{key: r, slot: s.filled})
		s.data = append(s.data, item)
		s.filled++
		if s.filled == s.k {
			s.weightBudget = s.drawBudget()
		}
		return
	}

	s.weightBudget -= w
	if s.weightBudget > 0 {
		return
	}

	root := s.heap[0]
	t := math.Pow(root.key, w)
	// Uniform draw from (t, 1); landing exactly on t is tolerated (the new
	// key then equals the old root key, so the heap order is unchanged; the
	// new element still takes over the root's slot).
	u := t + (1-t)*s.rng.Float64()
	r := math.Pow(u, 1/w)

	s.heap[0] = heapEntry{key: r, slot: root.slot}
	heap.Fix(&s.heap, 0)
	s.data[root.slot] = item

	s.weightBudget = s.drawBudget()
}

// SampleFunc offers a lazily-constructed element paired with weight: factory
// is invoked only if the element would actually be considered. weight <= 0
// never invokes factory.
func (s *WeightedSampler[T, W]) SampleFunc(weight W, factory func() T) {
	if weight <= 0 {
		return
	}
	if !s.WillNextBeConsidered(weight) {
		_ = s.SkipNext(weight)
		return
	}
	s.Sample(weight, factory())
}

// drawBudget draws weightBudget = ln(u)/ln(root.key) for the current heap
// root, a positive real since root.key is strictly in (0, 1).
func (s *WeightedSampler[T, W]) drawBudget() float64 {
	u := uniformOpen01(s.rng)
	return math.Log(u) / math.Log(s.heap[0].key)
}

// PeekResult returns a borrowed view over the retained elements. The view
// is invalidated by any subsequent mutating call on the sampler. Element
// order within the reservoir is unspecified.
func (s *WeightedSampler[T, W]) PeekResult() []T {
	if !s.allocated {
		return nil
	}
	return s.data[:s.filled]
}

// ConsumeResult copies out the retained elements and resets the sampler to
// its empty state in one step.
func (s *WeightedSampler[T, W]) ConsumeResult() []T {
	out := make([]T, s.filled)
	if s.allocated {
		copy(out, s.data[:s.filled])
	}
	s.Reset()
	return out
}

// Reset clears all retained elements and returns the sampler to the empty
// state, preserving K() and the backing storage for reuse.
func (s *WeightedSampler[T, W]) Reset() {
	if s.allocated {
		var zero T
		for i := 0; i < s.filled; i++ {
			s.data[i] = zero
		}
		s.data = s.data[:0]
		s.heap = s.heap[:0]
	}
	s.filled = 0
	s.n = 0
	s.weightBudget = 0
}

// Copy returns a deep copy of the sampler: retained elements and heap state
// are duplicated into fresh storage. As with UniformSampler.Copy, the RNG
// itself is not deep-copied; see that method's documentation.
func (s *WeightedSampler[T, W]) Copy() *WeightedSampler[T, W] {
	out := &WeightedSampler[T, W]{
		k:            s.k,
		n:            s.n,
		filled:       s.filled,
		allocated:    s.allocated,
		static:       false,
		rng:          s.rng,
		weightBudget: s.weightBudget,
	}
	if s.allocated {
		out.data = make([]T, s.filled, s.k)
		copy(out.data, s.data[:s.filled])
		out.heap = make(keyHeap, len(s.heap), s.k)
		copy(out.heap, s.heap)
	}
	return out
}

// String returns a human-readable summary of the sampler, without items.
func (s *WeightedSampler[T, W]) String() string {
	var sb strings.Builder
	sb.WriteString("### WeightedSampler SUMMARY:\n")
	sb.WriteString(fmt.Sprintf("   k      : %d\n", s.k))
	sb.WriteString(fmt.Sprintf("   n      : %d\n", s.n))
	sb.WriteString(fmt.Sprintf("   filled : %d\n", s.filled))
	sb.WriteString(fmt.Sprintf("   static : %t\n", s.static))
	sb.WriteString("### END SAMPLER SUMMARY\n")
	return sb.String()
}

// heapEntry pairs a sampling key with the reservoir slot it currently
// occupies. The set of slots across all entries is always a permutation of
// {0, ..., filled-1}.
type heapEntry struct {
	key  float64
	slot int
}

// keyHeap is a min-heap by key: the root is always the smallest key in the
// reservoir, i.e. the weakest incumbent and the one eligible for eviction
// on the next replacement. See DESIGN.md for why the min-heap direction is
// the one that implements Efraimidis & Spirakis's A-ExpJ correctly and
// produces weight-proportional inclusion probabilities.
type keyHeap []heapEntry

func (h keyHeap) Len() int            { return len(h) }
func (h keyHeap) Less(i, j int) bool  { return h[i].key < h[j].key }
func (h keyHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *keyHeap) Push(x interface{}) { *h = append(*h, x.(heapEntry)) }
func (h *keyHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

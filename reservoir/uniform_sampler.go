package reservoir

import (
	"fmt"
	"math"
	"strings"
)

// UniformSampler maintains a uniformly random subset of size up to k drawn
// from a stream of unknown length, using Algorithm L (Li, 1994): once the
// reservoir is full, a geometric-distributed skip counter lets the sampler
// decline to even look at most incoming elements.
//
// The same type backs both the dynamic-capacity and static-capacity
// variants — they differ only in how the backing slice for the reservoir
// is obtained; see NewUniformSamplerDynamic and
// NewUniformSamplerStatic.
type UniformSampler[T any] struct {
	k         int
	n         int64
	filled    int
	data      []T
	allocated bool
	static    bool
	rng       Source

	w         float64 // current Algorithm L jump parameter, meaningful once filled == k
	skipCount int64   // remaining elements to discard before the next replacement
}

// UniformOption configures a UniformSampler at construction time.
type UniformOption func(*uniformConfig)

type uniformConfig struct {
	eagerAllocate bool
}

// WithEagerAllocation allocates the dynamic reservoir immediately at
// construction instead of lazily on the first Sample/SampleFunc call.
// Has no effect on the static constructor, whose backing storage is always
// supplied by the caller up front.
func WithEagerAllocation() UniformOption {
	return func(c *uniformConfig) {
		c.eagerAllocate = true
	}
}

// NewUniformSamplerDynamic creates a uniform sampler with runtime capacity
// k. The backing reservoir is heap-allocated once, lazily on first
// acceptance unless WithEagerAllocation is given. rng may be nil, in which
// case the sampler owns a private, nondeterministically seeded generator.
func NewUniformSamplerDynamic[T any](k int, rng Source, opts ...UniformOption) (*UniformSampler[T], error) {
	if k < 1 {
		return nil, ErrCapacityTooSmall
	}
	cfg := &uniformConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	s := &UniformSampler[T]{
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

// NewUniformSamplerStatic creates a uniform sampler whose reservoir storage
// is the caller-supplied slice buf, typically backed by a fixed-size array
// the caller declares inline (e.g. `var a [8]T; a[:0]`). cap(buf) becomes
// k; the sampler itself never allocates the reservoir. buf must have length
// 0 and capacity at least 1.
func NewUniformSamplerStatic[T any](buf []T, rng Source, opts ...UniformOption) (*UniformSampler[T], error) {
	if len(buf) != 0 || cap(buf) < 1 {
		return nil, ErrStaticBufferNotEmpty
	}
	// opts accepted for API symmetry with the dynamic constructor; none
	// currently apply to a buffer the caller already allocated.
	_ = opts
	return &UniformSampler[T]{
		k:         cap(buf),
		data:      buf,
		allocated: true,
		static:    true,
		rng:       sourceOrDefault(rng),
	}, nil
}

// K returns the reservoir capacity.
func (s *UniformSampler[T]) K() int { return s.k }

// N returns the total number of elements offered (accepted or skipped).
func (s *UniformSampler[T]) N() int64 { return s.n }

// Filled returns the number of elements currently retained, min(n, k).
func (s *UniformSampler[T]) Filled() int { return s.filled }

// IsEmpty returns true if no elements have been offered.
func (s *UniformSampler[T]) IsEmpty() bool { return s.n == 0 }

// Allocate eagerly allocates the dynamic reservoir's backing storage. It is
// a precondition violation to call Allocate twice (ErrAlreadyAllocated),
// including on a sampler built with NewUniformSamplerStatic, whose storage
// is already provided.
func (s *UniformSampler[T]) Allocate() error {
	if s.allocated {
		return ErrAlreadyAllocated
	}
	s.data = make([]T, 0, s.k)
	s.allocated = true
	return nil
}

func (s *UniformSampler[T]) ensureAllocated() {
	if !s.allocated {
		s.data = make([]T, 0, s.k)
		s.allocated = true
	}
}

// WillNextBeConsidered reports whether the next call to Sample will
// actually examine its argument rather than silently discard it. During
// the filling phase (filled < k) every offered element is considered, so
// this is unconditionally true there.
func (s *UniformSampler[T]) WillNextBeConsidered() bool {
	if s.filled < s.k {
		return true
	}
	return s.skipCount == 0
}

// SkipNext declares that one stream element has passed without being
// materialized by the caller. Precondition: WillNextBeConsidered() is
// false; violating it returns ErrWouldBeConsidered and leaves state
// unchanged.
func (s *UniformSampler[T]) SkipNext() error {
	if s.WillNextBeConsidered() {
		return ErrWouldBeConsidered
	}
	s.skipCount--
	s.n++
	return nil
}

// SkippedCount returns the number of further elements that may be skipped
// before the next one is considered. Only meaningful once Filled() == K().
func (s *UniformSampler[T]) SkippedCount() int64 { return s.skipCount }

// JumpAhead advances past n elements in one step, equivalent to n calls to
// SkipNext. Precondition: n <= SkippedCount(); violating it returns
// ErrJumpExceedsSkip and leaves state unchanged.
func (s *UniformSampler[T]) JumpAhead(n int64) error {
	if n < 0 || n > s.skipCount {
		return ErrJumpExceedsSkip
	}
	s.skipCount -= n
	s.n += n
	return nil
}

// Sample offers one element to the reservoir. It is accepted unconditionally
// while filling, or replaces a uniformly random incumbent once the
// reservoir is full and the skip counter has reached zero; otherwise it is
// discarded and the skip counter decrements.
func (s *UniformSampler[T]) Sample(item T) {
	s.ensureAllocated()
	s.n++

	if s.filled < s.k {
		s.data = append(s.data, item)
		s.filled++
		if s.filled == s.k {
			s.beginSamplingPhase()
		}
		return
	}

	if s.skipCount == 0 {
		idx := uniformIntn(s.rng, s.k)
		s.data[idx] = item
		s.refreshSkipState()
		return
	}
	s.skipCount--
}

// SampleFunc offers a lazily-constructed element: factory is invoked only if
// the element would actually be considered, letting the caller avoid
// materializing stream elements the sampler would discard outright. This is
// the automatic form of the manual WillNextBeConsidered/SkipNext protocol.
func (s *UniformSampler[T]) SampleFunc(factory func() T) {
	if !s.WillNextBeConsidered() {
		_ = s.SkipNext()
		return
	}
	s.Sample(factory())
}

// beginSamplingPhase runs Algorithm L's transition step, executed exactly
// once, the moment the reservoir becomes full.
func (s *UniformSampler[T]) beginSamplingPhase() {
	s.w = 1.0
	s.refreshSkipState()
}

// refreshSkipState advances w by one Algorithm L jump and redraws the skip
// counter from it. Called both at the filling-to-sampling transition and
// after every replacement.
func (s *UniformSampler[T]) refreshSkipState() {
	u1 := uniformOpen01(s.rng)
	s.w *= math.Exp(math.Log(u1) / float64(s.k))

	u2 := uniformOpen01(s.rng)
	s.skipCount = geometricSkip(u2, s.w)
}

// geometricSkip computes floor(ln(u2) / ln(1-w)), the number of elements to
// skip before the next replacement under Algorithm L's jump parameter w.
// ln(1-w) is computed via math.Log1p for precision as w approaches 0.
func geometricSkip(u2, w float64) int64 {
	ln1mw := math.Log1p(-w)
	val := math.Floor(math.Log(u2) / ln1mw)
	if val < 0 || math.IsNaN(val) {
		return 0
	}
	if math.IsInf(val, 1) || val > float64(math.MaxInt64) {
		return math.MaxInt64
	}
	return int64(val)
}

// PeekResult returns a borrowed view over the retained elements. The view
// is invalidated by any subsequent mutating call on the sampler. Element
// order within the reservoir is unspecified.
func (s *UniformSampler[T]) PeekResult() []T {
	if !s.allocated {
		return nil
	}
	return s.data[:s.filled]
}

// ConsumeResult copies out the retained elements and resets the sampler to
// its empty state in one step.
func (s *UniformSampler[T]) ConsumeResult() []T {
	out := make([]T, s.filled)
	if s.allocated {
		copy(out, s.data[:s.filled])
	}
	s.Reset()
	return out
}

// Reset clears all retained elements and returns the sampler to the empty
// state, preserving K() and the backing storage (capacity k) for reuse.
func (s *UniformSampler[T]) Reset() {
	if s.allocated {
		var zero T
		for i := 0; i < s.filled; i++ {
			s.data[i] = zero
		}
		s.data = s.data[:0]
	}
	s.filled = 0
	s.n = 0
	s.w = 0
	s.skipCount = 0
}

// Copy returns a deep copy of the sampler: retained elements are duplicated
// into fresh storage. The RNG is not deep-copied — Source exposes no way to
// clone arbitrary generator state — so the copy shares the same Source as
// the original (matching Go's lack of value semantics for interfaces
// holding a pointer-like generator); this means two copies sampled further
// will diverge from the same point in one shared stream, not from
// identical independent streams. Document this caveat to callers who need
// statistically independent copies.
func (s *UniformSampler[T]) Copy() *UniformSampler[T] {
	out := &UniformSampler[T]{
		k:         s.k,
		n:         s.n,
		filled:    s.filled,
		allocated: s.allocated,
		static:    false, // a copy always owns freshly allocated storage
		rng:       s.rng,
		w:         s.w,
		skipCount: s.skipCount,
	}
	if s.allocated {
		out.data = make([]T, s.filled, s.k)
		copy(out.data, s.data[:s.filled])
	}
	return out
}

// String returns a human-readable summary of the sampler, without items.
func (s *UniformSampler[T]) String() string {
	var sb strings.Builder
	sb.WriteString("### UniformSampler SUMMARY:\n")
	sb.WriteString(fmt.Sprintf("   k      : %d\n", s.k))
	sb.WriteString(fmt.Sprintf("   n      : %d\n", s.n))
	sb.WriteString(fmt.Sprintf("   filled : %d\n", s.filled))
	sb.WriteString(fmt.Sprintf("   static : %t\n", s.static))
	sb.WriteString("### END SAMPLER SUMMARY\n")
	return sb.String()
}

// valueAt, setValueAt and forceIncrementSeen are unexported accessors used
// by Union to merge samplers without exposing raw slot indices on the
// public API.
func (s *UniformSampler[T]) valueAt(pos int) T {
	return s.data[pos]
}

func (s *UniformSampler[T]) setValueAt(pos int, item T) {
	s.data[pos] = item
}

func (s *UniformSampler[T]) forceIncrementSeen(delta int64) {
	s.n += delta
}

// implicitSampleWeight returns n/k once sampling, or 1.0 while filling —
// each retained element represents this many original stream elements.
// Used internally by Union's weighted merge.
func (s *UniformSampler[T]) implicitSampleWeight() float64 {
	if s.n < int64(s.k) {
		return 1.0
	}
	return float64(s.n) / float64(s.k)
}

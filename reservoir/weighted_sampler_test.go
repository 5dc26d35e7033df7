package reservoir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWeightedSamplerDynamic_RejectsNonPositiveK(t *testing.T) {
	_, err := NewWeightedSamplerDynamic[string, int](0, newRNG(1))
	assert.ErrorIs(t, err, ErrCapacityTooSmall)
}

func TestNewWeightedSamplerStatic_RequiresEmptySpareBuffer(t *testing.T) {
	nonEmpty := []string{"x"}
	_, err := NewWeightedSamplerStatic[string, int](nonEmpty, newRNG(1))
	assert.ErrorIs(t, err, ErrStaticBufferNotEmpty)

	var buf [2]string
	s, err := NewWeightedSamplerStatic[string, int](buf[:0], newRNG(1))
	require.NoError(t, err)
	assert.Equal(t, 2, s.K())
}

func TestWeightedSampler_ZeroAndNegativeWeightsAreNoOps(t *testing.T) {
	s, err := NewWeightedSamplerDynamic[string, int](2, newRNG(1))
	require.NoError(t, err)

	s.Sample(0, "ignored")
	s.Sample(-1, "ignored")

	assert.True(t, s.IsEmpty())
	assert.Equal(t, int64(0), s.N())
}

func TestWeightedSampler_FillingPhaseRetainsEverything(t *testing.T) {
	s, err := NewWeightedSamplerDynamic[string, int](3, newRNG(42))
	require.NoError(t, err)

	s.Sample(1, "a")
	s.Sample(1, "b")
	s.Sample(1, "c")

	assert.Equal(t, 3, s.Filled())
	assert.ElementsMatch(t, []string{"a", "b", "c"}, s.PeekResult())
}

func TestWeightedSampler_ZeroWeightElementNeverAppears(t *testing.T) {
	rng := newRNG(11)
	for trial := 0; trial < 200; trial++ {
		s, err := NewWeightedSamplerDynamic[string, int](3, rng)
		require.NoError(t, err)

		s.Sample(1, "a")
		s.Sample(1, "b")
		s.Sample(0, "poison")
		s.Sample(1, "c")
		s.Sample(1, "d")

		for _, v := range s.PeekResult() {
			assert.NotEqual(t, "poison", v)
		}
	}
}

func TestWeightedSampler_EqualWeightsApproachUniformFrequency(t *testing.T) {
	const trials = 12000
	counts := map[string]int{"a": 0, "b": 0, "c": 0}
	rng := newRNG(2024)

	for trial := 0; trial < trials; trial++ {
		s, err := NewWeightedSamplerDynamic[string, int](1, rng)
		require.NoError(t, err)
		s.Sample(1, "a")
		s.Sample(1, "b")
		s.Sample(1, "c")
		counts[s.PeekResult()[0]]++
	}

	expected := float64(trials) / 3
	for k, c := range counts {
		assert.InDelta(t, expected, float64(c), expected*0.2, "item %s frequency out of range", k)
	}
}

func TestWeightedSampler_HeavyWeightDominatesFrequency(t *testing.T) {
	const trials = 10000
	counts := map[string]int{"a": 0, "b": 0}
	rng := newRNG(77)

	for trial := 0; trial < trials; trial++ {
		s, err := NewWeightedSamplerDynamic[string, int](1, rng)
		require.NoError(t, err)
		s.Sample(1, "a")
		s.Sample(9, "b")
		counts[s.PeekResult()[0]]++
	}

	expectedB := float64(trials) * 0.9
	assert.InDelta(t, expectedB, float64(counts["b"]), expectedB*0.1)
	assert.Greater(t, counts["b"], counts["a"])
}

func TestWeightedSampler_NeverExceedsK(t *testing.T) {
	s, err := NewWeightedSamplerDynamic[int, int](4, newRNG(5))
	require.NoError(t, err)

	for i := 0; i < 2000; i++ {
		s.Sample(i%7+1, i)
	}

	assert.Equal(t, 4, s.Filled())
	assert.Equal(t, int64(2000), s.N())
}

func TestWeightedSampler_PeekSkipProtocolMatchesSample(t *testing.T) {
	const k = 3
	weights := make([]int, 400)
	for i := range weights {
		weights[i] = i%5 + 1
	}

	a, err := NewWeightedSamplerDynamic[int, int](k, newRNG(321))
	require.NoError(t, err)
	for i, w := range weights {
		a.Sample(w, i)
	}

	b, err := NewWeightedSamplerDynamic[int, int](k, newRNG(321))
	require.NoError(t, err)
	for i, w := range weights {
		if b.WillNextBeConsidered(w) {
			b.Sample(w, i)
		} else {
			require.NoError(t, b.SkipNext(w))
		}
	}

	assert.Equal(t, a.N(), b.N())
	assert.ElementsMatch(t, a.PeekResult(), b.PeekResult())
}

func TestWeightedSampler_SkipNextRejectsWhenWouldBeConsidered(t *testing.T) {
	s, err := NewWeightedSamplerDynamic[int, int](2, newRNG(1))
	require.NoError(t, err)

	err = s.SkipNext(1)
	assert.ErrorIs(t, err, ErrWouldBeConsidered)
}

func TestWeightedSampler_SkipNextZeroWeightIsNoOp(t *testing.T) {
	s, err := NewWeightedSamplerDynamic[int, int](2, newRNG(1))
	require.NoError(t, err)
	s.Sample(1, 1)
	s.Sample(1, 2)

	require.NoError(t, s.SkipNext(0))
	assert.Equal(t, int64(2), s.N())
}

func TestWeightedSampler_ConsumeResultResetsState(t *testing.T) {
	s, err := NewWeightedSamplerDynamic[int, int](3, newRNG(4))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		s.Sample(i+1, i)
	}

	out := s.ConsumeResult()
	assert.Len(t, out, 3)
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, s.Filled())
}

func TestWeightedSampler_CopyIsIndependentStorage(t *testing.T) {
	s, err := NewWeightedSamplerDynamic[int, int](3, newRNG(4))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		s.Sample(1, i)
	}

	c := s.Copy()
	c.data[0] = -1

	assert.NotEqual(t, c.PeekResult()[0], s.PeekResult()[0])
	assert.Equal(t, s.K(), c.K())
}

func TestWeightedSampler_SampleFuncSkipsFactoryWhenDiscarded(t *testing.T) {
	s, err := NewWeightedSamplerDynamic[int, int](2, newRNG(9))
	require.NoError(t, err)

	invocations := 0
	factory := func() int {
		invocations++
		return invocations
	}

	for i := 0; i < 300; i++ {
		s.SampleFunc(2, factory)
	}

	assert.Equal(t, int64(300), s.N())
	assert.Greater(t, invocations, 0)
	assert.LessOrEqual(t, invocations, 300)
}

func TestWeightedSampler_String(t *testing.T) {
	s, err := NewWeightedSamplerDynamic[int, int](2, newRNG(1))
	require.NoError(t, err)
	s.Sample(1, 1)

	out := s.String()
	assert.Contains(t, out, "WeightedSampler SUMMARY")
	assert.Contains(t, out, "k      : 2")
}

package burndown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

func TestAccumulator_MergeSameBucket(t *testing.T) {
	t.Parallel()

	acc := NewAccumulator(Weekly)
	acc.Merge(time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), Delta{NewSP: 3}, Keys{New: []string{"A-1"}})
	acc.Merge(time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC), Delta{NewSP: 2, AddUnest: 1}, Keys{New: []string{"A-2"}, Unest: []string{"A-3"}})

	require.Equal(t, 1, acc.Len())
	d, k := acc.At(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, Delta{NewSP: 5, AddUnest: 1}, d)
	assert.Equal(t, []string{"A-1", "A-2"}, k.New)
	assert.Equal(t, []string{"A-3"}, k.Unest)

	d, _ = acc.At(time.Date(2030, 1, 7, 0, 0, 0, 0, time.UTC))
	assert.Zero(t, d)
}

func TestAccumulator_SpanAndStarts(t *testing.T) {
	t.Parallel()

	acc := NewAccumulator(Weekly)
	_, _, ok := acc.Span()
	assert.False(t, ok)

	acc.Merge(time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), Delta{FinSP: 1}, Keys{})
	acc.Merge(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Delta{NewSP: 1}, Keys{})
	acc.Merge(time.Date(2024, 1, 24, 0, 0, 0, 0, time.UTC), Delta{NewSP: 1}, Keys{})

	first, last, ok := acc.Span()
	require.True(t, ok)
	assert.Equal(t, "2024-01-01", first.Format(dateLayout))
	assert.Equal(t, "2024-02-12", last.Format(dateLayout))
	assert.Len(t, acc.Starts(), 3)
}

func TestAccumulator_AbsorbMatchesSingleRun(t *testing.T) {
	t.Parallel()

	issues := mixedIssues(t)

	whole, err := Accumulate(issues)
	require.NoError(t, err)

	left, err := Accumulate(issues[:2])
	require.NoError(t, err)
	right, err := Accumulate(issues[2:])
	require.NoError(t, err)
	left.Absorb(right)

	assert.Equal(t, Build("E", whole), Build("E", left))
}

func TestAccumulator_OrderIndependentTotals(t *testing.T) {
	t.Parallel()

	issues := mixedIssues(t)
	reversed := make([]domain.Issue, len(issues))
	for i := range issues {
		reversed[len(issues)-1-i] = issues[i]
	}

	a, err := Accumulate(issues)
	require.NoError(t, err)
	b, err := Accumulate(reversed)
	require.NoError(t, err)

	require.Equal(t, a.Starts(), b.Starts())
	for _, start := range a.Starts() {
		da, _ := a.At(start)
		db, _ := b.At(start)
		assert.Equal(t, da, db, start.Format(dateLayout))
	}
}

package burndown

import (
	"sort"
	"time"
)

// Delta is the net change recorded in one bucket. All fields are counts or
// story points and never negative.
type Delta struct {
	NewSP    int // story points introduced
	FinSP    int // story points finished or removed
	AddUnest int // issues that became unestimated
	DelUnest int // issues that became estimated or finished unestimated
}

func (d Delta) add(o Delta) Delta {
	return Delta{
		NewSP:    d.NewSP + o.NewSP,
		FinSP:    d.FinSP + o.FinSP,
		AddUnest: d.AddUnest + o.AddUnest,
		DelUnest: d.DelUnest + o.DelUnest,
	}
}

// Keys lists the issues behind each Delta field of a bucket.
type Keys struct {
	New   []string
	Done  []string
	Unest []string
	Est   []string
}

func (k Keys) add(o Keys) Keys {
	return Keys{
		New:   append(k.New, o.New...),
		Done:  append(k.Done, o.Done...),
		Unest: append(k.Unest, o.Unest...),
		Est:   append(k.Est, o.Est...),
	}
}

// Accumulator collects deltas per bucket for one burn-down computation.
// It is not safe for concurrent use; build one per goroutine and Absorb.
type Accumulator struct {
	period Period
	deltas map[time.Time]Delta
	keys   map[time.Time]Keys
}

func NewAccumulator(p Period) *Accumulator {
	return &Accumulator{
		period: p,
		deltas: map[time.Time]Delta{},
		keys:   map[time.Time]Keys{},
	}
}

func (a *Accumulator) Period() Period { return a.period }

// Merge adds d and k to the bucket containing at.
func (a *Accumulator) Merge(at time.Time, d Delta, k Keys) {
	start := a.period.Start(at)
	a.deltas[start] = a.deltas[start].add(d)
	a.keys[start] = a.keys[start].add(k)
}

// Absorb merges every bucket of o into a. Both must use the same period.
func (a *Accumulator) Absorb(o *Accumulator) {
	for _, start := range o.Starts() {
		a.deltas[start] = a.deltas[start].add(o.deltas[start])
		a.keys[start] = a.keys[start].add(o.keys[start])
	}
}

// At returns the bucket starting at start; missing buckets are zero.
func (a *Accumulator) At(start time.Time) (Delta, Keys) {
	return a.deltas[start], a.keys[start]
}

func (a *Accumulator) Len() int { return len(a.deltas) }

// Starts returns the recorded bucket starts in chronological order.
func (a *Accumulator) Starts() []time.Time {
	out := make([]time.Time, 0, len(a.deltas))
	for start := range a.deltas {
		out = append(out, start)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Span returns the first and last recorded bucket starts.
func (a *Accumulator) Span() (first, last time.Time, ok bool) {
	starts := a.Starts()
	if len(starts) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return starts[0], starts[len(starts)-1], true
}

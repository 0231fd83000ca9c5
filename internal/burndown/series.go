package burndown

import (
	"sort"
	"strings"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

// build turns the accumulated buckets into one bar per period, from the
// first to the last recorded bucket, empty periods included.
//
// A bar reports the state at the start of its period: finished work and
// estimation changes of the period are applied before the bar is emitted,
// the period's new work only after. Rolling totals are not clamped, so
// inconsistent source data shows up as negative remaining work.
func build(id string, acc *Accumulator) domain.BurnDown {
	step := acc.Period().Days()
	bd := domain.BurnDown{ID: id, Scale: step, Bars: []domain.BurnDownBar{}}

	first, last, ok := acc.Span()
	if !ok {
		return bd
	}

	var est, unest int
	work := keySet{}
	unestKeys := keySet{}
	for day := first; !day.After(last); day = day.AddDate(0, 0, step) {
		d, k := acc.At(day)

		est -= d.FinSP
		unest += d.AddUnest - d.DelUnest
		work.remove(k.Done)
		unestKeys.add(k.Unest)
		unestKeys.remove(k.Est)

		date := day.Format(dateLayout)
		bd.Bars = append(bd.Bars, domain.BurnDownBar{
			ID:               id + ":" + date,
			StartDate:        date,
			RemainingWork:    est,
			NewWork:          d.NewSP,
			UnestimatedCount: unest,
			PredictedWork:    0,
			NewKeys:          strings.Join(k.New, ","),
			WorkKeys:         work.join(),
			UnestKeys:        unestKeys.join(),
		})

		est += d.NewSP
		work.add(k.New)
		work.remove(k.Done)
	}
	return bd
}

type keySet map[string]struct{}

func (s keySet) add(keys []string) {
	for _, k := range keys {
		s[k] = struct{}{}
	}
}

func (s keySet) remove(keys []string) {
	for _, k := range keys {
		delete(s, k)
	}
}

func (s keySet) join() string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}

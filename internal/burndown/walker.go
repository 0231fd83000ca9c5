package burndown

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

// HistoryOrder tells the walker how the changelog is sorted.
type HistoryOrder int

const (
	NewestFirst HistoryOrder = iota
	OldestFirst
)

type walker struct {
	field string
	order HistoryOrder
}

// walk replays one issue from its current estimate back to creation and
// merges every estimate transition into acc.
//
// cur holds the estimate as of the point in history being visited. Each
// story-point change is read backwards: the issue went from the change's
// From value to cur at that moment, and cur becomes From for the next
// (older) change. Whatever is left once history is exhausted is the
// estimate the issue was created with.
func (w walker) walk(acc *Accumulator, is domain.Issue) error {
	if err := validate(is); err != nil {
		return err
	}
	key := is.Key
	one := []string{key}

	cur, ok := currentPoints(is.StoryPoints)
	if !ok {
		return fmt.Errorf("%w: %s: negative story points", domain.ErrMalformedIssue, key)
	}

	if is.StatusCategory == domain.StatusDone {
		if cur != 0 {
			acc.Merge(*is.ResolvedAt, Delta{FinSP: cur}, Keys{Done: one})
		} else {
			acc.Merge(*is.ResolvedAt, Delta{DelUnest: 1}, Keys{Est: one})
		}
	}

	for _, h := range w.ordered(is.History) {
		for _, item := range h.Items {
			if item.Field != w.field {
				continue
			}
			prev, ok := changePoints(item)
			if !ok {
				continue
			}
			switch {
			case cur > prev:
				acc.Merge(h.At, Delta{NewSP: cur - prev}, Keys{New: one})
			case cur < prev:
				acc.Merge(h.At, Delta{FinSP: prev - cur}, Keys{Done: one})
			}
			switch {
			case cur != 0 && prev == 0:
				acc.Merge(h.At, Delta{DelUnest: 1}, Keys{Est: one})
			case cur == 0 && prev != 0:
				acc.Merge(h.At, Delta{AddUnest: 1}, Keys{Unest: one})
			}
			cur = prev
		}
	}

	if cur != 0 {
		acc.Merge(*is.CreatedAt, Delta{NewSP: cur}, Keys{New: one})
	} else {
		acc.Merge(*is.CreatedAt, Delta{AddUnest: 1}, Keys{Unest: one})
	}
	return nil
}

func (w walker) ordered(h []domain.HistoryEntry) []domain.HistoryEntry {
	if w.order != OldestFirst {
		return h
	}
	out := make([]domain.HistoryEntry, len(h))
	for i := range h {
		out[len(h)-1-i] = h[i]
	}
	return out
}

func validate(is domain.Issue) error {
	switch {
	case strings.TrimSpace(is.Key) == "":
		return fmt.Errorf("%w: missing key", domain.ErrMalformedIssue)
	case is.CreatedAt == nil:
		return fmt.Errorf("%w: %s: missing created timestamp", domain.ErrMalformedIssue, is.Key)
	case !is.StatusCategory.Valid():
		return fmt.Errorf("%w: %s: status category %q", domain.ErrMalformedIssue, is.Key, is.StatusCategory)
	case is.StatusCategory == domain.StatusDone && is.ResolvedAt == nil:
		return fmt.Errorf("%w: %s: done without resolution date", domain.ErrMalformedIssue, is.Key)
	}
	return nil
}

func currentPoints(sp *float64) (int, bool) {
	if sp == nil {
		return 0, true
	}
	if *sp < 0 || math.IsNaN(*sp) {
		return 0, false
	}
	return int(math.Round(*sp)), true
}

// changePoints returns the estimate before the change. A change is usable
// only when both sides are empty or numeric; empty means unestimated.
func changePoints(c domain.FieldChange) (int, bool) {
	if _, ok := parsePoints(c.To); !ok {
		return 0, false
	}
	return parsePoints(c.From)
}

func parsePoints(s *string) (int, bool) {
	if s == nil {
		return 0, true
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return 0, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Round(f)), true
}

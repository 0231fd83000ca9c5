// Package burndown reconstructs estimated and unestimated work over time
// from the story-point history of a set of issues.
//
// Compute is a pure function of its input: it does no I/O and keeps no state
// between calls.
package burndown

import (
	"github.com/magicronn/jira-scg-utils/internal/domain"
)

type options struct {
	period Period
	field  string
	order  HistoryOrder
}

type Option func(*options)

// WithPeriod sets the bucket length. Default Weekly.
func WithPeriod(p Period) Option { return func(o *options) { o.period = p } }

// WithField sets the changelog field carrying estimates. Default "Story Points".
func WithField(name string) Option {
	return func(o *options) {
		if name != "" {
			o.field = name
		}
	}
}

// WithHistoryOrder declares how issue changelogs are sorted. Default NewestFirst.
func WithHistoryOrder(order HistoryOrder) Option { return func(o *options) { o.order = order } }

// Accumulate replays every issue into a fresh accumulator. It fails on the
// first malformed issue.
func Accumulate(issues []domain.Issue, opts ...Option) (*Accumulator, error) {
	o := resolve(opts)
	acc := NewAccumulator(o.period)
	w := walker{field: o.field, order: o.order}
	for _, is := range issues {
		if err := w.walk(acc, is); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

// Build emits the bar series for an accumulator filled by Accumulate or
// merged from several via Absorb.
func Build(id string, acc *Accumulator) domain.BurnDown { return build(id, acc) }

// Compute builds the burn-down identified by id for issues. No issues yields
// a burn-down without bars. A malformed issue aborts with an error wrapping
// domain.ErrMalformedIssue and no partial result.
func Compute(id string, issues []domain.Issue, opts ...Option) (domain.BurnDown, error) {
	acc, err := Accumulate(issues, opts...)
	if err != nil {
		return domain.BurnDown{}, err
	}
	return build(id, acc), nil
}

func resolve(opts []Option) options {
	o := options{period: Weekly, field: domain.FieldStoryPoints, order: NewestFirst}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

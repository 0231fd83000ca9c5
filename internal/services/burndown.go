package services

import (
	"context"
	"fmt"

	"github.com/magicronn/jira-scg-utils/internal/burndown"
	"github.com/magicronn/jira-scg-utils/internal/domain"
)

// BurnDown reconstructs the burn-down of one epic from the board's issues.
func (s *Service) BurnDown(ctx context.Context, epicKey string) (domain.BurnDown, error) {
	bd, err := s.burnDown(ctx, epicKey)
	s.rec.BurnDown(err, len(bd.Bars))
	if err != nil {
		return domain.BurnDown{}, err
	}
	return bd, nil
}

func (s *Service) burnDown(ctx context.Context, epicKey string) (domain.BurnDown, error) {
	epic, err := s.jira.Issue(ctx, epicKey)
	if err != nil {
		return domain.BurnDown{}, fmt.Errorf("epic %s: %w", epicKey, err)
	}
	return s.epicBurnDown(ctx, epic)
}

func (s *Service) epicBurnDown(ctx context.Context, epic domain.Issue) (domain.BurnDown, error) {
	epicKey := epic.Key
	issues, err := s.jira.BoardEpicIssues(ctx, s.cfg.JiraBoardID, epic.ID)
	if err != nil {
		return domain.BurnDown{}, fmt.Errorf("epic %s board issues: %w", epicKey, err)
	}
	bd, err := burndown.Compute(epic.Key, issues,
		burndown.WithPeriod(s.period),
		burndown.WithField(s.cfg.FieldStoryPointsName),
	)
	if err != nil {
		return domain.BurnDown{}, fmt.Errorf("epic %s: %w", epicKey, err)
	}
	for i := range bd.Bars {
		b := &bd.Bars[i]
		b.RemainingURL = s.keysURL(b.WorkKeys)
		b.NewURL = s.keysURL(b.NewKeys)
		b.UnestimatedURL = s.keysURL(b.UnestKeys)
	}
	s.log.Debug().Str("epic", epicKey).Int("issues", len(issues)).Int("bars", len(bd.Bars)).Msg("burndown computed")
	return bd, nil
}

// keysURL links a comma separated key list; empty lists get no link.
func (s *Service) keysURL(keys string) string {
	if keys == "" {
		return ""
	}
	return s.jira.NavURL("key in (" + keys + ")")
}

// BurnDowns computes several burn-downs concurrently; results follow the
// order of epicKeys.
func (s *Service) BurnDowns(ctx context.Context, epicKeys []string) ([]domain.BurnDown, error) {
	out := make([]domain.BurnDown, len(epicKeys))
	err := parallel(ctx, s.workers(), len(epicKeys), func(ctx context.Context, i int) error {
		bd, err := s.BurnDown(ctx, epicKeys[i])
		out[i] = bd
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

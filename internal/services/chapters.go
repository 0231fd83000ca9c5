package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

// Chapters lists the configured chapter projects with their members.
func (s *Service) Chapters(ctx context.Context) ([]domain.Chapter, error) {
	projects, err := s.jira.Projects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var chapters []domain.Project
	for _, p := range projects {
		if slices.Contains(s.cfg.ChapterKeys, p.Key) {
			chapters = append(chapters, p)
		}
	}

	out := make([]domain.Chapter, len(chapters))
	err = parallel(ctx, s.workers(), len(chapters), func(ctx context.Context, i int) error {
		c, err := s.buildChapter(ctx, chapters[i])
		out[i] = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ChapterByKey returns one chapter without the users hidden by filterIDs.
func (s *Service) ChapterByKey(ctx context.Context, key string, filterIDs []string) (domain.Chapter, error) {
	hidden, err := s.hiddenUsers(ctx, key, filterIDs)
	if err != nil {
		return domain.Chapter{}, err
	}
	p, err := s.jira.Project(ctx, key)
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("chapter %s: %w", key, err)
	}
	c, err := s.buildChapter(ctx, p)
	if err != nil {
		return domain.Chapter{}, err
	}
	if len(hidden) > 0 {
		c.Users = slices.DeleteFunc(c.Users, func(u domain.User) bool {
			_, drop := hidden[u.ID]
			return drop
		})
	}
	return c, nil
}

// buildChapter takes members from the chapter's Jira group and falls back to
// the active assignees of its unresolved issues.
func (s *Service) buildChapter(ctx context.Context, p domain.Project) (domain.Chapter, error) {
	c := domain.Chapter{ID: p.Key, Title: p.Name, ProjectURL: s.jira.ProjectURL(p.Key), Users: []domain.User{}}

	if group, ok := s.cfg.ChapterGroups[p.Key]; ok {
		members, err := s.jira.GroupMembers(ctx, group)
		if err != nil {
			s.log.Warn().Err(err).Str("chapter", p.Key).Str("group", group).Msg("group lookup failed, using assignees")
		}
		byID := map[string]domain.User{}
		for _, u := range members {
			byID[u.ID] = u
		}
		c.Users = sortedUsers(byID)
	}
	if len(c.Users) > 0 {
		return c, nil
	}

	issues, err := s.jira.SearchAll(ctx, "project = "+quote(p.Key)+" AND resolution is EMPTY AND assignee is not EMPTY")
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("chapter %s assignees: %w", p.Key, err)
	}
	c.Users = assignees(issues, true)
	return c, nil
}

// ChapterReleases lists the chapter's versions that are not archived and
// were released no longer than RELEASE_HISTORY_DAYS ago, or carry no date.
func (s *Service) ChapterReleases(ctx context.Context, key string) ([]domain.Release, error) {
	versions, err := s.jira.ProjectVersions(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("chapter %s versions: %w", key, err)
	}
	cutoff := s.now().AddDate(0, 0, -s.cfg.ReleaseHistoryDays)
	var recent []domain.Version
	for _, v := range versions {
		if v.Archived {
			continue
		}
		if v.ReleaseDate != nil && v.ReleaseDate.Before(cutoff) {
			continue
		}
		recent = append(recent, v)
	}

	out := make([]domain.Release, len(recent))
	err = parallel(ctx, s.workers(), len(recent), func(ctx context.Context, i int) error {
		r, err := s.buildRelease(ctx, recent[i], key, true)
		out[i] = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReleaseByID returns one version with the key of its project.
func (s *Service) ReleaseByID(ctx context.Context, id string) (domain.Release, error) {
	v, err := s.jira.Version(ctx, id)
	if err != nil {
		return domain.Release{}, fmt.Errorf("release %s: %w", id, err)
	}
	chapter := "UNKNOWN"
	if v.ProjectID != "" {
		p, err := s.jira.Project(ctx, v.ProjectID)
		if err != nil {
			return domain.Release{}, fmt.Errorf("release %s project: %w", id, err)
		}
		chapter = p.Key
	}
	return s.buildRelease(ctx, v, chapter, false)
}

func (s *Service) buildRelease(ctx context.Context, v domain.Version, chapter string, withDigests bool) (domain.Release, error) {
	r := domain.Release{Version: v, ChapterKey: chapter}
	if !withDigests {
		return r, nil
	}
	issues, err := s.jira.SearchAll(ctx, "project = "+quote(chapter)+" AND fixVersion = "+v.ID)
	if err != nil {
		return domain.Release{}, fmt.Errorf("release %s issues: %w", v.ID, err)
	}
	r.IssueDigests = BuildIssueDigests(issues, s.jira.NavURL)
	return r, nil
}

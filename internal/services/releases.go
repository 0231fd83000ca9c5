package services

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

// matrixDefaultEpics caps the fallback epic list of ReleaseMatrix.
const matrixDefaultEpics = 5

// NoRelease collects issues without a fix version.
var NoRelease = domain.Version{ID: "No Release", Name: "No Release"}

type ReleaseCell struct {
	Count       int    `json:"count"`
	StoryPoints int    `json:"story_points"`
	NavURL      string `json:"nav_url"`
}

// ReleaseMatrix crosses epics with the releases their issues ship in.
// Cells is keyed by epic key, then by release id.
type ReleaseMatrix struct {
	Epics    []domain.Epic                     `json:"epics"`
	Releases []domain.Version                  `json:"releases"`
	Cells    map[string]map[string]ReleaseCell `json:"cells"`
}

// ReleaseMatrix counts the issues of each epic per fix version. Without
// keys it uses the first epics in development, by rank.
func (s *Service) ReleaseMatrix(ctx context.Context, epicKeys []string) (ReleaseMatrix, error) {
	var (
		epicIssues []domain.Issue
		err        error
	)
	if len(epicKeys) == 0 {
		q := EpicQuery{Statuses: []string{"In Development"}}
		epicIssues, err = s.jira.SearchAll(ctx, q.jql(s.cfg.JiraEpicProject, s.cfg.FieldRank))
		if err != nil {
			return ReleaseMatrix{}, fmt.Errorf("release matrix epics: %w", err)
		}
		if len(epicIssues) > matrixDefaultEpics {
			epicIssues = epicIssues[:matrixDefaultEpics]
		}
	} else {
		epicIssues = make([]domain.Issue, len(epicKeys))
		err = parallel(ctx, s.workers(), len(epicKeys), func(ctx context.Context, i int) error {
			is, err := s.jira.Issue(ctx, epicKeys[i])
			if err != nil {
				return fmt.Errorf("epic %s: %w", epicKeys[i], err)
			}
			epicIssues[i] = is
			return nil
		})
		if err != nil {
			return ReleaseMatrix{}, err
		}
	}

	epics, err := s.buildEpics(ctx, epicIssues, false)
	if err != nil {
		return ReleaseMatrix{}, err
	}

	children := make([][]domain.Issue, len(epics))
	err = parallel(ctx, s.workers(), len(epics), func(ctx context.Context, i int) error {
		issues, err := s.jira.EpicIssues(ctx, epics[i].ID)
		if err != nil {
			return fmt.Errorf("epic %s issues: %w", epics[i].ID, err)
		}
		children[i] = issues
		return nil
	})
	if err != nil {
		return ReleaseMatrix{}, err
	}

	m := ReleaseMatrix{Epics: epics, Releases: []domain.Version{}, Cells: map[string]map[string]ReleaseCell{}}
	seen := map[string]domain.Version{}
	for i, e := range epics {
		row := map[string]ReleaseCell{}
		for _, is := range children[i] {
			versions := is.FixVersions
			if len(versions) == 0 {
				versions = []domain.Version{NoRelease}
			}
			for _, v := range versions {
				cell, ok := row[v.ID]
				if !ok {
					cell.NavURL = s.jira.NavURL(releaseJQL(v, e.ID))
				}
				cell.Count++
				if is.StoryPoints != nil {
					cell.StoryPoints += int(math.Round(*is.StoryPoints))
				}
				row[v.ID] = cell
				if _, ok := seen[v.ID]; !ok {
					seen[v.ID] = v
				}
			}
		}
		m.Cells[e.ID] = row
	}

	for _, v := range seen {
		m.Releases = append(m.Releases, v)
	}
	sortReleases(m.Releases)
	return m, nil
}

func releaseJQL(v domain.Version, epicKey string) string {
	if v.ID == NoRelease.ID {
		return "fixVersion is EMPTY AND \"Epic Link\" = " + quote(epicKey)
	}
	return "fixVersion = " + v.ID + " AND \"Epic Link\" = " + quote(epicKey)
}

// sortReleases orders by release date, undated last, then by name.
func sortReleases(vs []domain.Version) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i].ReleaseDate, vs[j].ReleaseDate
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return vs[i].Name < vs[j].Name
	})
}

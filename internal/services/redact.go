package services

import (
	"regexp"
	"strings"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+`)
	phoneRe    = regexp.MustCompile(`\+?\d[\d\-\s]{7,}\d`)
	urlRe      = regexp.MustCompile(`https?://[^\s]+`)
	tokenRe    = regexp.MustCompile(`(?i)\b(?:token|secret|password|apikey|api_key|bearer)[:=\s]+[A-Za-z0-9\-\._~+/]{8,}`)
	jiraUserRe = regexp.MustCompile(`\bJIRAUSER\d+\b`)
)

// scrub masks emails, urls, phone numbers, secrets and Jira user ids.
// Urls go before phones so digits inside links stay part of <url>.
func scrub(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = emailRe.ReplaceAllString(s, "<email>")
	s = urlRe.ReplaceAllString(s, "<url>")
	s = tokenRe.ReplaceAllString(s, "<secret>")
	s = phoneRe.ReplaceAllString(s, "<phone>")
	s = jiraUserRe.ReplaceAllString(s, "<user>")
	return s
}

// epicFacts is what the narrative model sees of one epic.
type epicFacts struct {
	Key         string               `json:"key"`
	Summary     string               `json:"summary"`
	Description string               `json:"description,omitempty"`
	Bars        []domain.BurnDownBar `json:"bars"`
}

// narrativeFacts strips links and key lists from the bars and scrubs epic
// text. Failed epics are left out; at most the last four bars are kept.
func narrativeFacts(snaps []epicSnapshot) []epicFacts {
	out := make([]epicFacts, 0, len(snaps))
	for _, sn := range snaps {
		if sn.err != nil {
			continue
		}
		f := epicFacts{
			Key:         sn.epic.Key,
			Summary:     scrub(sn.epic.Summary),
			Description: scrub(sn.epic.Description),
		}
		bars := sn.bd.Bars
		if len(bars) > 4 {
			bars = bars[len(bars)-4:]
		}
		for _, b := range bars {
			f.Bars = append(f.Bars, domain.BurnDownBar{
				StartDate:        b.StartDate,
				RemainingWork:    b.RemainingWork,
				NewWork:          b.NewWork,
				UnestimatedCount: b.UnestimatedCount,
			})
		}
		out = append(out, f)
	}
	return out
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/magicronn/jira-scg-utils/internal/domain"
)

// telegramChunk stays under Telegram's 4096 character limit once escaped.
const telegramChunk = 3800

type epicSnapshot struct {
	epic domain.Issue
	bd   domain.BurnDown
	err  error
}

// RunWeeklySnapshot computes the burn-down of every tracked epic, stores the
// snapshots and sends a digest to the configured chats. A failing epic is
// reported in the digest; the run fails only when every epic failed.
func (s *Service) RunWeeklySnapshot(ctx context.Context) (res domain.JobResult, runErr error) {
	keys := s.cfg.TrackedEpics
	if len(keys) == 0 {
		s.log.Warn().Msg("weekly snapshot: TRACKED_EPICS is empty")
		res.Success = true
		return res, nil
	}

	runID := uuid.New()
	log := s.log.With().Str("run_id", runID.String()).Logger()
	log.Info().Strs("epics", keys).Msg("weekly snapshot: start")

	var jobID int64
	if s.store != nil {
		id, err := s.store.StartJobRun(ctx, runID, keys)
		if err != nil {
			log.Error().Err(err).Msg("start job run failed")
		}
		jobID = id
	}

	defer func() {
		res.Success = runErr == nil
		if runErr != nil {
			res.Error = runErr.Error()
		}
		if s.store != nil && jobID != 0 {
			if err := s.store.FinishJobRun(ctx, jobID, res); err != nil {
				log.Error().Err(err).Msg("finish job run failed")
			}
		}
		log.Info().Int("computed", res.EpicsComputed).Int("saved", res.SnapshotsSaved).
			Int("sent", res.MessagesSent).Bool("success", res.Success).Msg("weekly snapshot: done")
	}()

	snaps := make([]epicSnapshot, len(keys))
	// per-epic failures stay in snaps; only cancellation comes back
	if err := parallel(ctx, s.workers(), len(keys), func(ctx context.Context, i int) error {
		sn := &snaps[i]
		sn.epic, sn.err = s.jira.Issue(ctx, keys[i])
		if sn.err == nil {
			sn.bd, sn.err = s.epicBurnDown(ctx, sn.epic)
		}
		s.rec.BurnDown(sn.err, len(sn.bd.Bars))
		if sn.err != nil {
			sn.epic.Key = keys[i]
			log.Error().Err(sn.err).Str("epic", keys[i]).Msg("burndown failed")
		}
		return nil
	}); err != nil {
		return res, err
	}

	var (
		bds      []domain.BurnDown
		firstErr error
	)
	for _, sn := range snaps {
		if sn.err != nil {
			if firstErr == nil {
				firstErr = sn.err
			}
			continue
		}
		bds = append(bds, sn.bd)
	}
	res.EpicsComputed = len(bds)
	if len(bds) == 0 {
		return res, fmt.Errorf("weekly snapshot: all %d epics failed: %w", len(keys), firstErr)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if s.store != nil {
		if err := s.store.SaveBurnDowns(ctx, s.now(), bds); err != nil {
			log.Error().Err(err).Msg("save snapshots failed")
		} else {
			res.SnapshotsSaved = len(bds)
		}
	}

	res.MessagesSent = s.sendDigest(ctx, log, snaps)
	return res, nil
}

func (s *Service) sendDigest(ctx context.Context, log zerolog.Logger, snaps []epicSnapshot) int {
	if s.tg == nil || !s.tg.Enabled() {
		return 0
	}
	var narrative string
	if s.llm != nil && s.llm.Enabled() {
		text, err := s.llm.SummarizeBurnDowns(ctx, narrativeFacts(snaps))
		if err != nil {
			log.Warn().Err(err).Msg("narrative failed, sending digest without it")
		}
		narrative = text
	}

	sent := 0
	parts := chunkText(renderSnapshotDigest(s.now().Format(dateLayout), narrative, snaps), telegramChunk)
	for _, chat := range s.tg.ChatIDs() {
		for _, p := range parts {
			if err := s.tg.SendMarkdownV2(ctx, chat, p); err != nil {
				log.Error().Err(err).Int64("chat", chat).Msg("telegram send failed")
				continue
			}
			sent++
		}
	}
	return sent
}

const dateLayout = "2006-01-02"

func renderSnapshotDigest(date, narrative string, snaps []epicSnapshot) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "*Burn\\-down snapshot* %s\n\n", esc(date))
	if n := strings.TrimSpace(narrative); n != "" {
		fmt.Fprintf(b, "%s\n\n", esc(n))
	}
	for _, sn := range snaps {
		if sn.err != nil {
			fmt.Fprintf(b, "*%s* %s\n", esc(sn.epic.Key), esc("failed"))
			continue
		}
		fmt.Fprintf(b, "*%s* %s\n", esc(sn.epic.Key), esc(sn.epic.Summary))
		bars := sn.bd.Bars
		if len(bars) == 0 {
			fmt.Fprintf(b, "%s\n\n", esc("no estimated work yet"))
			continue
		}
		last := bars[len(bars)-1]
		line := fmt.Sprintf("remaining %d, new %d, unestimated %d", last.RemainingWork, last.NewWork, last.UnestimatedCount)
		if len(bars) > 1 {
			prev := bars[len(bars)-2]
			line += fmt.Sprintf(" (%+d vs %s)", last.RemainingWork-prev.RemainingWork, prev.StartDate)
		}
		fmt.Fprintf(b, "%s\n\n", esc(line))
	}
	return strings.TrimRight(b.String(), "\n")
}

var mdV2Replacer = strings.NewReplacer(
	"\\", "\\\\", "_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

// esc escapes text for Telegram MarkdownV2.
func esc(s string) string { return mdV2Replacer.Replace(s) }

// chunkText splits s on line boundaries into parts of at most max runes;
// longer lines are hard split, never between a backslash and the character
// it escapes.
func chunkText(s string, max int) []string {
	if max <= 0 {
		return []string{s}
	}
	var (
		chunks []string
		cur    strings.Builder
		curlen int
	)
	flush := func() {
		if curlen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curlen = 0
		}
	}
	for _, ln := range strings.Split(s, "\n") {
		r := []rune(ln)
		if len(r) > max {
			flush()
			chunks = append(chunks, splitEscaped(r, max)...)
			continue
		}
		extra := len(r)
		if curlen > 0 {
			extra++
		}
		if curlen+extra > max {
			flush()
			extra = len(r)
		}
		if curlen > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(ln)
		curlen += extra
	}
	flush()
	return chunks
}

func splitEscaped(r []rune, max int) []string {
	var out []string
	start := 0
	for i := 0; i < len(r); {
		n := 1
		if r[i] == '\\' && i+1 < len(r) {
			n = 2
		}
		if i+n-start > max && i > start {
			out = append(out, string(r[start:i]))
			start = i
		}
		i += n
	}
	return append(out, string(r[start:]))
}

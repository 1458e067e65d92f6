package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/riskibarqy/evidence-portal/internal/domain/demo"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

var steamID64Pattern = regexp.MustCompile(`^\d{17}$`)

// Field names tried in order; recordings from different game builds spell
// them differently.
var (
	killAttackerFields = []string{"attacker_steamid", "attacker_SteamID"}
	killVictimFields   = []string{"user_steamid", "userid_steamid", "player_steamid"}
	killAssisterFields = []string{"assister_steamid"}
	hurtAttackerFields = []string{"attacker_steamid", "attacker_SteamID"}
	hurtDamageFields   = []string{"dmg_health"}
	matchEndCTFields   = []string{"ct_score", "t2_score"}
	matchEndTFields    = []string{"t_score", "t1_score"}
)

type MatchExtractionService struct {
	reader demo.Reader
	logger *logging.Logger
}

func NewMatchExtractionService(reader demo.Reader, logger *logging.Logger) *MatchExtractionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchExtractionService{
		reader: reader,
		logger: logger.Named("match_extraction"),
	}
}

// ExtractIdentity returns the map and roster of a recording. Decode failures
// degrade to empty fields.
func (s *MatchExtractionService) ExtractIdentity(ctx context.Context, path string) demo.IdentityView {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchExtractionService.ExtractIdentity")
	defer span.End()

	header := s.readHeader(ctx, path)
	roster := s.readRoster(ctx, path)

	players := make([]demo.PlayerIdentity, 0, len(roster))
	for _, entry := range roster {
		players = append(players, demo.PlayerIdentity{
			Name:      entry.Name,
			SteamID64: entry.SteamID64,
			Team:      demo.SideFromCode(entry.SideCode).Ptr(),
		})
	}

	return demo.IdentityView{Header: header, Players: players}
}

// ExtractStatistics returns per-player combat stats, round outcomes and the
// final score. Every pass degrades on its own.
func (s *MatchExtractionService) ExtractStatistics(ctx context.Context, path string) demo.MatchStatisticsView {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchExtractionService.ExtractStatistics")
	defer span.End()

	header := s.readHeader(ctx, path)
	roster := s.readRoster(ctx, path)

	var (
		kills  passResult[map[string]*combatTally]
		damage passResult[map[string]int]
		rounds passResult[*roundTally]
	)
	var wg conc.WaitGroup
	wg.Go(func() {
		kills = runPass(ctx, s.logger, demo.EventPlayerDeath, make(map[string]*combatTally), func(acc map[string]*combatTally) error {
			return s.killPass(ctx, path, acc)
		})
	})
	wg.Go(func() {
		damage = runPass(ctx, s.logger, demo.EventPlayerHurt, make(map[string]int), func(acc map[string]int) error {
			return s.damagePass(ctx, path, acc)
		})
	})
	wg.Go(func() {
		rounds = runPass(ctx, s.logger, demo.EventRoundEnd, &roundTally{}, func(acc *roundTally) error {
			return s.roundEndPass(ctx, path, acc)
		})
	})
	wg.Wait()

	score := s.resolveScore(ctx, path, rounds.Value)

	roundsPlayed := max(len(score.rounds), 1)
	players := make([]demo.PlayerMatchStats, 0, len(roster))
	for _, entry := range roster {
		p := demo.PlayerMatchStats{
			Name:         entry.Name,
			SteamID64:    entry.SteamID64,
			Team:         demo.SideFromCode(entry.SideCode),
			RoundsPlayed: roundsPlayed,
		}
		if tally, ok := kills.Value[entry.SteamID64]; ok {
			p.Kills = tally.kills
			p.Deaths = tally.deaths
			p.Assists = tally.assists
			p.Headshots = tally.headshots
		}
		p.Damage = damage.Value[entry.SteamID64]
		players = append(players, p.Finalize())
	}
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Kills > players[j].Kills
	})

	return demo.MatchStatisticsView{
		Header:      header,
		ScoreCT:     score.ct,
		ScoreT:      score.t,
		ScoreSource: score.source,
		Rounds:      score.rounds,
		Players:     players,
	}
}

func (s *MatchExtractionService) readHeader(ctx context.Context, path string) demo.Header {
	raw, err := s.reader.ReadHeader(ctx, path)
	if err != nil {
		s.logger.WarnContext(ctx, "demo header unavailable", "error", err)
		return demo.Header{}
	}
	return demo.NewHeader(raw)
}

// readRoster keeps one entry per valid steam id in first-seen order. A later
// entry on a playing side replaces the team, so the final side wins.
func (s *MatchExtractionService) readRoster(ctx context.Context, path string) []demo.SnapshotEntry {
	entries, err := s.reader.ReadPlayerSnapshot(ctx, path)
	if err != nil {
		s.logger.WarnContext(ctx, "demo player snapshot unavailable", "error", err)
		return nil
	}

	out := make([]demo.SnapshotEntry, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, entry := range entries {
		entry.SteamID64 = strings.TrimSpace(entry.SteamID64)
		if !steamID64Pattern.MatchString(entry.SteamID64) {
			continue
		}
		if entry.Name == "" {
			entry.Name = "Unknown"
		}
		if i, seen := index[entry.SteamID64]; seen {
			if demo.SideFromCode(entry.SideCode).Playing() {
				out[i].SideCode = entry.SideCode
			}
			continue
		}
		index[entry.SteamID64] = len(out)
		out = append(out, entry)
	}
	return out
}

type passResult[T any] struct {
	Value T
	Err   error
}

// runPass runs fn against acc. A panic ends only this pass; whatever fn put
// into acc before failing is kept.
func runPass[T any](ctx context.Context, logger *logging.Logger, name string, acc T, fn func(T) error) passResult[T] {
	res := passResult[T]{Value: acc}
	func() {
		defer func() {
			if rec := recover(); rec != nil {
				res.Err = fmt.Errorf("pass %s panicked: %v", name, rec)
			}
		}()
		res.Err = fn(acc)
	}()
	if res.Err != nil {
		logger.WarnContext(ctx, "demo extraction pass degraded", "pass", name, "error", res.Err)
	}
	return res
}

type combatTally struct {
	kills     int
	deaths    int
	assists   int
	headshots int
}

func tallyFor(acc map[string]*combatTally, id string) *combatTally {
	t, ok := acc[id]
	if !ok {
		t = &combatTally{}
		acc[id] = t
	}
	return t
}

func (s *MatchExtractionService) killPass(ctx context.Context, path string, acc map[string]*combatTally) error {
	records, err := s.reader.ReadEvents(ctx, path, demo.EventPlayerDeath)
	if err != nil {
		return fmt.Errorf("read kill events: %w", err)
	}
	for _, r := range records {
		if attacker := r.String(killAttackerFields...); attacker != "" {
			t := tallyFor(acc, attacker)
			t.kills++
			if r.Truthy("headshot") {
				t.headshots++
			}
		}
		if victim := r.String(killVictimFields...); victim != "" {
			tallyFor(acc, victim).deaths++
		}
		if assister := r.String(killAssisterFields...); assister != "" {
			tallyFor(acc, assister).assists++
		}
	}
	return nil
}

func (s *MatchExtractionService) damagePass(ctx context.Context, path string, acc map[string]int) error {
	records, err := s.reader.ReadEvents(ctx, path, demo.EventPlayerHurt)
	if err != nil {
		return fmt.Errorf("read damage events: %w", err)
	}
	for _, r := range records {
		attacker := r.String(hurtAttackerFields...)
		if attacker == "" {
			continue
		}
		if dmg, ok := r.Int(hurtDamageFields...); ok && dmg > 0 {
			acc[attacker] += dmg
		}
	}
	return nil
}

type roundTally struct {
	rounds []demo.RoundOutcome
	ct     int
	t      int
}

func (s *MatchExtractionService) roundEndPass(ctx context.Context, path string, acc *roundTally) error {
	records, err := s.reader.ReadEvents(ctx, path, demo.EventRoundEnd)
	if err != nil {
		return fmt.Errorf("read round end events: %w", err)
	}
	for _, r := range records {
		outcome := demo.RoundOutcome{
			RoundNumber: len(acc.rounds) + 1,
			Reason:      demo.ReasonUnknown,
		}
		if code, ok := r.Int("winner"); ok {
			winner := demo.SideFromCode(code)
			outcome.Winner = winner.Ptr()
			switch winner {
			case demo.SideCT:
				acc.ct++
			case demo.SideT:
				acc.t++
			}
		}
		if code, ok := r.Int("reason"); ok {
			outcome.Reason = demo.EndReasonFromCode(code)
		}
		acc.rounds = append(acc.rounds, outcome)
	}
	return nil
}

type resolvedScore struct {
	ct     int
	t      int
	source demo.ScoreSource
	rounds []demo.RoundOutcome
}

func (r resolvedScore) zero() bool {
	return r.ct == 0 && r.t == 0
}

// resolveScore walks round end, tick series, match end and round start
// signals in that order. Each later state runs at most once and only while
// the score is still 0-0; round start only fills rounds when none exist.
func (s *MatchExtractionService) resolveScore(ctx context.Context, path string, tally *roundTally) resolvedScore {
	out := resolvedScore{source: demo.ScoreNone, rounds: []demo.RoundOutcome{}}
	if tally != nil {
		out.ct, out.t = tally.ct, tally.t
		if len(tally.rounds) > 0 {
			out.rounds = tally.rounds
		}
	}
	if !out.zero() {
		out.source = demo.ScoreFromRoundEnd
		return out
	}

	ticks := runPass(ctx, s.logger, "tick_fallback", &resolvedScore{}, func(acc *resolvedScore) error {
		return s.tickScore(ctx, path, acc)
	})
	if !ticks.Value.zero() {
		out.ct, out.t, out.source = ticks.Value.ct, ticks.Value.t, demo.ScoreFromTicks
		return out
	}

	matchEnd := runPass(ctx, s.logger, demo.EventMatchEnd, &resolvedScore{}, func(acc *resolvedScore) error {
		return s.matchEndScore(ctx, path, acc)
	})
	if !matchEnd.Value.zero() {
		out.ct, out.t, out.source = matchEnd.Value.ct, matchEnd.Value.t, demo.ScoreFromMatchEnd
		return out
	}

	if len(out.rounds) > 0 {
		return out
	}
	starts := runPass(ctx, s.logger, demo.EventRoundStart, &resolvedScore{}, func(acc *resolvedScore) error {
		return s.roundStartRounds(ctx, path, acc)
	})
	if len(starts.Value.rounds) > 0 {
		out.rounds = starts.Value.rounds
		out.source = demo.ScoreFromRoundStart
	}
	return out
}

// tickScore takes the highest running round total seen per side.
func (s *MatchExtractionService) tickScore(ctx context.Context, path string, acc *resolvedScore) error {
	rows, err := s.reader.ReadTickSeries(ctx, path, demo.FieldTeamRoundsTotal, demo.FieldTeamNum)
	if err != nil {
		return fmt.Errorf("read tick series: %w", err)
	}
	for _, row := range rows {
		total, _ := row.Int(demo.FieldTeamRoundsTotal)
		team, ok := row.Int(demo.FieldTeamNum)
		if !ok {
			continue
		}
		switch demo.SideFromCode(team) {
		case demo.SideCT:
			acc.ct = max(acc.ct, total)
		case demo.SideT:
			acc.t = max(acc.t, total)
		}
	}
	return nil
}

func (s *MatchExtractionService) matchEndScore(ctx context.Context, path string, acc *resolvedScore) error {
	records, err := s.reader.ReadEvents(ctx, path, demo.EventMatchEnd)
	if err != nil {
		return fmt.Errorf("read match end events: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	last := records[len(records)-1]
	acc.ct = firstPositive(last, matchEndCTFields)
	acc.t = firstPositive(last, matchEndTFields)
	return nil
}

func (s *MatchExtractionService) roundStartRounds(ctx context.Context, path string, acc *resolvedScore) error {
	records, err := s.reader.ReadEvents(ctx, path, demo.EventRoundStart)
	if err != nil {
		return fmt.Errorf("read round start events: %w", err)
	}
	for i := range records {
		acc.rounds = append(acc.rounds, demo.RoundOutcome{
			RoundNumber: i + 1,
			Reason:      demo.ReasonUnknown,
		})
	}
	return nil
}

func firstPositive(r demo.EventRecord, keys []string) int {
	for _, key := range keys {
		if v, ok := r.Int(key); ok && v > 0 {
			return v
		}
	}
	return 0
}

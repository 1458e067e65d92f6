package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/evidence-portal/internal/domain/demo"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

const (
	steamAlice = "76561198000000001"
	steamBob   = "76561198000000002"
	steamCarol = "76561198000000003"
)

type fakeDemoReader struct {
	header      demo.RawHeader
	headerErr   error
	snapshot    []demo.SnapshotEntry
	snapshotErr error
	events      map[string][]demo.EventRecord
	eventErrs   map[string]error
	panicOn     string
	ticks       []demo.EventRecord
	ticksErr    error
}

func (f *fakeDemoReader) ReadHeader(context.Context, string) (demo.RawHeader, error) {
	return f.header, f.headerErr
}

func (f *fakeDemoReader) ReadPlayerSnapshot(context.Context, string) ([]demo.SnapshotEntry, error) {
	return f.snapshot, f.snapshotErr
}

func (f *fakeDemoReader) ReadEvents(_ context.Context, _ string, event string, _ ...string) ([]demo.EventRecord, error) {
	if event == f.panicOn {
		panic("schema mismatch for " + event)
	}
	if err := f.eventErrs[event]; err != nil {
		return nil, err
	}
	return f.events[event], nil
}

func (f *fakeDemoReader) ReadTickSeries(context.Context, string, ...string) ([]demo.EventRecord, error) {
	return f.ticks, f.ticksErr
}

func newTestExtraction(reader demo.Reader) *MatchExtractionService {
	return NewMatchExtractionService(reader, logging.NewNop())
}

func defaultRoster() []demo.SnapshotEntry {
	return []demo.SnapshotEntry{
		{Name: "alice", SteamID64: steamAlice, SideCode: 3},
		{Name: "bob", SteamID64: steamBob, SideCode: 2},
		{Name: "BOT Kilo", SteamID64: "0", SideCode: 2},
	}
}

func TestMatchExtractionService_ExtractIdentity(t *testing.T) {
	t.Parallel()

	svc := newTestExtraction(&fakeDemoReader{
		header: demo.RawHeader{MapName: "de_mirage", ServerName: "Valve CS2", PlaybackSeconds: 2410.6},
		snapshot: append(defaultRoster(),
			demo.SnapshotEntry{Name: "carol", SteamID64: steamCarol, SideCode: 1},
			demo.SnapshotEntry{Name: "alice-dup", SteamID64: steamAlice, SideCode: 2},
		),
	})

	view := svc.ExtractIdentity(context.Background(), "match.dem")
	if view.Map != "de_mirage" {
		t.Fatalf("unexpected map: %q", view.Map)
	}
	if view.PlaybackSeconds == nil || *view.PlaybackSeconds != 2411 {
		t.Fatalf("unexpected playback seconds: %v", view.PlaybackSeconds)
	}
	if len(view.Players) != 3 {
		t.Fatalf("expected 3 players, got=%d (%+v)", len(view.Players), view.Players)
	}
	if view.Players[0].Name != "alice" || view.Players[0].Team == nil || *view.Players[0].Team != demo.SideT {
		t.Fatalf("unexpected first player: %+v", view.Players[0])
	}
	if view.Players[2].Team != nil {
		t.Fatalf("expected spectator to have nil team, got=%v", *view.Players[2].Team)
	}
}

func TestMatchExtractionService_ExtractIdentity_FinalSideWins(t *testing.T) {
	t.Parallel()

	svc := newTestExtraction(&fakeDemoReader{
		snapshot: []demo.SnapshotEntry{
			{Name: "bob", SteamID64: steamBob, SideCode: 3},
			{Name: "bob", SteamID64: steamBob, SideCode: 2},
			{Name: "bob", SteamID64: steamBob, SideCode: 1},
		},
	})

	view := svc.ExtractIdentity(context.Background(), "halftime.dem")
	if len(view.Players) != 1 {
		t.Fatalf("expected 1 player, got=%d (%+v)", len(view.Players), view.Players)
	}
	if view.Players[0].Team == nil || *view.Players[0].Team != demo.SideT {
		t.Fatalf("expected final playing side T, got=%+v", view.Players[0])
	}
}

func TestMatchExtractionService_ExtractIdentity_DegradesOnDecodeFailure(t *testing.T) {
	t.Parallel()

	svc := newTestExtraction(&fakeDemoReader{
		headerErr:   errors.New("bad header"),
		snapshotErr: errors.New("bad snapshot"),
	})

	view := svc.ExtractIdentity(context.Background(), "broken.dem")
	if view.Map != "" || view.ServerName != nil || view.PlaybackSeconds != nil {
		t.Fatalf("expected empty header, got=%+v", view.Header)
	}
	if view.Players == nil || len(view.Players) != 0 {
		t.Fatalf("expected empty non-nil roster, got=%+v", view.Players)
	}
}

func TestMatchExtractionService_ExtractStatistics_RoundEndScenario(t *testing.T) {
	t.Parallel()

	var rounds []demo.EventRecord
	for i := 0; i < 10; i++ {
		winner := 3
		if i >= 6 {
			winner = 2
		}
		reason := 7
		if i%2 == 1 {
			reason = 8
		}
		rounds = append(rounds, demo.EventRecord{"winner": winner, "reason": reason})
	}

	svc := newTestExtraction(&fakeDemoReader{
		snapshot: defaultRoster(),
		events: map[string][]demo.EventRecord{
			demo.EventRoundEnd: rounds,
			demo.EventPlayerDeath: {
				{"attacker_steamid": steamBob, "user_steamid": steamAlice, "headshot": true},
				{"attacker_steamid": steamBob, "user_steamid": steamAlice, "assister_steamid": steamAlice},
				{"attacker_SteamID": steamAlice, "userid_steamid": steamBob, "headshot": 1},
				{"attacker_steamid": "76561198999999999", "user_steamid": steamBob},
			},
			demo.EventPlayerHurt: {
				{"attacker_steamid": steamBob, "dmg_health": 100},
				{"attacker_steamid": steamBob, "dmg_health": 27},
				{"attacker_steamid": steamAlice, "dmg_health": 50},
			},
		},
		ticks: []demo.EventRecord{
			{"team_num": 3, "team_rounds_total": 13},
			{"team_num": 2, "team_rounds_total": 11},
		},
	})

	view := svc.ExtractStatistics(context.Background(), "match.dem")
	if view.ScoreCT != 6 || view.ScoreT != 4 {
		t.Fatalf("expected 6-4, got=%d-%d", view.ScoreCT, view.ScoreT)
	}
	if view.ScoreSource != demo.ScoreFromRoundEnd {
		t.Fatalf("expected round_end source, got=%s", view.ScoreSource)
	}
	if len(view.Rounds) != 10 {
		t.Fatalf("expected 10 rounds, got=%d", len(view.Rounds))
	}
	for i, r := range view.Rounds {
		if r.RoundNumber != i+1 {
			t.Fatalf("round %d has number %d", i, r.RoundNumber)
		}
	}
	if view.Rounds[0].Reason != demo.ReasonBombDefused || view.Rounds[1].Reason != demo.ReasonElimination {
		t.Fatalf("unexpected reasons: %s %s", view.Rounds[0].Reason, view.Rounds[1].Reason)
	}

	if len(view.Players) != 2 {
		t.Fatalf("expected 2 players, got=%d", len(view.Players))
	}
	bob, alice := view.Players[0], view.Players[1]
	if bob.SteamID64 != steamBob || bob.Kills != 2 || bob.Deaths != 2 || bob.Headshots != 1 {
		t.Fatalf("unexpected bob stats: %+v", bob)
	}
	if bob.Damage != 127 || bob.ADR != 13 || bob.RoundsPlayed != 10 || bob.HSPercent != 50 || bob.KD != 1 {
		t.Fatalf("unexpected bob derived stats: %+v", bob)
	}
	if alice.Kills != 1 || alice.Deaths != 2 || alice.Assists != 1 || alice.KD != 0.5 {
		t.Fatalf("unexpected alice stats: %+v", alice)
	}
}

func TestMatchExtractionService_ExtractStatistics_TickFallback(t *testing.T) {
	t.Parallel()

	svc := newTestExtraction(&fakeDemoReader{
		snapshot:  defaultRoster(),
		eventErrs: map[string]error{demo.EventRoundEnd: errors.New("event missing")},
		ticks: []demo.EventRecord{
			{"tick": 10, "team_num": 3, "team_rounds_total": 4},
			{"tick": 10, "team_num": 2, "team_rounds_total": 7},
			{"tick": 20, "team_num": 3, "team_rounds_total": 9},
			{"tick": 20, "team_num": 2, "team_rounds_total": 7},
		},
		events: map[string][]demo.EventRecord{
			demo.EventMatchEnd: {{"ct_score": 1, "t_score": 1}},
		},
	})

	view := svc.ExtractStatistics(context.Background(), "match.dem")
	if view.ScoreCT != 9 || view.ScoreT != 7 {
		t.Fatalf("expected 9-7, got=%d-%d", view.ScoreCT, view.ScoreT)
	}
	if view.ScoreSource != demo.ScoreFromTicks {
		t.Fatalf("expected tick source, got=%s", view.ScoreSource)
	}
	if len(view.Rounds) != 0 {
		t.Fatalf("expected no rounds, got=%d", len(view.Rounds))
	}
	for _, p := range view.Players {
		if p.RoundsPlayed != 1 {
			t.Fatalf("expected rounds played floor of 1, got=%d", p.RoundsPlayed)
		}
	}
}

func TestMatchExtractionService_ExtractStatistics_MatchEndFallback(t *testing.T) {
	t.Parallel()

	svc := newTestExtraction(&fakeDemoReader{
		snapshot: defaultRoster(),
		ticksErr: errors.New("tick field missing"),
		events: map[string][]demo.EventRecord{
			demo.EventMatchEnd: {
				{"ct_score": 3, "t_score": 2},
				{"t2_score": 16, "t1_score": 12},
			},
		},
	})

	view := svc.ExtractStatistics(context.Background(), "match.dem")
	if view.ScoreCT != 16 || view.ScoreT != 12 || view.ScoreSource != demo.ScoreFromMatchEnd {
		t.Fatalf("expected 16-12 from match end, got=%d-%d (%s)", view.ScoreCT, view.ScoreT, view.ScoreSource)
	}
}

func TestMatchExtractionService_ExtractStatistics_RoundStartOnly(t *testing.T) {
	t.Parallel()

	svc := newTestExtraction(&fakeDemoReader{
		snapshot: defaultRoster(),
		panicOn:  demo.EventPlayerDeath,
		events: map[string][]demo.EventRecord{
			demo.EventRoundStart: {{}, {}, {}},
		},
	})

	view := svc.ExtractStatistics(context.Background(), "match.dem")
	if view.ScoreCT != 0 || view.ScoreT != 0 {
		t.Fatalf("expected 0-0, got=%d-%d", view.ScoreCT, view.ScoreT)
	}
	if view.ScoreSource != demo.ScoreFromRoundStart || len(view.Rounds) != 3 {
		t.Fatalf("expected 3 round start rounds, got=%d (%s)", len(view.Rounds), view.ScoreSource)
	}
	for _, r := range view.Rounds {
		if r.Winner != nil || r.Reason != demo.ReasonUnknown {
			t.Fatalf("unexpected round start outcome: %+v", r)
		}
	}
	if len(view.Players) != 2 || view.Players[0].RoundsPlayed != 3 {
		t.Fatalf("expected roster to survive kill pass panic, got=%+v", view.Players)
	}
}

func TestMatchExtractionService_ExtractStatistics_NoSignal(t *testing.T) {
	t.Parallel()

	svc := newTestExtraction(&fakeDemoReader{snapshotErr: errors.New("corrupt")})

	view := svc.ExtractStatistics(context.Background(), "empty.dem")
	if view.ScoreSource != demo.ScoreNone || view.ScoreCT != 0 || view.ScoreT != 0 {
		t.Fatalf("expected zero score with no source, got=%+v", view)
	}
	if view.Rounds == nil || view.Players == nil {
		t.Fatalf("expected empty non-nil collections")
	}
}

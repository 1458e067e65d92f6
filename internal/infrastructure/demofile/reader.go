package demofile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	dem "github.com/markus-wa/demoinfocs-golang/v5/pkg/demoinfocs"
	"github.com/markus-wa/demoinfocs-golang/v5/pkg/demoinfocs/common"
	"github.com/markus-wa/demoinfocs-golang/v5/pkg/demoinfocs/events"
	"github.com/markus-wa/demoinfocs-golang/v5/pkg/demoinfocs/msg"
	"github.com/riskibarqy/evidence-portal/internal/domain/demo"
	"github.com/riskibarqy/evidence-portal/internal/platform/cache"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

const defaultRecordingTTL = 2 * time.Minute

// recording is everything the reader queries, captured in a single decode.
type recording struct {
	header   demo.RawHeader
	snapshot []demo.SnapshotEntry
	events   map[string][]demo.EventRecord
	ticks    []demo.EventRecord
	partial  bool
	// err is a decode failure kept for the cache TTL so a broken file is
	// decoded once, not once per query.
	err error
}

// Reader decodes CS2 recordings with demoinfocs. Consecutive queries against
// the same path share one decode.
type Reader struct {
	recordings *cache.Store[*recording]
	logger     *logging.Logger
	open       func(path string) (*os.File, error)
	newParser  func(io.Reader) dem.Parser
}

func NewReader(ttl time.Duration, logger *logging.Logger) *Reader {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = defaultRecordingTTL
	}
	return &Reader{
		recordings: cache.NewStore[*recording](ttl),
		logger:     logger.Named("demofile"),
		open:       os.Open,
		newParser:  dem.NewParser,
	}
}

func (r *Reader) ReadHeader(ctx context.Context, path string) (demo.RawHeader, error) {
	rec, err := r.load(ctx, path)
	if err != nil {
		return demo.RawHeader{}, err
	}
	return rec.header, nil
}

func (r *Reader) ReadPlayerSnapshot(ctx context.Context, path string) ([]demo.SnapshotEntry, error) {
	rec, err := r.load(ctx, path)
	if err != nil {
		return nil, err
	}
	return append([]demo.SnapshotEntry(nil), rec.snapshot...), nil
}

func (r *Reader) ReadEvents(ctx context.Context, path, event string, fields ...string) ([]demo.EventRecord, error) {
	if !knownEvent(event) {
		return nil, demo.ErrUnknownEvent{Name: event}
	}
	rec, err := r.load(ctx, path)
	if err != nil {
		return nil, err
	}
	return project(rec.events[event], fields), nil
}

func (r *Reader) ReadTickSeries(ctx context.Context, path string, fields ...string) ([]demo.EventRecord, error) {
	rec, err := r.load(ctx, path)
	if err != nil {
		return nil, err
	}
	return project(rec.ticks, fields), nil
}

func (r *Reader) load(ctx context.Context, path string) (*recording, error) {
	rec, err := r.recordings.GetOrLoad(ctx, path, func(ctx context.Context) (*recording, error) {
		start := time.Now()
		rec, err := r.decode(ctx, path)
		if err != nil {
			r.logger.WarnContext(ctx, "decode demo failed", "path", path, "error", err)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return &recording{err: err}, nil
		}
		r.logger.DebugContext(ctx, "demo decoded",
			"path", path,
			"map", rec.header.MapName,
			"players", len(rec.snapshot),
			"rounds", len(rec.events[demo.EventRoundEnd]),
			"partial", rec.partial,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	if rec.err != nil {
		return nil, rec.err
	}
	return rec, nil
}

func (r *Reader) decode(ctx context.Context, path string) (rec *recording, err error) {
	f, err := r.open(path)
	if err != nil {
		return nil, fmt.Errorf("open demo: %w", err)
	}
	defer f.Close()

	p := r.newParser(f)
	defer p.Close()

	c := newCollector(p)
	c.register()

	stop := context.AfterFunc(ctx, p.Cancel)
	defer stop()

	defer func() {
		if recovered := recover(); recovered != nil {
			rec, err = nil, fmt.Errorf("demo decoder panic: %v", recovered)
		}
	}()

	parseErr := p.ParseToEnd()
	switch {
	case parseErr == nil:
	case errors.Is(parseErr, dem.ErrUnexpectedEndOfDemo):
		c.rec.partial = true
	case errors.Is(parseErr, dem.ErrCancelled):
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("decode demo: %w", ctxErr)
		}
		return nil, fmt.Errorf("decode demo: %w", parseErr)
	default:
		return nil, fmt.Errorf("decode demo: %w", parseErr)
	}

	c.finish()
	return c.rec, nil
}

// collector turns demoinfocs callbacks into loosely typed records keyed
// by the game's own event field names.
type collector struct {
	p   dem.Parser
	rec *recording

	mapName         string
	serverName      string
	playbackSeconds float64
}

func newCollector(p dem.Parser) *collector {
	return &collector{
		p: p,
		rec: &recording{
			events: map[string][]demo.EventRecord{},
		},
	}
}

func (c *collector) register() {
	c.p.RegisterNetMessageHandler(func(m *msg.CDemoFileHeader) {
		c.mapName = m.GetMapName()
		c.serverName = m.GetServerName()
	})
	// CDemoFileInfo is written at the end of the recording and may be absent.
	c.p.RegisterNetMessageHandler(func(m *msg.CDemoFileInfo) {
		c.playbackSeconds = float64(m.GetPlaybackTime())
	})
	c.p.RegisterEventHandler(func(e events.Kill) {
		c.add(demo.EventPlayerDeath, demo.EventRecord{
			"tick":             c.p.GameState().IngameTick(),
			"attacker_steamid": steamID(e.Killer),
			"user_steamid":     steamID(e.Victim),
			"assister_steamid": steamID(e.Assister),
			"headshot":         e.IsHeadshot,
		})
	})
	c.p.RegisterEventHandler(func(e events.PlayerHurt) {
		c.add(demo.EventPlayerHurt, demo.EventRecord{
			"tick":             c.p.GameState().IngameTick(),
			"attacker_steamid": steamID(e.Attacker),
			"user_steamid":     steamID(e.Player),
			"dmg_health":       e.HealthDamage,
		})
	})
	c.p.RegisterEventHandler(func(events.RoundStart) {
		c.add(demo.EventRoundStart, demo.EventRecord{
			"tick":  c.p.GameState().IngameTick(),
			"round": c.p.GameState().TotalRoundsPlayed() + 1,
		})
		c.snapshotPlayers()
	})
	c.p.RegisterEventHandler(func(e events.RoundEnd) {
		c.add(demo.EventRoundEnd, demo.EventRecord{
			"tick":   c.p.GameState().IngameTick(),
			"winner": int(e.Winner),
			"reason": int(e.Reason),
		})
		c.sampleScores()
	})
	c.p.RegisterEventHandler(func(events.RoundEndOfficial) {
		c.sampleScores()
	})
	c.p.RegisterEventHandler(func(events.AnnouncementWinPanelMatch) {
		gs := c.p.GameState()
		c.add(demo.EventMatchEnd, demo.EventRecord{
			"tick":     gs.IngameTick(),
			"ct_score": gs.TeamCounterTerrorists().Score(),
			"t_score":  gs.TeamTerrorists().Score(),
		})
		c.sampleScores()
	})
}

func (c *collector) add(event string, record demo.EventRecord) {
	c.rec.events[event] = append(c.rec.events[event], record)
}

// sampleScores appends one tick row per side with its running round total.
func (c *collector) sampleScores() {
	gs := c.p.GameState()
	tick := gs.IngameTick()
	c.rec.ticks = append(c.rec.ticks,
		demo.EventRecord{
			demo.FieldTick:            tick,
			demo.FieldTeamNum:         demo.TeamCodeTerrorist,
			demo.FieldTeamRoundsTotal: gs.TeamTerrorists().Score(),
		},
		demo.EventRecord{
			demo.FieldTick:            tick,
			demo.FieldTeamNum:         demo.TeamCodeCounterTerrorist,
			demo.FieldTeamRoundsTotal: gs.TeamCounterTerrorists().Score(),
		},
	)
}

func (c *collector) snapshotPlayers() {
	for _, pl := range c.p.GameState().Participants().All() {
		if pl == nil || pl.IsBot || pl.SteamID64 == 0 {
			continue
		}
		c.rec.snapshot = append(c.rec.snapshot, demo.SnapshotEntry{
			Name:      pl.Name,
			SteamID64: strconv.FormatUint(pl.SteamID64, 10),
			SideCode:  int(pl.Team),
		})
	}
}

func (c *collector) finish() {
	c.snapshotPlayers()
	c.resolveHeader()
}

func (c *collector) resolveHeader() {
	c.rec.header = demo.RawHeader{
		MapName:         c.mapName,
		ServerName:      c.serverName,
		PlaybackSeconds: c.playbackSeconds,
	}
	if c.rec.header.PlaybackSeconds <= 0 {
		c.rec.header.PlaybackSeconds = c.p.CurrentTime().Seconds()
	}
}

func steamID(pl *common.Player) string {
	if pl == nil || pl.SteamID64 == 0 {
		return ""
	}
	return strconv.FormatUint(pl.SteamID64, 10)
}

func knownEvent(event string) bool {
	switch event {
	case demo.EventPlayerDeath, demo.EventPlayerHurt, demo.EventRoundEnd, demo.EventRoundStart, demo.EventMatchEnd:
		return true
	default:
		return false
	}
}

func project(records []demo.EventRecord, fields []string) []demo.EventRecord {
	out := make([]demo.EventRecord, 0, len(records))
	for _, record := range records {
		out = append(out, record.Project(fields))
	}
	return out
}

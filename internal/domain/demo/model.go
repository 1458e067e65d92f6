package demo

import "math"

// Side is the team a player or round winner belongs to.
type Side string

const (
	SideT         Side = "T"
	SideCT        Side = "CT"
	SideSpectator Side = "SPEC"
)

// Team numbers as written by the game into recordings.
const (
	TeamCodeTerrorist        = 2
	TeamCodeCounterTerrorist = 3
)

// SideFromCode maps a recorded team number. Anything other than 2 or 3 is a
// spectator.
func SideFromCode(code int) Side {
	switch code {
	case TeamCodeTerrorist:
		return SideT
	case TeamCodeCounterTerrorist:
		return SideCT
	default:
		return SideSpectator
	}
}

// Playing reports whether s is one of the two competing sides.
func (s Side) Playing() bool {
	return s == SideT || s == SideCT
}

// Ptr returns s for playing sides and nil otherwise.
func (s Side) Ptr() *Side {
	if !s.Playing() {
		return nil
	}
	out := s
	return &out
}

type EndReason string

const (
	ReasonElimination  EndReason = "elimination"
	ReasonBombExploded EndReason = "bomb_exploded"
	ReasonBombDefused  EndReason = "bomb_defused"
	ReasonTime         EndReason = "time"
	ReasonUnknown      EndReason = "unknown"
)

// EndReasonFromCode maps the game's round end reason code. Unrecognized
// codes count as elimination.
func EndReasonFromCode(code int) EndReason {
	switch code {
	case 1:
		return ReasonBombExploded
	case 7:
		return ReasonBombDefused
	case 8, 9:
		return ReasonElimination
	case 12:
		return ReasonTime
	default:
		return ReasonElimination
	}
}

// Header is the per-file metadata embedded into every view.
type Header struct {
	Map             string  `json:"map"`
	ServerName      *string `json:"serverName"`
	PlaybackSeconds *int    `json:"duration"`
}

// NewHeader normalizes raw decoder output. Non-positive or non-finite
// durations become nil.
func NewHeader(raw RawHeader) Header {
	h := Header{Map: raw.MapName}
	if raw.ServerName != "" {
		name := raw.ServerName
		h.ServerName = &name
	}
	if raw.PlaybackSeconds > 0 && !math.IsInf(raw.PlaybackSeconds, 0) && !math.IsNaN(raw.PlaybackSeconds) {
		seconds := int(math.Round(raw.PlaybackSeconds))
		h.PlaybackSeconds = &seconds
	}
	return h
}

type PlayerIdentity struct {
	Name      string `json:"name"`
	SteamID64 string `json:"steamId64"`
	Team      *Side  `json:"team"`
}

type PlayerMatchStats struct {
	Name         string  `json:"name"`
	SteamID64    string  `json:"steamId64"`
	Team         Side    `json:"team"`
	Kills        int     `json:"kills"`
	Deaths       int     `json:"deaths"`
	Assists      int     `json:"assists"`
	Headshots    int     `json:"headshots"`
	Damage       int     `json:"damage"`
	RoundsPlayed int     `json:"roundsPlayed"`
	HSPercent    int     `json:"hsPercent"`
	KD           float64 `json:"kd"`
	ADR          int     `json:"adr"`
}

// Finalize clamps tallies and fills the derived fields.
func (p PlayerMatchStats) Finalize() PlayerMatchStats {
	p.Kills = max(p.Kills, 0)
	p.Deaths = max(p.Deaths, 0)
	p.Assists = max(p.Assists, 0)
	p.Damage = max(p.Damage, 0)
	p.RoundsPlayed = max(p.RoundsPlayed, 0)
	p.Headshots = min(max(p.Headshots, 0), p.Kills)

	p.HSPercent = 0
	if p.Kills > 0 {
		p.HSPercent = int(math.Round(100 * float64(p.Headshots) / float64(p.Kills)))
	}

	p.KD = float64(p.Kills)
	if p.Deaths > 0 {
		p.KD = math.Round(float64(p.Kills)/float64(p.Deaths)*100) / 100
	}

	p.ADR = 0
	if p.RoundsPlayed > 0 {
		p.ADR = int(math.Round(float64(p.Damage) / float64(p.RoundsPlayed)))
	}
	return p
}

type RoundOutcome struct {
	RoundNumber int       `json:"roundNumber"`
	Winner      *Side     `json:"winner"`
	Reason      EndReason `json:"reason"`
}

// ScoreSource records which signal produced the final score.
type ScoreSource string

const (
	ScoreFromRoundEnd   ScoreSource = "round_end"
	ScoreFromTicks      ScoreSource = "tick"
	ScoreFromMatchEnd   ScoreSource = "match_end"
	ScoreFromRoundStart ScoreSource = "round_start"
	ScoreNone           ScoreSource = "none"
)

type IdentityView struct {
	Header
	Players []PlayerIdentity `json:"players"`
}

type MatchStatisticsView struct {
	Header
	ScoreCT     int                `json:"scoreCT"`
	ScoreT      int                `json:"scoreT"`
	ScoreSource ScoreSource        `json:"scoreSource"`
	Rounds      []RoundOutcome     `json:"rounds"`
	Players     []PlayerMatchStats `json:"players"`
}

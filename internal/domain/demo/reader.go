package demo

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Event names understood by Reader.ReadEvents.
const (
	EventPlayerDeath = "player_death"
	EventPlayerHurt  = "player_hurt"
	EventRoundEnd    = "round_end"
	EventRoundStart  = "round_start"
	EventMatchEnd    = "cs_win_panel_match"
)

// Tick series fields understood by Reader.ReadTickSeries.
const (
	FieldTick            = "tick"
	FieldTeamNum         = "team_num"
	FieldTeamRoundsTotal = "team_rounds_total"
)

// Reader decodes a recording on disk. Every query may fail independently;
// callers degrade instead of aborting.
type Reader interface {
	ReadHeader(ctx context.Context, path string) (RawHeader, error)
	ReadPlayerSnapshot(ctx context.Context, path string) ([]SnapshotEntry, error)
	ReadEvents(ctx context.Context, path, event string, fields ...string) ([]EventRecord, error)
	ReadTickSeries(ctx context.Context, path string, fields ...string) ([]EventRecord, error)
}

type RawHeader struct {
	MapName         string
	ServerName      string
	PlaybackSeconds float64
}

type SnapshotEntry struct {
	Name      string
	SteamID64 string
	SideCode  int
}

// ErrUnknownEvent is returned for event names a reader cannot produce.
type ErrUnknownEvent struct {
	Name string
}

func (e ErrUnknownEvent) Error() string {
	return fmt.Sprintf("unknown demo event %q", e.Name)
}

// EventRecord is one decoded event or tick row keyed by field name. Values
// are loosely typed because field schemas vary between recording versions.
type EventRecord map[string]any

// String returns the first non-empty value among keys.
func (r EventRecord) String(keys ...string) string {
	for _, key := range keys {
		switch v := r[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" && s != "0" {
				return s
			}
		case uint64:
			if v != 0 {
				return strconv.FormatUint(v, 10)
			}
		case int64:
			if v != 0 {
				return strconv.FormatInt(v, 10)
			}
		case int:
			if v != 0 {
				return strconv.Itoa(v)
			}
		}
	}
	return ""
}

// Int returns the first numeric value among keys.
func (r EventRecord) Int(keys ...string) (int, bool) {
	for _, key := range keys {
		switch v := r[key].(type) {
		case int:
			return v, true
		case int32:
			return int(v), true
		case int64:
			return int(v), true
		case uint8:
			return int(v), true
		case uint64:
			return int(v), true
		case float64:
			if !math.IsNaN(v) {
				return int(v), true
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// Truthy reports whether any key holds true or 1.
func (r EventRecord) Truthy(keys ...string) bool {
	for _, key := range keys {
		switch v := r[key].(type) {
		case bool:
			if v {
				return true
			}
		case int:
			if v == 1 {
				return true
			}
		case float64:
			if v == 1 {
				return true
			}
		}
	}
	return false
}

// Project keeps only the requested fields. No fields keeps everything.
func (r EventRecord) Project(fields []string) EventRecord {
	if len(fields) == 0 {
		return r
	}
	out := make(EventRecord, len(fields))
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}

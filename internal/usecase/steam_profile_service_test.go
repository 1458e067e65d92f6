package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

type fakeSteamProfileSource struct {
	vanity map[string]string
	bans   []PlayerBan
	err    error
	calls  int
}

func (f *fakeSteamProfileSource) ResolveVanityURL(_ context.Context, vanity string) (string, bool, error) {
	f.calls++
	if f.err != nil {
		return "", false, f.err
	}
	id, ok := f.vanity[vanity]
	return id, ok, nil
}

func (f *fakeSteamProfileSource) GetPlayerBans(context.Context, []string) ([]PlayerBan, error) {
	f.calls++
	return f.bans, f.err
}

func TestSteamProfileService_ResolveProfile(t *testing.T) {
	t.Parallel()

	source := &fakeSteamProfileSource{vanity: map[string]string{"gaben": suspectSteamID}}
	svc := NewSteamProfileService(source, logging.NewNop())

	cases := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "https://steamcommunity.com/profiles/" + suspectSteamID + "/", want: suspectSteamID},
		{in: " " + suspectSteamID, want: suspectSteamID},
		{in: "https://steamcommunity.com/id/gaben?l=english", want: suspectSteamID},
		{in: "https://steamcommunity.com/id/nobody", wantErr: ErrNotFound},
		{in: "https://example.com/u/1", wantErr: ErrInvalidInput},
		{in: "", wantErr: ErrInvalidInput},
	}
	for _, tc := range cases {
		got, err := svc.ResolveProfile(context.Background(), tc.in)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("ResolveProfile(%q) expected %v, got=%v", tc.in, tc.wantErr, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ResolveProfile(%q) = %q,%v want %q", tc.in, got, err, tc.want)
		}
	}
	if source.calls != 2 {
		t.Fatalf("expected 2 vanity lookups, got=%d", source.calls)
	}
}

func TestSteamProfileService_ResolveProfile_SourceFailure(t *testing.T) {
	t.Parallel()

	svc := NewSteamProfileService(&fakeSteamProfileSource{err: errors.New("timeout")}, logging.NewNop())
	_, err := svc.ResolveProfile(context.Background(), "steamcommunity.com/id/gaben")
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got=%v", err)
	}
}

func TestSteamProfileService_PlayerBans(t *testing.T) {
	t.Parallel()

	source := &fakeSteamProfileSource{bans: []PlayerBan{
		{SteamID: "76561198000000009"},
		{SteamID: suspectSteamID, VACBanned: true, NumberOfVACBans: 2, DaysSinceLastBan: 40, EconomyBan: "none"},
	}}
	svc := NewSteamProfileService(source, logging.NewNop())

	ban, err := svc.PlayerBans(context.Background(), suspectSteamID)
	if err != nil {
		t.Fatalf("PlayerBans error: %v", err)
	}
	if !ban.VACBanned || ban.NumberOfVACBans != 2 {
		t.Fatalf("unexpected ban record: %+v", ban)
	}

	if _, err := svc.PlayerBans(context.Background(), "123"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short id, got=%v", err)
	}

	empty := NewSteamProfileService(&fakeSteamProfileSource{}, logging.NewNop())
	if _, err := empty.PlayerBans(context.Background(), suspectSteamID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got=%v", err)
	}
}

func TestNormalizeSteamID64(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "76561198000000001", want: "76561198000000001"},
		{in: " 76561198132612090 ", want: "76561198132612090"},
		{in: "76561197960265728", wantErr: true},
		{in: "7656119800000000", wantErr: true},
		{in: "steam:76561198000", wantErr: true},
	}
	for _, tt := range tests {
		got, err := normalizeSteamID64(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("normalizeSteamID64(%q) expected ErrInvalidInput, got=%q err=%v", tt.in, got, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("normalizeSteamID64(%q)=%q err=%v want=%q", tt.in, got, err, tt.want)
		}
	}
}

package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/leighmacdonald/steamid/v4/steamid"
	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

var (
	profileURLPattern = regexp.MustCompile(`steamcommunity\.com/profiles/(\d{17})`)
	vanityURLPattern  = regexp.MustCompile(`steamcommunity\.com/id/([^/?]+)`)
)

// normalizeSteamID64 accepts only 17 digit identifiers of valid accounts.
func normalizeSteamID64(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !steamID64Pattern.MatchString(raw) {
		return "", fmt.Errorf("%w: steamid64 must be 17 digits", ErrInvalidInput)
	}
	if sid := steamid.New(raw); !sid.Valid() {
		return "", fmt.Errorf("%w: steamid64 %s is not a valid account id", ErrInvalidInput, raw)
	}
	return raw, nil
}

type SteamProfileService struct {
	source SteamProfileSource
	logger *logging.Logger
}

func NewSteamProfileService(source SteamProfileSource, logger *logging.Logger) *SteamProfileService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SteamProfileService{
		source: source,
		logger: logger.Named("steam_profile"),
	}
}

// ResolveProfile turns a profile URL, vanity URL or raw id into a steamid64.
func (s *SteamProfileService) ResolveProfile(ctx context.Context, input string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SteamProfileService.ResolveProfile")
	defer span.End()

	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("%w: profile is required", ErrInvalidInput)
	}

	if m := profileURLPattern.FindStringSubmatch(input); m != nil {
		return normalizeSteamID64(m[1])
	}
	if steamID64Pattern.MatchString(input) {
		return normalizeSteamID64(input)
	}

	m := vanityURLPattern.FindStringSubmatch(input)
	if m == nil {
		return "", fmt.Errorf("%w: unrecognized steam profile %q", ErrInvalidInput, input)
	}
	if s.source == nil {
		return "", fmt.Errorf("%w: steam web api is not configured", ErrDependencyUnavailable)
	}

	id, found, err := s.source.ResolveVanityURL(ctx, m[1])
	if err != nil {
		return "", fmt.Errorf("%w: resolve vanity url: %v", ErrDependencyUnavailable, err)
	}
	if !found {
		return "", fmt.Errorf("%w: vanity=%s", ErrNotFound, m[1])
	}
	return normalizeSteamID64(id)
}

// PlayerBans returns the ban record of one player.
func (s *SteamProfileService) PlayerBans(ctx context.Context, steamID64 string) (PlayerBan, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SteamProfileService.PlayerBans")
	defer span.End()

	steamID64, err := normalizeSteamID64(steamID64)
	if err != nil {
		return PlayerBan{}, err
	}
	if s.source == nil {
		return PlayerBan{}, fmt.Errorf("%w: steam web api is not configured", ErrDependencyUnavailable)
	}

	bans, err := s.source.GetPlayerBans(ctx, []string{steamID64})
	if err != nil {
		return PlayerBan{}, fmt.Errorf("%w: get player bans: %v", ErrDependencyUnavailable, err)
	}
	for _, ban := range bans {
		if ban.SteamID == steamID64 {
			return ban, nil
		}
	}
	return PlayerBan{}, fmt.Errorf("%w: bans for steamid64=%s", ErrNotFound, steamID64)
}

package steam

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/riskibarqy/evidence-portal/internal/usecase"
)

// ResolveVanityURL maps a custom profile name to a steamid64.
func (c *Client) ResolveVanityURL(ctx context.Context, vanity string) (string, bool, error) {
	if !c.HasAPIKey() {
		return "", false, fmt.Errorf("%w: steam web api key is not configured", usecase.ErrDependencyUnavailable)
	}
	vanity = strings.TrimSpace(vanity)
	if vanity == "" {
		return "", false, fmt.Errorf("%w: vanity name is required", usecase.ErrInvalidInput)
	}

	values := url.Values{}
	values.Set("key", c.apiKey)
	values.Set("vanityurl", vanity)
	fullURL := c.apiBaseURL + "/ISteamUser/ResolveVanityURL/v1/?" + values.Encode()

	var payload resolveVanityEnvelope
	if err := c.getJSON(ctx, c.webAPI, fullURL, "application/json", &payload); err != nil {
		return "", false, fmt.Errorf("resolve vanity url: %w", err)
	}
	if int(payload.Response.Success) != 1 || payload.Response.SteamID == "" {
		return "", false, nil
	}
	return string(payload.Response.SteamID), true, nil
}

// GetPlayerBans returns ban records for up to 100 ids.
func (c *Client) GetPlayerBans(ctx context.Context, steamIDs []string) ([]usecase.PlayerBan, error) {
	if !c.HasAPIKey() {
		return nil, fmt.Errorf("%w: steam web api key is not configured", usecase.ErrDependencyUnavailable)
	}
	if len(steamIDs) == 0 {
		return []usecase.PlayerBan{}, nil
	}
	if len(steamIDs) > 100 {
		return nil, fmt.Errorf("%w: at most 100 steam ids per request", usecase.ErrInvalidInput)
	}

	values := url.Values{}
	values.Set("key", c.apiKey)
	values.Set("steamids", strings.Join(steamIDs, ","))
	fullURL := c.apiBaseURL + "/ISteamUser/GetPlayerBans/v1/?" + values.Encode()

	var payload playerBansEnvelope
	if err := c.getJSON(ctx, c.webAPI, fullURL, "application/json", &payload); err != nil {
		return nil, fmt.Errorf("get player bans: %w", err)
	}

	out := make([]usecase.PlayerBan, 0, len(payload.Players))
	for _, p := range payload.Players {
		out = append(out, usecase.PlayerBan{
			SteamID:          string(p.SteamID),
			CommunityBanned:  p.CommunityBanned,
			VACBanned:        p.VACBanned,
			NumberOfVACBans:  int(p.NumberOfVACBans),
			DaysSinceLastBan: int(p.DaysSinceLastBan),
			NumberOfGameBans: int(p.NumberOfGameBans),
			EconomyBan:       p.EconomyBan,
		})
	}
	return out, nil
}

type resolveVanityEnvelope struct {
	Response struct {
		SteamID flexString `json:"steamid"`
		Success flexInt    `json:"success"`
		Message string     `json:"message"`
	} `json:"response"`
}

type playerBansEnvelope struct {
	Players []struct {
		SteamID          flexString `json:"SteamId"`
		CommunityBanned  bool       `json:"CommunityBanned"`
		VACBanned        bool       `json:"VACBanned"`
		NumberOfVACBans  flexInt    `json:"NumberOfVACBans"`
		DaysSinceLastBan flexInt    `json:"DaysSinceLastBan"`
		NumberOfGameBans flexInt    `json:"NumberOfGameBans"`
		EconomyBan       string     `json:"EconomyBan"`
	} `json:"players"`
}

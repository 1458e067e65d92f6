package httpapi

import (
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/demo"
	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
)

type identityDTO struct {
	Map        string                `json:"map"`
	ServerName *string               `json:"serverName"`
	Duration   *int                  `json:"duration"`
	Players    []demo.PlayerIdentity `json:"players"`
}

type statisticsDTO struct {
	Map         string                  `json:"map"`
	ServerName  *string                 `json:"serverName"`
	Duration    *int                    `json:"duration"`
	ScoreCT     int                     `json:"scoreCT"`
	ScoreT      int                     `json:"scoreT"`
	ScoreSource demo.ScoreSource        `json:"scoreSource"`
	Rounds      []demo.RoundOutcome     `json:"rounds"`
	Players     []demo.PlayerMatchStats `json:"players"`
}

type valuationDTO struct {
	SteamID64  string       `json:"steamId64"`
	ValueCents *int64       `json:"valueCents"`
	Currency   *string      `json:"currency"`
	Error      *string      `json:"error"`
	TopItems   []topItemDTO `json:"topItems"`
	ItemCount  int          `json:"itemCount"`
	UpdatedAt  string       `json:"updatedAt"`
}

type topItemDTO struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"priceCents"`
	IconURL    string `json:"iconUrl"`
}

type resolvedProfileDTO struct {
	SteamID64 string `json:"steamId64"`
}

func identityToDTO(v demo.IdentityView) identityDTO {
	players := v.Players
	if players == nil {
		players = []demo.PlayerIdentity{}
	}
	return identityDTO{
		Map:        v.Map,
		ServerName: v.ServerName,
		Duration:   v.PlaybackSeconds,
		Players:    players,
	}
}

func statisticsToDTO(v demo.MatchStatisticsView) statisticsDTO {
	rounds := v.Rounds
	if rounds == nil {
		rounds = []demo.RoundOutcome{}
	}
	players := v.Players
	if players == nil {
		players = []demo.PlayerMatchStats{}
	}
	return statisticsDTO{
		Map:         v.Map,
		ServerName:  v.ServerName,
		Duration:    v.PlaybackSeconds,
		ScoreCT:     v.ScoreCT,
		ScoreT:      v.ScoreT,
		ScoreSource: v.ScoreSource,
		Rounds:      rounds,
		Players:     players,
	}
}

func valuationToDTO(v inventory.Valuation) valuationDTO {
	items := make([]topItemDTO, 0, len(v.TopItems))
	for _, item := range v.TopItems {
		items = append(items, topItemDTO{
			Name:       item.Name,
			PriceCents: item.PriceCents,
			IconURL:    item.IconURL,
		})
	}

	updatedAt := ""
	if !v.UpdatedAt.IsZero() {
		updatedAt = v.UpdatedAt.UTC().Format(time.RFC3339)
	}

	return valuationDTO{
		SteamID64:  v.SteamID64,
		ValueCents: v.ValueCents,
		Currency:   v.Currency,
		Error:      v.Error,
		TopItems:   items,
		ItemCount:  v.ItemCount,
		UpdatedAt:  updatedAt,
	}
}

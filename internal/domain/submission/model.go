package submission

import (
	"time"

	"github.com/riskibarqy/evidence-portal/internal/domain/demo"
	"github.com/riskibarqy/evidence-portal/internal/domain/inventory"
)

// Submission is the subset of an evidence submission the pipeline reads and
// writes. The record itself is owned by the portal.
type Submission struct {
	ID                   string
	DemoObjectKey        string
	DemoOriginalFilename string
	SuspectedSteamID64   string
	Map                  string
	MatchStats           *demo.MatchStatisticsView
	MatchStatsUpdatedAt  *time.Time
	Inventory            *inventory.Valuation
}

func (s Submission) HasDemo() bool {
	return s.DemoObjectKey != ""
}

func (s Submission) HasSuspect() bool {
	return s.SuspectedSteamID64 != ""
}

package domain

import (
	"time"
)

type Tier string

const (
	TierPlayer     Tier = "player"
	TierAgent      Tier = "agent"
	TierSuperAgent Tier = "superAgent"
)

func (t Tier) Valid() bool {
	switch t {
	case TierPlayer, TierAgent, TierSuperAgent:
		return true
	}
	return false
}

type RakebackType string

const (
	RakebackFlat      RakebackType = "flat"
	RakebackThreshold RakebackType = "threshold"
)

// NoUpline marks a row without an agent or super agent.
const NoUpline = "-"

// RakeRow is one player's figures for one week as delivered by ingestion.
type RakeRow struct {
	Nickname   string  `json:"nickname"`
	Agent      string  `json:"agent"`
	SuperAgent string  `json:"superAgent"`
	Rake       float64 `json:"rake"`
	PL         float64 `json:"pl"`
}

type Threshold struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Percentage float64 `json:"percentage"`
}

type RoutingEntry struct {
	Type       Tier    `json:"type"`
	Username   string  `json:"username"`
	Percentage float64 `json:"percentage"`
}

// EntityConfig is the commission rule set shared by all three tiers.
type EntityConfig struct {
	Nickname     string         `json:"nickname"`
	RakebackType RakebackType   `json:"rakebackType"`
	Rakeback     float64        `json:"rakeback"`
	Thresholds   []Threshold    `json:"thresholds"`
	TaxRebate    bool           `json:"taxRebate"`
	Routing      []RoutingEntry `json:"routing"`
}

type DownlinePlayer struct {
	Username     string  `json:"username"`
	Rake         float64 `json:"rake"`
	PL           float64 `json:"pl"`
	Contribution float64 `json:"contribution"`
}

type DownlineAgent struct {
	Username     string  `json:"username"`
	Rake         float64 `json:"rake"`
	Contribution float64 `json:"contribution"`
}

type EntityResult struct {
	Username            string           `json:"username"`
	Tier                Tier             `json:"tier"`
	RakebackType        RakebackType     `json:"rakebackType"`
	Percentage          float64          `json:"percentage"`
	Agent               string           `json:"agent,omitempty"`
	SuperAgent          string           `json:"superAgent,omitempty"`
	TotalDownlineRake   float64          `json:"totalDownlineRake"`
	TotalDownlinePL     float64          `json:"totalDownlinePL"`
	BaseRakeback        float64          `json:"baseRakeback"`
	TaxRebate           bool             `json:"taxRebate"`
	TaxRebateAdjustment float64          `json:"taxRebateAdjustment"`
	Routing             []RoutingEntry   `json:"routing"`
	RoutingRakeback     float64          `json:"routingRakeback"`
	Rakeback            float64          `json:"rakeback"`
	PlayersCount        int              `json:"playersCount"`
	AgentsCount         int              `json:"agentsCount"`
	DownlinePlayers     []DownlinePlayer `json:"downlinePlayers"`
	DownlineAgents      []DownlineAgent  `json:"downlineAgents"`
}

type WeekSummary struct {
	TotalPlayerRake         float64 `json:"totalPlayerRake"`
	TotalPlayerRakeback     float64 `json:"totalPlayerRakeback"`
	TotalAgentRakeback      float64 `json:"totalAgentRakeback"`
	TotalSuperAgentRakeback float64 `json:"totalSuperAgentRakeback"`
	GrandTotal              float64 `json:"grandTotal"`
}

type WeekResult struct {
	PlayerResults     []EntityResult `json:"playerResults"`
	AgentResults      []EntityResult `json:"agentResults"`
	SuperAgentResults []EntityResult `json:"superAgentResults"`
	Summary           WeekSummary    `json:"summary"`
}

type Club struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Entity is a persisted EntityConfig scoped to a club and tier.
type Entity struct {
	ID     string `json:"id"`
	ClubID string `json:"clubId"`
	Tier   Tier   `json:"tier"`
	EntityConfig
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type WeekStatus string

const (
	WeekActive    WeekStatus = "active"
	WeekCompleted WeekStatus = "completed"
	WeekArchived  WeekStatus = "archived"
)

func (s WeekStatus) Valid() bool {
	switch s {
	case WeekActive, WeekCompleted, WeekArchived:
		return true
	}
	return false
}

type Week struct {
	ID         string     `json:"id"`
	ClubID     string     `json:"clubId"`
	WeekNumber int        `json:"weekNumber"`
	StartDate  string     `json:"startDate"`
	EndDate    string     `json:"endDate"`
	Status     WeekStatus `json:"status"`
	HasData    bool       `json:"hasData"`
	Processed  bool       `json:"processed"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ClubOverview holds the club-wide figures reported alongside the member rows.
type ClubOverview struct {
	ClubName      string  `json:"clubName"`
	TotalFee      float64 `json:"totalFee"`
	ProfitLoss    float64 `json:"profitLoss"`
	ActivePlayers int     `json:"activePlayers"`
	TotalHands    int     `json:"totalHands"`
}

// WeekUpload is what ingestion hands over for a single week.
type WeekUpload struct {
	Rows     []RakeRow     `json:"rows"`
	Overview *ClubOverview `json:"overview,omitempty"`
}

type WeekData struct {
	ID         string        `json:"id"`
	ClubID     string        `json:"clubId"`
	WeekID     string        `json:"weekId"`
	WeekNumber int           `json:"weekNumber"`
	StartDate  string        `json:"startDate"`
	EndDate    string        `json:"endDate"`
	Overview   *ClubOverview `json:"overview,omitempty"`
	Rows       []RakeRow     `json:"extractedData"`
	Result     WeekResult    `json:"result"`
	CreatedAt  time.Time     `json:"createdAt"`
}

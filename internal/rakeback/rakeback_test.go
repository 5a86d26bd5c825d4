package rakeback

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rakeback-manager/internal/domain"
)

func flat(nickname string, pct float64) domain.EntityConfig {
	return domain.EntityConfig{Nickname: nickname, RakebackType: domain.RakebackFlat, Rakeback: pct}
}

func TestResolvePercentage(t *testing.T) {
	tiers := domain.EntityConfig{
		Nickname:     "p",
		RakebackType: domain.RakebackThreshold,
		Thresholds: []domain.Threshold{
			{Start: 1000, End: 5000, Percentage: 50},
			{Start: 0, End: 500, Percentage: 10},
			{Start: 500, End: 1000, Percentage: 35},
		},
	}

	tests := []struct {
		name string
		cfg  domain.EntityConfig
		rake float64
		want float64
	}{
		{"inside middle bracket", tiers, 750, 35},
		{"inside lowest bracket", tiers, 300, 10},
		{"above highest end", tiers, 6000, 0},
		{"shared boundary picks lower start", tiers, 500, 10},
		{"upper boundary inclusive", tiers, 5000, 50},
		{"zero rake matches start", tiers, 0, 10},
		{"flat ignores thresholds", flat("p", 12.5), 750, 12.5},
		{"empty type is flat", domain.EntityConfig{Nickname: "p", Rakeback: 7}, 10, 7},
		{
			"gap between brackets",
			domain.EntityConfig{RakebackType: domain.RakebackThreshold, Thresholds: []domain.Threshold{
				{Start: 0, End: 100, Percentage: 5},
				{Start: 200, End: 300, Percentage: 10},
			}},
			150, 0,
		},
		{
			"below lowest start",
			domain.EntityConfig{RakebackType: domain.RakebackThreshold, Thresholds: []domain.Threshold{
				{Start: 100, End: 200, Percentage: 5},
			}},
			50, 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePercentage(tt.cfg, tt.rake))
		})
	}
}

func TestResolvePercentageDoesNotReorderInput(t *testing.T) {
	cfg := domain.EntityConfig{
		RakebackType: domain.RakebackThreshold,
		Thresholds: []domain.Threshold{
			{Start: 500, End: 1000, Percentage: 35},
			{Start: 0, End: 500, Percentage: 10},
		},
	}
	ResolvePercentage(cfg, 10)
	assert.Equal(t, 500.0, cfg.Thresholds[0].Start)
}

func TestAggregateSuperAgentIndependentOfAgents(t *testing.T) {
	agg := Aggregate([]domain.RakeRow{
		{Nickname: "p1", Agent: "A1", SuperAgent: "SA1", Rake: 100},
		{Nickname: "p2", Agent: "A2", SuperAgent: "SA1", Rake: 200},
		{Nickname: "p3", Agent: "A1", SuperAgent: "SA2", Rake: 50},
	})

	rake, ok := agg.SuperAgentRake("sa1")
	require.True(t, ok)
	assert.Equal(t, 300.0, rake)

	rake, ok = agg.SuperAgentRake("SA2")
	require.True(t, ok)
	assert.Equal(t, 50.0, rake)

	rake, ok = agg.AgentRake("a1")
	require.True(t, ok)
	assert.Equal(t, 150.0, rake)

	assert.Equal(t, []string{"A1", "A2"}, agg.SuperAgentAgents("SA1"))
}

func TestAggregateDuplicateNicknameOverwritesPlayerOnly(t *testing.T) {
	agg := Aggregate([]domain.RakeRow{
		{Nickname: "P1", Agent: "A1", Rake: 100},
		{Nickname: "p1", Agent: "A1", Rake: 250},
	})

	rake, ok := agg.PlayerRake("P1")
	require.True(t, ok)
	assert.Equal(t, 250.0, rake)

	rake, ok = agg.AgentRake("A1")
	require.True(t, ok)
	assert.Equal(t, 350.0, rake)
}

func TestAggregateSkipsMissingUplines(t *testing.T) {
	agg := Aggregate([]domain.RakeRow{
		{Nickname: "p1", Agent: "-", SuperAgent: "", Rake: 100},
		{Nickname: "p2", Agent: "  ", SuperAgent: "-", Rake: 100},
	})

	assert.Empty(t, agg.agents)
	assert.Empty(t, agg.superAgents)
	_, ok := agg.AgentRake("-")
	assert.False(t, ok)
}

func TestTaxRebate(t *testing.T) {
	assert.InDelta(t, 50, TaxRebate(1000, -1500, true), 1e-9)
	assert.InDelta(t, -150, TaxRebate(1000, 500, true), 1e-9)
	assert.Equal(t, 0.0, TaxRebate(1000, -1500, false))
}

func TestRoutingMissingTargetContributesNothing(t *testing.T) {
	agg := Aggregate([]domain.RakeRow{{Nickname: "P1", Agent: "A1", SuperAgent: "SA1", Rake: 100}})

	got := Routing([]domain.RoutingEntry{
		{Type: domain.TierPlayer, Username: "p1", Percentage: 20},
		{Type: domain.TierAgent, Username: "a1", Percentage: 10},
		{Type: domain.TierSuperAgent, Username: "SA1", Percentage: 5},
		{Type: domain.TierPlayer, Username: "nobody", Percentage: 50},
	}, agg)

	assert.InDelta(t, 35, got, 1e-9)
}

func TestProcessWeekEndToEnd(t *testing.T) {
	rows := []domain.RakeRow{{Nickname: "P1", Agent: "A1", SuperAgent: "-", Rake: 1000, PL: -200}}

	res, err := ProcessWeek(rows, Bundle{
		Players: []domain.EntityConfig{flat("P1", 10)},
		Agents:  []domain.EntityConfig{flat("A1", 5)},
	})
	require.NoError(t, err)

	require.Len(t, res.PlayerResults, 1)
	assert.Equal(t, "P1", res.PlayerResults[0].Username)
	assert.Equal(t, 100.0, res.PlayerResults[0].Rakeback)
	assert.Equal(t, "A1", res.PlayerResults[0].Agent)
	assert.Equal(t, "-", res.PlayerResults[0].SuperAgent)

	require.Len(t, res.AgentResults, 1)
	assert.Equal(t, "A1", res.AgentResults[0].Username)
	assert.Equal(t, 1000.0, res.AgentResults[0].TotalDownlineRake)
	assert.Equal(t, 50.0, res.AgentResults[0].Rakeback)
	assert.Equal(t, 1, res.AgentResults[0].PlayersCount)

	assert.NotNil(t, res.SuperAgentResults)
	assert.Empty(t, res.SuperAgentResults)

	assert.Equal(t, 100.0, res.Summary.TotalPlayerRakeback)
	assert.Equal(t, 50.0, res.Summary.TotalAgentRakeback)
	assert.Equal(t, 0.0, res.Summary.TotalSuperAgentRakeback)
	assert.Equal(t, 150.0, res.Summary.GrandTotal)
	assert.Equal(t, 1000.0, res.Summary.TotalPlayerRake)
}

func TestProcessWeekRoutingIsAdditive(t *testing.T) {
	rows := []domain.RakeRow{{Nickname: "P1", Agent: "A9", Rake: 100}}
	agent := flat("A9", 0)
	agent.Routing = []domain.RoutingEntry{{Type: domain.TierPlayer, Username: "P1", Percentage: 20}}

	res, err := ProcessWeek(rows, Bundle{Agents: []domain.EntityConfig{agent}})
	require.NoError(t, err)
	require.Len(t, res.AgentResults, 1)

	got := res.AgentResults[0]
	assert.Equal(t, 0.0, got.BaseRakeback)
	assert.Equal(t, 20.0, got.RoutingRakeback)
	assert.Equal(t, 20.0, got.Rakeback)
}

func TestProcessWeekRoutingCycleUsesRawRake(t *testing.T) {
	rows := []domain.RakeRow{
		{Nickname: "p1", Agent: "A", Rake: 100},
		{Nickname: "p2", Agent: "B", Rake: 300},
	}
	a := flat("A", 10)
	a.Routing = []domain.RoutingEntry{{Type: domain.TierAgent, Username: "B", Percentage: 10}}
	b := flat("B", 10)
	b.Routing = []domain.RoutingEntry{{Type: domain.TierAgent, Username: "A", Percentage: 10}}

	res, err := ProcessWeek(rows, Bundle{Agents: []domain.EntityConfig{a, b}})
	require.NoError(t, err)
	require.Len(t, res.AgentResults, 2)

	assert.Equal(t, 40.0, res.AgentResults[0].Rakeback)
	assert.Equal(t, 40.0, res.AgentResults[1].Rakeback)
}

func TestProcessWeekUnmatchedRowsAreIgnored(t *testing.T) {
	rows := []domain.RakeRow{
		{Nickname: "P1", Rake: 100},
		{Nickname: "Ghost", Rake: 5000},
	}

	res, err := ProcessWeek(rows, Bundle{
		Players: []domain.EntityConfig{flat("p1", 10), flat("Absent", 50)},
		Agents:  []domain.EntityConfig{flat("NoRows", 50)},
	})
	require.NoError(t, err)

	require.Len(t, res.PlayerResults, 1)
	assert.Equal(t, "p1", res.PlayerResults[0].Username)
	assert.Empty(t, res.AgentResults)
	assert.Equal(t, 10.0, res.Summary.GrandTotal)
	assert.Equal(t, 100.0, res.Summary.TotalPlayerRake)
}

func TestProcessWeekTaxRebateOnPlayer(t *testing.T) {
	rows := []domain.RakeRow{{Nickname: "P1", Rake: 200, PL: -500}}
	cfg := flat("P1", 10)
	cfg.TaxRebate = true

	res, err := ProcessWeek(rows, Bundle{Players: []domain.EntityConfig{cfg}})
	require.NoError(t, err)
	require.Len(t, res.PlayerResults, 1)

	got := res.PlayerResults[0]
	assert.Equal(t, 20.0, got.BaseRakeback)
	assert.Equal(t, 30.0, got.TaxRebateAdjustment)
	assert.Equal(t, 50.0, got.Rakeback)
	assert.True(t, got.TaxRebate)
}

func TestProcessWeekSuperAgentDownline(t *testing.T) {
	rows := []domain.RakeRow{
		{Nickname: "P1", Agent: "A1", SuperAgent: "SA1", Rake: 100, PL: 10},
		{Nickname: "P2", Agent: "A2", SuperAgent: "SA1", Rake: 300, PL: -40},
		{Nickname: "P3", Agent: "-", SuperAgent: "sa1", Rake: 100},
	}
	sa := domain.EntityConfig{
		Nickname:     "SA1",
		RakebackType: domain.RakebackThreshold,
		Thresholds: []domain.Threshold{
			{Start: 0, End: 499, Percentage: 10},
			{Start: 500, End: 1000, Percentage: 20},
		},
	}

	res, err := ProcessWeek(rows, Bundle{SuperAgents: []domain.EntityConfig{sa}})
	require.NoError(t, err)
	require.Len(t, res.SuperAgentResults, 1)

	got := res.SuperAgentResults[0]
	assert.Equal(t, 500.0, got.TotalDownlineRake)
	assert.Equal(t, -30.0, got.TotalDownlinePL)
	assert.Equal(t, 20.0, got.Percentage)
	assert.Equal(t, 100.0, got.Rakeback)
	assert.Equal(t, 3, got.PlayersCount)
	assert.Equal(t, 2, got.AgentsCount)
	require.Len(t, got.DownlineAgents, 2)
	assert.Equal(t, "A1", got.DownlineAgents[0].Username)
	assert.InDelta(t, 20, got.DownlineAgents[0].Contribution, 1e-9)
	assert.InDelta(t, 60, got.DownlineAgents[1].Contribution, 1e-9)
	assert.Equal(t, 100.0, res.Summary.TotalSuperAgentRakeback)
}

func TestContributionSumsToHundred(t *testing.T) {
	rows := []domain.RakeRow{
		{Nickname: "a", Agent: "A1", Rake: 10},
		{Nickname: "b", Agent: "A1", Rake: 10},
		{Nickname: "c", Agent: "A1", Rake: 10},
		{Nickname: "d", Agent: "A1", Rake: 0.01},
	}

	res, err := ProcessWeek(rows, Bundle{Agents: []domain.EntityConfig{flat("A1", 30)}})
	require.NoError(t, err)
	require.Len(t, res.AgentResults, 1)

	var sum float64
	for _, p := range res.AgentResults[0].DownlinePlayers {
		sum += p.Contribution
	}
	assert.InDelta(t, 100, sum, 0.01)
}

func TestContributionZeroWhenDownlineHasNoRake(t *testing.T) {
	rows := []domain.RakeRow{
		{Nickname: "a", Agent: "A1"},
		{Nickname: "b", Agent: "A1"},
	}

	res, err := ProcessWeek(rows, Bundle{Agents: []domain.EntityConfig{flat("A1", 30)}})
	require.NoError(t, err)
	require.Len(t, res.AgentResults, 1)

	for _, p := range res.AgentResults[0].DownlinePlayers {
		assert.Equal(t, 0.0, p.Contribution)
	}
	assert.Equal(t, 0.0, res.AgentResults[0].Rakeback)
}

func TestProcessWeekRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		rows   []domain.RakeRow
		bundle Bundle
		target error
	}{
		{
			name:   "threshold without brackets",
			bundle: Bundle{Players: []domain.EntityConfig{{Nickname: "p", RakebackType: domain.RakebackThreshold}}},
			target: ErrInvalidConfig,
		},
		{
			name:   "flat above hundred",
			bundle: Bundle{Agents: []domain.EntityConfig{flat("a", 150)}},
			target: ErrInvalidConfig,
		},
		{
			name: "bad routing type",
			bundle: Bundle{SuperAgents: []domain.EntityConfig{{
				Nickname: "sa",
				Routing:  []domain.RoutingEntry{{Type: "club", Username: "x", Percentage: 1}},
			}}},
			target: ErrInvalidConfig,
		},
		{
			name:   "duplicate nickname in tier",
			bundle: Bundle{Players: []domain.EntityConfig{flat("P1", 1), flat("p1", 2)}},
			target: ErrInvalidConfig,
		},
		{
			name:   "negative rake",
			rows:   []domain.RakeRow{{Nickname: "p", Rake: -1}},
			target: ErrInvalidRow,
		},
		{
			name:   "missing nickname",
			rows:   []domain.RakeRow{{Rake: 1}},
			target: ErrInvalidRow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ProcessWeek(tt.rows, tt.bundle)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestConfigurationErrorCarriesTier(t *testing.T) {
	err := Validate(nil, Bundle{ClubID: "round-table", Agents: []domain.EntityConfig{flat("A1", -5)}})
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, domain.TierAgent, cfgErr.Tier)
	assert.Equal(t, "A1", cfgErr.Nickname)
	assert.Contains(t, err.Error(), "round-table")
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 0.13, Round2(0.125))
	assert.Equal(t, -0.13, Round2(-0.125))
	assert.Equal(t, 33.33, Round2(100.0/3))
	assert.Equal(t, 0.0, Round2(0))
}

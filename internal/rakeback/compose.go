package rakeback

import (
	"github.com/shopspring/decimal"

	"rakeback-manager/internal/domain"
)

// Bundle is one club's commission rules for all three tiers.
type Bundle struct {
	ClubID      string
	Players     []domain.EntityConfig
	Agents      []domain.EntityConfig
	SuperAgents []domain.EntityConfig
}

// outcome is the result of matching one config against the week. Unmatched
// configs are dropped from the output.
type outcome struct {
	result  domain.EntityResult
	matched bool
}

var unmatched = outcome{}

func matched(r domain.EntityResult) outcome {
	return outcome{result: r, matched: true}
}

// Round2 rounds a monetary figure to cents, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func contribution(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return part / total * 100
}

// ProcessWeek validates its input and computes the complete payout breakdown
// for one week. It either returns a full result or an error, never both.
func ProcessWeek(rows []domain.RakeRow, bundle Bundle) (*domain.WeekResult, error) {
	if err := Validate(rows, bundle); err != nil {
		return nil, err
	}

	agg := Aggregate(rows)

	result := &domain.WeekResult{
		PlayerResults:     collect(bundle.Players, func(cfg domain.EntityConfig) outcome { return resolvePlayer(cfg, agg) }),
		AgentResults:      collect(bundle.Agents, func(cfg domain.EntityConfig) outcome { return resolveAgent(cfg, agg) }),
		SuperAgentResults: collect(bundle.SuperAgents, func(cfg domain.EntityConfig) outcome { return resolveSuperAgent(cfg, agg) }),
	}
	result.Summary = summarize(result)

	return result, nil
}

func collect(configs []domain.EntityConfig, resolve func(domain.EntityConfig) outcome) []domain.EntityResult {
	results := make([]domain.EntityResult, 0, len(configs))
	for _, cfg := range configs {
		if o := resolve(cfg); o.matched {
			results = append(results, o.result)
		}
	}
	return results
}

// payout fills in the rate and money fields shared by every tier.
func payout(res *domain.EntityResult, cfg domain.EntityConfig, agg *Aggregates) {
	percentage := ResolvePercentage(cfg, res.TotalDownlineRake)
	base := res.TotalDownlineRake * percentage / 100
	adjustment := TaxRebate(res.TotalDownlineRake, res.TotalDownlinePL, cfg.TaxRebate)
	routing := Routing(cfg.Routing, agg)

	rakebackType := cfg.RakebackType
	if rakebackType == "" {
		rakebackType = domain.RakebackFlat
	}

	res.RakebackType = rakebackType
	res.Percentage = percentage
	res.TaxRebate = cfg.TaxRebate
	res.Routing = append([]domain.RoutingEntry{}, cfg.Routing...)
	res.BaseRakeback = Round2(base)
	res.TaxRebateAdjustment = Round2(adjustment)
	res.RoutingRakeback = Round2(routing)
	res.Rakeback = Round2(base + adjustment + routing)
	res.TotalDownlineRake = Round2(res.TotalDownlineRake)
	res.TotalDownlinePL = Round2(res.TotalDownlinePL)
}

func resolvePlayer(cfg domain.EntityConfig, agg *Aggregates) outcome {
	row, ok := agg.players[nameKey(cfg.Nickname)]
	if !ok {
		return unmatched
	}

	res := domain.EntityResult{
		Username:          cfg.Nickname,
		Tier:              domain.TierPlayer,
		Agent:             uplineOrNone(row.Agent),
		SuperAgent:        uplineOrNone(row.SuperAgent),
		TotalDownlineRake: row.Rake,
		TotalDownlinePL:   row.PL,
		DownlinePlayers:   []domain.DownlinePlayer{},
		DownlineAgents:    []domain.DownlineAgent{},
	}
	payout(&res, cfg, agg)
	return matched(res)
}

func resolveAgent(cfg domain.EntityConfig, agg *Aggregates) outcome {
	t, ok := agg.agents[nameKey(cfg.Nickname)]
	if !ok {
		return unmatched
	}

	res := domain.EntityResult{
		Username:          cfg.Nickname,
		Tier:              domain.TierAgent,
		SuperAgent:        t.superAgent,
		TotalDownlineRake: t.totalRake,
		TotalDownlinePL:   t.totalPL,
		PlayersCount:      len(t.members),
		DownlinePlayers:   downlinePlayers(t.members, t.totalRake),
		DownlineAgents:    []domain.DownlineAgent{},
	}
	payout(&res, cfg, agg)
	return matched(res)
}

func resolveSuperAgent(cfg domain.EntityConfig, agg *Aggregates) outcome {
	t, ok := agg.superAgents[nameKey(cfg.Nickname)]
	if !ok {
		return unmatched
	}

	agents := make([]domain.DownlineAgent, len(t.agents))
	for i, a := range t.agents {
		agents[i] = domain.DownlineAgent{
			Username:     a.name,
			Rake:         a.rake,
			Contribution: contribution(a.rake, t.totalRake),
		}
	}

	res := domain.EntityResult{
		Username:          cfg.Nickname,
		Tier:              domain.TierSuperAgent,
		TotalDownlineRake: t.totalRake,
		TotalDownlinePL:   t.totalPL,
		PlayersCount:      len(t.members),
		AgentsCount:       len(t.agents),
		DownlinePlayers:   downlinePlayers(t.members, t.totalRake),
		DownlineAgents:    agents,
	}
	payout(&res, cfg, agg)
	return matched(res)
}

func downlinePlayers(members []member, total float64) []domain.DownlinePlayer {
	out := make([]domain.DownlinePlayer, len(members))
	for i, m := range members {
		out[i] = domain.DownlinePlayer{
			Username:     m.nickname,
			Rake:         m.rake,
			PL:           m.pl,
			Contribution: contribution(m.rake, total),
		}
	}
	return out
}

func uplineOrNone(name string) string {
	if !hasUpline(name) {
		return domain.NoUpline
	}
	return name
}

func summarize(r *domain.WeekResult) domain.WeekSummary {
	var s domain.WeekSummary
	for _, p := range r.PlayerResults {
		s.TotalPlayerRake += p.TotalDownlineRake
		s.TotalPlayerRakeback += p.Rakeback
	}
	for _, a := range r.AgentResults {
		s.TotalAgentRakeback += a.Rakeback
	}
	for _, sa := range r.SuperAgentResults {
		s.TotalSuperAgentRakeback += sa.Rakeback
	}

	s.TotalPlayerRake = Round2(s.TotalPlayerRake)
	s.TotalPlayerRakeback = Round2(s.TotalPlayerRakeback)
	s.TotalAgentRakeback = Round2(s.TotalAgentRakeback)
	s.TotalSuperAgentRakeback = Round2(s.TotalSuperAgentRakeback)
	s.GrandTotal = Round2(s.TotalPlayerRakeback + s.TotalAgentRakeback + s.TotalSuperAgentRakeback)
	return s
}

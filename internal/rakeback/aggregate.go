// Package rakeback computes weekly rakeback payouts for the player, agent and
// super agent tiers from a week's raw rake rows and the tiers' commission rules.
//
// Everything in this package is a pure computation over its arguments; callers
// own loading, persistence and concurrency.
package rakeback

import (
	"strings"

	"rakeback-manager/internal/domain"
)

type member struct {
	nickname string
	rake     float64
	pl       float64
}

type agentTotals struct {
	name       string
	superAgent string
	totalRake  float64
	totalPL    float64
	members    []member
}

type agentShare struct {
	name string
	rake float64
}

type superAgentTotals struct {
	name       string
	totalRake  float64
	totalPL    float64
	members    []member
	agents     []agentShare
	agentIndex map[string]int
}

// Aggregates is the per-player, per-agent and per-super-agent view of one week.
// All lookups are case-insensitive.
type Aggregates struct {
	players     map[string]domain.RakeRow
	agents      map[string]*agentTotals
	superAgents map[string]*superAgentTotals
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func hasUpline(name string) bool {
	n := strings.TrimSpace(name)
	return n != "" && n != domain.NoUpline
}

// Aggregate groups rows by player, by agent and by super agent. Super agent
// totals come straight from each row's superAgent field and never from the
// agent totals. A repeated nickname replaces the earlier row in the player view
// but every row still counts towards its agent and super agent.
func Aggregate(rows []domain.RakeRow) *Aggregates {
	agg := &Aggregates{
		players:     make(map[string]domain.RakeRow, len(rows)),
		agents:      make(map[string]*agentTotals),
		superAgents: make(map[string]*superAgentTotals),
	}

	for _, row := range rows {
		agg.players[nameKey(row.Nickname)] = row
		m := member{nickname: row.Nickname, rake: row.Rake, pl: row.PL}

		if hasUpline(row.Agent) {
			k := nameKey(row.Agent)
			a, ok := agg.agents[k]
			if !ok {
				a = &agentTotals{name: strings.TrimSpace(row.Agent), superAgent: domain.NoUpline}
				if hasUpline(row.SuperAgent) {
					a.superAgent = strings.TrimSpace(row.SuperAgent)
				}
				agg.agents[k] = a
			}
			a.totalRake += row.Rake
			a.totalPL += row.PL
			a.members = append(a.members, m)
		}

		if hasUpline(row.SuperAgent) {
			k := nameKey(row.SuperAgent)
			sa, ok := agg.superAgents[k]
			if !ok {
				sa = &superAgentTotals{name: strings.TrimSpace(row.SuperAgent), agentIndex: make(map[string]int)}
				agg.superAgents[k] = sa
			}
			sa.totalRake += row.Rake
			sa.totalPL += row.PL
			sa.members = append(sa.members, m)

			if hasUpline(row.Agent) {
				ak := nameKey(row.Agent)
				i, ok := sa.agentIndex[ak]
				if !ok {
					i = len(sa.agents)
					sa.agentIndex[ak] = i
					sa.agents = append(sa.agents, agentShare{name: strings.TrimSpace(row.Agent)})
				}
				sa.agents[i].rake += row.Rake
			}
		}
	}

	return agg
}

// PlayerRake returns the rake of the last row seen for nickname.
func (a *Aggregates) PlayerRake(nickname string) (float64, bool) {
	row, ok := a.players[nameKey(nickname)]
	return row.Rake, ok
}

func (a *Aggregates) AgentRake(name string) (float64, bool) {
	t, ok := a.agents[nameKey(name)]
	if !ok {
		return 0, false
	}
	return t.totalRake, true
}

func (a *Aggregates) SuperAgentRake(name string) (float64, bool) {
	t, ok := a.superAgents[nameKey(name)]
	if !ok {
		return 0, false
	}
	return t.totalRake, true
}

// SuperAgentAgents lists the distinct agents under a super agent in first-seen
// order. Reporting only.
func (a *Aggregates) SuperAgentAgents(name string) []string {
	t, ok := a.superAgents[nameKey(name)]
	if !ok {
		return nil
	}
	names := make([]string, len(t.agents))
	for i, s := range t.agents {
		names[i] = s.name
	}
	return names
}

// TargetRake resolves a routing target. A missing target yields (0, false).
func (a *Aggregates) TargetRake(tier domain.Tier, name string) (float64, bool) {
	switch tier {
	case domain.TierPlayer:
		return a.PlayerRake(name)
	case domain.TierAgent:
		return a.AgentRake(name)
	case domain.TierSuperAgent:
		return a.SuperAgentRake(name)
	}
	return 0, false
}

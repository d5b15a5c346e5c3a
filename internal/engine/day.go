package engine

import (
	"fmt"
	"slices"
)

// DayResult is the outcome of one day vote.
type DayResult struct {
	Executed    string   `json:"executed,omitempty"`
	ChainDeaths []string `json:"chain_deaths"`
	Log         []string `json:"log"`
}

// ExecuteDayVote executes the plurality choice of an aggregated vote tally.
// Non-positive counts are dropped; an empty tally executes nobody. Any name
// that matches no player fails the call with a *NotFoundError and leaves the
// game untouched. A plurality for a dead player returns ErrAlreadyDead,
// executes nobody and clears the last executed player, so no Medium reading
// follows.
func (g *Game) ExecuteDayVote(tally map[string]int) (DayResult, error) {
	if err := g.checkPlayable(); err != nil {
		return DayResult{}, err
	}
	votes := make(map[string]int, len(tally))
	names := make([]string, 0, len(tally))
	for name := range tally {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if _, ok := g.byName[name]; !ok {
			g.debug("day vote names unknown player %q", name)
			return DayResult{}, &NotFoundError{Name: name}
		}
		if tally[name] > 0 {
			votes[name] = tally[name]
		}
	}

	result := DayResult{ChainDeaths: []string{}}
	if len(votes) == 0 {
		g.lastExecuted = ""
		result.Log = []string{"no votes were cast, nobody was executed"}
		g.debug("no votes on day %d", g.turn)
		return result, nil
	}

	name, tied := g.plurality(votes)
	if len(tied) > 1 {
		g.debug("day vote tie between %v, picked %s", tied, name)
	}
	target := g.byName[name]
	if !target.alive {
		g.lastExecuted = ""
		return DayResult{}, fmt.Errorf("execute %s: %w", name, ErrAlreadyDead)
	}

	d := &deaths{turn: g.turn}
	d.kill(target, DeathExecute)
	g.lastExecuted = name
	result.Executed = name

	switch {
	case target.is(RoleFox):
		g.foxCascade(d)
	case target.is(RoleCatSpirit):
		others := g.alive(func(p *Player) bool { return p != target })
		if len(others) > 0 {
			victim := others[pick(g.picker, len(others))]
			d.kill(victim, DeathRetaliation)
			g.debug("%s (Cat-spirit) dragged down %s", target.name, victim.name)
			if victim.is(RoleFox) {
				g.foxCascade(d)
			}
		}
	}

	result.ChainDeaths = sortedUnique(d.chain)
	result.Log = d.log
	g.debug("day %d executed %s, chain deaths %v", g.turn, name, result.ChainDeaths)
	return result, nil
}

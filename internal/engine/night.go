package engine

import (
	"fmt"
	"slices"
)

// ActionType is what a player submits at night.
type ActionType string

const (
	ActionNone   ActionType = "none"
	ActionSeer   ActionType = "seer"
	ActionGuard  ActionType = "guard"
	ActionAttack ActionType = "attack"
)

// NightAction is one player's choice for the night.
type NightAction struct {
	Type   ActionType `json:"type"`
	Target string     `json:"target,omitempty"`
}

// Divination is what a Seer (or Fake Seer) was told.
type Divination struct {
	Seer   string `json:"seer"`
	Target string `json:"target"`
	Result string `json:"result"`
}

// MediumReading is what a Medium learned about the last executed player.
type MediumReading struct {
	Medium   string `json:"medium"`
	Executed string `json:"executed"`
	Result   string `json:"result"`
}

// BlockReason explains a failed attack.
type BlockReason string

const (
	BlockNone    BlockReason = ""
	BlockGuarded BlockReason = "guarded"
	BlockFox     BlockReason = "fox"
	BlockDead    BlockReason = "dead"
)

// NightResult is the outcome of one night.
type NightResult struct {
	Victims        []string        `json:"victims"`
	ChainDeaths    []string        `json:"chain_deaths"`
	Divinations    []Divination    `json:"divinations,omitempty"`
	MediumReadings []MediumReading `json:"medium_readings,omitempty"`
	AttackTarget   string          `json:"attack_target,omitempty"`
	AttackBlocked  BlockReason     `json:"attack_blocked,omitempty"`
	Log            []string        `json:"log"`
}

type divinationAction struct {
	seer   *Player
	target *Player
}

// ResolveNight applies the night's actions, keyed by actor name. Actions
// from unknown or dead players, or that the actor's role cannot take this
// turn, are ignored, as are a Knight guarding itself and a Werewolf
// attacking a Werewolf. A counted action whose target names no player
// fails the whole call with a *NotFoundError before anything changes.
func (g *Game) ResolveNight(actions map[string]NightAction) (NightResult, error) {
	if err := g.checkPlayable(); err != nil {
		return NightResult{}, err
	}
	for actor := range actions {
		if _, ok := g.byName[actor]; !ok {
			g.debug("ignoring night action from unknown player %q", actor)
		}
	}

	d := &deaths{turn: g.turn}
	var (
		divinations []divinationAction
		guarded     = make(map[string]bool)
		attackVotes = make(map[string]int)
		result      NightResult
	)

	// 1. Classify, in seat order.
	for _, actor := range g.players {
		a, ok := actions[actor.name]
		if !ok || !actor.alive || a.Type == ActionNone || a.Type == "" || a.Target == "" {
			continue
		}
		role := actor.role
		if role.nightAction() != a.Type || !role.HasNightAction(g.turn) {
			g.debug("ignoring %s action from %s (%s) on turn %d", a.Type, actor.name, role.Name(), g.turn)
			continue
		}
		target, ok := g.byName[a.Target]
		if !ok {
			g.debug("night action from %s targets unknown player %q", actor.name, a.Target)
			return NightResult{}, &NotFoundError{Name: a.Target}
		}
		if a.Type == ActionGuard && target == actor {
			g.debug("ignoring guard action from %s: a Knight cannot guard itself", actor.name)
			continue
		}
		if a.Type == ActionAttack && target.is(RoleWerewolf) {
			g.debug("ignoring attack from %s on fellow Werewolf %s", actor.name, target.name)
			continue
		}
		if !target.alive {
			g.debug("ignoring %s action from %s: %s is already dead", a.Type, actor.name, target.name)
			continue
		}
		switch a.Type {
		case ActionSeer:
			divinations = append(divinations, divinationAction{seer: actor, target: target})
		case ActionGuard:
			guarded[target.name] = true
			d.note("%s guarded %s", actor.name, target.name)
		case ActionAttack:
			attackVotes[target.name]++
			g.debug("%s chose to attack %s", actor.name, target.name)
		}
	}

	if executed, ok := g.LastExecuted(); ok {
		reading := g.byName[executed].role.MediumResult()
		for _, m := range g.aliveKind(RoleMedium) {
			if m.role.HasNightAction(g.turn) {
				result.MediumReadings = append(result.MediumReadings, MediumReading{Medium: m.name, Executed: executed, Result: reading})
			}
		}
	}

	// 2. Divination. A true Seer who divines a Fox kills it; guards do not help.
	cursed := false
	for _, dv := range divinations {
		res := ResultVillager
		if dv.seer.is(RoleSeer) {
			res = dv.target.role.SeerResult()
			if dv.target.is(RoleFox) && d.kill(dv.target, DeathCurse) {
				cursed = true
				g.debug("%s cursed %s (Fox)", dv.seer.name, dv.target.name)
			}
		}
		result.Divinations = append(result.Divinations, Divination{Seer: dv.seer.name, Target: dv.target.name, Result: res})
		d.note("%s divined %s: %s", dv.seer.name, dv.target.name, res)
	}

	// 3. Last Fox gone.
	if cursed {
		g.foxCascade(d)
	}

	// 4. Attack.
	if len(attackVotes) > 0 {
		name, tied := g.plurality(attackVotes)
		if len(tied) > 1 {
			g.debug("attack tie between %v, picked %s", tied, name)
		}
		victim := g.byName[name]
		result.AttackTarget = name
		switch {
		case !victim.alive:
			result.AttackBlocked = BlockDead
			d.note("the werewolves found %s already dead", name)
		case guarded[name]:
			result.AttackBlocked = BlockGuarded
			d.note("the attack on %s was blocked by a guard", name)
		case victim.is(RoleFox):
			result.AttackBlocked = BlockFox
			d.note("the attack on %s failed", name)
		default:
			d.kill(victim, DeathAttack)
			// 5. A Cat-spirit takes one werewolf down with it.
			if victim.is(RoleCatSpirit) {
				if wolves := g.aliveKind(RoleWerewolf); len(wolves) > 0 {
					w := wolves[pick(g.picker, len(wolves))]
					d.kill(w, DeathRetaliation)
					g.debug("%s (Cat-spirit) dragged down %s", victim.name, w.name)
				}
			}
		}
	}

	// 6. Aggregate.
	result.Victims = sortedUnique(d.all)
	result.ChainDeaths = sortedUnique(d.chain)
	result.Log = d.log
	g.lastNightVictims = result.Victims
	g.debug("night %d victims: %v", g.turn, result.Victims)
	return result, nil
}

// plurality returns the name with the most votes. Ties are broken by the
// picker over the tied names in sorted order, which are also returned.
func (g *Game) plurality(tally map[string]int) (string, []string) {
	best := 0
	var tied []string
	for name, n := range tally {
		switch {
		case n > best:
			best = n
			tied = []string{name}
		case n == best:
			tied = append(tied, name)
		}
	}
	slices.Sort(tied)
	if len(tied) == 1 {
		return tied[0], tied
	}
	return tied[pick(g.picker, len(tied))], tied
}

func sortedUnique(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	out = slices.Compact(out)
	if out == nil {
		out = []string{}
	}
	return out
}

func (r NightResult) String() string {
	if len(r.Victims) == 0 {
		return "nobody died"
	}
	return fmt.Sprintf("victims: %v", r.Victims)
}

package engine

import (
	"fmt"
	"strings"
)

// Team is a role's victory alignment.
type Team string

const (
	TeamVillager Team = "Villager"
	TeamWerewolf Team = "Werewolf"
	TeamFox      Team = "Fox"
)

// Divination and medium readings.
const (
	ResultVillager    = "Villager"
	ResultWerewolf    = "Werewolf"
	ResultNotWerewolf = "not a Werewolf"
)

// RoleKind identifies one variant of the role catalog.
type RoleKind int

const (
	RoleVillager RoleKind = iota
	RoleWerewolf
	RoleSeer
	RoleFakeSeer
	RoleMedium
	RoleKnight
	RoleMadman
	RoleFanatic
	RoleFox
	RoleImmoralist
	RoleCatSpirit
)

// capability is one row of the role table. Everything a role can do is a
// pure function of its kind, so the table is the whole catalog.
type capability struct {
	name        string
	team        Team
	species     Team
	seerResult  string
	medium      string
	firstAction int // first turn the role is prompted at night; 0 = never
	action      ActionType
	label       string
}

var capabilities = map[RoleKind]capability{
	RoleVillager: {
		name: "Villager", team: TeamVillager, species: TeamVillager,
		seerResult: ResultVillager, medium: ResultNotWerewolf,
	},
	RoleWerewolf: {
		name: "Werewolf", team: TeamWerewolf, species: TeamWerewolf,
		seerResult: ResultWerewolf, medium: ResultWerewolf,
		firstAction: 2, action: ActionAttack, label: "attack target",
	},
	RoleSeer: {
		name: "Seer", team: TeamVillager, species: TeamVillager,
		seerResult: ResultVillager, medium: ResultNotWerewolf,
		firstAction: 1, action: ActionSeer, label: "divination target",
	},
	RoleFakeSeer: {
		name: "Fake Seer", team: TeamVillager, species: TeamVillager,
		seerResult: ResultVillager, medium: ResultNotWerewolf,
		firstAction: 1, action: ActionSeer, label: "divination target (fake)",
	},
	RoleMedium: {
		name: "Medium", team: TeamVillager, species: TeamVillager,
		seerResult: ResultVillager, medium: ResultNotWerewolf,
		firstAction: 2,
	},
	RoleKnight: {
		name: "Knight", team: TeamVillager, species: TeamVillager,
		seerResult: ResultVillager, medium: ResultNotWerewolf,
		firstAction: 2, action: ActionGuard, label: "protection target",
	},
	RoleMadman: {
		name: "Madman", team: TeamWerewolf, species: TeamVillager,
		seerResult: ResultVillager, medium: ResultNotWerewolf,
	},
	RoleFanatic: {
		name: "Fanatic", team: TeamWerewolf, species: TeamVillager,
		seerResult: ResultVillager, medium: ResultNotWerewolf,
	},
	RoleFox: {
		name: "Fox", team: TeamFox, species: TeamFox,
		seerResult: ResultVillager, medium: ResultNotWerewolf,
	},
	RoleImmoralist: {
		name: "Immoralist", team: TeamFox, species: TeamVillager,
		seerResult: ResultVillager, medium: ResultNotWerewolf,
	},
	RoleCatSpirit: {
		name: "Cat-spirit", team: TeamVillager, species: TeamVillager,
		seerResult: ResultVillager, medium: ResultNotWerewolf,
	},
}

// AllRoleKinds returns every role in catalog order.
func AllRoleKinds() []RoleKind {
	return []RoleKind{
		RoleVillager, RoleWerewolf, RoleSeer, RoleFakeSeer, RoleMedium, RoleKnight,
		RoleMadman, RoleFanatic, RoleFox, RoleImmoralist, RoleCatSpirit,
	}
}

func (k RoleKind) String() string {
	if c, ok := capabilities[k]; ok {
		return c.name
	}
	return "Unknown"
}

var roleAliases = map[string]RoleKind{
	"guard":      RoleKnight,
	"bodyguard":  RoleKnight,
	"cat spirit": RoleCatSpirit,
	"catspirit":  RoleCatSpirit,
	"nekomata":   RoleCatSpirit,
	"fakeseer":   RoleFakeSeer,
	"possessed":  RoleMadman,
}

// ParseRoleKind resolves a display name (or a common alias) to a role kind.
func ParseRoleKind(name string) (RoleKind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, k := range AllRoleKinds() {
		if strings.ToLower(capabilities[k].name) == key {
			return k, nil
		}
	}
	if k, ok := roleAliases[key]; ok {
		return k, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// Role is the role bound to one player. ID is the seat index assigned at
// role assignment time.
type Role struct {
	ID   int
	Kind RoleKind
}

func (r Role) Name() string         { return capabilities[r.Kind].name }
func (r Role) Team() Team           { return capabilities[r.Kind].team }
func (r Role) Species() Team        { return capabilities[r.Kind].species }
func (r Role) SeerResult() string   { return capabilities[r.Kind].seerResult }
func (r Role) MediumResult() string { return capabilities[r.Kind].medium }

// ActionLabel describes what the role picks at night, or "" for passive roles.
func (r Role) ActionLabel() string { return capabilities[r.Kind].label }

// HasNightAction reports whether the role is prompted at night on the given
// 1-indexed turn.
func (r Role) HasNightAction(turn int) bool {
	first := capabilities[r.Kind].firstAction
	return first > 0 && turn >= first
}

// nightAction is the only action type the role may submit.
func (r Role) nightAction() ActionType { return capabilities[r.Kind].action }

func (r Role) String() string { return r.Name() }

// DefaultRoleCounts is the stock twelve-player setup.
func DefaultRoleCounts() map[string]int {
	return map[string]int{
		"Werewolf":  2,
		"Villager":  3,
		"Seer":      1,
		"Medium":    1,
		"Knight":    1,
		"Madman":    1,
		"Fox":       2,
		"Fake Seer": 1,
	}
}

// ExpandRoleCounts turns a name→count map into a role name list in catalog
// order. Zero and negative counts are skipped.
func ExpandRoleCounts(counts map[string]int) ([]string, error) {
	perKind := make(map[RoleKind]int)
	for name, n := range counts {
		k, err := ParseRoleKind(name)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			perKind[k] += n
		}
	}
	var names []string
	for _, k := range AllRoleKinds() {
		for i := 0; i < perKind[k]; i++ {
			names = append(names, k.String())
		}
	}
	return names, nil
}

package engine

import "fmt"

// DeathReason records why a player died.
type DeathReason string

const (
	DeathAttack      DeathReason = "attack"
	DeathExecute     DeathReason = "execute"
	DeathCurse       DeathReason = "curse"
	DeathSuicide     DeathReason = "suicide"
	DeathRetaliation DeathReason = "retaliation"
)

// DeathInfo is set once, when a player first dies.
type DeathInfo struct {
	Turn   int         `json:"turn"`
	Reason DeathReason `json:"reason"`
}

// Player is a seat in the game. Players are created and mutated only by
// their Game.
type Player struct {
	name  string
	role  *Role
	alive bool
	death *DeathInfo
}

func newPlayer(name string) *Player {
	return &Player{name: name, alive: true}
}

func (p *Player) Name() string { return p.name }

// Role returns a copy of the assigned role; ok is false before assignment.
func (p *Player) Role() (Role, bool) {
	if p.role == nil {
		return Role{}, false
	}
	return *p.role, true
}

func (p *Player) IsAlive() bool { return p.alive }

// Death returns how the player died, if they did.
func (p *Player) Death() (DeathInfo, bool) {
	if p.death == nil {
		return DeathInfo{}, false
	}
	return *p.death, true
}

func (p *Player) assignRole(role Role) error {
	if p.role != nil {
		return fmt.Errorf("%w: %s already has %s", ErrRoleAlreadyAssigned, p.name, p.role.Name())
	}
	p.role = &role
	return nil
}

// kill marks the player dead. It returns false if they were already dead,
// in which case the original death record is kept.
func (p *Player) kill(turn int, reason DeathReason) bool {
	if !p.alive {
		return false
	}
	p.alive = false
	p.death = &DeathInfo{Turn: turn, Reason: reason}
	return true
}

func (p *Player) is(kind RoleKind) bool {
	return p.role != nil && p.role.Kind == kind
}

func (p *Player) String() string {
	status := "alive"
	if !p.alive {
		status = "dead"
	}
	return fmt.Sprintf("%s (%s)", p.name, status)
}

// Reveal is String with the role shown.
func (p *Player) Reveal() string {
	if p.role == nil {
		return p.String()
	}
	status := "alive"
	if !p.alive {
		status = "dead"
	}
	return fmt.Sprintf("%s [%s] (%s)", p.name, p.role.Name(), status)
}

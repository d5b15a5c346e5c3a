package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRoster       = errors.New("invalid roster")
	ErrUnknownRole         = errors.New("unknown role")
	ErrRoleCountMismatch   = errors.New("role count does not match player count")
	ErrRoleAlreadyAssigned = errors.New("role already assigned")
	ErrRolesNotAssigned    = errors.New("roles not assigned")
	ErrGameOver            = errors.New("game is over")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrAlreadyDead         = errors.New("player is already dead")
)

// NotFoundError reports a target name that matches no player. The game is
// left untouched when it is returned.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("player not found: %q", e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrPlayerNotFound }

// Game owns the roster and advances one game through nights and days.
// It is not safe for concurrent use; callers serialize access.
type Game struct {
	players []*Player
	byName  map[string]*Player

	turn             int
	lastExecuted     string
	lastNightVictims []string
	victory          *Victory

	picker Picker
	debugf func(format string, args ...any)
}

// Option configures a Game.
type Option func(*Game)

// WithPicker replaces the random source.
func WithPicker(p Picker) Option {
	return func(g *Game) { g.picker = p }
}

// WithDebug routes the engine's debug trace to fn.
func WithDebug(fn func(format string, args ...any)) Option {
	return func(g *Game) { g.debugf = fn }
}

// NewGame creates a game for the given player names in seat order.
func NewGame(names []string, opts ...Option) (*Game, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no players", ErrInvalidRoster)
	}
	g := &Game{
		byName: make(map[string]*Player, len(names)),
		turn:   1,
	}
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: blank player name", ErrInvalidRoster)
		}
		if _, dup := g.byName[name]; dup {
			return nil, fmt.Errorf("%w: duplicate player %q", ErrInvalidRoster, name)
		}
		p := newPlayer(name)
		g.players = append(g.players, p)
		g.byName[name] = p
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.picker == nil {
		g.picker = defaultPicker()
	}
	return g, nil
}

// AssignRoles shuffles roleNames and deals them to the roster in seat order.
// Every check runs before any player is touched.
func (g *Game) AssignRoles(roleNames []string) error {
	if len(roleNames) != len(g.players) {
		return fmt.Errorf("%w: %d roles for %d players", ErrRoleCountMismatch, len(roleNames), len(g.players))
	}
	kinds := make([]RoleKind, len(roleNames))
	for i, name := range roleNames {
		k, err := ParseRoleKind(name)
		if err != nil {
			return err
		}
		kinds[i] = k
	}
	for _, p := range g.players {
		if p.role != nil {
			return fmt.Errorf("%w: %s already has %s", ErrRoleAlreadyAssigned, p.name, p.role.Name())
		}
	}

	shuffle(g.picker, kinds)
	for i, p := range g.players {
		if err := p.assignRole(Role{ID: i, Kind: kinds[i]}); err != nil {
			return err
		}
		g.debug("assigned %s to %s (id %d)", kinds[i], p.name, i)
	}
	return nil
}

// RolesAssigned reports whether AssignRoles has succeeded.
func (g *Game) RolesAssigned() bool {
	return len(g.players) > 0 && g.players[0].role != nil
}

// Players returns the roster in seat order.
func (g *Game) Players() []*Player {
	out := make([]*Player, len(g.players))
	copy(out, g.players)
	return out
}

// AlivePlayers returns the living players in seat order.
func (g *Game) AlivePlayers() []*Player {
	return g.alive(func(*Player) bool { return true })
}

// Player looks up a player by name.
func (g *Game) Player(name string) (*Player, bool) {
	p, ok := g.byName[name]
	return p, ok
}

// Turn is the current 1-indexed turn.
func (g *Game) Turn() int { return g.turn }

// AdvanceTurn moves to the next turn. The engine never advances on its own.
func (g *Game) AdvanceTurn() { g.turn++ }

// LastExecuted returns the player executed by the most recent day vote.
func (g *Game) LastExecuted() (string, bool) {
	return g.lastExecuted, g.lastExecuted != ""
}

// LastNightVictims returns the victims of the most recent night.
func (g *Game) LastNightVictims() []string {
	out := make([]string, len(g.lastNightVictims))
	copy(out, g.lastNightVictims)
	return out
}

// VictoryTeam returns the recorded winner, if any.
func (g *Game) VictoryTeam() (Team, bool) {
	if g.victory == nil {
		return "", false
	}
	return g.victory.Team, true
}

// checkPlayable guards the round operations.
func (g *Game) checkPlayable() error {
	if !g.RolesAssigned() {
		return ErrRolesNotAssigned
	}
	if g.victory != nil {
		return fmt.Errorf("%w: %s already won", ErrGameOver, g.victory.Team)
	}
	return nil
}

func (g *Game) alive(keep func(*Player) bool) []*Player {
	var out []*Player
	for _, p := range g.players {
		if p.alive && keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (g *Game) aliveKind(kind RoleKind) []*Player {
	return g.alive(func(p *Player) bool { return p.is(kind) })
}

// foxCascade kills every living Immoralist once no Fox is left alive.
func (g *Game) foxCascade(d *deaths) {
	if len(g.aliveKind(RoleFox)) > 0 {
		return
	}
	for _, p := range g.aliveKind(RoleImmoralist) {
		d.kill(p, DeathSuicide)
		g.debug("%s (Immoralist) followed the last Fox", p.name)
	}
}

func (g *Game) debug(format string, args ...any) {
	if g.debugf != nil {
		g.debugf(format, args...)
	}
}

// deaths collects the kills of one resolution call.
type deaths struct {
	turn  int
	all   []string
	chain []string
	log   []string
}

func (d *deaths) kill(p *Player, reason DeathReason) bool {
	if !p.kill(d.turn, reason) {
		return false
	}
	d.all = append(d.all, p.name)
	if reason == DeathSuicide || reason == DeathRetaliation {
		d.chain = append(d.chain, p.name)
	}
	d.log = append(d.log, fmt.Sprintf("%s died (%s)", p.name, reason))
	return true
}

func (d *deaths) note(format string, args ...any) {
	d.log = append(d.log, fmt.Sprintf(format, args...))
}

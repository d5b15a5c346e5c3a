package engine

import (
	"errors"
	"testing"
)

func TestPlayerKillKeepsFirstDeath(t *testing.T) {
	p := newPlayer("Alice")
	if !p.IsAlive() {
		t.Fatal("new player should be alive")
	}
	if _, dead := p.Death(); dead {
		t.Fatal("new player should have no death record")
	}

	if !p.kill(2, DeathAttack) {
		t.Fatal("first kill should succeed")
	}
	if p.kill(3, DeathExecute) {
		t.Error("killing a dead player should be a no-op")
	}

	d, dead := p.Death()
	if !dead {
		t.Fatal("expected a death record")
	}
	if d.Turn != 2 || d.Reason != DeathAttack {
		t.Errorf("expected {2 attack}, got %+v", d)
	}
	if p.IsAlive() {
		t.Error("player should be dead")
	}
}

func TestPlayerAssignRoleOnce(t *testing.T) {
	p := newPlayer("Bob")
	if err := p.assignRole(Role{ID: 0, Kind: RoleSeer}); err != nil {
		t.Fatalf("assignRole: %v", err)
	}
	err := p.assignRole(Role{ID: 0, Kind: RoleWerewolf})
	if !errors.Is(err, ErrRoleAlreadyAssigned) {
		t.Fatalf("expected ErrRoleAlreadyAssigned, got %v", err)
	}
	if r, _ := p.Role(); r.Kind != RoleSeer {
		t.Errorf("role changed to %s", r.Name())
	}
}

func TestPlayerRoleIsACopy(t *testing.T) {
	g := newTestGame(t, "Villager", "Werewolf", "Villager")
	p := mustPlayer(t, g, "P2")

	r, ok := p.Role()
	if !ok || r.Kind != RoleWerewolf {
		t.Fatalf("expected Werewolf, got %v (ok=%v)", r, ok)
	}
	r.Kind = RoleVillager

	if again, _ := p.Role(); again.Kind != RoleWerewolf {
		t.Errorf("writing the copy changed the role to %s", again.Name())
	}
	if v := g.CheckVictory(); v == nil || v.Team != TeamWerewolf {
		t.Errorf("expected the werewolf to still count, got %+v", v)
	}

	if _, ok := newPlayer("Nobody").Role(); ok {
		t.Error("unassigned player should report no role")
	}
}

func TestPlayerString(t *testing.T) {
	p := newPlayer("Carol")
	if got := p.String(); got != "Carol (alive)" {
		t.Errorf("String: got %q", got)
	}
	if got := p.Reveal(); got != "Carol (alive)" {
		t.Errorf("Reveal without role: got %q", got)
	}
	p.assignRole(Role{Kind: RoleFox})
	p.kill(1, DeathCurse)
	if got := p.Reveal(); got != "Carol [Fox] (dead)" {
		t.Errorf("Reveal: got %q", got)
	}
}

package main

import (
	"testing"

	"werewolf-gm/internal/engine"
)

func newStoredGame(t *testing.T, names []string, roles []string) (string, *engine.Game) {
	t.Helper()
	g, err := engine.NewGame(names, engine.WithPicker(identityPicker()))
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if err := g.AssignRoles(roles); err != nil {
		t.Fatalf("AssignRoles: %v", err)
	}
	gameID, err := createGame(len(names))
	if err != nil {
		t.Fatalf("createGame: %v", err)
	}
	if err := recordRoster(gameID, g); err != nil {
		t.Fatalf("recordRoster: %v", err)
	}
	return gameID, g
}

// ============================================================================
// Games and rosters
// ============================================================================

func TestCreateGame(t *testing.T) {
	newTestContext(t)

	first, err := createGame(4)
	if err != nil {
		t.Fatalf("createGame: %v", err)
	}
	second, err := createGame(4)
	if err != nil {
		t.Fatalf("createGame: %v", err)
	}
	if first == second {
		t.Fatal("game ids should be unique")
	}

	g, err := getGame(first)
	if err != nil {
		t.Fatalf("getGame: %v", err)
	}
	if g.Status != "running" || g.PlayerCount != 4 || g.Turn != 1 || g.VictoryTeam != "" {
		t.Errorf("unexpected new game %+v", g)
	}
	if g.CreatedAt == "" {
		t.Error("expected created_at to be set")
	}
}

func TestRecordRoster(t *testing.T) {
	newTestContext(t)
	gameID, _ := newStoredGame(t, []string{"Ann", "Bob", "Cid"}, []string{"Werewolf", "Madman", "Fox"})

	players, err := getGamePlayers(gameID)
	if err != nil {
		t.Fatalf("getGamePlayers: %v", err)
	}
	want := []PlayerRecord{
		{GameID: gameID, Seat: 0, Name: "Ann", Role: "Werewolf", Team: "Werewolf", IsAlive: true},
		{GameID: gameID, Seat: 1, Name: "Bob", Role: "Madman", Team: "Werewolf", IsAlive: true},
		{GameID: gameID, Seat: 2, Name: "Cid", Role: "Fox", Team: "Fox", IsAlive: true},
	}
	if len(players) != len(want) {
		t.Fatalf("expected %d players, got %d", len(want), len(players))
	}
	for i := range want {
		if players[i] != want[i] {
			t.Errorf("seat %d: expected %+v, got %+v", i, want[i], players[i])
		}
	}
}

// ============================================================================
// Actions and history
// ============================================================================

func TestRecordNightAndHistory(t *testing.T) {
	newTestContext(t)
	gameID, g := newStoredGame(t, []string{"A", "B", "C", "D"}, []string{"Werewolf", "Seer", "Villager", "Villager"})
	g.AdvanceTurn()

	actions := map[string]engine.NightAction{
		"A": {Type: engine.ActionAttack, Target: "C"},
		"B": {Type: engine.ActionSeer, Target: "A"},
	}
	res, err := g.ResolveNight(actions)
	if err != nil {
		t.Fatalf("ResolveNight: %v", err)
	}
	if err := recordNight(gameID, g.Turn(), actions, res); err != nil {
		t.Fatalf("recordNight: %v", err)
	}

	all, err := getGameActions(gameID)
	if err != nil {
		t.Fatalf("getGameActions: %v", err)
	}
	// Two submitted actions (sorted by actor), one divination, one death.
	if len(all) != 4 {
		t.Fatalf("expected 4 rows, got %d: %+v", len(all), all)
	}
	if all[0].Actor != "A" || all[0].ActionType != ActionNightAction || all[0].Target != "C" {
		t.Errorf("unexpected first row %+v", all[0])
	}
	if all[2].ActionType != ActionDivination || all[2].Description != "B divined A: Werewolf" {
		t.Errorf("unexpected divination row %+v", all[2])
	}
	for _, a := range all {
		if a.Round != 2 || a.Phase != PhaseNight {
			t.Errorf("row recorded in the wrong phase: %+v", a)
		}
	}

	history, err := getGameHistory(gameID)
	if err != nil {
		t.Fatalf("getGameHistory: %v", err)
	}
	if len(history) != 1 || history[0] != "C was found dead on morning 2" {
		t.Errorf("history should only hold the public death, got %v", history)
	}
}

func TestRecordDay(t *testing.T) {
	newTestContext(t)
	gameID, g := newStoredGame(t, []string{"A", "B", "C"}, []string{"Fox", "Immoralist", "Werewolf"})

	tally := map[string]int{"B": 1, "A": 2}
	res, err := g.ExecuteDayVote(tally)
	if err != nil {
		t.Fatalf("ExecuteDayVote: %v", err)
	}
	if err := recordDay(gameID, g.Turn(), tally, res); err != nil {
		t.Fatalf("recordDay: %v", err)
	}

	history, err := getGameHistory(gameID)
	if err != nil {
		t.Fatalf("getGameHistory: %v", err)
	}
	want := []string{
		"2 vote(s) for A",
		"1 vote(s) for B",
		"The village executed A",
		"B died in the aftermath",
	}
	if len(history) != len(want) {
		t.Fatalf("expected %v, got %v", want, history)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("history[%d]: expected %q, got %q", i, want[i], history[i])
		}
	}
}

func TestSyncPlayersAndFinish(t *testing.T) {
	newTestContext(t)
	gameID, g := newStoredGame(t, []string{"A", "B", "C"}, []string{"Werewolf", "Villager", "Villager"})

	if _, err := g.ExecuteDayVote(map[string]int{"A": 2}); err != nil {
		t.Fatalf("ExecuteDayVote: %v", err)
	}
	v := g.CheckVictory()
	if v == nil {
		t.Fatal("expected a winner")
	}
	if err := syncPlayers(gameID, g); err != nil {
		t.Fatalf("syncPlayers: %v", err)
	}
	if err := finishGame(gameID, g.Turn(), v); err != nil {
		t.Fatalf("finishGame: %v", err)
	}

	players, err := getGamePlayers(gameID)
	if err != nil {
		t.Fatalf("getGamePlayers: %v", err)
	}
	a := players[0]
	if a.IsAlive || a.DeathTurn != 1 || a.DeathReason != "execute" || a.IsWinner {
		t.Errorf("unexpected record for A: %+v", a)
	}
	for _, p := range players[1:] {
		if !p.IsAlive || !p.IsWinner {
			t.Errorf("expected %s alive and winning: %+v", p.Name, p)
		}
	}

	game, err := getGame(gameID)
	if err != nil {
		t.Fatalf("getGame: %v", err)
	}
	if game.Status != "finished" || game.VictoryTeam != "Villager" {
		t.Errorf("unexpected finished game %+v", game)
	}
	if got := countActions(t, gameID, ActionVictory); got != 1 {
		t.Errorf("expected 1 victory row, got %d", got)
	}
}

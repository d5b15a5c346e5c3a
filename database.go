package main

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"werewolf-gm/internal/engine"
)

var db *sqlx.DB

type GameRecord struct {
	ID          string `db:"id"          json:"id"`
	CreatedAt   string `db:"created_at"  json:"created_at"`
	Status      string `db:"status"      json:"status"` // running, finished
	PlayerCount int    `db:"player_count" json:"player_count"`
	Turn        int    `db:"turn"        json:"turn"`
	VictoryTeam string `db:"victory_team" json:"victory_team,omitempty"`
}

// PlayerRecord is one seat of a recorded game.
type PlayerRecord struct {
	GameID      string `db:"game_id"      json:"-"`
	Seat        int    `db:"seat"         json:"seat"`
	Name        string `db:"name"         json:"name"`
	Role        string `db:"role"         json:"role"`
	Team        string `db:"team"         json:"team"`
	IsAlive     bool   `db:"is_alive"     json:"is_alive"`
	DeathTurn   int    `db:"death_turn"   json:"death_turn,omitempty"`
	DeathReason string `db:"death_reason" json:"death_reason,omitempty"`
	IsWinner    bool   `db:"is_winner"    json:"is_winner"`
}

// GameAction is one line of a game's history: a submitted action, an engine
// outcome, or a story. Rows are kept in insertion order.
type GameAction struct {
	ID          int64  `db:"id"          json:"-"`
	GameID      string `db:"game_id"     json:"-"`
	Round       int    `db:"round"       json:"round"`
	Phase       string `db:"phase"       json:"phase"` // setup, night, day, end
	Actor       string `db:"actor"       json:"actor,omitempty"`
	ActionType  string `db:"action_type" json:"action_type"`
	Target      string `db:"target"      json:"target,omitempty"`
	Description string `db:"description" json:"description,omitempty"` // human-readable history entry
}

// Action types
const (
	ActionSetup       = "setup"
	ActionNightAction = "night_action"
	ActionDivination  = "divination"
	ActionMedium      = "medium_reading"
	ActionDeath       = "death"
	ActionDayVote     = "day_vote"
	ActionExecution   = "execution"
	ActionNoExecution = "no_execution"
	ActionVictory     = "victory"
	ActionRejected    = "rejected"
	ActionStory       = "story"
)

// Phases
const (
	PhaseSetup = "setup"
	PhaseNight = "night"
	PhaseDay   = "day"
	PhaseEnd   = "end"
)

func initDB() error {
	schema := `
	CREATE TABLE IF NOT EXISTS game (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		player_count INTEGER NOT NULL,
		turn INTEGER NOT NULL DEFAULT 1,
		victory_team TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS game_player (
		game_id TEXT NOT NULL,
		seat INTEGER NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL,
		team TEXT NOT NULL,
		is_alive INTEGER NOT NULL DEFAULT 1,
		death_turn INTEGER NOT NULL DEFAULT 0,
		death_reason TEXT NOT NULL DEFAULT '',
		is_winner INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (game_id) REFERENCES game(id),
		UNIQUE(game_id, seat),
		UNIQUE(game_id, name)
	);
	CREATE TABLE IF NOT EXISTS game_action (
		game_id TEXT NOT NULL,
		round INTEGER NOT NULL,
		phase TEXT NOT NULL,
		actor TEXT NOT NULL DEFAULT '',
		action_type TEXT NOT NULL,
		target TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (game_id) REFERENCES game(id)
	);
	CREATE INDEX IF NOT EXISTS idx_game_action_lookup ON game_action(game_id, round, phase);
	`
	_, err := db.Exec(schema)
	if err != nil {
		log.Printf("initDB error: %v", err)
		return err
	}
	log.Printf("Database initialized successfully")
	return nil
}

// createGame stores a new running game and returns its id.
func createGame(playerCount int) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO game (id, created_at, player_count) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), playerCount)
	if err != nil {
		return "", fmt.Errorf("create game: %w", err)
	}
	return id, nil
}

// recordRoster stores every seat with its dealt role.
func recordRoster(gameID string, g *engine.Game) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, p := range g.Players() {
		rec := PlayerRecord{GameID: gameID, Seat: i, Name: p.Name(), IsAlive: true}
		if r, ok := p.Role(); ok {
			rec.Role = r.Name()
			rec.Team = string(r.Team())
		}
		_, err := tx.NamedExec(`
			INSERT INTO game_player (game_id, seat, name, role, team, is_alive)
			VALUES (:game_id, :seat, :name, :role, :team, :is_alive)`, rec)
		if err != nil {
			return fmt.Errorf("record seat %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func recordAction(a GameAction) error {
	_, err := db.NamedExec(`
		INSERT INTO game_action (game_id, round, phase, actor, action_type, target, description)
		VALUES (:game_id, :round, :phase, :actor, :action_type, :target, :description)`, a)
	if err != nil {
		return fmt.Errorf("record %s: %w", a.ActionType, err)
	}
	LogEvent(a.GameID, a.Round, a.Phase, a.Description)
	return nil
}

// recordNight stores the submitted actions and what the engine made of them.
func recordNight(gameID string, turn int, actions map[string]engine.NightAction, res engine.NightResult) error {
	actors := make([]string, 0, len(actions))
	for actor := range actions {
		actors = append(actors, actor)
	}
	sort.Strings(actors)

	var rows []GameAction
	for _, actor := range actors {
		a := actions[actor]
		rows = append(rows, GameAction{
			Phase: PhaseNight, Actor: actor, ActionType: ActionNightAction, Target: a.Target,
			Description: string(a.Type),
		})
	}
	for _, dv := range res.Divinations {
		rows = append(rows, GameAction{
			Phase: PhaseNight, Actor: dv.Seer, ActionType: ActionDivination, Target: dv.Target,
			Description: fmt.Sprintf("%s divined %s: %s", dv.Seer, dv.Target, dv.Result),
		})
	}
	for _, m := range res.MediumReadings {
		rows = append(rows, GameAction{
			Phase: PhaseNight, Actor: m.Medium, ActionType: ActionMedium, Target: m.Executed,
			Description: fmt.Sprintf("%s sensed that %s was %s", m.Medium, m.Executed, m.Result),
		})
	}
	for _, name := range res.Victims {
		rows = append(rows, GameAction{
			Phase: PhaseNight, ActionType: ActionDeath, Target: name,
			Description: fmt.Sprintf("%s was found dead on morning %d", name, turn),
		})
	}
	return recordRows(gameID, turn, rows)
}

// recordDay stores the vote tally and the execution.
func recordDay(gameID string, turn int, tally map[string]int, res engine.DayResult) error {
	names := make([]string, 0, len(tally))
	for name := range tally {
		names = append(names, name)
	}
	sort.Strings(names)

	var rows []GameAction
	for _, name := range names {
		rows = append(rows, GameAction{
			Phase: PhaseDay, ActionType: ActionDayVote, Target: name,
			Description: fmt.Sprintf("%d vote(s) for %s", tally[name], name),
		})
	}
	if res.Executed == "" {
		rows = append(rows, GameAction{
			Phase: PhaseDay, ActionType: ActionNoExecution,
			Description: fmt.Sprintf("Nobody was executed on day %d", turn),
		})
	} else {
		rows = append(rows, GameAction{
			Phase: PhaseDay, ActionType: ActionExecution, Target: res.Executed,
			Description: fmt.Sprintf("The village executed %s", res.Executed),
		})
	}
	for _, name := range res.ChainDeaths {
		rows = append(rows, GameAction{
			Phase: PhaseDay, ActionType: ActionDeath, Target: name,
			Description: fmt.Sprintf("%s died in the aftermath", name),
		})
	}
	return recordRows(gameID, turn, rows)
}

func recordRows(gameID string, turn int, rows []GameAction) error {
	for _, row := range rows {
		row.GameID = gameID
		row.Round = turn
		if err := recordAction(row); err != nil {
			return err
		}
	}
	return nil
}

// syncPlayers copies the engine's view of every seat into game_player.
func syncPlayers(gameID string, g *engine.Game) error {
	winner, decided := g.VictoryTeam()
	for _, p := range g.Players() {
		rec := PlayerRecord{GameID: gameID, Name: p.Name(), IsAlive: p.IsAlive()}
		if d, dead := p.Death(); dead {
			rec.DeathTurn = d.Turn
			rec.DeathReason = string(d.Reason)
		}
		if r, ok := p.Role(); ok {
			rec.IsWinner = decided && r.Team() == winner
		}
		_, err := db.NamedExec(`
			UPDATE game_player
			SET is_alive = :is_alive, death_turn = :death_turn, death_reason = :death_reason, is_winner = :is_winner
			WHERE game_id = :game_id AND name = :name`, rec)
		if err != nil {
			return fmt.Errorf("sync %s: %w", p.Name(), err)
		}
	}
	return nil
}

// finishGame records the final turn and the winner (empty if the script ran out).
func finishGame(gameID string, turn int, v *engine.Victory) error {
	team := ""
	if v != nil {
		team = string(v.Team)
		if err := recordAction(GameAction{
			GameID: gameID, Round: turn, Phase: PhaseEnd, ActionType: ActionVictory, Description: v.Message,
		}); err != nil {
			return err
		}
	}
	_, err := db.Exec(`UPDATE game SET status = 'finished', turn = ?, victory_team = ? WHERE id = ?`, turn, team, gameID)
	if err != nil {
		return fmt.Errorf("finish game: %w", err)
	}
	return nil
}

func getGame(gameID string) (GameRecord, error) {
	var g GameRecord
	err := db.Get(&g, `SELECT id, created_at, status, player_count, turn, victory_team FROM game WHERE id = ?`, gameID)
	return g, err
}

func getGamePlayers(gameID string) ([]PlayerRecord, error) {
	var players []PlayerRecord
	err := db.Select(&players, `
		SELECT game_id, seat, name, role, team, is_alive, death_turn, death_reason, is_winner
		FROM game_player
		WHERE game_id = ?
		ORDER BY seat`, gameID)
	return players, err
}

func getGameActions(gameID string) ([]GameAction, error) {
	var actions []GameAction
	err := db.Select(&actions, `
		SELECT rowid as id, game_id, round, phase, actor, action_type, target, description
		FROM game_action
		WHERE game_id = ?
		ORDER BY rowid ASC`, gameID)
	return actions, err
}

// getGameHistory returns the public history lines, oldest first. Submitted
// night actions are secret and left out.
func getGameHistory(gameID string) ([]string, error) {
	var descriptions []string
	err := db.Select(&descriptions, `
		SELECT description FROM game_action
		WHERE game_id = ? AND description != '' AND action_type NOT IN (?, ?, ?)
		ORDER BY rowid ASC`, gameID, ActionNightAction, ActionDivination, ActionMedium)
	return descriptions, err
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"werewolf-gm/internal/engine"
)

// GameScript is a whole game written down in advance: the roster, the deck
// and what everyone does each round.
type GameScript struct {
	Players []string      `json:"players"`
	Roles   []string      `json:"roles,omitempty"` // empty = config role_counts, then the stock setup
	Seed    *uint64       `json:"seed,omitempty"`  // overrides the configured seed
	Rounds  []ScriptRound `json:"rounds"`
}

// ScriptRound holds one night's actions keyed by actor and the following
// day's vote tally keyed by target.
type ScriptRound struct {
	Night map[string]engine.NightAction `json:"night,omitempty"`
	Day   map[string]int                `json:"day,omitempty"`
}

// RoundTranscript is what the engine made of one scripted round.
type RoundTranscript struct {
	Turn   int                 `json:"turn"`
	Night  *engine.NightResult `json:"night,omitempty"`
	Day    *engine.DayResult   `json:"day,omitempty"`
	Errors []string            `json:"errors,omitempty"`
}

// Transcript is the complete record of a scripted game.
type Transcript struct {
	Game    GameRecord         `json:"game"`
	Players []PlayerRecord     `json:"players"`
	Victory *engine.Victory    `json:"victory,omitempty"`
	Results []engine.ResultRow `json:"results"`
	Rounds  []RoundTranscript  `json:"rounds"`
	History []GameAction       `json:"history"`
}

func loadScript(path string) (GameScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GameScript{}, fmt.Errorf("read script: %w", err)
	}
	return parseScript(data)
}

func parseScript(data []byte) (GameScript, error) {
	var script GameScript
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&script); err != nil {
		return GameScript{}, fmt.Errorf("parse script: %w", err)
	}
	if len(script.Players) == 0 {
		return GameScript{}, errors.New("parse script: no players")
	}
	return script, nil
}

// scriptRoles picks the deck: the script's own list, else the configured
// counts, else the stock setup.
func scriptRoles(cfg AppConfig, script GameScript) ([]string, error) {
	if len(script.Roles) > 0 {
		return script.Roles, nil
	}
	counts := cfg.RoleCounts
	if len(counts) == 0 {
		counts = engine.DefaultRoleCounts()
	}
	return engine.ExpandRoleCounts(counts)
}

// runScript plays script to the end against the engine, recording every
// phase in the store. Setup failures are returned; a rejected phase is
// logged, recorded and skipped. Extra options are applied after the
// configured ones.
func runScript(ctx context.Context, cfg AppConfig, script GameScript, out io.Writer, opts ...engine.Option) (*Transcript, error) {
	roles, err := scriptRoles(cfg, script)
	if err != nil {
		return nil, fmt.Errorf("roles: %w", err)
	}

	seed := cfg.Seed
	if script.Seed != nil {
		seed = *script.Seed
	}
	gameOpts := []engine.Option{engine.WithDebug(DebugLog)}
	if seed != 0 {
		gameOpts = append(gameOpts, engine.WithPicker(engine.NewRandPicker(seed)))
	}
	gameOpts = append(gameOpts, opts...)

	g, err := engine.NewGame(script.Players, gameOpts...)
	if err != nil {
		return nil, err
	}
	if err := g.AssignRoles(roles); err != nil {
		return nil, err
	}

	gameID, err := createGame(len(script.Players))
	if err != nil {
		return nil, err
	}
	if err := recordRoster(gameID, g); err != nil {
		return nil, err
	}
	if err := recordAction(GameAction{
		GameID: gameID, Round: g.Turn(), Phase: PhaseSetup, ActionType: ActionSetup,
		Description: fmt.Sprintf("The game begins with %d players: %s", len(script.Players), strings.Join(script.Players, ", ")),
	}); err != nil {
		return nil, err
	}
	LogDBState("after setup of game " + gameID)
	log.Printf("Game %s: %d players, %d scripted rounds", gameID, len(script.Players), len(script.Rounds))

	printRoster(out, g)

	var victory *engine.Victory
	var rounds []RoundTranscript
	for _, round := range script.Rounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		turn := g.Turn()
		rt := RoundTranscript{Turn: turn}

		fmt.Fprintf(out, "\n=== Night %d ===\n", turn)
		night, err := g.ResolveNight(round.Night)
		if err != nil {
			rt.Errors = append(rt.Errors, rejectPhase(gameID, turn, PhaseNight, err))
		} else {
			rt.Night = &night
			if err := recordNight(gameID, turn, round.Night, night); err != nil {
				return nil, err
			}
			printNight(out, night)
			tellStory(ctx, gameID, turn, PhaseNight, out)
		}
		if victory = g.CheckVictory(); victory != nil {
			rounds = append(rounds, rt)
			break
		}

		fmt.Fprintf(out, "\n=== Day %d ===\n", turn)
		day, err := g.ExecuteDayVote(round.Day)
		if err != nil {
			rt.Errors = append(rt.Errors, rejectPhase(gameID, turn, PhaseDay, err))
		} else {
			rt.Day = &day
			if err := recordDay(gameID, turn, round.Day, day); err != nil {
				return nil, err
			}
			printDay(out, day)
			tellStory(ctx, gameID, turn, PhaseDay, out)
		}
		if err := syncPlayers(gameID, g); err != nil {
			return nil, err
		}
		rounds = append(rounds, rt)
		if victory = g.CheckVictory(); victory != nil {
			break
		}
		g.AdvanceTurn()
	}

	if err := syncPlayers(gameID, g); err != nil {
		return nil, err
	}
	if err := finishGame(gameID, g.Turn(), victory); err != nil {
		return nil, err
	}
	LogDBState("after game " + gameID)

	if victory != nil {
		fmt.Fprintf(out, "\n%s\n", victory.Message)
	} else {
		fmt.Fprintf(out, "\nThe script ran out after turn %d with no winner.\n", g.Turn())
	}
	printResults(out, g.Results())

	return buildTranscript(gameID, victory, g.Results(), rounds)
}

// rejectPhase logs and records an engine error; the phase is skipped.
func rejectPhase(gameID string, turn int, phase string, err error) string {
	logError(fmt.Sprintf("game %s %s %d", gameID, phase, turn), err)
	var nf *engine.NotFoundError
	target := ""
	if errors.As(err, &nf) {
		target = nf.Name
	}
	if recErr := recordAction(GameAction{
		GameID: gameID, Round: turn, Phase: phase, ActionType: ActionRejected, Target: target,
		Description: fmt.Sprintf("The %s was not resolved: %v", phase, err),
	}); recErr != nil {
		logError("rejectPhase: record", recErr)
	}
	return err.Error()
}

func buildTranscript(gameID string, victory *engine.Victory, results []engine.ResultRow, rounds []RoundTranscript) (*Transcript, error) {
	game, err := getGame(gameID)
	if err != nil {
		return nil, fmt.Errorf("load game: %w", err)
	}
	players, err := getGamePlayers(gameID)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	history, err := getGameActions(gameID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return &Transcript{
		Game:    game,
		Players: players,
		Victory: victory,
		Results: results,
		Rounds:  rounds,
		History: history,
	}, nil
}

func writeTranscript(path string, t *Transcript) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func printRoster(out io.Writer, g *engine.Game) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEAT\tPLAYER\tROLE\tTEAM\tACTION")
	for i, p := range g.Players() {
		r, _ := p.Role()
		action := r.ActionLabel()
		if action == "" {
			action = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, p.Name(), r.Name(), r.Team(), action)
	}
	tw.Flush()
}

func printNight(out io.Writer, res engine.NightResult) {
	for _, dv := range res.Divinations {
		fmt.Fprintf(out, "%s divined %s: %s\n", dv.Seer, dv.Target, dv.Result)
	}
	for _, m := range res.MediumReadings {
		fmt.Fprintf(out, "%s sensed that %s was %s\n", m.Medium, m.Executed, m.Result)
	}
	if res.AttackBlocked != engine.BlockNone {
		fmt.Fprintf(out, "The attack on %s failed (%s)\n", res.AttackTarget, res.AttackBlocked)
	}
	if len(res.Victims) == 0 {
		fmt.Fprintln(out, "Nobody died.")
		return
	}
	fmt.Fprintf(out, "Found dead: %s\n", strings.Join(res.Victims, ", "))
}

func printDay(out io.Writer, res engine.DayResult) {
	if res.Executed == "" {
		fmt.Fprintln(out, "Nobody was executed.")
		return
	}
	fmt.Fprintf(out, "Executed: %s\n", res.Executed)
	if len(res.ChainDeaths) > 0 {
		fmt.Fprintf(out, "Also died: %s\n", strings.Join(res.ChainDeaths, ", "))
	}
}

func printResults(out io.Writer, rows []engine.ResultRow) {
	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYER\tROLE\tTEAM\tSTATUS\tRESULT")
	for _, row := range rows {
		result := "lost"
		if row.Winner {
			result = "won"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", row.Name, row.Role, row.Team, row.Status, result)
	}
	tw.Flush()
}

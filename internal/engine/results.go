package engine

import "fmt"

// ResultRow is one line of the end-of-game table.
type ResultRow struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Team   Team   `json:"team"`
	Status string `json:"status"`
	Winner bool   `json:"winner"`
}

// Results lists every player in seat order. Winner is only ever set after
// CheckVictory has recorded a winning team.
func (g *Game) Results() []ResultRow {
	winner, decided := g.VictoryTeam()
	rows := make([]ResultRow, 0, len(g.players))
	for _, p := range g.players {
		row := ResultRow{Name: p.name, Status: lifeStatus(p)}
		if p.role != nil {
			row.Role = p.role.Name()
			row.Team = p.role.Team()
			row.Winner = decided && row.Team == winner
		}
		rows = append(rows, row)
	}
	return rows
}

func lifeStatus(p *Player) string {
	d, dead := p.Death()
	if !dead {
		return "survived to the end"
	}
	return fmt.Sprintf("died on turn %d (%s)", d.Turn, d.Reason)
}

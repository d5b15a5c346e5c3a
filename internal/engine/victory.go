package engine

// Victory is a finished game's winner.
type Victory struct {
	Team    Team   `json:"team"`
	Message string `json:"message"`
}

// CheckVictory evaluates the win conditions over the living players. The
// first winner found is recorded and returned unchanged from then on; nil
// means the game goes on.
func (g *Game) CheckVictory() *Victory {
	if g.victory != nil {
		v := *g.victory
		return &v
	}
	if !g.RolesAssigned() {
		return nil
	}

	var wolves, villagers, foxes int
	for _, p := range g.AlivePlayers() {
		switch p.role.Species() {
		case TeamWerewolf:
			wolves++
		case TeamVillager:
			villagers++
		case TeamFox:
			foxes++
		}
	}
	g.debug("victory check: %d werewolves, %d villagers, %d foxes alive", wolves, villagers, foxes)

	var v *Victory
	switch {
	case wolves == 0 && foxes == 0:
		v = &Victory{Team: TeamVillager, Message: "All werewolves are dead. The Villager team wins!"}
	case wolves == 0:
		v = &Victory{Team: TeamFox, Message: "All werewolves are dead, but a fox survived. The Fox team wins!"}
	case wolves >= villagers && foxes == 0:
		v = &Victory{Team: TeamWerewolf, Message: "The werewolves outnumber the villagers. The Werewolf team wins!"}
	case wolves >= villagers:
		v = &Victory{Team: TeamFox, Message: "The werewolves outnumber the villagers, but a fox survived. The Fox team wins!"}
	default:
		return nil
	}

	g.victory = v
	out := *v
	return &out
}

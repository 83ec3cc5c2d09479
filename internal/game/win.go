package game

// EvaluateWin is a pure function over the player set. Town wins once no
// mafia is left standing; mafia wins at parity or better. Side membership
// follows the current role, so a joker who mimicked a mafioso counts as
// mafia.
func EvaluateWin(players []*Player) Winner {
	var aliveMafia, aliveTown int
	for _, p := range players {
		if !p.Alive {
			continue
		}
		if p.Role == RoleMafia {
			aliveMafia++
		} else {
			aliveTown++
		}
	}
	if aliveMafia == 0 {
		return WinnerTown
	}
	if aliveMafia >= aliveTown {
		return WinnerMafia
	}
	return WinnerNone
}

package game

import "math/rand"

// autoComplete synthesizes the default move for a player whose turn timer
// ran out. A timed-out mafioso still kills: they pile onto a teammate's
// target if one was recorded tonight, otherwise a random alive non-mafia
// player. Everyone else just skips.
func (r *Room) autoComplete(p *Player) {
	switch r.phase {
	case PhaseNight:
		if p.Role == RoleMafia {
			target := r.teammateKillTarget(p.ID)
			if target == "" {
				target = r.randomKillTarget()
			}
			if target != "" {
				r.nightActions = append(r.nightActions, nightAction{actorID: p.ID, role: RoleMafia, targetID: target})
				return
			}
		}
		r.nightActions = append(r.nightActions, nightAction{actorID: p.ID, role: p.Role, skip: true})
	case PhaseDay:
		if _, voted := r.votes[p.ID]; !voted {
			r.votes[p.ID] = skipVote
			r.broadcastVoteProgress()
		}
	}
}

func (r *Room) teammateKillTarget(selfID string) string {
	for _, a := range r.nightActions {
		if a.role == RoleMafia && !a.skip && a.actorID != selfID {
			return a.targetID
		}
	}
	return ""
}

func (r *Room) randomKillTarget() string {
	pool := make([]string, 0, len(r.players))
	for _, p := range r.players {
		if p.Alive && !p.Left && p.Role != RoleMafia {
			pool = append(pool, p.ID)
		}
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[rand.Intn(len(pool))]
}

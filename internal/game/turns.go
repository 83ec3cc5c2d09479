package game

import "sort"

// aliveOrder is the turn order: alive, still-seated players sorted by seat
// number ascending. Recomputed fresh on every advance so a seat abandoned
// mid-phase simply stops appearing.
func (r *Room) aliveOrder() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Alive && !p.Left {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// turnPlayer enforces the acceptance rule: the submitter must hold the
// current turn and be alive, otherwise the submission has no effect.
func (r *Room) turnPlayer(id string) (*Player, error) {
	p := r.playerByID(id)
	if p == nil || !p.Alive || p.Left || id != r.currentTurn {
		return nil, ErrNotYourTurn
	}
	return p, nil
}

// beginTurns hands the first turn of the current phase to the lowest seat.
func (r *Room) beginTurns() {
	order := r.aliveOrder()
	if len(order) == 0 {
		r.finishTurns()
		return
	}
	r.setTurn(order[0])
}

// advanceTurn moves to the next alive seat or, when the order is exhausted
// (or the current player vanished from it), hands off to the phase's
// resolution.
func (r *Room) advanceTurn() {
	order := r.aliveOrder()
	idx := -1
	for i, p := range order {
		if p.ID == r.currentTurn {
			idx = i
			break
		}
	}
	if idx >= 0 && idx < len(order)-1 {
		r.setTurn(order[idx+1])
		return
	}
	r.finishTurns()
}

func (r *Room) setTurn(p *Player) {
	r.currentTurn = p.ID
	r.notify.Broadcast(r.Code, "turn:changed", map[string]any{
		"playerId": p.ID,
		"name":     p.Name,
		"number":   p.Number,
	})
	seconds := r.Settings.NightTimer
	if r.phase == PhaseDay {
		seconds = r.Settings.DayTimer
	}
	r.armTimer(seconds, timerTurn)
}

func (r *Room) finishTurns() {
	r.currentTurn = ""
	r.cancelTimer()
	switch r.phase {
	case PhaseNight:
		r.resolveNight()
	case PhaseDay:
		r.resolveDay()
	}
}

package game

// startDay opens the discussion phase with a fresh ballot.
func (r *Room) startDay() {
	r.phase = PhaseDay
	r.votes = make(map[string]string)
	r.log.Info().Int("dayNumber", r.dayNumber).Msg("day begins")
	r.notify.Broadcast(r.Code, "phase:day", map[string]any{
		"dayNumber": r.dayNumber,
		"players":   r.roster(),
	})
	r.beginTurns()
}

func (r *Room) submitDayVote(id, targetID string) error {
	if r.phase != PhaseDay {
		return ErrNotYourTurn
	}
	p, err := r.turnPlayer(id)
	if err != nil {
		return err
	}
	t := r.playerByID(targetID)
	if t == nil || t.Left || !t.Alive {
		return ErrInvalidTarget
	}
	r.votes[p.ID] = t.ID
	r.broadcastVoteProgress()
	r.advanceTurn()
	return nil
}

func (r *Room) submitDaySkip(id string) error {
	if r.phase != PhaseDay {
		return ErrNotYourTurn
	}
	p, err := r.turnPlayer(id)
	if err != nil {
		return err
	}
	r.votes[p.ID] = skipVote
	r.broadcastVoteProgress()
	r.advanceTurn()
	return nil
}

// Voting is secret: only the running count leaves the server.
func (r *Room) broadcastVoteProgress() {
	r.notify.Broadcast(r.Code, "vote:update", map[string]any{
		"voteCount":     len(r.votes),
		"requiredVotes": len(r.aliveOrder()),
	})
}

// resolveDay tallies the ballot. Elimination needs an outright winner: the
// top count must strictly exceed both the skip count and the runner-up, so
// any tie at the top spares everyone.
func (r *Room) resolveDay() {
	counts := make(map[string]int)
	skips := 0
	for _, target := range r.votes {
		if target == skipVote {
			skips++
			continue
		}
		counts[target]++
	}

	topID := ""
	top, second := 0, 0
	for id, c := range counts {
		switch {
		case c > top:
			second = top
			top = c
			topID = id
		case c > second:
			second = c
		}
	}

	var eliminated *Player
	if topID != "" && top > skips && top > second {
		if p := r.playerByID(topID); p != nil && p.Alive {
			p.Alive = false
			p.Lynched = true
			eliminated = p
		}
	}

	r.log.Info().Bool("eliminated", eliminated != nil).Int("skips", skips).Msg("day resolved")
	r.notify.Broadcast(r.Code, "vote:result", map[string]any{
		"eliminated": playerRef(eliminated),
		"players":    r.roster(),
	})

	if w := EvaluateWin(r.players); w != WinnerNone {
		r.endGame(w)
		return
	}
	r.armTimer(int(settleDelay.Seconds()), timerSettle)
}

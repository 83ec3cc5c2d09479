package game

// startNight opens a new night: bumps the day counter, clears the action
// log and hands the first turn to the lowest alive seat.
func (r *Room) startNight() {
	r.phase = PhaseNight
	r.dayNumber++
	r.nightActions = nil
	for _, p := range r.players {
		p.Ready = false
	}
	r.log.Info().Int("dayNumber", r.dayNumber).Msg("night begins")
	r.notify.Broadcast(r.Code, "phase:night", map[string]any{
		"dayNumber": r.dayNumber,
		"players":   r.roster(),
	})
	r.beginTurns()
}

// submitNightAction validates and records the acting player's targeted
// effect. Validation failures never consume one-shot abilities and leave the
// turn with the submitter.
func (r *Room) submitNightAction(id, targetID string) error {
	if r.phase != PhaseNight {
		return ErrNotYourTurn
	}
	p, err := r.turnPlayer(id)
	if err != nil {
		return err
	}
	t := r.playerByID(targetID)
	if t == nil || t.Left {
		return ErrInvalidTarget
	}
	switch p.Role {
	case RoleMafia:
		if !t.Alive || t.ID == p.ID {
			return ErrInvalidTarget
		}
	case RoleDoctor:
		if !t.Alive {
			return ErrInvalidTarget
		}
		if t.ID == p.ID && !r.Settings.DoctorSelfHeal {
			return ErrInvalidTarget
		}
	case RoleDetective:
		if !t.Alive || t.ID == p.ID {
			return ErrInvalidTarget
		}
	case RoleGuardianAngel:
		if p.UsedSpecialAction {
			return ErrSpecialActionUsed
		}
		if t.Alive || t.Lynched {
			return ErrInvalidTarget
		}
	case RoleJoker:
		if p.UsedSpecialAction {
			return ErrSpecialActionUsed
		}
		if r.deadCount() < 2 {
			return ErrAbilityNotAvailable
		}
		if t.Alive {
			return ErrInvalidTarget
		}
	default:
		// citizens have no night action; they can only skip
		return ErrInvalidTarget
	}
	r.nightActions = append(r.nightActions, nightAction{actorID: p.ID, role: p.Role, targetID: t.ID})
	r.advanceTurn()
	return nil
}

func (r *Room) submitNightSkip(id string) error {
	if r.phase != PhaseNight {
		return ErrNotYourTurn
	}
	p, err := r.turnPlayer(id)
	if err != nil {
		return err
	}
	r.nightActions = append(r.nightActions, nightAction{actorID: p.ID, role: p.Role, skip: true})
	r.advanceTurn()
	return nil
}

func (r *Room) deadCount() int {
	n := 0
	for _, p := range r.players {
		if !p.Alive {
			n++
		}
	}
	return n
}

// resolveNight folds the recorded actions into one outcome, in fixed order:
// kill tally, heal cancellation, the murder itself, investigations, revival,
// mimicry, then the anonymized summary and a win check.
func (r *Room) resolveNight() {
	var killed, saved, revived *Player

	// Mafia plurality; ties go to the target recorded first.
	counts := make(map[string]int)
	var firstSeen []string
	for _, a := range r.nightActions {
		if a.role != RoleMafia || a.skip {
			continue
		}
		if counts[a.targetID] == 0 {
			firstSeen = append(firstSeen, a.targetID)
		}
		counts[a.targetID]++
	}
	best := ""
	for _, id := range firstSeen {
		if best == "" || counts[id] > counts[best] {
			best = id
		}
	}
	if best != "" {
		killed = r.playerByID(best)
	}

	if killed != nil {
		for _, a := range r.nightActions {
			if a.role == RoleDoctor && !a.skip && a.targetID == killed.ID {
				saved = killed
				killed = nil
				break
			}
		}
	}

	if killed != nil {
		// a murder, not a lynch: the victim stays eligible for revival
		killed.Alive = false
	}

	for _, a := range r.nightActions {
		if a.role != RoleDetective || a.skip {
			continue
		}
		t := r.playerByID(a.targetID)
		if t == nil {
			continue
		}
		r.notify.ToPlayer(a.actorID, "detective:result", map[string]any{
			"targetId":   t.ID,
			"targetName": t.Name,
			"isMafia":    t.Role == RoleMafia,
		})
	}

	for _, a := range r.nightActions {
		if a.role != RoleGuardianAngel || a.skip {
			continue
		}
		angel := r.playerByID(a.actorID)
		t := r.playerByID(a.targetID)
		if angel == nil || angel.UsedSpecialAction {
			continue
		}
		// revalidated here: the target may have changed state since the
		// action was accepted
		if t == nil || t.Alive || t.Lynched {
			r.emitError(a.actorID, ErrInvalidTarget)
			continue
		}
		t.Alive = true
		angel.UsedSpecialAction = true
		revived = t
	}

	for _, a := range r.nightActions {
		if a.role != RoleJoker || a.skip {
			continue
		}
		joker := r.playerByID(a.actorID)
		t := r.playerByID(a.targetID)
		if joker == nil || joker.UsedSpecialAction {
			continue
		}
		if t == nil || t.Alive {
			r.emitError(a.actorID, ErrInvalidTarget)
			continue
		}
		joker.Role = t.OriginalRole
		joker.UsedSpecialAction = true
		r.notify.ToPlayer(joker.ID, "joker:role", map[string]any{"role": joker.Role})
	}

	r.log.Info().
		Bool("saved", saved != nil).
		Bool("killed", killed != nil).
		Bool("revived", revived != nil).
		Msg("night resolved")
	r.notify.Broadcast(r.Code, "night:result", map[string]any{
		"killed":  playerRef(killed),
		"saved":   saved != nil,
		"revived": playerRef(revived),
		"players": r.roster(),
	})

	if w := EvaluateWin(r.players); w != WinnerNone {
		r.endGame(w)
		return
	}
	r.startDay()
}

package game

import "time"

type timerPurpose int

const (
	timerTurn timerPurpose = iota
	timerSettle
)

// settleDelay spaces the day result from the next night so players can read
// the outcome before the phase flips.
const settleDelay = 3 * time.Second

// armTimer replaces the room's single timer. A non-positive duration leaves
// the room untimed. Expiry is delivered through the room's command queue and
// checked against the generation counter, so a fire that crosses a
// cancellation is a no-op.
func (r *Room) armTimer(seconds int, purpose timerPurpose) {
	r.cancelTimer()
	if seconds <= 0 {
		return
	}
	r.timerPurpose = purpose
	gen := r.timerGen
	t := time.AfterFunc(time.Duration(seconds)*time.Second, func() {
		r.post(func() { r.timerExpired(gen) })
	})
	r.stopTimer = t.Stop
	if purpose == timerTurn {
		r.notify.Broadcast(r.Code, "timer:started", map[string]any{
			"seconds": seconds,
			"phase":   r.phase,
		})
	}
}

// cancelTimer invalidates any armed or already-fired-but-undelivered timer.
func (r *Room) cancelTimer() {
	r.timerGen++
	if r.stopTimer != nil {
		r.stopTimer()
		r.stopTimer = nil
	}
}

func (r *Room) timerExpired(gen uint64) {
	if gen != r.timerGen {
		return // superseded
	}
	r.stopTimer = nil
	switch r.timerPurpose {
	case timerSettle:
		r.startNight()
	case timerTurn:
		p := r.playerByID(r.currentTurn)
		if p != nil {
			r.log.Debug().Str("playerId", p.ID).Str("phase", string(r.phase)).Msg("turn timed out")
			r.autoComplete(p)
		}
		r.advanceTurn()
	}
}

package game

import "testing"

func TestStaleTimerExpiryIsNoOp(t *testing.T) {
	r, _ := testRoom(untimedSettings(), "Ana", "Ben", "Cleo", "Dré")
	dealRoles(r, RoleMafia, RoleCitizen, RoleCitizen, RoleCitizen)

	r.armTimer(60, timerTurn)
	stale := r.timerGen
	r.cancelTimer()

	r.timerExpired(stale)
	if len(r.nightActions) != 0 {
		t.Fatal("a cancelled timer must not auto-complete anyone")
	}
	if r.currentTurn != "p1" {
		t.Fatal("a cancelled timer must not advance the turn")
	}
}

func TestRearmInvalidatesPriorTimer(t *testing.T) {
	r, _ := testRoom(untimedSettings(), "Ana", "Ben", "Cleo", "Dré")
	dealRoles(r, RoleMafia, RoleCitizen, RoleCitizen, RoleCitizen)

	r.armTimer(60, timerTurn)
	first := r.timerGen
	r.armTimer(60, timerTurn)
	second := r.timerGen

	// the superseded timer fires late: nothing happens
	r.timerExpired(first)
	if len(r.nightActions) != 0 {
		t.Fatal("superseded expiry must be a no-op")
	}

	// the live timer fires: exactly one auto-completion
	r.timerExpired(second)
	if len(r.nightActions) != 1 {
		t.Fatalf("expected exactly one auto-completed action, got %d", len(r.nightActions))
	}
	if r.currentTurn != "p2" {
		t.Fatalf("expiry should advance the turn, got %s", r.currentTurn)
	}
}

func TestZeroDurationDisablesTimer(t *testing.T) {
	r, n := testRoom(untimedSettings(), "Ana", "Ben", "Cleo", "Dré")
	dealRoles(r, RoleMafia, RoleCitizen, RoleCitizen, RoleCitizen)

	if r.stopTimer != nil {
		t.Fatal("a zero night timer must not arm anything")
	}
	if n.count("timer:started") != 0 {
		t.Fatal("no countdown should be announced when timing is disabled")
	}
}

func TestTimerAnnouncedToObservers(t *testing.T) {
	s := untimedSettings()
	s.NightTimer = 45
	r, n := testRoom(s, "Ana", "Ben", "Cleo", "Dré")
	dealRoles(r, RoleMafia, RoleCitizen, RoleCitizen, RoleCitizen)

	ev, ok := n.last("timer:started")
	if !ok {
		t.Fatal("arming a turn timer should be announced")
	}
	payload := ev.payload.(map[string]any)
	if payload["seconds"] != 45 || payload["phase"] != PhaseNight {
		t.Fatalf("unexpected timer payload: %v", payload)
	}
	if r.stopTimer == nil {
		t.Fatal("timer should be armed")
	}
	r.cancelTimer()
}

package game

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type recordedEvent struct {
	target  string // room code or player id
	event   string
	payload any
	private bool
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) Broadcast(code, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{target: code, event: event, payload: payload})
}

func (n *recordingNotifier) ToPlayer(playerID, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{target: playerID, event: event, payload: payload, private: true})
}

func (n *recordingNotifier) last(event string) (recordedEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.events) - 1; i >= 0; i-- {
		if n.events[i].event == event {
			return n.events[i], true
		}
	}
	return recordedEvent{}, false
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.event == event {
			c++
		}
	}
	return c
}

// testRoom builds a room with seats p1..pN without starting the actor
// goroutine; tests drive the unexported handlers directly, which is exactly
// how the room goroutine runs them.
func testRoom(settings Settings, names ...string) (*Room, *recordingNotifier) {
	n := &recordingNotifier{}
	r := newRoom("TEST42", settings, n, nil, zerolog.Nop(), nil)
	for i, name := range names {
		if err := r.join(fmt.Sprintf("p%d", i+1), name, 0); err != nil {
			panic(err)
		}
	}
	return r, n
}

// untimedSettings keeps turn timers out of tests that drive turns by hand.
func untimedSettings() Settings {
	s := DefaultSettings()
	s.NightTimer = 0
	s.DayTimer = 0
	return s
}

// dealRoles stamps a fixed deal and opens the first night.
func dealRoles(r *Room, roles ...Role) {
	r.phase = PhaseRoleReveal
	for i, p := range r.players {
		p.Number = i + 1
		p.Role = roles[i]
		p.OriginalRole = roles[i]
		p.Alive = true
		p.Lynched = false
		p.UsedSpecialAction = false
	}
	r.startNight()
}

func TestJoinRules(t *testing.T) {
	s := untimedSettings()
	s.MaxPlayers = 4
	r, _ := testRoom(s, "Ana", "Ben", "Cleo", "Dré")

	if err := r.join("p5", "Eve", 0); err != ErrRoomFull {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}

	if err := r.start("p1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := r.join("p5", "Eve", 0); err != ErrGameInProgress {
		t.Fatalf("expected ErrGameInProgress after start, got %v", err)
	}
}

func TestStartValidation(t *testing.T) {
	r, _ := testRoom(untimedSettings(), "Ana", "Ben", "Cleo")
	if err := r.start("p1"); err != ErrInsufficientPlayers {
		t.Fatalf("expected ErrInsufficientPlayers, got %v", err)
	}

	if err := r.join("p4", "Dré", 0); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := r.start("p2"); err != ErrNotHost {
		t.Fatalf("expected ErrNotHost for non-host, got %v", err)
	}
	if err := r.start("p1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if r.phase != PhaseRoleReveal {
		t.Fatalf("expected roleReveal, got %s", r.phase)
	}
}

func TestReadyBarrier(t *testing.T) {
	r, n := testRoom(untimedSettings(), "Ana", "Ben", "Cleo", "Dré")
	if err := r.start("p1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, id := range []string{"p1", "p2", "p3"} {
		if err := r.ready(id); err != nil {
			t.Fatalf("ready: %v", err)
		}
		if r.phase != PhaseRoleReveal {
			t.Fatalf("phase should hold at roleReveal until everyone acknowledged")
		}
	}
	if err := r.ready("p4"); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if r.phase != PhaseNight {
		t.Fatalf("expected night after last ready, got %s", r.phase)
	}
	if r.dayNumber != 1 {
		t.Fatalf("expected dayNumber 1, got %d", r.dayNumber)
	}
	if _, ok := n.last("phase:night"); !ok {
		t.Fatal("phase:night should be broadcast")
	}
}

func TestHostReassignmentOnLeave(t *testing.T) {
	r, n := testRoom(untimedSettings(), "Ana", "Ben", "Cleo", "Dré")
	r.leave("p1")
	if r.hostID != "p2" {
		t.Fatalf("expected p2 as new host, got %s", r.hostID)
	}
	ev, ok := n.last("host:assigned")
	if !ok || ev.target != "p2" {
		t.Fatal("new host should be notified privately")
	}
	if len(r.players) != 3 {
		t.Fatalf("lobby leave should drop the seat, got %d seats", len(r.players))
	}
}

func TestMidGameLeaverKeepsSeatNumber(t *testing.T) {
	r, _ := testRoom(untimedSettings(), "Ana", "Ben", "Cleo", "Dré", "Eve")
	dealRoles(r, RoleMafia, RoleDoctor, RoleCitizen, RoleCitizen, RoleCitizen)

	r.leave("p3")
	p := r.playerByID("p3")
	if p == nil {
		t.Fatal("mid-game leaver must keep their seat entry")
	}
	if !p.Left || p.Alive {
		t.Fatal("mid-game leaver should be marked left and dead")
	}
	if p.Number != 3 {
		t.Fatalf("seat number must not change, got %d", p.Number)
	}
	for _, q := range r.aliveOrder() {
		if q.ID == "p3" {
			t.Fatal("leaver must not appear in the turn order")
		}
	}
}

func TestLastLeaverDestroysRoom(t *testing.T) {
	removed := ""
	n := &recordingNotifier{}
	r := newRoom("GONE11", untimedSettings(), n, nil, zerolog.Nop(), func(code string) { removed = code })
	if err := r.join("p1", "Ana", 0); err != nil {
		t.Fatalf("join: %v", err)
	}
	r.leave("p1")
	if removed != "GONE11" {
		t.Fatal("emptying the room should trigger the registry removal hook")
	}
	select {
	case <-r.done:
	default:
		t.Fatal("room should be closed")
	}
}

func TestPlayAgainResets(t *testing.T) {
	r, n := testRoom(untimedSettings(), "Ana", "Ben", "Cleo", "Dré")
	dealRoles(r, RoleMafia, RoleDoctor, RoleCitizen, RoleCitizen)
	r.endGame(WinnerMafia)

	if err := r.playAgain("p2"); err != ErrNotHost {
		t.Fatalf("expected ErrNotHost, got %v", err)
	}
	if err := r.playAgain("p1"); err != nil {
		t.Fatalf("playAgain: %v", err)
	}
	if r.phase != PhaseLobby {
		t.Fatalf("expected lobby, got %s", r.phase)
	}
	for _, p := range r.players {
		if p.Role != "" || !p.Alive || p.Lynched || p.Ready || p.UsedSpecialAction {
			t.Fatalf("player %s not fully reset", p.ID)
		}
	}
	if _, ok := n.last("game:reset"); !ok {
		t.Fatal("game:reset should be broadcast")
	}
}

func TestRegistryLifecycle(t *testing.T) {
	n := &recordingNotifier{}
	reg := NewRegistry(n, nil, zerolog.Nop())

	r, err := reg.Create("host-sid", "Ana", 0, DefaultSettings())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(r.Code) != codeLength {
		t.Fatalf("expected %d-char code, got %q", codeLength, r.Code)
	}
	for _, c := range r.Code {
		found := false
		for _, a := range codeAlphabet {
			if c == a {
				found = true
			}
		}
		if !found {
			t.Fatalf("code %q uses a character outside the unambiguous alphabet", r.Code)
		}
	}

	got, err := reg.Get(r.Code)
	if err != nil || got != r {
		t.Fatalf("Get should find the room: %v", err)
	}
	if _, err := reg.Get("NOPE99"); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}

	r.Leave("host-sid")
	if _, err := reg.Get(r.Code); err != ErrRoomNotFound {
		t.Fatal("empty room should be removed from the registry")
	}
}

func TestPublicRoomDiscovery(t *testing.T) {
	n := &recordingNotifier{}
	reg := NewRegistry(n, nil, zerolog.Nop())

	pub := DefaultSettings()
	pub.Public = true
	if _, err := reg.Create("h1", "Ana", 0, pub); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := reg.Create("h2", "Ben", 0, DefaultSettings()); err != nil {
		t.Fatalf("create: %v", err)
	}

	rooms := reg.PublicRooms()
	if len(rooms) != 1 {
		t.Fatalf("expected 1 public room, got %d", len(rooms))
	}
	if rooms[0].HostName != "Ana" {
		t.Fatalf("expected Ana's room, got %q", rooms[0].HostName)
	}
}

package game

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Recorder is the stats collaborator the engine calls once per seated
// account at game over. A failure for one player must never leak into the
// room's own flow.
type Recorder interface {
	RecordGameResult(ctx context.Context, userID int64, xp int64, won bool) (Reward, error)
}

const (
	xpWin  = 100
	xpLoss = 25
)

type command struct {
	fn    func() error
	reply chan error
}

// Room is one isolated game. All mutation happens on the room's own
// goroutine, fed by the command queue: player actions, timer expiries and
// membership changes are serialized there, so a timeout can never race a
// just-submitted action into a double advance.
type Room struct {
	Code     string
	Settings Settings

	hostID      string
	phase       Phase
	players     []*Player // seat order; entries survive mid-game leavers
	dayNumber   int
	currentTurn string // player id, empty outside night/day

	nightActions []nightAction
	votes        map[string]string // voterID -> targetID or "skip"

	timerGen     uint64
	timerPurpose timerPurpose
	stopTimer    func() bool

	notify  Notifier
	stats   Recorder
	log     zerolog.Logger
	onEmpty func(code string)

	commands chan command
	done     chan struct{}
}

func newRoom(code string, settings Settings, notify Notifier, stats Recorder, logger zerolog.Logger, onEmpty func(string)) *Room {
	return &Room{
		Code:     code,
		Settings: settings,
		phase:    PhaseLobby,
		votes:    make(map[string]string),
		notify:   notify,
		stats:    stats,
		log:      logger.With().Str("room", code).Logger(),
		onEmpty:  onEmpty,
		commands: make(chan command, 64),
		done:     make(chan struct{}),
	}
}

func (r *Room) run() {
	for {
		select {
		case <-r.done:
			return
		case cmd := <-r.commands:
			err := r.safely(cmd.fn)
			if cmd.reply != nil {
				cmd.reply <- err
			}
		}
	}
}

// safely keeps a panicking handler from stalling the room forever.
func (r *Room) safely(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Any("panic", rec).Msg("recovered in room loop")
			err = ErrInvalidTarget
		}
	}()
	return fn()
}

// do runs fn on the room goroutine and waits for its result. A destroyed
// room reports itself as gone.
func (r *Room) do(fn func() error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case r.commands <- cmd:
	case <-r.done:
		return ErrRoomNotFound
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-r.done:
		return ErrRoomNotFound
	}
}

// post is the fire-and-forget flavor of do, used by timer callbacks.
func (r *Room) post(fn func()) {
	cmd := command{fn: func() error { fn(); return nil }}
	select {
	case r.commands <- cmd:
	case <-r.done:
	}
}

func (r *Room) destroy() {
	r.cancelTimer()
	close(r.done)
	if r.onEmpty != nil {
		r.onEmpty(r.Code)
	}
	r.log.Info().Msg("room destroyed")
}

func (r *Room) playerByID(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) seated() []*Player {
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if !p.Left {
			out = append(out, p)
		}
	}
	return out
}

// roster is the anonymized player list safe to broadcast: identity and
// aliveness, never roles.
func (r *Room) roster() []map[string]any {
	out := make([]map[string]any, 0, len(r.players))
	for _, p := range r.players {
		if p.Left {
			continue
		}
		out = append(out, map[string]any{
			"id":     p.ID,
			"name":   p.Name,
			"number": p.Number,
			"alive":  p.Alive,
			"ready":  p.Ready,
		})
	}
	return out
}

func playerRef(p *Player) any {
	if p == nil {
		return nil
	}
	return map[string]any{"id": p.ID, "name": p.Name}
}

func (r *Room) emitError(playerID string, err error) {
	r.notify.ToPlayer(playerID, "error", map[string]any{
		"code":    ErrorCode(err),
		"message": err.Error(),
	})
}

// ---- membership ----

func (r *Room) join(id, name string, userID int64) error {
	if r.phase != PhaseLobby {
		return ErrGameInProgress
	}
	if len(r.players) >= r.Settings.MaxPlayers {
		return ErrRoomFull
	}
	r.players = append(r.players, &Player{ID: id, Name: name, UserID: userID, Alive: true})
	if r.hostID == "" {
		r.hostID = id
	}
	r.log.Info().Str("playerId", id).Str("name", name).Msg("player joined")
	r.notify.Broadcast(r.Code, "player:list", r.roster())
	return nil
}

func (r *Room) leave(id string) {
	p := r.playerByID(id)
	if p == nil || p.Left {
		return
	}
	r.log.Info().Str("playerId", id).Str("phase", string(r.phase)).Msg("player left")

	if r.phase == PhaseLobby || r.phase == PhaseGameOver {
		for i, seat := range r.players {
			if seat.ID == id {
				r.players = append(r.players[:i], r.players[i+1:]...)
				break
			}
		}
	} else {
		// the seat number is never reused mid-game, so the entry stays
		wasTurn := r.currentTurn == id
		p.Left = true
		p.Alive = false
		p.Ready = true
		if wasTurn {
			r.advanceTurn()
		} else if r.phase == PhaseRoleReveal {
			r.checkAllReady()
		}
	}

	if len(r.seated()) == 0 {
		r.destroy()
		return
	}

	if r.hostID == id {
		next := r.seated()[0]
		r.hostID = next.ID
		r.notify.ToPlayer(next.ID, "host:assigned", map[string]any{})
	}
	r.notify.Broadcast(r.Code, "player:list", r.roster())

	if r.phase == PhaseNight || r.phase == PhaseDay {
		if w := EvaluateWin(r.players); w != WinnerNone {
			r.endGame(w)
		}
	}
}

func (r *Room) updateSettings(id string, s Settings) error {
	if id != r.hostID {
		return ErrNotHost
	}
	if r.phase != PhaseLobby {
		return ErrGameInProgress
	}
	if s.MaxPlayers < 4 {
		s.MaxPlayers = DefaultSettings().MaxPlayers
	}
	if s.Mode != ModeCustom {
		s.Mode = ModeClassic
	}
	if s.MafiaCount < 0 {
		s.MafiaCount = 0
	}
	if s.DoctorCount < 0 {
		s.DoctorCount = 0
	}
	if s.DetectiveCount < 0 {
		s.DetectiveCount = 0
	}
	r.Settings = s
	r.notify.Broadcast(r.Code, "settings:updated", s)
	return nil
}

// ---- game lifecycle ----

func (r *Room) start(id string) error {
	if id != r.hostID {
		return ErrNotHost
	}
	if r.phase != PhaseLobby {
		return ErrGameInProgress
	}
	if len(r.players) < 4 {
		return ErrInsufficientPlayers
	}
	r.assignRoles()
	r.phase = PhaseRoleReveal
	r.dayNumber = 0
	for _, p := range r.players {
		payload := map[string]any{"role": p.Role}
		if p.Role == RoleMafia {
			payload["teammates"] = r.mafiaTeammates(p)
		}
		r.notify.ToPlayer(p.ID, "role:assigned", payload)
	}
	r.log.Info().Int("players", len(r.players)).Str("mode", string(r.Settings.Mode)).Msg("game started")
	r.notify.Broadcast(r.Code, "game:started", map[string]any{
		"players": r.roster(),
		"phase":   r.phase,
	})
	return nil
}

func (r *Room) ready(id string) error {
	if r.phase != PhaseRoleReveal {
		return nil // stale acknowledgement, drop it
	}
	p := r.playerByID(id)
	if p == nil || p.Left {
		return nil
	}
	p.Ready = true
	readyCount := 0
	seated := r.seated()
	for _, s := range seated {
		if s.Ready {
			readyCount++
		}
	}
	r.notify.Broadcast(r.Code, "player:readyUpdate", map[string]any{
		"playerId":   id,
		"readyCount": readyCount,
		"totalCount": len(seated),
	})
	r.checkAllReady()
	return nil
}

func (r *Room) checkAllReady() {
	if r.phase != PhaseRoleReveal {
		return
	}
	for _, p := range r.seated() {
		if !p.Ready {
			return
		}
	}
	r.startNight()
}

func (r *Room) endGame(w Winner) {
	r.phase = PhaseGameOver
	r.currentTurn = ""
	r.cancelTimer()

	reveal := make([]map[string]any, 0, len(r.players))
	for _, p := range r.players {
		if p.Left {
			continue
		}
		reveal = append(reveal, map[string]any{
			"id":     p.ID,
			"name":   p.Name,
			"number": p.Number,
			"role":   p.Role,
			"alive":  p.Alive,
		})
	}
	r.log.Info().Str("winner", string(w)).Msg("game over")
	r.notify.Broadcast(r.Code, "game:over", map[string]any{
		"winner":  w,
		"players": reveal,
	})

	if r.stats == nil {
		return
	}
	type result struct {
		playerID string
		userID   int64
		won      bool
	}
	results := make([]result, 0, len(r.players))
	for _, p := range r.players {
		if p.Left || p.UserID == 0 {
			continue
		}
		won := (p.Role == RoleMafia) == (w == WinnerMafia)
		results = append(results, result{playerID: p.ID, userID: p.UserID, won: won})
	}
	// fire and forget: one player's stats failure never blocks the room
	go func() {
		for _, res := range results {
			xp := int64(xpLoss)
			if res.won {
				xp = xpWin
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			reward, err := r.stats.RecordGameResult(ctx, res.userID, xp, res.won)
			cancel()
			if err != nil {
				r.log.Error().Err(err).Int64("userId", res.userID).Msg("stats update failed")
				continue
			}
			r.notify.ToPlayer(res.playerID, "xp:earned", reward)
		}
	}()
}

func (r *Room) playAgain(id string) error {
	if id != r.hostID {
		return ErrNotHost
	}
	if r.phase != PhaseGameOver {
		return ErrGameInProgress
	}
	r.players = r.seated()
	for _, p := range r.players {
		p.Number = 0
		p.Role = ""
		p.OriginalRole = ""
		p.Alive = true
		p.Lynched = false
		p.UsedSpecialAction = false
		p.Ready = false
	}
	r.phase = PhaseLobby
	r.dayNumber = 0
	r.currentTurn = ""
	r.nightActions = nil
	r.votes = make(map[string]string)
	r.log.Info().Msg("game reset")
	r.notify.Broadcast(r.Code, "game:reset", map[string]any{
		"players":  r.roster(),
		"settings": r.Settings,
	})
	return nil
}

// ---- serialized public API (what the transport calls) ----

func (r *Room) Join(id, name string, userID int64) error {
	return r.do(func() error { return r.join(id, name, userID) })
}

func (r *Room) Leave(id string) {
	_ = r.do(func() error { r.leave(id); return nil })
}

func (r *Room) UpdateSettings(id string, s Settings) error {
	return r.do(func() error { return r.updateSettings(id, s) })
}

func (r *Room) Start(id string) error {
	return r.do(func() error { return r.start(id) })
}

func (r *Room) Ready(id string) error {
	return r.do(func() error { return r.ready(id) })
}

func (r *Room) NightAction(id, targetID string) error {
	return r.do(func() error { return r.submitNightAction(id, targetID) })
}

func (r *Room) NightSkip(id string) error {
	return r.do(func() error { return r.submitNightSkip(id) })
}

func (r *Room) DayVote(id, targetID string) error {
	return r.do(func() error { return r.submitDayVote(id, targetID) })
}

func (r *Room) DaySkipVote(id string) error {
	return r.do(func() error { return r.submitDaySkip(id) })
}

func (r *Room) PlayAgain(id string) error {
	return r.do(func() error { return r.playAgain(id) })
}

// Info is a point-in-time copy safe to hand outside the room goroutine.
type Info struct {
	Code       string   `json:"code"`
	HostName   string   `json:"hostName"`
	Players    int      `json:"players"`
	MaxPlayers int      `json:"maxPlayers"`
	Phase      Phase    `json:"phase"`
	Public     bool     `json:"public"`
	Settings   Settings `json:"settings"`
}

func (r *Room) Snapshot() (Info, error) {
	var info Info
	err := r.do(func() error {
		hostName := ""
		if h := r.playerByID(r.hostID); h != nil {
			hostName = h.Name
		}
		info = Info{
			Code:       r.Code,
			HostName:   hostName,
			Players:    len(r.seated()),
			MaxPlayers: r.Settings.MaxPlayers,
			Phase:      r.phase,
			Public:     r.Settings.Public,
			Settings:   r.Settings,
		}
		return nil
	})
	return info, err
}

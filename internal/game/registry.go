package game

import (
	"math/rand"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// codeAlphabet avoids the lookalikes (I, O, 0, 1) so codes survive being
// read out loud.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// Registry owns the set of live rooms. Its lock guards only the table
// itself; gameplay mutation belongs to each room's own goroutine.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	notify Notifier
	stats  Recorder
	log    zerolog.Logger
}

func NewRegistry(notify Notifier, stats Recorder, logger zerolog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		notify: notify,
		stats:  stats,
		log:    logger,
	}
}

// Create makes a room with the caller as host and starts its goroutine.
func (g *Registry) Create(hostID, hostName string, userID int64, settings Settings) (*Room, error) {
	if settings.MaxPlayers < 4 {
		settings.MaxPlayers = DefaultSettings().MaxPlayers
	}
	if settings.Mode != ModeCustom {
		settings.Mode = ModeClassic
	}

	g.mu.Lock()
	code := randomCode(codeLength)
	for g.rooms[code] != nil {
		code = randomCode(codeLength)
	}
	r := newRoom(code, settings, g.notify, g.stats, g.log, g.remove)
	g.rooms[code] = r
	g.mu.Unlock()

	go r.run()
	if err := r.Join(hostID, hostName, userID); err != nil {
		return nil, err
	}
	g.log.Info().Str("room", code).Str("host", hostName).Msg("room created")
	return r, nil
}

func (g *Registry) Get(code string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r := g.rooms[strings.ToUpper(code)]
	if r == nil {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// remove is the room's onEmpty hook, called from the room goroutine after
// its last player leaves.
func (g *Registry) remove(code string) {
	g.mu.Lock()
	delete(g.rooms, code)
	g.mu.Unlock()
}

// PublicRooms lists joinable public lobbies for discovery.
func (g *Registry) PublicRooms() []Info {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, r := range g.rooms {
		rooms = append(rooms, r)
	}
	g.mu.RUnlock()

	out := make([]Info, 0, len(rooms))
	for _, r := range rooms {
		info, err := r.Snapshot()
		if err != nil {
			continue // destroyed between listing and snapshot
		}
		if info.Public && info.Phase == PhaseLobby {
			out = append(out, info)
		}
	}
	return out
}

func randomCode(n int) string {
	letters := []rune(codeAlphabet)
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

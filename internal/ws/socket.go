package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/velasin/mafia-night/internal/game"
)

// ConnCtx is what we remember about a connection: which room it sits in and
// which account (if any) it authenticated as.
type ConnCtx struct {
	Code   string
	UserID int64
}

// TokenVerifier resolves an optional auth token into an account id. Sockets
// without a valid token play anonymously.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

type Server struct {
	registry *game.Registry
	verifier TokenVerifier

	mu    sync.RWMutex
	io    *socketio.Server
	conns map[string]socketio.Conn // socket id -> conn
}

func New(verifier TokenVerifier) *Server {
	return &Server{
		verifier: verifier,
		conns:    make(map[string]socketio.Conn),
	}
}

// SetRegistry breaks the construction cycle: the registry needs this server
// as its Notifier, and this server needs the registry to route events.
func (srv *Server) SetRegistry(reg *game.Registry) { srv.registry = reg }

// Broadcast implements game.Notifier over socket.io rooms.
func (srv *Server) Broadcast(code string, event string, payload any) {
	srv.mu.RLock()
	io := srv.io
	srv.mu.RUnlock()
	if io != nil {
		io.BroadcastToRoom("/", code, event, payload)
	}
}

// ToPlayer implements the private half of game.Notifier.
func (srv *Server) ToPlayer(playerID string, event string, payload any) {
	srv.mu.RLock()
	c := srv.conns[playerID]
	srv.mu.RUnlock()
	if c != nil {
		c.Emit(event, payload)
	}
}

func (srv *Server) userID(token string) int64 {
	if token == "" || srv.verifier == nil {
		return 0
	}
	id, err := srv.verifier.Verify(token)
	if err != nil {
		return 0
	}
	return id
}

func (srv *Server) room(s socketio.Conn) (*game.Room, error) {
	ctx, _ := s.Context().(*ConnCtx)
	if ctx == nil || ctx.Code == "" {
		return nil, game.ErrRoomNotFound
	}
	return srv.registry.Get(ctx.Code)
}

// Mount attaches the socket.io endpoint with all game handlers to the gin
// engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.mu.Lock()
	srv.io = io
	srv.mu.Unlock()

	io.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext(&ConnCtx{})
		srv.mu.Lock()
		srv.conns[s.ID()] = s
		srv.mu.Unlock()
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "room:create", func(s socketio.Conn, payload struct {
		PlayerName string        `json:"playerName"`
		Settings   game.Settings `json:"settings"`
		Token      string        `json:"token"`
	}) map[string]any {
		userID := srv.userID(payload.Token)
		room, err := srv.registry.Create(s.ID(), payload.PlayerName, userID, payload.Settings)
		if err != nil {
			return srv.err(s, err)
		}
		s.SetContext(&ConnCtx{Code: room.Code, UserID: userID})
		s.Join(room.Code)
		log.Info().Str("sid", s.ID()).Str("code", room.Code).Msg("room:create")
		info, _ := room.Snapshot()
		s.Emit("room:created", map[string]any{"roomCode": room.Code, "settings": info.Settings})
		return map[string]any{"roomCode": room.Code}
	})

	io.OnEvent("/", "room:join", func(s socketio.Conn, payload struct {
		RoomCode   string `json:"roomCode"`
		PlayerName string `json:"playerName"`
		Token      string `json:"token"`
	}) map[string]any {
		room, err := srv.registry.Get(payload.RoomCode)
		if err != nil {
			return srv.err(s, err)
		}
		userID := srv.userID(payload.Token)
		if err := room.Join(s.ID(), payload.PlayerName, userID); err != nil {
			return srv.err(s, err)
		}
		s.SetContext(&ConnCtx{Code: room.Code, UserID: userID})
		s.Join(room.Code)
		log.Info().Str("sid", s.ID()).Str("code", room.Code).Msg("room:join")
		info, _ := room.Snapshot()
		s.Emit("room:joined", map[string]any{"roomCode": room.Code, "settings": info.Settings})
		return map[string]any{"roomCode": room.Code}
	})

	io.OnEvent("/", "room:leave", func(s socketio.Conn) map[string]any {
		if room, err := srv.room(s); err == nil {
			room.Leave(s.ID())
			s.Leave(room.Code)
		}
		s.SetContext(&ConnCtx{})
		s.Emit("room:left", map[string]any{})
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "room:updateSettings", func(s socketio.Conn, payload struct {
		Settings game.Settings `json:"settings"`
	}) map[string]any {
		room, err := srv.room(s)
		if err != nil {
			return srv.err(s, err)
		}
		if err := room.UpdateSettings(s.ID(), payload.Settings); err != nil {
			return srv.err(s, err)
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "game:start", func(s socketio.Conn) map[string]any {
		room, err := srv.room(s)
		if err != nil {
			return srv.err(s, err)
		}
		if err := room.Start(s.ID()); err != nil {
			return srv.err(s, err)
		}
		log.Info().Str("code", room.Code).Msg("game:start")
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "player:ready", func(s socketio.Conn) map[string]any {
		room, err := srv.room(s)
		if err != nil {
			return srv.err(s, err)
		}
		if err := room.Ready(s.ID()); err != nil {
			return srv.err(s, err)
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "night:action", func(s socketio.Conn, payload struct {
		TargetID string `json:"targetId"`
	}) map[string]any {
		room, err := srv.room(s)
		if err != nil {
			return srv.err(s, err)
		}
		if err := room.NightAction(s.ID(), payload.TargetID); err != nil {
			return srv.err(s, err)
		}
		return map[string]any{"targetId": payload.TargetID}
	})

	io.OnEvent("/", "night:skip", func(s socketio.Conn) map[string]any {
		room, err := srv.room(s)
		if err != nil {
			return srv.err(s, err)
		}
		if err := room.NightSkip(s.ID()); err != nil {
			return srv.err(s, err)
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "day:vote", func(s socketio.Conn, payload struct {
		TargetID string `json:"targetId"`
	}) map[string]any {
		room, err := srv.room(s)
		if err != nil {
			return srv.err(s, err)
		}
		if err := room.DayVote(s.ID(), payload.TargetID); err != nil {
			return srv.err(s, err)
		}
		return map[string]any{"targetId": payload.TargetID}
	})

	io.OnEvent("/", "day:skipVote", func(s socketio.Conn) map[string]any {
		room, err := srv.room(s)
		if err != nil {
			return srv.err(s, err)
		}
		if err := room.DaySkipVote(s.ID()); err != nil {
			return srv.err(s, err)
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", "game:playAgain", func(s socketio.Conn) map[string]any {
		room, err := srv.room(s)
		if err != nil {
			return srv.err(s, err)
		}
		if err := room.PlayAgain(s.ID()); err != nil {
			return srv.err(s, err)
		}
		log.Info().Str("code", room.Code).Msg("game:playAgain")
		return map[string]any{"ok": true}
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if ctx, ok := s.Context().(*ConnCtx); ok && ctx.Code != "" {
			if room, err := srv.registry.Get(ctx.Code); err == nil {
				room.Leave(s.ID())
			}
		}
		srv.mu.Lock()
		delete(srv.conns, s.ID())
		srv.mu.Unlock()
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) err(s socketio.Conn, err error) map[string]any {
	s.Emit("error", map[string]any{"code": game.ErrorCode(err), "message": err.Error()})
	return map[string]any{"error": err.Error()}
}

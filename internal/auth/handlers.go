package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/velasin/mafia-night/internal/stats"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 20
	minPasswordLen = 6
)

// Service exposes the account REST endpoints: register, login and the
// per-account stats lookup.
type Service struct {
	store  *stats.Store
	tokens *Manager
	hasher *Hasher
}

func NewService(store *stats.Store, tokens *Manager) *Service {
	return &Service{store: store, tokens: tokens, hasher: NewHasher()}
}

// Tokens returns the token manager so the socket layer can verify tokens.
func (s *Service) Tokens() *Manager { return s.tokens }

func (s *Service) Routes(r *gin.Engine) {
	r.POST("/api/auth/register", s.register)
	r.POST("/api/auth/login", s.login)
	r.GET("/api/stats", s.playerStats)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Service) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if len(req.Username) < minUsernameLen || len(req.Username) > maxUsernameLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 3-20 characters"})
		return
	}
	if len(req.Password) < minPasswordLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
		return
	}

	id, err := s.store.CreateUser(c.Request.Context(), req.Username, s.hasher.Hash(req.Password))
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}
	log.Info().Str("username", req.Username).Msg("account registered")

	c.JSON(http.StatusCreated, gin.H{
		"token":    s.tokens.Generate(id, req.Username),
		"username": req.Username,
	})
}

func (s *Service) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	u, err := s.store.UserByUsername(c.Request.Context(), strings.TrimSpace(req.Username))
	if err != nil || !s.hasher.Compare(u.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}

	ps, err := s.store.Stats(c.Request.Context(), u.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    s.tokens.Generate(u.ID, u.Username),
		"username": u.Username,
		"stats":    ps,
	})
}

func (s *Service) playerStats(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	userID, err := s.tokens.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	ps, err := s.store.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no stats for account"})
		return
	}
	c.JSON(http.StatusOK, ps)
}

package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

const tokenTTL = 30 * 24 * time.Hour

type customClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Manager issues and verifies the signed tokens that bind sockets and REST
// calls to an account.
type Manager struct {
	secretKey []byte
}

func NewManager(secretKey string) *Manager {
	return &Manager{secretKey: []byte(secretKey)}
}

func (m *Manager) Generate(userID int64, username string) string {
	now := time.Now()
	claims := customClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString(m.secretKey)
	return signed
}

// Verify returns the account id a token was issued for.
func (m *Manager) Verify(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &customClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secretKey, nil
	})
	if err != nil {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(*customClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return userID, nil
}

// Hasher wraps argon2id with fixed difficulty parameters.
type Hasher struct {
	params *argon2id.Params
}

func NewHasher() *Hasher {
	return &Hasher{params: &argon2id.Params{
		Memory:      64 * 1024,
		Iterations:  2,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}}
}

func (h *Hasher) Hash(password string) string {
	hash, _ := argon2id.CreateHash(password, h.params)
	return hash
}

func (h *Hasher) Compare(hash, password string) bool {
	match, _ := argon2id.ComparePasswordAndHash(password, hash)
	return match
}

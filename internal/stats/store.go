package stats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	_ "modernc.org/sqlite"

	"github.com/velasin/mafia-night/internal/game"
)

var ErrUserNotFound = errors.New("user not found")

// xpPerLevel feeds the level curve: level = floor(sqrt(xp/100)) + 1.
const xpPerLevel = 100

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS stats (
	user_id      INTEGER PRIMARY KEY REFERENCES users(id),
	xp           INTEGER NOT NULL DEFAULT 0,
	level        INTEGER NOT NULL DEFAULT 1,
	games_played INTEGER NOT NULL DEFAULT 0,
	wins         INTEGER NOT NULL DEFAULT 0
);
`

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

type PlayerStats struct {
	XP          int64 `json:"xp"`
	Level       int64 `json:"level"`
	GamesPlayed int64 `json:"gamesPlayed"`
	Wins        int64 `json:"wins"`
}

// Store persists accounts and lifetime game stats in a sqlite database.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// sqlite serializes writers anyway; a single connection avoids
	// SQLITE_BUSY under concurrent room goroutines.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash) VALUES (?, ?)`, username, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO stats (user_id) VALUES (?)`, id); err != nil {
		return 0, fmt.Errorf("seeding stats: %w", err)
	}
	return id, nil
}

func (s *Store) UserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

func (s *Store) Stats(ctx context.Context, userID int64) (PlayerStats, error) {
	var ps PlayerStats
	err := s.db.QueryRowContext(ctx,
		`SELECT xp, level, games_played, wins FROM stats WHERE user_id = ?`, userID).
		Scan(&ps.XP, &ps.Level, &ps.GamesPlayed, &ps.Wins)
	if errors.Is(err, sql.ErrNoRows) {
		return PlayerStats{}, ErrUserNotFound
	}
	if err != nil {
		return PlayerStats{}, fmt.Errorf("querying stats: %w", err)
	}
	return ps, nil
}

// RecordGameResult implements game.Recorder. It credits the earned xp,
// recomputes the level and bumps the played/won counters in one transaction.
func (s *Store) RecordGameResult(ctx context.Context, userID, xp int64, won bool) (game.Reward, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return game.Reward{}, fmt.Errorf("starting tx: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx, `SELECT xp FROM stats WHERE user_id = ?`, userID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Reward{}, ErrUserNotFound
	}
	if err != nil {
		return game.Reward{}, fmt.Errorf("reading xp: %w", err)
	}

	newXP := current + xp
	newLevel := LevelForXP(newXP)
	winInc := int64(0)
	if won {
		winInc = 1
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE stats SET xp = ?, level = ?, games_played = games_played + 1, wins = wins + ? WHERE user_id = ?`,
		newXP, newLevel, winInc, userID); err != nil {
		return game.Reward{}, fmt.Errorf("updating stats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return game.Reward{}, fmt.Errorf("committing: %w", err)
	}
	return game.Reward{XPEarned: xp, NewXP: newXP, NewLevel: newLevel}, nil
}

func LevelForXP(xp int64) int64 {
	if xp <= 0 {
		return 1
	}
	return int64(math.Sqrt(float64(xp)/xpPerLevel)) + 1
}

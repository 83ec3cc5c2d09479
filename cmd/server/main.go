package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"

	"github.com/velasin/mafia-night/internal/auth"
	"github.com/velasin/mafia-night/internal/config"
	"github.com/velasin/mafia-night/internal/game"
	"github.com/velasin/mafia-night/internal/stats"
	"github.com/velasin/mafia-night/internal/ws"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`Mafia Night - Real-time social deduction party game

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT        Port to listen on (default: 8080)
  DB_PATH     Path to the sqlite database (default: mafia.db)
  JWT_SECRET  Secret for signing account tokens
  LOG_LEVEL   Log level: debug, info, warn, error (default: info)
  GIN_MODE    Gin mode: debug or release (default: release)

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("Mafia Night %s\n", version)
		return
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	port := *portFlag
	if port == "" {
		port = strconv.Itoa(cfg.Port)
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	// Healthcheck
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	// Persistence + accounts
	store, err := stats.Open(cfg.DBPath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	accounts := auth.NewService(store, auth.NewManager(cfg.JWTSecret))
	accounts.Routes(r)

	// Socket server + room registry
	sock := ws.New(accounts.Tokens())
	registry := game.NewRegistry(sock, store, zerologlog.Logger)
	sock.SetRegistry(registry)
	io := sock.Mount(r)
	defer io.Close()

	// Public room discovery
	r.GET("/api/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": registry.PublicRooms()})
	})

	log.Printf("listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

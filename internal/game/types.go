package game

type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseRoleReveal Phase = "roleReveal"
	PhaseNight      Phase = "night"
	PhaseDay        Phase = "day"
	PhaseGameOver   Phase = "gameOver"
)

type Role string

const (
	RoleMafia         Role = "mafia"
	RoleDoctor        Role = "doctor"
	RoleDetective     Role = "detective"
	RoleCitizen       Role = "citizen"
	RoleGuardianAngel Role = "guardian_angel" // custom mode only
	RoleJoker         Role = "joker"          // custom mode only
)

type Mode string

const (
	ModeClassic Mode = "classic"
	ModeCustom  Mode = "custom"
)

// Settings are fixed for the duration of a game; the host may only change
// them while the room sits in the lobby.
type Settings struct {
	MaxPlayers     int  `json:"maxPlayers"`
	MafiaCount     int  `json:"mafiaCount"` // 0 = auto (floor(players/4))
	DoctorCount    int  `json:"doctorCount"`
	DetectiveCount int  `json:"detectiveCount"`
	DoctorSelfHeal bool `json:"doctorSelfHeal"`
	NightTimer     int  `json:"nightTimer"` // seconds per night turn, 0 disables
	DayTimer       int  `json:"dayTimer"`   // seconds per day turn, 0 disables
	Mode           Mode `json:"mode"`
	Public         bool `json:"public"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxPlayers:     20,
		MafiaCount:     0,
		DoctorCount:    1,
		DetectiveCount: 1,
		DoctorSelfHeal: true,
		NightTimer:     30,
		DayTimer:       60,
		Mode:           ModeClassic,
		Public:         false,
	}
}

type Player struct {
	ID     string `json:"id"` // transport session id
	Name   string `json:"name"`
	UserID int64  `json:"-"` // bound account, 0 if anonymous

	Number            int  `json:"number"` // 1..N seat, assigned at game start
	Role              Role `json:"-"`
	OriginalRole      Role `json:"-"` // role at deal time, mimicry keeps this stable
	Alive             bool `json:"alive"`
	Lynched           bool `json:"-"` // eliminated by day vote (ineligible for revival)
	UsedSpecialAction bool `json:"-"`
	Ready             bool `json:"ready"`
	Left              bool `json:"-"` // seat abandoned mid-game, kept so numbers are never reused
}

type nightAction struct {
	actorID  string
	role     Role
	targetID string
	skip     bool
}

const skipVote = "skip"

// Winner is the outcome of a win evaluation.
type Winner string

const (
	WinnerNone  Winner = ""
	WinnerTown  Winner = "town"
	WinnerMafia Winner = "mafia"
)

// Notifier carries engine notifications to whatever transport hosts the room.
// Emits must not block; the engine calls them from the room's own goroutine.
type Notifier interface {
	Broadcast(roomCode string, event string, payload any)
	ToPlayer(playerID string, event string, payload any)
}

// Reward is what the stats collaborator hands back per player at game over.
type Reward struct {
	XPEarned int64 `json:"xpEarned"`
	NewXP    int64 `json:"newXp"`
	NewLevel int64 `json:"newLevel"`
}

package game

import "errors"

// Player-local failures. None of these mutate room state; the transport
// surfaces them to the offending session only.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room is full")
	ErrGameInProgress      = errors.New("game already in progress")
	ErrNotHost             = errors.New("only the host can do that")
	ErrInsufficientPlayers = errors.New("need at least 4 players to start")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrInvalidTarget       = errors.New("invalid target")
	ErrSpecialActionUsed   = errors.New("special action already used")
	ErrAbilityNotAvailable = errors.New("ability not yet available")
)

// ErrorCode maps an engine error to the machine-readable code sent over the
// wire. Unknown errors collapse to bad_request.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrGameInProgress):
		return "game_in_progress"
	case errors.Is(err, ErrNotHost):
		return "not_host"
	case errors.Is(err, ErrInsufficientPlayers):
		return "insufficient_players"
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrInvalidTarget):
		return "invalid_target"
	case errors.Is(err, ErrSpecialActionUsed):
		return "special_action_used"
	case errors.Is(err, ErrAbilityNotAvailable):
		return "ability_not_available"
	default:
		return "bad_request"
	}
}

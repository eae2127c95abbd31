package game

import "errors"

// Invalid player input. The combat state is left untouched.
var (
	ErrInsufficientAP = errors.New("insufficient action points")
	ErrCardLocked     = errors.New("card is locked or encrypted")
	ErrInvalidTarget  = errors.New("invalid target")
	ErrCardNotInHand  = errors.New("card not in hand")
	ErrNotPlayerTurn  = errors.New("not the player's turn")
	ErrCombatOver     = errors.New("combat is over")
	ErrNoReward       = errors.New("no reward available")
)

// ErrTurnLimit stops Run when a combat exceeds Rules.MaxTurns.
var ErrTurnLimit = errors.New("turn limit reached")

// IsInvalidInput reports whether err is a rejected player input rather than
// a failure of the engine or a controller.
func IsInvalidInput(err error) bool {
	for _, target := range []error{
		ErrInsufficientAP, ErrCardLocked, ErrInvalidTarget,
		ErrCardNotInHand, ErrNotPlayerTurn, ErrCombatOver, ErrNoReward,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

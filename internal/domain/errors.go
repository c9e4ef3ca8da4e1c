package domain

import "errors"

// Validation errors
var (
	ErrInvalidName    = errors.New("invalid player name")
	ErrDuplicateName  = errors.New("player name already taken")
	ErrRosterFull     = errors.New("roster is full")
	ErrInvalidRequest = errors.New("invalid request")
)

// State errors
var (
	ErrCannotRemoveCreator = errors.New("cannot remove the game creator")
	ErrGameAlreadyActive   = errors.New("game already active")
	ErrNotEnoughPlayers    = errors.New("not enough players to start")
	ErrGameNotActive       = errors.New("game not active")
	ErrPowerUpNotHeld      = errors.New("power-up not held")
	ErrInvalidSelection    = errors.New("invalid trick selection")
	ErrDeckExhausted       = errors.New("deck exhausted")
	ErrPlayerNotFound      = errors.New("player not found")
	ErrGameNotFound        = errors.New("game not found")
)

// Persistence errors
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrInvalidSnapshot  = errors.New("invalid snapshot")
	ErrInternalError    = errors.New("internal server error")
)

// IsValidationError checks if an error was caused by bad caller input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrRosterFull) ||
		errors.Is(err, ErrInvalidSelection) ||
		errors.Is(err, ErrInvalidRequest)
}

// IsStateError checks if an error was caused by the current game state
func IsStateError(err error) bool {
	return errors.Is(err, ErrCannotRemoveCreator) ||
		errors.Is(err, ErrGameAlreadyActive) ||
		errors.Is(err, ErrNotEnoughPlayers) ||
		errors.Is(err, ErrGameNotActive) ||
		errors.Is(err, ErrPowerUpNotHeld) ||
		errors.Is(err, ErrDeckExhausted)
}

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrGameNotFound) ||
		errors.Is(err, ErrSnapshotNotFound)
}

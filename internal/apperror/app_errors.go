package apperror

import (
	"errors"
	"fmt"
)

// Error kinds. Every concrete error below wraps exactly one of them.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
	ErrNotYourTurn     = errors.New("it's not your turn")
)

var (
	ErrGameNotFound   = fmt.Errorf("game %w", ErrNotFound)
	ErrPlayerNotFound = fmt.Errorf("player %w", ErrNotFound)

	ErrGameNameTooLong = fmt.Errorf("%w: game name is too long", ErrInvalidArgument)
	ErrInvalidName     = fmt.Errorf("%w: name is required and must be at most 50 characters", ErrInvalidArgument)
	ErrInvalidEmail    = fmt.Errorf("%w: invalid email", ErrInvalidArgument)
	ErrEmailTooLong    = fmt.Errorf("%w: email is too long", ErrInvalidArgument)
	ErrInvalidMoves    = fmt.Errorf("%w: moves must be a non-negative integer", ErrInvalidArgument)
	ErrInvalidOutcome  = fmt.Errorf("%w: unknown game outcome", ErrInvalidArgument)
	ErrOutOfBounds     = fmt.Errorf("%w: cell coordinates are out of bounds", ErrInvalidArgument)

	ErrGameNotWaiting  = fmt.Errorf("%w: game is in progress, not accepting new players", ErrInvalidState)
	ErrGameNotActive   = fmt.Errorf("%w: game is not active", ErrInvalidState)
	ErrGameIsActive    = fmt.Errorf("%w: cannot delete an active game", ErrInvalidState)
	ErrPlayerNotInGame = fmt.Errorf("%w: player not found in this game", ErrInvalidState)

	ErrGameFull            = fmt.Errorf("%w: game is full", ErrConflict)
	ErrPlayerAlreadyInGame = fmt.Errorf("%w: player already in the game", ErrConflict)
	ErrEmailAlreadyInGame  = fmt.Errorf("%w: another player with the same email is already in this game", ErrConflict)
	ErrEmailInUse          = fmt.Errorf("%w: email already in use", ErrConflict)
	ErrPlayerInActiveGame  = fmt.Errorf("%w: player is already in another active game", ErrConflict)
	ErrPlayerIsPlaying     = fmt.Errorf("%w: player is seated in an unfinished game", ErrConflict)
	ErrCellOccupied        = fmt.Errorf("%w: cell is already occupied", ErrConflict)
)

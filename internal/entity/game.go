package entity

import (
	"strings"
	"time"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

type (
	Status string
	Result string
	Marker int
)

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"

	ResultWin  Result = "win"
	ResultDraw Result = "draw"

	EmptyCell    Marker = 0
	MarkerFirst  Marker = 1
	MarkerSecond Marker = 2
)

const (
	BoardSize         = 3
	MaxPlayersPerGame = 2
)

// Board is an N×N grid of markers; EmptyCell marks a free cell.
type Board [][]Marker

func NewBoard(size int) Board {
	board := make(Board, size)
	for i := range board {
		board[i] = make([]Marker, size)
	}

	return board
}

// GamePlayer is the per-game snapshot of a registered player. Only here does a player carry a marker.
type GamePlayer struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Marker Marker `json:"marker"`
}

type Move struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	PlayerID  string    `json:"player_id"`
	Row       int       `json:"row"`
	Col       int       `json:"col"`
	Timestamp time.Time `json:"timestamp"`
}

type Game struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Board           Board        `json:"board"`
	Status          Status       `json:"status"`
	Result          Result       `json:"result,omitempty"`
	Players         []GamePlayer `json:"players"`
	CurrentPlayerID string       `json:"current_player_id,omitempty"`
	WinnerID        string       `json:"winner_id,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	Moves           []Move       `json:"moves"`
}

// NewGame returns an empty waiting game. The name must already be normalized.
func NewGame(id, name string, size int, now time.Time) *Game {
	return &Game{
		ID:        id,
		Name:      name,
		Board:     NewBoard(size),
		Status:    StatusWaiting,
		Players:   []GamePlayer{},
		CreatedAt: now,
		UpdatedAt: now,
		Moves:     []Move{},
	}
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Game) IsCompleted() bool {
	return that.Status == StatusCompleted
}

func (that *Game) IsFull() bool {
	return len(that.Players) >= MaxPlayersPerGame
}

func (that *Game) Size() int {
	return len(that.Board)
}

func (that *Game) PlayerByID(playerID string) (GamePlayer, bool) {
	for _, player := range that.Players {
		if player.ID == playerID {
			return player, true
		}
	}

	return GamePlayer{}, false
}

func (that *Game) HasPlayer(playerID string) bool {
	_, ok := that.PlayerByID(playerID)
	return ok
}

// Opponent returns the other joined player.
func (that *Game) Opponent(playerID string) (GamePlayer, bool) {
	for _, player := range that.Players {
		if player.ID != playerID {
			return player, true
		}
	}

	return GamePlayer{}, false
}

// AddPlayer seats a registered player. The first joiner gets MarkerFirst; the second one
// gets MarkerSecond and starts the game with the first joiner to move.
func (that *Game) AddPlayer(player *Player, now time.Time) error {
	if that.IsFull() {
		return apperror.ErrGameFull
	}

	if !that.IsWaiting() {
		return apperror.ErrGameNotWaiting
	}

	for _, seated := range that.Players {
		if seated.ID == player.ID {
			return apperror.ErrPlayerAlreadyInGame
		}

		if strings.EqualFold(seated.Email, player.Email) {
			return apperror.ErrEmailAlreadyInGame
		}
	}

	marker := MarkerSecond
	if len(that.Players) == 0 {
		marker = MarkerFirst
	}

	that.Players = append(that.Players, GamePlayer{
		ID:     player.ID,
		Name:   player.Name,
		Email:  player.Email,
		Marker: marker,
	})

	if that.IsFull() {
		that.Status = StatusActive
		that.CurrentPlayerID = that.Players[0].ID
	}

	that.UpdatedAt = now

	return nil
}

func (that *Game) InBounds(row, col int) bool {
	size := that.Size()
	return row >= 0 && row < size && col >= 0 && col < size
}

// MakeMove places the mover's marker, records the move and settles the outcome.
// The game is left untouched when an error is returned.
func (that *Game) MakeMove(moveID, playerID string, row, col int, now time.Time) (Move, error) {
	if !that.IsActive() {
		return Move{}, apperror.ErrGameNotActive
	}

	if that.CurrentPlayerID != playerID {
		return Move{}, apperror.ErrNotYourTurn
	}

	if !that.InBounds(row, col) {
		return Move{}, apperror.ErrOutOfBounds
	}

	if that.Board[row][col] != EmptyCell {
		return Move{}, apperror.ErrCellOccupied
	}

	mover, ok := that.PlayerByID(playerID)
	if !ok {
		return Move{}, apperror.ErrPlayerNotInGame
	}

	that.Board[row][col] = mover.Marker

	move := Move{
		ID:        moveID,
		GameID:    that.ID,
		PlayerID:  mover.ID,
		Row:       row,
		Col:       col,
		Timestamp: now,
	}
	that.Moves = append(that.Moves, move)

	that.updateGameState(mover)
	that.UpdatedAt = now

	return move, nil
}

func (that *Game) updateGameState(mover GamePlayer) {
	switch that.DetermineOutcome(mover.Marker) {
	case ResultWin:
		that.Status = StatusCompleted
		that.Result = ResultWin
		that.WinnerID = mover.ID
		that.CurrentPlayerID = ""
	case ResultDraw:
		that.Status = StatusCompleted
		that.Result = ResultDraw
		that.WinnerID = ""
		that.CurrentPlayerID = ""
	default:
		next, ok := that.Opponent(mover.ID)
		if ok {
			that.CurrentPlayerID = next.ID
		}
	}
}

// DetermineOutcome checks the board for the marker that just moved. It returns an empty
// result while the game goes on.
func (that *Game) DetermineOutcome(marker Marker) Result {
	if that.HasCompleteLine(marker) {
		return ResultWin
	}

	if that.IsBoardFull() {
		return ResultDraw
	}

	return ""
}

// HasCompleteLine reports whether any row, column or diagonal is filled with marker.
func (that *Game) HasCompleteLine(marker Marker) bool {
	size := that.Size()
	if size == 0 || marker == EmptyCell {
		return false
	}

	lineOf := func(cell func(i int) Marker) bool {
		for i := range size {
			if cell(i) != marker {
				return false
			}
		}
		return true
	}

	for k := range size {
		if lineOf(func(i int) Marker { return that.Board[k][i] }) {
			return true
		}

		if lineOf(func(i int) Marker { return that.Board[i][k] }) {
			return true
		}
	}

	if lineOf(func(i int) Marker { return that.Board[i][i] }) {
		return true
	}

	return lineOf(func(i int) Marker { return that.Board[i][size-1-i] })
}

func (that *Game) IsBoardFull() bool {
	for _, row := range that.Board {
		for _, cell := range row {
			if cell == EmptyCell {
				return false
			}
		}
	}

	return true
}

func (that *Game) FilledCells() int {
	filled := 0
	for _, row := range that.Board {
		for _, cell := range row {
			if cell != EmptyCell {
				filled++
			}
		}
	}

	return filled
}

// CountPlayerMoves counts the player's moves in this game's log.
func (that *Game) CountPlayerMoves(playerID string) int {
	count := 0
	for _, move := range that.Moves {
		if move.PlayerID == playerID {
			count++
		}
	}

	return count
}

// Clone returns a deep copy safe to hand out of a store.
func (that *Game) Clone() *Game {
	clone := *that

	clone.Board = make(Board, len(that.Board))
	for i, row := range that.Board {
		clone.Board[i] = append([]Marker(nil), row...)
	}

	clone.Players = append([]GamePlayer{}, that.Players...)
	clone.Moves = append([]Move{}, that.Moves...)

	return &clone
}

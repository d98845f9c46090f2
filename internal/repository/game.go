package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// AfterMove runs while the game is still locked, right after a move was applied.
// The game it receives is the stored one and must not be retained.
type AfterMove func(ctx context.Context, game *entity.Game) error

// GameRepository writes fail with the context's error once it is done; reads ignore it.
type GameRepository interface {
	Create(ctx context.Context, name string) (*entity.Game, error)
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetAll(ctx context.Context, status entity.Status) []*entity.Game
	GetActive(ctx context.Context) []*entity.Game
	Join(ctx context.Context, gameID string, player *entity.Player) (*entity.Game, error)
	Move(ctx context.Context, gameID, playerID string, row, col int, after ...AfterMove) (*entity.Game, error)
	Delete(ctx context.Context, gameID string) error
	CountPlayerMoves(game *entity.Game, playerID string) int

	Snapshot(ctx context.Context) []*entity.Game
	Restore(ctx context.Context, games []*entity.Game)
}

type gameRecord struct {
	mu      sync.Mutex
	game    *entity.Game
	deleted bool
}

type memGame struct {
	mu    sync.RWMutex
	games map[string]*gameRecord
	order []string

	clock      clockwork.Clock
	generateID func() string
	boardSize  int
}

func NewGameRepository(clock clockwork.Clock, generateID func() string) GameRepository {
	return &memGame{
		games:      make(map[string]*gameRecord),
		clock:      clock,
		generateID: generateID,
		boardSize:  entity.BoardSize,
	}
}

func (that *memGame) Create(ctx context.Context, name string) (*entity.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleanedName, err := entity.NormalizeGameName(name)
	if err != nil {
		return nil, err
	}

	game := entity.NewGame(that.generateID(), cleanedName, that.boardSize, that.clock.Now())

	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = &gameRecord{game: game}
	that.order = append(that.order, game.ID)

	return game.Clone(), nil
}

func (that *memGame) GetByID(_ context.Context, id string) (*entity.Game, error) {
	var game *entity.Game

	err := that.withGame(id, func(record *gameRecord) error {
		game = record.game.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return game, nil
}

// GetAll returns games in creation order. An empty status means no filter.
func (that *memGame) GetAll(_ context.Context, status entity.Status) []*entity.Game {
	that.mu.RLock()
	defer that.mu.RUnlock()

	games := make([]*entity.Game, 0, len(that.order))
	for _, id := range that.order {
		record := that.games[id]

		record.mu.Lock()
		if status == "" || record.game.Status == status {
			games = append(games, record.game.Clone())
		}
		record.mu.Unlock()
	}

	return games
}

func (that *memGame) GetActive(ctx context.Context) []*entity.Game {
	return that.GetAll(ctx, entity.StatusActive)
}

func (that *memGame) Join(ctx context.Context, gameID string, player *entity.Player) (*entity.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var game *entity.Game

	err := that.withGame(gameID, func(record *gameRecord) error {
		if err := record.game.AddPlayer(player, that.clock.Now()); err != nil {
			return err
		}

		game = record.game.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return game, nil
}

// Move applies the move and then every hook in order, all under the game's lock.
// A failing hook does not undo the move: the updated game is returned along with the error.
func (that *memGame) Move(ctx context.Context, gameID, playerID string, row, col int, after ...AfterMove) (*entity.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var game *entity.Game

	err := that.withGame(gameID, func(record *gameRecord) error {
		if _, err := record.game.MakeMove(that.generateID(), playerID, row, col, that.clock.Now()); err != nil {
			return err
		}

		game = record.game.Clone()

		for _, hook := range after {
			if err := hook(ctx, record.game); err != nil {
				return fmt.Errorf("after move hook failed: %w", err)
			}
		}

		return nil
	})

	return game, err
}

func (that *memGame) Delete(ctx context.Context, gameID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	record, ok := that.games[gameID]
	if !ok {
		return apperror.ErrGameNotFound
	}

	record.mu.Lock()
	defer record.mu.Unlock()

	if record.game.IsActive() {
		return apperror.ErrGameIsActive
	}

	record.deleted = true
	delete(that.games, gameID)

	for i, id := range that.order {
		if id == gameID {
			that.order = append(that.order[:i], that.order[i+1:]...)
			break
		}
	}

	return nil
}

func (that *memGame) CountPlayerMoves(game *entity.Game, playerID string) int {
	return game.CountPlayerMoves(playerID)
}

func (that *memGame) Snapshot(ctx context.Context) []*entity.Game {
	return that.GetAll(ctx, "")
}

// Restore replaces the whole collection. Games are kept in the given order.
func (that *memGame) Restore(_ context.Context, games []*entity.Game) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games = make(map[string]*gameRecord, len(games))
	that.order = make([]string, 0, len(games))

	for _, game := range games {
		if _, ok := that.games[game.ID]; ok {
			continue
		}

		that.games[game.ID] = &gameRecord{game: game.Clone()}
		that.order = append(that.order, game.ID)
	}
}

// withGame runs fn inside the game's critical section.
func (that *memGame) withGame(id string, fn func(record *gameRecord) error) error {
	that.mu.RLock()
	record, ok := that.games[id]
	that.mu.RUnlock()

	if !ok {
		return apperror.ErrGameNotFound
	}

	record.mu.Lock()
	defer record.mu.Unlock()

	if record.deleted {
		return apperror.ErrGameNotFound
	}

	return fn(record)
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
)

// GameUseCase is the operation surface of the engine. Transports map its errors to their
// own status codes with errors.Is against the apperror kinds.
type GameUseCase interface {
	CreateGame(ctx context.Context, name string) (*entity.Game, error)
	GetGame(ctx context.Context, gameID string) (*entity.Game, error)
	ListGames(ctx context.Context, status entity.Status) []*entity.Game
	AddPlayerToGame(ctx context.Context, gameID, playerID string) (*entity.Game, error)
	MakeMove(ctx context.Context, gameID, playerID string, row, col int) (*entity.Game, error)
	DeleteGame(ctx context.Context, gameID string) error

	CreatePlayer(ctx context.Context, name, email string) (*entity.Player, error)
	GetPlayer(ctx context.Context, playerID string) (*entity.Player, error)
	ListPlayers(ctx context.Context) []*entity.Player
	GetPlayerStats(ctx context.Context) []entity.PlayerStatsRecord
	UpdatePlayer(ctx context.Context, playerID string, name, email *string) (*entity.Player, error)
	DeletePlayer(ctx context.Context, playerID string) error

	Leaderboard(ctx context.Context) *entity.Leaderboard
}

var _ GameUseCase = (*MatchCoordinator)(nil)

type gameRepo interface {
	Create(ctx context.Context, name string) (*entity.Game, error)
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	GetAll(ctx context.Context, status entity.Status) []*entity.Game
	GetActive(ctx context.Context) []*entity.Game
	Join(ctx context.Context, gameID string, player *entity.Player) (*entity.Game, error)
	Move(ctx context.Context, gameID, playerID string, row, col int, after ...repository.AfterMove) (*entity.Game, error)
	Delete(ctx context.Context, gameID string) error
	CountPlayerMoves(game *entity.Game, playerID string) int
}

type playerRepo interface {
	Create(ctx context.Context, name, email string) (*entity.Player, error)
	GetByID(ctx context.Context, id string) (*entity.Player, error)
	ApplyGameResult(ctx context.Context, updates ...entity.StatsUpdate) ([]*entity.Player, error)
	GetAll(ctx context.Context) []*entity.Player
	GetAllStats(ctx context.Context) []entity.PlayerStatsRecord
	UpdateInfo(ctx context.Context, playerID string, name, email *string) (*entity.Player, error)
	Delete(ctx context.Context, playerID string) error
}

// MatchCoordinator keeps the invariants that span both stores: a player sits in at most one
// active game, and a finished game is reflected in both players' stats.
type MatchCoordinator struct {
	logger *slog.Logger

	gameRepo   gameRepo
	playerRepo playerRepo

	// membership serializes joins and player deletion against the active-game scan
	membership sync.Mutex
}

func NewMatchCoordinator(logger *slog.Logger, gameRepo gameRepo, playerRepo playerRepo) *MatchCoordinator {
	return &MatchCoordinator{
		logger:     logger.With("component", "match"),
		gameRepo:   gameRepo,
		playerRepo: playerRepo,
	}
}

func (that *MatchCoordinator) CreateGame(ctx context.Context, name string) (*entity.Game, error) {
	game, err := that.gameRepo.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	that.logger.InfoContext(ctx, "game created", "gameID", game.ID, "name", game.Name)

	return game, nil
}

func (that *MatchCoordinator) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return game, nil
}

func (that *MatchCoordinator) ListGames(ctx context.Context, status entity.Status) []*entity.Game {
	return that.gameRepo.GetAll(ctx, status)
}

// AddPlayerToGame seats a registered player. It never registers players on the fly.
func (that *MatchCoordinator) AddPlayerToGame(ctx context.Context, gameID, playerID string) (*entity.Game, error) {
	that.membership.Lock()
	defer that.membership.Unlock()

	game, err := that.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	if game.IsFull() {
		return nil, fmt.Errorf("failed to join game %s: %w", gameID, apperror.ErrGameFull)
	}

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	if game.HasPlayer(player.ID) {
		return nil, fmt.Errorf("failed to join game %s: %w", gameID, apperror.ErrPlayerAlreadyInGame)
	}

	for _, active := range that.gameRepo.GetActive(ctx) {
		if active.HasPlayer(player.ID) {
			return nil, fmt.Errorf("failed to join game %s: %w", gameID, apperror.ErrPlayerInActiveGame)
		}
	}

	game, err = that.gameRepo.Join(ctx, gameID, player)
	if err != nil {
		return nil, fmt.Errorf("failed to join game: %w", err)
	}

	that.logger.InfoContext(ctx, "player joined game", "gameID", game.ID, "playerID", player.ID, "status", game.Status)

	return game, nil
}

// MakeMove applies a move and, when it ends the game, records the result for both players
// inside the game's critical section. If the stats cannot be recorded the completed game is
// still returned together with the error; no player is updated in that case.
func (that *MatchCoordinator) MakeMove(ctx context.Context, gameID, playerID string, row, col int) (*entity.Game, error) {
	if row < 0 || col < 0 || row >= entity.BoardSize || col >= entity.BoardSize {
		return nil, apperror.ErrOutOfBounds
	}

	game, err := that.gameRepo.Move(ctx, gameID, playerID, row, col, that.recordResult)
	if err != nil {
		if game != nil {
			that.logger.ErrorContext(ctx, "failed to record game result", "gameID", gameID, "error", err)
			return game, fmt.Errorf("failed to record result of game %s: %w", gameID, err)
		}

		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	if game.IsCompleted() {
		that.logger.InfoContext(ctx, "game completed",
			"gameID", game.ID,
			"result", game.Result,
			"winnerID", game.WinnerID,
			"moves", len(game.Moves),
		)
	}

	return game, nil
}

func (that *MatchCoordinator) recordResult(ctx context.Context, game *entity.Game) error {
	if !game.IsCompleted() {
		return nil
	}

	// the move is already applied, so the stats must follow even if the caller gave up
	if _, err := that.playerRepo.ApplyGameResult(context.WithoutCancel(ctx), that.resultUpdates(game)...); err != nil {
		return fmt.Errorf("failed to update player stats: %w", err)
	}

	return nil
}

func (that *MatchCoordinator) resultUpdates(game *entity.Game) []entity.StatsUpdate {
	updates := make([]entity.StatsUpdate, 0, len(game.Players))

	if game.Result == entity.ResultWin {
		updates = append(updates, entity.StatsUpdate{
			PlayerID: game.WinnerID,
			Outcome:  entity.OutcomeWin,
			Moves:    that.gameRepo.CountPlayerMoves(game, game.WinnerID),
		})

		if loser, ok := game.Opponent(game.WinnerID); ok {
			updates = append(updates, entity.StatsUpdate{
				PlayerID: loser.ID,
				Outcome:  entity.OutcomeLoss,
				Moves:    that.gameRepo.CountPlayerMoves(game, loser.ID),
			})
		}

		return updates
	}

	for _, player := range game.Players {
		updates = append(updates, entity.StatsUpdate{
			PlayerID: player.ID,
			Outcome:  entity.OutcomeDraw,
			Moves:    that.gameRepo.CountPlayerMoves(game, player.ID),
		})
	}

	return updates
}

func (that *MatchCoordinator) DeleteGame(ctx context.Context, gameID string) error {
	if err := that.gameRepo.Delete(ctx, gameID); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	that.logger.InfoContext(ctx, "game deleted", "gameID", gameID)

	return nil
}

func (that *MatchCoordinator) CreatePlayer(ctx context.Context, name, email string) (*entity.Player, error) {
	player, err := that.playerRepo.Create(ctx, name, email)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	that.logger.InfoContext(ctx, "player created", "playerID", player.ID)

	return player, nil
}

func (that *MatchCoordinator) GetPlayer(ctx context.Context, playerID string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return player, nil
}

func (that *MatchCoordinator) ListPlayers(ctx context.Context) []*entity.Player {
	return that.playerRepo.GetAll(ctx)
}

func (that *MatchCoordinator) GetPlayerStats(ctx context.Context) []entity.PlayerStatsRecord {
	return that.playerRepo.GetAllStats(ctx)
}

// UpdatePlayer changes registry data only; snapshots already seated in games keep the old values.
func (that *MatchCoordinator) UpdatePlayer(ctx context.Context, playerID string, name, email *string) (*entity.Player, error) {
	player, err := that.playerRepo.UpdateInfo(ctx, playerID, name, email)
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}

	return player, nil
}

// DeletePlayer removes a player from the registry. A player seated in a waiting or active
// game is refused with ErrPlayerIsPlaying, so a game can never finish with a seat whose
// stats have nowhere to go.
func (that *MatchCoordinator) DeletePlayer(ctx context.Context, playerID string) error {
	that.membership.Lock()
	defer that.membership.Unlock()

	for _, game := range that.gameRepo.GetAll(ctx, "") {
		if !game.IsCompleted() && game.HasPlayer(playerID) {
			return fmt.Errorf("failed to delete player %s: %w", playerID, apperror.ErrPlayerIsPlaying)
		}
	}

	if err := that.playerRepo.Delete(ctx, playerID); err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}

	that.logger.InfoContext(ctx, "player deleted", "playerID", playerID)

	return nil
}

// Leaderboard ranks players and totals the run from a single stats snapshot.
func (that *MatchCoordinator) Leaderboard(ctx context.Context) *entity.Leaderboard {
	return service.AggregateLeaderboard(that.playerRepo.GetAllStats(ctx))
}

package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

const (
	gamesSnapshotKey   = "snapshot:games"
	playersSnapshotKey = "snapshot:players"
)

// SnapshotRepository keeps a copy of the in-memory collections outside the process.
// Each collection lives in one hash keyed by entity id and is replaced as a whole.
type SnapshotRepository interface {
	SaveGames(ctx context.Context, games []*entity.Game) error
	SavePlayers(ctx context.Context, players []*entity.Player) error

	LoadGames(ctx context.Context) ([]*entity.Game, error)
	LoadPlayers(ctx context.Context) ([]*entity.Player, error)
}

type dbSnapshot struct {
	client *redis.Client
}

func NewSnapshotRepository(client *redis.Client) SnapshotRepository {
	return &dbSnapshot{
		client: client,
	}
}

func (that *dbSnapshot) SaveGames(ctx context.Context, games []*entity.Game) error {
	values := make(map[string]any, len(games))
	for _, game := range games {
		gameJSON, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("could not marshal game: %w", err)
		}

		values[game.ID] = gameJSON
	}

	if err := that.replace(ctx, gamesSnapshotKey, values); err != nil {
		return fmt.Errorf("failed to save games: %w", err)
	}

	return nil
}

func (that *dbSnapshot) SavePlayers(ctx context.Context, players []*entity.Player) error {
	values := make(map[string]any, len(players))
	for _, player := range players {
		playerJSON, err := json.Marshal(player)
		if err != nil {
			return fmt.Errorf("could not marshal player: %w", err)
		}

		values[player.ID] = playerJSON
	}

	if err := that.replace(ctx, playersSnapshotKey, values); err != nil {
		return fmt.Errorf("failed to save players: %w", err)
	}

	return nil
}

// LoadGames returns the saved games ordered by creation time.
func (that *dbSnapshot) LoadGames(ctx context.Context) ([]*entity.Game, error) {
	response, err := that.client.HGetAll(ctx, gamesSnapshotKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	games := make([]*entity.Game, 0, len(response))
	for _, value := range response {
		var game entity.Game
		if err = json.Unmarshal([]byte(value), &game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game: %w", err)
		}

		games = append(games, &game)
	}

	sort.SliceStable(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})

	return games, nil
}

// LoadPlayers returns the saved players ordered by creation time.
func (that *dbSnapshot) LoadPlayers(ctx context.Context) ([]*entity.Player, error) {
	response, err := that.client.HGetAll(ctx, playersSnapshotKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}

	players := make([]*entity.Player, 0, len(response))
	for _, value := range response {
		var player entity.Player
		if err = json.Unmarshal([]byte(value), &player); err != nil {
			return nil, fmt.Errorf("failed to unmarshal player: %w", err)
		}

		players = append(players, &player)
	}

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].CreatedAt.Equal(players[j].CreatedAt) {
			return players[i].ID < players[j].ID
		}
		return players[i].CreatedAt.Before(players[j].CreatedAt)
	})

	return players, nil
}

func (that *dbSnapshot) replace(ctx context.Context, key string, values map[string]any) error {
	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.HSet(ctx, key, values)
		}
		return nil
	})

	return err
}

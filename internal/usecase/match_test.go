package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
)

var errStorageIsFull = errors.New("storage is full")

type fixture struct {
	coordinator *MatchCoordinator
	games       repository.GameRepository
	players     repository.PlayerRepository
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)

	return func() string {
		mu.Lock()
		defer mu.Unlock()

		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	games := repository.NewGameRepository(clock, sequentialIDs("game"))
	players := repository.NewPlayerRepository(clock, sequentialIDs("player"))

	return &fixture{
		coordinator: NewMatchCoordinator(discardLogger(), games, players),
		games:       games,
		players:     players,
	}
}

func (that *fixture) createPlayer(t *testing.T, name string) *entity.Player {
	t.Helper()

	player, err := that.coordinator.CreatePlayer(context.Background(), name, name+"@example.com")
	require.NoError(t, err)

	return player
}

func (that *fixture) startGame(t *testing.T, first, second *entity.Player) *entity.Game {
	t.Helper()

	ctx := context.Background()

	game, err := that.coordinator.CreateGame(ctx, "")
	require.NoError(t, err)

	_, err = that.coordinator.AddPlayerToGame(ctx, game.ID, first.ID)
	require.NoError(t, err)

	game, err = that.coordinator.AddPlayerToGame(ctx, game.ID, second.ID)
	require.NoError(t, err)

	return game
}

type cell struct {
	player *entity.Player
	row    int
	col    int
}

func (that *fixture) play(t *testing.T, gameID string, cells ...cell) *entity.Game {
	t.Helper()

	var game *entity.Game
	for _, c := range cells {
		var err error
		game, err = that.coordinator.MakeMove(context.Background(), gameID, c.player.ID, c.row, c.col)
		require.NoError(t, err)
	}

	return game
}

func winForFirst(alice, bob *entity.Player) []cell {
	return []cell{
		{alice, 0, 0}, {bob, 1, 0}, {alice, 0, 1}, {bob, 1, 1}, {alice, 0, 2},
	}
}

func drawSequence(alice, bob *entity.Player) []cell {
	return []cell{
		{alice, 0, 0}, {bob, 0, 1}, {alice, 0, 2},
		{bob, 1, 1}, {alice, 1, 0}, {bob, 1, 2},
		{alice, 2, 1}, {bob, 2, 0}, {alice, 2, 2},
	}
}

func TestMatchCoordinator_AddPlayerToGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Two joins start the game with the first joiner to move", func(t *testing.T) {
		// Given: two registered players and a new game
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		bob := f.createPlayer(t, "bob")

		// When: Alice then Bob join
		game := f.startGame(t, alice, bob)

		// Then: the game is active and it's Alice's turn
		assert.Equal(t, entity.StatusActive, game.Status)
		assert.Equal(t, alice.ID, game.CurrentPlayerID)
		assert.Len(t, game.Players, 2)
	})

	t.Run("Unregistered players are not created on the fly", func(t *testing.T) {
		f := newFixture(t)
		game, err := f.coordinator.CreateGame(ctx, "")
		require.NoError(t, err)

		_, err = f.coordinator.AddPlayerToGame(ctx, game.ID, "ghost")

		require.ErrorIs(t, err, apperror.ErrPlayerNotFound)
		assert.Empty(t, f.coordinator.ListPlayers(ctx))
	})

	t.Run("Unknown game is not found", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")

		_, err := f.coordinator.AddPlayerToGame(ctx, "missing", alice.ID)

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Joining the same game twice is a conflict", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		game, err := f.coordinator.CreateGame(ctx, "")
		require.NoError(t, err)
		_, err = f.coordinator.AddPlayerToGame(ctx, game.ID, alice.ID)
		require.NoError(t, err)

		_, err = f.coordinator.AddPlayerToGame(ctx, game.ID, alice.ID)

		require.ErrorIs(t, err, apperror.ErrPlayerAlreadyInGame)
		require.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("Third player is rejected as full whether registered or not", func(t *testing.T) {
		f := newFixture(t)
		game := f.startGame(t, f.createPlayer(t, "alice"), f.createPlayer(t, "bob"))
		carol := f.createPlayer(t, "carol")

		_, err := f.coordinator.AddPlayerToGame(ctx, game.ID, carol.ID)
		require.ErrorIs(t, err, apperror.ErrGameFull)

		_, err = f.coordinator.AddPlayerToGame(ctx, game.ID, "unregistered")
		require.ErrorIs(t, err, apperror.ErrGameFull)
	})

	t.Run("A player may sit in only one active game", func(t *testing.T) {
		// Given: Alice playing Bob, and Carol waiting in another game
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		bob := f.createPlayer(t, "bob")
		carol := f.createPlayer(t, "carol")
		first := f.startGame(t, alice, bob)

		second, err := f.coordinator.CreateGame(ctx, "rematch")
		require.NoError(t, err)
		_, err = f.coordinator.AddPlayerToGame(ctx, second.ID, carol.ID)
		require.NoError(t, err)

		// When: Alice tries to join the second game
		_, err = f.coordinator.AddPlayerToGame(ctx, second.ID, alice.ID)

		// Then: it is refused until her first game is over
		require.ErrorIs(t, err, apperror.ErrPlayerInActiveGame)

		f.play(t, first.ID, winForFirst(alice, bob)...)

		game, err := f.coordinator.AddPlayerToGame(ctx, second.ID, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, carol.ID, game.CurrentPlayerID)
	})

	t.Run("Concurrent joins leave a player in at most one active game", func(t *testing.T) {
		// Given: ten games each with a different opponent waiting
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")

		gameIDs := make([]string, 0, 10)
		for i := range 10 {
			game, err := f.coordinator.CreateGame(ctx, "")
			require.NoError(t, err)

			opponent := f.createPlayer(t, fmt.Sprintf("opponent%d", i))
			_, err = f.coordinator.AddPlayerToGame(ctx, game.ID, opponent.ID)
			require.NoError(t, err)

			gameIDs = append(gameIDs, game.ID)
		}

		// When: Alice joins all of them at once
		var group errgroup.Group
		for _, gameID := range gameIDs {
			group.Go(func() error {
				_, err := f.coordinator.AddPlayerToGame(ctx, gameID, alice.ID)
				if err != nil && !errors.Is(err, apperror.ErrPlayerInActiveGame) {
					return err
				}
				return nil
			})
		}
		require.NoError(t, group.Wait())

		// Then: exactly one game became active with her
		active := f.coordinator.ListGames(ctx, entity.StatusActive)
		require.Len(t, active, 1)
		assert.True(t, active[0].HasPlayer(alice.ID))
	})
}

func TestMatchCoordinator_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Moving twice in a row is the wrong turn", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		game := f.startGame(t, alice, f.createPlayer(t, "bob"))

		f.play(t, game.ID, cell{alice, 0, 0})
		_, err := f.coordinator.MakeMove(ctx, game.ID, alice.ID, 1, 1)

		require.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Coordinates are checked before anything else", func(t *testing.T) {
		f := newFixture(t)

		for _, c := range [][2]int{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
			_, err := f.coordinator.MakeMove(ctx, "missing", "nobody", c[0], c[1])
			require.ErrorIs(t, err, apperror.ErrOutOfBounds)
		}
	})

	t.Run("Unknown game is not found", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.coordinator.MakeMove(ctx, "missing", "nobody", 1, 1)

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("A win updates both players", func(t *testing.T) {
		// Given: Alice against Bob
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		bob := f.createPlayer(t, "bob")
		game := f.startGame(t, alice, bob)

		// When: Alice completes the top row
		game = f.play(t, game.ID, winForFirst(alice, bob)...)

		// Then: the game is won by Alice and stats follow
		assert.Equal(t, entity.StatusCompleted, game.Status)
		assert.Equal(t, entity.ResultWin, game.Result)
		assert.Equal(t, alice.ID, game.WinnerID)
		assert.Empty(t, game.CurrentPlayerID)

		aliceNow, err := f.coordinator.GetPlayer(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, aliceNow.Stats.GamesWon)
		assert.Equal(t, 3, aliceNow.Stats.TotalMoves)
		assert.InDelta(t, 3.0, aliceNow.Stats.Efficiency, 1e-9)
		assert.InDelta(t, 100.0, aliceNow.Stats.WinRate, 1e-9)

		bobNow, err := f.coordinator.GetPlayer(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, bobNow.Stats.GamesLost)
		assert.Equal(t, 2, bobNow.Stats.TotalMoves)
		assert.Zero(t, bobNow.Stats.Efficiency)
	})

	t.Run("A draw ties both players", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		bob := f.createPlayer(t, "bob")
		game := f.startGame(t, alice, bob)

		game = f.play(t, game.ID, drawSequence(alice, bob)...)

		assert.Equal(t, entity.StatusCompleted, game.Status)
		assert.Equal(t, entity.ResultDraw, game.Result)
		assert.Empty(t, game.WinnerID)

		for _, stats := range f.coordinator.GetPlayerStats(ctx) {
			assert.Equal(t, 1, stats.GamesTied)
			assert.Equal(t, 1, stats.GamesPlayed)
		}
	})

	t.Run("Completed games accept neither moves nor joins", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		bob := f.createPlayer(t, "bob")
		game := f.startGame(t, alice, bob)
		f.play(t, game.ID, winForFirst(alice, bob)...)

		_, err := f.coordinator.MakeMove(ctx, game.ID, bob.ID, 2, 2)
		require.ErrorIs(t, err, apperror.ErrGameNotActive)

		_, err = f.coordinator.AddPlayerToGame(ctx, game.ID, f.createPlayer(t, "carol").ID)
		require.Error(t, err)

		stats, err := f.coordinator.GetPlayer(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Stats.GamesPlayed)
	})

	t.Run("Stats are not touched for either player when recording fails", func(t *testing.T) {
		// Given: Bob vanished from the registry behind the coordinator's back
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		bob := f.createPlayer(t, "bob")
		game := f.startGame(t, alice, bob)
		require.NoError(t, f.players.Delete(ctx, bob.ID))

		// When: Alice wins
		f.play(t, game.ID, winForFirst(alice, bob)[:4]...)
		game, err := f.coordinator.MakeMove(ctx, game.ID, alice.ID, 0, 2)

		// Then: the game is completed, the error is reported and Alice is untouched
		require.ErrorIs(t, err, apperror.ErrPlayerNotFound)
		require.NotNil(t, game)
		assert.Equal(t, entity.StatusCompleted, game.Status)

		aliceNow, err := f.coordinator.GetPlayer(ctx, alice.ID)
		require.NoError(t, err)
		assert.Zero(t, aliceNow.Stats.GamesPlayed)
	})
}

type mockPlayerRepo struct {
	mock.Mock
}

func (m *mockPlayerRepo) Create(ctx context.Context, name, email string) (*entity.Player, error) {
	args := m.Called(ctx, name, email)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (m *mockPlayerRepo) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := m.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (m *mockPlayerRepo) ApplyGameResult(ctx context.Context, updates ...entity.StatsUpdate) ([]*entity.Player, error) {
	args := m.Called(ctx, updates)
	players, _ := args.Get(0).([]*entity.Player)
	return players, args.Error(1)
}

func (m *mockPlayerRepo) GetAll(ctx context.Context) []*entity.Player {
	players, _ := m.Called(ctx).Get(0).([]*entity.Player)
	return players
}

func (m *mockPlayerRepo) GetAllStats(ctx context.Context) []entity.PlayerStatsRecord {
	stats, _ := m.Called(ctx).Get(0).([]entity.PlayerStatsRecord)
	return stats
}

func (m *mockPlayerRepo) UpdateInfo(ctx context.Context, playerID string, name, email *string) (*entity.Player, error) {
	args := m.Called(ctx, playerID, name, email)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (m *mockPlayerRepo) Delete(ctx context.Context, playerID string) error {
	return m.Called(ctx, playerID).Error(0)
}

func TestMatchCoordinator_MakeMove_RecordsResult(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClock()

	alice := entity.NewPlayer("alice", "Alice", "alice@example.com", clock.Now())
	bob := entity.NewPlayer("bob", "Bob", "bob@example.com", clock.Now())

	newMocked := func(t *testing.T) (*MatchCoordinator, *mockPlayerRepo, string) {
		t.Helper()

		games := repository.NewGameRepository(clock, sequentialIDs("id"))
		players := &mockPlayerRepo{}
		players.On("GetByID", mock.Anything, alice.ID).Return(alice, nil)
		players.On("GetByID", mock.Anything, bob.ID).Return(bob, nil)

		coordinator := NewMatchCoordinator(discardLogger(), games, players)

		game, err := coordinator.CreateGame(ctx, "")
		require.NoError(t, err)
		_, err = coordinator.AddPlayerToGame(ctx, game.ID, alice.ID)
		require.NoError(t, err)
		_, err = coordinator.AddPlayerToGame(ctx, game.ID, bob.ID)
		require.NoError(t, err)

		return coordinator, players, game.ID
	}

	t.Run("Winner and loser are sent in one update", func(t *testing.T) {
		coordinator, players, gameID := newMocked(t)
		players.On("ApplyGameResult", mock.Anything, []entity.StatsUpdate{
			{PlayerID: alice.ID, Outcome: entity.OutcomeWin, Moves: 3},
			{PlayerID: bob.ID, Outcome: entity.OutcomeLoss, Moves: 2},
		}).Return([]*entity.Player{alice, bob}, nil).Once()

		for _, c := range winForFirst(alice, bob) {
			_, err := coordinator.MakeMove(ctx, gameID, c.player.ID, c.row, c.col)
			require.NoError(t, err)
		}

		players.AssertExpectations(t)
	})

	t.Run("Every drawer is sent with their own move count", func(t *testing.T) {
		coordinator, players, gameID := newMocked(t)
		players.On("ApplyGameResult", mock.Anything, []entity.StatsUpdate{
			{PlayerID: alice.ID, Outcome: entity.OutcomeDraw, Moves: 5},
			{PlayerID: bob.ID, Outcome: entity.OutcomeDraw, Moves: 4},
		}).Return([]*entity.Player{alice, bob}, nil).Once()

		for _, c := range drawSequence(alice, bob) {
			_, err := coordinator.MakeMove(ctx, gameID, c.player.ID, c.row, c.col)
			require.NoError(t, err)
		}

		players.AssertExpectations(t)
	})

	t.Run("Storage errors come back with the completed game", func(t *testing.T) {
		coordinator, players, gameID := newMocked(t)
		players.On("ApplyGameResult", mock.Anything, mock.Anything).Return(nil, errStorageIsFull).Once()

		var (
			game *entity.Game
			err  error
		)
		for _, c := range winForFirst(alice, bob) {
			game, err = coordinator.MakeMove(ctx, gameID, c.player.ID, c.row, c.col)
		}

		require.ErrorIs(t, err, errStorageIsFull)
		require.NotNil(t, game)
		assert.True(t, game.IsCompleted())
		players.AssertExpectations(t)
	})
}

func TestMatchCoordinator_DeleteGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Active games cannot be deleted until they complete", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		bob := f.createPlayer(t, "bob")
		game := f.startGame(t, alice, bob)

		err := f.coordinator.DeleteGame(ctx, game.ID)
		require.ErrorIs(t, err, apperror.ErrInvalidState)

		f.play(t, game.ID, winForFirst(alice, bob)...)

		require.NoError(t, f.coordinator.DeleteGame(ctx, game.ID))

		_, err = f.coordinator.GetGame(ctx, game.ID)
		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Unknown game is not found", func(t *testing.T) {
		f := newFixture(t)

		require.ErrorIs(t, f.coordinator.DeleteGame(ctx, "missing"), apperror.ErrNotFound)
	})

	t.Run("Leaderboard totals survive deleting a finished game", func(t *testing.T) {
		// Given: Alice beat Bob in five moves
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		bob := f.createPlayer(t, "bob")
		game := f.startGame(t, alice, bob)
		f.play(t, game.ID, winForFirst(alice, bob)...)

		// When: the finished game is deleted
		require.NoError(t, f.coordinator.DeleteGame(ctx, game.ID))

		// Then: the run still counts one game of five moves
		board := f.coordinator.Leaderboard(ctx)
		assert.Equal(t, 5, board.TotalMoves)
		assert.Equal(t, 1, board.CompletedGames)
		assert.InDelta(t, 5.0, board.AverageMovesPerGame, 1e-9)
		assert.Len(t, board.Entries, 2)
	})
}

func TestMatchCoordinator_Players(t *testing.T) {
	ctx := context.Background()

	t.Run("Create validates and rejects duplicate emails", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.coordinator.CreatePlayer(ctx, "", "a@example.com")
		require.ErrorIs(t, err, apperror.ErrInvalidName)

		_, err = f.coordinator.CreatePlayer(ctx, "Alice", "a@example")
		require.ErrorIs(t, err, apperror.ErrInvalidEmail)

		_, err = f.coordinator.CreatePlayer(ctx, "Alice", "a@example.com")
		require.NoError(t, err)

		_, err = f.coordinator.CreatePlayer(ctx, "Alice Two", "A@EXAMPLE.COM")
		require.ErrorIs(t, err, apperror.ErrEmailInUse)
	})

	t.Run("Seated players cannot be deleted until their game is over", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		bob := f.createPlayer(t, "bob")

		game, err := f.coordinator.CreateGame(ctx, "")
		require.NoError(t, err)
		_, err = f.coordinator.AddPlayerToGame(ctx, game.ID, alice.ID)
		require.NoError(t, err)

		require.ErrorIs(t, f.coordinator.DeletePlayer(ctx, alice.ID), apperror.ErrPlayerIsPlaying)

		_, err = f.coordinator.AddPlayerToGame(ctx, game.ID, bob.ID)
		require.NoError(t, err)
		f.play(t, game.ID, winForFirst(alice, bob)...)

		require.NoError(t, f.coordinator.DeletePlayer(ctx, alice.ID))
		require.ErrorIs(t, f.coordinator.DeletePlayer(ctx, alice.ID), apperror.ErrPlayerNotFound)
	})

	t.Run("Update keeps emails unique", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		f.createPlayer(t, "bob")

		email := "BOB@example.com"
		_, err := f.coordinator.UpdatePlayer(ctx, alice.ID, nil, &email)
		require.ErrorIs(t, err, apperror.ErrEmailInUse)

		name := "Alicia"
		player, err := f.coordinator.UpdatePlayer(ctx, alice.ID, &name, nil)
		require.NoError(t, err)
		assert.Equal(t, "Alicia", player.Name)
	})

	t.Run("List ranks players by wins", func(t *testing.T) {
		f := newFixture(t)
		alice := f.createPlayer(t, "alice")
		bob := f.createPlayer(t, "bob")
		game := f.startGame(t, bob, alice)
		f.play(t, game.ID, winForFirst(bob, alice)...)

		players := f.coordinator.ListPlayers(ctx)

		require.Len(t, players, 2)
		assert.Equal(t, bob.ID, players[0].ID)
		assert.Equal(t, alice.ID, players[1].ID)
	})
}

func TestMatchCoordinator_Leaderboard(t *testing.T) {
	ctx := context.Background()

	// Given: Alice beats Bob, then Carol and Alice draw
	f := newFixture(t)
	alice := f.createPlayer(t, "alice")
	bob := f.createPlayer(t, "bob")
	carol := f.createPlayer(t, "carol")
	f.createPlayer(t, "dave")

	first := f.startGame(t, alice, bob)
	f.play(t, first.ID, winForFirst(alice, bob)...)

	second := f.startGame(t, carol, alice)
	f.play(t, second.ID, drawSequence(carol, alice)...)

	// When: the leaderboard is requested
	board := f.coordinator.Leaderboard(ctx)

	// Then: idle Dave is absent and Alice leads
	require.Len(t, board.Entries, 3)
	assert.Equal(t, alice.ID, board.Entries[0].PlayerID)
	assert.Equal(t, 1, board.Entries[0].Wins)
	assert.InDelta(t, 50.0, board.Entries[0].WinRate, 1e-9)
	assert.InDelta(t, 7.0, board.Entries[0].Efficiency, 1e-9)
	assert.Equal(t, 2, board.CompletedGames)
	assert.Equal(t, 14, board.TotalMoves)
	assert.InDelta(t, 7.0, board.AverageMovesPerGame, 1e-9)
}

// TestMatchCoordinator_RandomPlay drives many random games and checks the board and stats
// invariants after every move.
func TestMatchCoordinator_RandomPlay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	rng := rand.New(rand.NewSource(42))

	roster := make([]*entity.Player, 0, 5)
	for i := range 5 {
		roster = append(roster, f.createPlayer(t, fmt.Sprintf("player%d", i)))
	}

	completed := 0
	for range 30 {
		perm := rng.Perm(len(roster))
		game := f.startGame(t, roster[perm[0]], roster[perm[1]])

		for game.IsActive() {
			before := game.Clone()

			var row, col int
			for {
				row, col = rng.Intn(entity.BoardSize), rng.Intn(entity.BoardSize)
				if game.Board[row][col] == entity.EmptyCell {
					break
				}
			}

			mover := game.CurrentPlayerID
			var err error
			game, err = f.coordinator.MakeMove(ctx, game.ID, mover, row, col)
			require.NoError(t, err)

			// exactly one new cell, nothing overwritten
			require.Equal(t, before.FilledCells()+1, game.FilledCells())
			for r := range entity.BoardSize {
				for c := range entity.BoardSize {
					if before.Board[r][c] != entity.EmptyCell {
						require.Equal(t, before.Board[r][c], game.Board[r][c])
					}
				}
			}

			if game.IsActive() {
				require.NotEqual(t, mover, game.CurrentPlayerID)
				continue
			}

			seat, _ := game.PlayerByID(mover)
			switch game.Result {
			case entity.ResultWin:
				require.Equal(t, mover, game.WinnerID)
				require.True(t, game.HasCompleteLine(seat.Marker))
			case entity.ResultDraw:
				require.True(t, game.IsBoardFull())
				require.False(t, game.HasCompleteLine(entity.MarkerFirst))
				require.False(t, game.HasCompleteLine(entity.MarkerSecond))
			default:
				t.Fatalf("unexpected result %q", game.Result)
			}
		}

		completed++
	}

	totalMoves := 0
	for _, stats := range f.coordinator.GetPlayerStats(ctx) {
		require.Equal(t, stats.GamesPlayed, stats.GamesWon+stats.GamesLost+stats.GamesTied)
		if stats.GamesWon == 0 {
			require.Zero(t, stats.Efficiency)
		} else {
			require.InDelta(t, float64(stats.TotalMoves)/float64(stats.GamesWon), stats.Efficiency, 1e-9)
		}
		totalMoves += stats.TotalMoves
	}

	board := f.coordinator.Leaderboard(ctx)
	assert.Equal(t, completed, board.CompletedGames)
	assert.Equal(t, totalMoves, board.TotalMoves)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

var ErrSnapshotsAlreadyScheduled = errors.New("snapshots are already scheduled")

type gameSnapshotter interface {
	Snapshot(ctx context.Context) []*entity.Game
	Restore(ctx context.Context, games []*entity.Game)
}

type playerSnapshotter interface {
	Snapshot(ctx context.Context) []*entity.Player
	Restore(ctx context.Context, players []*entity.Player)
}

type snapshotRepo interface {
	SaveGames(ctx context.Context, games []*entity.Game) error
	SavePlayers(ctx context.Context, players []*entity.Player) error

	LoadGames(ctx context.Context) ([]*entity.Game, error)
	LoadPlayers(ctx context.Context) ([]*entity.Player, error)
}

// SnapshotService copies the in-memory stores to an external snapshot and back.
// Games and players are captured one after the other, not as one atomic cut.
type SnapshotService struct {
	logger *slog.Logger
	clock  clockwork.Clock

	games   gameSnapshotter
	players playerSnapshotter
	repo    snapshotRepo

	scheduler gocron.Scheduler
}

func NewSnapshotService(logger *slog.Logger, clock clockwork.Clock, games gameSnapshotter, players playerSnapshotter, repo snapshotRepo) *SnapshotService {
	return &SnapshotService{
		logger:  logger.With("component", "snapshot"),
		clock:   clock,
		games:   games,
		players: players,
		repo:    repo,
	}
}

func (that *SnapshotService) Save(ctx context.Context) error {
	games := that.games.Snapshot(ctx)
	players := that.players.Snapshot(ctx)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return that.repo.SaveGames(groupCtx, games)
	})
	group.Go(func() error {
		return that.repo.SavePlayers(groupCtx, players)
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	that.logger.DebugContext(ctx, "snapshot saved", "games", len(games), "players", len(players))

	return nil
}

// Restore replaces both stores with the saved snapshot. Nothing is replaced if loading fails.
func (that *SnapshotService) Restore(ctx context.Context) error {
	var (
		games   []*entity.Game
		players []*entity.Player
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		games, err = that.repo.LoadGames(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		players, err = that.repo.LoadPlayers(groupCtx)
		return err
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	that.players.Restore(ctx, players)
	that.games.Restore(ctx, games)

	that.logger.InfoContext(ctx, "snapshot restored", "games", len(games), "players", len(players))

	return nil
}

// Start saves a snapshot every interval until Shutdown is called.
func (that *SnapshotService) Start(ctx context.Context, interval time.Duration) error {
	if that.scheduler != nil {
		return ErrSnapshotsAlreadyScheduled
	}

	scheduler, err := gocron.NewScheduler(
		gocron.WithClock(that.clock),
		gocron.WithLogger(that.logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := that.Save(ctx); err != nil {
				that.logger.ErrorContext(ctx, "periodic snapshot failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return fmt.Errorf("failed to schedule snapshots: %w", err)
	}

	scheduler.Start()
	that.scheduler = scheduler

	that.logger.InfoContext(ctx, "snapshots scheduled", "interval", interval)

	return nil
}

func (that *SnapshotService) Shutdown() error {
	if that.scheduler == nil {
		return nil
	}

	if err := that.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	that.scheduler = nil

	return nil
}

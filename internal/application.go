package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/rocketscienceinc/tictactoe-engine/internal/config"
	"github.com/rocketscienceinc/tictactoe-engine/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-engine/internal/service"
	"github.com/rocketscienceinc/tictactoe-engine/internal/usecase"
)

var ErrRedisHostNotSet = errors.New("redis host is not set")

// Engine holds the wired stores and the coordinator that fronts them.
type Engine struct {
	Games   repository.GameRepository
	Players repository.PlayerRepository
	Matches *usecase.MatchCoordinator
}

func NewEngine(logger *slog.Logger, clock clockwork.Clock) *Engine {
	games := repository.NewGameRepository(clock, pkg.GenerateID)
	players := repository.NewPlayerRepository(clock, pkg.GenerateID)

	return &Engine{
		Games:   games,
		Players: players,
		Matches: usecase.NewMatchCoordinator(logger, games, players),
	}
}

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	clock := clockwork.NewRealClock()
	engine := NewEngine(logger, clock)

	if conf.Snapshot.Enabled {
		stop, err := startSnapshots(ctx, logger, clock, conf, engine)
		if err != nil {
			return err
		}
		defer stop()
	}

	log.Info("Engine is ready", "snapshots", conf.Snapshot.Enabled)

	<-ctx.Done()
	log.Info("Application context canceled, shutting down")

	return nil
}

// startSnapshots restores the last snapshot and schedules periodic saves. The returned func
// stops the schedule, saves once more and closes the Redis connection.
func startSnapshots(
	ctx context.Context,
	logger *slog.Logger,
	clock clockwork.Clock,
	conf *config.Config,
	engine *Engine,
) (func(), error) {
	log := logger.With("component", "app")

	if conf.Redis.Host == "" {
		return nil, ErrRedisHostNotSet
	}

	redisStorage, err := storage.NewRedis(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	snapshots := service.NewSnapshotService(logger, clock, engine.Games, engine.Players, repository.NewSnapshotRepository(redisStorage))

	closeStorage := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	if err = snapshots.Restore(ctx); err != nil {
		closeStorage()
		return nil, fmt.Errorf("could not restore snapshot: %w", err)
	}

	if err = snapshots.Start(ctx, conf.Snapshot.Interval); err != nil {
		closeStorage()
		return nil, fmt.Errorf("could not schedule snapshots: %w", err)
	}

	return func() {
		if err := snapshots.Shutdown(); err != nil {
			log.Error("could not stop snapshots", "error", err)
		}

		// ctx is already canceled at this point
		if err := snapshots.Save(context.WithoutCancel(ctx)); err != nil {
			log.Error("could not save final snapshot", "error", err)
		}

		closeStorage()
	}, nil
}

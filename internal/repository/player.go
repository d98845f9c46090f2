package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// PlayerRepository writes fail with the context's error once it is done; reads ignore it.
type PlayerRepository interface {
	Create(ctx context.Context, name, email string) (*entity.Player, error)
	GetByID(ctx context.Context, id string) (*entity.Player, error)
	GetByEmail(ctx context.Context, email string) (*entity.Player, error)
	UpdateStatsPerGame(ctx context.Context, playerID string, outcome entity.Outcome, moves int) (*entity.Player, error)
	ApplyGameResult(ctx context.Context, updates ...entity.StatsUpdate) ([]*entity.Player, error)
	GetAll(ctx context.Context) []*entity.Player
	GetAllStats(ctx context.Context) []entity.PlayerStatsRecord
	UpdateInfo(ctx context.Context, playerID string, name, email *string) (*entity.Player, error)
	Delete(ctx context.Context, playerID string) error

	Snapshot(ctx context.Context) []*entity.Player
	Restore(ctx context.Context, players []*entity.Player)
}

type playerRecord struct {
	mu     sync.Mutex
	player *entity.Player
}

type memPlayer struct {
	mu      sync.RWMutex
	players map[string]*playerRecord
	emails  map[string]string
	order   []string

	clock      clockwork.Clock
	generateID func() string
}

func NewPlayerRepository(clock clockwork.Clock, generateID func() string) PlayerRepository {
	return &memPlayer{
		players:    make(map[string]*playerRecord),
		emails:     make(map[string]string),
		clock:      clock,
		generateID: generateID,
	}
}

func (that *memPlayer) Create(ctx context.Context, name, email string) (*entity.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleanedName, err := entity.NormalizePlayerName(name)
	if err != nil {
		return nil, err
	}

	cleanedEmail, err := entity.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.emails[cleanedEmail]; ok {
		return nil, apperror.ErrEmailInUse
	}

	player := entity.NewPlayer(that.generateID(), cleanedName, cleanedEmail, that.clock.Now())

	that.players[player.ID] = &playerRecord{player: player}
	that.emails[cleanedEmail] = player.ID
	that.order = append(that.order, player.ID)

	return player.Clone(), nil
}

func (that *memPlayer) GetByID(_ context.Context, id string) (*entity.Player, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	record, ok := that.players[id]
	if !ok {
		return nil, apperror.ErrPlayerNotFound
	}

	return record.clone(), nil
}

// GetByEmail looks the email up after normalizing it.
func (that *memPlayer) GetByEmail(_ context.Context, email string) (*entity.Player, error) {
	cleanedEmail, err := entity.NormalizeEmail(email)
	if err != nil {
		return nil, apperror.ErrPlayerNotFound
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	id, ok := that.emails[cleanedEmail]
	if !ok {
		return nil, apperror.ErrPlayerNotFound
	}

	return that.players[id].clone(), nil
}

func (that *memPlayer) UpdateStatsPerGame(ctx context.Context, playerID string, outcome entity.Outcome, moves int) (*entity.Player, error) {
	players, err := that.ApplyGameResult(ctx, entity.StatsUpdate{
		PlayerID: playerID,
		Outcome:  outcome,
		Moves:    moves,
	})
	if err != nil {
		return nil, err
	}

	return players[0], nil
}

// ApplyGameResult records every update or none of them. All arguments and players are checked
// before anything is written; the affected records are locked in id order while writing.
func (that *memPlayer) ApplyGameResult(ctx context.Context, updates ...entity.StatsUpdate) ([]*entity.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	records := make(map[string]*playerRecord, len(updates))
	for _, update := range updates {
		record, ok := that.players[update.PlayerID]
		if !ok {
			return nil, apperror.ErrPlayerNotFound
		}

		if err := update.Validate(); err != nil {
			return nil, err
		}

		records[update.PlayerID] = record
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		records[id].mu.Lock()
		defer records[id].mu.Unlock()
	}

	now := that.clock.Now()
	updated := make([]*entity.Player, 0, len(updates))

	for _, update := range updates {
		player := records[update.PlayerID].player

		// validated above, cannot fail
		_ = player.Stats.Record(update.Outcome, update.Moves)
		player.UpdatedAt = now

		updated = append(updated, player.Clone())
	}

	return updated, nil
}

// GetAll returns players ranked by wins; players with equal wins keep creation order.
func (that *memPlayer) GetAll(ctx context.Context) []*entity.Player {
	players := that.Snapshot(ctx)

	sort.SliceStable(players, func(i, j int) bool {
		return players[i].Stats.GamesWon > players[j].Stats.GamesWon
	})

	return players
}

func (that *memPlayer) GetAllStats(ctx context.Context) []entity.PlayerStatsRecord {
	players := that.Snapshot(ctx)

	stats := make([]entity.PlayerStatsRecord, 0, len(players))
	for _, player := range players {
		stats = append(stats, player.StatsRecord())
	}

	return stats
}

// UpdateInfo changes the name and/or email. A nil argument leaves the field as it is.
func (that *memPlayer) UpdateInfo(ctx context.Context, playerID string, name, email *string) (*entity.Player, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	record, ok := that.players[playerID]
	if !ok {
		return nil, apperror.ErrPlayerNotFound
	}

	record.mu.Lock()
	defer record.mu.Unlock()

	cleanedName := record.player.Name
	if name != nil {
		var err error
		if cleanedName, err = entity.NormalizePlayerName(*name); err != nil {
			return nil, err
		}
	}

	cleanedEmail := record.player.Email
	if email != nil {
		var err error
		if cleanedEmail, err = entity.NormalizeEmail(*email); err != nil {
			return nil, err
		}

		if ownerID, ok := that.emails[cleanedEmail]; ok && ownerID != playerID {
			return nil, apperror.ErrEmailInUse
		}
	}

	delete(that.emails, record.player.Email)
	that.emails[cleanedEmail] = playerID

	record.player.Name = cleanedName
	record.player.Email = cleanedEmail
	record.player.UpdatedAt = that.clock.Now()

	return record.player.Clone(), nil
}

func (that *memPlayer) Delete(ctx context.Context, playerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	record, ok := that.players[playerID]
	if !ok {
		return apperror.ErrPlayerNotFound
	}

	delete(that.emails, record.player.Email)
	delete(that.players, playerID)

	for i, id := range that.order {
		if id == playerID {
			that.order = append(that.order[:i], that.order[i+1:]...)
			break
		}
	}

	return nil
}

// Snapshot returns every player in creation order.
func (that *memPlayer) Snapshot(_ context.Context) []*entity.Player {
	that.mu.RLock()
	defer that.mu.RUnlock()

	players := make([]*entity.Player, 0, len(that.order))
	for _, id := range that.order {
		players = append(players, that.players[id].clone())
	}

	return players
}

// Restore replaces the whole collection. Later duplicates of an id or email are dropped.
func (that *memPlayer) Restore(_ context.Context, players []*entity.Player) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.players = make(map[string]*playerRecord, len(players))
	that.emails = make(map[string]string, len(players))
	that.order = make([]string, 0, len(players))

	for _, player := range players {
		if _, ok := that.players[player.ID]; ok {
			continue
		}

		if _, ok := that.emails[player.Email]; ok {
			continue
		}

		that.players[player.ID] = &playerRecord{player: player.Clone()}
		that.emails[player.Email] = player.ID
		that.order = append(that.order, player.ID)
	}
}

func (that *playerRecord) clone() *entity.Player {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.player.Clone()
}

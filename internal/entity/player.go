package entity

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
)

type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)

const (
	MaxNameLength  = 50
	MaxEmailLength = 100
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type PlayerStats struct {
	GamesPlayed int     `json:"games_played"`
	GamesWon    int     `json:"games_won"`
	GamesLost   int     `json:"games_lost"`
	GamesTied   int     `json:"games_tied"`
	TotalMoves  int     `json:"total_moves"`
	WinRate     float64 `json:"win_rate"`
	Efficiency  float64 `json:"efficiency"`
}

// Record adds one finished game to the stats and recomputes the derived values.
func (that *PlayerStats) Record(outcome Outcome, moves int) error {
	if moves < 0 {
		return apperror.ErrInvalidMoves
	}

	switch outcome {
	case OutcomeWin:
		that.GamesWon++
	case OutcomeLoss:
		that.GamesLost++
	case OutcomeDraw:
		that.GamesTied++
	default:
		return apperror.ErrInvalidOutcome
	}

	that.GamesPlayed++
	that.TotalMoves += moves

	that.WinRate = winRate(that.GamesWon, that.GamesPlayed)
	that.Efficiency = efficiency(that.TotalMoves, that.GamesWon)

	return nil
}

func winRate(gamesWon, gamesPlayed int) float64 {
	if gamesPlayed == 0 {
		return 0
	}

	return float64(gamesWon) / float64(gamesPlayed) * 100
}

// efficiency is the average number of moves per win; lower is better.
func efficiency(totalMoves, gamesWon int) float64 {
	if gamesWon == 0 {
		return 0
	}

	return float64(totalMoves) / float64(gamesWon)
}

type Player struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Stats     PlayerStats `json:"stats"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewPlayer(id, name, email string, now time.Time) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (that *Player) Clone() *Player {
	clone := *that
	return &clone
}

// PlayerStatsRecord is the flattened read model of a player's stats.
type PlayerStatsRecord struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	PlayerStats
}

func (that *Player) StatsRecord() PlayerStatsRecord {
	return PlayerStatsRecord{
		PlayerID:    that.ID,
		PlayerName:  that.Name,
		PlayerStats: that.Stats,
	}
}

// StatsUpdate is one player's share of a finished game.
type StatsUpdate struct {
	PlayerID string
	Outcome  Outcome
	Moves    int
}

func (that StatsUpdate) Validate() error {
	if that.Moves < 0 {
		return apperror.ErrInvalidMoves
	}

	switch that.Outcome {
	case OutcomeWin, OutcomeLoss, OutcomeDraw:
		return nil
	default:
		return apperror.ErrInvalidOutcome
	}
}

// NormalizePlayerName trims the name and checks its length in runes.
func NormalizePlayerName(name string) (string, error) {
	cleaned := norm.NFC.String(strings.TrimSpace(name))

	if cleaned == "" || utf8.RuneCountInString(cleaned) > MaxNameLength {
		return "", apperror.ErrInvalidName
	}

	return cleaned, nil
}

// NormalizeGameName trims the name; an empty game name is allowed.
func NormalizeGameName(name string) (string, error) {
	cleaned := norm.NFC.String(strings.TrimSpace(name))

	if utf8.RuneCountInString(cleaned) > MaxNameLength {
		return "", apperror.ErrGameNameTooLong
	}

	return cleaned, nil
}

// NormalizeEmail trims and lower-cases the email after checking its local@domain.tld shape.
func NormalizeEmail(email string) (string, error) {
	cleaned := strings.TrimSpace(email)

	if cleaned == "" || !emailPattern.MatchString(cleaned) {
		return "", apperror.ErrInvalidEmail
	}

	cleaned = strings.ToLower(cleaned)
	if utf8.RuneCountInString(cleaned) > MaxEmailLength {
		return "", apperror.ErrEmailTooLong
	}

	return cleaned, nil
}

package service

import (
	"math"
	"sort"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

// AggregateLeaderboard projects a stats snapshot into a ranked leaderboard.
// Players who never finished a game are left out. Ranking is by wins, then by
// efficiency ascending, then by snapshot order.
//
// Run totals come from the same snapshot: every completed game was recorded once for each
// of its seats, so the completed count does not drop when a finished game is deleted.
func AggregateLeaderboard(stats []entity.PlayerStatsRecord) *entity.Leaderboard {
	ranked := make([]entity.PlayerStatsRecord, 0, len(stats))
	totalMoves := 0
	seatsPlayed := 0

	for _, record := range stats {
		totalMoves += record.TotalMoves
		seatsPlayed += record.GamesPlayed

		if record.GamesPlayed > 0 {
			ranked = append(ranked, record)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].GamesWon != ranked[j].GamesWon {
			return ranked[i].GamesWon > ranked[j].GamesWon
		}
		return ranked[i].Efficiency < ranked[j].Efficiency
	})

	entries := make([]entity.LeaderboardEntry, 0, len(ranked))
	for _, record := range ranked {
		entries = append(entries, entity.LeaderboardEntry{
			PlayerID:   record.PlayerID,
			PlayerName: record.PlayerName,
			Wins:       record.GamesWon,
			WinRate:    round2(record.WinRate),
			Efficiency: round2(record.Efficiency),
		})
	}

	completedGames := seatsPlayed / entity.MaxPlayersPerGame

	var averageMoves float64
	if completedGames > 0 {
		averageMoves = float64(totalMoves) / float64(completedGames)
	}

	return &entity.Leaderboard{
		Entries:             entries,
		TotalMoves:          totalMoves,
		CompletedGames:      completedGames,
		AverageMovesPerGame: averageMoves,
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}

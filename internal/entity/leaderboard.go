package entity

type LeaderboardEntry struct {
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Wins       int     `json:"wins"`
	WinRate    float64 `json:"win_rate"`
	Efficiency float64 `json:"efficiency"`
}

// Leaderboard is a derived view; nothing owns it and it is rebuilt on every request.
type Leaderboard struct {
	Entries             []LeaderboardEntry `json:"entries"`
	TotalMoves          int                `json:"total_moves"`
	CompletedGames      int                `json:"completed_games"`
	AverageMovesPerGame float64            `json:"average_moves_per_game"`
}

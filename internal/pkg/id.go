package pkg

import "github.com/google/uuid"

// GenerateID - generates a unique identifier for games, players and moves.
func GenerateID() string {
	return uuid.NewString()
}

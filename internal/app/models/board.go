package models

import (
	"strings"
	"time"
)

// Board keys
const (
	BoardFree       = "FREE"
	BoardEvaluation = "EVALUATION"
	BoardSuggestion = "SUGGESTION"
	BoardMemories   = "MEMORIES"
)

// legacyBoardKeys maps retired keys onto the boards that replaced them
var legacyBoardKeys = map[string]string{
	"ASSIGNMENT": BoardEvaluation,
	"EXAM":       BoardSuggestion,
}

// NormalizeBoardKey upper-cases a key and resolves legacy aliases
func NormalizeBoardKey(key string) string {
	key = strings.ToUpper(strings.TrimSpace(key))
	if current, ok := legacyBoardKeys[key]; ok {
		return current
	}
	return key
}

// Board defines a post category from the 'boards' table
type Board struct {
	ID        string    `json:"id" db:"id"`
	Key       string    `json:"key" db:"key" example:"FREE"`
	Name      string    `json:"name" db:"name" example:"자유게시판"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// DefaultBoards are created by the seeder when missing
var DefaultBoards = []Board{
	{Key: BoardFree, Name: "자유게시판"},
	{Key: BoardEvaluation, Name: "수행/지필평가"},
	{Key: BoardSuggestion, Name: "건의사항"},
	{Key: BoardMemories, Name: "추억"},
}

package model

import "time"

// RankingEntry is one identity's cumulative competitive record. Scores and
// counts only ever increase; Score Settlement is the sole writer.
type RankingEntry struct {
	UserID    string
	Name      string
	Score     int
	Wins      int
	Losses    int
	UpdatedAt time.Time
}

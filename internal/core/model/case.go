package model

import (
	"time"

	"github.com/adjeilabs/gavel/internal/core/stage"
)

type OpponentType string

const (
	OpponentHuman OpponentType = "human"
	OpponentAI    OpponentType = "ai"
)

type CaseStatus string

const (
	CaseActive    CaseStatus = "active"
	CaseCompleted CaseStatus = "completed"
)

// Case is one courtroom workflow instance. CurrentStage and Status are owned
// by the progression engine; everything else is fixed at creation.
type Case struct {
	UUID         string
	Title        string
	Summary      string
	CaseType     string // "Civil" or "Criminal"
	CreatedBy    string
	OpponentType OpponentType
	// AISide is the side argued by the automated opponent. Empty for
	// human-vs-human cases.
	AISide       Side
	CurrentStage stage.Stage
	Status       CaseStatus
	CreatedAt    time.Time
}

// Participant binds one human identity to one side of one case. At most one
// participant may exist per (case, side); the store enforces it. Participants
// are never mutated or deleted.
type Participant struct {
	CaseUUID  string
	UserID    string
	Side      Side
	CreatedAt time.Time
}

// User is the minimal identity record the engine reads: a display address and
// a role flag. Role "ai" marks a non-human identity that must never be ranked.
type User struct {
	UUID  string
	Email string
	Role  string
}

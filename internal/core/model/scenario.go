package model

import (
	"strings"
	"time"
)

// Scenario is a catalog entry cases are created from.
type Scenario struct {
	UUID       string
	Title      string
	Summary    string
	Facts      string
	Category   string
	LawType    string
	Difficulty string
	CreatedAt  time.Time
}

// CaseType classifies the scenario as Criminal or Civil for the case record.
func (s *Scenario) CaseType() string {
	if s.Category == "Criminal" || strings.Contains(strings.ToLower(s.LawType), "criminal") {
		return "Criminal"
	}
	return "Civil"
}

package model

import (
	"strings"
	"time"
)

// CategoryScores are the adjudicator's per-side marks, each in [0,100].
type CategoryScores struct {
	LegalAccuracy    int `json:"legal_accuracy"`
	EvidenceStrength int `json:"evidence_strength"`
	Persuasion       int `json:"persuasion"`
}

// Headline collapses the three categories into the single score shown on the
// case result (rounded mean).
func (c CategoryScores) Headline() int {
	return (c.LegalAccuracy + c.EvidenceStrength + c.Persuasion + 1) / 3
}

type StageAnalysis struct {
	OpeningStatements  string `json:"opening_statements"`
	PlaintiffCase      string `json:"plaintiff_case"`
	CrossExamination   string `json:"cross_examination"`
	DefendantCase      string `json:"defendant_case"`
	ClosingSubmissions string `json:"closing_submissions"`
}

type SideScores struct {
	LawyerA CategoryScores `json:"lawyer_a"`
	LawyerB CategoryScores `json:"lawyer_b"`
}

// VerdictResult is the structured outcome returned by the adjudicator.
type VerdictResult struct {
	Winner        string        `json:"winner"` // "Lawyer A" or "Lawyer B"
	Reasoning     string        `json:"reasoning"`
	StageAnalysis StageAnalysis `json:"stage_analysis"`
	Citations     []string      `json:"citations"`
	Scores        SideScores    `json:"scores"`
}

// WinnerSide maps the adjudicator's free-text winner onto a side. ok is false
// when neither side wins outright (a draw or an unrecognized value).
func (v *VerdictResult) WinnerSide() (Side, bool) {
	switch strings.TrimSpace(v.Winner) {
	case "Lawyer A":
		return SideA, true
	case "Lawyer B":
		return SideB, true
	}
	return "", false
}

// Verdict is the persisted adjudication outcome, at most one per case.
// Settled flips exactly once when score settlement has been applied.
type Verdict struct {
	CaseUUID  string
	Result    VerdictResult
	Settled   bool
	CreatedAt time.Time
}

// CaseResult is the denormalized outcome row: winner plus the two headline
// scores, keyed by case.
type CaseResult struct {
	CaseUUID  string
	AUserID   string
	BUserID   string
	Winner    string
	ScoreA    int
	ScoreB    int
	CreatedAt time.Time
}

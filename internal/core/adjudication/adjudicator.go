// Package adjudication turns a finished case's transcripts into a structured
// verdict.
package adjudication

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/adjeilabs/gavel/internal/config"
	"github.com/adjeilabs/gavel/internal/core/common"
	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/core/transcript"
	"github.com/adjeilabs/gavel/internal/llm"
)

// ErrNotReady means the case cannot be adjudicated yet: a human-vs-human case
// is missing a participant on one side, or nothing was ever submitted.
var ErrNotReady = errors.New("case is not ready for adjudication")

var sectionHeadings = []string{
	"Opening statements",
	"Plaintiff case presentation (Lawyer A)",
	"Cross-examination",
	"Defendant case presentation (Lawyer B)",
	"Closing submissions",
}

type Adjudicator struct {
	LLM       llm.LLMClient
	Assembler *transcript.Assembler
	Prompts   config.AdjudicatorPrompts
}

func NewAdjudicator(llmClient llm.LLMClient, assembler *transcript.Assembler, prompts config.AdjudicatorPrompts) *Adjudicator {
	return &Adjudicator{
		LLM:       llmClient,
		Assembler: assembler,
		Prompts:   prompts,
	}
}

// Decide gathers the full transcript bundle and asks the adjudicator for a
// verdict. It does not persist anything; the engine owns the write and its
// exactly-once guard.
func (a *Adjudicator) Decide(ctx context.Context, c *model.Case, participants []*model.Participant) (*model.VerdictResult, error) {
	if c.OpponentType == model.OpponentHuman {
		var hasA, hasB bool
		for _, p := range participants {
			switch p.Side {
			case model.SideA:
				hasA = true
			case model.SideB:
				hasB = true
			}
		}
		if !hasA || !hasB {
			return nil, fmt.Errorf("case %s is missing a participant: %w", c.UUID, ErrNotReady)
		}
	}

	transcripts, err := a.Assembler.StageTranscripts(ctx, c)
	if err != nil {
		return nil, err
	}
	empty := true
	for _, t := range transcripts {
		if len(t.A) > 0 || len(t.B) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return nil, fmt.Errorf("case %s has no submissions: %w", c.UUID, ErrNotReady)
	}

	prompt := a.Prompts.System + "\n\n" + fmt.Sprintf(a.Prompts.Verdict, BuildTranscriptBlock(transcripts))

	response, err := a.LLM.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate verdict: %w", err)
	}

	result, err := common.ParseJSON[model.VerdictResult](response)
	if err != nil {
		return nil, fmt.Errorf("failed to parse verdict: %w", err)
	}

	clampScores(&result.Scores.LawyerA)
	clampScores(&result.Scores.LawyerB)
	return &result, nil
}

// BuildTranscriptBlock renders the five labeled stage sections. Sides that
// never submitted render as an explicit placeholder rather than vanishing, so
// the adjudicator always sees the same structure.
func BuildTranscriptBlock(transcripts []transcript.StageTranscript) string {
	var b strings.Builder
	for i, t := range transcripts {
		heading := string(t.Stage)
		if i < len(sectionHeadings) {
			heading = sectionHeadings[i]
		}
		b.WriteString(heading)
		b.WriteString(":\n")
		b.WriteString(sideBlock("Lawyer A", t.A))
		b.WriteString("\n\n")
		b.WriteString(sideBlock("Lawyer B", t.B))
		if i < len(transcripts)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func sideBlock(label string, texts []string) string {
	if len(texts) == 0 {
		return fmt.Sprintf("%s: No submission.", label)
	}
	return fmt.Sprintf("%s: %s", label, transcript.Join(texts))
}

func clampScores(s *model.CategoryScores) {
	s.LegalAccuracy = clamp(s.LegalAccuracy)
	s.EvidenceStrength = clamp(s.EvidenceStrength)
	s.Persuasion = clamp(s.Persuasion)
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

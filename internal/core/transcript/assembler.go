// Package transcript assembles the role-labeled argument history of a case:
// the prompt context for the automated opponent and the per-stage bundle the
// adjudicator rules on.
package transcript

import (
	"context"
	"strings"

	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/core/stage"
	"github.com/adjeilabs/gavel/internal/store"
)

// Separator joins multiple texts occupying one (stage, side) slot.
const Separator = "\n---\n"

func Join(texts []string) string {
	return strings.Join(texts, Separator)
}

// StageTranscript holds both sides' texts for one stage, in creation order.
type StageTranscript struct {
	Stage stage.Stage
	A     []string
	B     []string
}

// BySide returns the texts for one side of the stage.
func (t StageTranscript) BySide(s model.Side) []string {
	if s == model.SideA {
		return t.A
	}
	return t.B
}

// PriorStage is one already-argued stage from the perspective of the side
// being generated for.
type PriorStage struct {
	Stage stage.Stage
	Own   []string
	Other []string
}

// Context is the assembled history for generating one side's next
// contribution. Prior always contains every stage before the current one,
// even when nobody submitted, so prompt structure stays stable.
type Context struct {
	Prior           []PriorStage
	CurrentOpponent []string
}

type Assembler struct {
	store store.Store
}

func NewAssembler(st store.Store) *Assembler {
	return &Assembler{store: st}
}

// SideOf resolves which side authored a submission using the case's
// participant bindings and, for automated cases, its recorded automated-side
// assignment. Submission order plays no part, so partitioning is stable no
// matter who posted first. ok is false for submitters with no binding.
func SideOf(sub *model.Submission, c *model.Case, participants []*model.Participant) (model.Side, bool) {
	if sub.Submitter.Automated {
		if c.OpponentType != model.OpponentAI || !c.AISide.Valid() {
			return "", false
		}
		return c.AISide, true
	}
	for _, p := range participants {
		if p.UserID == sub.Submitter.UserID {
			return p.Side, true
		}
	}
	return "", false
}

// StageTranscripts partitions every submission of the case by stage and side.
// All five argumentation stages are always present, in procedural order, with
// empty slices where nothing was submitted. Output is deterministic given the
// same submission set.
func (a *Assembler) StageTranscripts(ctx context.Context, c *model.Case) ([]StageTranscript, error) {
	participants, err := a.store.ListParticipants(ctx, c.UUID)
	if err != nil {
		return nil, err
	}
	submissions, err := a.store.ListSubmissions(ctx, c.UUID)
	if err != nil {
		return nil, err
	}

	transcripts := make([]StageTranscript, len(stage.Order))
	index := make(map[stage.Stage]int, len(stage.Order))
	for i, st := range stage.Order {
		transcripts[i] = StageTranscript{Stage: st, A: []string{}, B: []string{}}
		index[st] = i
	}

	for _, sub := range submissions {
		i, ok := index[sub.Stage]
		if !ok {
			continue
		}
		side, ok := SideOf(sub, c, participants)
		if !ok {
			continue
		}
		if side == model.SideA {
			transcripts[i].A = append(transcripts[i].A, sub.Transcript)
		} else {
			transcripts[i].B = append(transcripts[i].B, sub.Transcript)
		}
	}

	return transcripts, nil
}

// Assemble builds the generation context for forSide at the given stage: all
// prior stages' texts labeled own/other, plus whatever the opponent has
// already said in the current stage.
func (a *Assembler) Assemble(ctx context.Context, c *model.Case, current stage.Stage, forSide model.Side) (*Context, error) {
	transcripts, err := a.StageTranscripts(ctx, c)
	if err != nil {
		return nil, err
	}

	currentIdx := stage.Index(current)
	if currentIdx == -1 {
		currentIdx = len(transcripts)
	}

	assembled := &Context{Prior: []PriorStage{}, CurrentOpponent: []string{}}
	for i := 0; i < currentIdx; i++ {
		assembled.Prior = append(assembled.Prior, PriorStage{
			Stage: transcripts[i].Stage,
			Own:   transcripts[i].BySide(forSide),
			Other: transcripts[i].BySide(forSide.Opponent()),
		})
	}
	if currentIdx < len(transcripts) {
		assembled.CurrentOpponent = transcripts[currentIdx].BySide(forSide.Opponent())
	}

	return assembled, nil
}

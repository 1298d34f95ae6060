package core

import (
	"context"

	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/core/stage"
	"github.com/adjeilabs/gavel/internal/core/turn"
)

// CaseState is the read model served to clients: case metadata, side
// bindings, current-stage completeness and whose turn it is.
type CaseState struct {
	Case           *model.Case
	Participants   []*model.Participant
	SideASubmitted bool
	SideBSubmitted bool
	// Turn is empty when no side owes a submission (stage complete or terminal).
	Turn model.Side
}

func (e *Engine) CaseState(ctx context.Context, caseID string) (*CaseState, error) {
	c, err := e.Store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	participants, err := e.Store.ListParticipants(ctx, caseID)
	if err != nil {
		return nil, err
	}

	state := &CaseState{Case: c, Participants: participants}
	if !stage.IsTerminal(c.CurrentStage) {
		state.SideASubmitted, state.SideBSubmitted, err = e.stageCompleteness(ctx, caseID, c.CurrentStage)
		if err != nil {
			return nil, err
		}
		if next, ok := turn.WhoseTurn(c.CurrentStage, state.SideASubmitted, state.SideBSubmitted); ok {
			state.Turn = next
		}
	}
	return state, nil
}

func (e *Engine) Verdict(ctx context.Context, caseID string) (*model.Verdict, error) {
	return e.Store.GetVerdict(ctx, caseID)
}

func (e *Engine) Submissions(ctx context.Context, caseID string) ([]*model.Submission, error) {
	return e.Store.ListSubmissions(ctx, caseID)
}

func (e *Engine) Leaderboard(ctx context.Context, limit int) ([]*model.RankingEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return e.Store.ListRankings(ctx, limit)
}

func (e *Engine) Scenarios(ctx context.Context) ([]*model.Scenario, error) {
	return e.Store.ListScenarios(ctx)
}

func (e *Engine) Scenario(ctx context.Context, id string) (*model.Scenario, error) {
	return e.Store.GetScenario(ctx, id)
}

// Package ranking applies adjudication outcomes to the competitive
// leaderboard.
package ranking

import (
	"context"
	"errors"
	"fmt"

	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/store"
)

// Award policy, applied once per verdict.
const (
	WinAward  = 10
	LossAward = 3
	DrawAward = 5
)

type Settler struct {
	store store.Store
}

func NewSettler(st store.Store) *Settler {
	return &Settler{store: st}
}

// Settle applies the verdict's award deltas to both real identities. It runs
// only for human-vs-human cases and claims the verdict's settled flag first,
// so a duplicate trigger never double-counts.
func (s *Settler) Settle(ctx context.Context, c *model.Case, result *model.VerdictResult, participants []*model.Participant) error {
	if c.OpponentType != model.OpponentHuman {
		return nil
	}

	claimed, err := s.store.MarkVerdictSettled(ctx, c.UUID)
	if err != nil {
		return fmt.Errorf("failed to claim settlement for case %s: %w", c.UUID, err)
	}
	if !claimed {
		return nil
	}

	var aUser, bUser string
	for _, p := range participants {
		switch p.Side {
		case model.SideA:
			aUser = p.UserID
		case model.SideB:
			bUser = p.UserID
		}
	}

	winner, decided := result.WinnerSide()
	switch {
	case decided && winner == model.SideA:
		if err := s.award(ctx, aUser, WinAward, 1, 0); err != nil {
			return err
		}
		return s.award(ctx, bUser, LossAward, 0, 1)
	case decided && winner == model.SideB:
		if err := s.award(ctx, bUser, WinAward, 1, 0); err != nil {
			return err
		}
		return s.award(ctx, aUser, LossAward, 0, 1)
	default:
		if err := s.award(ctx, aUser, DrawAward, 0, 0); err != nil {
			return err
		}
		return s.award(ctx, bUser, DrawAward, 0, 0)
	}
}

// award upserts one identity's entry. The automated sentinel and identities
// flagged as non-human are skipped even if they somehow hold a participant
// slot.
func (s *Settler) award(ctx context.Context, userID string, delta, winInc, lossInc int) error {
	if userID == "" || userID == store.AutomatedUserID {
		return nil
	}

	name := userID
	u, err := s.store.GetUser(ctx, userID)
	switch {
	case err == nil:
		if u.Role == "ai" {
			return nil
		}
		if u.Email != "" {
			name = u.Email
		}
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	return s.store.ApplyRankingDelta(ctx, userID, name, delta, winInc, lossInc)
}

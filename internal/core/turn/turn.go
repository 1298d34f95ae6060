// Package turn decides which side owes the next submission for a stage.
package turn

import (
	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/core/stage"
)

// WhoseTurn returns the side that should speak next given which sides have
// already submitted for the stage. ok is false when no side owes a turn:
// the stage is complete, terminal, or unknown.
//
// The policy is deliberately asymmetric: openings and closings run A then B,
// the plaintiff presentation belongs to A alone, the defendant presentation
// to B alone, and cross-examination opens with the responding side (B).
func WhoseTurn(s stage.Stage, aSubmitted, bSubmitted bool) (model.Side, bool) {
	switch s {
	case stage.OpeningStatement, stage.ClosingSubmission:
		if !aSubmitted {
			return model.SideA, true
		}
		if !bSubmitted {
			return model.SideB, true
		}
		return "", false
	case stage.PlaintiffArgument:
		if !aSubmitted {
			return model.SideA, true
		}
		return "", false
	case stage.CrossExamination:
		if !bSubmitted {
			return model.SideB, true
		}
		if !aSubmitted {
			return model.SideA, true
		}
		return "", false
	case stage.DefendantArgument:
		if !bSubmitted {
			return model.SideB, true
		}
		return "", false
	default:
		return "", false
	}
}

package store

import (
	"context"
	"errors"

	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/core/stage"
)

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a uniqueness invariant was hit: the side is already
	// taken, or a submission already exists for the (case, stage, side) slot.
	ErrConflict = errors.New("record already exists")
)

// AutomatedUserID is the reserved sentinel the store uses to persist
// submissions authored by the automated opponent. It never appears in
// participant or ranking records.
const AutomatedUserID = "00000000-0000-0000-0000-000000000000"

// Store is the transactional record store behind the engine. Implementations
// must make AdvanceCaseStage, CreateVerdict and MarkVerdictSettled behave as
// conditional writes: under concurrent calls exactly one caller wins.
type Store interface {
	CreateScenario(ctx context.Context, s *model.Scenario) error
	GetScenario(ctx context.Context, uuid string) (*model.Scenario, error)
	ListScenarios(ctx context.Context) ([]*model.Scenario, error)

	CreateCase(ctx context.Context, c *model.Case) error
	GetCase(ctx context.Context, uuid string) (*model.Case, error)
	// AdvanceCaseStage moves the case from one stage to the next only if it is
	// still at the expected stage. Returns false when another writer got there
	// first.
	AdvanceCaseStage(ctx context.Context, caseUUID string, from, to stage.Stage) (bool, error)
	SetCaseStatus(ctx context.Context, caseUUID string, status model.CaseStatus) error

	// CreateParticipant fails with ErrConflict when the (case, side) slot is
	// already bound to another identity.
	CreateParticipant(ctx context.Context, p *model.Participant) error
	ListParticipants(ctx context.Context, caseUUID string) ([]*model.Participant, error)

	// CreateSubmission fails with ErrConflict when a submission already exists
	// for the (case, stage, side) slot.
	CreateSubmission(ctx context.Context, s *model.Submission) error
	// ListSubmissions returns every submission for the case in creation order.
	ListSubmissions(ctx context.Context, caseUUID string) ([]*model.Submission, error)

	// CreateVerdict persists the verdict unless one already exists for the
	// case. Returns false (and no error) when it was already present.
	CreateVerdict(ctx context.Context, v *model.Verdict) (bool, error)
	GetVerdict(ctx context.Context, caseUUID string) (*model.Verdict, error)
	// MarkVerdictSettled flips the settled flag; false means settlement was
	// already applied by another caller.
	MarkVerdictSettled(ctx context.Context, caseUUID string) (bool, error)
	CreateCaseResult(ctx context.Context, r *model.CaseResult) error

	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, uuid string) (*model.User, error)

	// ApplyRankingDelta upserts one identity's ranking entry: creates it with
	// the delta floor-clamped at zero, or adds delta and increments counts.
	// The write is atomic per identity.
	ApplyRankingDelta(ctx context.Context, userID, name string, delta, winInc, lossInc int) error
	ListRankings(ctx context.Context, limit int) ([]*model.RankingEntry, error)

	Close(ctx context.Context) error
}

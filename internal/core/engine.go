package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adjeilabs/gavel/internal/config"
	"github.com/adjeilabs/gavel/internal/core/adjudication"
	"github.com/adjeilabs/gavel/internal/core/common"
	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/core/opponent"
	"github.com/adjeilabs/gavel/internal/core/ranking"
	"github.com/adjeilabs/gavel/internal/core/stage"
	"github.com/adjeilabs/gavel/internal/core/transcript"
	"github.com/adjeilabs/gavel/internal/core/turn"
	"github.com/adjeilabs/gavel/internal/llm"
	"github.com/adjeilabs/gavel/internal/store"
)

var (
	// ErrValidation means a required field was missing or malformed.
	ErrValidation = errors.New("missing required fields")
	// ErrCaseClosed means the case has reached the verdict stage or was
	// completed and accepts no further submissions.
	ErrCaseClosed = errors.New("case is no longer accepting submissions")
	// ErrNotParticipant means the submitting identity holds no side in the case.
	ErrNotParticipant = errors.New("identity is not a participant in this case")
	// ErrUpstream means an external collaborator kept failing after retries.
	// Case state is unchanged when it is returned.
	ErrUpstream = errors.New("upstream service failed")
)

// Engine drives case progression: it accepts submissions, advances stages
// with conditional writes, dispatches the automated opponent, and triggers
// adjudication and score settlement exactly once per case.
type Engine struct {
	Store       store.Store
	Transcriber llm.Transcriber
	Assembler   *transcript.Assembler
	Opponent    *opponent.Generator
	Adjudicator *adjudication.Adjudicator
	Settler     *ranking.Settler
	Config      *config.Config

	background sync.WaitGroup
}

func NewEngine(st store.Store, llmClient llm.LLMClient, transcriber llm.Transcriber, cfg *config.Config) *Engine {
	assembler := transcript.NewAssembler(st)
	return &Engine{
		Store:       st,
		Transcriber: transcriber,
		Assembler:   assembler,
		Opponent:    opponent.NewGenerator(llmClient, assembler, cfg.Opponent),
		Adjudicator: adjudication.NewAdjudicator(llmClient, assembler, cfg.Adjudicator),
		Settler:     ranking.NewSettler(st),
		Config:      cfg,
	}
}

// Wait blocks until all background opponent and adjudication tasks finish.
// Used by tests and graceful shutdown.
func (e *Engine) Wait() {
	e.background.Wait()
}

func (e *Engine) retryAttempts() int {
	if e.Config.Engine.RetryAttempts > 0 {
		return e.Config.Engine.RetryAttempts
	}
	return 3
}

func (e *Engine) retryBackoff() time.Duration {
	if e.Config.Engine.RetryBackoffMs > 0 {
		return time.Duration(e.Config.Engine.RetryBackoffMs) * time.Millisecond
	}
	return 500 * time.Millisecond
}

func (e *Engine) llmTimeout() time.Duration {
	if e.Config.Engine.LLMTimeoutSec > 0 {
		return time.Duration(e.Config.Engine.LLMTimeoutSec) * time.Second
	}
	return 120 * time.Second
}

// CreateCase instantiates a case from a scenario and binds the creator to a
// side. With an automated opponent the creator always argues side A and side
// B is reserved for the generator; no participant record is written for it.
func (e *Engine) CreateCase(ctx context.Context, scenarioID, userID string, side model.Side, oppType model.OpponentType) (*model.Case, error) {
	if scenarioID == "" || userID == "" {
		return nil, fmt.Errorf("scenario and user are required: %w", ErrValidation)
	}

	scenario, err := e.Store.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	if oppType == "" {
		oppType = model.OpponentHuman
	}
	aiSide := model.Side("")
	switch oppType {
	case model.OpponentAI:
		side = model.SideA
		aiSide = model.SideB
	case model.OpponentHuman:
		if !side.Valid() {
			return nil, fmt.Errorf("side is required for a human opponent: %w", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("unknown opponent type %q: %w", oppType, ErrValidation)
	}

	summary := scenario.Facts
	if summary == "" {
		summary = scenario.Summary
	}

	c := &model.Case{
		UUID:         uuid.New().String(),
		Title:        scenario.Title,
		Summary:      summary,
		CaseType:     scenario.CaseType(),
		CreatedBy:    userID,
		OpponentType: oppType,
		AISide:       aiSide,
		CurrentStage: stage.OpeningStatement,
		Status:       model.CaseActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.Store.CreateCase(ctx, c); err != nil {
		return nil, err
	}

	p := &model.Participant{
		CaseUUID:  c.UUID,
		UserID:    userID,
		Side:      side,
		CreatedAt: c.CreatedAt,
	}
	if err := e.Store.CreateParticipant(ctx, p); err != nil {
		return nil, err
	}

	return c, nil
}

// JoinCase binds an identity to a free side of an existing case.
func (e *Engine) JoinCase(ctx context.Context, caseID, userID string, side model.Side) (*model.Participant, error) {
	if caseID == "" || userID == "" || !side.Valid() {
		return nil, fmt.Errorf("case, user and side are required: %w", ErrValidation)
	}

	c, err := e.Store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.OpponentType == model.OpponentAI && side == c.AISide {
		return nil, fmt.Errorf("side %s is reserved for the automated opponent: %w", side, store.ErrConflict)
	}

	p := &model.Participant{
		CaseUUID:  caseID,
		UserID:    userID,
		Side:      side,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.Store.CreateParticipant(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SubmitTranscript records one argument for the case's current stage and
// evaluates progression: advance the stage when both sides are in, or hand
// the turn to the automated opponent when it owes a reply.
func (e *Engine) SubmitTranscript(ctx context.Context, caseID string, submitter model.Submitter, transcriptText, audioRef string) (*model.Submission, error) {
	if caseID == "" || transcriptText == "" {
		return nil, fmt.Errorf("case and transcript are required: %w", ErrValidation)
	}
	if !submitter.Automated && submitter.UserID == "" {
		return nil, fmt.Errorf("submitter is required: %w", ErrValidation)
	}

	c, err := e.Store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if stage.IsTerminal(c.CurrentStage) || c.Status != model.CaseActive {
		return nil, fmt.Errorf("case %s: %w", caseID, ErrCaseClosed)
	}

	side, err := e.resolveSide(ctx, c, submitter)
	if err != nil {
		return nil, err
	}

	sub := &model.Submission{
		UUID:       uuid.New().String(),
		CaseUUID:   caseID,
		Stage:      c.CurrentStage,
		Submitter:  submitter,
		Side:       side,
		Transcript: transcriptText,
		AudioRef:   audioRef,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.Store.CreateSubmission(ctx, sub); err != nil {
		return nil, err
	}

	if err := e.evaluateProgression(ctx, c, c.CurrentStage, submitter); err != nil {
		return nil, err
	}

	return sub, nil
}

// SubmitAudio transcribes a recording and submits the resulting text.
// Transcription failures leave no partial state behind.
func (e *Engine) SubmitAudio(ctx context.Context, caseID string, submitter model.Submitter, filename string, audio io.Reader) (*model.Submission, error) {
	if e.Transcriber == nil {
		return nil, fmt.Errorf("configured llm provider cannot transcribe audio: %w", ErrUpstream)
	}

	data, err := io.ReadAll(audio)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("audio payload is empty: %w", ErrValidation)
	}

	var text string
	err = common.Retry(ctx, e.retryAttempts(), e.retryBackoff(), func(ctx context.Context) error {
		t, terr := e.Transcriber.Transcribe(ctx, filename, bytes.NewReader(data))
		if terr != nil {
			return terr
		}
		text = t
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %v: %w", err, ErrUpstream)
	}

	return e.SubmitTranscript(ctx, caseID, submitter, text, filename)
}

func (e *Engine) resolveSide(ctx context.Context, c *model.Case, submitter model.Submitter) (model.Side, error) {
	if submitter.Automated {
		if c.OpponentType != model.OpponentAI || !c.AISide.Valid() {
			return "", fmt.Errorf("case %s has no automated opponent: %w", c.UUID, ErrValidation)
		}
		return c.AISide, nil
	}

	participants, err := e.Store.ListParticipants(ctx, c.UUID)
	if err != nil {
		return "", err
	}
	for _, p := range participants {
		if p.UserID == submitter.UserID {
			return p.Side, nil
		}
	}
	return "", fmt.Errorf("user %s in case %s: %w", submitter.UserID, c.UUID, ErrNotParticipant)
}

// evaluateProgression recomputes current-stage completeness after a new
// submission. The stage write is conditional on the observed stage, so two
// racing submissions advance the case exactly once; only the winner of the
// terminal transition triggers adjudication.
func (e *Engine) evaluateProgression(ctx context.Context, c *model.Case, at stage.Stage, submitter model.Submitter) error {
	aDone, bDone, err := e.stageCompleteness(ctx, c.UUID, at)
	if err != nil {
		return err
	}

	if aDone && bDone {
		next := stage.Next(at)
		advanced, err := e.Store.AdvanceCaseStage(ctx, c.UUID, at, next)
		if err != nil {
			return err
		}
		if advanced && stage.IsTerminal(next) {
			e.spawnAdjudication(c.UUID)
		}
		return nil
	}

	if c.OpponentType == model.OpponentAI && !submitter.Automated {
		if next, ok := turn.WhoseTurn(at, aDone, bDone); ok && next == c.AISide {
			e.spawnOpponentReply(c.UUID, at)
		}
	}
	return nil
}

func (e *Engine) stageCompleteness(ctx context.Context, caseID string, at stage.Stage) (aDone, bDone bool, err error) {
	submissions, err := e.Store.ListSubmissions(ctx, caseID)
	if err != nil {
		return false, false, err
	}
	for _, sub := range submissions {
		if sub.Stage != at {
			continue
		}
		switch sub.Side {
		case model.SideA:
			aDone = true
		case model.SideB:
			bDone = true
		}
	}
	return aDone, bDone, nil
}

// AdvanceStage moves the case forward without waiting for both sides, the
// way the bench closes a stage. The write is still conditional; if another
// writer advanced concurrently this is a no-op reporting the newer stage.
func (e *Engine) AdvanceStage(ctx context.Context, caseID string) (stage.Stage, error) {
	c, err := e.Store.GetCase(ctx, caseID)
	if err != nil {
		return "", err
	}
	if stage.IsTerminal(c.CurrentStage) {
		return c.CurrentStage, nil
	}

	next := stage.Next(c.CurrentStage)
	advanced, err := e.Store.AdvanceCaseStage(ctx, caseID, c.CurrentStage, next)
	if err != nil {
		return "", err
	}
	if !advanced {
		current, err := e.Store.GetCase(ctx, caseID)
		if err != nil {
			return "", err
		}
		return current.CurrentStage, nil
	}

	if stage.IsTerminal(next) {
		e.spawnAdjudication(caseID)
	}
	return next, nil
}

// Adjudicate runs the full adjudication pipeline for a terminal-stage case.
// It is idempotent: an existing verdict short-circuits, and the denormalized
// result, completion status and settlement all converge on re-trigger.
func (e *Engine) Adjudicate(ctx context.Context, caseID string) (*model.Verdict, error) {
	c, err := e.Store.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !stage.IsTerminal(c.CurrentStage) {
		return nil, fmt.Errorf("case %s has not reached the verdict stage: %w", caseID, adjudication.ErrNotReady)
	}

	participants, err := e.Store.ListParticipants(ctx, caseID)
	if err != nil {
		return nil, err
	}

	verdict, err := e.Store.GetVerdict(ctx, caseID)
	switch {
	case err == nil:
		// Already adjudicated; fall through to heal any missing follow-up writes.
	case errors.Is(err, store.ErrNotFound):
		result, derr := e.decideWithRetry(ctx, c, participants)
		if derr != nil {
			return nil, derr
		}
		v := &model.Verdict{
			CaseUUID:  caseID,
			Result:    *result,
			CreatedAt: time.Now().UTC(),
		}
		if _, cerr := e.Store.CreateVerdict(ctx, v); cerr != nil {
			return nil, cerr
		}
		// Re-read rather than trust our copy: a concurrent trigger may have
		// won the create with a different result.
		verdict, err = e.Store.GetVerdict(ctx, caseID)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := e.finalizeVerdict(ctx, c, verdict, participants); err != nil {
		return nil, err
	}
	return verdict, nil
}

func (e *Engine) decideWithRetry(ctx context.Context, c *model.Case, participants []*model.Participant) (*model.VerdictResult, error) {
	var result *model.VerdictResult
	decide := func(ctx context.Context) error {
		r, err := e.Adjudicator.Decide(ctx, c, participants)
		if err != nil {
			return err
		}
		result = r
		return nil
	}

	err := decide(ctx)
	if err != nil && !errors.Is(err, adjudication.ErrNotReady) && e.retryAttempts() > 1 {
		err = common.Retry(ctx, e.retryAttempts()-1, e.retryBackoff(), decide)
	}
	if err != nil {
		if errors.Is(err, adjudication.ErrNotReady) {
			return nil, err
		}
		return nil, fmt.Errorf("adjudication failed: %v: %w", err, ErrUpstream)
	}
	return result, nil
}

// finalizeVerdict writes the denormalized result, flips the case to
// completed and applies settlement. Each step is idempotent so a duplicate
// trigger or an earlier partial failure converges instead of double-applying.
func (e *Engine) finalizeVerdict(ctx context.Context, c *model.Case, v *model.Verdict, participants []*model.Participant) error {
	aUser, bUser := sideUsers(c, participants)
	result := &model.CaseResult{
		CaseUUID:  c.UUID,
		AUserID:   aUser,
		BUserID:   bUser,
		Winner:    v.Result.Winner,
		ScoreA:    v.Result.Scores.LawyerA.Headline(),
		ScoreB:    v.Result.Scores.LawyerB.Headline(),
		CreatedAt: time.Now().UTC(),
	}
	if err := e.Store.CreateCaseResult(ctx, result); err != nil {
		return err
	}
	if err := e.Store.SetCaseStatus(ctx, c.UUID, model.CaseCompleted); err != nil {
		return err
	}
	return e.Settler.Settle(ctx, c, &v.Result, participants)
}

func sideUsers(c *model.Case, participants []*model.Participant) (aUser, bUser string) {
	for _, p := range participants {
		switch p.Side {
		case model.SideA:
			aUser = p.UserID
		case model.SideB:
			bUser = p.UserID
		}
	}
	if c.OpponentType == model.OpponentAI {
		switch c.AISide {
		case model.SideA:
			aUser = store.AutomatedUserID
		case model.SideB:
			bUser = store.AutomatedUserID
		}
	}
	return aUser, bUser
}

func (e *Engine) spawnAdjudication(caseID string) {
	e.background.Add(1)
	go func() {
		defer e.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*e.llmTimeout())
		defer cancel()
		if _, err := e.Adjudicate(ctx, caseID); err != nil {
			log.Printf("Adjudication for case %s failed: %v", caseID, err)
		}
	}()
}

// spawnOpponentReply generates the automated side's argument in the
// background. The reply re-enters through SubmitTranscript, so it drives
// progression through the same path as a human submission; a duplicate
// trigger dies on the submission uniqueness constraint.
func (e *Engine) spawnOpponentReply(caseID string, at stage.Stage) {
	e.background.Add(1)
	go func() {
		defer e.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*e.llmTimeout())
		defer cancel()

		c, err := e.Store.GetCase(ctx, caseID)
		if err != nil {
			log.Printf("Opponent reply for case %s aborted: %v", caseID, err)
			return
		}
		if c.CurrentStage != at {
			// The stage moved on (manual advance) before the reply landed.
			log.Printf("Opponent reply for case %s skipped: stage moved from %s to %s", caseID, at, c.CurrentStage)
			return
		}

		var text string
		err = common.Retry(ctx, e.retryAttempts(), e.retryBackoff(), func(ctx context.Context) error {
			t, gerr := e.Opponent.Respond(ctx, c, at)
			if gerr != nil {
				return gerr
			}
			text = t
			return nil
		})
		if err != nil {
			log.Printf("Opponent generation for case %s stage %s failed: %v", caseID, at, err)
			return
		}

		if _, err := e.SubmitTranscript(ctx, caseID, model.AutomatedSubmitter(), text, ""); err != nil {
			if errors.Is(err, store.ErrConflict) || errors.Is(err, ErrCaseClosed) {
				log.Printf("Opponent reply for case %s stage %s dropped: %v", caseID, at, err)
				return
			}
			log.Printf("Failed to record opponent reply for case %s: %v", caseID, err)
		}
	}()
}

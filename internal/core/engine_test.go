package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adjeilabs/gavel/internal/config"
	"github.com/adjeilabs/gavel/internal/core/adjudication"
	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/core/ranking"
	"github.com/adjeilabs/gavel/internal/core/stage"
	"github.com/adjeilabs/gavel/internal/store"
)

// mockLLM pops queued responses in order and falls back to a fixed response
// once the queue drains. Safe for the engine's background goroutines.
type mockLLM struct {
	mu       sync.Mutex
	queue    []string
	fallback string
	err      error
	calls    int
}

func (m *mockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.queue) > 0 {
		r := m.queue[0]
		m.queue = m.queue[1:]
		return r, nil
	}
	return m.fallback, nil
}

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockTranscriber struct {
	text string
	err  error
}

func (m *mockTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

const verdictFixture = `{
  "winner": "Lawyer A",
  "reasoning": "The plaintiff's evidence was materially stronger.",
  "stage_analysis": {
    "opening_statements": "Balanced.",
    "plaintiff_case": "Well documented.",
    "cross_examination": "Decisive concession by B.",
    "defendant_case": "Unsupported assertions.",
    "closing_submissions": "A tied the record together."
  },
  "citations": ["Evidence Act (NRCD 323)"],
  "scores": {
    "lawyer_a": {"legal_accuracy": 80, "evidence_strength": 75, "persuasion": 70},
    "lawyer_b": {"legal_accuracy": 60, "evidence_strength": 65, "persuasion": 55}
  }
}`

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Engine.RetryAttempts = 2
	cfg.Engine.RetryBackoffMs = 1
	cfg.Engine.LLMTimeoutSec = 5
	return cfg
}

func newTestEngine(t *testing.T, llmClient *mockLLM) (*Engine, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, store.SeedScenarios(context.Background(), st))
	e := NewEngine(st, llmClient, &mockTranscriber{text: "transcribed argument"}, testConfig())
	return e, st
}

func firstScenario(t *testing.T, e *Engine) *model.Scenario {
	t.Helper()
	scenarios, err := e.Scenarios(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)
	return scenarios[0]
}

func newHumanCase(t *testing.T, e *Engine) *model.Case {
	t.Helper()
	ctx := context.Background()
	c, err := e.CreateCase(ctx, firstScenario(t, e).UUID, "user-a", model.SideA, model.OpponentHuman)
	require.NoError(t, err)
	_, err = e.JoinCase(ctx, c.UUID, "user-b", model.SideB)
	require.NoError(t, err)
	return c
}

func TestCreateCaseWithAutomatedOpponent(t *testing.T) {
	e, st := newTestEngine(t, &mockLLM{})
	ctx := context.Background()

	// The requested side is ignored: the creator always takes A.
	c, err := e.CreateCase(ctx, firstScenario(t, e).UUID, "user-a", model.SideB, model.OpponentAI)
	require.NoError(t, err)
	assert.Equal(t, model.SideB, c.AISide)
	assert.Equal(t, stage.OpeningStatement, c.CurrentStage)
	assert.Equal(t, model.CaseActive, c.Status)
	assert.NotEmpty(t, c.Summary)

	parts, err := st.ListParticipants(ctx, c.UUID)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "user-a", parts[0].UserID)
	assert.Equal(t, model.SideA, parts[0].Side)
}

func TestCreateCaseValidation(t *testing.T) {
	e, _ := newTestEngine(t, &mockLLM{})
	ctx := context.Background()
	scenarioID := firstScenario(t, e).UUID

	_, err := e.CreateCase(ctx, "", "user-a", model.SideA, model.OpponentHuman)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.CreateCase(ctx, scenarioID, "user-a", model.Side("C"), model.OpponentHuman)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.CreateCase(ctx, scenarioID, "user-a", model.SideA, model.OpponentType("robot"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.CreateCase(ctx, "missing-scenario", "user-a", model.SideA, model.OpponentHuman)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestJoinCaseRejectsReservedAndTakenSides(t *testing.T) {
	e, _ := newTestEngine(t, &mockLLM{})
	ctx := context.Background()

	c, err := e.CreateCase(ctx, firstScenario(t, e).UUID, "user-a", model.SideA, model.OpponentAI)
	require.NoError(t, err)

	_, err = e.JoinCase(ctx, c.UUID, "user-b", model.SideB)
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = e.JoinCase(ctx, c.UUID, "user-b", model.SideA)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestSubmitTranscriptRejectsNonParticipants(t *testing.T) {
	e, _ := newTestEngine(t, &mockLLM{})
	c := newHumanCase(t, e)

	_, err := e.SubmitTranscript(context.Background(), c.UUID, model.HumanSubmitter("stranger"), "I object.", "")
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestSubmitTranscriptRejectsClosedCases(t *testing.T) {
	e, st := newTestEngine(t, &mockLLM{})
	c := newHumanCase(t, e)
	ctx := context.Background()

	advanced, err := st.AdvanceCaseStage(ctx, c.UUID, stage.OpeningStatement, stage.Verdict)
	require.NoError(t, err)
	require.True(t, advanced)

	_, err = e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "One more thing.", "")
	assert.ErrorIs(t, err, ErrCaseClosed)
}

func TestSubmitTranscriptRejectsDuplicateSlot(t *testing.T) {
	e, _ := newTestEngine(t, &mockLLM{})
	c := newHumanCase(t, e)
	ctx := context.Background()

	_, err := e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "Opening.", "")
	require.NoError(t, err)
	_, err = e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "Opening again.", "")
	assert.ErrorIs(t, err, store.ErrConflict)
}

// Ten submissions, two per stage, walk a human case from opening statements to
// the verdict: the stage advances on each completed pair, adjudication fires
// on the terminal transition, and both identities get their awards.
func TestHumanCaseEndToEnd(t *testing.T) {
	llm := &mockLLM{queue: []string{verdictFixture}}
	e, st := newTestEngine(t, llm)
	c := newHumanCase(t, e)
	ctx := context.Background()

	for i, at := range stage.Order {
		state, err := e.CaseState(ctx, c.UUID)
		require.NoError(t, err)
		require.Equal(t, at, state.Case.CurrentStage)

		_, err = e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), fmt.Sprintf("a argues stage %d", i), "")
		require.NoError(t, err)
		_, err = e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-b"), fmt.Sprintf("b argues stage %d", i), "")
		require.NoError(t, err)
	}
	e.Wait()

	got, err := st.GetCase(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, stage.Verdict, got.CurrentStage)
	assert.Equal(t, model.CaseCompleted, got.Status)

	v, err := e.Verdict(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Lawyer A", v.Result.Winner)
	assert.True(t, v.Settled)

	subs, err := e.Submissions(ctx, c.UUID)
	require.NoError(t, err)
	assert.Len(t, subs, 10)

	board, err := e.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "user-a", board[0].UserID)
	assert.Equal(t, ranking.WinAward, board[0].Score)
	assert.Equal(t, 1, board[0].Wins)
	assert.Equal(t, "user-b", board[1].UserID)
	assert.Equal(t, ranking.LossAward, board[1].Score)
	assert.Equal(t, 1, board[1].Losses)

	// One adjudication call served the whole pipeline.
	assert.Equal(t, 1, llm.callCount())
}

// Both sides racing to complete the same stage produce exactly one stage
// transition: each racer's progression check may observe a full stage, but
// the conditional write lets only one through.
func TestConcurrentSubmissionsAdvanceOnce(t *testing.T) {
	e, st := newTestEngine(t, &mockLLM{})
	ctx := context.Background()

	for round := 0; round < 10; round++ {
		c := newHumanCase(t, e)

		var wg sync.WaitGroup
		for _, sub := range []struct {
			user string
			text string
		}{
			{"user-a", "a opens"},
			{"user-b", "b opens"},
		} {
			wg.Add(1)
			go func(user, text string) {
				defer wg.Done()
				_, err := e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter(user), text, "")
				assert.NoError(t, err)
			}(sub.user, sub.text)
		}
		wg.Wait()
		e.Wait()

		got, err := st.GetCase(ctx, c.UUID)
		require.NoError(t, err)
		assert.Equal(t, stage.PlaintiffArgument, got.CurrentStage)

		subs, err := e.Submissions(ctx, c.UUID)
		require.NoError(t, err)
		assert.Len(t, subs, 2)
	}
}

func TestAdjudicateRequiresTerminalStage(t *testing.T) {
	e, _ := newTestEngine(t, &mockLLM{fallback: verdictFixture})
	c := newHumanCase(t, e)

	_, err := e.Adjudicate(context.Background(), c.UUID)
	assert.ErrorIs(t, err, adjudication.ErrNotReady)
}

func TestAdjudicateNotReadyIsNotRetried(t *testing.T) {
	llm := &mockLLM{fallback: verdictFixture}
	e, st := newTestEngine(t, llm)
	ctx := context.Background()

	// A human case that somehow reached the verdict stage with one side
	// never bound: not adjudicable, and not an upstream failure either.
	c, err := e.CreateCase(ctx, firstScenario(t, e).UUID, "user-a", model.SideA, model.OpponentHuman)
	require.NoError(t, err)
	advanced, err := st.AdvanceCaseStage(ctx, c.UUID, stage.OpeningStatement, stage.Verdict)
	require.NoError(t, err)
	require.True(t, advanced)

	_, err = e.Adjudicate(ctx, c.UUID)
	assert.ErrorIs(t, err, adjudication.ErrNotReady)
	assert.NotErrorIs(t, err, ErrUpstream)
	assert.Zero(t, llm.callCount())
}

func TestAdjudicateIsIdempotent(t *testing.T) {
	llm := &mockLLM{fallback: verdictFixture}
	e, st := newTestEngine(t, llm)
	c := newHumanCase(t, e)
	ctx := context.Background()

	_, err := e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "a opens", "")
	require.NoError(t, err)
	advanced, err := st.AdvanceCaseStage(ctx, c.UUID, stage.OpeningStatement, stage.Verdict)
	require.NoError(t, err)
	require.True(t, advanced)

	first, err := e.Adjudicate(ctx, c.UUID)
	require.NoError(t, err)
	second, err := e.Adjudicate(ctx, c.UUID)
	require.NoError(t, err)

	assert.Equal(t, first.Result.Winner, second.Result.Winner)
	// The second trigger reuses the stored verdict.
	assert.Equal(t, 1, llm.callCount())

	// Settlement applied once despite the double trigger.
	board, err := e.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, ranking.WinAward, board[0].Score)
	assert.Equal(t, 1, board[0].Wins)
}

func TestAdjudicateRetriesTransientFailures(t *testing.T) {
	// First generation is unparseable, the retry returns a valid verdict.
	llm := &mockLLM{queue: []string{"the court is adjourned", verdictFixture}}
	e, st := newTestEngine(t, llm)
	c := newHumanCase(t, e)
	ctx := context.Background()

	_, err := e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "a opens", "")
	require.NoError(t, err)
	advanced, err := st.AdvanceCaseStage(ctx, c.UUID, stage.OpeningStatement, stage.Verdict)
	require.NoError(t, err)
	require.True(t, advanced)

	v, err := e.Adjudicate(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Lawyer A", v.Result.Winner)
	assert.Equal(t, 2, llm.callCount())
}

func TestAdjudicateWrapsExhaustedRetries(t *testing.T) {
	llm := &mockLLM{err: errors.New("provider down")}
	e, st := newTestEngine(t, llm)
	c := newHumanCase(t, e)
	ctx := context.Background()

	_, err := e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "a opens", "")
	require.NoError(t, err)
	advanced, err := st.AdvanceCaseStage(ctx, c.UUID, stage.OpeningStatement, stage.Verdict)
	require.NoError(t, err)
	require.True(t, advanced)

	_, err = e.Adjudicate(ctx, c.UUID)
	assert.ErrorIs(t, err, ErrUpstream)

	// Nothing was persisted on failure.
	_, err = st.GetVerdict(ctx, c.UUID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	got, err := st.GetCase(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, model.CaseActive, got.Status)
}

// An automated case runs to the verdict on the strength of the human's
// submissions, the generator's replies, and two bench advances for the
// single-sided stages. No leaderboard entries result.
func TestAutomatedCaseEndToEnd(t *testing.T) {
	llm := &mockLLM{fallback: "The defence disputes every element of the claim."}
	e, st := newTestEngine(t, llm)
	ctx := context.Background()

	c, err := e.CreateCase(ctx, firstScenario(t, e).UUID, "user-a", model.SideA, model.OpponentAI)
	require.NoError(t, err)

	// Opening statements: the human opens, the machine answers, the pair
	// completes the stage.
	_, err = e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "a opens", "")
	require.NoError(t, err)
	e.Wait()

	got, err := st.GetCase(ctx, c.UUID)
	require.NoError(t, err)
	require.Equal(t, stage.PlaintiffArgument, got.CurrentStage)

	subs, err := e.Submissions(ctx, c.UUID)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	var automated *model.Submission
	for _, s := range subs {
		if s.Submitter.Automated {
			automated = s
		}
	}
	require.NotNil(t, automated)
	assert.Equal(t, model.SideB, automated.Side)
	assert.Empty(t, automated.Submitter.UserID)

	// Plaintiff presentation belongs to the human alone; the bench closes it.
	_, err = e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "a presents", "")
	require.NoError(t, err)
	e.Wait()
	next, err := e.AdvanceStage(ctx, c.UUID)
	require.NoError(t, err)
	require.Equal(t, stage.CrossExamination, next)

	// Cross-examination: the human's questions hand the turn to the machine.
	_, err = e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "a cross-examines", "")
	require.NoError(t, err)
	e.Wait()
	got, err = st.GetCase(ctx, c.UUID)
	require.NoError(t, err)
	require.Equal(t, stage.DefendantArgument, got.CurrentStage)

	// Defendant presentation belongs to the machine; prompt it by closing
	// the human's half, then let the bench move the case along.
	_, err = e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "a responds to the defence", "")
	require.NoError(t, err)
	e.Wait()
	got, err = st.GetCase(ctx, c.UUID)
	require.NoError(t, err)
	require.Equal(t, stage.ClosingSubmission, got.CurrentStage)

	// Closing submissions: queue the verdict behind the machine's close.
	llm.mu.Lock()
	llm.queue = []string{"The defence rests.", verdictFixture}
	llm.mu.Unlock()
	_, err = e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "a closes", "")
	require.NoError(t, err)
	e.Wait()

	got, err = st.GetCase(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, stage.Verdict, got.CurrentStage)
	assert.Equal(t, model.CaseCompleted, got.Status)

	v, err := e.Verdict(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Lawyer A", v.Result.Winner)
	// Settlement never touches automated cases.
	assert.False(t, v.Settled)
	board, err := e.Leaderboard(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, board)
}

func TestAdvanceStageIsNoopOnTerminal(t *testing.T) {
	e, st := newTestEngine(t, &mockLLM{})
	c := newHumanCase(t, e)
	ctx := context.Background()

	advanced, err := st.AdvanceCaseStage(ctx, c.UUID, stage.OpeningStatement, stage.Verdict)
	require.NoError(t, err)
	require.True(t, advanced)

	got, err := e.AdvanceStage(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, stage.Verdict, got)
	e.Wait()
}

func TestManualAdvanceIntoVerdictTriggersAdjudication(t *testing.T) {
	llm := &mockLLM{fallback: verdictFixture}
	e, st := newTestEngine(t, llm)
	c := newHumanCase(t, e)
	ctx := context.Background()

	advanced, err := st.AdvanceCaseStage(ctx, c.UUID, stage.OpeningStatement, stage.ClosingSubmission)
	require.NoError(t, err)
	require.True(t, advanced)
	_, err = e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "a closes", "")
	require.NoError(t, err)

	next, err := e.AdvanceStage(ctx, c.UUID)
	require.NoError(t, err)
	require.Equal(t, stage.Verdict, next)
	e.Wait()

	v, err := e.Verdict(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Lawyer A", v.Result.Winner)
}

func TestCaseStateReportsTurn(t *testing.T) {
	e, _ := newTestEngine(t, &mockLLM{})
	c := newHumanCase(t, e)
	ctx := context.Background()

	state, err := e.CaseState(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, model.SideA, state.Turn)
	assert.False(t, state.SideASubmitted)

	_, err = e.SubmitTranscript(ctx, c.UUID, model.HumanSubmitter("user-a"), "a opens", "")
	require.NoError(t, err)

	state, err = e.CaseState(ctx, c.UUID)
	require.NoError(t, err)
	assert.Equal(t, model.SideB, state.Turn)
	assert.True(t, state.SideASubmitted)
	assert.False(t, state.SideBSubmitted)
}

func TestSubmitAudioTranscribesAndSubmits(t *testing.T) {
	e, _ := newTestEngine(t, &mockLLM{})
	c := newHumanCase(t, e)
	ctx := context.Background()

	sub, err := e.SubmitAudio(ctx, c.UUID, model.HumanSubmitter("user-a"), "opening.webm", strings.NewReader("fake-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "transcribed argument", sub.Transcript)
	assert.Equal(t, "opening.webm", sub.AudioRef)
	e.Wait()
}

func TestSubmitAudioFailuresLeaveNoState(t *testing.T) {
	st := store.NewMemoryStore()
	require.NoError(t, store.SeedScenarios(context.Background(), st))
	e := NewEngine(st, &mockLLM{}, &mockTranscriber{err: errors.New("whisper down")}, testConfig())
	c := newHumanCase(t, e)
	ctx := context.Background()

	_, err := e.SubmitAudio(ctx, c.UUID, model.HumanSubmitter("user-a"), "opening.webm", strings.NewReader("fake-bytes"))
	assert.ErrorIs(t, err, ErrUpstream)

	subs, err := e.Submissions(ctx, c.UUID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	_, err = e.SubmitAudio(ctx, c.UUID, model.HumanSubmitter("user-a"), "opening.webm", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrValidation)
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/core/stage"
)

// MemgraphStore persists all engine records in Memgraph over the Bolt
// protocol. Uniqueness invariants ride on keyed MERGEs and the stage/settled
// writes are conditional, so no client-side locking is needed.
type MemgraphStore struct {
	Driver neo4j.DriverWithContext
}

func NewMemgraphStore(uri, username, password string) (*MemgraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Connected to Memgraph")
	return &MemgraphStore{Driver: driver}, nil
}

func (m *MemgraphStore) Close(ctx context.Context) error {
	return m.Driver.Close(ctx)
}

func (m *MemgraphStore) execute(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, m.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

// BuildIndices creates lookup indices for the record labels. Failures are
// logged and skipped since the index may already exist.
func (m *MemgraphStore) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX ON :Scenario(uuid);",
		"CREATE INDEX ON :Case(uuid);",
		"CREATE INDEX ON :Participant(case_uuid);",
		"CREATE INDEX ON :Submission(case_uuid);",
		"CREATE INDEX ON :Verdict(case_uuid);",
		"CREATE INDEX ON :CaseResult(case_uuid);",
		"CREATE INDEX ON :User(uuid);",
		"CREATE INDEX ON :Ranking(user_id);",
	}

	for _, q := range queries {
		if _, err := m.execute(ctx, q, nil); err != nil {
			log.Printf("Warning: failed to create index '%s': %v", q, err)
		}
	}

	return nil
}

func (m *MemgraphStore) CreateScenario(ctx context.Context, s *model.Scenario) error {
	_, err := m.execute(ctx, saveScenarioQuery, map[string]interface{}{
		"uuid":       s.UUID,
		"title":      s.Title,
		"summary":    s.Summary,
		"facts":      s.Facts,
		"category":   s.Category,
		"law_type":   s.LawType,
		"difficulty": s.Difficulty,
		"created_at": s.CreatedAt,
	})
	return err
}

func (m *MemgraphStore) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	result, err := m.execute(ctx, getScenarioQuery, map[string]interface{}{"uuid": id})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("scenario %s: %w", id, ErrNotFound)
	}
	return scenarioFromRecord(result.Records[0]), nil
}

func (m *MemgraphStore) ListScenarios(ctx context.Context) ([]*model.Scenario, error) {
	result, err := m.execute(ctx, listScenariosQuery, nil)
	if err != nil {
		return nil, err
	}
	scenarios := make([]*model.Scenario, 0, len(result.Records))
	for _, rec := range result.Records {
		scenarios = append(scenarios, scenarioFromRecord(rec))
	}
	return scenarios, nil
}

func (m *MemgraphStore) CreateCase(ctx context.Context, c *model.Case) error {
	_, err := m.execute(ctx, saveCaseQuery, map[string]interface{}{
		"uuid":          c.UUID,
		"title":         c.Title,
		"summary":       c.Summary,
		"case_type":     c.CaseType,
		"created_by":    c.CreatedBy,
		"opponent_type": string(c.OpponentType),
		"ai_side":       string(c.AISide),
		"current_stage": string(c.CurrentStage),
		"status":        string(c.Status),
		"created_at":    c.CreatedAt,
	})
	return err
}

func (m *MemgraphStore) GetCase(ctx context.Context, id string) (*model.Case, error) {
	result, err := m.execute(ctx, getCaseQuery, map[string]interface{}{"uuid": id})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	rec := result.Records[0]
	return &model.Case{
		UUID:         recString(rec, "uuid"),
		Title:        recString(rec, "title"),
		Summary:      recString(rec, "summary"),
		CaseType:     recString(rec, "case_type"),
		CreatedBy:    recString(rec, "created_by"),
		OpponentType: model.OpponentType(recString(rec, "opponent_type")),
		AISide:       model.Side(recString(rec, "ai_side")),
		CurrentStage: stage.Stage(recString(rec, "current_stage")),
		Status:       model.CaseStatus(recString(rec, "status")),
		CreatedAt:    recTime(rec, "created_at"),
	}, nil
}

func (m *MemgraphStore) AdvanceCaseStage(ctx context.Context, caseUUID string, from, to stage.Stage) (bool, error) {
	result, err := m.execute(ctx, advanceCaseStageQuery, map[string]interface{}{
		"uuid": caseUUID,
		"from": string(from),
		"to":   string(to),
	})
	if err != nil {
		return false, err
	}
	return len(result.Records) > 0, nil
}

func (m *MemgraphStore) SetCaseStatus(ctx context.Context, caseUUID string, status model.CaseStatus) error {
	result, err := m.execute(ctx, setCaseStatusQuery, map[string]interface{}{
		"uuid":   caseUUID,
		"status": string(status),
	})
	if err != nil {
		return err
	}
	if len(result.Records) == 0 {
		return fmt.Errorf("case %s: %w", caseUUID, ErrNotFound)
	}
	return nil
}

func (m *MemgraphStore) CreateParticipant(ctx context.Context, p *model.Participant) error {
	nonce := uuid.New().String()
	result, err := m.execute(ctx, saveParticipantQuery, map[string]interface{}{
		"case_uuid":  p.CaseUUID,
		"side":       string(p.Side),
		"user_id":    p.UserID,
		"created_at": p.CreatedAt,
		"nonce":      nonce,
	})
	if err != nil {
		return err
	}
	if len(result.Records) == 0 || recString(result.Records[0], "nonce") != nonce {
		return fmt.Errorf("side %s of case %s: %w", p.Side, p.CaseUUID, ErrConflict)
	}
	return nil
}

func (m *MemgraphStore) ListParticipants(ctx context.Context, caseUUID string) ([]*model.Participant, error) {
	result, err := m.execute(ctx, listParticipantsQuery, map[string]interface{}{"case_uuid": caseUUID})
	if err != nil {
		return nil, err
	}
	participants := make([]*model.Participant, 0, len(result.Records))
	for _, rec := range result.Records {
		participants = append(participants, &model.Participant{
			CaseUUID:  recString(rec, "case_uuid"),
			UserID:    recString(rec, "user_id"),
			Side:      model.Side(recString(rec, "side")),
			CreatedAt: recTime(rec, "created_at"),
		})
	}
	return participants, nil
}

func (m *MemgraphStore) CreateSubmission(ctx context.Context, s *model.Submission) error {
	userID := s.Submitter.UserID
	if s.Submitter.Automated {
		userID = AutomatedUserID
	}
	nonce := uuid.New().String()
	result, err := m.execute(ctx, saveSubmissionQuery, map[string]interface{}{
		"case_uuid":  s.CaseUUID,
		"stage":      string(s.Stage),
		"side":       string(s.Side),
		"uuid":       s.UUID,
		"user_id":    userID,
		"automated":  s.Submitter.Automated,
		"transcript": s.Transcript,
		"audio_ref":  s.AudioRef,
		"created_at": s.CreatedAt,
		"nonce":      nonce,
	})
	if err != nil {
		return err
	}
	if len(result.Records) == 0 || recString(result.Records[0], "nonce") != nonce {
		return fmt.Errorf("submission for stage %s side %s of case %s: %w", s.Stage, s.Side, s.CaseUUID, ErrConflict)
	}
	return nil
}

func (m *MemgraphStore) ListSubmissions(ctx context.Context, caseUUID string) ([]*model.Submission, error) {
	result, err := m.execute(ctx, listSubmissionsQuery, map[string]interface{}{"case_uuid": caseUUID})
	if err != nil {
		return nil, err
	}
	submissions := make([]*model.Submission, 0, len(result.Records))
	for _, rec := range result.Records {
		sub := &model.Submission{
			UUID:       recString(rec, "uuid"),
			CaseUUID:   recString(rec, "case_uuid"),
			Stage:      stage.Stage(recString(rec, "stage")),
			Side:       model.Side(recString(rec, "side")),
			Transcript: recString(rec, "transcript"),
			AudioRef:   recString(rec, "audio_ref"),
			CreatedAt:  recTime(rec, "created_at"),
		}
		if recBool(rec, "automated") {
			sub.Submitter = model.AutomatedSubmitter()
		} else {
			sub.Submitter = model.HumanSubmitter(recString(rec, "user_id"))
		}
		submissions = append(submissions, sub)
	}
	return submissions, nil
}

func (m *MemgraphStore) CreateVerdict(ctx context.Context, v *model.Verdict) (bool, error) {
	payload, err := json.Marshal(v.Result)
	if err != nil {
		return false, fmt.Errorf("failed to marshal verdict result: %w", err)
	}
	nonce := uuid.New().String()
	result, err := m.execute(ctx, saveVerdictQuery, map[string]interface{}{
		"case_uuid":  v.CaseUUID,
		"result":     string(payload),
		"created_at": v.CreatedAt,
		"nonce":      nonce,
	})
	if err != nil {
		return false, err
	}
	created := len(result.Records) > 0 && recString(result.Records[0], "nonce") == nonce
	return created, nil
}

func (m *MemgraphStore) GetVerdict(ctx context.Context, caseUUID string) (*model.Verdict, error) {
	result, err := m.execute(ctx, getVerdictQuery, map[string]interface{}{"case_uuid": caseUUID})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("verdict for case %s: %w", caseUUID, ErrNotFound)
	}
	rec := result.Records[0]
	v := &model.Verdict{
		CaseUUID:  recString(rec, "case_uuid"),
		Settled:   recBool(rec, "settled"),
		CreatedAt: recTime(rec, "created_at"),
	}
	if raw := recString(rec, "result"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &v.Result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal verdict result: %w", err)
		}
	}
	return v, nil
}

func (m *MemgraphStore) MarkVerdictSettled(ctx context.Context, caseUUID string) (bool, error) {
	result, err := m.execute(ctx, markVerdictSettledQuery, map[string]interface{}{"case_uuid": caseUUID})
	if err != nil {
		return false, err
	}
	return len(result.Records) > 0, nil
}

func (m *MemgraphStore) CreateCaseResult(ctx context.Context, r *model.CaseResult) error {
	_, err := m.execute(ctx, saveCaseResultQuery, map[string]interface{}{
		"case_uuid":  r.CaseUUID,
		"a_user_id":  r.AUserID,
		"b_user_id":  r.BUserID,
		"winner":     r.Winner,
		"score_a":    r.ScoreA,
		"score_b":    r.ScoreB,
		"created_at": r.CreatedAt,
	})
	return err
}

func (m *MemgraphStore) CreateUser(ctx context.Context, u *model.User) error {
	_, err := m.execute(ctx, saveUserQuery, map[string]interface{}{
		"uuid":  u.UUID,
		"email": u.Email,
		"role":  u.Role,
	})
	return err
}

func (m *MemgraphStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	result, err := m.execute(ctx, getUserQuery, map[string]interface{}{"uuid": id})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	rec := result.Records[0]
	return &model.User{
		UUID:  recString(rec, "uuid"),
		Email: recString(rec, "email"),
		Role:  recString(rec, "role"),
	}, nil
}

func (m *MemgraphStore) ApplyRankingDelta(ctx context.Context, userID, name string, delta, winInc, lossInc int) error {
	initial := delta
	if initial < 0 {
		initial = 0
	}
	_, err := m.execute(ctx, applyRankingDeltaQuery, map[string]interface{}{
		"user_id":  userID,
		"name":     name,
		"delta":    delta,
		"initial":  initial,
		"win_inc":  winInc,
		"loss_inc": lossInc,
		"now":      timeNow(),
	})
	return err
}

func (m *MemgraphStore) ListRankings(ctx context.Context, limit int) ([]*model.RankingEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	result, err := m.execute(ctx, listRankingsQuery, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, err
	}
	entries := make([]*model.RankingEntry, 0, len(result.Records))
	for _, rec := range result.Records {
		entries = append(entries, &model.RankingEntry{
			UserID:    recString(rec, "user_id"),
			Name:      recString(rec, "name"),
			Score:     recInt(rec, "score"),
			Wins:      recInt(rec, "wins"),
			Losses:    recInt(rec, "losses"),
			UpdatedAt: recTime(rec, "updated_at"),
		})
	}
	return entries, nil
}

func scenarioFromRecord(rec *neo4j.Record) *model.Scenario {
	return &model.Scenario{
		UUID:       recString(rec, "uuid"),
		Title:      recString(rec, "title"),
		Summary:    recString(rec, "summary"),
		Facts:      recString(rec, "facts"),
		Category:   recString(rec, "category"),
		LawType:    recString(rec, "law_type"),
		Difficulty: recString(rec, "difficulty"),
		CreatedAt:  recTime(rec, "created_at"),
	}
}

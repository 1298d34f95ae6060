package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/adjeilabs/gavel/internal/core/model"
	"github.com/adjeilabs/gavel/internal/core/stage"
)

// MemoryStore keeps every record in process memory behind one mutex. It
// honors the same conditional-write semantics as the Memgraph store and is
// used for tests and the standalone dev server.
type MemoryStore struct {
	mu           sync.Mutex
	scenarios    map[string]*model.Scenario
	cases        map[string]*model.Case
	participants map[string][]*model.Participant
	submissions  map[string][]*model.Submission
	verdicts     map[string]*model.Verdict
	results      map[string]*model.CaseResult
	users        map[string]*model.User
	rankings     map[string]*model.RankingEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scenarios:    make(map[string]*model.Scenario),
		cases:        make(map[string]*model.Case),
		participants: make(map[string][]*model.Participant),
		submissions:  make(map[string][]*model.Submission),
		verdicts:     make(map[string]*model.Verdict),
		results:      make(map[string]*model.CaseResult),
		users:        make(map[string]*model.User),
		rankings:     make(map[string]*model.RankingEntry),
	}
}

func (m *MemoryStore) Close(ctx context.Context) error { return nil }

func (m *MemoryStore) CreateScenario(ctx context.Context, s *model.Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.scenarios[s.UUID] = &cp
	return nil
}

func (m *MemoryStore) GetScenario(ctx context.Context, id string) (*model.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("scenario %s: %w", id, ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) ListScenarios(ctx context.Context) ([]*model.Scenario, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Scenario, 0, len(m.scenarios))
	for _, s := range m.scenarios {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) CreateCase(ctx context.Context, c *model.Case) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.cases[c.UUID] = &cp
	return nil
}

func (m *MemoryStore) GetCase(ctx context.Context, id string) (*model.Case, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[id]
	if !ok {
		return nil, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) AdvanceCaseStage(ctx context.Context, caseUUID string, from, to stage.Stage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[caseUUID]
	if !ok {
		return false, fmt.Errorf("case %s: %w", caseUUID, ErrNotFound)
	}
	if c.CurrentStage != from {
		return false, nil
	}
	c.CurrentStage = to
	return true, nil
}

func (m *MemoryStore) SetCaseStatus(ctx context.Context, caseUUID string, status model.CaseStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cases[caseUUID]
	if !ok {
		return fmt.Errorf("case %s: %w", caseUUID, ErrNotFound)
	}
	c.Status = status
	return nil
}

func (m *MemoryStore) CreateParticipant(ctx context.Context, p *model.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.participants[p.CaseUUID] {
		if existing.Side == p.Side {
			return fmt.Errorf("side %s of case %s: %w", p.Side, p.CaseUUID, ErrConflict)
		}
	}
	cp := *p
	m.participants[p.CaseUUID] = append(m.participants[p.CaseUUID], &cp)
	return nil
}

func (m *MemoryStore) ListParticipants(ctx context.Context, caseUUID string) ([]*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Participant, 0, len(m.participants[caseUUID]))
	for _, p := range m.participants[caseUUID] {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) CreateSubmission(ctx context.Context, s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.submissions[s.CaseUUID] {
		if existing.Stage == s.Stage && existing.Side == s.Side {
			return fmt.Errorf("submission for stage %s side %s of case %s: %w", s.Stage, s.Side, s.CaseUUID, ErrConflict)
		}
	}
	cp := *s
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	// Creation order is the append order; ListSubmissions preserves it even
	// when timestamps collide.
	m.submissions[s.CaseUUID] = append(m.submissions[s.CaseUUID], &cp)
	return nil
}

func (m *MemoryStore) ListSubmissions(ctx context.Context, caseUUID string) ([]*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Submission, 0, len(m.submissions[caseUUID]))
	for _, s := range m.submissions[caseUUID] {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MemoryStore) CreateVerdict(ctx context.Context, v *model.Verdict) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.verdicts[v.CaseUUID]; exists {
		return false, nil
	}
	cp := *v
	cp.Settled = false
	m.verdicts[v.CaseUUID] = &cp
	return true, nil
}

func (m *MemoryStore) GetVerdict(ctx context.Context, caseUUID string) (*model.Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.verdicts[caseUUID]
	if !ok {
		return nil, fmt.Errorf("verdict for case %s: %w", caseUUID, ErrNotFound)
	}
	cp := *v
	return &cp, nil
}

func (m *MemoryStore) MarkVerdictSettled(ctx context.Context, caseUUID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.verdicts[caseUUID]
	if !ok || v.Settled {
		return false, nil
	}
	v.Settled = true
	return true, nil
}

func (m *MemoryStore) CreateCaseResult(ctx context.Context, r *model.CaseResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.results[r.CaseUUID]; exists {
		return nil
	}
	cp := *r
	m.results[r.CaseUUID] = &cp
	return nil
}

func (m *MemoryStore) CreateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.UUID] = &cp
	return nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) ApplyRankingDelta(ctx context.Context, userID, name string, delta, winInc, lossInc int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.rankings[userID]
	if !ok {
		initial := delta
		if initial < 0 {
			initial = 0
		}
		m.rankings[userID] = &model.RankingEntry{
			UserID:    userID,
			Name:      name,
			Score:     initial,
			Wins:      winInc,
			Losses:    lossInc,
			UpdatedAt: time.Now().UTC(),
		}
		return nil
	}
	entry.Name = name
	entry.Score += delta
	entry.Wins += winInc
	entry.Losses += lossInc
	entry.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) ListRankings(ctx context.Context, limit int) ([]*model.RankingEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.RankingEntry, 0, len(m.rankings))
	for _, r := range m.rankings {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

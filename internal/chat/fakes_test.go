package chat

import (
	"context"
	"sync"
	"time"

	"codeberg.org/qemxa/server/internal/history"
	"codeberg.org/qemxa/server/internal/llm"
	"codeberg.org/qemxa/server/internal/quota"
)

var (
	testNow   = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	testToday = "2024-05-01"
	testKey   = SessionKey{VIN: "JTDKB20U", UserID: "user-1"}
	testCar   = history.VehicleInfo{VIN: "JTDKB20U", Brand: "Toyota", Model: "Prius", Year: 2010}
)

type mockGenerator struct {
	generateFunc func(ctx context.Context, req llm.GenerateRequest) (*llm.Reply, error)

	mu    sync.Mutex
	calls []llm.GenerateRequest
}

func (m *mockGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (*llm.Reply, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}

	return &llm.Reply{Text: "reply to " + req.History[len(req.History)-1].Content}, nil
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.calls)
}

type published struct {
	History history.History
	State   State
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ SessionKey, h history.History, state State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, published{History: history.Clone(h), State: state})
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]published(nil), p.events...)
}

// in-memory Gateway
type fakeGateway struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	profiles    map[string]*Profile
	vehicles    map[string]*history.VehicleInfo
	partners    []llm.PartnerSummary
	saveErr     error
	usageErr    error
	partnersErr error
	saves       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		sessions: make(map[string]*Session),
		profiles: make(map[string]*Profile),
		vehicles: map[string]*history.VehicleInfo{testKey.String(): &testCar},
	}
}

func (g *fakeGateway) SaveHistory(_ context.Context, key SessionKey, h history.History) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.saves++
	if g.saveErr != nil {
		return g.saveErr
	}

	g.sessions[key.String()] = &Session{VIN: key.VIN, UserID: key.UserID, History: history.Clone(h)}

	return nil
}

func (g *fakeGateway) LoadSession(_ context.Context, key SessionKey) (*Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	sess, ok := g.sessions[key.String()]
	if !ok {
		return nil, ErrSessionNotFound
	}

	cp := *sess
	cp.History = history.Clone(sess.History)

	return &cp, nil
}

func (g *fakeGateway) GetProfile(_ context.Context, userID string) (*Profile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.profiles[userID]
	if !ok {
		p = &Profile{ID: userID, Tier: "free"}
		g.profiles[userID] = p
	}

	cp := *p

	return &cp, nil
}

func (g *fakeGateway) SaveUsage(_ context.Context, userID string, usage quota.UsageCounter) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.usageErr != nil {
		return g.usageErr
	}

	g.profiles[userID].DailyUsage = usage

	return nil
}

func (g *fakeGateway) GetVehicle(_ context.Context, key SessionKey) (*history.VehicleInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	v, ok := g.vehicles[key.String()]
	if !ok {
		return nil, ErrVehicleNotFound
	}

	return v, nil
}

func (g *fakeGateway) ListPartners(_ context.Context, _ string) ([]llm.PartnerSummary, error) {
	return g.partners, g.partnersErr
}

func fixedNow() time.Time {
	return testNow
}

func newTestReconciler(gen Generator, store HistoryStore, pub Publisher) *Reconciler {
	return NewReconciler(gen, store, pub, NewMemoryGuard(time.Minute), Options{Now: fixedNow})
}

func mkTurn(id string, role history.Role, content string) history.Turn {
	return history.Turn{ID: id, Role: role, Content: content, CreatedAt: testNow}
}

// welcome plus two exchanges
func sampleBaseline() history.History {
	return history.History{
		mkTurn("w", history.RoleAssistant, "welcome"),
		mkTurn("u1", history.RoleUser, "engine knocks"),
		mkTurn("a1", history.RoleAssistant, "check oil"),
		mkTurn("u2", history.RoleUser, "oil is fine"),
		mkTurn("a2", history.RoleAssistant, "check plugs"),
	}
}

func contents(h history.History) []string {
	out := make([]string, len(h))
	for i, t := range h {
		out[i] = t.Content
	}

	return out
}

package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

// --- mocks ---

type scriptedGateway struct {
	mu         sync.Mutex
	responses  []*models.ChatResponse
	repeat     *models.ChatResponse
	err        error
	requests   []*models.ChatRequest
	configured bool
}

func newGateway(responses ...*models.ChatResponse) *scriptedGateway {
	return &scriptedGateway{responses: responses, configured: true}
}

func (g *scriptedGateway) Chat(_ context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	copied := *req
	copied.Messages = append([]models.Message(nil), req.Messages...)
	g.requests = append(g.requests, &copied)

	if g.err != nil {
		return nil, g.err
	}
	if g.repeat != nil {
		return g.repeat, nil
	}
	if len(g.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

func (g *scriptedGateway) Provider() string { return "openai" }
func (g *scriptedGateway) Model() string    { return "gpt-4o-mini" }
func (g *scriptedGateway) Configured() bool { return g.configured }

func (g *scriptedGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

type fakeTools struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeTools) Schemas() []models.ToolSchema {
	return []models.ToolSchema{{Name: "get_all_holdings", Description: "list", Parameters: map[string]any{"type": "object"}}}
}

func (f *fakeTools) Execute(_ context.Context, name string, _ map[string]any) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return `{"holdings":[],"count":0}`
}

type memUsage struct {
	mu      sync.Mutex
	monthly float64
	err     error
	records []models.AIUsageRecord
}

func (m *memUsage) LogAIUsage(_ context.Context, rec *models.AIUsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *rec)
	return nil
}

func (m *memUsage) GetMonthlyAICost(context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.monthly, m.err
}

var _ interfaces.UsageStore = (*memUsage)(nil)

func toolCall(id string) *models.ChatResponse {
	return &models.ChatResponse{
		ToolCalls:    []models.ToolCall{{ID: id, Name: "get_all_holdings", Arguments: map[string]any{}}},
		InputTokens:  100,
		OutputTokens: 10,
		CostUSD:      0.001,
	}
}

func answer(text string) *models.ChatResponse {
	return &models.ChatResponse{Content: text, InputTokens: 200, OutputTokens: 50, CostUSD: 0.002}
}

func newTestAgent(gw *scriptedGateway, usage *memUsage) (*Agent, *fakeTools) {
	tools := &fakeTools{}
	logger := common.NewSilentLogger()
	budget := NewBudget(usage, 5.0, gw, logger)
	return NewAgent(gw, tools, budget, NewSessionManager(), logger), tools
}

// --- tests ---

func TestRespond_DirectAnswer(t *testing.T) {
	gw := newGateway(answer("You hold 3 stocks."))
	usage := &memUsage{}
	a, tools := newTestAgent(gw, usage)
	s := a.Sessions().Create()

	reply, err := a.Respond(context.Background(), s.ID, "How many stocks?")
	require.NoError(t, err)

	assert.Equal(t, "You hold 3 stocks.", reply.Content)
	assert.Equal(t, 1, reply.Rounds)
	assert.False(t, reply.Exhausted)
	assert.Empty(t, tools.calls)

	got, err := a.Sessions().Get(s.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, models.RoleSystem, got.Messages[0].Role())
	assert.Equal(t, models.UserMessage{Content: "How many stocks?"}, got.Messages[1])
	assert.Equal(t, models.AssistantMessage{Content: "You hold 3 stocks."}, got.Messages[2])
	assert.Equal(t, 200, got.InputTokens)

	require.Len(t, usage.records, 1)
	assert.Equal(t, models.FeatureChat, usage.records[0].Feature)
	assert.Equal(t, "openai", usage.records[0].Provider)

	req := gw.requests[0]
	assert.Equal(t, "auto", req.ToolChoice)
	assert.Len(t, req.Tools, 1)
}

func TestRespond_ToolRoundTrip(t *testing.T) {
	gw := newGateway(toolCall("call_1"), answer("Nothing held yet."))
	a, tools := newTestAgent(gw, &memUsage{})
	s := a.Sessions().Create()

	reply, err := a.Respond(context.Background(), s.ID, "What do I own?")
	require.NoError(t, err)

	assert.Equal(t, "Nothing held yet.", reply.Content)
	assert.Equal(t, 2, reply.Rounds)
	assert.InDelta(t, 0.003, reply.TurnCostUSD, 1e-12)
	assert.Equal(t, []string{"get_all_holdings"}, tools.calls)

	got, _ := a.Sessions().Get(s.ID)
	require.Len(t, got.Messages, 5)
	assistant := got.Messages[2].(models.AssistantMessage)
	require.Len(t, assistant.ToolCalls, 1)
	result := got.Messages[3].(models.ToolResultMessage)
	assert.Equal(t, "call_1", result.CallID)
	assert.Equal(t, "get_all_holdings", result.Name)
	assert.JSONEq(t, `{"holdings":[],"count":0}`, result.Content)

	// The second model call sees the tool result
	assert.Len(t, gw.requests[1].Messages, 4)
}

func TestRespond_SystemPromptInsertedOnce(t *testing.T) {
	gw := newGateway(answer("one"), answer("two"))
	a, _ := newTestAgent(gw, &memUsage{})
	s := a.Sessions().Create()

	_, err := a.Respond(context.Background(), s.ID, "first")
	require.NoError(t, err)
	_, err = a.Respond(context.Background(), s.ID, "second")
	require.NoError(t, err)

	got, _ := a.Sessions().Get(s.ID)
	systems := 0
	for _, m := range got.Messages {
		if m.Role() == models.RoleSystem {
			systems++
		}
	}
	assert.Equal(t, 1, systems)
	assert.Len(t, got.Messages, 5)
}

func TestRespond_EmptyAnswer(t *testing.T) {
	a, _ := newTestAgent(newGateway(answer("")), &memUsage{})
	s := a.Sessions().Create()

	reply, err := a.Respond(context.Background(), s.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, EmptyAnswer, reply.Content)
}

func TestRespond_RoundsExhaustedAfterExactlyFive(t *testing.T) {
	gw := newGateway()
	gw.repeat = toolCall("call_loop")
	a, tools := newTestAgent(gw, &memUsage{})
	s := a.Sessions().Create()

	reply, err := a.Respond(context.Background(), s.ID, "loop forever")
	require.NoError(t, err)

	assert.Equal(t, RoundsExhausted, reply.Content)
	assert.True(t, reply.Exhausted)
	assert.Equal(t, MaxToolRounds, gw.calls())
	assert.Len(t, tools.calls, MaxToolRounds)
}

func TestRespond_GatewayFailureRollsBack(t *testing.T) {
	gw := newGateway(answer("first answer"))
	a, _ := newTestAgent(gw, &memUsage{})
	s := a.Sessions().Create()

	_, err := a.Respond(context.Background(), s.ID, "first")
	require.NoError(t, err)
	before, _ := a.Sessions().Get(s.ID)

	gw.err = &models.ProviderError{Provider: "openai", Err: errors.New("503")}
	_, err = a.Respond(context.Background(), s.ID, "second")
	var pe *models.ProviderError
	require.ErrorAs(t, err, &pe)

	after, _ := a.Sessions().Get(s.ID)
	assert.Equal(t, before.Messages, after.Messages)
	assert.Equal(t, before.TotalCostUSD, after.TotalCostUSD)
}

func TestRespond_FailureMidLoopKeepsBilledTotals(t *testing.T) {
	gw := newGateway(toolCall("call_1"))
	usage := &memUsage{}
	a, _ := newTestAgent(gw, usage)
	s := a.Sessions().Create()

	// Second call hits the exhausted script and fails
	_, err := a.Respond(context.Background(), s.ID, "hi")
	require.Error(t, err)

	after, _ := a.Sessions().Get(s.ID)
	assert.Empty(t, after.Messages)

	// the tool-call round was paid for, so the session still carries it
	assert.InDelta(t, 0.001, after.TotalCostUSD, 1e-12)
	assert.Equal(t, 100, after.InputTokens)
	assert.Equal(t, 10, after.OutputTokens)
	require.Len(t, usage.records, 1)
	assert.InDelta(t, after.TotalCostUSD, usage.records[0].CostUSD, 1e-12)
}

func TestRespond_BudgetGate(t *testing.T) {
	tests := []struct {
		name    string
		spent   float64
		blocked bool
	}{
		{"under budget", 4.99, false},
		{"at budget", 5.00, true},
		{"over budget", 7.25, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newGateway(answer("ok"))
			a, _ := newTestAgent(gw, &memUsage{monthly: tt.spent})
			s := a.Sessions().Create()

			_, err := a.Respond(context.Background(), s.ID, "hello")
			if tt.blocked {
				assert.ErrorIs(t, err, models.ErrBudgetExceeded)
				assert.Zero(t, gw.calls(), "no model call when over budget")
				got, _ := a.Sessions().Get(s.ID)
				assert.Empty(t, got.Messages)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 1, gw.calls())
			}
		})
	}
}

func TestRespond_NotConfigured(t *testing.T) {
	gw := newGateway(answer("ok"))
	gw.configured = false
	a, _ := newTestAgent(gw, &memUsage{})
	s := a.Sessions().Create()

	_, err := a.Respond(context.Background(), s.ID, "hello")
	assert.ErrorIs(t, err, models.ErrAINotConfigured)
}

func TestRespond_Validation(t *testing.T) {
	a, _ := newTestAgent(newGateway(), &memUsage{})

	_, err := a.Respond(context.Background(), "missing", "hello")
	assert.True(t, models.IsNotFound(err))

	s := a.Sessions().Create()
	_, err = a.Respond(context.Background(), s.ID, "")
	assert.True(t, models.IsValidation(err))
}

func TestRespond_ConcurrentSessionsIsolated(t *testing.T) {
	gw := newGateway()
	gw.repeat = answer("ok")
	a, _ := newTestAgent(gw, &memUsage{})

	ids := make([]string, 8)
	for i := range ids {
		ids[i] = a.Sessions().Create().ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for j := 0; j < 3; j++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, err := a.Respond(context.Background(), id, "ping")
				assert.NoError(t, err)
			}(id)
		}
	}
	wg.Wait()

	for _, id := range ids {
		got, err := a.Sessions().Get(id)
		require.NoError(t, err)
		assert.Len(t, got.Messages, 1+3*2)
	}
}

func TestSessionManager(t *testing.T) {
	m := NewSessionManager()
	s := m.Create()
	assert.Len(t, s.ID, 36)
	assert.NotNil(t, s.Messages)
	assert.Equal(t, 1, m.Count())

	require.NoError(t, m.Delete(s.ID))
	assert.True(t, models.IsNotFound(m.Delete(s.ID)))
	_, err := m.Get(s.ID)
	assert.True(t, models.IsNotFound(err))
}

func TestBudgetStatus(t *testing.T) {
	gw := newGateway()
	b := NewBudget(&memUsage{monthly: 1.25}, 5.0, gw, common.NewSilentLogger())

	status := b.Status(context.Background())
	assert.Equal(t, "openai", status.Provider)
	assert.Equal(t, "gpt-4o-mini", status.Model)
	assert.True(t, status.Configured)
	assert.Equal(t, 1.25, status.MonthlyCostUSD)
	assert.Equal(t, 5.0, status.MonthlyBudgetUSD)
}

func TestBudgetCheck_UsageReadFailure(t *testing.T) {
	b := NewBudget(&memUsage{err: errors.New("db locked")}, 5.0, newGateway(), common.NewSilentLogger())
	err := b.Check(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrBudgetExceeded)
}

func TestBudgetRecord(t *testing.T) {
	usage := &memUsage{}
	b := NewBudget(usage, 5.0, newGateway(), common.NewSilentLogger())
	b.now = func() time.Time { return time.Date(2026, 3, 13, 10, 0, 0, 0, time.UTC) }

	b.Record(context.Background(), &models.ChatResponse{Model: "gpt-4o-mini", InputTokens: 10, OutputTokens: 5, CostUSD: 0.01}, models.FeatureInsights)
	require.Len(t, usage.records, 1)
	assert.Equal(t, models.FeatureInsights, usage.records[0].Feature)
	assert.Equal(t, 2026, usage.records[0].Timestamp.Year())
}

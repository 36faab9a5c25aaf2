// Package agent drives the tool-augmented chat loop and the insights generator
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/mystock/internal/common"
	"github.com/bobmcallan/mystock/internal/interfaces"
	"github.com/bobmcallan/mystock/internal/models"
)

// MaxToolRounds bounds the model calls of a single user turn
const MaxToolRounds = 5

// Fixed replies
const (
	EmptyAnswer     = "I could not generate a response."
	RoundsExhausted = "I reached the maximum number of tool-use rounds. Please try a simpler question."
)

// ToolExecutor is the tool catalog the agent offers to the model
type ToolExecutor interface {
	Schemas() []models.ToolSchema
	Execute(ctx context.Context, name string, args map[string]any) string
}

// Budget gates model calls on this month's recorded spend
type Budget struct {
	usage   interfaces.UsageStore
	limit   float64
	gateway interfaces.LLMGateway
	logger  *common.Logger
	now     func() time.Time
}

// NewBudget creates a budget gate
func NewBudget(usage interfaces.UsageStore, limitUSD float64, gateway interfaces.LLMGateway, logger *common.Logger) *Budget {
	return &Budget{usage: usage, limit: limitUSD, gateway: gateway, logger: logger, now: time.Now}
}

// Check returns ErrAINotConfigured or ErrBudgetExceeded when a call must not be made
func (b *Budget) Check(ctx context.Context) error {
	if !b.gateway.Configured() {
		return models.ErrAINotConfigured
	}
	spent, err := b.usage.GetMonthlyAICost(ctx)
	if err != nil {
		return fmt.Errorf("failed to read monthly AI cost: %w", err)
	}
	if spent >= b.limit {
		b.logger.Warn().Float64("spent", spent).Float64("budget", b.limit).Msg("Monthly AI budget exhausted")
		return models.ErrBudgetExceeded
	}
	return nil
}

// Record appends a usage row; failures are logged only
func (b *Budget) Record(ctx context.Context, resp *models.ChatResponse, feature string) {
	rec := &models.AIUsageRecord{
		Timestamp:    b.now().UTC(),
		Provider:     b.gateway.Provider(),
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		CostUSD:      resp.CostUSD,
		Feature:      feature,
	}
	if err := b.usage.LogAIUsage(ctx, rec); err != nil {
		b.logger.Warn().Str("feature", feature).Err(err).Msg("Failed to log AI usage")
	}
}

// Status reports the provider and this month's spend against the budget
func (b *Budget) Status(ctx context.Context) models.AIStatus {
	status := models.AIStatus{
		Provider:         b.gateway.Provider(),
		Model:            b.gateway.Model(),
		Configured:       b.gateway.Configured(),
		MonthlyBudgetUSD: b.limit,
	}
	spent, err := b.usage.GetMonthlyAICost(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to read monthly AI cost")
	}
	status.MonthlyCostUSD = spent
	return status
}

// Agent answers user turns with a bounded ask, call tools, feed back loop
type Agent struct {
	gateway  interfaces.LLMGateway
	tools    ToolExecutor
	budget   *Budget
	sessions *SessionManager
	logger   *common.Logger
}

// NewAgent creates a chat agent
func NewAgent(gateway interfaces.LLMGateway, tools ToolExecutor, budget *Budget, sessions *SessionManager, logger *common.Logger) *Agent {
	return &Agent{
		gateway:  gateway,
		tools:    tools,
		budget:   budget,
		sessions: sessions,
		logger:   logger,
	}
}

// Sessions returns the session manager
func (a *Agent) Sessions() *SessionManager {
	return a.sessions
}

// Respond runs one user turn in the session. A gateway failure aborts the
// turn and restores the transcript to its pre-turn state. Token and cost
// totals of rounds that completed before the failure are kept.
func (a *Agent) Respond(ctx context.Context, sessionID, message string) (*models.ChatReply, error) {
	if message == "" {
		return nil, &models.ValidationError{Field: "message", Message: "message is required"}
	}

	var reply *models.ChatReply
	err := a.sessions.withSession(sessionID, func(s *models.ChatSession) error {
		if err := a.budget.Check(ctx); err != nil {
			return err
		}

		saved := snapshot(s)
		r, err := a.turn(ctx, s, message)
		if err != nil {
			s.Messages = saved.Messages
			return err
		}
		reply = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (a *Agent) turn(ctx context.Context, s *models.ChatSession, message string) (*models.ChatReply, error) {
	s.Messages = append(s.Messages, models.UserMessage{Content: message})
	if len(s.Messages) == 0 || s.Messages[0].Role() != models.RoleSystem {
		s.Messages = append([]models.Message{models.SystemMessage{Content: ChatSystemPrompt}}, s.Messages...)
	}

	schemas := a.tools.Schemas()
	reply := &models.ChatReply{SessionID: s.ID}

	for round := 1; round <= MaxToolRounds; round++ {
		resp, err := a.gateway.Chat(ctx, &models.ChatRequest{
			Messages:   s.Messages,
			Tools:      schemas,
			ToolChoice: "auto",
		})
		if err != nil {
			return nil, err
		}

		reply.Rounds = round
		reply.TurnCostUSD += resp.CostUSD
		s.TotalCostUSD += resp.CostUSD
		s.InputTokens += resp.InputTokens
		s.OutputTokens += resp.OutputTokens
		a.budget.Record(ctx, resp, models.FeatureChat)

		if len(resp.ToolCalls) == 0 {
			answer := resp.Content
			if answer == "" {
				answer = EmptyAnswer
			}
			s.Messages = append(s.Messages, models.AssistantMessage{Content: answer})
			reply.Content = answer
			reply.TotalCostUSD = s.TotalCostUSD
			return reply, nil
		}

		s.Messages = append(s.Messages, models.AssistantMessage{Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			a.logger.Info().Str("session", s.ID).Str("tool", call.Name).Int("round", round).Msg("Tool call")
			result := a.tools.Execute(ctx, call.Name, call.Arguments)
			s.Messages = append(s.Messages, models.ToolResultMessage{CallID: call.ID, Name: call.Name, Content: result})
		}
	}

	a.logger.Warn().Str("session", s.ID).Int("rounds", MaxToolRounds).Msg("Tool rounds exhausted")
	reply.Content = RoundsExhausted
	reply.Exhausted = true
	reply.TotalCostUSD = s.TotalCostUSD
	return reply, nil
}

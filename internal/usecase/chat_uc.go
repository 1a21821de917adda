package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/adapter"
	"nutriplan-backend/internal/infra/logging"
	"nutriplan-backend/internal/infra/metrics"
)

// Compile-time check
var _ ChatUseCase = (*chatUC)(nil)

// ChatUseCase is the nutrition assistant. Requires an entitled caller; AI
// failures fall back to the per-session canned responder.
type ChatUseCase interface {
	Send(ctx context.Context, userID, sessionID, message string) (string, error)
}

// SessionStore persists chat session state (history + picker dedup state)
// between requests.
type SessionStore interface {
	Load(ctx context.Context, userID, sessionID string) (*model.ChatSession, error)
	Save(ctx context.Context, session *model.ChatSession) error
}

// ChatLimiter caps assistant calls per user per window.
type ChatLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

const (
	chatEncoding     = "cl100k_base"
	chatSystemPrompt = "You are a friendly nutrition and fitness assistant. Answer briefly and practically, and never give medical advice."
)

type chatUC struct {
	sessions SessionStore
	ai       adapter.AIServiceAdapter
	ents     EntitlementUseCase
	limiter  ChatLimiter // nil disables rate limiting

	model           string
	maxPromptTokens int
	ratePerMinute   int
	log             *zerolog.Logger
}

func NewChatUseCase(sessions SessionStore, ai adapter.AIServiceAdapter, ents EntitlementUseCase, limiter ChatLimiter, modelName string, maxPromptTokens, ratePerMinute int, logger *zerolog.Logger) *chatUC {
	l := logger.With().Str("component", "ChatUC").Logger()
	if maxPromptTokens <= 0 {
		maxPromptTokens = 4000
	}
	if ratePerMinute <= 0 {
		ratePerMinute = 10
	}
	return &chatUC{
		sessions:        sessions,
		ai:              ai,
		ents:            ents,
		limiter:         limiter,
		model:           modelName,
		maxPromptTokens: maxPromptTokens,
		ratePerMinute:   ratePerMinute,
		log:             &l,
	}
}

func (uc *chatUC) Send(ctx context.Context, userID, sessionID, message string) (string, error) {
	defer logging.TraceDuration(uc.log, "ChatUC.Send")()
	if userID == "" || sessionID == "" || message == "" {
		return "", domain.ErrInvalidArgument
	}

	ent, err := uc.ents.Resolve(ctx, userID)
	if err != nil || !ent.HasAccess {
		return "", domain.ErrEntitlementRequired
	}

	if uc.limiter != nil {
		key := fmt.Sprintf("rate:chat:%s", userID)
		ok, err := uc.limiter.Allow(ctx, key, uc.ratePerMinute, time.Minute)
		if err != nil {
			uc.log.Warn().Err(err).Msg("rate limiter unavailable; allowing request")
		} else if !ok {
			metrics.IncChat("rate_limited")
			return "", domain.ErrRateLimited
		}
	}

	session, err := uc.sessions.Load(ctx, userID, sessionID)
	if err != nil {
		session, err = model.NewChatSession(userID, sessionID)
		if err != nil {
			return "", err
		}
	}
	session.Messages = append(session.Messages, model.ChatMessage{Role: "user", Content: message})

	reply := uc.generate(ctx, session, message)
	session.Messages = append(session.Messages, model.ChatMessage{Role: "assistant", Content: reply})
	session.LastReply = reply

	if err := uc.sessions.Save(ctx, session); err != nil {
		uc.log.Warn().Err(err).Str("session_id", sessionID).Msg("chat session save failed")
	}
	return reply, nil
}

func (uc *chatUC) generate(ctx context.Context, session *model.ChatSession, message string) string {
	if uc.ai != nil {
		msgs := uc.buildPrompt(session)
		reply, usage, err := uc.ai.ChatWithUsage(ctx, uc.model, msgs)
		if err == nil && reply != "" {
			metrics.IncChat("ok")
			metrics.ObserveChatTokens(usage.PromptTokens, usage.CompletionTokens)
			return reply
		}
		if err != nil {
			uc.log.Warn().Err(err).Msg("assistant call failed; falling back to canned responder")
		}
	}
	metrics.IncChat("canned")
	return pickCannedReply(session, message)
}

// buildPrompt assembles system prompt + trimmed history. The oldest turns are
// dropped first until the prompt fits the token budget.
func (uc *chatUC) buildPrompt(session *model.ChatSession) []adapter.Message {
	history := session.Messages
	for len(history) > 1 && uc.promptTokens(history) > uc.maxPromptTokens {
		history = history[1:]
	}
	msgs := make([]adapter.Message, 0, len(history)+1)
	msgs = append(msgs, adapter.Message{Role: "system", Content: chatSystemPrompt})
	for _, m := range history {
		msgs = append(msgs, adapter.Message{Role: m.Role, Content: m.Content})
	}
	return msgs
}

func (uc *chatUC) promptTokens(history []model.ChatMessage) int {
	enc, err := tiktoken.GetEncoding(chatEncoding)
	if err != nil {
		// rough fallback: 4 chars per token
		n := len(chatSystemPrompt)
		for _, m := range history {
			n += len(m.Content)
		}
		return n / 4
	}
	n := len(enc.Encode(chatSystemPrompt, nil, nil))
	for _, m := range history {
		n += len(enc.Encode(m.Content, nil, nil))
	}
	return n
}

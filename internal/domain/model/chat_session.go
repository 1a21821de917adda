package model

import "nutriplan-backend/internal/domain"

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user" | "assistant" | "system"
	Content string `json:"content"`
}

// ChatSession holds the assistant state for one (user, session) pair,
// including the response-dedup state of the canned-answer picker. The picker
// state deliberately lives here, per session, so two sessions never share
// mutable dedup state.
type ChatSession struct {
	UserID    string        `json:"user_id"`
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`

	// LastReply and UsedReplies back the canned-response picker: LastReply is
	// never repeated back-to-back, and UsedReplies tracks which canned answers
	// per topic were already served in this session.
	LastReply   string                  `json:"last_reply,omitempty"`
	UsedReplies map[string]map[int]bool `json:"used_replies,omitempty"`
}

func NewChatSession(userID, sessionID string) (*ChatSession, error) {
	if userID == "" || sessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &ChatSession{
		UserID:      userID,
		SessionID:   sessionID,
		UsedReplies: make(map[string]map[int]bool),
	}, nil
}

// MarkUsed records that canned reply idx for topic has been served.
func (s *ChatSession) MarkUsed(topic string, idx int) {
	if s.UsedReplies == nil {
		s.UsedReplies = make(map[string]map[int]bool)
	}
	if s.UsedReplies[topic] == nil {
		s.UsedReplies[topic] = make(map[int]bool)
	}
	s.UsedReplies[topic][idx] = true
}

// Used reports whether canned reply idx for topic was already served.
func (s *ChatSession) Used(topic string, idx int) bool {
	return s.UsedReplies != nil && s.UsedReplies[topic][idx]
}

// ResetTopic clears dedup state for a topic once its pool is exhausted.
func (s *ChatSession) ResetTopic(topic string) {
	if s.UsedReplies != nil {
		delete(s.UsedReplies, topic)
	}
}

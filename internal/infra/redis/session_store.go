package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/usecase"
)

var _ usecase.SessionStore = (*SessionStore)(nil)

// Chat sessions are throwaway conversational state; a day of inactivity
// ends the session.
const sessionTTL = 24 * time.Hour

type SessionStore struct {
	client *Client
}

func NewSessionStore(client *Client) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(userID, sessionID string) string {
	return fmt.Sprintf("chat:session:%s:%s", userID, sessionID)
}

func (s *SessionStore) Load(ctx context.Context, userID, sessionID string) (*model.ChatSession, error) {
	raw, err := s.client.Get(ctx, sessionKey(userID, sessionID))
	if err != nil {
		if IsNil(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var sess model.ChatSession
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, domain.ErrOperationFailed
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, session *model.ChatSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return s.client.Set(ctx, sessionKey(session.UserID, session.SessionID), raw, sessionTTL)
}

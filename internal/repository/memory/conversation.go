package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"chatroom/internal/domain"
	"chatroom/internal/repository"
	apperrors "chatroom/pkg/errors"
)

type conversationStore struct {
	s *state
}

func (r *conversationStore) GetOrCreateDirect(_ context.Context, a, b uuid.UUID) (*domain.Conversation, error) {
	if a == b {
		return nil, apperrors.ErrInvalidParticipants
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := pairOf(a, b)
	if id, ok := r.s.convByPair[key]; ok {
		c := *r.s.conversations[id]
		return &c, nil
	}

	now := r.s.now()
	conv := &domain.Conversation{
		ID:         uuid.New(),
		Type:       domain.ConversationTypeDirect,
		UserLowID:  key.low,
		UserHighID: key.high,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.s.conversations[conv.ID] = conv
	r.s.convByPair[key] = conv.ID

	c := *conv
	return &c, nil
}

func (r *conversationStore) IsParticipant(_ context.Context, conversationID, userID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	conv, ok := r.s.conversations[conversationID]
	return ok && conv.HasParticipant(userID), nil
}

func (r *conversationStore) SaveMessage(_ context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	conv, ok := r.s.conversations[conversationID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}

	r.s.nextMessageID++
	msg := &domain.Message{
		ID:             r.s.nextMessageID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		ContentType:    domain.ContentTypeText,
		CreatedAt:      r.s.now(),
	}
	r.s.messages[conversationID] = append(r.s.messages[conversationID], msg)
	conv.UpdatedAt = msg.CreatedAt
	return cloneMessage(msg), nil
}

func (r *conversationStore) ListMessages(_ context.Context, conversationID uuid.UUID, limit int, before int64) ([]*domain.EnrichedMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.s.messages[conversationID]
	end := len(all)
	if before > 0 {
		end = sort.Search(len(all), func(i int) bool { return all[i].ID >= before })
	}
	start := end - repository.ClampPageSize(limit)
	if start < 0 {
		start = 0
	}

	out := make([]*domain.EnrichedMessage, 0, end-start)
	for _, m := range all[start:end] {
		em := &domain.EnrichedMessage{Message: *m}
		if u, ok := r.s.users[m.SenderID]; ok {
			em.Sender = u.Profile()
		}
		out = append(out, em)
	}
	return out, nil
}

func (r *conversationStore) MarkRead(_ context.Context, conversationID, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now()
	var n int64
	for _, m := range r.s.messages[conversationID] {
		if m.SenderID != userID && m.ReadAt == nil {
			m.ReadAt = &now
			n++
		}
	}
	return n, nil
}

func (r *conversationStore) UnreadCount(_ context.Context, conversationID, userID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.unreadLocked(conversationID, userID), nil
}

func (r *conversationStore) unreadLocked(conversationID, userID uuid.UUID) int {
	n := 0
	for _, m := range r.s.messages[conversationID] {
		if m.SenderID != userID && m.ReadAt == nil {
			n++
		}
	}
	return n
}

func (r *conversationStore) ListForUser(_ context.Context, userID uuid.UUID) ([]*domain.ConversationEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var entries []*domain.ConversationEntry
	for _, conv := range r.s.conversations {
		if !conv.HasParticipant(userID) {
			continue
		}
		other, ok := r.s.users[conv.Other(userID)]
		if !ok {
			continue
		}
		e := &domain.ConversationEntry{
			Conversation: *conv,
			OtherUser:    *other,
			UnreadCount:  r.unreadLocked(conv.ID, userID),
		}
		if msgs := r.s.messages[conv.ID]; len(msgs) > 0 {
			e.LastMessage = cloneMessage(msgs[len(msgs)-1])
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Conversation.UpdatedAt.After(entries[j].Conversation.UpdatedAt)
	})
	return entries, nil
}

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/NAKUL-XD/BitChat/data/structures"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is a process-local Store for development and tests.
type Memory struct {
	mx            sync.Mutex
	users         map[string]structures.User
	conversations map[string]structures.Conversation
	pairs         map[string]string
	messages      map[string]structures.Message
	statuses      map[string]structures.StatusPost

	// Fail, when set, is returned by every call. Use SetFail once the store is shared.
	Fail error
}

func NewMemory() *Memory {
	return &Memory{
		users:         map[string]structures.User{},
		conversations: map[string]structures.Conversation{},
		pairs:         map[string]string{},
		messages:      map[string]structures.Message{},
		statuses:      map[string]structures.StatusPost{},
	}
}

// PutUser inserts or replaces a user record.
func (m *Memory) PutUser(u structures.User) {
	m.mx.Lock()
	defer m.mx.Unlock()

	m.users[u.ID] = u
}

func (m *Memory) SetFail(err error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	m.Fail = err
}

func (m *Memory) Ping(ctx context.Context) error {
	m.mx.Lock()
	defer m.mx.Unlock()

	return m.Fail
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}

func cloneMessage(msg structures.Message) structures.Message {
	msg.Reactions = append([]structures.Reaction{}, msg.Reactions...)

	return msg
}

func cloneStatus(s structures.StatusPost) structures.StatusPost {
	s.Viewers = append([]string{}, s.Viewers...)

	return s
}

func (m *Memory) GetUser(ctx context.Context, id string) (structures.User, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return structures.User{}, m.Fail
	}

	u, ok := m.users[id]
	if !ok {
		return structures.User{}, ErrNotFound
	}

	return u, nil
}

func (m *Memory) GetUsers(ctx context.Context, ids []string) ([]structures.User, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return nil, m.Fail
	}

	result := []structures.User{}
	seen := map[string]bool{}

	for _, id := range ids {
		if u, ok := m.users[id]; ok && !seen[id] {
			seen[id] = true
			result = append(result, u)
		}
	}

	return result, nil
}

func (m *Memory) SetUserPresence(ctx context.Context, id string, online bool, at time.Time) error {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return m.Fail
	}

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}

	u.IsOnline = online
	u.LastSeen = at
	m.users[id] = u

	return nil
}

func (m *Memory) ListUsers(ctx context.Context, exclude string) ([]structures.User, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return nil, m.Fail
	}

	result := []structures.User{}

	for id, u := range m.users {
		if id != exclude {
			result = append(result, u)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})

	return result, nil
}

func (m *Memory) UpsertConversation(ctx context.Context, a, b string) (structures.Conversation, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return structures.Conversation{}, m.Fail
	}

	key := structures.PairKey(a, b)
	if id, ok := m.pairs[key]; ok {
		return m.conversations[id], nil
	}

	pair := structures.ParticipantPair(a, b)
	now := time.Now()
	conv := structures.Conversation{
		ID:           primitive.NewObjectID().Hex(),
		Participants: []string{pair[0], pair[1]},
		PairKey:      key,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	m.conversations[conv.ID] = conv
	m.pairs[key] = conv.ID

	return conv, nil
}

func (m *Memory) GetConversation(ctx context.Context, id string) (structures.Conversation, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return structures.Conversation{}, m.Fail
	}

	conv, ok := m.conversations[id]
	if !ok {
		return structures.Conversation{}, ErrNotFound
	}

	return conv, nil
}

func (m *Memory) ListConversations(ctx context.Context, participant string) ([]structures.Conversation, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return nil, m.Fail
	}

	result := []structures.Conversation{}

	for _, conv := range m.conversations {
		if conv.HasParticipant(participant) {
			result = append(result, conv)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	return result, nil
}

func (m *Memory) SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return m.Fail
	}

	conv, ok := m.conversations[conversationID]
	if !ok {
		return ErrNotFound
	}

	conv.LastMessageID = messageID
	conv.UpdatedAt = at
	m.conversations[conversationID] = conv

	return nil
}

func (m *Memory) InsertMessage(ctx context.Context, msg structures.Message) (structures.Message, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return structures.Message{}, m.Fail
	}

	msg = prepareMessage(msg, primitive.NewObjectID().Hex(), time.Now())
	m.messages[msg.ID] = cloneMessage(msg)

	return msg, nil
}

func (m *Memory) GetMessage(ctx context.Context, id string) (structures.Message, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return structures.Message{}, m.Fail
	}

	msg, ok := m.messages[id]
	if !ok {
		return structures.Message{}, ErrNotFound
	}

	return cloneMessage(msg), nil
}

func (m *Memory) ListMessages(ctx context.Context, conversationID string) ([]structures.Message, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return nil, m.Fail
	}

	result := []structures.Message{}

	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			result = append(result, cloneMessage(msg))
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

func (m *Memory) CountUnread(ctx context.Context, conversationID, receiver string) (int64, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return 0, m.Fail
	}

	var n int64

	for _, msg := range m.messages {
		if msg.ConversationID == conversationID && msg.ReceiverID == receiver && msg.Status != structures.DeliveryStatusRead {
			n++
		}
	}

	return n, nil
}

func (m *Memory) AdvanceStatus(ctx context.Context, id string, status structures.DeliveryStatus) (structures.Message, bool, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return structures.Message{}, false, m.Fail
	}

	msg, ok := m.messages[id]
	if !ok {
		return structures.Message{}, false, ErrNotFound
	}

	if !status.Advances(msg.Status) {
		return cloneMessage(msg), false, nil
	}

	msg.Status = status
	msg.UpdatedAt = time.Now()
	m.messages[id] = msg

	return cloneMessage(msg), true, nil
}

func (m *Memory) SwapReactions(ctx context.Context, id string, rev int64, reactions []structures.Reaction) (structures.Message, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return structures.Message{}, m.Fail
	}

	msg, ok := m.messages[id]
	if !ok {
		return structures.Message{}, ErrNotFound
	}

	if msg.Revision != rev {
		return structures.Message{}, ErrConflict
	}

	msg.Reactions = append([]structures.Reaction{}, reactions...)
	msg.Revision++
	msg.UpdatedAt = time.Now()
	m.messages[id] = msg

	return cloneMessage(msg), nil
}

func (m *Memory) DeleteMessage(ctx context.Context, id string) error {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return m.Fail
	}

	if _, ok := m.messages[id]; !ok {
		return ErrNotFound
	}

	delete(m.messages, id)

	return nil
}

func (m *Memory) InsertStatus(ctx context.Context, status structures.StatusPost) (structures.StatusPost, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return structures.StatusPost{}, m.Fail
	}

	status = prepareStatus(status, primitive.NewObjectID().Hex(), time.Now())
	m.statuses[status.ID] = cloneStatus(status)

	return status, nil
}

func (m *Memory) GetStatus(ctx context.Context, id string) (structures.StatusPost, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return structures.StatusPost{}, m.Fail
	}

	s, ok := m.statuses[id]
	if !ok {
		return structures.StatusPost{}, ErrNotFound
	}

	return cloneStatus(s), nil
}

func (m *Memory) ListActiveStatuses(ctx context.Context, now time.Time) ([]structures.StatusPost, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return nil, m.Fail
	}

	result := []structures.StatusPost{}

	for _, s := range m.statuses {
		if !s.Expired(now) {
			result = append(result, cloneStatus(s))
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (m *Memory) AddStatusViewer(ctx context.Context, id, viewer string) (structures.StatusPost, error) {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return structures.StatusPost{}, m.Fail
	}

	s, ok := m.statuses[id]
	if !ok {
		return structures.StatusPost{}, ErrNotFound
	}

	if !s.ViewedBy(viewer) {
		s.Viewers = append(append([]string{}, s.Viewers...), viewer)
		m.statuses[id] = s
	}

	return cloneStatus(s), nil
}

func (m *Memory) DeleteStatus(ctx context.Context, id string) error {
	m.mx.Lock()
	defer m.mx.Unlock()

	if m.Fail != nil {
		return m.Fail
	}

	if _, ok := m.statuses[id]; !ok {
		return ErrNotFound
	}

	delete(m.statuses, id)

	return nil
}

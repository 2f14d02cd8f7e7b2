package counsel

import "sync"

const (
	RoleStudent   = "student"
	RoleCounselor = "counselor"
)

// Turn is one message exchange unit in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation is one user's append-only message log. Mutation goes through
// append or a full reset, never in-place edits.
type Conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// Turns returns a copy of the log in append order.
func (c *Conversation) Turns() []Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Turn(nil), c.turns...)
}

func (c *Conversation) append(turns ...Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turns...)
}

// Memory holds per-user conversations, created lazily and kept for the
// lifetime of the process or until reset. The map lock only guards
// creation-if-absent and reset; each conversation carries its own lock so
// appends for one user serialize without blocking other users.
type Memory struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
}

func NewMemory() *Memory {
	return &Memory{conversations: make(map[string]*Conversation)}
}

// GetOrCreate returns the user's conversation, creating an empty one on first
// access. It never fails.
func (m *Memory) GetOrCreate(userID string) *Conversation {
	m.mu.RLock()
	conv, ok := m.conversations[userID]
	m.mu.RUnlock()
	if ok {
		return conv
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if conv, ok := m.conversations[userID]; ok {
		return conv
	}
	conv = &Conversation{}
	m.conversations[userID] = conv
	return conv
}

// History returns the user's turns in order, or an empty sequence when no
// conversation exists. It never creates one.
func (m *Memory) History(userID string) []Turn {
	m.mu.RLock()
	conv, ok := m.conversations[userID]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return conv.Turns()
}

// Append records one student/counselor exchange, student turn first. Every
// call appends; duplicate content is not collapsed.
func (m *Memory) Append(userID, studentMessage, counselorResponse string) {
	conv := m.GetOrCreate(userID)
	conv.append(
		Turn{Role: RoleStudent, Content: studentMessage},
		Turn{Role: RoleCounselor, Content: counselorResponse},
	)
}

// Reset drops the user's conversation entirely. Resetting an unknown user is
// a no-op.
func (m *Memory) Reset(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.conversations, userID)
}

// Count reports how many conversations are held.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conversations)
}

package session

import "sync"

// Store exposes session retrieval and persistence for the workflow engine.
type Store interface {
	// GetOrCreate returns the session for the chat, creating a fresh one
	// in StateStart when the chat is seen for the first time.
	GetOrCreate(chatID int64) *Session
	// Get returns the session if the chat is known.
	Get(chatID int64) (*Session, bool)
	// Put persists the session under its chat id.
	Put(s *Session)
}

// MemoryStore implements Store with a mutex-guarded map. Sessions are never
// evicted; for a long-running deployment this grows without bound, which is
// acceptable while storage stays in-process.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore bootstraps an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]*Session)}
}

// GetOrCreate returns the stored session or registers a new one.
func (m *MemoryStore) GetOrCreate(chatID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[chatID]; ok {
		copied := *s
		return &copied
	}

	s := &Session{ChatID: chatID, State: StateStart}
	m.sessions[chatID] = s
	copied := *s
	return &copied
}

// Get retrieves a copy of the session by chat id.
func (m *MemoryStore) Get(chatID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[chatID]
	if !ok {
		return nil, false
	}
	copied := *s
	return &copied, true
}

// Put stores the session, replacing any previous value for the chat.
func (m *MemoryStore) Put(s *Session) {
	if s == nil {
		return
	}
	copied := *s
	m.mu.Lock()
	m.sessions[s.ChatID] = &copied
	m.mu.Unlock()
}

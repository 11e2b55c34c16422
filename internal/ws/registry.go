package ws

import (
	"sync"
)

// Registry is the single source of truth for which users currently hold a
// live session. It tracks one session per user: a newer authentication for
// the same user displaces the older mapping (last-authenticated-wins).
// Process-local only; every user is offline again after a restart.
type Registry struct {
	mu           sync.RWMutex
	userSessions map[string]*Session // userID -> session
	sessionUsers map[string]string   // sessionID -> userID
}

func NewRegistry() *Registry {
	return &Registry{
		userSessions: make(map[string]*Session),
		sessionUsers: make(map[string]string),
	}
}

// Register installs the user<->session mapping in both directions. If the
// user already had a different session, that session's reverse mapping is
// dropped so a late disconnect from it cannot evict the new one.
func (r *Registry) Register(userID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.userSessions[userID]; ok && old.ID != s.ID {
		delete(r.sessionUsers, old.ID)
	}

	r.userSessions[userID] = s
	r.sessionUsers[s.ID] = userID
}

// Unregister removes both directions of the mapping. Safe to call for
// sessions that were never registered or were already removed.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.sessionUsers[sessionID]
	if !ok {
		return
	}
	delete(r.sessionUsers, sessionID)

	if current, ok := r.userSessions[userID]; ok && current.ID == sessionID {
		delete(r.userSessions, userID)
	}
}

func (r *Registry) SessionFor(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.userSessions[userID]
	return s, ok
}

func (r *Registry) UserFor(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.sessionUsers[sessionID]
	return userID, ok
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.userSessions[userID]
	return ok
}

func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.userSessions))
	for userID := range r.userSessions {
		users = append(users, userID)
	}
	return users
}

// Push delivers an event to the user's live session if there is one.
// Best-effort: a false return means the user is offline or the session is
// going away, and the caller falls back to persisted state.
func (r *Registry) Push(userID, event string, data interface{}) bool {
	s, ok := r.SessionFor(userID)
	if !ok {
		return false
	}
	return s.Send(event, data)
}

// Broadcast sends an event to every registered session.
func (r *Registry) Broadcast(event string, data interface{}) {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.userSessions))
	for _, s := range r.userSessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	for _, s := range sessions {
		s.Send(event, data)
	}
}

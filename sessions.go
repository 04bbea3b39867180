package main

import "sync"

// Roles a live connection can hold within a match
const (
	RolePlayer    = "player"
	RoleSpectator = "spectator"
)

// UserSession is one live connection's attachment to a match. Records are
// treated as immutable once stored; an upsert replaces the whole record.
type UserSession struct {
	ConnID  string
	UserID  int64
	MatchID int64
	Role    string
}

// SessionManager is the in-memory directory mapping live connections to
// matches and roles, and match ids to running Match instances. Lookups on
// unknown ids return nil rather than an error; the transport layer turns
// absence into a wire-level response.
type SessionManager struct {
	mu      sync.RWMutex
	byUser  map[int64]*UserSession
	byConn  map[string]*UserSession
	matches map[int64]*Match
}

// NewSessionManager creates an empty directory
func NewSessionManager() *SessionManager {
	return &SessionManager{
		byUser:  make(map[int64]*UserSession),
		byConn:  make(map[string]*UserSession),
		matches: make(map[int64]*Match),
	}
}

// UserAdd upserts the record for its user id. A second connection for the
// same user replaces the first (last write wins), keeping at most one
// live record per user.
func (sm *SessionManager) UserAdd(s UserSession) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if prev, ok := sm.byUser[s.UserID]; ok {
		delete(sm.byConn, prev.ConnID)
	}
	rec := &s
	sm.byUser[s.UserID] = rec
	sm.byConn[s.ConnID] = rec
}

// UserRemove drops the record for a connection id, if still current
func (sm *SessionManager) UserRemove(connID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	rec, ok := sm.byConn[connID]
	if !ok {
		return
	}
	delete(sm.byConn, connID)
	if cur, ok := sm.byUser[rec.UserID]; ok && cur.ConnID == connID {
		delete(sm.byUser, rec.UserID)
	}
}

// UserByID returns the live record for a user id, or nil
func (sm *SessionManager) UserByID(userID int64) *UserSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.byUser[userID]
}

// UserByConn returns the live record for a connection id, or nil
func (sm *SessionManager) UserByConn(connID string) *UserSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.byConn[connID]
}

// UserMatches reports whether the connection actually belongs to the
// claimed user id. Input events failing this check are spoofed and must
// be dropped by the caller.
func (sm *SessionManager) UserMatches(connID string, userID int64) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	rec, ok := sm.byConn[connID]
	return ok && rec.UserID == userID
}

// SessionFindOrCreate returns the running match for an id, constructing
// it on first use. created tells the caller whether it owns startup work
// such as spawning the tick driver.
func (sm *SessionManager) SessionFindOrCreate(matchID int64, opts GameOptions) (m *Match, created bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if m, ok := sm.matches[matchID]; ok {
		return m, false
	}
	m = NewMatch(matchID, opts)
	sm.matches[matchID] = m
	return m, true
}

// SessionGet returns the running match for an id, or nil
func (sm *SessionManager) SessionGet(matchID int64) *Match {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.matches[matchID]
}

// SessionRemove discards a match once its finish descriptor has been
// consumed
func (sm *SessionManager) SessionRemove(matchID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.matches, matchID)
}

// SessionSpectators returns the live records spectating a match
func (sm *SessionManager) SessionSpectators(matchID int64) []*UserSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	var specs []*UserSession
	for _, rec := range sm.byConn {
		if rec.MatchID == matchID && rec.Role == RoleSpectator {
			specs = append(specs, rec)
		}
	}
	return specs
}

// SessionUsers returns every live record attached to a match, players and
// spectators alike. Used for per-match broadcast.
func (sm *SessionManager) SessionUsers(matchID int64) []*UserSession {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	var users []*UserSession
	for _, rec := range sm.byConn {
		if rec.MatchID == matchID {
			users = append(users, rec)
		}
	}
	return users
}

// MatchCount returns the number of live matches
func (sm *SessionManager) MatchCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.matches)
}

// UserCount returns the number of live connections
func (sm *SessionManager) UserCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.byConn)
}

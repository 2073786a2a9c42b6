package debate

import (
	"log"
	"sync"
	"time"
)

type storeKey struct {
	ChatID  int64
	OwnerID int64
}

type storeEntry struct {
	session      *Session
	lastAccessed time.Time
}

// Store holds the active session per (chat, owner). Sessions are in-memory
// only and expire after the idle TTL; a finished or abandoned debate is
// dropped explicitly by the controller.
type Store struct {
	mu       sync.Mutex
	sessions map[storeKey]*storeEntry
	idleTTL  time.Duration
}

func NewStore(idleTTL time.Duration) *Store {
	return &Store{
		sessions: make(map[storeKey]*storeEntry),
		idleTTL:  idleTTL,
	}
}

func (st *Store) Put(chatID, ownerID int64, s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[storeKey{chatID, ownerID}] = &storeEntry{
		session:      s,
		lastAccessed: time.Now(),
	}
}

func (st *Store) Get(chatID, ownerID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[storeKey{chatID, ownerID}]
	if !ok {
		return nil, false
	}
	e.lastAccessed = time.Now()
	return e.session, true
}

func (st *Store) Delete(chatID, ownerID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, storeKey{chatID, ownerID})
}

// Sweep drops sessions idle past the TTL and returns how many were removed.
func (st *Store) Sweep() int {
	now := time.Now()
	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for k, e := range st.sessions {
		if now.Sub(e.lastAccessed) > st.idleTTL {
			delete(st.sessions, k)
			removed++
		}
	}
	return removed
}

// RunCleanup sweeps periodically until stop is closed.
func (st *Store) RunCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := st.Sweep(); n > 0 {
				log.Printf("debate: swept %d idle sessions", n)
			}
		case <-stop:
			return
		}
	}
}

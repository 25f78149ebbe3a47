package store

import (
	"log"
	"sync"
	"time"

	"github.com/ayusman/poivr/internal/trick"
)

// TrickLog is a trick.Sink that records every event against the open
// session. Events arriving while no session is open are dropped.
type TrickLog struct {
	tricks *TrickRepository
	now    func() time.Time

	mu        sync.RWMutex
	sessionID string
}

// NewTrickLog creates a TrickLog writing to tricks.
func NewTrickLog(tricks *TrickRepository) *TrickLog {
	return &TrickLog{tricks: tricks, now: time.Now}
}

// Open directs subsequent events to the given session.
func (l *TrickLog) Open(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sessionID = sessionID
}

// Close stops recording if sessionID is the open session.
func (l *TrickLog) Close(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sessionID == sessionID {
		l.sessionID = ""
	}
}

// Session returns the open session ID, or "" if none is open.
func (l *TrickLog) Session() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sessionID
}

// OnTrick records e in the open session.
func (l *TrickLog) OnTrick(e trick.Event) {
	id := l.Session()
	if id == "" {
		return
	}

	if _, err := l.tricks.Record(id, e, l.now()); err != nil {
		log.Printf("Failed to record trick %s: %v", e, err)
	}
}

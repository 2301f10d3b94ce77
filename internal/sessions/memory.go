package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/linkshare/linkshare/backend/session-store/pkg/logger"
)

// MemoryRepository keeps sessions in process. Like the Mongo unique index, a
// token stays taken until its record is removed, expired or not; PurgeExpired
// plays the part of the TTL monitor.
type MemoryRepository[S any, P Record[S]] struct {
	mu   sync.RWMutex
	kind Kind
	data map[string]S
	now  func() time.Time
}

func NewMemoryRepository[S any, P Record[S]]() *MemoryRepository[S, P] {
	return &MemoryRepository[S, P]{kind: kindOf[S, P](), data: make(map[string]S), now: time.Now}
}

func (m *MemoryRepository[S, P]) Insert(_ context.Context, s *S) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok := P(s).Token()
	if _, ok := m.data[tok]; ok {
		return fmt.Errorf("%w in %s", ErrDuplicateToken, m.kind.Collection)
	}
	P(s).assignID()
	m.data[tok] = *s
	return nil
}

func (m *MemoryRepository[S, P]) Get(_ context.Context, token string) (*S, error) {
	m.mu.RLock()
	s, ok := m.data[token]
	m.mu.RUnlock()
	if !ok || expired(P(&s).ExpiresAt(), m.now()) {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryRepository[S, P]) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[token]; !ok {
		return ErrNotFound
	}
	delete(m.data, token)
	return nil
}

func (m *MemoryRepository[S, P]) DeleteByUser(_ context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed []string
	for tok, s := range m.data {
		if u := P(&s).User(); u != nil && u.ID == userID {
			delete(m.data, tok)
			removed = append(removed, tok)
		}
	}
	return removed, nil
}

// PurgeExpired drops expired sessions, standing in for the TTL monitor.
func (m *MemoryRepository[S, P]) PurgeExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	n := 0
	for tok, s := range m.data {
		if expired(P(&s).ExpiresAt(), now) {
			delete(m.data, tok)
			n++
		}
	}
	return n
}

// Len counts stored sessions, expired ones included.
func (m *MemoryRepository[S, P]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Purger is implemented by MemoryRepository.
type Purger interface {
	PurgeExpired() int
}

// RunJanitor purges expired sessions every interval until ctx is done.
func RunJanitor(ctx context.Context, every time.Duration, repos ...Purger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := 0
			for _, r := range repos {
				n += r.PurgeExpired()
			}
			if n > 0 {
				logger.Debugf("janitor purged %d expired sessions", n)
			}
		}
	}
}

package store

import (
	"sync"
	"time"

	"mimic-server/internal/models"

	"go.uber.org/zap"
)

// SessionStore хранит игровые сессии процесса.
// Хранилище намеренно эфемерное: одна мапа под общим RWMutex, время жизни
// записи фиксировано от момента создания и активностью не продлевается.
type SessionStore interface {
	Create(session *models.GameSession)
	Get(sessionID string) (*models.GameSession, bool)
	Delete(sessionID string)
	// Cleanup удаляет все сессии старше TTL; возвращает число удалённых.
	Cleanup() int
	// StartSweeper запускает фоновую горутину периодической очистки.
	StartSweeper(interval time.Duration)
	// Stop останавливает фоновую очистку и ждёт её завершения.
	Stop()
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.GameSession
	ttl      time.Duration

	closing chan struct{}
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewMemoryStore создает in-memory хранилище сессий с указанным TTL.
func NewMemoryStore(ttl time.Duration, logger *zap.Logger) SessionStore {
	return &memorySessionStore{
		sessions: make(map[string]*models.GameSession),
		ttl:      ttl,
		closing:  make(chan struct{}),
		logger:   logger,
	}
}

func (s *memorySessionStore) Create(session *models.GameSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.SessionID] = session
}

func (s *memorySessionStore) Get(sessionID string) (*models.GameSession, bool) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	// Просроченная, но еще не выметенная запись считается отсутствующей.
	if time.Since(session.CreatedAt) > s.ttl {
		s.Delete(sessionID)
		return nil, false
	}
	return session, true
}

func (s *memorySessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Cleanup выметает все сессии, чей возраст превысил TTL. Один общий проход
// вместо таймера на каждую запись, чтобы не плодить таймеры под нагрузкой.
func (s *memorySessionStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, session := range s.sessions {
		if now.Sub(session.CreatedAt) > s.ttl {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *memorySessionStore) StartSweeper(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := s.Cleanup(); removed > 0 {
					s.logger.Info("Просроченные сессии удалены", zap.Int("count", removed))
				}
			case <-s.closing:
				return
			}
		}
	}()
}

func (s *memorySessionStore) Stop() {
	close(s.closing)
	s.wg.Wait()
}
